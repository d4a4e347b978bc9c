package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tazhate/voicealarm/config"
	"github.com/tazhate/voicealarm/internal/api"
	"github.com/tazhate/voicealarm/internal/bot"
	"github.com/tazhate/voicealarm/internal/clients/caldav"
	"github.com/tazhate/voicealarm/internal/notify"
	"github.com/tazhate/voicealarm/internal/scheduler"
	"github.com/tazhate/voicealarm/internal/service"
	"github.com/tazhate/voicealarm/internal/storage"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// Load config
	if err := config.LoadDotEnv(".env"); err != nil {
		log.Fatalf("Failed to read .env: %v", err)
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Init storage
	store, err := storage.New(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to init storage: %v", err)
	}
	defer store.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init services
	alarmSvc := service.NewAlarmService(store, cfg.Timezone)
	recordingSvc := service.NewRecordingService(store, cfg.RecordingsDir)
	calendarSvc := newCalendarService(ctx, cfg, store)

	dispatcher := notify.Multi{notify.Log{}}

	var tgBot *bot.Bot
	if cfg.TelegramEnabled() {
		tgBot, err = bot.New(cfg, alarmSvc, recordingSvc)
		if err != nil {
			log.Fatalf("Failed to init bot: %v", err)
		}
		dispatcher = append(dispatcher, tgBot)
	} else {
		log.Println("TELEGRAM_BOT_TOKEN not set, alarms go to the log only")
	}

	// Scheduler: per-minute alarm check plus periodic CalDAV sync
	scheduler.RegisterMetrics()
	matcher := scheduler.NewMatcher(store, dispatcher, nil)
	sched := scheduler.New(matcher, cfg.AlarmSpec, cfg.Timezone)
	if calendarSvc.IsConfigured() {
		sched.AddJob(scheduler.Job{
			Name: "caldav-sync",
			Spec: cfg.CalDAVSyncSpec,
			Run:  calendarSvc.RunSync,
		})
	}

	server := api.New(cfg, alarmSvc, recordingSvc, calendarSvc)

	if tgBot != nil {
		if cfg.WebhookURL != "" {
			server.SetWebhook(tgBot.WebhookHandler())
			if err := tgBot.SetupWebhook(); err != nil {
				log.Fatalf("Failed to setup webhook: %v", err)
			}
		} else {
			go func() {
				if err := tgBot.Start(ctx); err != nil {
					log.Printf("Bot error: %v", err)
				}
			}()
		}
	}

	server.Start()

	stopScheduler, err := sched.Start()
	if err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	log.Println("VoiceAlarm started")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("Shutting down...")

	cancel()
	stopScheduler()
	if tgBot != nil {
		tgBot.Stop()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Stop(shutdownCtx); err != nil {
		log.Printf("Error stopping HTTP server: %v", err)
	}

	log.Println("VoiceAlarm stopped")
}

// newCalendarService wires the CalDAV publisher. Without CALDAV_CALENDAR the
// first calendar of the account is used.
func newCalendarService(ctx context.Context, cfg *config.Config, store *storage.Storage) *service.CalendarService {
	if !cfg.CalDAVEnabled() {
		return service.NewCalendarService(store, nil, "", cfg.Timezone)
	}

	client := caldav.NewClient(cfg.CalDAVURL, cfg.CalDAVUsername, cfg.CalDAVPassword)
	path := cfg.CalDAVCalendar
	if path == "" {
		discoverCtx, done := context.WithTimeout(ctx, 30*time.Second)
		defer done()
		cals, err := client.DiscoverCalendars(discoverCtx)
		switch {
		case err != nil:
			log.Printf("CalDAV discovery failed, publishing disabled: %v", err)
		case len(cals) == 0:
			log.Println("CalDAV account has no calendars, publishing disabled")
		default:
			path = cals[0].URL
			log.Printf("CalDAV: using calendar %q (%s)", cals[0].DisplayName, path)
		}
	}
	client.SetCalendarID(path)
	return service.NewCalendarService(store, client, path, cfg.Timezone)
}
