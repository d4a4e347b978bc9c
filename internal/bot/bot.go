package bot

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/tazhate/voicealarm/config"
	"github.com/tazhate/voicealarm/internal/service"
	"golang.org/x/time/rate"
)

// telegramAPI is the subset of *tgbotapi.BotAPI used to talk to chats.
type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
}

type Bot struct {
	botAPI           *tgbotapi.BotAPI
	api              telegramAPI
	cfg              *config.Config
	alarmService     *service.AlarmService
	recordingService *service.RecordingService
	limiter          *rate.Limiter
	httpClient       *http.Client

	mu      sync.Mutex
	snoozes map[*time.Timer]struct{}
	stopped bool
}

func New(cfg *config.Config, alarmSvc *service.AlarmService, recordingSvc *service.RecordingService) (*Bot, error) {
	botAPI, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	log.Printf("Authorized as @%s", botAPI.Self.UserName)

	b := newBot(cfg, botAPI, alarmSvc, recordingSvc)
	b.botAPI = botAPI

	// Set bot commands (menu button)
	b.setCommands()

	return b, nil
}

func newBot(cfg *config.Config, api telegramAPI, alarmSvc *service.AlarmService, recordingSvc *service.RecordingService) *Bot {
	return &Bot{
		api:              api,
		cfg:              cfg,
		alarmService:     alarmSvc,
		recordingService: recordingSvc,
		limiter:          rate.NewLimiter(rate.Limit(cfg.NotifyRate), 1),
		httpClient:       &http.Client{Timeout: 60 * time.Second},
		snoozes:          make(map[*time.Timer]struct{}),
	}
}

func (b *Bot) setCommands() {
	commands := []tgbotapi.BotCommand{
		{Command: "alarms", Description: "⏰ Alarms"},
		{Command: "recordings", Description: "🎙 Recordings"},
		{Command: "help", Description: "❓ Help"},
	}

	cfg := tgbotapi.NewSetMyCommands(commands...)
	if _, err := b.api.Request(cfg); err != nil {
		log.Printf("Failed to set commands: %v", err)
	}
}

// SetupWebhook points Telegram at WebhookURL + "/bot".
func (b *Bot) SetupWebhook() error {
	webhookURL := b.cfg.WebhookURL + "/bot"

	wh, err := tgbotapi.NewWebhook(webhookURL)
	if err != nil {
		return fmt.Errorf("create webhook: %w", err)
	}

	if _, err := b.api.Request(wh); err != nil {
		return fmt.Errorf("set webhook: %w", err)
	}

	info, err := b.botAPI.GetWebhookInfo()
	if err != nil {
		return fmt.Errorf("get webhook info: %w", err)
	}

	if info.LastErrorDate != 0 {
		log.Printf("Webhook last error: %s", info.LastErrorMessage)
	}

	log.Printf("Webhook set to: %s", webhookURL)
	return nil
}

// WebhookHandler decodes updates pushed by Telegram.
func (b *Bot) WebhookHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		update, err := b.botAPI.HandleUpdate(r)
		if err != nil {
			log.Printf("Bad webhook update: %v", err)
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		go b.handleUpdate(*update)
	})
}

// Start long-polls for updates until ctx is done. It is only used when no
// webhook is configured.
func (b *Bot) Start(ctx context.Context) error {
	if _, err := b.api.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		return fmt.Errorf("delete webhook: %w", err)
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.botAPI.GetUpdatesChan(u)
	log.Println("Polling for updates")

	for {
		select {
		case <-ctx.Done():
			b.botAPI.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			go b.handleUpdate(update)
		}
	}
}

// Stop cancels pending snoozes.
func (b *Bot) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.stopped = true
	for t := range b.snoozes {
		t.Stop()
	}
	clear(b.snoozes)
}

func (b *Bot) SendMessage(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "HTML"
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) SendMessageWithKeyboard(chatID int64, text string, keyboard tgbotapi.InlineKeyboardMarkup) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "HTML"
	msg.ReplyMarkup = keyboard
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) editMessage(chatID int64, msgID int, text string, keyboard *tgbotapi.InlineKeyboardMarkup) {
	edit := tgbotapi.NewEditMessageText(chatID, msgID, text)
	edit.ParseMode = "HTML"
	edit.ReplyMarkup = keyboard
	if _, err := b.api.Send(edit); err != nil {
		log.Printf("Error editing message %d: %v", msgID, err)
	}
}

func (b *Bot) answer(callbackID, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		log.Printf("Error answering callback: %v", err)
	}
}
