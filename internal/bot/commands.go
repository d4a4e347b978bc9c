package bot

import (
	"errors"
	"fmt"
	"html"
	"log"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/tazhate/voicealarm/internal/domain"
	"github.com/tazhate/voicealarm/internal/service"
)

func (b *Bot) handleCommand(msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	args := strings.TrimSpace(msg.CommandArguments())

	switch msg.Command() {
	case "start":
		b.SendMessage(chatID, fmt.Sprintf("👋 Hi, %s!\n\nI ring your alarms here.\n\n/help for commands", msg.From.FirstName))
	case "help":
		b.cmdHelp(chatID)
	case "alarms":
		b.cmdAlarms(chatID)
	case "recordings":
		b.cmdRecordings(chatID)
	case "setalarm":
		b.cmdSetAlarm(chatID, args)
	case "rename":
		b.cmdRename(chatID, args)
	default:
		b.SendMessage(chatID, "Unknown command. /help for the list")
	}
}

func (b *Bot) cmdHelp(chatID int64) {
	text := `<b>Commands:</b>

<b>Alarms</b>
/alarms — list alarms
/setalarm ID 07:30 AM mon,wed Name — new alarm for recording ID

<b>Recordings</b>
/recordings — list recordings
/rename ID New name — rename a recording

<b>Other</b>
/help — this help

💡 Send a voice message or audio file to add a recording`

	b.SendMessage(chatID, text)
}

func (b *Bot) cmdAlarms(chatID int64) {
	text, kb, err := b.alarmsView()
	if err != nil {
		b.SendMessage(chatID, "❌ Error: "+err.Error())
		return
	}
	b.SendMessageWithKeyboard(chatID, text, *kb)
}

func (b *Bot) alarmsView() (string, *tgbotapi.InlineKeyboardMarkup, error) {
	views, err := b.alarmService.List()
	if err != nil {
		return "", nil, err
	}
	recs, err := b.recordingService.List()
	if err != nil {
		log.Printf("Error listing recordings: %v", err)
	}

	text := "<b>⏰ Alarms</b>\n\n" + b.alarmService.FormatAlarmList(views)
	return text, alarmListKeyboard(views, recs), nil
}

func (b *Bot) cmdRecordings(chatID int64) {
	text, kb, err := b.recordingsView()
	if err != nil {
		b.SendMessage(chatID, "❌ Error: "+err.Error())
		return
	}
	b.SendMessageWithKeyboard(chatID, text, *kb)
}

func (b *Bot) recordingsView() (string, *tgbotapi.InlineKeyboardMarkup, error) {
	recs, err := b.recordingService.List()
	if err != nil {
		return "", nil, err
	}
	text := "<b>🎙 Recordings</b>\n\n" + b.recordingService.FormatRecordingList(recs)
	return text, recordingListKeyboard(recs), nil
}

func (b *Bot) cmdSetAlarm(chatID int64, args string) {
	if args == "" {
		b.SendMessage(chatID, "Usage: /setalarm default-1 07:30 AM mon,wed Wake up\n\n/recordings shows the ids")
		return
	}

	parsed, err := service.ParseSetAlarmArgs(args)
	if err != nil {
		b.SendMessage(chatID, "❌ "+err.Error())
		return
	}

	rec, err := b.recordingService.Get(parsed.RecordingID)
	if err != nil {
		b.SendMessage(chatID, "❌ "+userError(err))
		return
	}

	alarm, err := b.alarmService.Create(rec.URI, parsed.Name, parsed.Time, parsed.Days)
	if err != nil {
		b.SendMessage(chatID, "❌ "+userError(err))
		return
	}

	b.SendMessage(chatID, fmt.Sprintf("✅ Alarm set\n\n⏰ <b>%s</b> %s\n📅 %s\n🎵 %s",
		alarm.Time, html.EscapeString(alarm.Name), domain.FormatDays(alarm.Days), html.EscapeString(rec.Name)))
}

func (b *Bot) cmdRename(chatID int64, args string) {
	parts := strings.SplitN(args, " ", 2)
	if len(parts) < 2 || strings.TrimSpace(parts[1]) == "" {
		b.SendMessage(chatID, "Usage: /rename ID New name")
		return
	}

	if err := b.recordingService.Rename(parts[0], parts[1]); err != nil {
		b.SendMessage(chatID, "❌ "+userError(err))
		return
	}
	b.SendMessage(chatID, "✅ Renamed")
}

func userError(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return "Not found"
	case errors.Is(err, domain.ErrBuiltinRecording):
		return "Built-in recordings can't be changed"
	default:
		return err.Error()
	}
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-1]) + "…"
}
