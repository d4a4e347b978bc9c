package bot

import (
	"fmt"
	"html"
	"log"
	"net/http"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/tazhate/voicealarm/internal/domain"
)

func (b *Bot) handleUpdate(update tgbotapi.Update) {
	if update.Message != nil {
		b.handleMessage(update.Message)
	} else if update.CallbackQuery != nil {
		b.handleCallback(update.CallbackQuery)
	}
}

func (b *Bot) handleMessage(msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}
	chatID := msg.Chat.ID

	if !b.cfg.IsAllowedUser(msg.From.ID) {
		b.SendMessage(chatID, "⛔ Access denied")
		return
	}

	if msg.Voice != nil || msg.Audio != nil {
		b.importAudio(msg)
		return
	}

	if msg.IsCommand() {
		b.handleCommand(msg)
		return
	}

	if strings.TrimSpace(msg.Text) != "" {
		b.SendMessage(chatID, "Send a voice message to add a recording, or /help")
	}
}

// importAudio stores a voice note or audio file as a new recording
func (b *Bot) importAudio(msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	var fileID, name string
	switch {
	case msg.Voice != nil:
		fileID = msg.Voice.FileID
	case msg.Audio != nil:
		fileID = msg.Audio.FileID
		name = msg.Audio.Title
	}
	if msg.Caption != "" {
		name = msg.Caption
	}

	url, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		log.Printf("Error getting file URL: %v", err)
		b.SendMessage(chatID, "❌ Could not download the file")
		return
	}

	resp, err := b.httpClient.Get(url)
	if err != nil {
		log.Printf("Error downloading %s: %v", fileID, err)
		b.SendMessage(chatID, "❌ Could not download the file")
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		log.Printf("Error downloading %s: status %d", fileID, resp.StatusCode)
		b.SendMessage(chatID, "❌ Could not download the file")
		return
	}

	rec, err := b.recordingService.Import(name, resp.Body)
	if err != nil {
		log.Printf("Error importing recording: %v", err)
		b.SendMessage(chatID, "❌ Error: "+err.Error())
		return
	}

	b.SendMessage(chatID, fmt.Sprintf("🎙 Saved <b>%s</b> <code>%s</code>\n\n/setalarm %s 07:00 AM — set an alarm with it",
		html.EscapeString(rec.Name), rec.ID, rec.ID))
}

func (b *Bot) handleCallback(callback *tgbotapi.CallbackQuery) {
	if callback.Message == nil {
		return
	}
	chatID := callback.Message.Chat.ID
	msgID := callback.Message.MessageID

	if !b.cfg.IsAllowedUser(callback.From.ID) {
		b.answer(callback.ID, "⛔ Access denied")
		return
	}

	action, arg, _ := strings.Cut(callback.Data, ":")

	switch action {
	case "alarm":
		original := html.EscapeString(callback.Message.Text)
		switch arg {
		case "snooze":
			until := b.snooze(chatID)
			if until.IsZero() {
				b.answer(callback.ID, "Shutting down")
				return
			}
			b.answer(callback.ID, "😴 Snoozed")
			b.editMessage(chatID, msgID, fmt.Sprintf("%s\n\n😴 Snoozed until %s", original, until.In(b.cfg.Timezone).Format("15:04")), nil)
		case "stop":
			b.answer(callback.ID, "⏹ Stopped")
			b.editMessage(chatID, msgID, original+"\n\n⏹ Stopped", nil)
		}

	case "menu", "refresh":
		b.answer(callback.ID, "")
		b.showView(chatID, msgID, arg)

	case "alarmdel":
		rec, err := b.recordingService.Get(arg)
		if err != nil {
			b.answer(callback.ID, userError(err))
			return
		}
		n, err := b.alarmService.DeleteByRecording(rec.URI)
		if err != nil {
			b.answer(callback.ID, "❌ "+err.Error())
			return
		}
		b.answer(callback.ID, fmt.Sprintf("🔕 Removed %d alarm(s)", n))
		b.showView(chatID, msgID, "alarms")

	case "recdel":
		rec, err := b.recordingService.Get(arg)
		if err != nil {
			b.answer(callback.ID, userError(err))
			return
		}
		if !rec.CanDelete() {
			b.answer(callback.ID, userError(domain.ErrBuiltinRecording))
			return
		}
		used, err := b.alarmService.ListByRecording(rec.URI)
		if err != nil {
			b.answer(callback.ID, "❌ "+err.Error())
			return
		}
		b.answer(callback.ID, "")
		kb := confirmDeleteKeyboard(rec.ID)
		b.editMessage(chatID, msgID, fmt.Sprintf("Delete <b>%s</b>?\n\n%d alarm(s) play it and will be deleted too.",
			html.EscapeString(rec.Name), len(used)), &kb)

	case "confirm_recdel":
		res, err := b.recordingService.Delete(arg)
		if err != nil {
			b.answer(callback.ID, userError(err))
			return
		}
		b.answer(callback.ID, fmt.Sprintf("🗑 Deleted, %d alarm(s) removed", res.Alarms))
		b.showView(chatID, msgID, "recordings")

	default:
		b.answer(callback.ID, "")
	}
}

func (b *Bot) showView(chatID int64, msgID int, view string) {
	var (
		text string
		kb   *tgbotapi.InlineKeyboardMarkup
		err  error
	)
	switch view {
	case "alarms":
		text, kb, err = b.alarmsView()
	case "recordings":
		text, kb, err = b.recordingsView()
	default:
		return
	}
	if err != nil {
		log.Printf("Error rendering %s: %v", view, err)
		return
	}
	b.editMessage(chatID, msgID, text, kb)
}
