package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/tazhate/voicealarm/internal/domain"
	"github.com/tazhate/voicealarm/internal/service"
)

// Ringing alarm keyboard
func alarmKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("😴 Snooze", "alarm:snooze"),
			tgbotapi.NewInlineKeyboardButtonData("⏹ Stop", "alarm:stop"),
		),
	)
}

// Alarm list keyboard: one "remove" button per recording that has alarms
func alarmListKeyboard(views []service.AlarmView, recs []domain.Recording) *tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton

	seen := make(map[string]bool)
	for _, v := range views {
		if seen[v.RecordingURI] {
			continue
		}
		seen[v.RecordingURI] = true

		rec := recordingByURI(recs, v.RecordingURI)
		if rec == nil {
			continue
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔕 "+truncate(rec.Name, 30), "alarmdel:"+rec.ID),
		))
	}

	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🎙 Recordings", "menu:recordings"),
		tgbotapi.NewInlineKeyboardButtonData("🔄", "refresh:alarms"),
	))

	keyboard := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &keyboard
}

// Recording list keyboard: delete buttons for user recordings only
func recordingListKeyboard(recs []domain.Recording) *tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton

	for _, r := range recs {
		if !r.CanDelete() {
			continue
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🗑 "+truncate(r.Name, 30), "recdel:"+r.ID),
		))
	}

	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("⏰ Alarms", "menu:alarms"),
		tgbotapi.NewInlineKeyboardButtonData("🔄", "refresh:recordings"),
	))

	keyboard := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &keyboard
}

// Confirm delete keyboard
func confirmDeleteKeyboard(recordingID string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("❌ Yes, delete", "confirm_recdel:"+recordingID),
			tgbotapi.NewInlineKeyboardButtonData("◀️ Cancel", "menu:recordings"),
		),
	)
}

func recordingByURI(recs []domain.Recording, uri string) *domain.Recording {
	for i := range recs {
		if recs[i].URI == uri {
			return &recs[i]
		}
	}
	return nil
}
