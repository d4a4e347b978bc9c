package bot

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/tazhate/voicealarm/config"
	"github.com/tazhate/voicealarm/internal/domain"
	"github.com/tazhate/voicealarm/internal/service"
	"github.com/tazhate/voicealarm/internal/storage"
)

const (
	ownerID   int64 = 42
	partnerID int64 = 43
)

type fakeAPI struct {
	mu       sync.Mutex
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
	fileURL  string
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, nil
}

func (f *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) GetFileDirectURL(string) (string, error) {
	return f.fileURL, nil
}

func (f *fakeAPI) messages() []tgbotapi.MessageConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []tgbotapi.MessageConfig
	for _, c := range f.sent {
		if m, ok := c.(tgbotapi.MessageConfig); ok {
			out = append(out, m)
		}
	}
	return out
}

func (f *fakeAPI) edits() []tgbotapi.EditMessageTextConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []tgbotapi.EditMessageTextConfig
	for _, c := range f.sent {
		if e, ok := c.(tgbotapi.EditMessageTextConfig); ok {
			out = append(out, e)
		}
	}
	return out
}

type testBot struct {
	*Bot
	fake   *fakeAPI
	alarms *service.AlarmService
	recs   *service.RecordingService
}

func newTestBot(t *testing.T) *testBot {
	t.Helper()

	dir := t.TempDir()
	store, err := storage.New(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("failed to open storage: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	cfg := &config.Config{
		Timezone:          time.UTC,
		SnoozeAfter:       time.Hour,
		NotifyRate:        1000,
		OwnerTelegramID:   ownerID,
		PartnerTelegramID: partnerID,
	}
	alarms := service.NewAlarmService(store, time.UTC)
	recs := service.NewRecordingService(store, filepath.Join(dir, "recordings"))
	fake := &fakeAPI{}

	b := newBot(cfg, fake, alarms, recs)
	t.Cleanup(b.Stop)
	return &testBot{Bot: b, fake: fake, alarms: alarms, recs: recs}
}

func commandMessage(from int64, text string) *tgbotapi.Message {
	cmd, _, _ := strings.Cut(text, " ")
	return &tgbotapi.Message{
		MessageID: 1,
		From:      &tgbotapi.User{ID: from, FirstName: "Sam"},
		Chat:      &tgbotapi.Chat{ID: from},
		Text:      text,
		Entities:  []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd)}},
	}
}

func callback(from int64, data string) *tgbotapi.CallbackQuery {
	return &tgbotapi.CallbackQuery{
		ID:   "cb1",
		From: &tgbotapi.User{ID: from},
		Data: data,
		Message: &tgbotapi.Message{
			MessageID: 7,
			Chat:      &tgbotapi.Chat{ID: from},
			Text:      "⏰ Alarm\n\nWake up",
		},
	}
}

func TestBot_FireSendsToRecipientsWithButtons(t *testing.T) {
	t.Parallel()

	tb := newTestBot(t)
	if err := tb.Fire(context.Background(), "⏰ Alarm", "Wake <up>"); err != nil {
		t.Fatalf("Fire returned error: %v", err)
	}

	msgs := tb.fake.messages()
	if len(msgs) != 2 || msgs[0].ChatID != ownerID || msgs[1].ChatID != partnerID {
		t.Fatalf("expected one message per recipient, got %+v", msgs)
	}
	if !strings.Contains(msgs[0].Text, "Wake &lt;up&gt;") {
		t.Fatalf("expected escaped body, got %q", msgs[0].Text)
	}
	kb, ok := msgs[0].ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	if !ok || len(kb.InlineKeyboard) != 1 || len(kb.InlineKeyboard[0]) != 2 {
		t.Fatalf("expected snooze/stop keyboard, got %#v", msgs[0].ReplyMarkup)
	}
	if *kb.InlineKeyboard[0][0].CallbackData != "alarm:snooze" || *kb.InlineKeyboard[0][1].CallbackData != "alarm:stop" {
		t.Fatalf("unexpected buttons %+v", kb.InlineKeyboard[0])
	}
}

func TestBot_FireHonoursCancelledContext(t *testing.T) {
	t.Parallel()

	tb := newTestBot(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := tb.Fire(ctx, "⏰ Alarm", "x"); err == nil {
		t.Fatalf("expected error when the limiter cannot wait")
	}
}

func TestBot_SnoozeRefires(t *testing.T) {
	t.Parallel()

	tb := newTestBot(t)
	tb.cfg.SnoozeAfter = 10 * time.Millisecond

	tb.handleCallback(callback(ownerID, "alarm:snooze"))

	edits := tb.fake.edits()
	if len(edits) != 1 || !strings.Contains(edits[0].Text, "Snoozed until") || edits[0].ReplyMarkup != nil {
		t.Fatalf("expected snooze edit without buttons, got %+v", edits)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		for _, m := range tb.fake.messages() {
			if m.ChatID == ownerID && strings.Contains(m.Text, "Snoozed Alarm") && strings.Contains(m.Text, "It's time again!") {
				return
			}
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("snoozed alarm was not re-sent")
}

func TestBot_StopDismissesAndCancelsSnoozes(t *testing.T) {
	t.Parallel()

	tb := newTestBot(t)

	tb.handleCallback(callback(ownerID, "alarm:stop"))
	edits := tb.fake.edits()
	if len(edits) != 1 || !strings.Contains(edits[0].Text, "Stopped") {
		t.Fatalf("expected stop edit, got %+v", edits)
	}

	tb.handleCallback(callback(ownerID, "alarm:snooze"))
	if tb.pendingSnoozes() != 1 {
		t.Fatalf("expected a pending snooze")
	}
	tb.Stop()
	if tb.pendingSnoozes() != 0 {
		t.Fatalf("expected Stop to cancel pending snoozes")
	}
}

func TestBot_RejectsStrangers(t *testing.T) {
	t.Parallel()

	tb := newTestBot(t)
	tb.handleMessage(commandMessage(999, "/alarms"))

	msgs := tb.fake.messages()
	if len(msgs) != 1 || !strings.Contains(msgs[0].Text, "Access denied") {
		t.Fatalf("expected access denied, got %+v", msgs)
	}
}

func TestBot_SetAlarmCommand(t *testing.T) {
	t.Parallel()

	tb := newTestBot(t)
	tb.handleMessage(commandMessage(ownerID, "/setalarm default-1 07:30 AM mon,wed Wake up"))

	views, err := tb.alarms.List()
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(views) != 1 {
		t.Fatalf("expected one alarm, got %d", len(views))
	}
	a := views[0]
	if a.RecordingURI != domain.BuiltinRecordings()[0].URI || a.Name != "Wake up" || domain.FormatDays(a.Days) != "MON, WED" {
		t.Fatalf("unexpected alarm %+v", a)
	}

	tb.handleMessage(commandMessage(ownerID, "/alarms"))
	msgs := tb.fake.messages()
	last := msgs[len(msgs)-1]
	if !strings.Contains(last.Text, "07:30 AM") || !strings.Contains(last.Text, "Wake up") {
		t.Fatalf("unexpected alarm list %q", last.Text)
	}
}

func TestBot_SetAlarmUnknownRecording(t *testing.T) {
	t.Parallel()

	tb := newTestBot(t)
	tb.handleMessage(commandMessage(ownerID, "/setalarm nope 07:30 AM"))

	msgs := tb.fake.messages()
	if len(msgs) != 1 || !strings.Contains(msgs[0].Text, "Not found") {
		t.Fatalf("expected not found reply, got %+v", msgs)
	}
}

func TestBot_ImportVoiceAndDelete(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OggS fake voice"))
	}))
	defer srv.Close()

	tb := newTestBot(t)
	tb.fake.fileURL = srv.URL + "/voice.oga"

	tb.handleMessage(&tgbotapi.Message{
		MessageID: 2,
		From:      &tgbotapi.User{ID: ownerID},
		Chat:      &tgbotapi.Chat{ID: ownerID},
		Caption:   "Kids singing",
		Voice:     &tgbotapi.Voice{FileID: "f1"},
	})

	recs, err := tb.recs.List()
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(recs) != 6 || recs[5].Name != "Kids singing" {
		t.Fatalf("expected imported recording, got %+v", recs)
	}
	rec := recs[5]

	if _, err := tb.alarms.Create(rec.URI, "", domain.ClockTime{Hour: 7, Minute: 0, Meridiem: domain.AM}, nil); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	tb.handleCallback(callback(ownerID, "recdel:"+rec.ID))
	edits := tb.fake.edits()
	if len(edits) == 0 || !strings.Contains(edits[len(edits)-1].Text, "Kids singing") ||
		!strings.Contains(edits[len(edits)-1].Text, "1 alarm(s)") {
		t.Fatalf("expected confirmation prompt, got %+v", edits)
	}

	tb.handleCallback(callback(ownerID, "confirm_recdel:"+rec.ID))
	recs, _ = tb.recs.List()
	views, _ := tb.alarms.List()
	if len(recs) != 5 || len(views) != 0 {
		t.Fatalf("expected recording and its alarm removed, got %d recordings %d alarms", len(recs), len(views))
	}
}

func TestBot_DeleteBuiltinIsRefused(t *testing.T) {
	t.Parallel()

	tb := newTestBot(t)
	tb.handleCallback(callback(ownerID, "confirm_recdel:default-1"))

	recs, _ := tb.recs.List()
	if len(recs) != 5 {
		t.Fatalf("expected built-ins untouched, got %d", len(recs))
	}
	if len(tb.fake.requests) == 0 {
		t.Fatalf("expected callback answer")
	}
}
