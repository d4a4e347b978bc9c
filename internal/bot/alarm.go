package bot

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log"
	"time"
)

const (
	snoozedTitle = "⏰ Snoozed Alarm"
	snoozedBody  = "It's time again!"
)

// Fire delivers an alarm to every recipient with snooze and stop buttons.
// Sends are paced by the bot's rate limiter.
func (b *Bot) Fire(ctx context.Context, title, body string) error {
	var errs []error
	for _, chatID := range b.cfg.Recipients() {
		if err := b.fireTo(ctx, chatID, title, body); err != nil {
			errs = append(errs, fmt.Errorf("chat %d: %w", chatID, err))
		}
	}
	return errors.Join(errs...)
}

func (b *Bot) fireTo(ctx context.Context, chatID int64, title, body string) error {
	if err := b.limiter.Wait(ctx); err != nil {
		return err
	}
	return b.SendMessageWithKeyboard(chatID, alarmText(title, body), alarmKeyboard())
}

func alarmText(title, body string) string {
	return fmt.Sprintf("<b>%s</b>\n\n%s", html.EscapeString(title), html.EscapeString(body))
}

// snooze re-fires the alarm to chatID after the configured delay.
func (b *Bot) snooze(chatID int64) time.Time {
	delay := b.cfg.SnoozeAfter

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stopped {
		return time.Time{}
	}

	var timer *time.Timer
	timer = time.AfterFunc(delay, func() {
		b.mu.Lock()
		delete(b.snoozes, timer)
		b.mu.Unlock()

		if err := b.fireTo(context.Background(), chatID, snoozedTitle, snoozedBody); err != nil {
			log.Printf("Error sending snoozed alarm to %d: %v", chatID, err)
		}
	})
	b.snoozes[timer] = struct{}{}
	return time.Now().Add(delay)
}

func (b *Bot) pendingSnoozes() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.snoozes)
}
