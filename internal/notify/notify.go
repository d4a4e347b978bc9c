package notify

import (
	"context"
	"errors"
	"log"
	"sync"
)

// Dispatcher delivers one alert. Fire must not block on user interaction;
// callers treat it as fire-and-forget and only log the returned error.
type Dispatcher interface {
	Fire(ctx context.Context, title, body string) error
}

// Func adapts a plain function to Dispatcher.
type Func func(ctx context.Context, title, body string) error

func (f Func) Fire(ctx context.Context, title, body string) error {
	return f(ctx, title, body)
}

// Log writes alerts to the process log. Used when no chat transport is configured.
type Log struct {
	Logger *log.Logger
}

func (l Log) Fire(_ context.Context, title, body string) error {
	if l.Logger != nil {
		l.Logger.Printf("%s: %s", title, body)
		return nil
	}
	log.Printf("%s: %s", title, body)
	return nil
}

// Multi fans an alert out to every dispatcher. A failing dispatcher does not
// stop the rest; all errors are joined.
type Multi []Dispatcher

func (m Multi) Fire(ctx context.Context, title, body string) error {
	var errs []error
	for _, d := range m {
		if d == nil {
			continue
		}
		if err := d.Fire(ctx, title, body); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Recorder keeps every fired alert in memory.
type Recorder struct {
	mu     sync.Mutex
	alerts []Alert
}

type Alert struct {
	Title string
	Body  string
}

func (r *Recorder) Fire(_ context.Context, title, body string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts = append(r.alerts, Alert{Title: title, Body: body})
	return nil
}

// Alerts returns a copy of everything fired so far.
func (r *Recorder) Alerts() []Alert {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Alert, len(r.alerts))
	copy(out, r.alerts)
	return out
}
