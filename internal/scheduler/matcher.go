package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/tazhate/voicealarm/internal/domain"
	"github.com/tazhate/voicealarm/internal/notify"
)

const alarmTitle = "⏰ Alarm"

// AlarmSource is the read side of the alarm store.
type AlarmSource interface {
	GetAlarms() ([]domain.Alarm, error)
}

// Matcher compares stored alarms against the wall clock once per tick.
type Matcher struct {
	alarms     AlarmSource
	dispatcher notify.Dispatcher
	triggered  *TriggeredSet
}

// NewMatcher builds a matcher. A nil set gets a fresh one.
func NewMatcher(alarms AlarmSource, dispatcher notify.Dispatcher, triggered *TriggeredSet) *Matcher {
	if triggered == nil {
		triggered = NewTriggeredSet()
	}
	return &Matcher{
		alarms:     alarms,
		dispatcher: dispatcher,
		triggered:  triggered,
	}
}

func (m *Matcher) Triggered() *TriggeredSet {
	return m.triggered
}

// Tick fires every alarm due at now that has not fired yet today and
// returns how many it fired. now is read in its own location. At 00:00 the
// fired set is cleared after matching.
func (m *Matcher) Tick(ctx context.Context, now time.Time) int {
	ticksTotal.Inc()
	defer func() { triggeredKeys.Set(float64(m.triggered.Len())) }()

	hour, minute := now.Hour(), now.Minute()
	day := domain.DayTagOf(now.Weekday())

	fired := 0
	alarms, err := m.alarms.GetAlarms()
	if err != nil {
		storeFailures.Inc()
		log.Printf("Error loading alarms: %v", err)
	} else {
		for _, a := range alarms {
			if !a.DueAt(day, hour, minute) {
				continue
			}
			if !m.triggered.Add(a.Key(day)) {
				continue
			}
			fired++
			alarmsFired.Inc()
			if err := m.dispatcher.Fire(ctx, alarmTitle, a.Label()); err != nil {
				dispatchFailures.Inc()
				log.Printf("Error firing alarm %s: %v", a.ID, err)
			}
		}
	}

	if hour == 0 && minute == 0 {
		m.triggered.Clear()
	}
	return fired
}
