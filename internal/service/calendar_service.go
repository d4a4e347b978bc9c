package service

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/tazhate/voicealarm/internal/clients/caldav"
	"github.com/tazhate/voicealarm/internal/domain"
	"github.com/tazhate/voicealarm/internal/storage"
)

const (
	uidPrefix = "alarm-"
	uidSuffix = "@voicealarm"
)

// CalendarPublisher is the part of the CalDAV client the sync needs.
type CalendarPublisher interface {
	IsConfigured() bool
	ListEvents(ctx context.Context, calendarPath string) ([]caldav.Event, error)
	PutEvent(ctx context.Context, calendarPath string, event *caldav.Event) error
	DeleteEvent(ctx context.Context, calendarPath, eventUID string) error
}

// CalendarService mirrors alarms into a CalDAV calendar as recurring events
type CalendarService struct {
	storage      *storage.Storage
	publisher    CalendarPublisher
	calendarPath string
	timezone     *time.Location
	now          func() time.Time
}

// NewCalendarService creates a new calendar service. publisher may be nil
// when only the .ics feed is used.
func NewCalendarService(s *storage.Storage, publisher CalendarPublisher, calendarPath string, tz *time.Location) *CalendarService {
	if tz == nil {
		tz = time.Local
	}
	return &CalendarService{
		storage:      s,
		publisher:    publisher,
		calendarPath: calendarPath,
		timezone:     tz,
		now:          time.Now,
	}
}

// IsConfigured returns true if CalDAV publishing is possible
func (s *CalendarService) IsConfigured() bool {
	return s.publisher != nil && s.publisher.IsConfigured() && s.calendarPath != ""
}

// SyncResult contains sync operation results
type SyncResult struct {
	Published int      `json:"published"`
	Deleted   int      `json:"deleted"`
	Errors    []string `json:"errors,omitempty"`
}

// Sync publishes every alarm and removes events of alarms that no longer
// exist. Events not created by this service are left alone.
func (s *CalendarService) Sync(ctx context.Context) (*SyncResult, error) {
	if !s.IsConfigured() {
		return nil, fmt.Errorf("CalDAV not configured")
	}

	alarms, err := s.storage.GetAlarms()
	if err != nil {
		return nil, fmt.Errorf("get alarms: %w", err)
	}

	existing, err := s.publisher.ListEvents(ctx, s.calendarPath)
	if err != nil {
		return nil, fmt.Errorf("list calendar events: %w", err)
	}

	result := &SyncResult{}
	wanted := make(map[string]bool, len(alarms))
	now := s.now().In(s.timezone)

	for i := range alarms {
		if !alarms[i].Time.Valid() {
			continue
		}
		event := AlarmEvent(&alarms[i], now)
		wanted[event.UID] = true
		if err := s.publisher.PutEvent(ctx, s.calendarPath, &event); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("put %s: %v", event.UID, err))
			continue
		}
		result.Published++
	}

	for _, e := range existing {
		if wanted[e.UID] || !isAlarmUID(e.UID) {
			continue
		}
		if err := s.publisher.DeleteEvent(ctx, s.calendarPath, e.UID); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("delete %s: %v", e.UID, err))
			continue
		}
		result.Deleted++
	}

	return result, nil
}

// RunSync is the periodic job form of Sync
func (s *CalendarService) RunSync(ctx context.Context) {
	result, err := s.Sync(ctx)
	if err != nil {
		log.Printf("Calendar sync error: %v", err)
		return
	}
	if len(result.Errors) > 0 {
		log.Printf("Calendar sync: %d published, %d deleted, %d errors (first: %s)",
			result.Published, result.Deleted, len(result.Errors), result.Errors[0])
	}
}

// WriteICS writes all alarms as an iCalendar feed
func (s *CalendarService) WriteICS(w io.Writer) error {
	alarms, err := s.storage.GetAlarms()
	if err != nil {
		return fmt.Errorf("get alarms: %w", err)
	}

	now := s.now().In(s.timezone)
	events := make([]caldav.Event, 0, len(alarms))
	for i := range alarms {
		if !alarms[i].Time.Valid() {
			continue
		}
		events = append(events, AlarmEvent(&alarms[i], now))
	}
	return caldav.EncodeCalendar(w, caldav.NewCalendar(now, events...))
}

// AlarmEvent converts an alarm into a recurring calendar event whose first
// occurrence is the next time the alarm rings after now.
func AlarmEvent(a *domain.Alarm, now time.Time) caldav.Event {
	start, err := NextFire(a, now)
	if err != nil || start.IsZero() {
		start = time.Date(now.Year(), now.Month(), now.Day(), a.Time.Hour24(), a.Time.Minute, 0, 0, now.Location())
	}
	return caldav.Event{
		UID:         AlarmUID(a.ID),
		Summary:     a.Label(),
		Description: "Plays " + a.RecordingURI,
		StartTime:   start,
		RRule:       RRuleString(a),
		Reminder:    true,
	}
}

func AlarmUID(alarmID string) string {
	return uidPrefix + alarmID + uidSuffix
}

func isAlarmUID(uid string) bool {
	return strings.HasPrefix(uid, uidPrefix) && strings.HasSuffix(uid, uidSuffix)
}
