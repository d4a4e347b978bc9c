package service

import (
	"bytes"
	"context"
	"errors"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/tazhate/voicealarm/internal/clients/caldav"
	"github.com/tazhate/voicealarm/internal/domain"
)

type fakePublisher struct {
	events  map[string]caldav.Event
	failPut string
}

func newFakePublisher(existing ...caldav.Event) *fakePublisher {
	p := &fakePublisher{events: make(map[string]caldav.Event)}
	for _, e := range existing {
		p.events[e.UID] = e
	}
	return p
}

func (p *fakePublisher) IsConfigured() bool { return true }

func (p *fakePublisher) ListEvents(context.Context, string) ([]caldav.Event, error) {
	var out []caldav.Event
	for _, e := range p.events {
		out = append(out, e)
	}
	return out, nil
}

func (p *fakePublisher) PutEvent(_ context.Context, _ string, e *caldav.Event) error {
	if e.UID == p.failPut {
		return errors.New("server said no")
	}
	p.events[e.UID] = *e
	return nil
}

func (p *fakePublisher) DeleteEvent(_ context.Context, _ string, uid string) error {
	delete(p.events, uid)
	return nil
}

func (p *fakePublisher) uids() []string {
	var out []string
	for uid := range p.events {
		out = append(out, uid)
	}
	sort.Strings(out)
	return out
}

func TestCalendarService_Sync(t *testing.T) {
	t.Parallel()

	store := newTestStorage(t)
	alarms := NewAlarmService(store, time.UTC)
	alarms.newID = sequentialIDs("a")

	if _, err := alarms.Create("r.m4a", "Wake up", domain.ClockTime{Hour: 7, Minute: 30, Meridiem: domain.AM}, []domain.DayTag{domain.DayMonday}); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if _, err := alarms.Create("r.m4a", "", domain.ClockTime{Hour: 9, Minute: 0, Meridiem: domain.PM}, nil); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	pub := newFakePublisher(
		caldav.Event{UID: AlarmUID("stale")},
		caldav.Event{UID: "dentist-123@example.com"},
	)
	svc := NewCalendarService(store, pub, "/calendars/me/alarms/", time.UTC)
	svc.now = fixedNow(time.Date(2024, time.January, 1, 6, 0, 0, 0, time.UTC))

	result, err := svc.Sync(context.Background())
	if err != nil {
		t.Fatalf("Sync returned error: %v", err)
	}
	if result.Published != 2 || result.Deleted != 1 || len(result.Errors) != 0 {
		t.Fatalf("unexpected result %+v", result)
	}

	want := []string{"alarm-a1@voicealarm", "alarm-a2@voicealarm", "dentist-123@example.com"}
	if got := pub.uids(); strings.Join(got, " ") != strings.Join(want, " ") {
		t.Fatalf("calendar holds %v, want %v", got, want)
	}

	wake := pub.events["alarm-a1@voicealarm"]
	if wake.Summary != "Wake up" || wake.RRule != "FREQ=WEEKLY;BYDAY=MO" || !wake.Reminder {
		t.Fatalf("unexpected event %+v", wake)
	}
	if !wake.StartTime.Equal(time.Date(2024, time.January, 1, 7, 30, 0, 0, time.UTC)) {
		t.Fatalf("unexpected start %v", wake.StartTime)
	}
}

func TestCalendarService_SyncCollectsErrors(t *testing.T) {
	t.Parallel()

	store := newTestStorage(t)
	alarms := NewAlarmService(store, time.UTC)
	alarms.newID = sequentialIDs("a")
	if _, err := alarms.Create("r.m4a", "", domain.ClockTime{Hour: 7, Minute: 0, Meridiem: domain.AM}, nil); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	pub := newFakePublisher()
	pub.failPut = AlarmUID("a1")
	svc := NewCalendarService(store, pub, "/cal/", time.UTC)

	result, err := svc.Sync(context.Background())
	if err != nil {
		t.Fatalf("Sync returned error: %v", err)
	}
	if result.Published != 0 || len(result.Errors) != 1 {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestCalendarService_NotConfigured(t *testing.T) {
	t.Parallel()

	svc := NewCalendarService(newTestStorage(t), nil, "", time.UTC)
	if svc.IsConfigured() {
		t.Fatalf("expected service without publisher to be unconfigured")
	}
	if _, err := svc.Sync(context.Background()); err == nil {
		t.Fatalf("expected Sync to fail without CalDAV")
	}
}

func TestCalendarService_WriteICS(t *testing.T) {
	t.Parallel()

	store := newTestStorage(t)
	alarms := NewAlarmService(store, time.UTC)
	alarms.newID = sequentialIDs("a")
	if _, err := alarms.Create("r.m4a", "Wake up", domain.ClockTime{Hour: 7, Minute: 30, Meridiem: domain.AM}, []domain.DayTag{domain.DayMonday, domain.DayFriday}); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	svc := NewCalendarService(store, nil, "", time.UTC)
	svc.now = fixedNow(time.Date(2024, time.January, 1, 6, 0, 0, 0, time.UTC))

	var buf bytes.Buffer
	if err := svc.WriteICS(&buf); err != nil {
		t.Fatalf("WriteICS returned error: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"BEGIN:VCALENDAR", "UID:alarm-a1@voicealarm", "RRULE:FREQ=WEEKLY;BYDAY=MO,FR", "BEGIN:VALARM"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected feed to contain %q", want)
		}
	}
}
