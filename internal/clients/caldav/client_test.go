package caldav

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/emersion/go-ical"
)

func TestNewCalendar_EncodesRecurringAlarm(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("Europe/Test", 3*60*60)
	event := Event{
		UID:         "alarm-1@voicealarm",
		Summary:     "Wake up",
		Description: "Plays recording-1.m4a",
		StartTime:   time.Date(2024, time.January, 1, 7, 30, 0, 0, loc),
		RRule:       "FREQ=WEEKLY;BYDAY=MO,WE",
		Reminder:    true,
	}

	var buf bytes.Buffer
	if err := EncodeCalendar(&buf, NewCalendar(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), event)); err != nil {
		t.Fatalf("EncodeCalendar returned error: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"BEGIN:VEVENT",
		"UID:alarm-1@voicealarm",
		"SUMMARY:Wake up",
		"RRULE:FREQ=WEEKLY;BYDAY=MO,WE",
		"BEGIN:VALARM",
		"ACTION:DISPLAY",
		"TRIGGER:PT0S",
		"20240101T073000",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q", want)
		}
	}

	cal, err := ical.NewDecoder(strings.NewReader(out)).Decode()
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	got, ok := ParseEvent(cal)
	if !ok {
		t.Fatalf("expected an event to be parsed")
	}
	if got.UID != event.UID || got.RRule != event.RRule || !got.Reminder {
		t.Fatalf("unexpected parsed event %+v", got)
	}
}

func TestNewCalendar_LocalTimeIsWrittenAsUTC(t *testing.T) {
	t.Parallel()

	event := Event{
		UID:       "alarm-2@voicealarm",
		Summary:   "Nap",
		StartTime: time.Date(2024, time.January, 1, 13, 0, 0, 0, time.Local),
	}

	var buf bytes.Buffer
	if err := EncodeCalendar(&buf, NewCalendar(time.Now(), event)); err != nil {
		t.Fatalf("EncodeCalendar returned error: %v", err)
	}
	if strings.Contains(buf.String(), "TZID=Local") {
		t.Fatalf("expected no Local TZID in output:\n%s", buf.String())
	}
	if strings.Contains(buf.String(), "BEGIN:VALARM") {
		t.Fatalf("expected no VALARM without a reminder")
	}
}

func TestObjectPath(t *testing.T) {
	t.Parallel()

	if got := objectPath("/cal/home", "u1"); got != "/cal/home/u1.ics" {
		t.Fatalf("unexpected path %q", got)
	}
	if got := objectPath("/cal/home/", "u1"); got != "/cal/home/u1.ics" {
		t.Fatalf("unexpected path %q", got)
	}
}

func TestClient_IsConfigured(t *testing.T) {
	t.Parallel()

	if NewClient("", "", "").IsConfigured() {
		t.Fatalf("expected client without credentials to be unconfigured")
	}
	if !NewClient("", "user", "secret").IsConfigured() {
		t.Fatalf("expected client with credentials to be configured")
	}
}
