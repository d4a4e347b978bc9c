package domain

import "fmt"

// Alarm pairs a time of day and a set of weekdays with the recording to play.
// The alarm does not own the recording; it only refers to it by URI.
type Alarm struct {
	ID           string    `json:"id"`
	RecordingURI string    `json:"uri"`
	Name         string    `json:"name"`
	Time         ClockTime `json:"time"`
	Days         []DayTag  `json:"days"`
}

// DefaultAlarmName is the placeholder label for the n-th alarm (1-based).
func DefaultAlarmName(n int) string {
	return fmt.Sprintf("Alarm #%d", n)
}

// Key is the composite identity used to remember that the alarm already
// fired on the given day.
func (a *Alarm) Key(day DayTag) string {
	return a.ID + "-" + string(day)
}

// DueAt reports whether the alarm should ring at the given 24-hour
// hour/minute on the given weekday. An alarm with an incomplete time never rings.
func (a *Alarm) DueAt(day DayTag, hour, minute int) bool {
	if !a.Time.Valid() {
		return false
	}
	return MatchesDay(a.Days, day) && a.Time.Matches(hour, minute)
}

// Label is the notification body for the alarm.
func (a *Alarm) Label() string {
	if a.Name != "" {
		return a.Name
	}
	return "Your alarm is ringing!"
}
