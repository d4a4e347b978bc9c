package caldav

import "time"

// Calendar represents a calendar collection on the server
type Calendar struct {
	ID          string // Calendar path
	DisplayName string
	URL         string
}

// Event is one recurring alarm as published to the calendar
type Event struct {
	UID         string // Unique ID in CalDAV, also the object file name
	Summary     string
	Description string
	StartTime   time.Time // first occurrence, local to the alarm's time zone
	RRule       string    // e.g. "FREQ=WEEKLY;BYDAY=MO,WE"
	Reminder    bool      // attach a VALARM that triggers at start
}
