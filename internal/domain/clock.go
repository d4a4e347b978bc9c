package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

type Meridiem string

const (
	AM Meridiem = "AM"
	PM Meridiem = "PM"
)

// ClockTime is a 12-hour wall-clock time as entered on the alarm screen.
// Values are always complete: Hour 1-12, Minute 0-59 and a meridiem.
type ClockTime struct {
	Hour     int
	Minute   int
	Meridiem Meridiem
}

// NewClockTime validates and builds a ClockTime.
func NewClockTime(hour, minute int, m Meridiem) (ClockTime, error) {
	if hour < 1 || hour > 12 {
		return ClockTime{}, fmt.Errorf("%w: hour %d out of range 1-12", ErrInvalidTime, hour)
	}
	if minute < 0 || minute > 59 {
		return ClockTime{}, fmt.Errorf("%w: minute %d out of range 0-59", ErrInvalidTime, minute)
	}
	if m != AM && m != PM {
		return ClockTime{}, fmt.Errorf("%w: meridiem %q", ErrInvalidTime, m)
	}
	return ClockTime{Hour: hour, Minute: minute, Meridiem: m}, nil
}

// ClockFrom24 converts a 24-hour hour/minute pair to its 12-hour form.
func ClockFrom24(hour, minute int) (ClockTime, error) {
	if hour < 0 || hour > 23 {
		return ClockTime{}, fmt.Errorf("%w: hour %d out of range 0-23", ErrInvalidTime, hour)
	}
	m := AM
	if hour >= 12 {
		m = PM
	}
	h := hour % 12
	if h == 0 {
		h = 12
	}
	return NewClockTime(h, minute, m)
}

// ParseClockTime parses "07:30 AM". A bare "HH:MM" is read as 24-hour time.
func ParseClockTime(s string) (ClockTime, error) {
	s = strings.TrimSpace(s)
	parts := strings.Fields(s)
	if len(parts) == 0 || len(parts) > 2 {
		return ClockTime{}, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}

	hm := strings.Split(parts[0], ":")
	if len(hm) != 2 {
		return ClockTime{}, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	hour, err := strconv.Atoi(hm[0])
	if err != nil {
		return ClockTime{}, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	minute, err := strconv.Atoi(hm[1])
	if err != nil {
		return ClockTime{}, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}

	if len(parts) == 1 {
		return ClockFrom24(hour, minute)
	}
	return NewClockTime(hour, minute, Meridiem(strings.ToUpper(parts[1])))
}

// Hour24 returns the hour on a 24-hour clock: 12 AM is 0, 12 PM is 12.
func (c ClockTime) Hour24() int {
	h := c.Hour
	if c.Meridiem == PM && h != 12 {
		h += 12
	}
	if c.Meridiem == AM && h == 12 {
		h = 0
	}
	return h
}

// Matches reports whether the 24-hour hour and minute equal this time.
func (c ClockTime) Matches(hour, minute int) bool {
	return c.Hour24() == hour && c.Minute == minute
}

func (c ClockTime) IsZero() bool {
	return c == ClockTime{}
}

// Valid reports whether every part of the time is set and in range. A record
// stored without a time decodes to the zero value, which is not valid.
func (c ClockTime) Valid() bool {
	_, err := NewClockTime(c.Hour, c.Minute, c.Meridiem)
	return err == nil
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d %s", c.Hour, c.Minute, c.Meridiem)
}

func (c ClockTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *ClockTime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseClockTime(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
