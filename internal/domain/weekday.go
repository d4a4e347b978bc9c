package domain

import (
	"fmt"
	"strings"
	"time"
)

// DayTag is a weekday marker as stored in alarm and recording day lists.
type DayTag string

const (
	DaySunday    DayTag = "SUN"
	DayMonday    DayTag = "MON"
	DayTuesday   DayTag = "TUE"
	DayWednesday DayTag = "WED"
	DayThursday  DayTag = "THU"
	DayFriday    DayTag = "FRI"
	DaySaturday  DayTag = "SAT"

	// DayEveryday is written in place of an empty day set when an alarm is saved.
	DayEveryday DayTag = "EVERYDAY"
)

// Weekdays lists the seven tags in time.Weekday order (Sunday first).
var Weekdays = []DayTag{DaySunday, DayMonday, DayTuesday, DayWednesday, DayThursday, DayFriday, DaySaturday}

// DayTagOf returns the tag for a time.Weekday.
func DayTagOf(d time.Weekday) DayTag {
	if d < time.Sunday || d > time.Saturday {
		return ""
	}
	return Weekdays[d]
}

// Weekday converts a concrete tag back to time.Weekday. EVERYDAY has no single weekday.
func (d DayTag) Weekday() (time.Weekday, bool) {
	for i, tag := range Weekdays {
		if tag == d {
			return time.Weekday(i), true
		}
	}
	return time.Sunday, false
}

// Valid reports whether d is one of the seven weekdays or EVERYDAY.
func (d DayTag) Valid() bool {
	if d == DayEveryday {
		return true
	}
	_, ok := d.Weekday()
	return ok
}

// ParseDayTag parses "mon", "Monday", "MON" and "everyday" style input.
func ParseDayTag(s string) (DayTag, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == string(DayEveryday) {
		return DayEveryday, nil
	}
	if len(s) >= 3 {
		tag := DayTag(s[:3])
		if _, ok := tag.Weekday(); ok {
			full := strings.ToUpper(time.Weekday(indexOf(tag)).String())
			if len(s) == 3 || s == full {
				return tag, nil
			}
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidDay, s)
}

func indexOf(tag DayTag) int {
	for i, t := range Weekdays {
		if t == tag {
			return i
		}
	}
	return -1
}

// NormalizeDays removes duplicates while keeping first-seen order. An empty
// input, or one that contains EVERYDAY, collapses to the single EVERYDAY marker.
func NormalizeDays(days []DayTag) []DayTag {
	if len(days) == 0 {
		return []DayTag{DayEveryday}
	}
	seen := make(map[DayTag]bool, len(days))
	out := make([]DayTag, 0, len(days))
	for _, d := range days {
		if d == DayEveryday {
			return []DayTag{DayEveryday}
		}
		if seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	return out
}

// MatchesDay reports whether tag falls inside the day set. The empty set and
// the EVERYDAY marker both stand for all seven days.
func MatchesDay(days []DayTag, tag DayTag) bool {
	if IsEveryday(days) {
		return true
	}
	for _, d := range days {
		if d == tag {
			return true
		}
	}
	return false
}

// IsEveryday reports whether the set covers every day of the week.
func IsEveryday(days []DayTag) bool {
	if len(days) == 0 {
		return true
	}
	covered := make(map[DayTag]bool, 7)
	for _, d := range days {
		if d == DayEveryday {
			return true
		}
		covered[d] = true
	}
	for _, d := range Weekdays {
		if !covered[d] {
			return false
		}
	}
	return true
}

// ParseDays parses a list of user-supplied day names.
func ParseDays(values []string) ([]DayTag, error) {
	days := make([]DayTag, 0, len(values))
	for _, v := range values {
		tag, err := ParseDayTag(v)
		if err != nil {
			return nil, err
		}
		days = append(days, tag)
	}
	return days, nil
}

// FormatDays renders a day set for display, e.g. "MON, WED" or "EVERYDAY".
func FormatDays(days []DayTag) string {
	if IsEveryday(days) {
		return string(DayEveryday)
	}
	parts := make([]string, len(days))
	for i, d := range days {
		parts[i] = string(d)
	}
	return strings.Join(parts, ", ")
}
