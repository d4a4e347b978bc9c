package service

import (
	"time"

	"github.com/tazhate/voicealarm/internal/domain"
	"github.com/teambition/rrule-go"
)

var rruleWeekdays = map[domain.DayTag]rrule.Weekday{
	domain.DayMonday:    rrule.MO,
	domain.DayTuesday:   rrule.TU,
	domain.DayWednesday: rrule.WE,
	domain.DayThursday:  rrule.TH,
	domain.DayFriday:    rrule.FR,
	domain.DaySaturday:  rrule.SA,
	domain.DaySunday:    rrule.SU,
}

// alarmRule builds the recurrence of an alarm anchored on the day of from.
// Everyday alarms repeat daily, the rest weekly on their days.
func alarmRule(a *domain.Alarm, from time.Time) (*rrule.RRule, error) {
	opt := alarmOption(a, from)
	return rrule.NewRRule(opt)
}

func alarmOption(a *domain.Alarm, from time.Time) rrule.ROption {
	dtstart := time.Date(from.Year(), from.Month(), from.Day(), a.Time.Hour24(), a.Time.Minute, 0, 0, from.Location())

	opt := rrule.ROption{
		Freq:    rrule.DAILY,
		Dtstart: dtstart,
	}
	if domain.IsEveryday(a.Days) {
		return opt
	}

	opt.Freq = rrule.WEEKLY
	for _, d := range a.Days {
		if wd, ok := rruleWeekdays[d]; ok {
			opt.Byweekday = append(opt.Byweekday, wd)
		}
	}
	return opt
}

// NextFire returns the first time after now at which the alarm rings.
func NextFire(a *domain.Alarm, now time.Time) (time.Time, error) {
	r, err := alarmRule(a, now)
	if err != nil {
		return time.Time{}, err
	}
	return r.After(now, false), nil
}

// RRuleString renders the alarm's recurrence as an RRULE value.
func RRuleString(a *domain.Alarm) string {
	opt := alarmOption(a, time.Now())
	return opt.RRuleString()
}
