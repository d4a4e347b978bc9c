package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tazhate/voicealarm/internal/domain"
	"github.com/tazhate/voicealarm/internal/storage"
)

type AlarmService struct {
	storage  *storage.Storage
	timezone *time.Location
	newID    func() string
	now      func() time.Time
}

func NewAlarmService(s *storage.Storage, tz *time.Location) *AlarmService {
	if tz == nil {
		tz = time.Local
	}
	return &AlarmService{
		storage:  s,
		timezone: tz,
		newID:    newAlarmID,
		now:      time.Now,
	}
}

// newAlarmID returns a time-ordered id so alarms sort by creation.
func newAlarmID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// AlarmView is an alarm together with its next ring time.
type AlarmView struct {
	domain.Alarm
	NextFire *time.Time `json:"next_fire,omitempty"`
}

// Create saves a new alarm for the recording at uri. A blank name becomes
// "Alarm #N" and an empty day set becomes EVERYDAY.
func (s *AlarmService) Create(uri, name string, t domain.ClockTime, days []domain.DayTag) (*domain.Alarm, error) {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return nil, domain.ErrMissingRecording
	}
	if _, err := domain.NewClockTime(t.Hour, t.Minute, t.Meridiem); err != nil {
		return nil, err
	}
	if err := validateDays(days); err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		existing, err := s.storage.GetAlarms()
		if err != nil {
			return nil, fmt.Errorf("count alarms: %w", err)
		}
		name = domain.DefaultAlarmName(len(existing) + 1)
	}

	alarm := &domain.Alarm{
		ID:           s.newID(),
		RecordingURI: uri,
		Name:         name,
		Time:         t,
		Days:         domain.NormalizeDays(days),
	}

	if err := s.storage.SaveAlarm(alarm); err != nil {
		return nil, fmt.Errorf("save alarm: %w", err)
	}
	return alarm, nil
}

func validateDays(days []domain.DayTag) error {
	for _, d := range days {
		if !d.Valid() {
			return fmt.Errorf("%w: %q", domain.ErrInvalidDay, d)
		}
	}
	return nil
}

// List returns all alarms in creation order with their next ring time.
func (s *AlarmService) List() ([]AlarmView, error) {
	alarms, err := s.storage.GetAlarms()
	if err != nil {
		return nil, fmt.Errorf("list alarms: %w", err)
	}
	return s.views(alarms), nil
}

// ListByRecording returns the alarms that play uri.
func (s *AlarmService) ListByRecording(uri string) ([]AlarmView, error) {
	alarms, err := s.storage.GetAlarmsByURI(uri)
	if err != nil {
		return nil, fmt.Errorf("list alarms of %s: %w", uri, err)
	}
	return s.views(alarms), nil
}

func (s *AlarmService) views(alarms []domain.Alarm) []AlarmView {
	now := s.now().In(s.timezone)
	views := make([]AlarmView, 0, len(alarms))
	for i := range alarms {
		view := AlarmView{Alarm: alarms[i]}
		if alarms[i].Time.Valid() {
			if next, err := NextFire(&alarms[i], now); err == nil && !next.IsZero() {
				view.NextFire = &next
			}
		}
		views = append(views, view)
	}
	return views
}

func (s *AlarmService) Get(id string) (*domain.Alarm, error) {
	alarm, err := s.storage.GetAlarm(id)
	if err != nil {
		return nil, fmt.Errorf("get alarm: %w", err)
	}
	if alarm == nil {
		return nil, fmt.Errorf("alarm %s: %w", id, domain.ErrNotFound)
	}
	return alarm, nil
}

// DeleteByRecording removes every alarm that plays uri and keeps the recording.
func (s *AlarmService) DeleteByRecording(uri string) (int, error) {
	return s.storage.DeleteAlarmOnly(uri)
}

func (s *AlarmService) UpdateDays(id string, days []domain.DayTag) error {
	if err := validateDays(days); err != nil {
		return err
	}
	found, err := s.storage.UpdateAlarmDays(id, domain.NormalizeDays(days))
	if err != nil {
		return fmt.Errorf("update alarm days: %w", err)
	}
	if !found {
		return fmt.Errorf("alarm %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (s *AlarmService) Rename(id, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("alarm name cannot be empty")
	}
	found, err := s.storage.RenameAlarm(id, name)
	if err != nil {
		return fmt.Errorf("rename alarm: %w", err)
	}
	if !found {
		return fmt.Errorf("alarm %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (s *AlarmService) Clear() error {
	return s.storage.ClearAlarms()
}

// FormatAlarmList formats alarms for a chat message
func (s *AlarmService) FormatAlarmList(views []AlarmView) string {
	if len(views) == 0 {
		return "No alarms yet"
	}

	var sb strings.Builder
	for _, v := range views {
		sb.WriteString(fmt.Sprintf("⏰ <b>%s</b> %s\n", v.Time, escapeHTML(v.Name)))
		sb.WriteString(fmt.Sprintf("   📅 %s", domain.FormatDays(v.Days)))
		if v.NextFire != nil {
			sb.WriteString(fmt.Sprintf(" · next %s", v.NextFire.In(s.timezone).Format("Mon 02.01 15:04")))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func escapeHTML(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	return r.Replace(s)
}

// AlarmArgs is a parsed /setalarm command
type AlarmArgs struct {
	RecordingID string
	Time        domain.ClockTime
	Days        []domain.DayTag
	Name        string
}

// ParseSetAlarmArgs parses "/setalarm default-1 07:30 AM mon,wed Wake up".
// The meridiem, the days and the name are optional; without a meridiem the
// time is read as 24-hour.
func ParseSetAlarmArgs(args string) (*AlarmArgs, error) {
	parts := strings.Fields(args)
	if len(parts) < 2 {
		return nil, fmt.Errorf("format: <recording id> <HH:MM> [AM|PM] [mon,wed] [name]")
	}

	result := &AlarmArgs{RecordingID: parts[0]}
	rest := parts[2:]

	timeStr := parts[1]
	if len(rest) > 0 {
		if m := domain.Meridiem(strings.ToUpper(rest[0])); m == domain.AM || m == domain.PM {
			timeStr += " " + string(m)
			rest = rest[1:]
		}
	}
	t, err := domain.ParseClockTime(timeStr)
	if err != nil {
		return nil, err
	}
	result.Time = t

	if len(rest) > 0 {
		if days, err := domain.ParseDays(strings.Split(rest[0], ",")); err == nil {
			result.Days = days
			rest = rest[1:]
		}
	}

	result.Name = strings.Join(rest, " ")
	return result, nil
}
