package storage

import (
	"fmt"

	"github.com/tazhate/voicealarm/internal/domain"
)

// === Alarms ===

// SaveAlarm appends the alarm. Ids are not checked for uniqueness; the caller
// generates them.
func (s *Storage) SaveAlarm(a *domain.Alarm) error {
	if _, err := domain.NewClockTime(a.Time.Hour, a.Time.Minute, a.Time.Meridiem); err != nil {
		return fmt.Errorf("save alarm %s: %w", a.ID, err)
	}
	return s.withTx(func(q querier) error {
		alarms, err := loadList[domain.Alarm](q, alarmsKey)
		if err != nil {
			return err
		}
		return storeList(q, alarmsKey, append(alarms, *a))
	})
}

// GetAlarms returns alarms in insertion order. An empty store yields an empty slice.
func (s *Storage) GetAlarms() ([]domain.Alarm, error) {
	return loadList[domain.Alarm](s.db, alarmsKey)
}

func (s *Storage) GetAlarm(id string) (*domain.Alarm, error) {
	alarms, err := s.GetAlarms()
	if err != nil {
		return nil, err
	}
	for i := range alarms {
		if alarms[i].ID == id {
			return &alarms[i], nil
		}
	}
	return nil, nil
}

// GetAlarmsByURI returns the alarms that play uri, in insertion order.
func (s *Storage) GetAlarmsByURI(uri string) ([]domain.Alarm, error) {
	alarms, err := s.GetAlarms()
	if err != nil {
		return nil, err
	}
	matched := []domain.Alarm{}
	for _, a := range alarms {
		if a.RecordingURI == uri {
			matched = append(matched, a)
		}
	}
	return matched, nil
}

// DeleteAlarmOnly removes every alarm that plays uri. There is no single-alarm
// delete at this layer.
func (s *Storage) DeleteAlarmOnly(uri string) (int, error) {
	var removed int
	err := s.withTx(func(q querier) error {
		n, err := deleteAlarmsByURI(q, uri)
		removed = n
		return err
	})
	return removed, err
}

func deleteAlarmsByURI(q querier, uri string) (int, error) {
	alarms, err := loadList[domain.Alarm](q, alarmsKey)
	if err != nil {
		return 0, err
	}
	kept := alarms[:0]
	for _, a := range alarms {
		if a.RecordingURI != uri {
			kept = append(kept, a)
		}
	}
	removed := len(alarms) - len(kept)
	if removed == 0 {
		return 0, nil
	}
	return removed, storeList(q, alarmsKey, kept)
}

// UpdateAlarmDays replaces the day set of the alarm with the given id.
func (s *Storage) UpdateAlarmDays(id string, days []domain.DayTag) (bool, error) {
	return s.updateAlarm(id, func(a *domain.Alarm) {
		a.Days = days
	})
}

// RenameAlarm changes the label of the alarm with the given id.
func (s *Storage) RenameAlarm(id, name string) (bool, error) {
	return s.updateAlarm(id, func(a *domain.Alarm) {
		a.Name = name
	})
}

func (s *Storage) updateAlarm(id string, mutate func(a *domain.Alarm)) (bool, error) {
	var found bool
	err := s.withTx(func(q querier) error {
		alarms, err := loadList[domain.Alarm](q, alarmsKey)
		if err != nil {
			return err
		}
		for i := range alarms {
			if alarms[i].ID == id {
				mutate(&alarms[i])
				found = true
			}
		}
		if !found {
			return nil
		}
		return storeList(q, alarmsKey, alarms)
	})
	return found, err
}

// ClearAlarms drops the whole alarm collection.
func (s *Storage) ClearAlarms() error {
	return removeItem(s.db, alarmsKey)
}
