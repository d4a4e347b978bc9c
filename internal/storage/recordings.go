package storage

import (
	"fmt"

	"github.com/tazhate/voicealarm/internal/domain"
)

// === Recordings ===

// SaveRecording appends a user recording. Built-ins are never persisted.
func (s *Storage) SaveRecording(r *domain.Recording) error {
	if r.IsBuiltin() || domain.IsBuiltinID(r.ID) {
		return fmt.Errorf("save recording %s: %w", r.ID, domain.ErrBuiltinRecording)
	}
	rec := *r
	rec.Kind = domain.RecordingUser
	if rec.Days == nil {
		rec.Days = []domain.DayTag{}
	}
	return s.withTx(func(q querier) error {
		recs, err := loadList[domain.Recording](q, recordingsKey)
		if err != nil {
			return err
		}
		return storeList(q, recordingsKey, append(recs, rec))
	})
}

// GetUserRecordings returns only what was recorded or imported by the user.
func (s *Storage) GetUserRecordings() ([]domain.Recording, error) {
	recs, err := loadList[domain.Recording](s.db, recordingsKey)
	if err != nil {
		return nil, err
	}
	for i := range recs {
		recs[i].Kind = domain.RecordingUser
	}
	return recs, nil
}

// GetRecordings returns the built-in seed list followed by user recordings.
// On a read failure the built-ins are still returned alongside the error.
func (s *Storage) GetRecordings() ([]domain.Recording, error) {
	recs := domain.BuiltinRecordings()
	user, err := s.GetUserRecordings()
	if err != nil {
		return recs, err
	}
	return append(recs, user...), nil
}

func (s *Storage) GetRecording(id string) (*domain.Recording, error) {
	recs, err := s.GetRecordings()
	if err != nil {
		return nil, err
	}
	for i := range recs {
		if recs[i].ID == id {
			return &recs[i], nil
		}
	}
	return nil, nil
}

// RenameRecording changes the name of a user recording. Built-in ids are rejected.
func (s *Storage) RenameRecording(id, name string) (bool, error) {
	if domain.IsBuiltinID(id) {
		return false, fmt.Errorf("rename recording %s: %w", id, domain.ErrBuiltinRecording)
	}

	var found bool
	err := s.withTx(func(q querier) error {
		recs, err := loadList[domain.Recording](q, recordingsKey)
		if err != nil {
			return err
		}
		for i := range recs {
			if recs[i].ID == id {
				recs[i].Name = name
				found = true
			}
		}
		if !found {
			return nil
		}
		return storeList(q, recordingsKey, recs)
	})
	return found, err
}

// DeleteResult reports what a cascading delete removed.
type DeleteResult struct {
	Recordings int
	Alarms     int
}

// DeleteRecordingAndAlarms removes the user recording with the given uri and
// every alarm that plays it. A built-in uri is rejected and nothing changes.
// Deleting an unknown uri is a no-op.
func (s *Storage) DeleteRecordingAndAlarms(uri string) (DeleteResult, error) {
	var res DeleteResult
	if domain.IsBuiltinURI(uri) {
		return res, fmt.Errorf("delete recording %s: %w", uri, domain.ErrBuiltinRecording)
	}

	err := s.withTx(func(q querier) error {
		recs, err := loadList[domain.Recording](q, recordingsKey)
		if err != nil {
			return err
		}
		kept := recs[:0]
		for _, r := range recs {
			if r.URI != uri {
				kept = append(kept, r)
			}
		}
		res.Recordings = len(recs) - len(kept)
		if res.Recordings > 0 {
			if err := storeList(q, recordingsKey, kept); err != nil {
				return err
			}
		}

		n, err := deleteAlarmsByURI(q, uri)
		res.Alarms = n
		return err
	})
	if err != nil {
		return DeleteResult{}, err
	}
	return res, nil
}

// ClearRecordings drops all user recordings. Built-ins are unaffected.
func (s *Storage) ClearRecordings() error {
	return removeItem(s.db, recordingsKey)
}
