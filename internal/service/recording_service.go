package service

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dhowden/tag"
	"github.com/tazhate/voicealarm/internal/domain"
	"github.com/tazhate/voicealarm/internal/storage"
)

type RecordingService struct {
	storage *storage.Storage
	dir     string
	now     func() time.Time
}

func NewRecordingService(s *storage.Storage, dir string) *RecordingService {
	return &RecordingService{
		storage: s,
		dir:     dir,
		now:     time.Now,
	}
}

// List returns the built-in sounds followed by user recordings.
func (s *RecordingService) List() ([]domain.Recording, error) {
	return s.storage.GetRecordings()
}

func (s *RecordingService) Get(id string) (*domain.Recording, error) {
	rec, err := s.storage.GetRecording(id)
	if err != nil {
		return nil, fmt.Errorf("get recording: %w", err)
	}
	if rec == nil {
		return nil, fmt.Errorf("recording %s: %w", id, domain.ErrNotFound)
	}
	return rec, nil
}

// Import stores audio as a new user recording named
// recording-<unix ms>.m4a. A blank name falls back to the title tag of the
// file and then to "Recording #<unix ms>".
func (s *RecordingService) Import(name string, audio io.Reader) (*domain.Recording, error) {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return nil, fmt.Errorf("create recordings dir: %w", err)
	}

	stamp := s.now().UnixMilli()
	file := fmt.Sprintf("recording-%d.m4a", stamp)
	path := filepath.Join(s.dir, file)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return nil, fmt.Errorf("create recording file: %w", err)
	}
	if _, err := io.Copy(f, audio); err != nil {
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("write recording file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("close recording file: %w", err)
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = titleFromTags(path)
	}
	if name == "" {
		name = "Recording #" + strconv.FormatInt(stamp, 10)
	}

	rec := &domain.Recording{
		ID:   strconv.FormatInt(stamp, 10),
		URI:  file,
		Name: name,
		Days: []domain.DayTag{},
		Kind: domain.RecordingUser,
	}
	if err := s.storage.SaveRecording(rec); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("save recording: %w", err)
	}
	return rec, nil
}

// titleFromTags reads the title from ID3/MP4/FLAC/OGG metadata, if any.
func titleFromTags(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(m.Title())
}

func (s *RecordingService) Rename(id, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("recording name cannot be empty")
	}
	found, err := s.storage.RenameRecording(id, name)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("recording %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// Delete removes a user recording, every alarm that plays it and the audio
// file. Deleting an id that is already gone is a no-op with an empty result,
// and so is a missing audio file.
func (s *RecordingService) Delete(id string) (storage.DeleteResult, error) {
	rec, err := s.Get(id)
	if errors.Is(err, domain.ErrNotFound) {
		return storage.DeleteResult{}, nil
	}
	if err != nil {
		return storage.DeleteResult{}, err
	}
	if !rec.CanDelete() {
		return storage.DeleteResult{}, fmt.Errorf("delete recording %s: %w", id, domain.ErrBuiltinRecording)
	}

	res, err := s.storage.DeleteRecordingAndAlarms(rec.URI)
	if err != nil {
		return res, err
	}

	if err := os.Remove(s.Path(rec)); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Error removing recording file %s: %v", rec.URI, err)
	}
	return res, nil
}

// Path returns the location of a user recording's audio file.
func (s *RecordingService) Path(rec *domain.Recording) string {
	return filepath.Join(s.dir, filepath.Base(rec.URI))
}

// FormatRecordingList formats recordings for a chat message
func (s *RecordingService) FormatRecordingList(recs []domain.Recording) string {
	var sb strings.Builder
	for _, r := range recs {
		icon := "🎙"
		if r.IsBuiltin() {
			icon = "🎵"
		}
		sb.WriteString(fmt.Sprintf("%s %s <code>%s</code>\n", icon, escapeHTML(r.Name), r.ID))
	}
	return sb.String()
}
