package service

import (
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/tazhate/voicealarm/internal/domain"
	"github.com/tazhate/voicealarm/internal/storage"
)

func newTestStorage(t *testing.T) *storage.Storage {
	t.Helper()

	s, err := storage.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open storage: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sequentialIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return prefix + strconv.Itoa(n)
	}
}

func fixedNow(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func clock(t *testing.T, s string) domain.ClockTime {
	t.Helper()

	c, err := domain.ParseClockTime(s)
	if err != nil {
		t.Fatalf("bad clock time %q: %v", s, err)
	}
	return c
}
