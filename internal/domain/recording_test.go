package domain

import "testing"

func TestBuiltinRecordings(t *testing.T) {
	t.Parallel()

	recs := BuiltinRecordings()
	if len(recs) != 5 {
		t.Fatalf("expected 5 built-in recordings, got %d", len(recs))
	}
	for _, r := range recs {
		if !r.IsBuiltin() || r.CanDelete() || r.CanRename() {
			t.Fatalf("built-in %s must be immutable", r.ID)
		}
		if !IsBuiltinURI(r.URI) || !IsBuiltinID(r.ID) {
			t.Fatalf("expected %s to be recognised as built-in", r.ID)
		}
	}

	recs[0].Name = "changed"
	if BuiltinRecordings()[0].Name != "Default Audio 1" {
		t.Fatalf("seed list must not be shared with callers")
	}
}

func TestRecordingCapabilities(t *testing.T) {
	t.Parallel()

	user := Recording{ID: "1", URI: "recording-1.m4a", Kind: RecordingUser}
	if !user.CanDelete() || !user.CanRename() {
		t.Fatalf("user recordings must be deletable and renamable")
	}
	if IsBuiltinURI(user.URI) || IsBuiltinID("default-9") {
		t.Fatalf("unexpected built-in match")
	}
}

func TestAlarm_DueAt(t *testing.T) {
	t.Parallel()

	a := Alarm{ID: "a1", Time: ClockTime{Hour: 7, Minute: 30, Meridiem: AM}, Days: []DayTag{DayMonday}}
	if !a.DueAt(DayMonday, 7, 30) {
		t.Fatalf("expected alarm due Monday 07:30")
	}
	if a.DueAt(DayTuesday, 7, 30) || a.DueAt(DayMonday, 7, 31) {
		t.Fatalf("alarm must only be due on its day and minute")
	}
	if a.Key(DayMonday) != "a1-MON" {
		t.Fatalf("unexpected key %q", a.Key(DayMonday))
	}
	if a.Label() != "Your alarm is ringing!" {
		t.Fatalf("unexpected fallback label %q", a.Label())
	}
}
