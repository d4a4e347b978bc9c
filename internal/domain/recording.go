package domain

import (
	"strconv"
	"strings"
)

// RecordingKind separates bundled sounds from user captures.
type RecordingKind string

const (
	RecordingBuiltin RecordingKind = "builtin"
	RecordingUser    RecordingKind = "user"
)

const (
	builtinIDPrefix  = "default-"
	builtinURIPrefix = "asset:"
)

// Recording is an audio clip that alarms can play. User recordings point at a
// file relative to the recordings directory; built-ins carry an asset handle.
type Recording struct {
	ID   string        `json:"id"`
	URI  string        `json:"uri"`
	Name string        `json:"name"`
	Days []DayTag      `json:"days"`
	Kind RecordingKind `json:"-"`
}

func (r *Recording) IsBuiltin() bool {
	return r.Kind == RecordingBuiltin
}

// CanDelete reports whether the recording may be removed by the user.
func (r *Recording) CanDelete() bool {
	return r.Kind == RecordingUser
}

// CanRename reports whether the recording's name may be changed.
func (r *Recording) CanRename() bool {
	return r.Kind == RecordingUser
}

// BuiltinRecordings returns the five bundled sounds. A fresh slice is returned
// on every call so callers cannot alter the seed list.
func BuiltinRecordings() []Recording {
	names := []string{"song1.mp3", "song2.mp3", "song3.mp3", "song4.mp3", "song5.mp3"}
	recs := make([]Recording, len(names))
	for i, file := range names {
		n := i + 1
		recs[i] = Recording{
			ID:   builtinIDPrefix + strconv.Itoa(n),
			URI:  builtinURIPrefix + "default-songs/" + file,
			Name: "Default Audio " + strconv.Itoa(n),
			Days: []DayTag{},
			Kind: RecordingBuiltin,
		}
	}
	return recs
}

// IsBuiltinURI reports whether uri belongs to one of the bundled recordings.
func IsBuiltinURI(uri string) bool {
	if !strings.HasPrefix(uri, builtinURIPrefix) {
		return false
	}
	for _, r := range BuiltinRecordings() {
		if r.URI == uri {
			return true
		}
	}
	return false
}

// IsBuiltinID reports whether id names one of the bundled recordings.
func IsBuiltinID(id string) bool {
	if !strings.HasPrefix(id, builtinIDPrefix) {
		return false
	}
	for _, r := range BuiltinRecordings() {
		if r.ID == id {
			return true
		}
	}
	return false
}

