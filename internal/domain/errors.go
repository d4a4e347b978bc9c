package domain

import "errors"

var (
	// ErrBuiltinRecording is returned when a delete or rename targets a bundled recording.
	ErrBuiltinRecording = errors.New("built-in recordings cannot be modified")
	ErrInvalidTime      = errors.New("invalid alarm time")
	ErrInvalidDay       = errors.New("invalid weekday")
	ErrNotFound         = errors.New("not found")
	ErrMissingRecording = errors.New("alarm has no recording")
)
