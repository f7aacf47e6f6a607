package persistence

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("persistence: not found")
	// ErrCorruptDocument is returned when the stored document cannot be decoded.
	ErrCorruptDocument = errors.New("persistence: corrupt document")
	// ErrClosed is returned by stores used after Close.
	ErrClosed = errors.New("persistence: store closed")
)
