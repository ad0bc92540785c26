package session

import "errors"

// ErrInvalidInput is returned when a session id is missing or blank.
var ErrInvalidInput = errors.New("session id is required")

// ErrStaleState is returned when a server read reports a phase earlier
// than one already observed. Phase transitions are monotonic; a regressed
// read is stale and must be ignored.
var ErrStaleState = errors.New("stale phase state from server")

// ErrNotInitialized is returned when an operation runs before Initialize.
var ErrNotInitialized = errors.New("session syncer not initialized")
