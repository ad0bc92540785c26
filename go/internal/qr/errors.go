package qr

import "errors"

// ErrInvalidInput is returned when a venue id is missing or blank; the
// operation is fatal and surfaced immediately rather than retried.
var ErrInvalidInput = errors.New("venue id is required")

// ErrNoHistory is returned when a venue has no codes to show.
var ErrNoHistory = errors.New("no qr codes found for venue")
