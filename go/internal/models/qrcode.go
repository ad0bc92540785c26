package models

import (
	"time"
)

// QRCode represents one admission QR code for a venue. The server is the
// sole writer of usage and expiry; a QRCode held by the client is a
// read-only snapshot of what the server last reported. A full or expired
// code is superseded by a new one, never mutated in place.
type QRCode struct {
	ID           string    `json:"id"`
	Data         string    `json:"qr_data"`
	VenueID      string    `json:"venue_id"`
	GroupID      string    `json:"qr_group_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	ExpiresAt    time.Time `json:"expires_at"`
	MaxCapacity  int       `json:"max_capacity"`
	CurrentUsage int       `json:"current_usage"`
	IsActive     bool      `json:"is_active"`
	IsFull       bool      `json:"is_full"`
	IsExpired    bool      `json:"is_expired"`
}

// Remaining returns the number of admission slots left on this code.
func (q *QRCode) Remaining() int {
	r := q.MaxCapacity - q.CurrentUsage
	if r < 0 {
		return 0
	}
	return r
}

// Full reports whether the code has no admission slots left. The server's
// is_full flag wins when set; otherwise fullness is derived from usage.
func (q *QRCode) Full() bool {
	return q.IsFull || (q.MaxCapacity > 0 && q.CurrentUsage >= q.MaxCapacity)
}

// Expired reports whether the code is past its expiry at the given time.
func (q *QRCode) Expired(now time.Time) bool {
	return q.IsExpired || (!q.ExpiresAt.IsZero() && !now.Before(q.ExpiresAt))
}

// Usable reports whether the code can still admit a participant.
func (q *QRCode) Usable(now time.Time) bool {
	return q.IsActive && !q.Full() && !q.Expired(now)
}
