// Package cache is the thin local snapshot store the sync services use to
// bridge brief offline or backgrounded gaps. Snapshots are JSON files keyed
// by (kind, entity id, user id); the server remains the source of truth and
// a cached snapshot is only ever a fallback for display.
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/mcdev12/gdsync/go/internal/models"
)

type Store struct {
	dir string
	mu  sync.RWMutex
}

// NewStore creates the cache directory if needed.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("cache directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// QRSnapshot is the persisted "last known" admission code for a venue.
type QRSnapshot struct {
	QR      models.QRCode `json:"qr"`
	SavedAt time.Time     `json:"saved_at"`
}

// SessionSnapshot is the persisted phase/countdown state for a session.
type SessionSnapshot struct {
	SessionID        string       `json:"session_id"`
	Phase            models.Phase `json:"phase"`
	RemainingSeconds int          `json:"remaining_seconds"`
	SavedAt          time.Time    `json:"saved_at"`
}

func (s *Store) path(kind, entityID, userID string) string {
	name := fmt.Sprintf("%s_%s_%s.json", kind, sanitize(entityID), sanitize(userID))
	return filepath.Join(s.dir, name)
}

// sanitize keeps ids filesystem-safe without losing uniqueness in practice.
func sanitize(id string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '+'
		}
	}, id)
}

func (s *Store) write(kind, entityID, userID string, v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if err := os.WriteFile(s.path(kind, entityID, userID), data, 0o644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}

func (s *Store) read(kind, entityID, userID string, v any) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path(kind, entityID, userID))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read snapshot: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		// A corrupt snapshot is treated as absent, not fatal.
		return false, nil
	}
	return true, nil
}

// PutQR persists the last known admission code for (venue, user).
func (s *Store) PutQR(venueID, userID string, qr models.QRCode, now time.Time) error {
	return s.write("qr", venueID, userID, QRSnapshot{QR: qr, SavedAt: now})
}

// GetQR returns the cached code for (venue, user); expired snapshots are
// reported as absent.
func (s *Store) GetQR(venueID, userID string, now time.Time) (*models.QRCode, bool) {
	var snap QRSnapshot
	ok, err := s.read("qr", venueID, userID, &snap)
	if err != nil || !ok {
		return nil, false
	}
	if snap.QR.Expired(now) {
		return nil, false
	}
	qr := snap.QR
	return &qr, true
}

// PutSession persists the phase/countdown snapshot for (session, user).
func (s *Store) PutSession(userID string, snap SessionSnapshot) error {
	return s.write("session", snap.SessionID, userID, snap)
}

// GetSession returns the cached snapshot for exactly this session id; a
// snapshot recorded for a different session never leaks across.
func (s *Store) GetSession(sessionID, userID string) (*SessionSnapshot, bool) {
	var snap SessionSnapshot
	ok, err := s.read("session", sessionID, userID, &snap)
	if err != nil || !ok {
		return nil, false
	}
	if snap.SessionID != sessionID {
		return nil, false
	}
	return &snap, true
}

// DeleteSession drops the snapshot for (session, user).
func (s *Store) DeleteSession(sessionID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path("session", sessionID, userID))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}
