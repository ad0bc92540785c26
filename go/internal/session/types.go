package session

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/mcdev12/gdsync/go/clients/gd_client"
	"github.com/mcdev12/gdsync/go/internal/cache"
	"github.com/mcdev12/gdsync/go/internal/models"
)

// API is what the phase/timer syncer needs from the GD backend client.
type API interface {
	SessionPhase(ctx context.Context, sessionID string) (*gd_client.PhaseResponse, error)
	SessionTimer(ctx context.Context, sessionID string) (*gd_client.TimerResponse, error)
	StartSessionTimer(ctx context.Context, sessionID string, phase models.Phase, durationSeconds int) (*gd_client.TimerResponse, error)
	CompletePhase(ctx context.Context, sessionID string) (*gd_client.CompletePhaseResponse, error)
	SessionRules(ctx context.Context, sessionID string) (*models.SessionRules, error)
}

// LobbyAPI is what the lobby needs from the GD backend client.
type LobbyAPI interface {
	Participants(ctx context.Context, sessionID string) ([]models.Participant, error)
	ReadyStatus(ctx context.Context, sessionID string) ([]models.ReadyStatus, error)
	UpdateReady(ctx context.Context, sessionID string, ready bool) error
	AllReady(ctx context.Context, sessionID string) (bool, error)
}

// Durations are the local fallback phase lengths used only when the server
// timer endpoints are unreachable. These are configuration, not behavior:
// real durations are always server-sourced.
type Durations struct {
	Prep       time.Duration
	Discussion time.Duration
}

// SyncerConfig holds the dependencies for a phase/timer syncer.
type SyncerConfig struct {
	API    API
	Cache  *cache.Store
	UserID string
	Clock  clockwork.Clock

	// ResyncInterval is how often the authoritative remaining time is
	// re-read. Defaults to 10s.
	ResyncInterval time.Duration

	// Tolerance is the largest local/server disagreement that is left
	// uncorrected. Defaults to 1s.
	Tolerance time.Duration

	// FallbackDurations bound the offline fallback; zero values disable
	// the fallback and Initialize fails instead.
	FallbackDurations Durations
}

const (
	defaultResyncInterval = 10 * time.Second
	defaultTickInterval   = time.Second
	defaultTolerance      = time.Second
)

// Snapshot is the observable state of the syncer.
type Snapshot struct {
	SessionID        string
	Phase            models.Phase
	RemainingSeconds int
	Terminal         bool
}

// LobbyConfig holds the dependencies for a lobby watcher.
type LobbyConfig struct {
	API       LobbyAPI
	SessionID string
	UserID    string
	Clock     clockwork.Clock

	// ReadyPollInterval defaults to 3s, ParticipantsPollInterval to 5s,
	// ReadyCountdown to 120s.
	ReadyPollInterval        time.Duration
	ParticipantsPollInterval time.Duration
	ReadyCountdown           time.Duration
}

const (
	defaultReadyPoll        = 3 * time.Second
	defaultParticipantsPoll = 5 * time.Second
	defaultReadyCountdown   = 120 * time.Second
)

// LobbySnapshot is the observable state of the lobby.
type LobbySnapshot struct {
	Participants     []models.Participant
	ReadyStatuses    []models.ReadyStatus
	AllReady         bool
	Ready            bool
	CountdownSeconds int
}
