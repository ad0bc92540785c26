package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/gdsync/go/internal/models"
)

// Lobby watches a session's waiting room: who has joined, who is ready,
// and when the discussion starts. Ready status polls every 3s and the
// participant list every 5s; both loops swallow transient errors and keep
// the last known state. The lobby reports start when everyone is ready or
// when the local countdown after MarkReady runs out.
type Lobby struct {
	api               LobbyAPI
	sessionID         string
	userID            string
	clock             clockwork.Clock
	readyInterval     time.Duration
	participantsIntvl time.Duration
	readyCountdown    time.Duration

	mu            sync.Mutex
	participants  []models.Participant
	readyStatuses []models.ReadyStatus
	allReady      bool
	ready         bool
	countdownEnd  time.Time
	startedOnce   sync.Once
	started       chan struct{}

	cancel   context.CancelFunc
	loopDone chan struct{}
}

func NewLobby(cfg *LobbyConfig) (*Lobby, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if cfg.API == nil {
		return nil, errors.New("api client cannot be nil")
	}
	if strings.TrimSpace(cfg.SessionID) == "" {
		return nil, ErrInvalidInput
	}
	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	readyInterval := cfg.ReadyPollInterval
	if readyInterval <= 0 {
		readyInterval = defaultReadyPoll
	}
	participantsIntvl := cfg.ParticipantsPollInterval
	if participantsIntvl <= 0 {
		participantsIntvl = defaultParticipantsPoll
	}
	countdown := cfg.ReadyCountdown
	if countdown <= 0 {
		countdown = defaultReadyCountdown
	}
	return &Lobby{
		api:               cfg.API,
		sessionID:         cfg.SessionID,
		userID:            cfg.UserID,
		clock:             clock,
		readyInterval:     readyInterval,
		participantsIntvl: participantsIntvl,
		readyCountdown:    countdown,
		started:           make(chan struct{}),
	}, nil
}

// Start begins the polling loops. The lobby stops on its own once the
// session starts; Close also stops it.
func (l *Lobby) Start(ctx context.Context) error {
	l.mu.Lock()
	if l.cancel != nil {
		l.mu.Unlock()
		return errors.New("lobby already started")
	}
	runCtx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	l.loopDone = make(chan struct{})
	l.mu.Unlock()

	go l.run(runCtx)
	return nil
}

func (l *Lobby) run(ctx context.Context) {
	defer close(l.loopDone)

	// Prime both views before the first tick.
	l.pollParticipants(ctx)
	l.pollReady(ctx)

	readyTicker := l.clock.NewTicker(l.readyInterval)
	defer readyTicker.Stop()
	participantsTicker := l.clock.NewTicker(l.participantsIntvl)
	defer participantsTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-l.started:
			return
		case <-readyTicker.Chan():
			l.pollReady(ctx)
			l.checkCountdown()
		case <-participantsTicker.Chan():
			l.pollParticipants(ctx)
		}
	}
}

// MarkReady posts this user's ready flag and starts the local countdown
// that force-starts the session even if some peers never respond.
func (l *Lobby) MarkReady(ctx context.Context) error {
	if err := l.api.UpdateReady(ctx, l.sessionID, true); err != nil {
		return err
	}

	l.mu.Lock()
	l.ready = true
	l.countdownEnd = l.clock.Now().Add(l.readyCountdown)
	l.mu.Unlock()

	log.Info().
		Str("session_id", l.sessionID).
		Dur("countdown", l.readyCountdown).
		Msg("marked ready")
	return nil
}

func (l *Lobby) pollReady(ctx context.Context) {
	statuses, err := l.api.ReadyStatus(ctx, l.sessionID)
	if err != nil {
		log.Debug().Err(err).Str("session_id", l.sessionID).Msg("ready status poll failed")
	} else {
		l.mu.Lock()
		l.readyStatuses = statuses
		l.mu.Unlock()
	}

	allReady, err := l.api.AllReady(ctx, l.sessionID)
	if err != nil {
		log.Debug().Err(err).Str("session_id", l.sessionID).Msg("all-ready poll failed")
		return
	}

	l.mu.Lock()
	l.allReady = allReady
	l.mu.Unlock()

	if allReady {
		l.signalStart("all participants ready")
	}
}

func (l *Lobby) pollParticipants(ctx context.Context) {
	participants, err := l.api.Participants(ctx, l.sessionID)
	if err != nil {
		log.Debug().Err(err).Str("session_id", l.sessionID).Msg("participants poll failed")
		return
	}

	// The caller's own entry is not a peer.
	peers := participants[:0:0]
	for _, p := range participants {
		if p.ID != l.userID {
			peers = append(peers, p)
		}
	}

	l.mu.Lock()
	l.participants = peers
	l.mu.Unlock()
}

func (l *Lobby) checkCountdown() {
	l.mu.Lock()
	ready := l.ready
	end := l.countdownEnd
	l.mu.Unlock()

	if ready && !end.IsZero() && !l.clock.Now().Before(end) {
		l.signalStart("ready countdown elapsed")
	}
}

func (l *Lobby) signalStart(reason string) {
	l.startedOnce.Do(func() {
		log.Info().Str("session_id", l.sessionID).Str("reason", reason).Msg("session starting")
		close(l.started)
	})
}

// Started is closed when the session should begin.
func (l *Lobby) Started() <-chan struct{} {
	return l.started
}

// IsReady reports one participant's ready flag from the last poll.
func (l *Lobby) IsReady(participantID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, s := range l.readyStatuses {
		if s.StudentID == participantID {
			return s.IsReady
		}
	}
	return false
}

// Snapshot returns the current observable lobby state.
func (l *Lobby) Snapshot() LobbySnapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	countdown := 0
	if l.ready && !l.countdownEnd.IsZero() {
		rem := l.countdownEnd.Sub(l.clock.Now())
		if rem > 0 {
			countdown = int(rem.Round(time.Second).Seconds())
		}
	}
	return LobbySnapshot{
		Participants:     append([]models.Participant(nil), l.participants...),
		ReadyStatuses:    append([]models.ReadyStatus(nil), l.readyStatuses...),
		AllReady:         l.allReady,
		Ready:            l.ready,
		CountdownSeconds: countdown,
	}
}

// Close stops the polling loops.
func (l *Lobby) Close() {
	l.mu.Lock()
	cancel := l.cancel
	loopDone := l.loopDone
	l.cancel = nil
	l.loopDone = nil
	l.mu.Unlock()

	if cancel != nil {
		cancel()
		<-loopDone
	}
}
