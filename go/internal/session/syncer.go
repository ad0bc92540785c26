package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/gdsync/go/internal/cache"
	"github.com/mcdev12/gdsync/go/internal/models"
)

// Syncer tracks a discussion session's phase and countdown against the
// server's timer. The server is authoritative: phase transitions are
// monotonic and the local countdown is display smoothing that gets
// overwritten on every resync. Remaining time is always recomputed from
// the wall-clock end time, never from tick counts, so a suspended process
// resumes with the correct value.
type Syncer struct {
	api            API
	cache          *cache.Store
	userID         string
	clock          clockwork.Clock
	resyncInterval time.Duration
	tolerance      time.Duration
	fallback       Durations

	mu         sync.Mutex
	sessionID  string
	phase      models.Phase
	endTime    time.Time
	remaining  int
	suspended  bool
	completing bool
	terminal   bool
	done       chan struct{}

	cancel   context.CancelFunc
	loopDone chan struct{}
}

func NewSyncer(cfg *SyncerConfig) (*Syncer, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if cfg.API == nil {
		return nil, errors.New("api client cannot be nil")
	}
	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	resync := cfg.ResyncInterval
	if resync <= 0 {
		resync = defaultResyncInterval
	}
	tolerance := cfg.Tolerance
	if tolerance <= 0 {
		tolerance = defaultTolerance
	}
	return &Syncer{
		api:            cfg.API,
		cache:          cfg.Cache,
		userID:         cfg.UserID,
		clock:          clock,
		resyncInterval: resync,
		tolerance:      tolerance,
		fallback:       cfg.FallbackDurations,
		done:           make(chan struct{}),
	}, nil
}

// Initialize resets local state for the session and adopts the server's
// timer. A freshly opened session always starts from prep; any snapshot
// persisted for a different session id is invisible by construction, and
// the one for this session id is only consulted when the server cannot be
// reached at all.
func (s *Syncer) Initialize(ctx context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return ErrInvalidInput
	}

	s.mu.Lock()
	s.sessionID = sessionID
	s.phase = models.PhasePrep
	s.endTime = time.Time{}
	s.remaining = 0
	s.completing = false
	s.terminal = false
	s.done = make(chan struct{})
	s.mu.Unlock()

	// Existing server-side timer wins.
	if timer, err := s.api.SessionTimer(ctx, sessionID); err == nil && timer.Active {
		phase, perr := models.ParsePhase(timer.Phase)
		if perr == nil {
			s.adopt(phase, timer.RemainingSeconds)
			log.Info().
				Str("session_id", sessionID).
				Str("phase", string(phase)).
				Int("remaining", timer.RemainingSeconds).
				Msg("adopted existing session timer")
			return nil
		}
		log.Warn().Err(perr).Str("session_id", sessionID).Msg("server timer has unknown phase")
	}

	// No active timer: start one for prep with the server-configured
	// duration.
	if rules, err := s.api.SessionRules(ctx, sessionID); err == nil {
		duration := rules.PrepTime * 60
		if timer, err := s.api.StartSessionTimer(ctx, sessionID, models.PhasePrep, duration); err == nil {
			s.adopt(models.PhasePrep, timer.RemainingSeconds)
			log.Info().
				Str("session_id", sessionID).
				Int("duration", duration).
				Msg("started prep timer")
			return nil
		}
	}

	// Server unreachable: bridge with the cached snapshot for this exact
	// session, else the configured local fallback.
	if snap, ok := s.cachedSnapshot(sessionID); ok {
		s.adopt(snap.Phase, snap.RemainingSeconds)
		log.Warn().
			Str("session_id", sessionID).
			Str("phase", string(snap.Phase)).
			Msg("server unreachable, restored cached session state")
		return nil
	}
	if s.fallback.Prep <= 0 {
		return errors.New("session timer unavailable and no fallback duration configured")
	}
	s.adopt(models.PhasePrep, int(s.fallback.Prep.Seconds()))
	log.Warn().
		Str("session_id", sessionID).
		Dur("fallback", s.fallback.Prep).
		Msg("server unreachable, using local fallback prep duration")
	return nil
}

func (s *Syncer) cachedSnapshot(sessionID string) (*cache.SessionSnapshot, bool) {
	if s.cache == nil {
		return nil, false
	}
	return s.cache.GetSession(sessionID, s.userID)
}

// adopt installs (phase, remaining) unconditionally. Callers have already
// established that the value is authoritative.
func (s *Syncer) adopt(phase models.Phase, remainingSeconds int) {
	_ = s.install(phase, remainingSeconds, false)
}

// install writes (phase, remaining). With monotonic set, the regression check
// and the write share one critical section so concurrent sources (resync loop,
// live feed) cannot interleave a stale phase past a newer one.
func (s *Syncer) install(phase models.Phase, remainingSeconds int, monotonic bool) error {
	now := s.clock.Now()

	s.mu.Lock()
	if monotonic && phase.Before(s.phase) {
		current := s.phase
		sessionID := s.sessionID
		s.mu.Unlock()
		log.Warn().
			Str("session_id", sessionID).
			Str("current", string(current)).
			Str("reported", string(phase)).
			Msg("ignoring regressed phase from server")
		return ErrStaleState
	}
	s.phase = phase
	s.remaining = remainingSeconds
	s.endTime = now.Add(time.Duration(remainingSeconds) * time.Second)
	s.completing = false
	if phase.Terminal() && !s.terminal {
		s.terminal = true
		close(s.done)
	}
	sessionID := s.sessionID
	terminal := s.terminal
	s.mu.Unlock()

	s.persist(sessionID, phase, remainingSeconds)
	if terminal {
		log.Info().Str("session_id", sessionID).Str("phase", string(phase)).Msg("session reached terminal phase")
	}
	return nil
}

func (s *Syncer) persist(sessionID string, phase models.Phase, remaining int) {
	if s.cache == nil || sessionID == "" {
		return
	}
	err := s.cache.PutSession(s.userID, cache.SessionSnapshot{
		SessionID:        sessionID,
		Phase:            phase,
		RemainingSeconds: remaining,
		SavedAt:          s.clock.Now(),
	})
	if err != nil {
		log.Warn().Err(err).Str("session_id", sessionID).Msg("failed to persist session snapshot")
	}
}

// adoptServer installs a server-reported (phase, remaining), rejecting
// phase regressions.
func (s *Syncer) adoptServer(phase models.Phase, remainingSeconds int) error {
	return s.install(phase, remainingSeconds, true)
}

// Tick recomputes the countdown from wall-clock time. It reports true
// exactly once per expiry; racing callers see false while completion is
// pending.
func (s *Syncer) Tick() bool {
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.terminal || s.suspended || s.endTime.IsZero() {
		return false
	}

	rem := int(s.endTime.Sub(now).Round(time.Second).Seconds())
	if rem < 0 {
		rem = 0
	}
	s.remaining = rem

	if rem > 0 || s.completing {
		return false
	}
	s.completing = true
	return true
}

// Resync re-reads the authoritative phase and remaining time and
// overwrites the local countdown when they disagree beyond tolerance.
// Poll errors are swallowed by the run loop; callers invoking Resync
// directly get them back.
func (s *Syncer) Resync(ctx context.Context) error {
	s.mu.Lock()
	sessionID := s.sessionID
	terminal := s.terminal
	s.mu.Unlock()

	if sessionID == "" {
		return ErrNotInitialized
	}
	if terminal {
		return nil
	}

	resp, err := s.api.SessionPhase(ctx, sessionID)
	if err != nil {
		return err
	}
	phase, err := models.ParsePhase(resp.Phase)
	if err != nil {
		return err
	}

	remaining := 0
	if end, terr := parseEndTime(resp.EndTime); terr == nil {
		rem := end.Sub(s.clock.Now())
		if rem > 0 {
			remaining = int(rem.Round(time.Second).Seconds())
		}
	}

	s.mu.Lock()
	samePhase := phase == s.phase
	localRemaining := s.remaining
	s.mu.Unlock()

	if samePhase {
		drift := time.Duration(localRemaining-remaining) * time.Second
		if drift < 0 {
			drift = -drift
		}
		if drift <= s.tolerance {
			return nil
		}
		log.Debug().
			Str("session_id", sessionID).
			Int("local", localRemaining).
			Int("server", remaining).
			Msg("correcting countdown drift")
	}
	return s.adoptServer(phase, remaining)
}

// CompletePhase asks the server to advance the phase and adopts whatever
// it returns. When the server is unreachable the conservative local
// transition keeps the user moving: prep falls through to discussion,
// discussion falls through to the survey.
func (s *Syncer) CompletePhase(ctx context.Context) error {
	s.mu.Lock()
	sessionID := s.sessionID
	current := s.phase
	terminal := s.terminal
	s.mu.Unlock()

	if sessionID == "" {
		return ErrNotInitialized
	}
	if terminal {
		return nil
	}

	resp, err := s.api.CompletePhase(ctx, sessionID)
	if err != nil {
		log.Warn().Err(err).
			Str("session_id", sessionID).
			Str("phase", string(current)).
			Msg("phase completion failed, applying local fallback transition")
		return s.fallbackTransition(current)
	}

	if resp.Completed {
		s.adopt(models.PhaseCompleted, 0)
		return nil
	}

	next, perr := models.ParsePhase(resp.NextPhase)
	if perr != nil {
		return s.fallbackTransition(current)
	}
	return s.adoptServer(next, resp.DurationSeconds)
}

func (s *Syncer) fallbackTransition(current models.Phase) error {
	switch current {
	case models.PhasePrep:
		s.adopt(models.PhaseDiscussion, int(s.fallback.Discussion.Seconds()))
	default:
		s.adopt(models.PhaseSurvey, 0)
	}
	return nil
}

// ApplyServerState installs a server-pushed (phase, remaining) frame,
// subject to the same monotonic rules as a resync.
func (s *Syncer) ApplyServerState(phase string, remainingSeconds int) error {
	parsed, err := models.ParsePhase(phase)
	if err != nil {
		return err
	}
	if remainingSeconds < 0 {
		remainingSeconds = 0
	}
	return s.adoptServer(parsed, remainingSeconds)
}

// Suspend marks the process backgrounded; ticks pause but the wall-clock
// end time keeps running.
func (s *Syncer) Suspend() {
	s.mu.Lock()
	s.suspended = true
	s.mu.Unlock()
	log.Debug().Str("session_id", s.SessionID()).Msg("syncer suspended")
}

// Resume recomputes the countdown from elapsed wall time and then forces
// a resync so the server's view wins immediately.
func (s *Syncer) Resume(ctx context.Context) error {
	s.mu.Lock()
	s.suspended = false
	s.mu.Unlock()

	if expired := s.Tick(); expired {
		return s.CompletePhase(ctx)
	}
	if err := s.Resync(ctx); err != nil {
		log.Warn().Err(err).Str("session_id", s.SessionID()).Msg("resync on resume failed")
		return err
	}
	return nil
}

// Start runs the tick/resync loop until the context ends or the session
// reaches a terminal phase.
func (s *Syncer) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.sessionID == "" {
		s.mu.Unlock()
		return ErrNotInitialized
	}
	if s.cancel != nil {
		s.mu.Unlock()
		return errors.New("syncer already started")
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.loopDone = make(chan struct{})
	s.mu.Unlock()

	go s.run(runCtx)
	return nil
}

func (s *Syncer) run(ctx context.Context) {
	defer close(s.loopDone)

	s.mu.Lock()
	done := s.done
	s.mu.Unlock()

	tick := s.clock.NewTicker(defaultTickInterval)
	defer tick.Stop()
	resync := s.clock.NewTicker(s.resyncInterval)
	defer resync.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			return
		case <-tick.Chan():
			if expired := s.Tick(); expired {
				if err := s.CompletePhase(ctx); err != nil {
					log.Error().Err(err).Str("session_id", s.SessionID()).Msg("phase completion error")
				}
			}
		case <-resync.Chan():
			if err := s.Resync(ctx); err != nil && !errors.Is(err, ErrStaleState) {
				log.Warn().Err(err).Str("session_id", s.SessionID()).Msg("resync failed, keeping local countdown")
			}
		}
	}
}

// Close stops the run loop. Safe to call multiple times.
func (s *Syncer) Close() {
	s.mu.Lock()
	cancel := s.cancel
	loopDone := s.loopDone
	s.cancel = nil
	s.loopDone = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
		<-loopDone
	}
}

// Done is closed when the session reaches the survey/completed stage.
func (s *Syncer) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

// SessionID returns the session this syncer is bound to.
func (s *Syncer) SessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionID
}

// Snapshot returns the current observable state.
func (s *Syncer) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		SessionID:        s.sessionID,
		Phase:            s.phase,
		RemainingSeconds: s.remaining,
		Terminal:         s.terminal,
	}
}

func parseEndTime(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty end time")
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.New("unrecognized end time format")
}
