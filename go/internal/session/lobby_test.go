package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/suite"

	"github.com/mcdev12/gdsync/go/internal/models"
)

type fakeLobbyAPI struct {
	mu sync.Mutex

	participants    []models.Participant
	participantsErr error

	statuses    []models.ReadyStatus
	statusesErr error

	allReady    bool
	allReadyErr error

	readyUpdates []bool
	updateErr    error
}

func (f *fakeLobbyAPI) Participants(ctx context.Context, sessionID string) ([]models.Participant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.participants, f.participantsErr
}

func (f *fakeLobbyAPI) ReadyStatus(ctx context.Context, sessionID string) ([]models.ReadyStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.statuses, f.statusesErr
}

func (f *fakeLobbyAPI) UpdateReady(ctx context.Context, sessionID string, ready bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	f.readyUpdates = append(f.readyUpdates, ready)
	return nil
}

func (f *fakeLobbyAPI) AllReady(ctx context.Context, sessionID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.allReady, f.allReadyErr
}

func (f *fakeLobbyAPI) setAllReady(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.allReady = v
}

type LobbyTestSuite struct {
	suite.Suite
	api   *fakeLobbyAPI
	clock *clockwork.FakeClock
	lobby *Lobby
	ctx   context.Context
}

func (s *LobbyTestSuite) SetupTest() {
	s.api = &fakeLobbyAPI{}
	s.clock = clockwork.NewFakeClockAt(time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC))
	s.ctx = context.Background()

	lobby, err := NewLobby(&LobbyConfig{
		API:       s.api,
		SessionID: "sess-1",
		UserID:    "alice",
		Clock:     s.clock,
	})
	s.Require().NoError(err)
	s.lobby = lobby
}

func (s *LobbyTestSuite) started() bool {
	select {
	case <-s.lobby.Started():
		return true
	default:
		return false
	}
}

func (s *LobbyTestSuite) TestNewLobbyValidation() {
	_, err := NewLobby(nil)
	s.Error(err)
	_, err = NewLobby(&LobbyConfig{SessionID: "sess-1"})
	s.Error(err)
	_, err = NewLobby(&LobbyConfig{API: s.api, SessionID: " "})
	s.ErrorIs(err, ErrInvalidInput)
}

func (s *LobbyTestSuite) TestPollParticipantsFiltersSelf() {
	s.api.participants = []models.Participant{
		{ID: "alice", Name: "Alice"},
		{ID: "bob", Name: "Bob"},
		{ID: "carol", Name: "Carol"},
	}

	s.lobby.pollParticipants(s.ctx)

	snap := s.lobby.Snapshot()
	s.Require().Len(snap.Participants, 2)
	s.Equal("bob", snap.Participants[0].ID)
	s.Equal("carol", snap.Participants[1].ID)
}

func (s *LobbyTestSuite) TestPollParticipantsKeepsLastStateOnError() {
	s.api.participants = []models.Participant{{ID: "bob"}}
	s.lobby.pollParticipants(s.ctx)

	s.api.participantsErr = errors.New("boom")
	s.lobby.pollParticipants(s.ctx)

	s.Len(s.lobby.Snapshot().Participants, 1)
}

func (s *LobbyTestSuite) TestPollReadyTracksStatuses() {
	s.api.statuses = []models.ReadyStatus{
		{StudentID: "bob", IsReady: true},
		{StudentID: "carol", IsReady: false},
	}

	s.lobby.pollReady(s.ctx)

	s.True(s.lobby.IsReady("bob"))
	s.False(s.lobby.IsReady("carol"))
	s.False(s.lobby.IsReady("unknown"))
	s.False(s.started())
}

func (s *LobbyTestSuite) TestPollReadySignalsStartWhenAllReady() {
	s.api.allReady = true
	s.lobby.pollReady(s.ctx)
	s.True(s.started())
}

func (s *LobbyTestSuite) TestMarkReadyStartsCountdown() {
	s.Require().NoError(s.lobby.MarkReady(s.ctx))
	s.Equal([]bool{true}, s.api.readyUpdates)

	snap := s.lobby.Snapshot()
	s.True(snap.Ready)
	s.Equal(120, snap.CountdownSeconds)

	// Countdown has not elapsed yet.
	s.clock.Advance(119 * time.Second)
	s.lobby.checkCountdown()
	s.False(s.started())

	s.clock.Advance(time.Second)
	s.lobby.checkCountdown()
	s.True(s.started(), "elapsed countdown force-starts the session")
}

func (s *LobbyTestSuite) TestCountdownRequiresMarkReady() {
	s.clock.Advance(time.Hour)
	s.lobby.checkCountdown()
	s.False(s.started())
}

func (s *LobbyTestSuite) TestMarkReadyPropagatesError() {
	s.api.updateErr = errors.New("boom")
	s.Error(s.lobby.MarkReady(s.ctx))
	s.False(s.lobby.Snapshot().Ready)
}

func (s *LobbyTestSuite) TestRunLoopSignalsStart() {
	ctx, cancel := context.WithCancel(s.ctx)
	defer cancel()

	s.Require().NoError(s.lobby.Start(ctx))
	defer s.lobby.Close()

	// Wait for both tickers, then let the backend flip to all-ready and
	// deliver the next ready poll.
	s.Require().NoError(s.clock.BlockUntilContext(ctx, 2))
	s.api.setAllReady(true)
	s.clock.Advance(3 * time.Second)

	select {
	case <-s.lobby.Started():
	case <-time.After(2 * time.Second):
		s.Fail("lobby did not signal start")
	}
}

func TestLobbyTestSuite(t *testing.T) {
	suite.Run(t, new(LobbyTestSuite))
}
