package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/gdsync/go/clients/gd_client"
	"github.com/mcdev12/gdsync/go/internal/models"
)

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/gd-session"
}

func newFeedSyncer(t *testing.T) *Syncer {
	t.Helper()
	api := &fakeSessionAPI{
		timerResp: &gd_client.TimerResponse{Phase: "discussion", RemainingSeconds: 300, Active: true},
	}
	syncer, err := NewSyncer(&SyncerConfig{
		API:    api,
		UserID: "alice",
		Clock:  clockwork.NewFakeClockAt(time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)),
	})
	require.NoError(t, err)
	require.NoError(t, syncer.Initialize(context.Background(), "sess-1"))
	return syncer
}

func TestLiveFeedAppliesFrames(t *testing.T) {
	upgrader := websocket.Upgrader{}
	var gotPath string
	var hello FeedMessage

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		require.NoError(t, conn.ReadJSON(&hello))
		require.NoError(t, conn.WriteJSON(FeedMessage{Type: feedTimeUpdate, Phase: "discussion", TimeRemaining: 123}))
		require.NoError(t, conn.WriteJSON(FeedMessage{Type: "heartbeat"}))
		require.NoError(t, conn.WriteJSON(FeedMessage{Type: feedPhaseChange, Phase: "survey", TimeRemaining: 90}))
	}))
	defer server.Close()

	syncer := newFeedSyncer(t)
	feed := NewLiveFeed(wsURL(server))
	feed.Attach(context.Background(), "sess-1", syncer)

	assert.Equal(t, "/ws/gd-session/sess-1", gotPath)
	assert.Equal(t, feedSyncTime, hello.Type, "client requests an initial sync on connect")

	snap := syncer.Snapshot()
	assert.Equal(t, models.PhaseSurvey, snap.Phase)
	assert.Equal(t, 90, snap.RemainingSeconds)
}

func TestLiveFeedDiscardsRegressedFrames(t *testing.T) {
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		var hello FeedMessage
		require.NoError(t, conn.ReadJSON(&hello))
		require.NoError(t, conn.WriteJSON(FeedMessage{Type: feedPhaseChange, Phase: "prep", TimeRemaining: 600}))
	}))
	defer server.Close()

	syncer := newFeedSyncer(t)
	feed := NewLiveFeed(wsURL(server))
	feed.Attach(context.Background(), "sess-1", syncer)

	assert.Equal(t, models.PhaseDiscussion, syncer.Snapshot().Phase, "regressed push frames are discarded")
}

func TestLiveFeedUnavailableDegradesSilently(t *testing.T) {
	syncer := newFeedSyncer(t)
	feed := NewLiveFeed("ws://127.0.0.1:1/ws/gd-session")

	// Attach must return, not panic or block, when the endpoint is down.
	feed.Attach(context.Background(), "sess-1", syncer)
	assert.Equal(t, models.PhaseDiscussion, syncer.Snapshot().Phase)
}
