package session

import (
	"context"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// FeedMessage mirrors the session websocket protocol: the server pushes
// time_update and phase_change frames, the client may request a sync with
// sync_time.
type FeedMessage struct {
	Type          string `json:"type"`
	TimeRemaining int    `json:"timeRemaining,omitempty"`
	ClientTime    int64  `json:"clientTime,omitempty"`
	Phase         string `json:"phase,omitempty"`
	Duration      int    `json:"duration,omitempty"`
}

const (
	feedTimeUpdate  = "time_update"
	feedPhaseChange = "phase_change"
	feedSyncTime    = "sync_time"
)

// LiveFeed is the push-based supplement to HTTP polling: it joins the
// session's websocket channel and forwards server time/phase frames. Any
// failure degrades silently back to polling; the feed never becomes a
// second source of truth, it just tightens the sync latency.
type LiveFeed struct {
	url    string
	dialer *websocket.Dialer
}

// NewLiveFeed builds a feed for a base websocket URL such as
// wss://host/ws/gd-session.
func NewLiveFeed(baseURL string) *LiveFeed {
	return &LiveFeed{
		url: strings.TrimRight(baseURL, "/"),
		dialer: &websocket.Dialer{
			HandshakeTimeout: 10 * time.Second,
		},
	}
}

// Attach connects the feed for a session and applies every server frame to
// the syncer until the context ends or the connection drops. It returns
// once the feed is down; callers already have polling as the fallback.
func (f *LiveFeed) Attach(ctx context.Context, sessionID string, syncer *Syncer) {
	conn, _, err := f.dialer.DialContext(ctx, f.url+"/"+sessionID, nil)
	if err != nil {
		log.Debug().Err(err).Str("session_id", sessionID).Msg("live feed unavailable, polling only")
		return
	}
	defer conn.Close()

	log.Info().Str("session_id", sessionID).Msg("live feed connected")

	// Drop the connection when the context ends; ReadJSON has no context
	// of its own.
	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	// Ask for an initial sync so a reconnect converges immediately.
	_ = conn.WriteJSON(FeedMessage{Type: feedSyncTime, ClientTime: time.Now().UnixMilli()})

	for {
		var msg FeedMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if ctx.Err() == nil {
				log.Debug().Err(err).Str("session_id", sessionID).Msg("live feed closed, polling only")
			}
			return
		}
		f.apply(sessionID, syncer, msg)
	}
}

func (f *LiveFeed) apply(sessionID string, syncer *Syncer, msg FeedMessage) {
	switch msg.Type {
	case feedTimeUpdate, feedPhaseChange:
		if msg.Phase == "" {
			return
		}
		if err := syncer.ApplyServerState(msg.Phase, msg.TimeRemaining); err != nil {
			log.Debug().Err(err).
				Str("session_id", sessionID).
				Str("phase", msg.Phase).
				Msg("discarded live feed frame")
		}
	default:
		// Unknown frame types are ignored; the protocol grows without
		// breaking old clients.
	}
}
