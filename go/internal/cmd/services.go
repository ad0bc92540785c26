package main

import (
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/gdsync/go/clients/gd_client"
	"github.com/mcdev12/gdsync/go/internal/cache"
	"github.com/mcdev12/gdsync/go/internal/qr"
	"github.com/mcdev12/gdsync/go/internal/session"
)

// Services bundles the shared client-side infrastructure. Per-session
// workers (syncer, lobby, survey runner) are built from it on demand.
type Services struct {
	Client *gd_client.GDClient
	Store  *cache.Store
	Clock  clockwork.Clock
	QR     *qr.Service
	Feed   *session.LiveFeed
	Config *Config
}

func setupServices(config *Config) (*Services, error) {
	client := gd_client.NewGDClient(config.API.BaseURL, config.API.Token)

	store, err := cache.NewStore(config.Cache.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}

	clock := clockwork.NewRealClock()

	qrService, err := qr.NewService(&qr.Config{
		API:          client,
		Cache:        store,
		UserID:       config.User.ID,
		Clock:        clock,
		PollInterval: config.QRPollInterval(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build qr service: %w", err)
	}

	var feed *session.LiveFeed
	if config.API.WebsocketURL != "" {
		feed = session.NewLiveFeed(config.API.WebsocketURL)
	}

	log.Info().
		Str("base_url", config.API.BaseURL).
		Str("cache_dir", config.Cache.Dir).
		Str("user_id", config.User.ID).
		Msg("services initialized")

	return &Services{
		Client: client,
		Store:  store,
		Clock:  clock,
		QR:     qrService,
		Feed:   feed,
		Config: config,
	}, nil
}

func (s *Services) newSyncer() (*session.Syncer, error) {
	return session.NewSyncer(&session.SyncerConfig{
		API:            s.Client,
		Cache:          s.Store,
		UserID:         s.Config.User.ID,
		Clock:          s.Clock,
		ResyncInterval: s.Config.ResyncInterval(),
		FallbackDurations: session.Durations{
			Prep:       minutes(s.Config.Fallback.PrepMinutes),
			Discussion: minutes(s.Config.Fallback.DiscussionMinutes),
		},
	})
}

func (s *Services) newLobby(sessionID string) (*session.Lobby, error) {
	return session.NewLobby(&session.LobbyConfig{
		API:                      s.Client,
		SessionID:                sessionID,
		UserID:                   s.Config.User.ID,
		Clock:                    s.Clock,
		ReadyPollInterval:        s.Config.ReadyPollInterval(),
		ParticipantsPollInterval: s.Config.ParticipantsPollInterval(),
	})
}

func minutes(n int) time.Duration {
	return time.Duration(n) * time.Minute
}
