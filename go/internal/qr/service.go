package qr

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/gdsync/go/internal/cache"
	"github.com/mcdev12/gdsync/go/internal/models"
)

// Service presents a single "current" admission code per venue, keeps its
// usage and expiry fresh, and requests a replacement when it fills up. The
// server owns all real state; this service only mirrors it.
type Service struct {
	api          API
	cache        snapshotCache
	userID       string
	clock        clockwork.Clock
	pollInterval time.Duration
}

// snapshotCache tolerates running without a configured store; every cache
// miss then just falls through to the network.
type snapshotCache struct {
	store  *cache.Store
	userID string
}

func (c snapshotCache) getQR(venueID string, now time.Time) (*models.QRCode, bool) {
	if c.store == nil {
		return nil, false
	}
	return c.store.GetQR(venueID, c.userID, now)
}

func (c snapshotCache) putQR(venueID string, code models.QRCode, now time.Time) error {
	if c.store == nil {
		return nil
	}
	return c.store.PutQR(venueID, c.userID, code, now)
}

func NewService(cfg *Config) (*Service, error) {
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
	interval := cfg.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	return &Service{
		api:          cfg.API,
		cache:        snapshotCache{store: cfg.Cache, userID: cfg.UserID},
		userID:       cfg.UserID,
		clock:        clock,
		pollInterval: interval,
	}, nil
}

// FetchOrCreate returns the venue's current admission code. Without
// forceNew, a cached unexpired snapshot short-circuits the network call.
// Network failures surface to the caller as retryable errors.
func (s *Service) FetchOrCreate(ctx context.Context, venueID string, forceNew bool) (*Result, error) {
	return s.fetch(ctx, venueID, forceNew, false)
}

func (s *Service) fetch(ctx context.Context, venueID string, forceNew, autoGenerate bool) (*Result, error) {
	if strings.TrimSpace(venueID) == "" {
		return nil, ErrInvalidInput
	}

	if !forceNew {
		if cached, ok := s.cache.getQR(venueID, s.clock.Now()); ok {
			log.Debug().
				Str("venue_id", venueID).
				Str("qr_id", cached.ID).
				Msg("serving cached qr snapshot")
			return &Result{QR: *cached, FromCache: true}, nil
		}
	}

	resp, err := s.api.FetchQR(ctx, venueID, forceNew, autoGenerate)
	if err != nil {
		return nil, err
	}

	code := resp.QRCode()
	if err := s.cache.putQR(venueID, code, s.clock.Now()); err != nil {
		log.Warn().Err(err).Str("venue_id", venueID).Msg("failed to cache qr snapshot")
	}

	log.Info().
		Str("venue_id", venueID).
		Str("qr_id", code.ID).
		Bool("is_new", resp.IsNew).
		Int("remaining", code.Remaining()).
		Msg("fetched admission qr")

	return &Result{QR: code, IsNew: resp.IsNew}, nil
}

// History builds a carousel over the venue's historical codes.
func (s *Service) History(ctx context.Context, venueID string) (*Carousel, error) {
	if strings.TrimSpace(venueID) == "" {
		return nil, ErrInvalidInput
	}

	rows, err := s.api.QRHistory(ctx, venueID)
	if err != nil {
		return nil, err
	}

	codes := make([]models.QRCode, 0, len(rows))
	for i := range rows {
		codes = append(codes, rows[i].QRCode())
	}
	return NewCarousel(codes, s.clock.Now())
}
