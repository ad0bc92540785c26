package qr

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/gdsync/go/internal/models"
)

// PollingSession owns the 3s status loop for one venue's current code. It
// is the scoped-resource form of the screen lifecycle: constructed on
// mount, Close() on unmount cancels the ticker and gates any callback that
// resolves late. Only one logical writer exists (this session), so the
// regeneration guard is a plain bool under the mutex rather than a lock
// around the network call.
type PollingSession struct {
	svc     *Service
	venueID string

	cancel context.CancelFunc
	done   chan struct{}

	mu            sync.Mutex
	alive         bool
	regenInFlight bool
	nextSeq       uint64
	appliedSeq    uint64
	current       models.QRCode
	regenerations int

	updates chan Snapshot
}

// StartPolling fetches or creates the venue's current code, then begins the
// periodic status check. The returned session must be Closed.
func (s *Service) StartPolling(ctx context.Context, venueID string) (*PollingSession, error) {
	res, err := s.FetchOrCreate(ctx, venueID, false)
	if err != nil {
		return nil, err
	}

	pollCtx, cancel := context.WithCancel(ctx)
	p := &PollingSession{
		svc:     s,
		venueID: venueID,
		cancel:  cancel,
		done:    make(chan struct{}),
		alive:   true,
		current: res.QR,
		updates: make(chan Snapshot, 8),
	}

	go p.run(pollCtx)
	return p, nil
}

func (p *PollingSession) run(ctx context.Context) {
	defer close(p.done)

	ticker := p.svc.clock.NewTicker(p.svc.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			p.pollOnce(ctx)
		}
	}
}

// Snapshot returns the last applied state.
func (p *PollingSession) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Snapshot{QR: p.current, Regenerating: p.regenInFlight}
}

// Updates delivers state changes. Sends never block; a slow consumer
// misses intermediate snapshots, not the latest one.
func (p *PollingSession) Updates() <-chan Snapshot {
	return p.updates
}

// Regenerate is the user-triggered "generate new QR" action. Unlike poll
// errors, its failure surfaces to the caller for a retry affordance.
func (p *PollingSession) Regenerate(ctx context.Context) (*Result, error) {
	seq := p.claimSeq()
	res, err := p.svc.fetch(ctx, p.venueID, true, false)
	if err != nil {
		return nil, err
	}
	p.apply(seq, res.QR, false)
	return res, nil
}

// Close stops the ticker and flips liveness off; a poll response that
// resolves after Close is discarded.
func (p *PollingSession) Close() {
	p.mu.Lock()
	if !p.alive {
		p.mu.Unlock()
		return
	}
	p.alive = false
	p.mu.Unlock()

	p.cancel()
	<-p.done

	p.mu.Lock()
	close(p.updates)
	p.mu.Unlock()
}

// pollOnce runs one status-check cycle: read usage for the venue's codes,
// apply the row matching the current code, and kick off exactly one
// regeneration when capacity is exhausted. Errors are logged and swallowed;
// the last known state stays authoritative for display.
func (p *PollingSession) pollOnce(ctx context.Context) {
	p.mu.Lock()
	qrID := p.current.ID
	p.mu.Unlock()
	if qrID == "" {
		return
	}

	seq := p.claimSeq()
	rows, err := p.svc.api.ListQRUsage(ctx, p.venueID)
	if err != nil {
		log.Warn().Err(err).
			Str("venue_id", p.venueID).
			Msg("qr status poll failed, keeping last known state")
		return
	}

	var row *models.QRCode
	for i := range rows {
		if rows[i].ID == qrID {
			code := rows[i].QRCode()
			row = &code
			break
		}
	}
	if row == nil {
		return
	}

	// Carry over the payload fields the manage endpoint omits.
	p.mu.Lock()
	if row.Data == "" {
		row.Data = p.current.Data
	}
	if row.ExpiresAt.IsZero() {
		row.ExpiresAt = p.current.ExpiresAt
	}
	p.mu.Unlock()

	full := row.Full()
	if !p.apply(seq, *row, full) {
		return
	}

	if err := p.svc.cache.putQR(p.venueID, *row, p.svc.clock.Now()); err != nil {
		log.Warn().Err(err).Str("venue_id", p.venueID).Msg("failed to cache qr snapshot")
	}

	log.Debug().
		Str("venue_id", p.venueID).
		Str("qr_id", row.ID).
		Int("usage", row.CurrentUsage).
		Int("capacity", row.MaxCapacity).
		Bool("full", full).
		Msg("qr status")

	if full {
		p.maybeRegenerate(ctx)
	}
}

// maybeRegenerate requests a replacement code at most once per fullness
// event. The guard flips before the network call and resets after, so a
// poll cycle that overlaps the in-flight request does nothing.
func (p *PollingSession) maybeRegenerate(ctx context.Context) {
	p.mu.Lock()
	if !p.alive || p.regenInFlight {
		p.mu.Unlock()
		return
	}
	p.regenInFlight = true
	p.mu.Unlock()

	log.Info().Str("venue_id", p.venueID).Msg("qr full, requesting replacement")

	seq := p.claimSeq()
	res, err := p.svc.fetch(ctx, p.venueID, true, true)

	p.mu.Lock()
	p.regenInFlight = false
	p.mu.Unlock()

	if err != nil {
		log.Error().Err(err).
			Str("venue_id", p.venueID).
			Msg("qr regeneration failed, will retry on next fullness check")
		return
	}

	p.mu.Lock()
	p.regenerations++
	p.mu.Unlock()
	p.apply(seq, res.QR, false)
}

// claimSeq tags an outbound request with a monotonic sequence number so a
// stale response that arrives after a newer one is discarded.
func (p *PollingSession) claimSeq() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextSeq++
	return p.nextSeq
}

// apply installs a poll result unless the session closed or a newer result
// has already been applied. Reports whether the result was taken.
func (p *PollingSession) apply(seq uint64, code models.QRCode, regenerating bool) bool {
	p.mu.Lock()
	if !p.alive || seq < p.appliedSeq {
		p.mu.Unlock()
		return false
	}
	p.appliedSeq = seq
	p.current = code
	snap := Snapshot{QR: code, Regenerating: regenerating || p.regenInFlight}
	select {
	case p.updates <- snap:
	default:
	}
	p.mu.Unlock()
	return true
}

// Regenerations reports how many replacement codes this session requested.
func (p *PollingSession) Regenerations() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.regenerations
}
