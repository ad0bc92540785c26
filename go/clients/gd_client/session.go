package gd_client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/mcdev12/gdsync/go/clients"
	"github.com/mcdev12/gdsync/go/internal/models"
)

// PhaseResponse is GET /student/session/phase.
type PhaseResponse struct {
	Phase   string `json:"phase"`
	EndTime string `json:"end_time"`
}

// TimerResponse is GET|POST /student/session/timer.
type TimerResponse struct {
	Phase            string `json:"phase"`
	RemainingSeconds int    `json:"remaining_seconds"`
	DurationSeconds  int    `json:"duration_seconds"`
	Active           bool   `json:"active"`
}

// CompletePhaseResponse is POST /student/session/phase/complete.
type CompletePhaseResponse struct {
	NextPhase       string `json:"next_phase"`
	DurationSeconds int    `json:"duration_seconds"`
	Completed       bool   `json:"completed"`
}

func (c *GDClient) SessionPhase(ctx context.Context, sessionID string) (*PhaseResponse, error) {
	query := url.Values{}
	query.Set("session_id", sessionID)

	body, err := c.Get(ctx, sessionPhasePath, query)
	if err != nil {
		return nil, err
	}
	raw, err := clients.NormalizeObject(body)
	if err != nil {
		return nil, err
	}
	var resp PhaseResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse phase response: %w", err)
	}
	return &resp, nil
}

func (c *GDClient) SessionTimer(ctx context.Context, sessionID string) (*TimerResponse, error) {
	query := url.Values{}
	query.Set("session_id", sessionID)

	body, err := c.Get(ctx, sessionTimerPath, query)
	if err != nil {
		return nil, err
	}
	raw, err := clients.NormalizeObject(body)
	if err != nil {
		return nil, err
	}
	var resp TimerResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse timer response: %w", err)
	}
	return &resp, nil
}

func (c *GDClient) StartSessionTimer(ctx context.Context, sessionID string, phase models.Phase, durationSeconds int) (*TimerResponse, error) {
	payload := map[string]any{
		"session_id":       sessionID,
		"phase":            string(phase),
		"duration_seconds": durationSeconds,
	}
	var resp TimerResponse
	if err := c.postJSON(ctx, sessionTimerStartPath, payload, &resp); err != nil {
		return nil, err
	}
	if resp.Phase == "" {
		resp.Phase = string(phase)
	}
	if resp.RemainingSeconds == 0 {
		resp.RemainingSeconds = durationSeconds
	}
	resp.Active = true
	return &resp, nil
}

func (c *GDClient) CompletePhase(ctx context.Context, sessionID string) (*CompletePhaseResponse, error) {
	payload := map[string]any{"session_id": sessionID}
	var resp CompletePhaseResponse
	if err := c.postJSON(ctx, sessionPhaseCompletePath, payload, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *GDClient) SessionRules(ctx context.Context, sessionID string) (*models.SessionRules, error) {
	query := url.Values{}
	query.Set("session_id", sessionID)

	body, err := c.Get(ctx, sessionRulesPath, query)
	if err != nil {
		return nil, err
	}
	raw, err := clients.NormalizeObject(body)
	if err != nil {
		return nil, err
	}
	var rules models.SessionRules
	if err := json.Unmarshal(raw, &rules); err != nil {
		return nil, fmt.Errorf("failed to parse session rules: %w", err)
	}
	return &rules, nil
}

// Participants returns the students currently tracked in the session.
// A 404 means nobody has joined yet and is reported as an empty list.
func (c *GDClient) Participants(ctx context.Context, sessionID string) ([]models.Participant, error) {
	query := url.Values{}
	query.Set("session_id", sessionID)

	body, err := c.Get(ctx, participantsPath, query)
	if err != nil {
		if rejected, status := rejectionStatus(err); rejected && status == 404 {
			return nil, nil
		}
		return nil, err
	}
	return clients.DecodeList[models.Participant](body)
}

func (c *GDClient) UpdateReady(ctx context.Context, sessionID string, ready bool) error {
	payload := map[string]any{
		"session_id": sessionID,
		"is_ready":   ready,
	}
	return c.postJSON(ctx, readyPath, payload, nil)
}

func (c *GDClient) ReadyStatus(ctx context.Context, sessionID string) ([]models.ReadyStatus, error) {
	query := url.Values{}
	query.Set("session_id", sessionID)

	body, err := c.Get(ctx, readyStatusPath, query)
	if err != nil {
		return nil, err
	}

	var resp struct {
		ReadyStatuses []models.ReadyStatus `json:"ready_statuses"`
	}
	raw, normErr := clients.NormalizeObject(body)
	if normErr != nil {
		return nil, normErr
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse ready statuses: %w", err)
	}
	return resp.ReadyStatuses, nil
}

func (c *GDClient) AllReady(ctx context.Context, sessionID string) (bool, error) {
	query := url.Values{}
	query.Set("session_id", sessionID)

	body, err := c.Get(ctx, checkAllReadyPath, query)
	if err != nil {
		return false, err
	}
	raw, err := clients.NormalizeObject(body)
	if err != nil {
		return false, err
	}
	var resp struct {
		AllReady bool `json:"all_ready"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return false, fmt.Errorf("failed to parse all-ready response: %w", err)
	}
	return resp.AllReady, nil
}
