package gd_client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/mcdev12/gdsync/go/clients"
	"github.com/mcdev12/gdsync/go/internal/models"
)

// QRResponse is the payload of GET /admin/qr: the venue's current admission
// code, created on demand when none is usable.
type QRResponse struct {
	QRID           string `json:"qr_id"`
	QRString       string `json:"qr_string"`
	VenueID        string `json:"venue_id"`
	ExpiresAt      string `json:"expires_at"`
	MaxCapacity    int    `json:"max_capacity"`
	CurrentUsage   int    `json:"current_usage"`
	RemainingSlots int    `json:"remaining_slots"`
	IsNew          bool   `json:"is_new"`
	IsFull         bool   `json:"is_full"`
}

// QRCode converts the response into the model snapshot, tolerating the
// backend's inconsistent expiry formats.
func (r *QRResponse) QRCode() models.QRCode {
	expires, err := parseServerTime(r.ExpiresAt)
	if err != nil {
		expires = time.Time{}
	}
	return models.QRCode{
		ID:           r.QRID,
		Data:         r.QRString,
		VenueID:      r.VenueID,
		ExpiresAt:    expires,
		MaxCapacity:  r.MaxCapacity,
		CurrentUsage: r.CurrentUsage,
		IsActive:     true,
		IsFull:       r.IsFull,
	}
}

// QRStatusRow is one entry of GET /admin/qr/manage or /admin/qr/history.
type QRStatusRow struct {
	ID           string `json:"id"`
	Data         string `json:"qr_data"`
	VenueID      string `json:"venue_id"`
	GroupID      string `json:"qr_group_id"`
	ExpiresAt    string `json:"expires_at"`
	CreatedAt    string `json:"created_at"`
	MaxCapacity  int    `json:"max_capacity"`
	CurrentUsage int    `json:"current_usage"`
	Remaining    int    `json:"remaining"`
	IsActive     bool   `json:"is_active"`
	IsFull       bool   `json:"is_full"`
	IsExpired    bool   `json:"is_expired"`
}

func (r *QRStatusRow) QRCode() models.QRCode {
	expires, _ := parseServerTime(r.ExpiresAt)
	created, _ := parseServerTime(r.CreatedAt)
	return models.QRCode{
		ID:           r.ID,
		Data:         r.Data,
		VenueID:      r.VenueID,
		GroupID:      r.GroupID,
		CreatedAt:    created,
		ExpiresAt:    expires,
		MaxCapacity:  r.MaxCapacity,
		CurrentUsage: r.CurrentUsage,
		IsActive:     r.IsActive,
		IsFull:       r.IsFull,
		IsExpired:    r.IsExpired,
	}
}

// FetchQR fetches the venue's current admission QR, creating one server-side
// when forceNew is set or none is usable. autoGenerate marks replacement
// requests triggered by capacity exhaustion rather than a user action.
func (c *GDClient) FetchQR(ctx context.Context, venueID string, forceNew, autoGenerate bool) (*QRResponse, error) {
	query := url.Values{}
	query.Set("venue_id", venueID)
	query.Set("force_new", fmt.Sprintf("%t", forceNew))
	if autoGenerate {
		query.Set("auto_generate", "true")
	}

	body, err := c.Get(ctx, qrPath, query)
	if err != nil {
		return nil, err
	}

	raw, err := clients.NormalizeObject(body)
	if err != nil {
		return nil, err
	}

	var resp QRResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse qr response: %w", err)
	}
	if resp.QRString == "" {
		return nil, fmt.Errorf("invalid qr data received")
	}
	return &resp, nil
}

// ListQRUsage returns the current usage rows for all of a venue's codes.
func (c *GDClient) ListQRUsage(ctx context.Context, venueID string) ([]QRStatusRow, error) {
	query := url.Values{}
	query.Set("venue_id", venueID)

	body, err := c.Get(ctx, qrManagePath, query)
	if err != nil {
		return nil, err
	}
	return clients.DecodeList[QRStatusRow](body)
}

// QRHistory returns the venue's historical codes ordered by creation time.
func (c *GDClient) QRHistory(ctx context.Context, venueID string) ([]QRStatusRow, error) {
	query := url.Values{}
	query.Set("venue_id", venueID)

	body, err := c.Get(ctx, qrHistoryPath, query)
	if err != nil {
		return nil, err
	}
	return clients.DecodeList[QRStatusRow](body)
}
