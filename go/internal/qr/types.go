package qr

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/mcdev12/gdsync/go/clients/gd_client"
	"github.com/mcdev12/gdsync/go/internal/cache"
	"github.com/mcdev12/gdsync/go/internal/models"
)

// API is what the QR lifecycle needs from the GD backend client.
type API interface {
	FetchQR(ctx context.Context, venueID string, forceNew, autoGenerate bool) (*gd_client.QRResponse, error)
	ListQRUsage(ctx context.Context, venueID string) ([]gd_client.QRStatusRow, error)
	QRHistory(ctx context.Context, venueID string) ([]gd_client.QRStatusRow, error)
}

// Config holds the dependencies for the QR lifecycle service.
type Config struct {
	API    API
	Cache  *cache.Store
	UserID string
	Clock  clockwork.Clock

	// PollInterval is the status-check cadence while a polling session is
	// active. Defaults to 3s.
	PollInterval time.Duration
}

const defaultPollInterval = 3 * time.Second

// Result is the outcome of FetchOrCreate.
type Result struct {
	QR        models.QRCode
	IsNew     bool
	FromCache bool
}

// Snapshot is the observable state of a polling session.
type Snapshot struct {
	QR           models.QRCode
	Regenerating bool
}
