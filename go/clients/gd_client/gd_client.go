package gd_client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mcdev12/gdsync/go/clients"
)

// GDClient wraps the GD assessment REST API. All methods are thin typed
// shims over the shared BaseClient; envelope normalization and the error
// taxonomy live in the clients package.
type GDClient struct {
	*clients.BaseClient
}

func NewGDClient(baseURL, token string) *GDClient {
	client := &GDClient{
		BaseClient: clients.NewBaseClient(baseURL),
	}
	client.SetHeader("Accept", "application/json")
	client.SetToken(token)
	return client
}

func (c *GDClient) postJSON(ctx context.Context, endpoint string, payload any, out any) error {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode request body: %w", err)
	}

	body, err := c.Post(ctx, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}

	raw, err := clients.NormalizeObject(body)
	if err != nil {
		return err
	}
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// rejectionStatus extracts the HTTP status when err is a server rejection.
func rejectionStatus(err error) (bool, int) {
	var apiErr *clients.APIError
	if errors.As(err, &apiErr) {
		return true, apiErr.Status
	}
	return false, 0
}

// parseServerTime handles the timestamp formats the backend has been seen
// emitting: RFC3339 first, then a couple of legacy layouts.
func parseServerTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	layouts := []string{
		time.RFC3339,
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
	}
	var lastErr error
	for _, layout := range layouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q: %w", s, lastErr)
}
