package clients

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// APIError is a non-2xx response from the GD backend. 4xx errors carry the
// server-provided message and should be surfaced to the user without retry;
// 5xx errors are treated as transient like transport failures.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("api error %d", e.Status)
}

func newAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{Status: status}

	// The backend is inconsistent: errors arrive as {"error": "..."},
	// {"message": "..."} or plain text.
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Error != "" {
			apiErr.Message = payload.Error
		} else if payload.Message != "" {
			apiErr.Message = payload.Message
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(body))
	}
	return apiErr
}

// IsServerRejected reports whether err is a 4xx rejection whose message
// should be shown to the user instead of retried.
func IsServerRejected(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500
}

// IsTransient reports whether err is worth retrying on the next poll cycle:
// transport failures and 5xx responses qualify, 4xx rejections do not.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status >= 500
	}
	return true
}
