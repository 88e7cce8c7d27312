package doorclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// HTTPError represents a non-2xx HTTP response from the API.
type HTTPError struct {
	StatusCode int
	Message    string
	Data       json.RawMessage
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// IsStatus returns true if err (or any wrapped error) is an HTTPError with the given status code.
func IsStatus(err error, code int) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == code
	}
	return false
}

// OpensAt extracts the window opening time from a too-early rejection.
func OpensAt(err error) (time.Time, bool) {
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) || len(httpErr.Data) == 0 {
		return time.Time{}, false
	}
	var data struct {
		OpensAt *time.Time `json:"opens_at"`
	}
	if json.Unmarshal(httpErr.Data, &data) != nil || data.OpensAt == nil {
		return time.Time{}, false
	}
	return *data.OpensAt, true
}
