package riot

import (
	"errors"
	"fmt"
)

// Sentinel errors for the outcomes callers branch on. These allow
// errors.Is/As from the pipeline and the CLI shell.
var (
	// ErrNotFound marks a 404 from the upstream API. For identity lookups
	// this is a recoverable business outcome, not a fault.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized marks a 401/403: the API key is invalid or expired.
	// Never retried; fatal for the whole run.
	ErrUnauthorized = errors.New("unauthorized, check API key")

	// ErrThrottled marks a 429 that survived all retry attempts.
	ErrThrottled = errors.New("rate limited by upstream")
)

// StatusError carries an unexpected HTTP status that is neither retryable
// nor one of the mapped sentinel outcomes.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("API returned status %d for %s", e.Code, e.URL)
}
