// internal/browser/locator/errors.go
package locator

import (
	"fmt"
	"time"

	"github.com/xkilldash9x/steadyhand/api/schemas"
)

// NotFoundError means nothing ever matched the descriptor at Index before the
// timeout.
type NotFoundError struct {
	Descriptor schemas.Descriptor
	Index      int
	Timeout    time.Duration
	// Matches is the largest match count seen while polling.
	Matches int
	// Cause is the last transient driver error seen, if any.
	Cause error
}

func (e *NotFoundError) Error() string {
	msg := fmt.Sprintf("element not found after %s: %s", e.Timeout, e.Descriptor)
	if e.Index > 0 {
		msg += fmt.Sprintf(" at index %d (%d matched)", e.Index, e.Matches)
	}
	if e.Cause != nil {
		msg += fmt.Sprintf(": last error: %v", e.Cause)
	}
	return msg
}

func (e *NotFoundError) Unwrap() error { return e.Cause }

// TimeoutError means the descriptor matched but the element never reached the
// requested readiness.
type TimeoutError struct {
	Descriptor schemas.Descriptor
	Index      int
	Readiness  schemas.Readiness
	Timeout    time.Duration
	Cause      error
}

func (e *TimeoutError) Error() string {
	msg := fmt.Sprintf("element did not become %s within %s: %s", e.Readiness, e.Timeout, e.Descriptor)
	if e.Index > 0 {
		msg += fmt.Sprintf(" at index %d", e.Index)
	}
	if e.Cause != nil {
		msg += fmt.Sprintf(": last error: %v", e.Cause)
	}
	return msg
}

func (e *TimeoutError) Unwrap() error { return e.Cause }
