// internal/interaction/errors.go
package interaction

import (
	"fmt"
	"strings"

	"github.com/xkilldash9x/steadyhand/api/schemas"
)

// ObstructedActionError means the target was resolved as clickable but the
// click landed on another element (an overlay, a busy indicator, an animation).
type ObstructedActionError struct {
	Descriptor schemas.Descriptor
	Cause      error
}

func (e *ObstructedActionError) Error() string {
	return fmt.Sprintf("click on %s was obstructed by another element at its position (the element exists and is enabled; wait for overlays to close): %v", e.Descriptor, e.Cause)
}

func (e *ObstructedActionError) Unwrap() error { return e.Cause }

// PreconditionError reports mandatory arguments the caller left out. It is
// returned before any driver call.
type PreconditionError struct {
	Function string
	Missing  []string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s: missing required argument(s): %s", e.Function, strings.Join(e.Missing, ", "))
}

// VerificationError is a failed post-action readback.
type VerificationError struct {
	What     string
	Expected string
	Actual   string
}

func (e *VerificationError) Error() string {
	what := e.What
	if what == "" {
		what = "value"
	}
	return fmt.Sprintf("verification failed: expected %s %q, got %q", what, e.Expected, e.Actual)
}
