// internal/browser/session/context_utils.go
package session

import "context"

// CombineContext derives a context from the session context, which carries
// the CDP target, that is also cancelled when the operational context ends.
// Values come from session only. The cause of an operational cancellation is
// kept and readable with context.Cause.
func CombineContext(session, op context.Context) (context.Context, context.CancelFunc) {
	combined, cancel := context.WithCancelCause(session)
	stop := context.AfterFunc(op, func() {
		cancel(context.Cause(op))
	})
	return combined, func() {
		stop()
		cancel(context.Canceled)
	}
}
