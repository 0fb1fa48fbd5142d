// internal/browser/locator/resolver.go
package locator

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/steadyhand/api/schemas"
)

// DefaultPollInterval is the probe cadence when none is configured.
const DefaultPollInterval = 100 * time.Millisecond

// Resolver turns a descriptor into a live element handle by polling the driver
// until the element at the requested index reaches a readiness level. It never
// acts on the page.
type Resolver struct {
	driver   schemas.Driver
	interval time.Duration
	logger   *zap.Logger
}

// New creates a Resolver polling at interval.
func New(driver schemas.Driver, interval time.Duration, logger *zap.Logger) *Resolver {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		driver:   driver,
		interval: interval,
		logger:   logger.Named("locator"),
	}
}

// Interval returns the poll cadence.
func (r *Resolver) Interval() time.Duration { return r.interval }

// Resolve polls until the index-th match of desc satisfies readiness, or until
// timeout elapses. The last probe happens at or after the deadline, so a failure
// is reported within [timeout, timeout+interval]. An index beyond the match
// count is treated as not matched.
func (r *Resolver) Resolve(ctx context.Context, desc schemas.Descriptor, index int, timeout time.Duration, readiness schemas.Readiness) (schemas.Element, error) {
	if index < 0 {
		return nil, fmt.Errorf("resolving %s: negative index %d", desc, index)
	}
	if readiness < schemas.Exists || readiness > schemas.Clickable {
		return nil, fmt.Errorf("resolving %s: unknown readiness %s", desc, readiness)
	}

	deadline := time.Now().Add(timeout)
	limiter := rate.NewLimiter(rate.Every(r.interval), 1)

	var (
		lastErr     error
		matches     int
		everMatched bool
		probes      int
	)
	for {
		if err := r.wait(ctx, limiter, deadline); err != nil {
			return nil, fmt.Errorf("resolving %s: %w", desc, err)
		}

		probes++
		el, count, err := r.probe(ctx, desc, index, readiness)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("resolving %s: %w", desc, ctxErr)
		}
		if count > matches {
			matches = count
		}
		if count > index {
			everMatched = true
		}
		switch {
		case err != nil:
			lastErr = err
		case el != nil:
			r.logger.Debug("Resolved element.",
				zap.Stringer("descriptor", desc),
				zap.Int("index", index),
				zap.Stringer("readiness", readiness),
				zap.Int("probes", probes))
			return el, nil
		}

		if !time.Now().Before(deadline) {
			break
		}
	}

	r.logger.Debug("Resolution failed.",
		zap.Stringer("descriptor", desc),
		zap.Int("probes", probes),
		zap.Bool("matched", everMatched),
		zap.Error(lastErr))
	if !everMatched {
		return nil, &NotFoundError{Descriptor: desc, Index: index, Timeout: timeout, Matches: matches, Cause: lastErr}
	}
	return nil, &TimeoutError{Descriptor: desc, Index: index, Readiness: readiness, Timeout: timeout, Cause: lastErr}
}

// wait blocks until the limiter admits the next probe, capped at the deadline.
func (r *Resolver) wait(ctx context.Context, limiter *rate.Limiter, deadline time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	res := limiter.Reserve()
	delay := res.Delay()
	if remaining := time.Until(deadline); delay > remaining {
		delay = remaining
	}
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		res.Cancel()
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// probe runs one query and readiness check. It returns the element only when
// it is ready; count is the number of matches the query returned.
func (r *Resolver) probe(ctx context.Context, desc schemas.Descriptor, index int, readiness schemas.Readiness) (schemas.Element, int, error) {
	els, err := r.driver.Query(ctx, desc)
	if err != nil {
		return nil, 0, err
	}
	if index >= len(els) {
		return nil, len(els), nil
	}
	el := els[index]

	var ready bool
	switch readiness {
	case schemas.Exists:
		ready, err = el.Exists(ctx)
	case schemas.Visible:
		ready, err = el.IsVisible(ctx)
	case schemas.Clickable:
		ready, err = el.IsClickable(ctx)
	}
	if err != nil || !ready {
		return nil, len(els), err
	}
	return el, len(els), nil
}
