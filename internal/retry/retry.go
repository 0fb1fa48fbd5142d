// internal/retry/retry.go
package retry

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/xkilldash9x/steadyhand/internal/config"
)

const (
	// DefaultAttempts is used when neither the call site nor the process config sets one.
	DefaultAttempts = 3
	// DefaultInterval is the built-in pause between attempts.
	DefaultInterval = 5 * time.Second
)

// Policy is a resolved, immutable retry policy. Attempts counts every
// invocation, the first one included.
type Policy struct {
	Attempts int
	Interval time.Duration
}

// DefaultPolicy is the built-in policy.
var DefaultPolicy = Policy{Attempts: DefaultAttempts, Interval: DefaultInterval}

// PolicyFromConfig turns the process-wide retry section into a Policy. An
// empty section yields DefaultPolicy; an explicit zero interval is kept.
func PolicyFromConfig(cfg config.RetryConfig) Policy {
	if cfg == (config.RetryConfig{}) {
		return DefaultPolicy
	}
	p := Policy{Attempts: cfg.Attempts, Interval: cfg.Interval}
	if p.Attempts == 0 {
		p.Attempts = DefaultAttempts
	}
	return p
}

// Override carries per-call settings. Nil fields defer to the executor's policy.
type Override struct {
	Attempts *int
	Interval *time.Duration
}

// With builds an Override that sets both fields.
func With(attempts int, interval time.Duration) Override {
	return Override{Attempts: &attempts, Interval: &interval}
}

// Apply resolves the override against p.
func (o Override) Apply(p Policy) Policy {
	if o.Attempts != nil {
		p.Attempts = *o.Attempts
	}
	if o.Interval != nil {
		p.Interval = *o.Interval
	}
	return p
}

// Validate rejects policies that cannot run at least once.
func (p Policy) Validate() error {
	if p.Attempts < 1 {
		return fmt.Errorf("retry attempts must be at least 1, got %d", p.Attempts)
	}
	if p.Interval < 0 {
		return fmt.Errorf("retry interval must not be negative, got %s", p.Interval)
	}
	return nil
}

// Executor re-invokes failing operations according to a policy. The
// zero-configuration executor is built with New(DefaultPolicy, logger).
type Executor struct {
	policy Policy
	logger *zap.Logger
}

// New creates an executor whose policy applies wherever a call site gives no Override.
func New(policy Policy, logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{policy: policy, logger: logger.Named("retry")}
}

// Policy returns the executor's default policy.
func (e *Executor) Policy() Policy { return e.policy }

// Run invokes op until it succeeds or the attempts are used up. The last
// failure is returned as is; it is never wrapped. If ctx ends while waiting
// between attempts, ctx.Err() is returned.
func (e *Executor) Run(ctx context.Context, ov Override, op func(ctx context.Context) error) error {
	_, err := Call(ctx, e, ov, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	return err
}

// Call is Run for operations that produce a value. On success the value of
// the successful attempt is returned.
func Call[T any](ctx context.Context, e *Executor, ov Override, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	policy := ov.Apply(e.policy)
	if err := policy.Validate(); err != nil {
		return zero, err
	}
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(policy.Interval), uint64(policy.Attempts-1)),
		ctx,
	)

	attempt := 0
	operation := func() (T, error) {
		attempt++
		return op(ctx)
	}
	notify := func(err error, wait time.Duration) {
		e.logger.Warn("Attempt failed, retrying.",
			zap.Int("attempt", attempt),
			zap.Int("attempts", policy.Attempts),
			zap.Duration("wait", wait),
			zap.Error(err))
	}

	res, err := backoff.RetryNotifyWithData[T](operation, b, notify)
	if err != nil {
		e.logger.Debug("Operation failed after final attempt.",
			zap.Int("attempt", attempt),
			zap.Int("attempts", policy.Attempts),
			zap.Error(err))
		return res, err
	}
	return res, nil
}
