// internal/interaction/interactor.go
package interaction

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/steadyhand/api/schemas"
	"github.com/xkilldash9x/steadyhand/internal/browser/locator"
	"github.com/xkilldash9x/steadyhand/internal/config"
	"github.com/xkilldash9x/steadyhand/internal/retry"
)

const (
	// DefaultTimeout bounds element resolution when the caller gives none.
	DefaultTimeout = 30 * time.Second
	// SelectArrowTimeout bounds resolution of a select control's arrow affordance.
	SelectArrowTimeout = 3 * time.Second
)

// Options are the per-call knobs shared by every primitive. A nil *Options
// means index 0, the configured default timeout and the executor's policy.
type Options struct {
	Index   int
	Timeout time.Duration
	Retry   retry.Override
}

// Interactor runs the interaction primitives against one driver session.
// Each primitive is a sequential resolve, act, verify chain; the *AndRetry
// variants re-run the whole chain under the retry executor.
type Interactor struct {
	driver   schemas.Driver
	resolver *locator.Resolver
	executor *retry.Executor
	logger   *zap.Logger
	cfg      config.InteractionConfig
}

// New wires an Interactor from its collaborators. Zero-valued settings in cfg
// fall back to the built-in defaults.
func New(driver schemas.Driver, resolver *locator.Resolver, executor *retry.Executor, cfg config.InteractionConfig, logger *zap.Logger) *Interactor {
	if logger == nil {
		logger = zap.NewNop()
	}
	defaults := config.NewDefaultConfig().Interaction()
	if cfg.DefaultTimeout <= 0 {
		cfg.DefaultTimeout = defaults.DefaultTimeout
	}
	if cfg.TabSelectedClass == "" {
		cfg.TabSelectedClass = defaults.TabSelectedClass
	}
	if cfg.TokenSelector == "" {
		cfg.TokenSelector = defaults.TokenSelector
	}
	if cfg.Select == (config.SelectConfig{}) {
		cfg.Select = defaults.Select
	}
	if cfg.Suffixes == (config.SuffixesConfig{}) {
		cfg.Suffixes = defaults.Suffixes
	}
	return &Interactor{
		driver:   driver,
		resolver: resolver,
		executor: executor,
		logger:   logger.Named("interaction"),
		cfg:      cfg,
	}
}

// NewFromConfig builds the resolver and executor from the application
// configuration and returns an Interactor over driver.
func NewFromConfig(driver schemas.Driver, cfg config.Interface, logger *zap.Logger) *Interactor {
	if logger == nil {
		logger = zap.NewNop()
	}
	ic := cfg.Interaction()
	resolver := locator.New(driver, ic.PollInterval, logger)
	executor := retry.New(retry.PolicyFromConfig(cfg.Retry()), logger)
	return New(driver, resolver, executor, ic, logger)
}

// Executor exposes the retry executor so callers can wrap their own steps
// with the same policy.
func (i *Interactor) Executor() *retry.Executor { return i.executor }

func (i *Interactor) index(opts *Options) int {
	if opts == nil {
		return 0
	}
	return opts.Index
}

func (i *Interactor) timeout(opts *Options) time.Duration {
	if opts == nil || opts.Timeout <= 0 {
		return i.cfg.DefaultTimeout
	}
	return opts.Timeout
}

func (i *Interactor) override(opts *Options) retry.Override {
	if opts == nil {
		return retry.Override{}
	}
	return opts.Retry
}

func (i *Interactor) resolve(ctx context.Context, desc schemas.Descriptor, opts *Options, readiness schemas.Readiness) (schemas.Element, error) {
	return i.resolver.Resolve(ctx, desc, i.index(opts), i.timeout(opts), readiness)
}

// withTimeout keeps the caller's index and retry settings but replaces the
// resolution timeout.
func withTimeout(opts *Options, timeout time.Duration) *Options {
	o := Options{Timeout: timeout}
	if opts != nil {
		o.Index = opts.Index
		o.Retry = opts.Retry
	}
	return &o
}

// affordance builds the descriptor of a sibling element whose id is the
// control's id plus suffix.
func affordance(id, suffix string) schemas.Descriptor {
	return schemas.Descriptor{
		Selector:    fmt.Sprintf("[id='%s%s']", id, suffix),
		Description: suffix + " of " + id,
	}
}

// idOf reads the id attribute of el; ok is false when it has none.
func idOf(ctx context.Context, el schemas.Element) (string, bool, error) {
	id, ok, err := el.GetAttribute(ctx, "id")
	if err != nil {
		return "", false, err
	}
	return id, ok && id != "", nil
}

// controlID resolves desc and returns its id. The control must carry one
// for its affordances to be derivable.
func (i *Interactor) controlID(ctx context.Context, desc schemas.Descriptor, opts *Options, readiness schemas.Readiness) (string, error) {
	el, err := i.resolve(ctx, desc, opts, readiness)
	if err != nil {
		return "", err
	}
	id, ok, err := idOf(ctx, el)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("%s has no id to derive affordances from: %w", desc, schemas.ErrInvalidElementState)
	}
	return id, nil
}
