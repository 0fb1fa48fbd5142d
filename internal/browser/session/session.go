// internal/browser/session/session.go
// Package session implements the UI driver over the Chrome DevTools Protocol
// with chromedp. One Session owns one browser process and one tab; callers
// that need parallelism open several sessions.
package session

import (
	"context"
	"errors"
	"fmt"
	goruntime "runtime"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/steadyhand/api/schemas"
	"github.com/xkilldash9x/steadyhand/internal/browser/scripts"
	"github.com/xkilldash9x/steadyhand/internal/config"
)

const (
	defaultActionTimeout     = 10 * time.Second
	defaultNavigationTimeout = 90 * time.Second
)

// Session is a chromedp-backed schemas.Driver.
type Session struct {
	id     string
	logger *zap.Logger
	cfg    config.BrowserConfig

	ctx         context.Context // tab context, carries the CDP target
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	closeOnce   sync.Once
}

var _ schemas.Driver = (*Session)(nil)

// AllocatorOptions builds the exec allocator flags from the browser configuration.
func AllocatorOptions(cfg config.BrowserConfig) []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts,
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-gpu", cfg.Headless),
	)
	if w, h := cfg.Viewport["width"], cfg.Viewport["height"]; w > 0 && h > 0 {
		opts = append(opts, chromedp.WindowSize(w, h))
	}

	// Custom args from config: "--name=value" or "--name".
	for _, arg := range cfg.Args {
		parts := strings.SplitN(arg, "=", 2)
		name := strings.TrimPrefix(parts[0], "--")
		if len(parts) == 2 {
			opts = append(opts, chromedp.Flag(name, parts[1]))
		} else {
			opts = append(opts, chromedp.Flag(name, true))
		}
	}

	if goruntime.GOOS == "linux" {
		opts = append(opts,
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
		)
	}
	return opts
}

// New launches a browser and opens a blank tab. The session outlives ctx;
// release it with Close.
func New(ctx context.Context, cfg config.BrowserConfig, logger *zap.Logger) (*Session, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	id := uuid.New().String()
	s := &Session{
		id:     id,
		logger: logger.Named("session").With(zap.String("session_id", id)),
		cfg:    cfg,
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.WithoutCancel(ctx), AllocatorOptions(cfg)...)
	sugar := s.logger.Sugar()
	tabCtx, cancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(sugar.Debugf),
		chromedp.WithErrorf(sugar.Errorf),
	)
	s.ctx, s.cancel, s.allocCancel = tabCtx, cancel, allocCancel

	// The first Run starts the browser. It must use the tab context itself,
	// never a derived one, or the browser dies with the derived context.
	started := make(chan error, 1)
	go func() { started <- chromedp.Run(tabCtx) }()
	select {
	case err := <-started:
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("failed to start browser: %w", err)
		}
	case <-ctx.Done():
		s.Close()
		<-started
		return nil, fmt.Errorf("browser start canceled: %w", ctx.Err())
	}

	s.logger.Info("Browser session started.", zap.Bool("headless", cfg.Headless))
	return s, nil
}

// ID returns the session id used in logs and element refs.
func (s *Session) ID() string { return s.id }

// Navigate loads url and waits for the document body.
func (s *Session) Navigate(ctx context.Context, url string) error {
	s.logger.Info("Navigating session.", zap.String("url", url))
	timeout := s.cfg.NavigationTimeout
	if timeout <= 0 {
		timeout = defaultNavigationTimeout
	}
	if err := s.run(ctx, timeout, chromedp.Navigate(url), chromedp.WaitReady("body", chromedp.ByQuery)); err != nil {
		return fmt.Errorf("navigation to %s failed: %w", url, err)
	}
	return nil
}

// Close shuts the tab and the browser down. It is safe to call more than once.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		if cerr := chromedp.Cancel(s.ctx); cerr != nil && !errors.Is(cerr, context.Canceled) {
			err = fmt.Errorf("failed to close browser: %w", cerr)
		}
		s.cancel()
		s.allocCancel()
		s.logger.Debug("Browser session closed.")
	})
	return err
}

// RunActions runs chromedp actions bounded by ctx and the configured action timeout.
func (s *Session) RunActions(ctx context.Context, actions ...chromedp.Action) error {
	timeout := s.cfg.ActionTimeout
	if timeout <= 0 {
		timeout = defaultActionTimeout
	}
	return s.run(ctx, timeout, actions...)
}

func (s *Session) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	if err := s.ctx.Err(); err != nil {
		return fmt.Errorf("session closed: %w", err)
	}
	opCtx, opCancel := context.WithTimeout(ctx, timeout)
	defer opCancel()
	combined, cancel := CombineContext(s.ctx, opCtx)
	defer cancel()

	err := chromedp.Run(combined, actions...)
	if err == nil {
		return nil
	}
	switch {
	case ctx.Err() != nil:
		return ctx.Err()
	case s.ctx.Err() != nil:
		return fmt.Errorf("session closed: %w", s.ctx.Err())
	case errors.Is(opCtx.Err(), context.DeadlineExceeded):
		return fmt.Errorf("browser action timed out after %s: %w", timeout, opCtx.Err())
	}
	return err
}

// evaluate calls an in-page function with args and stores its JSON result in out.
func (s *Session) evaluate(ctx context.Context, out *[]byte, fn string, args ...any) error {
	expr, err := scripts.Invocation(fn, args...)
	if err != nil {
		return err
	}
	err = s.RunActions(ctx, chromedp.Evaluate(expr, out, func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
		return p.WithAwaitPromise(true)
	}))
	var exc *runtime.ExceptionDetails
	if errors.As(err, &exc) {
		return fmt.Errorf("javascript error: %w", err)
	}
	return err
}
