// internal/browser/playwright/driver.go
// Package playwright implements the UI driver over playwright-go. It runs the
// same in-page scripts as the CDP session, so both bindings resolve and act
// on elements identically.
package playwright

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	pw "github.com/playwright-community/playwright-go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/steadyhand/api/schemas"
	"github.com/xkilldash9x/steadyhand/internal/browser/scripts"
	"github.com/xkilldash9x/steadyhand/internal/config"
)

const (
	installTimeout           = 5 * time.Minute
	defaultActionTimeout     = 10 * time.Second
	defaultNavigationTimeout = 90 * time.Second
)

// Driver is a playwright-backed schemas.Driver holding one Chromium page.
type Driver struct {
	id     string
	logger *zap.Logger
	cfg    config.BrowserConfig

	pw        *pw.Playwright
	browser   pw.Browser
	page      pw.Page
	closeOnce sync.Once
}

var _ schemas.Driver = (*Driver)(nil)

// LaunchOptions builds the Chromium launch options from the browser configuration.
func LaunchOptions(cfg config.BrowserConfig) pw.BrowserTypeLaunchOptions {
	args := []string{
		"--disable-gpu",
		"--no-sandbox",
		"--disable-dev-shm-usage",
	}
	return pw.BrowserTypeLaunchOptions{
		Headless: pw.Bool(cfg.Headless),
		Args:     append(args, cfg.Args...),
		Timeout:  pw.Float(60000),
	}
}

// Launch starts the playwright driver, a Chromium instance and one page.
func Launch(ctx context.Context, cfg config.BrowserConfig, logger *zap.Logger) (*Driver, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	id := uuid.New().String()
	d := &Driver{
		id:     id,
		logger: logger.Named("playwright").With(zap.String("session_id", id)),
		cfg:    cfg,
	}

	if cfg.InstallPlaywright {
		if err := d.ensureInstallation(ctx); err != nil {
			return nil, err
		}
	}

	started, err := await(ctx, func() (*Driver, error) {
		runner, err := pw.Run()
		if err != nil {
			return nil, fmt.Errorf("failed to start playwright driver: %w", err)
		}
		d.pw = runner

		browser, err := runner.Chromium.Launch(LaunchOptions(cfg))
		if err != nil {
			runner.Stop()
			return nil, fmt.Errorf("failed to launch browser instance: %w", err)
		}
		d.browser = browser

		var pageOpts pw.BrowserNewPageOptions
		if w, h := cfg.Viewport["width"], cfg.Viewport["height"]; w > 0 && h > 0 {
			pageOpts.Viewport = &pw.Size{Width: w, Height: h}
		}
		page, err := browser.NewPage(pageOpts)
		if err != nil {
			browser.Close()
			runner.Stop()
			return nil, fmt.Errorf("failed to open page: %w", err)
		}
		d.page = page
		page.SetDefaultTimeout(float64(d.actionTimeout().Milliseconds()))
		return d, nil
	})
	if err != nil {
		return nil, err
	}
	d.logger.Info("Playwright session started.", zap.String("browser_version", started.browser.Version()))
	return started, nil
}

func (d *Driver) ensureInstallation(ctx context.Context) error {
	d.logger.Info("Verifying Playwright browser installation...")
	installCtx, cancel := context.WithTimeout(ctx, installTimeout)
	defer cancel()
	_, err := await(installCtx, func() (struct{}, error) {
		if err := pw.Install(&pw.RunOptions{Browsers: []string{"chromium"}}); err != nil {
			return struct{}{}, fmt.Errorf("failed to install playwright browsers: %w", err)
		}
		return struct{}{}, nil
	})
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("timeout waiting for Playwright installation: %w", err)
	}
	return err
}

func (d *Driver) actionTimeout() time.Duration {
	if d.cfg.ActionTimeout > 0 {
		return d.cfg.ActionTimeout
	}
	return defaultActionTimeout
}

// ID returns the session id used in logs and element refs.
func (d *Driver) ID() string { return d.id }

// Navigate loads url and waits for the load event.
func (d *Driver) Navigate(ctx context.Context, url string) error {
	timeout := d.cfg.NavigationTimeout
	if timeout <= 0 {
		timeout = defaultNavigationTimeout
	}
	d.logger.Info("Navigating session.", zap.String("url", url))
	_, err := await(ctx, func() (pw.Response, error) {
		return d.page.Goto(url, pw.PageGotoOptions{
			Timeout:   pw.Float(float64(timeout.Milliseconds())),
			WaitUntil: pw.WaitUntilStateLoad,
		})
	})
	if err != nil {
		return fmt.Errorf("navigation to %s failed: %w", url, err)
	}
	return nil
}

// Close releases the page, the browser and the playwright driver.
func (d *Driver) Close() error {
	var errs []error
	d.closeOnce.Do(func() {
		if d.page != nil {
			errs = append(errs, d.page.Close())
		}
		if d.browser != nil {
			errs = append(errs, d.browser.Close())
		}
		if d.pw != nil {
			errs = append(errs, d.pw.Stop())
		}
		d.logger.Debug("Playwright session closed.")
	})
	return errors.Join(errs...)
}

// await runs a blocking playwright call and gives up waiting when ctx ends.
// The call itself is bounded by the page's default timeout.
func await[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	type result struct {
		v   T
		err error
	}
	done := make(chan result, 1)
	go func() {
		v, err := fn()
		done <- result{v, err}
	}()
	select {
	case r := <-done:
		return r.v, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// evaluate calls an in-page function with args and returns its JSON result.
func (d *Driver) evaluate(ctx context.Context, fn string, args ...any) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	expr, err := scripts.Invocation(fn, args...)
	if err != nil {
		return nil, err
	}
	v, err := await(ctx, func() (any, error) { return d.page.Evaluate(expr) })
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		return nil, fmt.Errorf("javascript error: %w", err)
	}
	raw, err := jsoniter.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode script result: %w", err)
	}
	return raw, nil
}

// Query stamps the current matches of desc with refs and returns handles on them.
func (d *Driver) Query(ctx context.Context, desc schemas.Descriptor) ([]schemas.Element, error) {
	raw, err := d.evaluate(ctx, scripts.Query, scripts.Chain(desc), scripts.RefAttribute, d.id)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", desc, err)
	}
	var refs []string
	if err := jsoniter.Unmarshal(raw, &refs); err != nil {
		return nil, fmt.Errorf("failed to decode query result: %w", err)
	}
	elements := make([]schemas.Element, len(refs))
	for i, ref := range refs {
		elements[i] = &Element{d: d, ref: ref}
	}
	return elements, nil
}

// ActiveElement returns the focused element, or body.
func (d *Driver) ActiveElement(ctx context.Context) (schemas.Element, error) {
	raw, err := d.evaluate(ctx, scripts.ActiveElement, scripts.RefAttribute, d.id)
	if err != nil {
		return nil, fmt.Errorf("reading active element: %w", err)
	}
	var ref string
	if err := jsoniter.Unmarshal(raw, &ref); err != nil {
		return nil, fmt.Errorf("failed to decode active element: %w", err)
	}
	return &Element{d: d, ref: ref}, nil
}

// SendKeys presses the keys on the page keyboard; modifiers are held down for
// the whole sequence.
func (d *Driver) SendKeys(ctx context.Context, keys ...schemas.Key) error {
	_, err := await(ctx, func() (struct{}, error) {
		return struct{}{}, sendChord(d.page.Keyboard(), keys)
	})
	if err != nil {
		return fmt.Errorf("failed to dispatch keys: %w", err)
	}
	return nil
}

// RunInPageScript runs one of the named in-page programs.
func (d *Driver) RunInPageScript(ctx context.Context, script schemas.Script, args ...any) (json.RawMessage, error) {
	src, err := scripts.Lookup(script)
	if err != nil {
		return nil, fmt.Errorf("javascript error: %w", err)
	}
	return d.evaluate(ctx, src, args...)
}

// keyboard is the part of pw.Keyboard SendKeys uses.
type keyboard interface {
	Down(key string) error
	Up(key string) error
	Press(key string, options ...pw.KeyboardPressOptions) error
}

func sendChord(kb keyboard, keys []schemas.Key) error {
	var held []schemas.Key
	release := func() error {
		var errs []error
		for i := len(held) - 1; i >= 0; i-- {
			errs = append(errs, kb.Up(string(held[i])))
		}
		return errors.Join(errs...)
	}
	for _, k := range keys {
		if k.IsModifier() {
			if err := kb.Down(string(k)); err != nil {
				return errors.Join(err, release())
			}
			held = append(held, k)
			continue
		}
		if err := kb.Press(string(k)); err != nil {
			return errors.Join(err, release())
		}
	}
	return release()
}
