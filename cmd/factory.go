// cmd/factory.go
package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/steadyhand/api/schemas"
	"github.com/xkilldash9x/steadyhand/internal/browser/memdom"
	"github.com/xkilldash9x/steadyhand/internal/browser/playwright"
	"github.com/xkilldash9x/steadyhand/internal/browser/session"
	"github.com/xkilldash9x/steadyhand/internal/config"
)

// driverSession is a driver the CLI opened and has to close.
type driverSession interface {
	schemas.Driver
	Close() error
}

// target is where a session points: a live URL or a local HTML fixture.
type target struct {
	URL  string
	File string
}

func addTargetFlags(cmd *cobra.Command, t *target) {
	cmd.Flags().StringVar(&t.URL, "url", "", "page to open in the browser driver")
	cmd.Flags().StringVar(&t.File, "file", "", "HTML file to load into the in-memory driver")
}

func (t target) validate() error {
	switch {
	case t.URL == "" && t.File == "":
		return errors.New("one of --url or --file is required")
	case t.URL != "" && t.File != "":
		return errors.New("--url and --file are mutually exclusive")
	}
	return nil
}

// openSession opens one independent driver session on t. Tests replace it.
var openSession = openDriver

func openDriver(ctx context.Context, cfg *config.Config, t target, logger *zap.Logger) (driverSession, error) {
	if t.File != "" {
		path, err := homedir.Expand(t.File)
		if err != nil {
			return nil, fmt.Errorf("invalid fixture path: %w", err)
		}
		doc, err := memdom.Open(path, logger)
		if err != nil {
			return nil, err
		}
		return memorySession{doc}, nil
	}

	switch cfg.Browser().Driver {
	case config.DriverChromedp:
		s, err := session.New(ctx, cfg.Browser(), logger)
		if err != nil {
			return nil, err
		}
		if err := s.Navigate(ctx, t.URL); err != nil {
			return nil, errors.Join(err, s.Close())
		}
		return s, nil
	case config.DriverPlaywright:
		d, err := playwright.Launch(ctx, cfg.Browser(), logger)
		if err != nil {
			return nil, err
		}
		if err := d.Navigate(ctx, t.URL); err != nil {
			return nil, errors.Join(err, d.Close())
		}
		return d, nil
	case config.DriverMemory:
		return nil, errors.New("the memory driver loads fixtures only, use --file")
	default:
		return nil, fmt.Errorf("unknown driver %q", cfg.Browser().Driver)
	}
}

type memorySession struct {
	*memdom.Document
}

func (memorySession) Close() error { return nil }
