// cmd/probe.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/xkilldash9x/steadyhand/api/schemas"
	"github.com/xkilldash9x/steadyhand/internal/browser/locator"
	"github.com/xkilldash9x/steadyhand/internal/config"
	"github.com/xkilldash9x/steadyhand/internal/observability"
)

// probeResult reports how one selector resolved.
type probeResult struct {
	Selector  string `json:"selector" yaml:"selector"`
	Found     bool   `json:"found" yaml:"found"`
	Readiness string `json:"readiness" yaml:"readiness"`
	Tag       string `json:"tag,omitempty" yaml:"tag,omitempty"`
	ID        string `json:"id,omitempty" yaml:"id,omitempty"`
	Text      string `json:"text,omitempty" yaml:"text,omitempty"`
	Elapsed   string `json:"elapsed" yaml:"elapsed"`
	Error     string `json:"error,omitempty" yaml:"error,omitempty"`
}

type probeOptions struct {
	target    target
	selectors []string
	text      string
	index     int
	readiness string
	timeout   time.Duration
	output    string
}

func newProbeCmd() *cobra.Command {
	opts := &probeOptions{}
	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Resolve selectors against a page and report what was found",
		Long: `probe resolves each selector in its own driver session, concurrently, and
reports whether the element reached the requested readiness in time.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFromContext(cmd.Context())
			if err != nil {
				return err
			}
			results, err := runProbe(cmd.Context(), cfg, opts)
			if err != nil {
				return err
			}
			return writeReport(cmd.OutOrStdout(), opts.output, results)
		},
	}
	addTargetFlags(cmd, &opts.target)
	cmd.Flags().StringArrayVarP(&opts.selectors, "selector", "s", nil, "CSS selector to resolve (repeatable)")
	cmd.Flags().StringVar(&opts.text, "text", "", "exact normalized text the element must have")
	cmd.Flags().IntVar(&opts.index, "index", 0, "which match to take, in document order")
	cmd.Flags().StringVar(&opts.readiness, "readiness", "visible", "exists, visible or clickable")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "resolution timeout per selector")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "json", "report format: json or yaml")
	_ = cmd.MarkFlagRequired("selector")
	return cmd
}

func runProbe(ctx context.Context, cfg *config.Config, opts *probeOptions) ([]probeResult, error) {
	if err := opts.target.validate(); err != nil {
		return nil, err
	}
	readiness, err := schemas.ParseReadiness(opts.readiness)
	if err != nil {
		return nil, err
	}
	if opts.output != "json" && opts.output != "yaml" {
		return nil, fmt.Errorf("unknown output format %q, expected json or yaml", opts.output)
	}

	logger := observability.GetLogger().Named("probe")
	results := make([]probeResult, len(opts.selectors))
	g, gctx := errgroup.WithContext(ctx)
	for i, selector := range opts.selectors {
		g.Go(func() error {
			// A session that cannot be opened fails the whole probe; a selector
			// that does not resolve is reported.
			sess, err := openSession(gctx, cfg, opts.target, logger)
			if err != nil {
				return fmt.Errorf("opening session for %q: %w", selector, err)
			}
			defer func() {
				if cerr := sess.Close(); cerr != nil {
					logger.Warn("Failed to close session.", zap.Error(cerr))
				}
			}()
			desc := schemas.Descriptor{Selector: selector, Text: opts.text}
			results[i] = probeOne(gctx, sess, cfg, desc, opts.index, readiness, opts.timeout, logger)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func probeOne(ctx context.Context, driver schemas.Driver, cfg *config.Config, desc schemas.Descriptor, index int, readiness schemas.Readiness, timeout time.Duration, logger *zap.Logger) probeResult {
	res := probeResult{Selector: desc.Selector, Readiness: readiness.String()}
	start := time.Now()
	resolver := locator.New(driver, cfg.Interaction().PollInterval, logger)
	el, err := resolver.Resolve(ctx, desc, index, timeout, readiness)
	res.Elapsed = time.Since(start).Round(time.Millisecond).String()
	if err != nil {
		res.Error = err.Error()
		var timeoutErr *locator.TimeoutError
		res.Found = errors.As(err, &timeoutErr)
		return res
	}
	res.Found = true
	if res.Tag, err = el.TagName(ctx); err != nil {
		res.Error = err.Error()
		return res
	}
	if id, ok, err := el.GetAttribute(ctx, "id"); err == nil && ok {
		res.ID = id
	}
	if text, err := el.GetText(ctx); err == nil {
		res.Text = text
	}
	return res
}

func writeReport(w io.Writer, format string, v any) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to encode yaml report: %w", err)
		}
		return enc.Close()
	default:
		enc := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to encode json report: %w", err)
		}
		return nil
	}
}
