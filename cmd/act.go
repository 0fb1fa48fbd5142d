// cmd/act.go
package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/steadyhand/api/schemas"
	"github.com/xkilldash9x/steadyhand/internal/browser/locator"
	"github.com/xkilldash9x/steadyhand/internal/config"
	"github.com/xkilldash9x/steadyhand/internal/interaction"
	"github.com/xkilldash9x/steadyhand/internal/observability"
	"github.com/xkilldash9x/steadyhand/internal/retry"
)

var actions = []string{"click", "click-list-item", "fill", "clear", "clear-fill", "search", "reset-search", "select"}

type actOptions struct {
	target        target
	selector      string
	text          string
	kind          string
	value         string
	index         int
	timeout       time.Duration
	verify        bool
	retryAttempts int
	retryInterval time.Duration
}

// actResult is printed after the action when the target is a fixture file.
type actResult struct {
	Action   string `json:"action" yaml:"action"`
	Selector string `json:"selector" yaml:"selector"`
	Value    string `json:"value" yaml:"value"`
}

func newActCmd() *cobra.Command {
	opts := &actOptions{}
	cmd := &cobra.Command{
		Use:       "act <" + strings.Join(actions, "|") + ">",
		Short:     "Run one interaction primitive, with retries",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: actions,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFromContext(cmd.Context())
			if err != nil {
				return err
			}
			if err := opts.target.validate(); err != nil {
				return err
			}
			kind, err := schemas.ParseControlKind(opts.kind)
			if err != nil {
				return err
			}
			desc := schemas.Descriptor{Selector: opts.selector, Text: opts.text, Kind: kind}
			value := schemas.Absent
			if cmd.Flags().Changed("value") {
				value = schemas.Text(opts.value)
			}
			call := &interaction.Options{Index: opts.index, Timeout: opts.timeout}
			if cmd.Flags().Changed("retry-attempts") {
				call.Retry.Attempts = &opts.retryAttempts
			}
			if cmd.Flags().Changed("retry-interval") {
				call.Retry.Interval = &opts.retryInterval
			}
			if err := call.Retry.Apply(retry.PolicyFromConfig(cfg.Retry())).Validate(); err != nil {
				return err
			}
			return runAct(cmd, cfg, args[0], desc, value, call, opts)
		},
	}
	addTargetFlags(cmd, &opts.target)
	cmd.Flags().StringVarP(&opts.selector, "selector", "s", "", "CSS selector of the control")
	cmd.Flags().StringVar(&opts.text, "text", "", "exact normalized text the control must have")
	cmd.Flags().StringVar(&opts.kind, "kind", "", "control kind: plain, multiline, tokenizer, select-single, select-multi")
	cmd.Flags().StringVar(&opts.value, "value", "", "value to fill, search or select")
	cmd.Flags().IntVar(&opts.index, "index", 0, "which match to act on, in document order")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "element resolution timeout (default from config)")
	cmd.Flags().BoolVar(&opts.verify, "verify", true, "read the value back after clear-fill")
	cmd.Flags().IntVar(&opts.retryAttempts, "retry-attempts", 0, "attempts for the whole action (default from config)")
	cmd.Flags().DurationVar(&opts.retryInterval, "retry-interval", 0, "pause between attempts (default from config)")
	_ = cmd.MarkFlagRequired("selector")
	return cmd
}

func runAct(cmd *cobra.Command, cfg *config.Config, action string, desc schemas.Descriptor, value schemas.Value, call *interaction.Options, opts *actOptions) error {
	ctx := cmd.Context()
	logger := observability.GetLogger().Named("act")
	sess, err := openSession(ctx, cfg, opts.target, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			logger.Warn("Failed to close session.", zap.Error(cerr))
		}
	}()

	i := interaction.NewFromConfig(sess, cfg, logger)
	logger.Info("Running action.", zap.String("action", action), zap.Stringer("descriptor", desc))
	if err := dispatch(ctx, i, action, desc, value, call, opts.verify); err != nil {
		return fmt.Errorf("%s failed: %w", action, err)
	}

	if opts.target.File == "" {
		_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s ok\n", action)
		return err
	}
	v, err := valueOf(ctx, sess, desc, opts.index)
	if err != nil {
		return err
	}
	return writeReport(cmd.OutOrStdout(), "json", actResult{Action: action, Selector: desc.Selector, Value: v})
}

func dispatch(ctx context.Context, i *interaction.Interactor, action string, desc schemas.Descriptor, value schemas.Value, call *interaction.Options, verify bool) error {
	switch action {
	case "click":
		return i.ClickAndRetry(ctx, desc, call)
	case "click-list-item":
		return i.Executor().Run(ctx, call.Retry, func(ctx context.Context) error {
			return i.ClickListItem(ctx, desc, call)
		})
	case "fill":
		return i.FillAndRetry(ctx, desc, value, call)
	case "clear":
		return i.ClearAndRetry(ctx, &desc, call)
	case "clear-fill":
		return i.ClearFillAndRetry(ctx, &desc, value, verify, call)
	case "search":
		return i.SearchFor(ctx, desc, value, true, call)
	case "reset-search":
		return i.ResetSearch(ctx, desc, call)
	case "select":
		return i.Executor().Run(ctx, call.Retry, func(ctx context.Context) error {
			return i.SelectComboBox(ctx, desc, value, call)
		})
	}
	return fmt.Errorf("unknown action %q", action)
}

// valueOf reads the control's value after the action: its own value for an
// input or textarea, else that of its first input.
func valueOf(ctx context.Context, driver schemas.Driver, desc schemas.Descriptor, index int) (string, error) {
	matches, err := driver.Query(ctx, desc)
	if err != nil {
		return "", err
	}
	if index >= len(matches) {
		return "", fmt.Errorf("%s no longer matches at index %d", desc, index)
	}
	el := matches[index]
	tag, err := el.TagName(ctx)
	if err != nil {
		return "", err
	}
	if tag != "input" && tag != "textarea" {
		inner, err := locator.Descendants(ctx, driver, desc, el, "input, textarea")
		if err != nil {
			return "", err
		}
		if len(inner) > 0 {
			el = inner[0]
		}
	}
	return el.GetValue(ctx)
}
