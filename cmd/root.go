// cmd/root.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/steadyhand/internal/config"
	"github.com/xkilldash9x/steadyhand/internal/observability"
)

type contextKey string

const configKey contextKey = "config"

type rootOptions struct {
	cfgFile  string
	envFile  string
	driver   string
	headless bool
}

// newRootCmd builds the command tree. Every invocation gets a fresh tree, so
// flag state never leaks between runs.
func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "steadyhand",
		Short:         "steadyhand drives browser UIs that do not hold still.",
		Long:          "steadyhand resolves UI elements by descriptor, waits until they are ready and retries flaky interaction steps with a bounded policy.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if err := loadDotEnv(opts.envFile); err != nil {
			return err
		}

		v := viper.New()
		config.SetDefaults(v)
		if err := initializeConfig(v, opts.cfgFile); err != nil {
			return fmt.Errorf("failed to initialize configuration: %w", err)
		}
		if f := root.PersistentFlags().Lookup("driver"); f.Changed {
			v.Set("browser.driver", opts.driver)
		}
		if f := root.PersistentFlags().Lookup("headless"); f.Changed {
			v.Set("browser.headless", opts.headless)
		}

		cfg, err := config.NewConfigFromViper(v)
		if err != nil {
			return fmt.Errorf("failed to load or validate config: %w", err)
		}
		if cfg.LoggerCfg.LogFile != "" {
			if cfg.LoggerCfg.LogFile, err = homedir.Expand(cfg.LoggerCfg.LogFile); err != nil {
				return fmt.Errorf("invalid log file path: %w", err)
			}
		}

		observability.InitializeLogger(cfg.Logger())
		observability.GetLogger().Debug("Starting steadyhand.", zap.String("version", Version), zap.String("command", cmd.Name()))

		cmd.SetContext(context.WithValue(cmd.Context(), configKey, cfg))
		return nil
	}

	root.PersistentFlags().StringVarP(&opts.cfgFile, "config", "c", "", "config file (default is ./config.yaml, then ~/.steadyhand/config.yaml)")
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", "", "dotenv file with STEADYHAND_* overrides (default is ./.env)")
	root.PersistentFlags().StringVar(&opts.driver, "driver", "", "UI driver: chromedp, playwright or memory")
	root.PersistentFlags().BoolVar(&opts.headless, "headless", true, "run the browser without a window")
	root.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	root.AddCommand(newProbeCmd())
	root.AddCommand(newActCmd())
	root.AddCommand(newDateCmd())
	root.AddCommand(newConfigCmd())
	root.AddCommand(newVersionCmd())
	return root
}

// Execute runs the CLI with args from the command line.
func Execute(ctx context.Context) error {
	root := newRootCmd()
	err := root.ExecuteContext(ctx)
	if err != nil {
		observability.GetLogger().Error("Command execution failed.", zap.Error(err))
	}
	observability.Sync()
	return err
}

// loadDotEnv loads a dotenv file into the process environment without
// overriding variables that are already set. A missing default file is fine.
func loadDotEnv(path string) error {
	explicit := path != ""
	if !explicit {
		path = ".env"
	}
	expanded, err := homedir.Expand(path)
	if err != nil {
		return fmt.Errorf("invalid env file path: %w", err)
	}
	if err := godotenv.Load(expanded); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load env file %s: %w", expanded, err)
	}
	return nil
}

// initializeConfig points v at the config file and the STEADYHAND_ environment.
func initializeConfig(v *viper.Viper, cfgFile string) error {
	if cfgFile != "" {
		path, err := homedir.Expand(cfgFile)
		if err != nil {
			return fmt.Errorf("invalid config path: %w", err)
		}
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		if home, err := homedir.Dir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".steadyhand"))
		}
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(config.EnvPrefix)
	v.SetEnvKeyReplacer(config.EnvKeyReplacer())
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}
	return nil
}

func configFromContext(ctx context.Context) (*config.Config, error) {
	cfg, ok := ctx.Value(configKey).(*config.Config)
	if !ok || cfg == nil {
		return nil, fmt.Errorf("configuration not initialized")
	}
	return cfg, nil
}
