// File: internal/config/config_test.go
package config

import (
	"bytes"
	"runtime"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -- Constructor and Defaults Tests --

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, "info", cfg.Logger().Level)
	assert.Equal(t, "steadyhand", cfg.Logger().ServiceName)
	assert.Equal(t, DriverChromedp, cfg.Browser().Driver)
	assert.True(t, cfg.Browser().Headless)
	assert.Equal(t, 3, cfg.Retry().Attempts)
	assert.Equal(t, 5*time.Second, cfg.Retry().Interval)
	assert.Equal(t, 30*time.Second, cfg.Interaction().DefaultTimeout)
	assert.Equal(t, 100*time.Millisecond, cfg.Interaction().PollInterval)
	assert.Equal(t, "-arrow", cfg.Interaction().Suffixes.Arrow)
	assert.Equal(t, "-vhi", cfg.Interaction().Suffixes.ValueHelp)
	assert.NoError(t, cfg.Validate(), "defaults must always validate")
}

// -- Validation Logic Tests --

func TestConfigValidation(t *testing.T) {
	t.Run("Retry Validation", func(t *testing.T) {
		cfg := NewDefaultConfig()
		cfg.RetryCfg.Attempts = 0
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "retry.attempts must be at least 1")

		cfg = NewDefaultConfig()
		cfg.RetryCfg.Interval = -time.Second
		err = cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "retry.interval must not be negative")

		cfg = NewDefaultConfig()
		cfg.RetryCfg.Interval = 0
		assert.NoError(t, cfg.Validate(), "a zero interval retries immediately")
	})

	t.Run("Driver Validation", func(t *testing.T) {
		cfg := NewDefaultConfig()
		cfg.SetBrowserDriver("selenium")
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "browser.driver must be one of")

		cfg.SetBrowserDriver(DriverPlaywright)
		assert.NoError(t, cfg.Validate())
	})

	t.Run("Interaction Validation", func(t *testing.T) {
		cfg := NewDefaultConfig()
		cfg.InteractionCfg.PollInterval = 0
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "interaction.poll_interval must be positive")

		cfg = NewDefaultConfig()
		cfg.InteractionCfg.SelectAllModifier = "hyper"
		err = cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "select_all_modifier")
	})
}

func TestSelectAllUsesMeta(t *testing.T) {
	assert.True(t, InteractionConfig{SelectAllModifier: "Meta"}.SelectAllUsesMeta())
	assert.False(t, InteractionConfig{SelectAllModifier: "control"}.SelectAllUsesMeta())
	assert.Equal(t, runtime.GOOS == "darwin", InteractionConfig{}.SelectAllUsesMeta())
}

// -- Factory Function Tests --

func TestNewConfigFromViper(t *testing.T) {
	t.Run("Successful Load from YAML", func(t *testing.T) {
		yamlBytes := []byte(`
retry:
  attempts: 5
  interval: 250ms
browser:
  driver: playwright
interaction:
  suffixes:
    search: "-btnSearch"
`)
		v := viper.New()
		SetDefaults(v)
		v.SetConfigType("yaml")
		require.NoError(t, v.ReadConfig(bytes.NewBuffer(yamlBytes)))

		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)

		assert.Equal(t, 5, cfg.Retry().Attempts)
		assert.Equal(t, 250*time.Millisecond, cfg.Retry().Interval)
		assert.Equal(t, DriverPlaywright, cfg.Browser().Driver)
		assert.Equal(t, "-btnSearch", cfg.Interaction().Suffixes.Search)
		// Untouched keys keep their defaults.
		assert.Equal(t, "-reset", cfg.Interaction().Suffixes.Reset)
		assert.Equal(t, "info", cfg.Logger().Level)
	})

	t.Run("Validation Failure", func(t *testing.T) {
		v := viper.New()
		SetDefaults(v)
		v.Set("retry.attempts", 0)

		cfg, err := NewConfigFromViper(v)
		assert.Error(t, err)
		assert.Nil(t, cfg)
		assert.Contains(t, err.Error(), "invalid configuration")
		assert.Contains(t, err.Error(), "retry.attempts must be at least 1")
	})

	t.Run("Environment Variable Binding", func(t *testing.T) {
		t.Setenv("STEADYHAND_RETRY_ATTEMPTS", "7")
		v := viper.New()
		SetDefaults(v)
		v.SetEnvPrefix(EnvPrefix)
		v.SetEnvKeyReplacer(EnvKeyReplacer())
		v.AutomaticEnv()

		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)
		assert.Equal(t, 7, cfg.Retry().Attempts)
	})
}

func TestSetters(t *testing.T) {
	var iface Interface = NewDefaultConfig()
	iface.SetRetryAttempts(9)
	iface.SetRetryInterval(time.Second)
	iface.SetBrowserHeadless(false)
	assert.Equal(t, RetryConfig{Attempts: 9, Interval: time.Second}, iface.Retry())
	assert.False(t, iface.Browser().Headless)
}
