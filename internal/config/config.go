// File: internal/config/config.go
package config

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Interface defines the contract for accessing application configuration.
// This allows for dependency injection and mocking in tests.
type Interface interface {
	Logger() LoggerConfig
	Browser() BrowserConfig
	Retry() RetryConfig
	Interaction() InteractionConfig

	// Retry Setters
	SetRetryAttempts(int)
	SetRetryInterval(time.Duration)

	// Browser Setters
	SetBrowserDriver(string)
	SetBrowserHeadless(bool)
}

// Config holds the entire application configuration.
type Config struct {
	LoggerCfg      LoggerConfig      `mapstructure:"logger" yaml:"logger"`
	BrowserCfg     BrowserConfig     `mapstructure:"browser" yaml:"browser"`
	RetryCfg       RetryConfig       `mapstructure:"retry" yaml:"retry"`
	InteractionCfg InteractionConfig `mapstructure:"interaction" yaml:"interaction"`
}

// --- Interface Method Implementations (Getters) ---

func (c *Config) Logger() LoggerConfig           { return c.LoggerCfg }
func (c *Config) Browser() BrowserConfig         { return c.BrowserCfg }
func (c *Config) Retry() RetryConfig             { return c.RetryCfg }
func (c *Config) Interaction() InteractionConfig { return c.InteractionCfg }

// --- Interface Method Implementations (Setters) ---

func (c *Config) SetRetryAttempts(n int)           { c.RetryCfg.Attempts = n }
func (c *Config) SetRetryInterval(d time.Duration) { c.RetryCfg.Interval = d }
func (c *Config) SetBrowserDriver(name string)     { c.BrowserCfg.Driver = name }
func (c *Config) SetBrowserHeadless(headless bool) { c.BrowserCfg.Headless = headless }

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// Driver names accepted by browser.driver.
const (
	DriverChromedp   = "chromedp"
	DriverPlaywright = "playwright"
	DriverMemory     = "memory"
)

// BrowserConfig selects and tunes the UI driver binding.
type BrowserConfig struct {
	Driver            string         `mapstructure:"driver" yaml:"driver"`
	Headless          bool           `mapstructure:"headless" yaml:"headless"`
	Args              []string       `mapstructure:"args" yaml:"args"`
	Viewport          map[string]int `mapstructure:"viewport" yaml:"viewport"`
	NavigationTimeout time.Duration  `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	// ActionTimeout bounds a single driver round trip (one click, one read).
	ActionTimeout time.Duration `mapstructure:"action_timeout" yaml:"action_timeout"`
	// InstallPlaywright downloads the playwright browsers on first use.
	InstallPlaywright bool `mapstructure:"install_playwright" yaml:"install_playwright"`
}

// RetryConfig is the process-wide default retry policy.
type RetryConfig struct {
	Attempts int           `mapstructure:"attempts" yaml:"attempts"`
	Interval time.Duration `mapstructure:"interval" yaml:"interval"`
}

// InteractionConfig tunes element resolution and the control-specific protocols.
type InteractionConfig struct {
	DefaultTimeout time.Duration `mapstructure:"default_timeout" yaml:"default_timeout"`
	PollInterval   time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
	// TabSelectedClass is the class a tab carries once the application has selected it.
	TabSelectedClass string `mapstructure:"tab_selected_class" yaml:"tab_selected_class"`
	// SelectAllModifier is "control" or "meta"; empty picks by platform.
	SelectAllModifier string         `mapstructure:"select_all_modifier" yaml:"select_all_modifier"`
	TokenSelector     string         `mapstructure:"token_selector" yaml:"token_selector"`
	Select            SelectConfig   `mapstructure:"select" yaml:"select"`
	Suffixes          SuffixesConfig `mapstructure:"suffixes" yaml:"suffixes"`
}

// SelectConfig holds the selectors used to find options inside an opened popup.
type SelectConfig struct {
	ListItemSelector string `mapstructure:"list_item_selector" yaml:"list_item_selector"`
	CheckBoxSelector string `mapstructure:"checkbox_selector" yaml:"checkbox_selector"`
	BoxItemSelector  string `mapstructure:"box_item_selector" yaml:"box_item_selector"`
}

// SuffixesConfig holds the id suffixes of a control's sibling affordances.
type SuffixesConfig struct {
	Arrow     string `mapstructure:"arrow" yaml:"arrow"`
	Search    string `mapstructure:"search" yaml:"search"`
	Reset     string `mapstructure:"reset" yaml:"reset"`
	ValueHelp string `mapstructure:"value_help" yaml:"value_help"`
}

// NewDefaultConfig creates a new configuration populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// This should not happen with defaults, but good to be safe.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "steadyhand")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")

	// -- Browser --
	v.SetDefault("browser.driver", DriverChromedp)
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.args", []string{})
	v.SetDefault("browser.viewport", map[string]int{"width": 1920, "height": 1080})
	v.SetDefault("browser.navigation_timeout", "90s")
	v.SetDefault("browser.action_timeout", "10s")
	v.SetDefault("browser.install_playwright", false)

	// -- Retry --
	v.SetDefault("retry.attempts", 3)
	v.SetDefault("retry.interval", "5s")

	// -- Interaction --
	v.SetDefault("interaction.default_timeout", "30s")
	v.SetDefault("interaction.poll_interval", "100ms")
	v.SetDefault("interaction.tab_selected_class", "sapUxAPAnchorBarButtonSelected")
	v.SetDefault("interaction.select_all_modifier", "")
	v.SetDefault("interaction.token_selector", ".sapMToken, [data-token]")
	v.SetDefault("interaction.select.list_item_selector", ".sapMSLI, [role='option']")
	v.SetDefault("interaction.select.checkbox_selector", ".sapMCb, input[type='checkbox']")
	v.SetDefault("interaction.select.box_item_selector", ".sapMSelectListItem, [role='option']")
	v.SetDefault("interaction.suffixes.arrow", "-arrow")
	v.SetDefault("interaction.suffixes.search", "-search")
	v.SetDefault("interaction.suffixes.reset", "-reset")
	v.SetDefault("interaction.suffixes.value_help", "-vhi")
}

// NewConfigFromViper unmarshals the viper state into a Config and validates it.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for values the library cannot work with.
func (c *Config) Validate() error {
	if err := c.RetryCfg.Validate(); err != nil {
		return fmt.Errorf("retry configuration invalid: %w", err)
	}
	switch c.BrowserCfg.Driver {
	case DriverChromedp, DriverPlaywright, DriverMemory:
	default:
		return fmt.Errorf("browser.driver must be one of %q, %q, %q; got %q",
			DriverChromedp, DriverPlaywright, DriverMemory, c.BrowserCfg.Driver)
	}
	if err := c.InteractionCfg.Validate(); err != nil {
		return fmt.Errorf("interaction configuration invalid: %w", err)
	}
	return nil
}

// Validate checks the retry defaults.
func (r RetryConfig) Validate() error {
	if r.Attempts < 1 {
		return fmt.Errorf("retry.attempts must be at least 1")
	}
	if r.Interval < 0 {
		return fmt.Errorf("retry.interval must not be negative")
	}
	return nil
}

// Validate checks the interaction settings.
func (i InteractionConfig) Validate() error {
	if i.DefaultTimeout <= 0 {
		return fmt.Errorf("interaction.default_timeout must be positive")
	}
	if i.PollInterval <= 0 {
		return fmt.Errorf("interaction.poll_interval must be positive")
	}
	switch strings.ToLower(i.SelectAllModifier) {
	case "", "control", "meta":
	default:
		return fmt.Errorf("interaction.select_all_modifier must be \"control\" or \"meta\"")
	}
	return nil
}

// SelectAllUsesMeta reports whether the select-all chord uses the Meta key.
// With no explicit setting the platform decides: Meta on macOS, Control elsewhere.
func (i InteractionConfig) SelectAllUsesMeta() bool {
	switch strings.ToLower(i.SelectAllModifier) {
	case "meta":
		return true
	case "control":
		return false
	}
	return runtime.GOOS == "darwin"
}

// EnvPrefix is the prefix of environment variables that override config keys.
const EnvPrefix = "STEADYHAND"

// EnvKeyReplacer maps nested keys like retry.attempts to RETRY_ATTEMPTS.
func EnvKeyReplacer() *strings.Replacer {
	return strings.NewReplacer(".", "_", "-", "_")
}
