// File: internal/config/config.go
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Interface defines the contract for accessing application configuration.
// This allows for dependency injection and mocking in tests.
type Interface interface {
	Logger() LoggerConfig
	Database() DatabaseConfig
	Cache() CacheConfig
	LLM() LLMConfig
	Browser() BrowserConfig
	Runner() RunnerConfig
	Server() ServerConfig
	Vault() VaultConfig

	// Setters for values that CLI flags override.
	SetServerAddr(addr string)
	SetCacheEnabled(b bool)
	SetBrowserHeadless(b bool)
}

// Config holds the entire application configuration.
// Sections are exported for viper but read through the Interface getters.
type Config struct {
	LoggerCfg   LoggerConfig   `mapstructure:"logger" yaml:"logger"`
	DatabaseCfg DatabaseConfig `mapstructure:"database" yaml:"database"`
	CacheCfg    CacheConfig    `mapstructure:"cache" yaml:"cache"`
	LLMCfg      LLMConfig      `mapstructure:"llm" yaml:"llm"`
	BrowserCfg  BrowserConfig  `mapstructure:"browser" yaml:"browser"`
	RunnerCfg   RunnerConfig   `mapstructure:"runner" yaml:"runner"`
	ServerCfg   ServerConfig   `mapstructure:"server" yaml:"server"`
	VaultCfg    VaultConfig    `mapstructure:"vault" yaml:"vault"`
}

// -- Interface Method Implementations (Getters) --

func (c *Config) Logger() LoggerConfig     { return c.LoggerCfg }
func (c *Config) Database() DatabaseConfig { return c.DatabaseCfg }
func (c *Config) Cache() CacheConfig       { return c.CacheCfg }
func (c *Config) LLM() LLMConfig           { return c.LLMCfg }
func (c *Config) Browser() BrowserConfig   { return c.BrowserCfg }
func (c *Config) Runner() RunnerConfig     { return c.RunnerCfg }
func (c *Config) Server() ServerConfig     { return c.ServerCfg }
func (c *Config) Vault() VaultConfig       { return c.VaultCfg }

// -- Interface Method Implementations (Setters) --

func (c *Config) SetServerAddr(addr string) { c.ServerCfg.Addr = addr }
func (c *Config) SetCacheEnabled(b bool)    { c.CacheCfg.Enabled = b }
func (c *Config) SetBrowserHeadless(b bool) { c.BrowserCfg.Headless = b }

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

// DatabaseConfig holds the database connection details.
type DatabaseConfig struct {
	URL      string `mapstructure:"url" yaml:"url"`
	MaxConns int32  `mapstructure:"max_conns" yaml:"max_conns"`
}

// CacheConfig controls the script cache. The entry lifetime is fixed and is
// not configurable; only the retry policy around the backend is.
type CacheConfig struct {
	Enabled     bool          `mapstructure:"enabled" yaml:"enabled"`
	Backend     string        `mapstructure:"backend" yaml:"backend"` // "postgres" or "memory"
	Attempts    int           `mapstructure:"attempts" yaml:"attempts"`
	BackoffStep time.Duration `mapstructure:"backoff_step" yaml:"backoff_step"`
}

// LLMProvider defines the supported LLM providers.
type LLMProvider string

const (
	ProviderGemini LLMProvider = "gemini"
	ProviderOpenAI LLMProvider = "openai"
)

// LLMConfig configures the optional model-assisted generation tier.
// The tier is disabled when APIKey is empty.
type LLMConfig struct {
	Provider          LLMProvider   `mapstructure:"provider" yaml:"provider"`
	Model             string        `mapstructure:"model" yaml:"model"`
	APIKey            string        `mapstructure:"api_key" yaml:"-"`
	Endpoint          string        `mapstructure:"endpoint" yaml:"endpoint"`
	APITimeout        time.Duration `mapstructure:"api_timeout" yaml:"api_timeout"`
	Temperature       float32       `mapstructure:"temperature" yaml:"temperature"`
	MaxTokens         int           `mapstructure:"max_tokens" yaml:"max_tokens"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute" yaml:"requests_per_minute"`
}

// BrowserConfig holds settings for the headless browser used to capture pages.
type BrowserConfig struct {
	Headless          bool          `mapstructure:"headless" yaml:"headless"`
	DisableGPU        bool          `mapstructure:"disable_gpu" yaml:"disable_gpu"`
	Args              []string      `mapstructure:"args" yaml:"args"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	PostLoadWait      time.Duration `mapstructure:"post_load_wait" yaml:"post_load_wait"`
	// Persona overrides; empty values keep Chrome's own.
	UserAgent string   `mapstructure:"user_agent" yaml:"user_agent"`
	Languages []string `mapstructure:"languages" yaml:"languages"`
	Timezone  string   `mapstructure:"timezone" yaml:"timezone"`
}

// RunnerConfig configures the external script execution engine (TagUI).
type RunnerConfig struct {
	TagUIPath string        `mapstructure:"tagui_path" yaml:"tagui_path"`
	Browser   string        `mapstructure:"browser" yaml:"browser"`
	WorkDir   string        `mapstructure:"work_dir" yaml:"work_dir"`
	Timeout   time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// ServerConfig configures the HTTP boundary.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr" yaml:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes" yaml:"max_body_bytes"`
}

// VaultConfig configures the Bitwarden CLI used to fill missing login
// credentials. Session is an unlocked session token and is never written out.
type VaultConfig struct {
	Enabled bool          `mapstructure:"enabled" yaml:"enabled"`
	Binary  string        `mapstructure:"binary" yaml:"binary"`
	Session string        `mapstructure:"session" yaml:"-"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// NewDefaultConfig creates a new configuration struct populated with default values.
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
	v.SetDefault("logger.service_name", "formscript")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")

	// -- Database --
	v.SetDefault("database.max_conns", 10)

	// -- Cache --
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.backend", "postgres")
	v.SetDefault("cache.attempts", 3)
	v.SetDefault("cache.backoff_step", "100ms")

	// -- LLM --
	v.SetDefault("llm.provider", string(ProviderGemini))
	v.SetDefault("llm.model", "gemini-2.5-flash")
	v.SetDefault("llm.api_timeout", "60s")
	v.SetDefault("llm.temperature", 0.1)
	v.SetDefault("llm.max_tokens", 1000)
	v.SetDefault("llm.requests_per_minute", 30)

	// -- Browser --
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.disable_gpu", true)
	v.SetDefault("browser.navigation_timeout", "45s")
	v.SetDefault("browser.post_load_wait", "1s")
	v.SetDefault("browser.user_agent", "")
	v.SetDefault("browser.languages", []string{})
	v.SetDefault("browser.timezone", "")

	// -- Runner --
	v.SetDefault("runner.tagui_path", "tagui")
	v.SetDefault("runner.browser", "chrome")
	v.SetDefault("runner.timeout", "10m")

	// -- Server --
	v.SetDefault("server.addr", "127.0.0.1:4000")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.max_body_bytes", 10<<20)

	// -- Vault --
	v.SetDefault("vault.enabled", false)
	v.SetDefault("vault.binary", "bw")
	v.SetDefault("vault.timeout", "30s")
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config

	// Bind environment variables for sensitive data.
	_ = v.BindEnv("database.url", "FORMSCRIPT_DATABASE_URL", "DATABASE_URL")
	_ = v.BindEnv("llm.api_key", "FORMSCRIPT_LLM_API_KEY")
	_ = v.BindEnv("vault.session", "FORMSCRIPT_VAULT_SESSION", "BW_SESSION")

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Provider specific keys are accepted as a fallback.
	if cfg.LLMCfg.APIKey == "" {
		switch cfg.LLMCfg.Provider {
		case ProviderGemini:
			cfg.LLMCfg.APIKey = os.Getenv("GEMINI_API_KEY")
		case ProviderOpenAI:
			cfg.LLMCfg.APIKey = os.Getenv("OPENAI_API_KEY")
		}
	}

	if cfg.RunnerCfg.WorkDir != "" {
		dir, err := homedir.Expand(cfg.RunnerCfg.WorkDir)
		if err != nil {
			return nil, fmt.Errorf("invalid runner.work_dir: %w", err)
		}
		cfg.RunnerCfg.WorkDir = dir
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if err := c.CacheCfg.Validate(); err != nil {
		return fmt.Errorf("cache configuration invalid: %w", err)
	}
	if err := c.LLMCfg.Validate(); err != nil {
		return fmt.Errorf("llm configuration invalid: %w", err)
	}
	if c.ServerCfg.Addr == "" {
		return fmt.Errorf("server.addr is a required configuration field")
	}
	return nil
}

// Validate checks the cache configuration.
func (c *CacheConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	switch c.Backend {
	case "postgres", "memory":
	default:
		return fmt.Errorf("backend must be one of [postgres memory], got %q", c.Backend)
	}
	if c.Attempts <= 0 {
		return fmt.Errorf("attempts must be a positive integer")
	}
	if c.BackoffStep < 0 {
		return fmt.Errorf("backoff_step must not be negative")
	}
	return nil
}

// Validate checks the LLM configuration. An empty API key is valid and
// simply disables the model-assisted tier.
func (l *LLMConfig) Validate() error {
	switch l.Provider {
	case ProviderGemini, ProviderOpenAI:
	default:
		return fmt.Errorf("unsupported provider %q", l.Provider)
	}
	if l.APIKey != "" && l.Model == "" {
		return fmt.Errorf("model is required when an api key is configured")
	}
	if l.RequestsPerMinute < 0 {
		return fmt.Errorf("requests_per_minute must not be negative")
	}
	return nil
}

// Enabled reports whether the model-assisted tier can be used.
func (l LLMConfig) Enabled() bool { return l.APIKey != "" }
