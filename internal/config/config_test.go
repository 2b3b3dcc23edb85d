// File: internal/config/config_test.go
package config

import (
	"bytes"
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
	assert.Equal(t, "formscript", cfg.Logger().ServiceName)
	assert.True(t, cfg.Cache().Enabled)
	assert.Equal(t, "postgres", cfg.Cache().Backend)
	assert.Equal(t, 3, cfg.Cache().Attempts)
	assert.Equal(t, 100*time.Millisecond, cfg.Cache().BackoffStep)
	assert.Equal(t, ProviderGemini, cfg.LLM().Provider)
	assert.False(t, cfg.LLM().Enabled(), "the model tier is off until a key is configured")
	assert.True(t, cfg.Browser().Headless)
	assert.Equal(t, "tagui", cfg.Runner().TagUIPath)
	assert.Equal(t, "127.0.0.1:4000", cfg.Server().Addr)
	assert.Empty(t, cfg.Browser().UserAgent)
	assert.Empty(t, cfg.Browser().Languages)
	assert.False(t, cfg.Vault().Enabled)
	assert.Equal(t, "bw", cfg.Vault().Binary)
	assert.Equal(t, 30*time.Second, cfg.Vault().Timeout)
	assert.NoError(t, cfg.Validate())
}

// -- Validation Logic Tests --

func TestConfigValidation(t *testing.T) {
	t.Run("Core Validation", func(t *testing.T) {
		cfg := NewDefaultConfig()
		require.NoError(t, cfg.Validate())

		missingAddr := *cfg
		missingAddr.ServerCfg.Addr = ""
		err := missingAddr.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "server.addr is a required configuration field")
	})

	t.Run("Cache Validation", func(t *testing.T) {
		valid := CacheConfig{Enabled: true, Backend: "memory", Attempts: 3, BackoffStep: time.Millisecond}
		assert.NoError(t, valid.Validate())

		disabled := valid
		disabled.Enabled = false
		disabled.Backend = "redis"
		assert.NoError(t, disabled.Validate(), "a disabled cache is always valid")

		badBackend := valid
		badBackend.Backend = "redis"
		err := badBackend.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "backend must be one of")

		badAttempts := valid
		badAttempts.Attempts = 0
		err = badAttempts.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "attempts must be a positive integer")
	})

	t.Run("LLM Validation", func(t *testing.T) {
		valid := LLMConfig{Provider: ProviderOpenAI, Model: "gpt-4o-mini", APIKey: "sk-test"}
		assert.NoError(t, valid.Validate())

		unknown := valid
		unknown.Provider = "anthropic"
		err := unknown.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported provider")

		noModel := valid
		noModel.Model = ""
		err = noModel.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "model is required")

		keyless := noModel
		keyless.APIKey = ""
		assert.NoError(t, keyless.Validate(), "without a key the model is not needed")
	})
}

// -- Loading Tests --

func TestNewConfigFromViper(t *testing.T) {
	t.Run("should merge yaml over defaults", func(t *testing.T) {
		v := viper.New()
		SetDefaults(v)
		v.SetConfigType("yaml")
		yaml := []byte(`
cache:
  backend: memory
  attempts: 5
llm:
  provider: openai
  model: gpt-4o-mini
  api_key: sk-from-file
server:
  addr: ":8080"
`)
		require.NoError(t, v.ReadConfig(bytes.NewBuffer(yaml)))

		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)
		assert.Equal(t, "memory", cfg.Cache().Backend)
		assert.Equal(t, 5, cfg.Cache().Attempts)
		assert.Equal(t, 100*time.Millisecond, cfg.Cache().BackoffStep, "unset keys keep their defaults")
		assert.Equal(t, ProviderOpenAI, cfg.LLM().Provider)
		assert.True(t, cfg.LLM().Enabled())
		assert.Equal(t, ":8080", cfg.Server().Addr)
	})

	t.Run("should pick the provider key from the environment", func(t *testing.T) {
		t.Setenv("GEMINI_API_KEY", "gem-key")
		v := viper.New()
		SetDefaults(v)

		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)
		assert.Equal(t, "gem-key", cfg.LLM().APIKey)
	})

	t.Run("should read the vault session from the environment", func(t *testing.T) {
		t.Setenv("BW_SESSION", "bw-token")
		v := viper.New()
		SetDefaults(v)
		v.Set("vault.enabled", true)

		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)
		assert.True(t, cfg.Vault().Enabled)
		assert.Equal(t, "bw-token", cfg.Vault().Session)
	})

	t.Run("should reject invalid values", func(t *testing.T) {
		v := viper.New()
		SetDefaults(v)
		v.Set("cache.backend", "redis")

		_, err := NewConfigFromViper(v)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid configuration")
	})
}

func TestSetters(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.SetServerAddr("0.0.0.0:9000")
	cfg.SetCacheEnabled(false)
	cfg.SetBrowserHeadless(false)

	assert.Equal(t, "0.0.0.0:9000", cfg.Server().Addr)
	assert.False(t, cfg.Cache().Enabled)
	assert.False(t, cfg.Browser().Headless)
}
