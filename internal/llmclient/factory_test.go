package llmclient

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/formscript/api/schemas"
	"github.com/xkilldash9x/formscript/internal/config"
)

func TestNewClient_DisabledWithoutKey(t *testing.T) {
	logger, logs := setupTestLogger(t)
	cfg := getValidLLMConfig()
	cfg.APIKey = ""

	client, err := NewClient(context.Background(), cfg, logger)
	require.NoError(t, err)
	assert.Nil(t, client)
	assert.Equal(t, 1, logs.FilterMessageSnippet("disabled").Len())
}

func TestNewClient_UnknownProvider(t *testing.T) {
	logger, _ := setupTestLogger(t)
	cfg := getValidLLMConfig()
	cfg.Provider = "claude"

	client, err := NewClient(context.Background(), cfg, logger)
	require.Error(t, err)
	assert.Nil(t, client)
	assert.Contains(t, err.Error(), "unknown or unsupported LLM provider")
}

func TestNewClient_OpenAIIsRateLimited(t *testing.T) {
	logger, _ := setupTestLogger(t)
	cfg := openAIConfig()

	client, err := NewClient(context.Background(), cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	limited, ok := client.(*RateLimitedClient)
	require.True(t, ok, "factory clients are wrapped in the rate limiter")
	_, ok = limited.next.(*OpenAIClient)
	assert.True(t, ok)
}

func TestDSLPrompt(t *testing.T) {
	profile := schemas.UserProfile{Email: "jan@example.com", FullName: "Jan Kowalski"}
	req := DSLPrompt(`<form id="apply"></form>`, profile)

	assert.Equal(t, schemas.TierPowerful, req.Tier)
	assert.Contains(t, req.SystemPrompt, "Return ONLY DSL commands")
	assert.Contains(t, req.UserPrompt, "click, type, upload, hover, wait")
	assert.Contains(t, req.UserPrompt, `<form id="apply"></form>`)
	assert.Contains(t, req.UserPrompt, "jan@example.com")
	assert.True(t, strings.HasSuffix(req.UserPrompt, "Generate the optimal sequence of DSL commands:"))
	assert.Equal(t, 1000, req.Options.MaxTokens)
}
