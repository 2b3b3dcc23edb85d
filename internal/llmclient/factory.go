// -- internal/llmclient/factory.go --
package llmclient

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/formscript/api/schemas"
	"github.com/xkilldash9x/formscript/internal/config"
)

// NewClient is a factory function that creates an LLMClient based on the configuration.
// It returns a nil client and a nil error when no API key is configured, which
// callers treat as "model assisted generation disabled".
func NewClient(ctx context.Context, cfg config.LLMConfig, logger *zap.Logger) (schemas.LLMClient, error) {
	if !cfg.Enabled() {
		logger.Info("No LLM API key configured, model assisted generation disabled")
		return nil, nil
	}

	var (
		client schemas.LLMClient
		err    error
	)

	// Using constants defined in config package to avoid magic strings.
	switch cfg.Provider {
	case config.ProviderGemini:
		client, err = NewGeminiClient(ctx, cfg, logger)
	case config.ProviderOpenAI:
		client, err = NewOpenAIClient(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown or unsupported LLM provider configured: '%s'. Supported: [%s, %s]", cfg.Provider, config.ProviderGemini, config.ProviderOpenAI)
	}
	if err != nil {
		return nil, err
	}

	return NewRateLimitedClient(client, cfg.RequestsPerMinute, logger), nil
}
