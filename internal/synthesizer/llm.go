package synthesizer

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/formscript/api/schemas"
	"github.com/xkilldash9x/formscript/internal/dsl"
	"github.com/xkilldash9x/formscript/internal/llmclient"
	"github.com/xkilldash9x/formscript/internal/llmutil"
)

// LLMStrategy asks a language model for a script. It only runs for pages
// that IsComplex classifies as complex.
type LLMStrategy struct {
	client schemas.LLMClient
	logger *zap.Logger
}

func NewLLMStrategy(client schemas.LLMClient, logger *zap.Logger) *LLMStrategy {
	return &LLMStrategy{client: client, logger: logger.Named("llm_strategy")}
}

func (s *LLMStrategy) Name() string { return "llm" }

func (s *LLMStrategy) Generate(ctx context.Context, in Input) (string, error) {
	if s.client == nil || !IsComplex(in.HTML) {
		return "", nil
	}

	raw, err := s.client.Generate(ctx, llmclient.DSLPrompt(in.HTML, in.Profile))
	if err != nil {
		return "", fmt.Errorf("model request failed: %w", err)
	}

	script := dsl.FilterResponse(llmutil.CleanCodeOutput(raw))
	if script == "" {
		s.logger.Warn("Model response contained no DSL commands",
			zap.Int("response_bytes", len(raw)))
	}
	return script, nil
}
