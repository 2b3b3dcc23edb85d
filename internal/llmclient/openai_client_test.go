package llmclient

import (
	"context"
	"errors"
	"testing"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/formscript/internal/config"
)

type fakeCompletions struct {
	params openai.ChatCompletionNewParams
	resp   *openai.ChatCompletion
	err    error
}

func (f *fakeCompletions) New(_ context.Context, body openai.ChatCompletionNewParams, _ ...option.RequestOption) (*openai.ChatCompletion, error) {
	f.params = body
	return f.resp, f.err
}

func openAIConfig() config.LLMConfig {
	cfg := getValidLLMConfig()
	cfg.Provider = config.ProviderOpenAI
	cfg.Model = "gpt-4o-mini"
	return cfg
}

func TestNewOpenAIClient_Failure_MissingAPIKey(t *testing.T) {
	logger, _ := setupTestLogger(t)
	cfg := openAIConfig()
	cfg.APIKey = ""

	client, err := NewOpenAIClient(cfg, logger)
	assert.Error(t, err)
	assert.Nil(t, client)
}

func TestOpenAIGenerate_Success(t *testing.T) {
	logger, logs := setupTestLogger(t)
	fake := &fakeCompletions{resp: &openai.ChatCompletion{
		Choices: []openai.ChatCompletionChoice{{
			Message:      openai.ChatCompletionMessage{Content: "wait 1"},
			FinishReason: "stop",
		}},
		Usage: openai.CompletionUsage{PromptTokens: 12, CompletionTokens: 3, TotalTokens: 15},
	}}
	client := newOpenAIClient(fake, openAIConfig(), logger)

	out, err := client.Generate(context.Background(), createTestRequest())
	require.NoError(t, err)
	assert.Equal(t, "wait 1", out)

	assert.Equal(t, openai.ChatModel("gpt-4o-mini"), fake.params.Model)
	assert.Len(t, fake.params.Messages, 2, "system and user messages")
	assert.InDelta(t, 0.7, fake.params.Temperature.Value, 1e-9)
	assert.EqualValues(t, 512, fake.params.MaxCompletionTokens.Value)
	assert.Equal(t, 1, logs.FilterMessage("LLM generation complete (OpenAI)").Len())
}

func TestOpenAIGenerate_Failures(t *testing.T) {
	logger, _ := setupTestLogger(t)

	t.Run("transport error", func(t *testing.T) {
		apiErr := errors.New("429 too many requests")
		client := newOpenAIClient(&fakeCompletions{err: apiErr}, openAIConfig(), logger)
		_, err := client.Generate(context.Background(), createTestRequest())
		assert.ErrorIs(t, err, apiErr)
	})

	t.Run("no choices", func(t *testing.T) {
		client := newOpenAIClient(&fakeCompletions{resp: &openai.ChatCompletion{}}, openAIConfig(), logger)
		_, err := client.Generate(context.Background(), createTestRequest())
		assert.ErrorContains(t, err, "no choices")
	})
}
