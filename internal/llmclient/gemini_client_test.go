package llmclient

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

// fakeModels records the last GenerateContent call and replays a canned answer.
type fakeModels struct {
	model    string
	contents []*genai.Content
	config   *genai.GenerateContentConfig
	resp     *genai.GenerateContentResponse
	err      error
}

func (f *fakeModels) GenerateContent(_ context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model = model
	f.contents = contents
	f.config = config
	return f.resp, f.err
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content:      genai.NewContentFromText(text, genai.RoleModel),
			FinishReason: genai.FinishReasonStop,
		}},
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
			PromptTokenCount:     100,
			CandidatesTokenCount: 50,
			TotalTokenCount:      150,
		},
	}
}

func TestNewGeminiClient_Failure_MissingAPIKey(t *testing.T) {
	logger, _ := setupTestLogger(t)
	cfg := getValidLLMConfig()
	cfg.APIKey = ""

	client, err := NewGeminiClient(context.Background(), cfg, logger)
	assert.Error(t, err)
	assert.Nil(t, client)
	assert.Contains(t, err.Error(), "Gemini API Key is required")
}

func TestGeminiGenerate_Success(t *testing.T) {
	logger, logs := setupTestLogger(t)
	models := &fakeModels{resp: textResponse("wait 2\nclick \"#login\"")}
	client := newGeminiClient(models, getValidLLMConfig(), logger)

	out, err := client.Generate(context.Background(), createTestRequest())
	require.NoError(t, err)
	assert.Equal(t, "wait 2\nclick \"#login\"", out)

	// Request mapping
	assert.Equal(t, "test-model", models.model)
	require.Len(t, models.contents, 1)
	assert.Equal(t, "User query.", models.contents[0].Parts[0].Text)
	require.NotNil(t, models.config.SystemInstruction)
	assert.Equal(t, "System prompt instructions.", models.config.SystemInstruction.Parts[0].Text)
	require.NotNil(t, models.config.Temperature)
	assert.InDelta(t, 0.7, *models.config.Temperature, 1e-6)
	assert.EqualValues(t, 512, models.config.MaxOutputTokens, "config max tokens apply when the request sets none")

	entries := logs.FilterMessage("LLM generation complete (Gemini)").All()
	require.Len(t, entries, 1)
	assert.EqualValues(t, 150, entries[0].ContextMap()["total_tokens"])
}

func TestGeminiGenerate_DefaultsTemperatureFromConfig(t *testing.T) {
	logger, _ := setupTestLogger(t)
	models := &fakeModels{resp: textResponse("wait 1")}
	client := newGeminiClient(models, getValidLLMConfig(), logger)

	req := createTestRequest()
	req.Options.Temperature = 0
	req.SystemPrompt = ""
	_, err := client.Generate(context.Background(), req)
	require.NoError(t, err)

	assert.InDelta(t, 0.2, *models.config.Temperature, 1e-6)
	assert.Nil(t, models.config.SystemInstruction)
}

func TestGeminiGenerate_Failures(t *testing.T) {
	logger, _ := setupTestLogger(t)

	t.Run("transport error", func(t *testing.T) {
		apiErr := errors.New("503 unavailable")
		client := newGeminiClient(&fakeModels{err: apiErr}, getValidLLMConfig(), logger)
		_, err := client.Generate(context.Background(), createTestRequest())
		assert.ErrorIs(t, err, apiErr)
	})

	t.Run("no candidates", func(t *testing.T) {
		client := newGeminiClient(&fakeModels{resp: &genai.GenerateContentResponse{}}, getValidLLMConfig(), logger)
		_, err := client.Generate(context.Background(), createTestRequest())
		assert.ErrorContains(t, err, "no candidates")
	})

	t.Run("blocked prompt", func(t *testing.T) {
		resp := &genai.GenerateContentResponse{
			PromptFeedback: &genai.GenerateContentResponsePromptFeedback{BlockReason: genai.BlockedReasonSafety},
		}
		client := newGeminiClient(&fakeModels{resp: resp}, getValidLLMConfig(), logger)
		_, err := client.Generate(context.Background(), createTestRequest())
		assert.ErrorContains(t, err, "blocked")
	})

	t.Run("empty text", func(t *testing.T) {
		client := newGeminiClient(&fakeModels{resp: textResponse("")}, getValidLLMConfig(), logger)
		_, err := client.Generate(context.Background(), createTestRequest())
		assert.ErrorContains(t, err, "empty content")
	})
}
