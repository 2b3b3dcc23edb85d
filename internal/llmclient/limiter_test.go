package llmclient

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestRateLimitedClient_Delegates(t *testing.T) {
	logger, _ := setupTestLogger(t)
	next := new(MockLLMClient)
	req := createTestRequest()
	next.On("Generate", mock.Anything, req).Return("wait 2", nil).Once()
	next.On("Close").Return(nil).Once()

	client := NewRateLimitedClient(next, 60, logger)
	out, err := client.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "wait 2", out)
	require.NoError(t, client.Close())
	next.AssertExpectations(t)
}

func TestRateLimitedClient_CancelledWhileWaiting(t *testing.T) {
	logger, _ := setupTestLogger(t)
	next := new(MockLLMClient)
	next.On("Generate", mock.Anything, mock.Anything).Return("wait 1", nil).Once()

	// One request per minute: the first call consumes the burst, the second must wait.
	client := NewRateLimitedClient(next, 1, logger)
	_, err := client.Generate(context.Background(), createTestRequest())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = client.Generate(ctx, createTestRequest())
	require.Error(t, err)
	next.AssertExpectations(t)
}

func TestRateLimitedClient_Unlimited(t *testing.T) {
	logger, _ := setupTestLogger(t)
	next := new(MockLLMClient)
	next.On("Generate", mock.Anything, mock.Anything).Return("ok", nil).Times(5)

	client := NewRateLimitedClient(next, 0, logger)
	for i := 0; i < 5; i++ {
		_, err := client.Generate(context.Background(), createTestRequest())
		require.NoError(t, err)
	}
	next.AssertExpectations(t)
}
