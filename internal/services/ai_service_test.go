package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jacklvd/NEU-scheduler/internal/services/ai"
)

type mockAIProvider struct {
	mock.Mock
}

func (m *mockAIProvider) CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	args := m.Called(ctx, texts)
	v, _ := args.Get(0).([][]float32)
	return v, args.Error(1)
}

func (m *mockAIProvider) Complete(ctx context.Context, req ai.CompletionRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *mockAIProvider) GetStatus(ctx context.Context) ai.ProviderStatus {
	return ai.ProviderStatus{IsHealthy: true}
}

func testAIConfig() *ai.Config {
	cfg := ai.DefaultConfig()
	cfg.APIKey = "sk-test"
	cfg.RetryDelay = time.Millisecond
	return cfg
}

func TestNewAIServiceWithoutKeyIsNil(t *testing.T) {
	cfg := ai.DefaultConfig()
	assert.Nil(t, NewAIService(&mockAIProvider{}, cfg, &NoOpLogger{}))
}

func TestAIServiceCompleteFillsDefaults(t *testing.T) {
	p := &mockAIProvider{}
	p.On("Complete", mock.Anything, mock.MatchedBy(func(req ai.CompletionRequest) bool {
		return req.Model == "gpt-4o-mini" && req.MaxTokens == 1500 && req.Prompt == "hi"
	})).Return("hello", nil)

	svc := NewAIService(p, testAIConfig(), &NoOpLogger{})
	out, err := svc.Complete(context.Background(), ai.CompletionRequest{Prompt: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "hello", out)
}

func TestAIServiceRetriesNetworkErrors(t *testing.T) {
	p := &mockAIProvider{}
	p.On("CreateEmbeddings", mock.Anything, []string{"a"}).Return(nil, &ai.AIError{Type: ai.ErrTypeNetwork}).Once()
	p.On("CreateEmbeddings", mock.Anything, []string{"a"}).Return([][]float32{{1}}, nil).Once()

	svc := NewAIService(p, testAIConfig(), &NoOpLogger{})
	out, err := svc.Embed(context.Background(), []string{"a"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1}}, out)
	p.AssertNumberOfCalls(t, "CreateEmbeddings", 2)
}
