// File: internal/services/ai_service.go
package services

import (
	"context"
	"time"

	"github.com/jacklvd/NEU-scheduler/internal/config"
	"github.com/jacklvd/NEU-scheduler/internal/services/ai"
)

// AIService wraps the language model provider with retries and per-call timeouts.
type AIService struct {
	provider ai.AIProvider
	config   *ai.Config
	logger   Logger
}

// AIConfigFromApp maps application settings onto the provider config.
func AIConfigFromApp(cfg *config.Config) *ai.Config {
	ac := ai.DefaultConfig()
	ac.APIKey = cfg.OpenAIAPIKey
	ac.BaseURL = cfg.OpenAIBaseURL
	ac.Model = cfg.OpenAIModel
	ac.EmbeddingModel = cfg.OpenAIEmbeddingModel
	ac.Timeout = cfg.LLMTimeout
	return ac
}

// NewAIService returns nil when no API key is configured; callers treat a nil
// service as "no language model available".
func NewAIService(provider ai.AIProvider, cfg *ai.Config, logger Logger) *AIService {
	if cfg.APIKey == "" {
		logger.Warn("OPENAI_API_KEY not set; plan suggestions use the local sequencer")
		return nil
	}
	return &AIService{provider: provider, config: cfg, logger: logger}
}

func (s *AIService) retryConfig() *ai.RetryConfig {
	return &ai.RetryConfig{
		MaxAttempts: s.config.MaxRetries,
		Delay:       s.config.RetryDelay,
		Timeout:     s.config.Timeout,
	}
}

// Complete runs a chat completion with the configured defaults filled in.
func (s *AIService) Complete(ctx context.Context, req ai.CompletionRequest) (string, error) {
	if req.Model == "" {
		req.Model = s.config.Model
	}
	if req.MaxTokens == 0 {
		req.MaxTokens = s.config.MaxTokens
	}

	start := time.Now()
	var reply string
	err := ai.RetryWithBackoff(ctx, s.retryConfig(), func(ctx context.Context) error {
		out, err := s.provider.Complete(ctx, req)
		if err != nil {
			return err
		}
		reply = out
		return nil
	})
	if err != nil {
		s.logger.Error("completion failed", "model", req.Model, "error", err)
		return "", err
	}
	s.logger.Debug("completion finished", "model", req.Model, "duration", time.Since(start), "chars", len(reply))
	return reply, nil
}

// Embed returns one vector per input text.
func (s *AIService) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	var vectors [][]float32
	err := ai.RetryWithBackoff(ctx, s.retryConfig(), func(ctx context.Context) error {
		out, err := s.provider.CreateEmbeddings(ctx, texts)
		if err != nil {
			return err
		}
		vectors = out
		return nil
	})
	if err != nil {
		s.logger.Error("embedding failed", "model", s.config.EmbeddingModel, "inputs", len(texts), "error", err)
		return nil, err
	}
	return vectors, nil
}

func (s *AIService) GetProviderStatus(ctx context.Context) ai.ProviderStatus {
	return s.provider.GetStatus(ctx)
}
