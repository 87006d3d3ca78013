// File: internal/services/ai/interface.go
package ai

import "context"

// ProviderStatus represents AI provider health
type ProviderStatus struct {
	IsHealthy        bool
	EmbeddingHealthy bool
	LLMHealthy       bool
	Message          string
}

// CompletionRequest is a single-turn chat completion.
type CompletionRequest struct {
	Model       string
	System      string
	Prompt      string
	Temperature float32
	MaxTokens   int
}

// EmbeddingProvider handles text embeddings
type EmbeddingProvider interface {
	CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
}

// CompletionProvider handles chat completions
type CompletionProvider interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// AIProvider combines embedding and completion capabilities
type AIProvider interface {
	EmbeddingProvider
	CompletionProvider
	GetStatus(ctx context.Context) ProviderStatus
}
