// File: internal/services/ai/config.go
package ai

import (
	"fmt"
	"time"
)

type Config struct {
	APIKey  string
	BaseURL string

	// Models
	Model          string
	EmbeddingModel string

	// Performance
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration

	// Model parameters
	Temperature float32
	MaxTokens   int
}

func (c *Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required")
	}
	if c.Model == "" {
		return fmt.Errorf("OPENAI_MODEL is required")
	}
	if c.EmbeddingModel == "" {
		return fmt.Errorf("OPENAI_EMBEDDING_MODEL is required")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.MaxRetries < 1 {
		return fmt.Errorf("max retries must be at least 1")
	}
	return nil
}

func DefaultConfig() *Config {
	return &Config{
		BaseURL:        "https://api.openai.com/v1",
		Model:          "gpt-4o-mini",
		EmbeddingModel: "text-embedding-3-small",
		Timeout:        30 * time.Second,
		MaxRetries:     2,
		RetryDelay:     time.Second,
		Temperature:    0.3,
		MaxTokens:      1500,
	}
}
