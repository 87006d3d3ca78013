// File: internal/services/ai/openai_provider.go
package ai

import (
	"context"
	"sort"

	openai "github.com/sashabaranov/go-openai"
)

type OpenAIProvider struct {
	config *Config
	client *openai.Client
}

func NewOpenAIProvider(config *Config) *OpenAIProvider {
	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}
	return &OpenAIProvider{
		config: config,
		client: openai.NewClientWithConfig(clientConfig),
	}
}

// CreateEmbeddings embeds all texts in one request. The result is in input order.
func (p *OpenAIProvider) CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, &AIError{Type: ErrTypeValidation, Operation: "embedding", Message: "no input"}
	}
	resp, err := p.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(p.config.EmbeddingModel),
	})
	if err != nil {
		return nil, classify("embedding", p.config.EmbeddingModel, err)
	}
	if len(resp.Data) != len(texts) {
		return nil, &AIError{
			Type:      ErrTypeProvider,
			Operation: "embedding",
			Model:     p.config.EmbeddingModel,
			Message:   "embedding count does not match input",
		}
	}

	data := resp.Data
	sort.Slice(data, func(i, j int) bool { return data[i].Index < data[j].Index })
	out := make([][]float32, len(data))
	for i, d := range data {
		if len(d.Embedding) == 0 {
			return nil, &AIError{Type: ErrTypeProvider, Operation: "embedding", Message: "empty embedding response"}
		}
		out[i] = d.Embedding
	}
	return out, nil
}

func (p *OpenAIProvider) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	model := req.Model
	if model == "" {
		model = p.config.Model
	}
	var messages []openai.ChatCompletionMessage
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.System})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: req.Prompt})

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return "", classify("completion", model, err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", &AIError{
			Type:      ErrTypeProvider,
			Operation: "completion",
			Model:     model,
			Message:   "empty completion response",
		}
	}
	return resp.Choices[0].Message.Content, nil
}

func (p *OpenAIProvider) GetStatus(ctx context.Context) ProviderStatus {
	if p.config.APIKey == "" {
		return ProviderStatus{Message: "OpenAI API key not configured"}
	}
	return ProviderStatus{
		IsHealthy:        true,
		EmbeddingHealthy: true,
		LLMHealthy:       true,
		Message:          "OpenAI provider configured",
	}
}
