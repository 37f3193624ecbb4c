package ml

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIGenerator is an alternative Generator backed by an OpenAI-compatible
// chat-completion endpoint. Deployments without Hugging Face access can point
// GEN_PROVIDER=openai at any compatible server; the composed prompt is sent
// as a single user message with the same temperature/top_p budget.
//
// Beam search has no chat-completion equivalent, so NumBeams is ignored here;
// MaxLength maps onto max_tokens.
type OpenAIGenerator struct {
	client *openai.Client
	model  string
	params GenParams
}

// NewOpenAIGenerator builds the generator from cfg. The API key is required;
// BaseURL is optional and overrides the default endpoint for self-hosted
// compatible servers.
func NewOpenAIGenerator(cfg Config) (*OpenAIGenerator, error) {
	if strings.TrimSpace(cfg.OpenAIKey) == "" {
		return nil, fmt.Errorf("ml: openai api key is required")
	}
	if strings.TrimSpace(cfg.OpenAIModel) == "" {
		return nil, fmt.Errorf("ml: openai model is required")
	}

	clientCfg := openai.DefaultConfig(cfg.OpenAIKey)
	if cfg.OpenAIBaseURL != "" {
		clientCfg.BaseURL = cfg.OpenAIBaseURL
	}

	params := cfg.Params
	if params.MaxLength <= 0 {
		params = DefaultGenParams()
	}

	return &OpenAIGenerator{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.OpenAIModel,
		params: params,
	}, nil
}

// Generate sends the prompt and returns the first choice, trimmed.
func (g *OpenAIGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", ErrEmptyInput
	}

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       g.model,
		MaxTokens:   g.params.MaxLength,
		Temperature: float32(g.params.Temperature),
		TopP:        float32(g.params.TopP),
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("ml: openai: %v: %w", err, ErrUnavailable)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("ml: openai: empty choices: %w", ErrUnavailable)
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// Warmup verifies the endpoint accepts a minimal completion request.
func (g *OpenAIGenerator) Warmup(ctx context.Context) error {
	if _, err := g.Generate(ctx, "hello"); err != nil {
		return fmt.Errorf("ml: openai warmup: %w", err)
	}
	return nil
}
