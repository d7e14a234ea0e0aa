package ai

import (
	"context"
	"errors"
	"time"

	"github.com/sashabaranov/go-openai"

	aierrors "github.com/hadasco/deskrag/internal/errors"
)

// LLMService is the text-generation collaborator interface.
type LLMService interface {
	// Generate produces a completion for a single prompt.
	Generate(ctx context.Context, prompt string) (string, error)
}

type llmService struct {
	client      *openai.Client
	model       string
	temperature float32
	timeout     time.Duration
}

// NewLLMService creates an LLMService over an OpenAI-compatible endpoint.
func NewLLMService(cfg *LLMConfig) LLMService {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &llmService{
		client:      openai.NewClientWithConfig(clientConfig),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		timeout:     timeout,
	}
}

func (s *llmService) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       s.model,
		Temperature: s.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", aierrors.Timeout("generation request timed out", err)
		}
		return "", aierrors.GenerationUnavailable("chat completion failed", err)
	}

	if len(resp.Choices) == 0 {
		return "", aierrors.GenerationUnavailable("empty completion response", nil)
	}
	return resp.Choices[0].Message.Content, nil
}
