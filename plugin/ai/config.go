// Package ai provides the embedding and generation collaborator adapters.
package ai

import (
	"time"

	"github.com/hadasco/deskrag/internal/profile"
)

// EmbeddingConfig configures the embedding collaborator.
type EmbeddingConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	Dimensions int
	Timeout    time.Duration
}

// LLMConfig configures the generation collaborator.
type LLMConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	Timeout     time.Duration
}

// Config bundles collaborator configuration.
type Config struct {
	Embedding EmbeddingConfig
	LLM       LLMConfig
}

// NewConfigFromProfile derives collaborator configuration from the profile.
func NewConfigFromProfile(p *profile.Profile) *Config {
	return &Config{
		Embedding: EmbeddingConfig{
			APIKey:     p.OpenAIAPIKey,
			BaseURL:    p.OpenAIBaseURL,
			Model:      p.EmbeddingModel,
			Dimensions: p.EmbeddingDimensions,
			Timeout:    p.EmbedTimeout,
		},
		LLM: LLMConfig{
			APIKey:      p.OpenAIAPIKey,
			BaseURL:     p.OpenAIBaseURL,
			Model:       p.LLMModel,
			Temperature: p.LLMTemperature,
			Timeout:     p.GenerateTimeout,
		},
	}
}
