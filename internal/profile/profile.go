package profile

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Profile is the configuration to start the main server.
type Profile struct {
	// Mode can be "prod" or "dev" or "demo".
	Mode string
	// Addr is the binding address for the server.
	Addr string
	// Port is the binding port for the server.
	Port int
	// Version is the current version of the server.
	Version string

	// Driver is the knowledge-store driver (sqlite or postgres).
	Driver string
	// DSN points to where deskrag stores its knowledge index.
	DSN string
	// KnowledgeBasePath is the JSON knowledge base used by the indexer.
	KnowledgeBasePath string

	// OpenAIAPIKey authenticates against the OpenAI-compatible endpoint.
	OpenAIAPIKey string
	// OpenAIBaseURL overrides the API endpoint (empty for api.openai.com).
	OpenAIBaseURL string
	// LLMModel is the chat model used for answer generation.
	LLMModel string
	// LLMTemperature is the sampling temperature for generation.
	LLMTemperature float32
	// EmbeddingModel is the model used for query/document embeddings.
	EmbeddingModel string
	// EmbeddingDimensions is the embedding vector width.
	EmbeddingDimensions int

	// ChunkSize is the character length of knowledge chunks.
	ChunkSize int
	// ChunkOverlap is the character overlap between consecutive chunks.
	ChunkOverlap int
	// MaxRetrievalResults is the default top-k for similarity search.
	MaxRetrievalResults int

	// EmbeddingCacheSize bounds the embedding cache (recency LRU).
	EmbeddingCacheSize int
	// GenerationCacheSize bounds the answer cache (insertion-order LRU).
	GenerationCacheSize int

	// ConfidenceHigh is the high-confidence status threshold.
	ConfidenceHigh float64
	// ConfidenceMedium is the medium-confidence status threshold.
	ConfidenceMedium float64

	// MaxConversationHistory bounds the per-user turn history.
	MaxConversationHistory int
	// ConversationRetention is how long inactive per-user state is kept.
	ConversationRetention time.Duration
	// StateCleanupInterval is the sweep interval for inactive user state.
	StateCleanupInterval time.Duration

	// EmbedTimeout bounds a single embedding call.
	EmbedTimeout time.Duration
	// GenerateTimeout bounds a single generation call.
	GenerateTimeout time.Duration
	// SearchTimeout bounds a single similarity-search call.
	SearchTimeout time.Duration

	// RateLimitPerSecond is the per-user message rate.
	RateLimitPerSecond float64
	// RateLimitBurst is the per-user burst allowance.
	RateLimitBurst int

	// AdminIDs lists user ids allowed to run cache admin commands.
	AdminIDs []string
}

// IsDev returns true unless running in prod mode.
func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsAdmin reports whether the user id is in the admin list.
func (p *Profile) IsAdmin(userID string) bool {
	for _, id := range p.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// FromEnv loads configuration from DESKRAG_* environment variables with
// sensible defaults for a demo deployment.
func FromEnv(version string) *Profile {
	v := viper.New()
	v.SetEnvPrefix("deskrag")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("mode", "dev")
	v.SetDefault("addr", "")
	v.SetDefault("port", 8080)
	v.SetDefault("driver", "sqlite")
	v.SetDefault("dsn", "deskrag.db")
	v.SetDefault("knowledge-base-path", "./data/knowledge_base.json")
	v.SetDefault("openai-base-url", "")
	v.SetDefault("llm-model", "gpt-3.5-turbo")
	v.SetDefault("llm-temperature", 0.3)
	v.SetDefault("embedding-model", "text-embedding-3-small")
	v.SetDefault("embedding-dimensions", 1536)
	v.SetDefault("chunk-size", 500)
	v.SetDefault("chunk-overlap", 50)
	v.SetDefault("max-retrieval-results", 3)
	v.SetDefault("embedding-cache-size", 1000)
	v.SetDefault("generation-cache-size", 500)
	v.SetDefault("confidence-high", 0.8)
	v.SetDefault("confidence-medium", 0.5)
	v.SetDefault("max-conversation-history", 5)
	v.SetDefault("conversation-retention", "24h")
	v.SetDefault("state-cleanup-interval", "1h")
	v.SetDefault("embed-timeout", "15s")
	v.SetDefault("generate-timeout", "60s")
	v.SetDefault("search-timeout", "10s")
	v.SetDefault("rate-limit-per-second", 1.0)
	v.SetDefault("rate-limit-burst", 5)

	return &Profile{
		Mode:                   v.GetString("mode"),
		Addr:                   v.GetString("addr"),
		Port:                   v.GetInt("port"),
		Version:                version,
		Driver:                 v.GetString("driver"),
		DSN:                    v.GetString("dsn"),
		KnowledgeBasePath:      v.GetString("knowledge-base-path"),
		OpenAIAPIKey:           v.GetString("openai-api-key"),
		OpenAIBaseURL:          v.GetString("openai-base-url"),
		LLMModel:               v.GetString("llm-model"),
		LLMTemperature:         float32(v.GetFloat64("llm-temperature")),
		EmbeddingModel:         v.GetString("embedding-model"),
		EmbeddingDimensions:    v.GetInt("embedding-dimensions"),
		ChunkSize:              v.GetInt("chunk-size"),
		ChunkOverlap:           v.GetInt("chunk-overlap"),
		MaxRetrievalResults:    v.GetInt("max-retrieval-results"),
		EmbeddingCacheSize:     v.GetInt("embedding-cache-size"),
		GenerationCacheSize:    v.GetInt("generation-cache-size"),
		ConfidenceHigh:         v.GetFloat64("confidence-high"),
		ConfidenceMedium:       v.GetFloat64("confidence-medium"),
		MaxConversationHistory: v.GetInt("max-conversation-history"),
		ConversationRetention:  v.GetDuration("conversation-retention"),
		StateCleanupInterval:   v.GetDuration("state-cleanup-interval"),
		EmbedTimeout:           v.GetDuration("embed-timeout"),
		GenerateTimeout:        v.GetDuration("generate-timeout"),
		SearchTimeout:          v.GetDuration("search-timeout"),
		RateLimitPerSecond:     v.GetFloat64("rate-limit-per-second"),
		RateLimitBurst:         v.GetInt("rate-limit-burst"),
		AdminIDs:               v.GetStringSlice("admin-ids"),
	}
}

// Validate checks the profile for misconfiguration before startup.
func (p *Profile) Validate() error {
	if p.OpenAIAPIKey == "" {
		return errors.New("DESKRAG_OPENAI_API_KEY is required")
	}
	if p.Driver != "sqlite" && p.Driver != "postgres" {
		return errors.Errorf("unsupported driver %q (want sqlite or postgres)", p.Driver)
	}
	if p.ConfidenceHigh <= 0 || p.ConfidenceHigh > 1 {
		return errors.Errorf("confidence-high %v out of range (0, 1]", p.ConfidenceHigh)
	}
	if p.ConfidenceMedium < 0 || p.ConfidenceMedium >= p.ConfidenceHigh {
		return errors.Errorf("confidence-medium %v must be in [0, confidence-high)", p.ConfidenceMedium)
	}
	if p.ChunkOverlap >= p.ChunkSize {
		return errors.Errorf("chunk-overlap %d must be smaller than chunk-size %d", p.ChunkOverlap, p.ChunkSize)
	}
	if p.MaxRetrievalResults <= 0 {
		return errors.New("max-retrieval-results must be positive")
	}
	if p.MaxConversationHistory <= 0 {
		return errors.New("max-conversation-history must be positive")
	}
	return nil
}
