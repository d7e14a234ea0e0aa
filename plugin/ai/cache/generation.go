package cache

import (
	"context"
	"log/slog"

	"github.com/hadasco/deskrag/plugin/ai"
)

// DefaultGenerationCacheSize bounds the answer cache when unconfigured.
const DefaultGenerationCacheSize = 500

// GenerationCache fronts the generation collaborator with an insertion-order
// LRU keyed by prompt hash. Unique prompts rarely repeat exactly, so the
// cheaper no-promotion policy is enough.
type GenerationCache struct {
	lru     *LRU[string, string]
	service ai.LLMService
	logger  *slog.Logger
}

// NewGenerationCache creates an answer cache over the given service.
func NewGenerationCache(service ai.LLMService, capacity int, logger *slog.Logger) *GenerationCache {
	if capacity <= 0 {
		capacity = DefaultGenerationCacheSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &GenerationCache{
		lru:     NewLRU[string, string](capacity, PolicyInsertion),
		service: service,
		logger:  logger,
	}
}

// Generate returns the answer for prompt, delegating to the collaborator
// only on a cache miss. Collaborator failures propagate and are never
// cached, so an identical prompt can retry.
func (c *GenerationCache) Generate(ctx context.Context, prompt string) (string, error) {
	key := ContentHash(prompt)

	if answer, ok := c.lru.Get(key); ok {
		c.logger.Debug("generation cache hit", "total_hits", c.lru.Stats().Hits)
		return answer, nil
	}

	answer, err := c.service.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	c.lru.Put(key, answer)
	return answer, nil
}

// Stats returns a snapshot of the cache counters.
func (c *GenerationCache) Stats() Stats {
	return c.lru.Stats()
}

// Clear drops all cached answers and resets the counters.
func (c *GenerationCache) Clear() {
	c.lru.Clear()
	c.logger.Info("generation cache cleared")
}
