package cache

import (
	"context"
	"log/slog"

	"github.com/hadasco/deskrag/plugin/ai"
)

// DefaultEmbeddingCacheSize bounds the embedding cache when unconfigured.
const DefaultEmbeddingCacheSize = 1000

// EmbeddingCache fronts the embedding collaborator with a recency LRU keyed
// by content hash. The same query phrased close together in time is the
// common repeat, so hits promote.
type EmbeddingCache struct {
	lru     *LRU[string, []float32]
	service ai.EmbeddingService
	logger  *slog.Logger
}

// NewEmbeddingCache creates an embedding cache over the given service.
func NewEmbeddingCache(service ai.EmbeddingService, capacity int, logger *slog.Logger) *EmbeddingCache {
	if capacity <= 0 {
		capacity = DefaultEmbeddingCacheSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &EmbeddingCache{
		lru:     NewLRU[string, []float32](capacity, PolicyRecency),
		service: service,
		logger:  logger,
	}
}

// EmbedQuery returns the embedding for text, computing it through the
// collaborator only on a cache miss.
func (c *EmbeddingCache) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	key := ContentHash(text)

	if vector, ok := c.lru.Get(key); ok {
		c.logger.Debug("embedding cache hit", "total_hits", c.lru.Stats().Hits)
		return vector, nil
	}

	vector, err := c.service.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	c.lru.Put(key, vector)
	return vector, nil
}

// EmbedDocuments embeds each text, checking the cache per element and
// batching only the misses into a single collaborator call. The result is
// order-preserving with one vector per input.
func (c *EmbeddingCache) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	var missIdx []int
	var missTexts []string

	for i, text := range texts {
		if vector, ok := c.lru.Get(ContentHash(text)); ok {
			vectors[i] = vector
			continue
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, text)
	}

	if len(missTexts) == 0 {
		return vectors, nil
	}

	computed, err := c.service.EmbedBatch(ctx, missTexts)
	if err != nil {
		return nil, err
	}

	for j, i := range missIdx {
		vectors[i] = computed[j]
		c.lru.Put(ContentHash(texts[i]), computed[j])
	}
	return vectors, nil
}

// Stats returns a snapshot of the cache counters.
func (c *EmbeddingCache) Stats() Stats {
	return c.lru.Stats()
}

// Clear drops all cached embeddings and resets the counters.
func (c *EmbeddingCache) Clear() {
	c.lru.Clear()
	c.logger.Info("embedding cache cleared")
}
