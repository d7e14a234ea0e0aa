package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hadasco/deskrag/plugin/ai"
	aierrors "github.com/hadasco/deskrag/internal/errors"
)

func TestEmbeddingCache_QueryHitAvoidsCollaborator(t *testing.T) {
	svc := ai.NewMockEmbeddingService()
	c := NewEmbeddingCache(svc, 10, nil)
	ctx := context.Background()

	first, err := c.EmbedQuery(ctx, "what are your working hours?")
	require.NoError(t, err)
	require.Equal(t, int32(1), svc.CallCount.Load())

	second, err := c.EmbedQuery(ctx, "what are your working hours?")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), svc.CallCount.Load(), "hit must not call the collaborator")

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
}

func TestEmbeddingCache_DocumentsBatchOnlyMisses(t *testing.T) {
	svc := ai.NewMockEmbeddingService()
	c := NewEmbeddingCache(svc, 10, nil)
	ctx := context.Background()

	// Warm one of three texts.
	_, err := c.EmbedQuery(ctx, "b")
	require.NoError(t, err)

	var batched []string
	svc.EmbedBatchFunc = func(_ context.Context, texts []string) ([][]float32, error) {
		batched = texts
		vectors := make([][]float32, len(texts))
		for i := range texts {
			vectors[i] = []float32{float32(i)}
		}
		return vectors, nil
	}

	vectors, err := c.EmbedDocuments(ctx, []string{"a", "b", "c"})
	require.NoError(t, err)
	require.Len(t, vectors, 3)
	assert.Equal(t, []string{"a", "c"}, batched, "cached element must not be re-embedded")
	for _, v := range vectors {
		assert.NotNil(t, v)
	}
}

func TestEmbeddingCache_ErrorPropagates(t *testing.T) {
	svc := ai.NewMockEmbeddingService()
	svc.EmbedFunc = func(context.Context, string) ([]float32, error) {
		return nil, aierrors.EmbeddingUnavailable("down", nil)
	}
	c := NewEmbeddingCache(svc, 10, nil)

	_, err := c.EmbedQuery(context.Background(), "q")
	require.Error(t, err)
	assert.Equal(t, aierrors.ErrCodeEmbeddingUnavailable, aierrors.CodeOf(err))

	// A failed computation is not cached; recovery retries the collaborator.
	svc.EmbedFunc = nil
	_, err = c.EmbedQuery(context.Background(), "q")
	assert.NoError(t, err)
}

func TestEmbeddingCache_Clear(t *testing.T) {
	svc := ai.NewMockEmbeddingService()
	c := NewEmbeddingCache(svc, 10, nil)
	ctx := context.Background()

	_, err := c.EmbedQuery(ctx, "q")
	require.NoError(t, err)
	c.Clear()

	stats := c.Stats()
	assert.Equal(t, int64(0), stats.Hits)
	assert.Equal(t, int64(0), stats.Misses)
	assert.Equal(t, 0, stats.Size)

	_, err = c.EmbedQuery(ctx, "q")
	require.NoError(t, err)
	assert.Equal(t, int32(2), svc.CallCount.Load(), "cleared key is a miss")
}
