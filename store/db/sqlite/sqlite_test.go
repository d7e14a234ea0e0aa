package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hadasco/deskrag/internal/profile"
	"github.com/hadasco/deskrag/store"
)

func newTestDB(t *testing.T) store.Driver {
	t.Helper()
	d, err := NewDB(&profile.Profile{Driver: "sqlite", DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	return d
}

func TestDB_ReplaceAndSearch(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()

	chunks := []*store.Chunk{
		{DocID: "d1", Seq: 0, Content: "shipping takes 2-5 days", Metadata: map[string]string{"title": "Shipping"}, Embedding: []float32{1, 0, 0}},
		{DocID: "d2", Seq: 0, Content: "refunds within 24 hours", Metadata: map[string]string{"title": "Refunds"}, Embedding: []float32{0, 1, 0}},
	}
	require.NoError(t, d.ReplaceChunks(ctx, chunks))

	count, err := d.CountChunks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	results, err := d.VectorSearch(ctx, []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "shipping takes 2-5 days", results[0].Content)
	assert.InDelta(t, 0, results[0].Distance, 1e-6)
	assert.Equal(t, "Refunds", results[1].Metadata["title"])
	assert.InDelta(t, 1, results[1].Distance, 1e-6)
}

func TestDB_ReplaceChunksSwapsIndex(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()

	first := []*store.Chunk{{DocID: "d1", Content: "old", Embedding: []float32{1, 0}}}
	require.NoError(t, d.ReplaceChunks(ctx, first))

	second := []*store.Chunk{{DocID: "d2", Content: "new", Embedding: []float32{1, 0}}}
	require.NoError(t, d.ReplaceChunks(ctx, second))

	results, err := d.VectorSearch(ctx, []float32{1, 0}, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "new", results[0].Content)
}

func TestDB_VectorSearchLimit(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()

	chunks := []*store.Chunk{
		{DocID: "a", Content: "a", Embedding: []float32{1, 0}},
		{DocID: "b", Content: "b", Embedding: []float32{0, 1}},
		{DocID: "c", Content: "c", Embedding: []float32{1, 1}},
	}
	require.NoError(t, d.ReplaceChunks(ctx, chunks))

	results, err := d.VectorSearch(ctx, []float32{1, 0}, 2)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestDB_GetOrderNotFound(t *testing.T) {
	d := newTestDB(t)

	_, err := d.GetOrder(context.Background(), "13354")
	assert.ErrorIs(t, err, store.ErrOrderNotFound)
}

func TestCosineDistance(t *testing.T) {
	assert.InDelta(t, 0, cosineDistance([]float32{1, 2}, []float32{2, 4}), 1e-9)
	assert.InDelta(t, 1, cosineDistance([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, 2, cosineDistance([]float32{1, 0}, []float32{-1, 0}), 1e-9)
	assert.Equal(t, float64(2), cosineDistance([]float32{1}, []float32{1, 2}))
	assert.Equal(t, float64(2), cosineDistance([]float32{0, 0}, []float32{1, 0}))
}
