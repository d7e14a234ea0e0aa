// Package indexer ingests the knowledge-base file: it splits documents
// into overlapping chunks, embeds them, and atomically replaces the
// indexed set in the store.
package indexer

import (
	"context"
	"log/slog"
	"time"

	aierrors "github.com/hadasco/deskrag/internal/errors"
	"github.com/hadasco/deskrag/store"
)

// Embedder produces embeddings for document batches, normally the
// embedding cache.
type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
}

// Config controls chunking.
type Config struct {
	KnowledgeBasePath string
	ChunkSize         int
	ChunkOverlap      int
}

// Runner performs one full ingestion pass.
type Runner struct {
	store    *store.Store
	embedder Embedder
	config   Config
	logger   *slog.Logger
}

// NewRunner creates an ingestion runner.
func NewRunner(st *store.Store, embedder Embedder, config Config, logger *slog.Logger) *Runner {
	if config.ChunkSize <= 0 {
		config.ChunkSize = 500
	}
	if config.ChunkOverlap < 0 {
		config.ChunkOverlap = 0
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{store: st, embedder: embedder, config: config, logger: logger}
}

// RunOnce loads, chunks, embeds and stores the knowledge base. Searches
// running concurrently observe either the previous index or the new one.
func (r *Runner) RunOnce(ctx context.Context) error {
	start := time.Now()

	docs, err := store.LoadKnowledgeFile(r.config.KnowledgeBasePath)
	if err != nil {
		return aierrors.KnowledgeLoadFailed("failed to load knowledge base", err)
	}

	chunks := store.ChunkDocuments(docs, r.config.ChunkSize, r.config.ChunkOverlap)
	if len(chunks) == 0 {
		return aierrors.KnowledgeLoadFailed("knowledge base produced no chunks", nil)
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Content
	}

	vectors, err := r.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return err
	}
	if len(vectors) != len(chunks) {
		return aierrors.EmbeddingUnavailable("embedding count does not match chunk count", nil)
	}
	for i := range chunks {
		chunks[i].Embedding = vectors[i]
	}

	if err := r.store.ReplaceChunks(ctx, chunks); err != nil {
		return err
	}

	r.logger.Info("knowledge base indexed",
		"documents", len(docs),
		"chunks", len(chunks),
		"duration_ms", time.Since(start).Milliseconds())
	return nil
}
