// Package store defines the knowledge persistence contract: chunked
// knowledge documents with embeddings for vector search, and order records
// for the order-lookup tool.
package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"
)

// ErrOrderNotFound is returned when an order id has no record.
var ErrOrderNotFound = errors.New("order not found")

// Chunk is one indexed slice of a knowledge document.
type Chunk struct {
	ID        int64
	DocID     string
	Seq       int
	Content   string
	Metadata  map[string]string
	Embedding []float32
	CreatedTs int64
}

// SearchResult is a chunk matched by vector search, with its cosine
// distance to the query vector. Distance 0 is identical, 2 is opposite.
type SearchResult struct {
	Content  string
	Metadata map[string]string
	Distance float64
}

// Order is a customer order record.
type Order struct {
	ID         string
	Status     string
	TrackingID string
	UpdatedTs  int64
}

// Driver is the database-specific persistence backend.
type Driver interface {
	// ReplaceChunks atomically swaps the indexed chunks of a document set.
	// Readers observe either the old or the new chunks, never a mix.
	ReplaceChunks(ctx context.Context, chunks []*Chunk) error
	// VectorSearch returns up to limit chunks ordered by ascending cosine
	// distance to the query vector.
	VectorSearch(ctx context.Context, vector []float32, limit int) ([]*SearchResult, error)
	// CountChunks reports how many chunks are indexed.
	CountChunks(ctx context.Context) (int, error)
	// GetOrder returns the order with the given id, or ErrOrderNotFound.
	GetOrder(ctx context.Context, orderID string) (*Order, error)

	Close() error
}

// Store wraps a Driver with logging.
type Store struct {
	driver Driver
	logger *slog.Logger
}

// New creates a store over the given driver.
func New(driver Driver, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{driver: driver, logger: logger}
}

func (s *Store) ReplaceChunks(ctx context.Context, chunks []*Chunk) error {
	start := time.Now()
	if err := s.driver.ReplaceChunks(ctx, chunks); err != nil {
		return errors.Wrap(err, "failed to replace chunks")
	}
	s.logger.Info("knowledge chunks replaced",
		"count", len(chunks),
		"duration_ms", time.Since(start).Milliseconds())
	return nil
}

func (s *Store) VectorSearch(ctx context.Context, vector []float32, limit int) ([]*SearchResult, error) {
	results, err := s.driver.VectorSearch(ctx, vector, limit)
	if err != nil {
		return nil, errors.Wrap(err, "vector search failed")
	}
	return results, nil
}

func (s *Store) CountChunks(ctx context.Context) (int, error) {
	return s.driver.CountChunks(ctx)
}

func (s *Store) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	return s.driver.GetOrder(ctx, orderID)
}

func (s *Store) Close() error {
	return s.driver.Close()
}
