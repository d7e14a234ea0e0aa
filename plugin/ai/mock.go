package ai

import (
	"context"
	"fmt"
	"sync/atomic"
)

// MockEmbeddingService is a mock implementation of EmbeddingService for testing.
type MockEmbeddingService struct {
	EmbedFunc      func(ctx context.Context, text string) ([]float32, error)
	EmbedBatchFunc func(ctx context.Context, texts []string) ([][]float32, error)
	CallCount      atomic.Int32
	BatchCallCount atomic.Int32
}

// NewMockEmbeddingService creates a mock that returns a fixed small vector
// per text unless overridden.
func NewMockEmbeddingService() *MockEmbeddingService {
	return &MockEmbeddingService{}
}

// Embed generates a deterministic vector or delegates to EmbedFunc.
func (m *MockEmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	m.CallCount.Add(1)
	if m.EmbedFunc != nil {
		return m.EmbedFunc(ctx, text)
	}
	return []float32{float32(len(text)), 1, 0}, nil
}

// EmbedBatch generates one vector per text or delegates to EmbedBatchFunc.
func (m *MockEmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	m.BatchCallCount.Add(1)
	if m.EmbedBatchFunc != nil {
		return m.EmbedBatchFunc(ctx, texts)
	}
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = []float32{float32(len(text)), 1, 0}
	}
	return vectors, nil
}

// Dimensions returns the mock vector width.
func (m *MockEmbeddingService) Dimensions() int {
	return 3
}

// MockLLMService is a mock implementation of LLMService for testing.
type MockLLMService struct {
	GenerateFunc func(ctx context.Context, prompt string) (string, error)
	CallCount    atomic.Int32
}

// NewMockLLMService creates a mock that echoes a canned answer unless
// overridden.
func NewMockLLMService() *MockLLMService {
	return &MockLLMService{}
}

// Generate returns a canned answer or delegates to GenerateFunc.
func (m *MockLLMService) Generate(ctx context.Context, prompt string) (string, error) {
	m.CallCount.Add(1)
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, prompt)
	}
	return fmt.Sprintf("answer for %d chars", len(prompt)), nil
}

// Ensure mocks satisfy the collaborator interfaces.
var (
	_ EmbeddingService = (*MockEmbeddingService)(nil)
	_ LLMService       = (*MockLLMService)(nil)
)
