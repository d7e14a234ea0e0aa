// Package rag turns a support question into a grounded answer: vector
// retrieval over the knowledge store, distance-based confidence scoring,
// prompt assembly from labeled sources, and generation through the cache.
package rag

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hadasco/deskrag/internal/i18n"
	"github.com/hadasco/deskrag/store"
)

// Answer statuses.
const (
	StatusHighConfidence   = "high_confidence"
	StatusMediumConfidence = "medium_confidence"
	StatusLowConfidence    = "low_confidence"
	StatusNoContext        = "no_context"
	StatusError            = "error"
	StatusOrderHandled     = "order_handled"
	StatusOrderWaiting     = "order_waiting"
	StatusAgentHandled     = "agent_handled"
)

// AnswerResult is the outcome of answering one query.
type AnswerResult struct {
	Answer      string  `json:"answer"`
	Confidence  float64 `json:"confidence"`
	Status      string  `json:"status"`
	SourcesUsed int     `json:"sourcesUsed"`
}

// Embedder produces a query embedding, normally the embedding cache.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Generator produces a completion for a prompt, normally the generation
// cache.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Searcher runs vector search over indexed knowledge.
type Searcher interface {
	VectorSearch(ctx context.Context, vector []float32, limit int) ([]*store.SearchResult, error)
}

// Config carries the engine thresholds and timeouts.
type Config struct {
	MaxResults       int
	ConfidenceHigh   float64
	ConfidenceMedium float64
	SearchTimeout    time.Duration
	GenerateTimeout  time.Duration
}

// Engine is the retrieval-answering pipeline.
type Engine struct {
	embedder  Embedder
	generator Generator
	searcher  Searcher
	config    Config
	logger    *slog.Logger
}

// NewEngine creates an engine over the given collaborators.
func NewEngine(embedder Embedder, generator Generator, searcher Searcher, config Config, logger *slog.Logger) *Engine {
	if config.MaxResults <= 0 {
		config.MaxResults = 3
	}
	if config.ConfidenceHigh == 0 {
		config.ConfidenceHigh = 0.8
	}
	if config.ConfidenceMedium == 0 {
		config.ConfidenceMedium = 0.5
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		embedder:  embedder,
		generator: generator,
		searcher:  searcher,
		config:    config,
		logger:    logger,
	}
}

// Search embeds the query and retrieves the closest chunks. Collaborator
// failures degrade to an empty result list; the caller then answers with
// the no-context fallback instead of surfacing an error.
func (e *Engine) Search(ctx context.Context, query string, limit int) []*store.SearchResult {
	if limit <= 0 {
		limit = e.config.MaxResults
	}

	vector, err := e.embedder.EmbedQuery(ctx, query)
	if err != nil {
		e.logger.Error("query embedding failed", "error", err)
		return nil
	}

	if e.config.SearchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.config.SearchTimeout)
		defer cancel()
	}

	results, err := e.searcher.VectorSearch(ctx, vector, limit)
	if err != nil {
		e.logger.Error("vector search failed", "error", err)
		return nil
	}
	return results
}

// GenerateAnswer builds the grounded answer for the query from the given
// search results.
func (e *Engine) GenerateAnswer(ctx context.Context, query string, results []*store.SearchResult) AnswerResult {
	if len(results) == 0 {
		return AnswerResult{
			Answer:      i18n.Render(i18n.TemplateNoContext, i18n.DetectLang(query)),
			Confidence:  0,
			Status:      StatusNoContext,
			SourcesUsed: 0,
		}
	}

	confidence := Confidence(results)
	prompt := e.buildPrompt(query, results)

	if e.config.GenerateTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.config.GenerateTimeout)
		defer cancel()
	}

	answer, err := e.generator.Generate(ctx, prompt)
	if err != nil {
		e.logger.Error("answer generation failed", "error", err)
		return AnswerResult{
			Answer:      i18n.Render(i18n.TemplateTechnicalError, i18n.DetectLang(query)),
			Confidence:  0,
			Status:      StatusError,
			SourcesUsed: 0,
		}
	}

	status := StatusLowConfidence
	switch {
	case confidence >= e.config.ConfidenceHigh:
		status = StatusHighConfidence
	case confidence >= e.config.ConfidenceMedium:
		status = StatusMediumConfidence
	}

	marker := i18n.Marker(confidence, e.config.ConfidenceHigh, e.config.ConfidenceMedium)
	return AnswerResult{
		Answer:      fmt.Sprintf("%s %s", marker, answer),
		Confidence:  confidence,
		Status:      status,
		SourcesUsed: len(results),
	}
}

// Confidence maps the average cosine distance of the results onto [0, 1]:
// clamp(1 - avg/2, 0, 1). Distance 0 gives 1.0, distance 2 gives 0.0.
func Confidence(results []*store.SearchResult) float64 {
	if len(results) == 0 {
		return 0
	}
	var sum float64
	for _, r := range results {
		sum += r.Distance
	}
	confidence := 1 - (sum/float64(len(results)))/2
	if confidence < 0 {
		return 0
	}
	if confidence > 1 {
		return 1
	}
	return confidence
}

func (e *Engine) buildPrompt(query string, results []*store.SearchResult) string {
	sources := make([]string, 0, len(results))
	for i, result := range results {
		sources = append(sources,
			i18n.Render(i18n.TemplatePromptSource, i18n.LangHebrew, i+1, result.Content))
	}
	return i18n.Render(i18n.TemplatePrompt, i18n.LangHebrew,
		strings.Join(sources, "\n\n"), query)
}
