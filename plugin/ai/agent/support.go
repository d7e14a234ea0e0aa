// Package agent orchestrates message handling: order-intent routing, canned
// info answers, and the retrieval pipeline, behind a single entry point
// that never fails.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hadasco/deskrag/internal/i18n"
	"github.com/hadasco/deskrag/plugin/ai/conversation"
	"github.com/hadasco/deskrag/plugin/ai/intent"
	"github.com/hadasco/deskrag/plugin/ai/rag"
	"github.com/hadasco/deskrag/internal/observability"
	"github.com/hadasco/deskrag/store"
)

// memoryKeyLastOrder remembers the last order id a user asked about.
const memoryKeyLastOrder = "last_order_id"

// OrderStore resolves order records for the lookup tool.
type OrderStore interface {
	GetOrder(ctx context.Context, orderID string) (*store.Order, error)
}

// Config carries agent thresholds.
type Config struct {
	// ConfidenceMedium is the threshold under which a response is flagged
	// for human review.
	ConfidenceMedium float64
}

type userLock struct {
	mu       sync.Mutex
	lastUsed time.Time
}

// SupportAgent is the single entry point for inbound support messages.
// Messages from the same user are processed strictly in arrival order;
// different users proceed concurrently.
type SupportAgent struct {
	detector *intent.Detector
	engine   *rag.Engine
	state    *conversation.State
	orders   OrderStore // optional; nil keeps the canned order responses
	config   Config
	logger   *slog.Logger

	mu       sync.Mutex
	locks    map[string]*userLock
	messages atomic.Int64
}

// New creates a support agent.
func New(detector *intent.Detector, engine *rag.Engine, state *conversation.State, orders OrderStore, config Config, logger *slog.Logger) *SupportAgent {
	if config.ConfidenceMedium == 0 {
		config.ConfidenceMedium = 0.5
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SupportAgent{
		detector: detector,
		engine:   engine,
		state:    state,
		orders:   orders,
		config:   config,
		logger:   logger,
		locks:    make(map[string]*userLock),
	}
}

// ProcessMessage answers one inbound message. It never returns an error:
// any failure, including a panic anywhere below, degrades to an error
// status carrying the technical-error message.
func (a *SupportAgent) ProcessMessage(ctx context.Context, query, userID, platform string) (result rag.AnswerResult) {
	reqCtx := observability.NewRequestContext(a.logger, userID, platform)
	defer func() {
		if r := recover(); r != nil {
			reqCtx.Error("message processing panicked", fmt.Errorf("%v", r))
			result = rag.AnswerResult{
				Answer:     i18n.Render(i18n.TemplateTechnicalError, i18n.DetectLang(query)),
				Confidence: 0,
				Status:     rag.StatusError,
			}
		}
	}()

	a.messages.Add(1)
	reqCtx.Info("query received",
		slog.String("query", observability.TruncateForLog(query, 80)))

	unlock := a.lockUser(userID)
	defer unlock()

	switch {
	case a.detector.IsOrderQuery(query, userID):
		result = a.handleOrder(ctx, query, userID)
	default:
		// Any non-order message releases a stale awaiting-order-number
		// state.
		a.detector.ClearWaitingState(userID)
		if topic, ok := intent.ClassifyInfo(query); ok {
			result = a.handleInfo(topic, query)
		} else {
			result = a.answerWithRetrieval(ctx, query, userID)
		}
	}

	if result.Confidence < a.config.ConfidenceMedium &&
		(result.Status == rag.StatusLowConfidence || result.Status == rag.StatusNoContext) {
		reqCtx.Warn("low-confidence response, human review suggested",
			slog.Float64(observability.LogFieldConfidence, result.Confidence))
	}

	reqCtx.Info("response emitted",
		slog.String(observability.LogFieldStatus, result.Status),
		slog.Float64(observability.LogFieldConfidence, result.Confidence),
		slog.Int(observability.LogFieldSources, result.SourcesUsed),
		slog.Int64(observability.LogFieldDuration, reqCtx.DurationMs()))
	return result
}

func (a *SupportAgent) answerWithRetrieval(ctx context.Context, query, userID string) rag.AnswerResult {
	// The context prefix disambiguates follow-up questions during search;
	// the generation prompt keeps the original query.
	enhanced := query
	if prefix := a.state.GetContext(userID); prefix != "" {
		enhanced = prefix + "\n\n" + query
	}

	results := a.engine.Search(ctx, enhanced, 0)
	result := a.engine.GenerateAnswer(ctx, query, results)

	a.state.AddMessage(userID, query, result.Answer, result.Confidence)
	return result
}

func (a *SupportAgent) handleInfo(topic intent.InfoTopic, query string) rag.AnswerResult {
	return rag.AnswerResult{
		Answer:      i18n.Render(infoTemplate(topic), i18n.DetectLang(query)),
		Confidence:  1.0,
		Status:      rag.StatusAgentHandled,
		SourcesUsed: 1,
	}
}

// MessageCount reports how many messages the agent has processed.
func (a *SupportAgent) MessageCount() int64 {
	return a.messages.Load()
}

func (a *SupportAgent) lockUser(userID string) func() {
	a.mu.Lock()
	l, ok := a.locks[userID]
	if !ok {
		l = &userLock{}
		a.locks[userID] = l
	}
	l.lastUsed = time.Now()
	a.mu.Unlock()

	l.mu.Lock()
	return l.mu.Unlock
}

// CleanupInactive drops per-user locks idle for longer than retention.
func (a *SupportAgent) CleanupInactive(retention time.Duration) int {
	cutoff := time.Now().Add(-retention)

	a.mu.Lock()
	defer a.mu.Unlock()

	evicted := 0
	for userID, l := range a.locks {
		if l.lastUsed.Before(cutoff) && l.mu.TryLock() {
			l.mu.Unlock()
			delete(a.locks, userID)
			evicted++
		}
	}
	return evicted
}
