package agent

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hadasco/deskrag/plugin/ai"
	"github.com/hadasco/deskrag/plugin/ai/cache"
	"github.com/hadasco/deskrag/plugin/ai/conversation"
	"github.com/hadasco/deskrag/plugin/ai/intent"
	"github.com/hadasco/deskrag/plugin/ai/rag"
	"github.com/hadasco/deskrag/store"
)

type fakeSearcher struct {
	results []*store.SearchResult
	err     error
	panics  bool
}

func (f *fakeSearcher) VectorSearch(context.Context, []float32, int) ([]*store.SearchResult, error) {
	if f.panics {
		panic("searcher exploded")
	}
	return f.results, f.err
}

type fakeOrders struct {
	orders map[string]*store.Order
	err    error
}

func (f *fakeOrders) GetOrder(_ context.Context, orderID string) (*store.Order, error) {
	if f.err != nil {
		return nil, f.err
	}
	if order, ok := f.orders[orderID]; ok {
		return order, nil
	}
	return nil, store.ErrOrderNotFound
}

type testAgent struct {
	agent *SupportAgent
	llm   *ai.MockLLMService
	state *conversation.State
}

func newTestAgent(t *testing.T, searcher rag.Searcher, orders OrderStore) *testAgent {
	t.Helper()

	embedder := cache.NewEmbeddingCache(ai.NewMockEmbeddingService(), 10, nil)
	llm := ai.NewMockLLMService()
	generator := cache.NewGenerationCache(llm, 10, nil)
	engine := rag.NewEngine(embedder, generator, searcher, rag.Config{}, nil)
	state := conversation.New(5, nil)

	return &testAgent{
		agent: New(intent.NewDetector(nil), engine, state, orders, Config{}, nil),
		llm:   llm,
		state: state,
	}
}

func TestProcessMessage_NoContext(t *testing.T) {
	ta := newTestAgent(t, &fakeSearcher{}, nil)

	result := ta.agent.ProcessMessage(context.Background(), "do you sell hats?", "u1", "telegram")

	assert.Equal(t, rag.StatusNoContext, result.Status)
	assert.Equal(t, 0.0, result.Confidence)
	assert.Equal(t, 0, result.SourcesUsed)
	assert.Equal(t, int32(0), ta.llm.CallCount.Load(), "no generation without retrieved context")
}

func TestProcessMessage_HighConfidence(t *testing.T) {
	searcher := &fakeSearcher{results: []*store.SearchResult{
		{Content: "we ship within 2-5 business days", Distance: 0.4},
	}}
	ta := newTestAgent(t, searcher, nil)

	result := ta.agent.ProcessMessage(context.Background(), "how fast is delivery?", "u1", "telegram")

	assert.Equal(t, rag.StatusHighConfidence, result.Status)
	assert.InDelta(t, 0.8, result.Confidence, 1e-9)
	assert.Equal(t, 1, result.SourcesUsed)
	assert.Equal(t, int32(1), ta.llm.CallCount.Load())
	assert.True(t, ta.state.HasContext("u1"), "answered turn is recorded")
}

func TestProcessMessage_OrderFlow(t *testing.T) {
	ta := newTestAgent(t, &fakeSearcher{}, nil)
	ctx := context.Background()

	first := ta.agent.ProcessMessage(ctx, "do you have an order tool?", "u1", "telegram")
	assert.Equal(t, rag.StatusOrderWaiting, first.Status)
	assert.Contains(t, first.Answer, "order number")

	second := ta.agent.ProcessMessage(ctx, "13354", "u1", "telegram")
	assert.Equal(t, rag.StatusOrderHandled, second.Status)
	assert.Equal(t, 1.0, second.Confidence)
	assert.Contains(t, second.Answer, "13354")

	// The waiting state did not survive the lookup.
	third := ta.agent.ProcessMessage(ctx, "do you sell hats?", "u1", "telegram")
	assert.Equal(t, rag.StatusNoContext, third.Status)
}

func TestProcessMessage_OrderStoreBacked(t *testing.T) {
	orders := &fakeOrders{orders: map[string]*store.Order{
		"12345": {ID: "12345", Status: "shipped", TrackingID: "998877"},
	}}
	ta := newTestAgent(t, &fakeSearcher{}, orders)
	ctx := context.Background()

	t.Run("Found", func(t *testing.T) {
		result := ta.agent.ProcessMessage(ctx, "ORD-12345", "u1", "telegram")
		assert.Equal(t, rag.StatusOrderHandled, result.Status)
		assert.Contains(t, result.Answer, "ORD-12345")
		assert.Contains(t, result.Answer, "IL-998877")
	})

	t.Run("NotFound", func(t *testing.T) {
		result := ta.agent.ProcessMessage(ctx, "#55555", "u2", "telegram")
		assert.Equal(t, rag.StatusOrderHandled, result.Status)
		assert.Contains(t, result.Answer, "55555")
		assert.NotContains(t, result.Answer, "IL-")
	})
}

func TestProcessMessage_RemembersLastOrder(t *testing.T) {
	ta := newTestAgent(t, &fakeSearcher{}, nil)
	ctx := context.Background()

	ta.agent.ProcessMessage(ctx, "ORD-12345", "u1", "telegram")

	// A later order question without a number reuses the remembered id
	// instead of asking again.
	result := ta.agent.ProcessMessage(ctx, "where is my order?", "u1", "telegram")
	assert.Equal(t, rag.StatusOrderHandled, result.Status)
	assert.Contains(t, result.Answer, "12345")
}

func TestProcessMessage_InfoRoute(t *testing.T) {
	ta := newTestAgent(t, &fakeSearcher{}, nil)

	result := ta.agent.ProcessMessage(context.Background(), "what are your opening hours?", "u1", "telegram")

	assert.Equal(t, rag.StatusAgentHandled, result.Status)
	assert.Equal(t, 1.0, result.Confidence)
	assert.Equal(t, 1, result.SourcesUsed)
	assert.Contains(t, result.Answer, "09:00")
	assert.Equal(t, int32(0), ta.llm.CallCount.Load())
}

func TestProcessMessage_NeverPanics(t *testing.T) {
	ta := newTestAgent(t, &fakeSearcher{panics: true}, nil)

	var result rag.AnswerResult
	require.NotPanics(t, func() {
		result = ta.agent.ProcessMessage(context.Background(), "do you sell hats?", "u1", "telegram")
	})
	assert.Equal(t, rag.StatusError, result.Status)
	assert.Equal(t, 0.0, result.Confidence)
	assert.NotEmpty(t, result.Answer)
}

func TestProcessMessage_ContextPrefixFeedsSearch(t *testing.T) {
	searcher := &fakeSearcher{results: []*store.SearchResult{
		{Content: "the blue shirt comes in sizes S to XL", Distance: 0.2},
	}}
	ta := newTestAgent(t, searcher, nil)
	ctx := context.Background()

	ta.agent.ProcessMessage(ctx, "tell me about the blue shirt", "u1", "telegram")
	result := ta.agent.ProcessMessage(ctx, "which sizes does it come in?", "u1", "telegram")

	assert.Equal(t, rag.StatusHighConfidence, result.Status)
	require.Len(t, ta.state.History("u1"), 2)
	assert.True(t, strings.HasPrefix(ta.state.History("u1")[1].Query, "which sizes"))
}

func TestMessageCount(t *testing.T) {
	ta := newTestAgent(t, &fakeSearcher{}, nil)
	ctx := context.Background()

	ta.agent.ProcessMessage(ctx, "a?", "u1", "telegram")
	ta.agent.ProcessMessage(ctx, "b?", "u2", "telegram")

	assert.Equal(t, int64(2), ta.agent.MessageCount())
}
