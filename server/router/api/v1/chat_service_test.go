package v1

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hadasco/deskrag/internal/profile"
	"github.com/hadasco/deskrag/plugin/ai"
	"github.com/hadasco/deskrag/plugin/ai/agent"
	"github.com/hadasco/deskrag/plugin/ai/cache"
	"github.com/hadasco/deskrag/plugin/ai/conversation"
	"github.com/hadasco/deskrag/plugin/ai/intent"
	"github.com/hadasco/deskrag/plugin/ai/rag"
	"github.com/hadasco/deskrag/store"
)

type stubSearcher struct {
	results []*store.SearchResult
}

func (s *stubSearcher) VectorSearch(context.Context, []float32, int) ([]*store.SearchResult, error) {
	return s.results, nil
}

func newTestService(t *testing.T, p *profile.Profile, searcher rag.Searcher) *ChatService {
	t.Helper()

	embedding := cache.NewEmbeddingCache(ai.NewMockEmbeddingService(), 10, nil)
	generation := cache.NewGenerationCache(ai.NewMockLLMService(), 10, nil)
	engine := rag.NewEngine(embedding, generation, searcher, rag.Config{}, nil)
	state := conversation.New(5, nil)
	detector := intent.NewDetector(nil)
	supportAgent := agent.New(detector, engine, state, nil, agent.Config{}, nil)

	return NewChatService(p, supportAgent, detector, state, embedding, generation)
}

func testProfile() *profile.Profile {
	return &profile.Profile{
		LLMModel:           "gpt-3.5-turbo",
		RateLimitPerSecond: 1000,
		RateLimitBurst:     1000,
		AdminIDs:           []string{"admin"},
	}
}

func doJSON(t *testing.T, handler echo.HandlerFunc, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := handler(c)
	if err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func TestChat_AppendsConfidenceSuffix(t *testing.T) {
	searcher := &stubSearcher{results: []*store.SearchResult{
		{Content: "we ship in 2-5 days", Distance: 0.4},
	}}
	s := newTestService(t, testProfile(), searcher)

	rec := doJSON(t, s.Chat, http.MethodPost, "/api/v1/chat",
		`{"message":"how fast is delivery?","userId":"u1","platform":"telegram"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, rag.StatusHighConfidence, resp.Status)
	assert.Contains(t, resp.Answer, "Confidence: 80%")
}

func TestChat_OrderStatusSkipsSuffix(t *testing.T) {
	s := newTestService(t, testProfile(), &stubSearcher{})

	rec := doJSON(t, s.Chat, http.MethodPost, "/api/v1/chat",
		`{"message":"where is my order?","userId":"u1"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, rag.StatusOrderWaiting, resp.Status)
	assert.NotContains(t, resp.Answer, "Confidence:")
}

func TestChat_ValidatesInput(t *testing.T) {
	s := newTestService(t, testProfile(), &stubSearcher{})

	rec := doJSON(t, s.Chat, http.MethodPost, "/api/v1/chat", `{"message":"","userId":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChat_RateLimited(t *testing.T) {
	p := testProfile()
	p.RateLimitPerSecond = 0.001
	p.RateLimitBurst = 1
	s := newTestService(t, p, &stubSearcher{})

	first := doJSON(t, s.Chat, http.MethodPost, "/api/v1/chat",
		`{"message":"hello there","userId":"u1"}`)
	require.Equal(t, http.StatusOK, first.Code)

	second := doJSON(t, s.Chat, http.MethodPost, "/api/v1/chat",
		`{"message":"hello again","userId":"u1"}`)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}

func TestResetChat(t *testing.T) {
	s := newTestService(t, testProfile(), &stubSearcher{results: []*store.SearchResult{
		{Content: "c", Distance: 0.2},
	}})

	doJSON(t, s.Chat, http.MethodPost, "/api/v1/chat",
		`{"message":"tell me about shirts","userId":"u1"}`)
	require.True(t, s.state.HasContext("u1"))

	rec := doJSON(t, s.ResetChat, http.MethodPost, "/api/v1/chat/reset", `{"userId":"u1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, s.state.HasContext("u1"))
}

func TestChatStats(t *testing.T) {
	s := newTestService(t, testProfile(), &stubSearcher{})

	rec := doJSON(t, s.ChatStats, http.MethodGet, "/api/v1/chat/stats?userId=u1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "u1")
	assert.Contains(t, rec.Body.String(), "gpt-3.5-turbo")
}

func TestCacheEndpoints_AdminGated(t *testing.T) {
	s := newTestService(t, testProfile(), &stubSearcher{})

	t.Run("Forbidden", func(t *testing.T) {
		rec := doJSON(t, s.CacheInfo, http.MethodGet, "/api/v1/cache?userId=u1", "")
		assert.Equal(t, http.StatusForbidden, rec.Code)

		rec = doJSON(t, s.ClearCache, http.MethodPost, "/api/v1/cache/clear?userId=u1", "")
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("Admin", func(t *testing.T) {
		rec := doJSON(t, s.CacheInfo, http.MethodGet, "/api/v1/cache?userId=admin", "")
		assert.Equal(t, http.StatusOK, rec.Code)

		doJSON(t, s.Chat, http.MethodPost, "/api/v1/chat",
			`{"message":"do you sell hats?","userId":"admin"}`)
		require.Positive(t, s.embedding.Stats().Misses)

		rec = doJSON(t, s.ClearCache, http.MethodPost, "/api/v1/cache/clear?userId=admin", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, int64(0), s.embedding.Stats().Misses)
		assert.Equal(t, 0, s.generation.Stats().Size)
	})
}
