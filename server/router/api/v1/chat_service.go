// Package v1 exposes the chat API over HTTP.
package v1

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hadasco/deskrag/internal/i18n"
	"github.com/hadasco/deskrag/internal/profile"
	"github.com/hadasco/deskrag/plugin/ai/agent"
	"github.com/hadasco/deskrag/plugin/ai/cache"
	"github.com/hadasco/deskrag/plugin/ai/conversation"
	"github.com/hadasco/deskrag/plugin/ai/intent"
	"github.com/hadasco/deskrag/plugin/ai/rag"
	"github.com/hadasco/deskrag/server/middleware"
)

// estimatedCostPerCall approximates the API cost avoided by one cache hit,
// used for the savings line in cache reports.
const estimatedCostPerCall = 0.002

// ChatService wires the support agent and its caches to HTTP routes.
type ChatService struct {
	profile    *profile.Profile
	agent      *agent.SupportAgent
	detector   *intent.Detector
	state      *conversation.State
	embedding  *cache.EmbeddingCache
	generation *cache.GenerationCache
	limiter    *middleware.RateLimiter
	startTime  time.Time
}

// NewChatService creates the chat API service.
func NewChatService(
	p *profile.Profile,
	supportAgent *agent.SupportAgent,
	detector *intent.Detector,
	state *conversation.State,
	embedding *cache.EmbeddingCache,
	generation *cache.GenerationCache,
) *ChatService {
	return &ChatService{
		profile:    p,
		agent:      supportAgent,
		detector:   detector,
		state:      state,
		embedding:  embedding,
		generation: generation,
		limiter:    middleware.NewRateLimiter(p.RateLimitPerSecond, p.RateLimitBurst),
		startTime:  time.Now(),
	}
}

// RegisterRoutes mounts the chat API on the given group.
func (s *ChatService) RegisterRoutes(g *echo.Group) {
	g.POST("/chat", s.Chat)
	g.POST("/chat/reset", s.ResetChat)
	g.GET("/chat/stats", s.ChatStats)
	g.GET("/cache", s.CacheInfo)
	g.POST("/cache/clear", s.ClearCache)
}

// ChatRequest is one inbound user message.
type ChatRequest struct {
	Message  string `json:"message"`
	UserID   string `json:"userId"`
	Platform string `json:"platform"`
}

// ChatResponse carries the answer back to the transport.
type ChatResponse struct {
	Answer      string  `json:"answer"`
	Confidence  float64 `json:"confidence"`
	Status      string  `json:"status"`
	SourcesUsed int     `json:"sourcesUsed"`
}

// Chat answers one message.
func (s *ChatService) Chat(c echo.Context) error {
	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request")
	}
	if req.Message == "" || req.UserID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "message and userId are required")
	}
	if req.Platform == "" {
		req.Platform = "api"
	}

	if !s.limiter.Allow(req.UserID) {
		return c.JSON(http.StatusTooManyRequests, ChatResponse{
			Answer: i18n.Render(i18n.TemplateRateLimited, i18n.DetectLang(req.Message)),
			Status: "rate_limited",
		})
	}

	result := s.agent.ProcessMessage(c.Request().Context(), req.Message, req.UserID, req.Platform)

	answer := result.Answer
	if result.Status != rag.StatusOrderHandled && result.Status != rag.StatusOrderWaiting {
		answer += i18n.Render(i18n.TemplateConfidencePct, i18n.LangEnglish,
			int(result.Confidence*100))
	}

	return c.JSON(http.StatusOK, ChatResponse{
		Answer:      answer,
		Confidence:  result.Confidence,
		Status:      result.Status,
		SourcesUsed: result.SourcesUsed,
	})
}

// ResetRequest identifies whose conversation to reset.
type ResetRequest struct {
	UserID string `json:"userId"`
}

// ResetChat clears the user's conversation context and any pending order
// state. Memory survives a reset.
func (s *ChatService) ResetChat(c echo.Context) error {
	var req ResetRequest
	if err := c.Bind(&req); err != nil || req.UserID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "userId is required")
	}

	s.state.ClearContext(req.UserID)
	s.detector.ClearWaitingState(req.UserID)

	return c.JSON(http.StatusOK, map[string]string{
		"message": i18n.Render(i18n.TemplateReset, i18n.LangEnglish),
	})
}

// ChatStats reports per-user conversation state plus embedding-cache stats.
func (s *ChatService) ChatStats(c echo.Context) error {
	userID := c.QueryParam("userId")
	if userID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "userId is required")
	}

	conversationStatus := "empty"
	if s.state.HasContext(userID) {
		conversationStatus = "active"
	}

	stats := s.embedding.Stats()
	message := i18n.Render(i18n.TemplateStats, i18n.LangEnglish,
		userID,
		conversationStatus,
		s.profile.LLMModel,
		stats.HitRate(),
		stats.Hits,
		stats.Misses,
		stats.Size,
		stats.Capacity,
	)

	return c.JSON(http.StatusOK, map[string]string{"message": message})
}

// CacheInfo reports combined cache statistics. Admin only.
func (s *ChatService) CacheInfo(c echo.Context) error {
	if err := s.requireAdmin(c); err != nil {
		return err
	}

	embedding := s.embedding.Stats()
	generation := s.generation.Stats()

	hits := embedding.Hits + generation.Hits
	misses := embedding.Misses + generation.Misses
	size := embedding.Size + generation.Size
	capacity := embedding.Capacity + generation.Capacity

	hitRate := 0.0
	if hits+misses > 0 {
		hitRate = float64(hits) / float64(hits+misses)
	}

	message := i18n.Render(i18n.TemplateCacheInfo, i18n.LangEnglish,
		hits, misses, size, capacity,
		hitRate*100,
		float64(hits)*estimatedCostPerCall,
	)
	return c.JSON(http.StatusOK, map[string]string{"message": message})
}

// ClearCache empties both caches. Admin only.
func (s *ChatService) ClearCache(c echo.Context) error {
	if err := s.requireAdmin(c); err != nil {
		return err
	}

	s.embedding.Clear()
	s.generation.Clear()

	return c.JSON(http.StatusOK, map[string]string{
		"message": i18n.Render(i18n.TemplateCacheCleared, i18n.LangEnglish),
	})
}

func (s *ChatService) requireAdmin(c echo.Context) error {
	userID := c.QueryParam("userId")
	if userID == "" {
		userID = c.Request().Header.Get("X-User-Id")
	}
	if !s.profile.IsAdmin(userID) {
		return echo.NewHTTPError(http.StatusForbidden,
			i18n.Render(i18n.TemplateAdminOnly, i18n.LangEnglish))
	}
	return nil
}

// Uptime reports how long the service has been up.
func (s *ChatService) Uptime() time.Duration {
	return time.Since(s.startTime)
}
