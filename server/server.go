// Package server assembles the HTTP surface and owns its lifecycle.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/hadasco/deskrag/internal/profile"
	"github.com/hadasco/deskrag/plugin/ai/agent"
	"github.com/hadasco/deskrag/plugin/ai/conversation"
	apiv1 "github.com/hadasco/deskrag/server/router/api/v1"
	"github.com/hadasco/deskrag/store"
)

// Server is the HTTP front of the support service.
type Server struct {
	e       *echo.Echo
	profile *profile.Profile
	chat    *apiv1.ChatService
	agent   *agent.SupportAgent
	store   *store.Store
	cleanup *conversation.CleanupJob
	logger  *slog.Logger
}

// New assembles the server over the given components.
func New(p *profile.Profile, chat *apiv1.ChatService, supportAgent *agent.SupportAgent, st *store.Store, cleanup *conversation.CleanupJob, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.Recover())

	s := &Server{
		e:       e,
		profile: p,
		chat:    chat,
		agent:   supportAgent,
		store:   st,
		cleanup: cleanup,
		logger:  logger,
	}

	e.GET("/healthz", s.health)
	chat.RegisterRoutes(e.Group("/api/v1"))
	return s
}

// Start runs the server until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.profile.Addr, s.profile.Port)
	s.logger.Info("server starting",
		"addr", addr,
		"mode", s.profile.Mode,
		"version", s.profile.Version)

	s.cleanup.Start(ctx)
	defer s.cleanup.Stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := s.e.Start(addr); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		s.logger.Info("server shutting down")
		return s.e.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (s *Server) health(c echo.Context) error {
	chunks, err := s.store.CountChunks(c.Request().Context())
	status := "ok"
	if err != nil {
		status = "degraded"
		s.logger.Warn("health chunk count failed", "error", err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"status":         status,
		"version":        s.profile.Version,
		"uptimeSeconds":  int64(s.chat.Uptime().Seconds()),
		"messagesServed": s.agent.MessageCount(),
		"indexedChunks":  chunks,
	})
}
