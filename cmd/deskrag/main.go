package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hadasco/deskrag/internal/profile"
	"github.com/hadasco/deskrag/plugin/ai"
	"github.com/hadasco/deskrag/plugin/ai/agent"
	"github.com/hadasco/deskrag/plugin/ai/cache"
	"github.com/hadasco/deskrag/plugin/ai/conversation"
	"github.com/hadasco/deskrag/plugin/ai/intent"
	"github.com/hadasco/deskrag/plugin/ai/rag"
	"github.com/hadasco/deskrag/server"
	apiv1 "github.com/hadasco/deskrag/server/router/api/v1"
	"github.com/hadasco/deskrag/server/runner/indexer"
	"github.com/hadasco/deskrag/store"
	"github.com/hadasco/deskrag/store/db"
)

var version = "0.1.0"

func main() {
	root := &cobra.Command{
		Use:   "deskrag",
		Short: "Retrieval-grounded customer-support answering service",
	}
	root.AddCommand(newServeCommand(), newIndexCommand())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the chat API server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p := profile.FromEnv(version)
			if err := p.Validate(); err != nil {
				return err
			}
			logger := setupLogger(p)

			driver, err := db.NewDriver(p)
			if err != nil {
				return err
			}
			defer driver.Close()
			knowledge := store.New(driver, logger)

			cfg := ai.NewConfigFromProfile(p)
			embedding := cache.NewEmbeddingCache(
				ai.NewEmbeddingService(&cfg.Embedding), p.EmbeddingCacheSize, logger)
			generation := cache.NewGenerationCache(
				ai.NewLLMService(&cfg.LLM), p.GenerationCacheSize, logger)

			state := conversation.New(p.MaxConversationHistory, logger)
			detector := intent.NewDetector(logger)

			engine := rag.NewEngine(embedding, generation, knowledge, rag.Config{
				MaxResults:       p.MaxRetrievalResults,
				ConfidenceHigh:   p.ConfidenceHigh,
				ConfidenceMedium: p.ConfidenceMedium,
				SearchTimeout:    p.SearchTimeout,
				GenerateTimeout:  p.GenerateTimeout,
			}, logger)

			supportAgent := agent.New(detector, engine, state, knowledge, agent.Config{
				ConfidenceMedium: p.ConfidenceMedium,
			}, logger)

			cleanup := conversation.NewCleanupJob(conversation.CleanupConfig{
				Retention:       p.ConversationRetention,
				CleanupInterval: p.StateCleanupInterval,
			}, state, detector, supportAgent)

			chat := apiv1.NewChatService(p, supportAgent, detector, state, embedding, generation)
			srv := server.New(p, chat, supportAgent, knowledge, cleanup, logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return srv.Start(ctx)
		},
	}
}

func newIndexCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "index",
		Short: "Ingest the knowledge base into the vector store",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p := profile.FromEnv(version)
			if err := p.Validate(); err != nil {
				return err
			}
			logger := setupLogger(p)

			driver, err := db.NewDriver(p)
			if err != nil {
				return err
			}
			defer driver.Close()
			knowledge := store.New(driver, logger)

			cfg := ai.NewConfigFromProfile(p)
			embedding := cache.NewEmbeddingCache(
				ai.NewEmbeddingService(&cfg.Embedding), p.EmbeddingCacheSize, logger)

			runner := indexer.NewRunner(knowledge, embedding, indexer.Config{
				KnowledgeBasePath: p.KnowledgeBasePath,
				ChunkSize:         p.ChunkSize,
				ChunkOverlap:      p.ChunkOverlap,
			}, logger)

			if err := runner.RunOnce(cmd.Context()); err != nil {
				return err
			}

			count, err := knowledge.CountChunks(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("indexed %d chunks from %s\n", count, p.KnowledgeBasePath)
			return nil
		},
	}
}

func setupLogger(p *profile.Profile) *slog.Logger {
	var handler slog.Handler
	if p.IsDev() {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}
