package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/diarist/internal/annotate"
	"github.com/dgallion1/diarist/internal/api"
	"github.com/dgallion1/diarist/internal/config"
	"github.com/dgallion1/diarist/internal/editor"
	"github.com/dgallion1/diarist/internal/emotion"
	"github.com/dgallion1/diarist/internal/entry"
	"github.com/dgallion1/diarist/internal/feedback"
	"github.com/dgallion1/diarist/internal/pipeline"
)

// collaborator is a feedback backend that also reports latency stats.
type collaborator interface {
	feedback.Collaborator
	api.LLMSource
	Close()
}

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	emotions := emotion.Default()
	if cfg.EmotionsFile != "" {
		t, err := emotion.Load(cfg.EmotionsFile)
		if err != nil {
			log.Error("load emotions", "path", cfg.EmotionsFile, "error", err)
			os.Exit(1)
		}
		emotions = t
	}

	repo, err := entry.OpenSQLite(ctx, cfg.DBPath, log)
	if err != nil {
		log.Error("open database", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}

	// Initialize the feedback collaborator.
	var (
		collab feedback.Collaborator = feedback.Disabled{}
		llm    api.LLMSource
		closer func()
	)
	if c := newCollaborator(cfg); c != nil {
		collab, llm, closer = c, c, c.Close
	}
	log.Info("feedback collaborator", "provider", cfg.FeedbackProvider)

	adapter := feedback.NewAdapter(collab, annotate.NewTranslator(cfg.SentenceTerminators...), log)
	registry := editor.NewRegistry(repo, log)

	// Initialize pipeline.
	orch := pipeline.NewOrchestrator(cfg, adapter, registry, repo, log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(orch, registry, repo, emotions, llm, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		orch.Stop()
		if closer != nil {
			closer()
		}
		if err := repo.Close(); err != nil {
			log.Error("close database", "error", err)
		}
	}()

	log.Info("starting diarist", "port", cfg.Port, "db", cfg.DBPath, "emotions", len(emotions.List()))
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	<-stopped
}

func newCollaborator(cfg config.Config) collaborator {
	switch cfg.FeedbackProvider {
	case config.ProviderClaude:
		return feedback.NewClaudeClient(cfg.AnthropicAPIKey, cfg.AnthropicModel)
	case config.ProviderRemote:
		return feedback.NewRemoteClient(cfg.FeedbackURL, cfg.FeedbackAPIKey)
	}
	return nil
}
