package main

import (
	"context"
	"os"
	"time"

	"docrag/internal/activities"
	"docrag/internal/app"
	"docrag/internal/config"
	"docrag/internal/util"
	"docrag/internal/workflows"

	"github.com/joho/godotenv"
	"go.temporal.io/sdk/client"
	tlog "go.temporal.io/sdk/log"
	"go.temporal.io/sdk/worker"
)

func main() {
	_ = godotenv.Load(".env")
	cfg, err := config.LoadFile(os.Getenv("DOCRAG_CONFIG"))
	logger := util.NewLogger(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	if err != nil {
		logger.Error("load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("init", "error", err)
		os.Exit(1)
	}
	defer a.Close()
	if err := a.Start(context.Background()); err != nil {
		logger.Error("startup", "error", err)
		os.Exit(1)
	}

	c, err := client.Dial(client.Options{
		HostPort: cfg.TemporalAddress,
		Logger:   tlog.NewStructuredLogger(logger),
	})
	if err != nil {
		logger.Error("temporal dial", "error", err)
		os.Exit(1)
	}
	defer c.Close()

	w := worker.New(c, cfg.TemporalTaskQueue, worker.Options{
		// The pipeline serializes ingestion.
		MaxConcurrentActivityExecutionSize: 1,
	})
	workflows.Register(w)
	activities.Register(w, activities.New(a.Pipeline))

	logger.Info("docrag worker listening", "address", cfg.TemporalAddress, "queue", cfg.TemporalTaskQueue,
		"backend", cfg.IndexBackend, "llm_providers", cfg.LLMProviders, "embed_providers", cfg.EmbedProviders)
	if err := w.Run(worker.InterruptCh()); err != nil {
		logger.Error("worker stopped", "error", err)
		os.Exit(1)
	}
}
