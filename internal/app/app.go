package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"docrag/internal/chat"
	"docrag/internal/chunker"
	"docrag/internal/config"
	"docrag/internal/extract"
	"docrag/internal/ingest"
	"docrag/internal/providers"
	"docrag/internal/storage"
	"docrag/internal/tracking"
	"docrag/internal/vector"
)

// App holds the long-lived components shared by the CLI and the worker.
type App struct {
	Config    config.Config
	Log       *slog.Logger
	Providers *providers.Manager
	Index     *vector.Index
	Tracker   *tracking.Store
	Pipeline  *ingest.Pipeline
	Searcher  *vector.Searcher
	Responder *chat.Responder
}

func New(ctx context.Context, cfg config.Config, log *slog.Logger) (*App, error) {
	pm, err := providers.NewManager(cfg, log)
	if err != nil {
		return nil, err
	}
	backend, err := OpenBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}
	tracker, err := tracking.Open(cfg.TrackingPath())
	if err != nil {
		_ = backend.Close()
		return nil, err
	}

	log.Info("providers configured", "llm", refNames(pm.LLMProviderRefs()), "embed", refNames(pm.EmbedProviderRefs()))

	index := vector.NewIndex(backend, pm.Embedder(), cfg.EmbedDim, cfg.EmbedBatchSize)
	split := chunker.New(chunker.Options{
		ChunkSize:       cfg.ChunkSize,
		ChunkOverlap:    cfg.ChunkOverlap,
		SubChunkSize:    cfg.SubChunkSize,
		SubChunkOverlap: cfg.SubChunkOverlap,
		LongChunkLimit:  cfg.LongChunkLimit,
	})
	searcher := vector.NewSearcher(index)
	return &App{
		Config:    cfg,
		Log:       log,
		Providers: pm,
		Index:     index,
		Tracker:   tracker,
		Pipeline:  ingest.NewPipeline(cfg.DocsDir, extract.PDF{}, split, index, tracker, log),
		Searcher:  searcher,
		Responder: chat.NewResponder(pm.LLM(), searcher, cfg.SystemPrompt, cfg.TopK, log),
	}, nil
}

func refNames(refs []providers.ProviderRef) []string {
	out := make([]string, 0, len(refs))
	for _, r := range refs {
		out = append(out, r.Raw)
	}
	return out
}

// OpenBackend returns the vector backend named by cfg.IndexBackend.
func OpenBackend(ctx context.Context, cfg config.Config) (vector.Backend, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.IndexBackend)) {
	case "", "sqlite":
		return storage.NewSQLiteStore(ctx, cfg.SQLitePath, cfg.Collection)
	case "memory":
		return storage.NewMemoryStore(), nil
	case "postgres", "pgvector":
		db, err := storage.NewDB(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, err
		}
		s, err := storage.NewPGVectorStore(ctx, db, cfg.Collection, cfg.EmbedDim)
		if err != nil {
			db.Close()
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported index backend %q", cfg.IndexBackend)
	}
}

// Start reconciles tracking with the index and, when configured, ingests
// the documents directory.
func (a *App) Start(ctx context.Context) error {
	action, err := a.Pipeline.Reconcile(ctx)
	if err != nil {
		return fmt.Errorf("reconcile: %w", err)
	}
	if action != ingest.ReconcileNone {
		a.Log.Warn("startup reconciliation", "action", action)
	}
	if !a.Config.IngestOnStart {
		return nil
	}
	rep, err := a.Pipeline.ProcessNewDocuments(ctx, a.Config.DocsDir)
	if err != nil {
		return fmt.Errorf("ingest on start: %w", err)
	}
	for _, fe := range rep.Errors {
		a.Log.Warn("document not ingested", "file", fe.File, "error", fe.Err)
	}
	return nil
}

func (a *App) Close() error {
	if a == nil || a.Index == nil {
		return nil
	}
	return a.Index.Close()
}
