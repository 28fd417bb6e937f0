package app

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"docrag/internal/config"
	"docrag/internal/models"
	"docrag/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T, backend string) config.Config {
	t.Helper()
	root := t.TempDir()
	return config.Config{
		DocsDir:        filepath.Join(root, "pdf_files"),
		DataDir:        filepath.Join(root, "vector_db"),
		IndexBackend:   backend,
		SQLitePath:     filepath.Join(root, "vector_db", "index.db"),
		Collection:     "rag_docs",
		ChunkSize:      1500,
		ChunkOverlap:   200,
		EmbedDim:       8,
		EmbedBatchSize: 4,
		LLMProviders:   "mock",
		EmbedProviders: "mock",
		TopK:           4,
	}
}

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestNewWiresComponents(t *testing.T) {
	for _, backend := range []string{"memory", "sqlite"} {
		t.Run(backend, func(t *testing.T) {
			a, err := New(context.Background(), testConfig(t, backend), discard())
			require.NoError(t, err)
			defer a.Close()
			assert.NotNil(t, a.Pipeline)
			assert.NotNil(t, a.Searcher)
			assert.NotNil(t, a.Responder)
		})
	}
}

func TestOpenBackendRejectsUnknown(t *testing.T) {
	_, err := OpenBackend(context.Background(), config.Config{IndexBackend: "chroma"})
	require.Error(t, err)
}

func TestStartReconcilesAndIngests(t *testing.T) {
	cfg := testConfig(t, "sqlite")
	cfg.IngestOnStart = true
	ctx := context.Background()

	// Leave an orphaned chunk behind with no tracking file.
	s, err := storage.NewSQLiteStore(ctx, cfg.SQLitePath, cfg.Collection)
	require.NoError(t, err)
	require.NoError(t, s.Upsert(ctx, []storage.Record{{ID: "old.pdf_x", Text: "orphan", Embedding: make([]float32, 8), Metadata: models.ChunkMetadata{Source: "old.pdf"}}}))
	require.NoError(t, s.Close())

	a, err := New(ctx, cfg, discard())
	require.NoError(t, err)
	defer a.Close()
	require.NoError(t, a.Start(ctx))

	n, err := a.Index.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.DirExists(t, cfg.DocsDir)

	reply := a.Responder.Respond(ctx, "anything indexed?", nil)
	assert.Contains(t, reply.Text, "0 document sections")
}
