package extract

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"docrag/internal/extract/extracttest"
	"docrag/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractMissingFile(t *testing.T) {
	_, err := PDF{}.Extract(context.Background(), filepath.Join(t.TempDir(), "missing.pdf"))
	require.ErrorIs(t, err, util.ErrExtraction)
}

func TestExtractNotAPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fake.pdf")
	require.NoError(t, os.WriteFile(path, []byte("this is plain text, not a pdf"), 0o644))
	_, err := PDF{}.Extract(context.Background(), path)
	require.ErrorIs(t, err, util.ErrExtraction)
}

func TestExtractKeepsPageOrder(t *testing.T) {
	path := extracttest.WritePDF(t, t.TempDir(), "three.pdf", "Alpha page one", "Bravo page two", "Charlie page three\nsecond line here")

	text, err := PDF{}.Extract(context.Background(), path)
	require.NoError(t, err)
	a := strings.Index(text, "Alpha page one")
	b := strings.Index(text, "Bravo page two")
	c := strings.Index(text, "Charlie page three")
	require.True(t, a >= 0 && b >= 0 && c >= 0, "missing page text in %q", text)
	assert.Less(t, a, b)
	assert.Less(t, b, c)
	assert.Contains(t, text, "second line here")

	cleaned := Clean(text)
	assert.Contains(t, cleaned, "Alpha page one")
	assert.NotContains(t, cleaned, "\n\n\n")
}

func TestExtractHonoursCancellation(t *testing.T) {
	path := extracttest.WritePDF(t, t.TempDir(), "one.pdf", "Alpha page one")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := PDF{}.Extract(ctx, path)
	require.ErrorIs(t, err, context.Canceled)
}
