package tracking

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"docrag/internal/models"
	"docrag/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorePersistsRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db", "document_tracking.json")
	s, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, 0, s.Len())

	s.Put("a.pdf", models.TrackingRecord{Hash: "h1", LastModified: 1.5, ProcessedDate: "2024-01-01T00:00:00Z", ChunkCount: 3})
	require.NoError(t, s.Save())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"chunk_count": 3`)
	assert.Contains(t, string(raw), `"last_modified": 1.5`)

	again, err := Open(path)
	require.NoError(t, err)
	rec, ok := again.Get("a.pdf")
	require.True(t, ok)
	assert.Equal(t, "h1", rec.Hash)
	assert.Equal(t, 3, rec.ChunkCount)
}

func TestStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "document_tracking.json")
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0o644))
	_, err := Open(path)
	require.ErrorIs(t, err, util.ErrTrackingIO)
}

func TestStoreSaveFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))
	s := NewStore(filepath.Join(blocker, "document_tracking.json"))
	s.Put("a.pdf", models.TrackingRecord{Hash: "h"})
	require.ErrorIs(t, s.Save(), util.ErrTrackingIO)
}

func TestDocumentsNewestFirst(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "t.json"))
	s.Put("old.pdf", models.TrackingRecord{ProcessedDate: "2024-01-01T00:00:00Z"})
	s.Put("new.pdf", models.TrackingRecord{ProcessedDate: "2024-03-01T00:00:00Z"})
	s.Put("b.pdf", models.TrackingRecord{ProcessedDate: "2024-02-01T00:00:00Z"})
	s.Put("a.pdf", models.TrackingRecord{ProcessedDate: "2024-02-01T00:00:00Z"})

	var names []string
	for _, d := range s.Documents() {
		names = append(names, d.Filename)
	}
	assert.Equal(t, []string{"new.pdf", "a.pdf", "b.pdf", "old.pdf"}, names)

	assert.True(t, s.Delete("b.pdf"))
	assert.False(t, s.Delete("b.pdf"))
	s.Reset()
	assert.Equal(t, 0, s.Len())
}

func TestShouldProcess(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "paper.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 body"), 0o644))
	s := NewStore(filepath.Join(dir, "t.json"))

	st, changed, err := s.ShouldProcess(path)
	require.NoError(t, err)
	assert.True(t, changed, "unknown file")
	assert.Equal(t, "paper.pdf", st.Name)

	hash, mtime, err := Fingerprint(path)
	require.NoError(t, err)
	assert.Equal(t, hash, st.Hash)
	assert.Equal(t, mtime, st.LastModified)
	s.Put("paper.pdf", models.TrackingRecord{Hash: hash, LastModified: mtime})

	_, changed, err = s.ShouldProcess(path)
	require.NoError(t, err)
	assert.False(t, changed, "unchanged file")

	// Same size, one byte different, mtime pinned to the tracked value.
	info, err := os.Stat(path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 bodY"), 0o644))
	require.NoError(t, os.Chtimes(path, info.ModTime(), info.ModTime()))
	_, changed, err = s.ShouldProcess(path)
	require.NoError(t, err)
	assert.True(t, changed, "content change")

	hash, _, err = Fingerprint(path)
	require.NoError(t, err)
	s.Put("paper.pdf", models.TrackingRecord{Hash: hash, LastModified: mtime})
	later := info.ModTime().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(path, later, later))
	_, changed, err = s.ShouldProcess(path)
	require.NoError(t, err)
	assert.True(t, changed, "mtime change")

	_, _, err = s.ShouldProcess(filepath.Join(dir, "gone.pdf"))
	require.Error(t, err)
}
