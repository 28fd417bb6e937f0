package util

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSHA256FileMatchesBytes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.pdf")
	data := bytes.Repeat([]byte("block"), 2000)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	sum, err := SHA256File(path)
	require.NoError(t, err)
	want, err := SHA256HexFromReader(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, want, sum)

	_, err = SHA256File(filepath.Join(t.TempDir(), "missing.pdf"))
	require.Error(t, err)
}

func TestMD5Hex(t *testing.T) {
	assert.Equal(t, "d41d8cd98f00b204e9800998ecf8427e", MD5Hex(""))
	assert.Len(t, MD5Hex("chunk"), 32)
}

func TestListFilesWithExt(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.pdf", "A.PDF", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.pdf"), 0o755))

	paths, err := ListFilesWithExt(dir, ".pdf")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "A.PDF"), filepath.Join(dir, "b.pdf")}, paths)

	_, err = ListFilesWithExt(filepath.Join(dir, "nope"), ".pdf")
	require.Error(t, err)
}

func TestSafeJoinStripsDirectories(t *testing.T) {
	assert.Equal(t, filepath.Join("/docs", "x.pdf"), SafeJoin("/docs", "../../etc/x.pdf"))
}

func TestJSONRoundTripAtomic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.json")
	require.NoError(t, WriteJSONAtomic(path, map[string]int{"a": 1}))

	var got map[string]int
	found, err := ReadJSON(path, &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 1, got["a"])

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")

	found, err = ReadJSON(filepath.Join(t.TempDir(), "none.json"), &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestReadJSONCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	var v map[string]any
	_, err := ReadJSON(path, &v)
	require.Error(t, err)
}

func TestNewLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger("warn", "json", &buf)
	log.Info("hidden")
	log.Warn("shown", "k", 1)
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
}
