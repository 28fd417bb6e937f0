package vector

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"docrag/internal/models"
	"docrag/internal/providers"
	"docrag/internal/storage"
	"docrag/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIndex(t *testing.T) *Index {
	t.Helper()
	return NewIndex(storage.NewMemoryStore(), providers.NewMockProvider(16), 16, 2)
}

func meta(source string, i, n int) models.ChunkMetadata {
	return models.ChunkMetadata{Source: source, ChunkIndex: i, ChunkCount: n}
}

func addDoc(t *testing.T, x *Index, source string, texts ...string) {
	t.Helper()
	ids := make([]string, len(texts))
	metas := make([]models.ChunkMetadata, len(texts))
	for i, text := range texts {
		ids[i] = source + "_" + util.MD5Hex(text)
		metas[i] = meta(source, i, len(texts))
	}
	require.NoError(t, x.AddTexts(context.Background(), texts, ids, metas))
}

func TestAddTextsIsIdempotent(t *testing.T) {
	x := newTestIndex(t)
	texts := []string{"alpha", "beta", "gamma", "delta", "epsilon"}
	addDoc(t, x, "a.pdf", texts...)
	addDoc(t, x, "a.pdf", texts...)

	n, err := x.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	ids, err := x.IDsBySource(context.Background(), "a.pdf")
	require.NoError(t, err)
	assert.Len(t, ids, 5)
}

func TestAddTextsLengthMismatch(t *testing.T) {
	x := newTestIndex(t)
	err := x.AddTexts(context.Background(), []string{"a"}, nil, nil)
	require.Error(t, err)
}

func TestSearchEmptyIndexAndQuery(t *testing.T) {
	s := NewSearcher(newTestIndex(t))
	got, err := s.Search(context.Background(), "anything", 4)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	addDoc(t, s.index, "a.pdf", "alpha")
	got, err = s.Search(context.Background(), "   ", 4)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSearchRanksExactMatchFirst(t *testing.T) {
	x := newTestIndex(t)
	var texts []string
	for i := 0; i < 12; i++ {
		texts = append(texts, fmt.Sprintf("passage number %d", i))
	}
	addDoc(t, x, "a.pdf", texts...)
	s := NewSearcher(x)

	got, err := s.Search(context.Background(), "passage number 7", 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "passage number 7", got[0].Content)
	assert.InDelta(t, 1.0, got[0].Score, 1e-6)
	assert.Equal(t, 3, got[0].Words)
	assert.Equal(t, "a.pdf", got[0].Metadata.Source)
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].Score, got[i].Score)
		assert.Greater(t, got[i].Score, 0.0)
		assert.LessOrEqual(t, got[i].Score, 1.0)
	}
}

func TestSearchDefaultsK(t *testing.T) {
	x := newTestIndex(t)
	addDoc(t, x, "a.pdf", "one", "two", "three", "four", "five", "six")
	got, err := NewSearcher(x).Search(context.Background(), "one", 0)
	require.NoError(t, err)
	assert.Len(t, got, DefaultTopK)
}

func TestScore(t *testing.T) {
	assert.Equal(t, 1.0, Score(0))
	assert.Equal(t, 0.5, Score(1))
	assert.Equal(t, 1.0, Score(-0.1))
	assert.Greater(t, Score(0.2), Score(0.3))
}

type brokenBackend struct{ storage.MemoryStore }

func (*brokenBackend) Count(context.Context) (int, error) { return 0, errors.New("disk gone") }
func (*brokenBackend) Upsert(context.Context, []storage.Record) error {
	return errors.New("disk gone")
}

func TestBackendFailuresAreIndexUnavailable(t *testing.T) {
	x := NewIndex(&brokenBackend{}, providers.NewMockProvider(4), 4, 8)
	err := x.AddTexts(context.Background(), []string{"a"}, []string{"id"}, []models.ChunkMetadata{meta("a.pdf", 0, 1)})
	require.ErrorIs(t, err, util.ErrIndexUnavailable)

	_, err = NewSearcher(x).Search(context.Background(), "a", 4)
	require.ErrorIs(t, err, util.ErrIndexUnavailable)
}

// scriptedEmbedder embeds like the mock provider but reports a chosen model,
// or fails with err.
type scriptedEmbedder struct {
	mock  *providers.MockProvider
	model string
	err   error
}

func (e *scriptedEmbedder) Embed(ctx context.Context, req providers.EmbedRequest) ([][]float32, providers.ProviderInfo, error) {
	if e.err != nil {
		return nil, providers.ProviderInfo{Name: "openai"}, e.err
	}
	vecs, _, err := e.mock.Embed(ctx, req)
	return vecs, providers.ProviderInfo{Name: "test", Model: e.model}, err
}

func TestSearchOnlyComparesVectorsFromTheSameModel(t *testing.T) {
	emb := &scriptedEmbedder{mock: providers.NewMockProvider(16), model: "large"}
	x := NewIndex(storage.NewMemoryStore(), emb, 16, 2)
	addDoc(t, x, "a.pdf", "holiday policy", "security badge")

	emb.model = "small"
	_, err := NewSearcher(x).Search(context.Background(), "holiday policy", 4)
	require.ErrorIs(t, err, util.ErrEmbedding)

	addDoc(t, x, "b.pdf", "invoice totals")
	got, err := NewSearcher(x).Search(context.Background(), "holiday policy", 4)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "invoice totals", got[0].Content)
	assert.Equal(t, "test/small", got[0].Metadata.EmbedModel)
}

func TestEmbeddingFailuresAreClassified(t *testing.T) {
	emb := &scriptedEmbedder{err: errors.New("status 429: rate limit reached")}
	x := NewIndex(storage.NewMemoryStore(), emb, 16, 2)
	err := x.AddTexts(context.Background(), []string{"a"}, []string{"id"}, []models.ChunkMetadata{meta("a.pdf", 0, 1)})
	require.ErrorIs(t, err, util.ErrEmbedding)
	require.ErrorIs(t, err, util.ErrRateLimited)
	assert.NotErrorIs(t, err, util.ErrIndexUnavailable)
}
