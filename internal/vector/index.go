package vector

import (
	"context"
	"fmt"

	"docrag/internal/models"
	"docrag/internal/providers"
	"docrag/internal/storage"
	"docrag/internal/util"
)

// Backend is the persistence layer behind an Index.
type Backend interface {
	Upsert(ctx context.Context, records []storage.Record) error
	Delete(ctx context.Context, ids []string) error
	Query(ctx context.Context, vec []float32, k int) ([]storage.Match, error)
	Count(ctx context.Context) (int, error)
	IDsBySource(ctx context.Context, source string) ([]string, error)
	Clear(ctx context.Context) error
	Close() error
}

// Index embeds texts and stores them in a Backend. Backend failures are
// reported as util.ErrIndexUnavailable, embedding failures as util.ErrEmbedding.
// Every stored chunk records the provider/model that embedded it and queries
// only compare vectors from the same model.
type Index struct {
	backend   Backend
	embedder  providers.EmbeddingProvider
	dim       int
	batchSize int
}

func NewIndex(backend Backend, embedder providers.EmbeddingProvider, dim, batchSize int) *Index {
	if batchSize <= 0 {
		batchSize = 32
	}
	return &Index{backend: backend, embedder: embedder, dim: dim, batchSize: batchSize}
}

// AddTexts embeds texts in batches and upserts them under ids. Re-adding an
// existing id replaces it.
func (x *Index) AddTexts(ctx context.Context, texts, ids []string, metadatas []models.ChunkMetadata) error {
	if len(texts) != len(ids) || len(texts) != len(metadatas) {
		return fmt.Errorf("add texts: %d texts, %d ids, %d metadatas", len(texts), len(ids), len(metadatas))
	}
	records := make([]storage.Record, 0, len(texts))
	model := ""
	for start := 0; start < len(texts); start += x.batchSize {
		end := min(start+x.batchSize, len(texts))
		vecs, batchModel, err := x.embed(ctx, texts[start:end])
		if err != nil {
			return err
		}
		if model == "" {
			model = batchModel
		} else if batchModel != model {
			return fmt.Errorf("%w: batches embedded by %s and %s", util.ErrEmbedding, model, batchModel)
		}
		for i, v := range vecs {
			md := metadatas[start+i]
			md.EmbedModel = batchModel
			records = append(records, storage.Record{
				ID:        ids[start+i],
				Text:      texts[start+i],
				Embedding: v,
				Metadata:  md,
			})
		}
	}
	if err := x.backend.Upsert(ctx, records); err != nil {
		return fmt.Errorf("%w: upsert: %w", util.ErrIndexUnavailable, err)
	}
	return nil
}

func (x *Index) DeleteByIDs(ctx context.Context, ids []string) error {
	if err := x.backend.Delete(ctx, ids); err != nil {
		return fmt.Errorf("%w: delete: %w", util.ErrIndexUnavailable, err)
	}
	return nil
}

// SimilaritySearchWithScore returns up to k matches ordered by raw distance,
// closest first. Chunks embedded by a different model than the query are
// dropped; if that leaves nothing the mismatch is reported as an error.
func (x *Index) SimilaritySearchWithScore(ctx context.Context, query string, k int) ([]storage.Match, error) {
	vecs, model, err := x.embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	matches, err := x.backend.Query(ctx, vecs[0], k)
	if err != nil {
		return nil, fmt.Errorf("%w: query: %w", util.ErrIndexUnavailable, err)
	}
	kept := matches[:0]
	var other string
	for _, m := range matches {
		if m.Metadata.EmbedModel != "" && m.Metadata.EmbedModel != model {
			other = m.Metadata.EmbedModel
			continue
		}
		kept = append(kept, m)
	}
	if len(kept) == 0 && other != "" {
		return nil, fmt.Errorf("%w: query embedded by %s but index holds %s vectors", util.ErrEmbedding, model, other)
	}
	return kept, nil
}

func (x *Index) Count(ctx context.Context) (int, error) {
	n, err := x.backend.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: count: %w", util.ErrIndexUnavailable, err)
	}
	return n, nil
}

func (x *Index) IDsBySource(ctx context.Context, source string) ([]string, error) {
	ids, err := x.backend.IDsBySource(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("%w: list ids: %w", util.ErrIndexUnavailable, err)
	}
	return ids, nil
}

func (x *Index) Clear(ctx context.Context) error {
	if err := x.backend.Clear(ctx); err != nil {
		return fmt.Errorf("%w: clear: %w", util.ErrIndexUnavailable, err)
	}
	return nil
}

func (x *Index) Close() error {
	return x.backend.Close()
}

func (x *Index) embed(ctx context.Context, texts []string) ([][]float32, string, error) {
	vecs, info, err := x.embedder.Embed(ctx, providers.EmbedRequest{Operation: "embed", Inputs: texts, Dimension: x.dim})
	if err != nil {
		return nil, "", fmt.Errorf("%w: embed with %s: %w", util.ErrEmbedding, info.Name, providers.Classified(err))
	}
	if len(vecs) != len(texts) {
		return nil, "", fmt.Errorf("%w: embed with %s: got %d vectors for %d texts", util.ErrEmbedding, info.Name, len(vecs), len(texts))
	}
	return vecs, EmbedModel(info), nil
}

// EmbedModel names the vector space a provider embeds into.
func EmbedModel(info providers.ProviderInfo) string {
	return info.Name + "/" + info.Model
}
