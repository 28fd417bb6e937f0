package vector

import (
	"context"
	"sort"
	"strings"

	"docrag/internal/models"
	"docrag/internal/util"
)

const DefaultTopK = 4

// Searcher ranks index matches by a normalized similarity score.
type Searcher struct {
	index *Index
}

func NewSearcher(index *Index) *Searcher {
	return &Searcher{index: index}
}

// Search over-fetches 2k candidates, scores them as 1/(1+distance) and
// returns the best k, highest score first. An empty index or blank query
// yields an empty, non-nil slice.
func (s *Searcher) Search(ctx context.Context, query string, k int) ([]models.SearchResult, error) {
	if k <= 0 {
		k = DefaultTopK
	}
	results := []models.SearchResult{}
	if strings.TrimSpace(query) == "" {
		return results, nil
	}
	n, err := s.index.Count(ctx)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return results, nil
	}

	matches, err := s.index.SimilaritySearchWithScore(ctx, query, 2*k)
	if err != nil {
		return nil, err
	}
	for _, m := range matches {
		results = append(results, models.SearchResult{
			ChunkID:     m.ID,
			Content:     m.Text,
			Score:       Score(m.Distance),
			RawDistance: m.Distance,
			Words:       util.WordCount(m.Text),
			Metadata:    m.Metadata,
		})
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// Score maps a non-negative distance into (0, 1].
func Score(distance float64) float64 {
	if distance < 0 {
		distance = 0
	}
	return 1 / (1 + distance)
}
