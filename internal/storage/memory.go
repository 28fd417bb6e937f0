package storage

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore keeps records in process memory. Query is a linear scan.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: map[string]Record{}}
}

func (m *MemoryStore) Upsert(ctx context.Context, records []Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range records {
		r.Embedding = append([]float32(nil), r.Embedding...)
		m.records[r.ID] = r
	}
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		delete(m.records, id)
	}
	return nil
}

func (m *MemoryStore) Query(ctx context.Context, vec []float32, k int) ([]Match, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Match, 0, len(m.records))
	for _, r := range m.records {
		d, err := squaredL2(vec, r.Embedding)
		if err != nil {
			return nil, err
		}
		out = append(out, Match{ID: r.ID, Text: r.Text, Metadata: r.Metadata, Distance: d})
	}
	sortMatches(out)
	if k > 0 && len(out) > k {
		out = out[:k]
	}
	return out, nil
}

func (m *MemoryStore) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records), nil
}

func (m *MemoryStore) IDsBySource(ctx context.Context, source string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var ids []string
	for id, r := range m.records {
		if r.Metadata.Source == source {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *MemoryStore) Clear(ctx context.Context) error {
	m.mu.Lock()
	m.records = map[string]Record{}
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Close() error { return nil }

// sortMatches orders by distance, then id, so equal distances are stable
// across backends.
func sortMatches(ms []Match) {
	sort.Slice(ms, func(i, j int) bool {
		if ms[i].Distance != ms[j].Distance {
			return ms[i].Distance < ms[j].Distance
		}
		return ms[i].ID < ms[j].ID
	})
}
