package tracking

import (
	"fmt"
	"path/filepath"
	"sort"
	"sync"

	"docrag/internal/models"
	"docrag/internal/util"
)

// Store is the filename-keyed record of ingested documents, persisted as one
// JSON object. Writes replace the whole file atomically.
type Store struct {
	path string

	mu      sync.RWMutex
	records map[string]models.TrackingRecord
}

func NewStore(path string) *Store {
	return &Store{path: path, records: map[string]models.TrackingRecord{}}
}

// Open creates a store and loads the file at path if it exists.
func Open(path string) (*Store, error) {
	s := NewStore(path)
	if err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) Path() string { return s.path }

func (s *Store) Load() error {
	records := map[string]models.TrackingRecord{}
	if _, err := util.ReadJSON(s.path, &records); err != nil {
		return fmt.Errorf("%w: %w", util.ErrTrackingIO, err)
	}
	if records == nil {
		records = map[string]models.TrackingRecord{}
	}
	s.mu.Lock()
	s.records = records
	s.mu.Unlock()
	return nil
}

func (s *Store) Save() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := util.WriteJSONAtomic(s.path, s.records); err != nil {
		return fmt.Errorf("%w: %w", util.ErrTrackingIO, err)
	}
	return nil
}

func (s *Store) Get(filename string) (models.TrackingRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[filename]
	return rec, ok
}

func (s *Store) Put(filename string, rec models.TrackingRecord) {
	s.mu.Lock()
	s.records[filename] = rec
	s.mu.Unlock()
}

func (s *Store) Delete(filename string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.records[filename]
	delete(s.records, filename)
	return ok
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func (s *Store) Reset() {
	s.mu.Lock()
	s.records = map[string]models.TrackingRecord{}
	s.mu.Unlock()
}

// Documents lists tracked documents, most recently processed first. Ties
// keep filename order.
func (s *Store) Documents() []models.Document {
	s.mu.RLock()
	docs := make([]models.Document, 0, len(s.records))
	for name, rec := range s.records {
		docs = append(docs, models.Document{Filename: name, TrackingRecord: rec})
	}
	s.mu.RUnlock()
	sort.Slice(docs, func(i, j int) bool {
		if docs[i].ProcessedDate != docs[j].ProcessedDate {
			return docs[i].ProcessedDate > docs[j].ProcessedDate
		}
		return docs[i].Filename < docs[j].Filename
	})
	return docs
}

// FileState is the current fingerprint of a file on disk.
type FileState struct {
	Name         string
	Hash         string
	LastModified float64
}

// ShouldProcess fingerprints the file at path and reports whether it is
// unknown or differs in hash or modification time from its tracked record.
func (s *Store) ShouldProcess(path string) (FileState, bool, error) {
	hash, mtime, err := Fingerprint(path)
	if err != nil {
		return FileState{}, false, err
	}
	st := FileState{Name: filepath.Base(path), Hash: hash, LastModified: mtime}
	rec, ok := s.Get(st.Name)
	if !ok {
		return st, true, nil
	}
	return st, rec.Hash != hash || rec.LastModified != mtime, nil
}
