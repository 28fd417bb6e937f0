package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"
)

// PGVectorStore keeps records in a Postgres table with a pgvector column and
// ranks them with the <-> (euclidean) operator.
type PGVectorStore struct {
	db    *DB
	table string
	dim   int
}

func NewPGVectorStore(ctx context.Context, db *DB, table string, dim int) (*PGVectorStore, error) {
	if !validIdent(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	if dim <= 0 {
		return nil, fmt.Errorf("invalid embedding dimension %d", dim)
	}
	s := &PGVectorStore{db: db, table: table, dim: dim}
	if err := s.migrate(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *PGVectorStore) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
  id TEXT PRIMARY KEY,
  source TEXT NOT NULL,
  text TEXT NOT NULL,
  metadata JSONB NOT NULL,
  embedding vector(%d) NOT NULL,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`, s.table, s.dim),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_source_idx ON %s (source)`, s.table, s.table),
	}
	for _, stmt := range stmts {
		if _, err := s.db.Pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate pgvector: %w", err)
		}
	}
	return nil
}

func (s *PGVectorStore) Upsert(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx upsert chunks: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	for _, r := range records {
		if len(r.Embedding) != s.dim {
			return fmt.Errorf("chunk %s: %w: got %d want %d", r.ID, ErrDimensionMismatch, len(r.Embedding), s.dim)
		}
		meta, err := json.Marshal(r.Metadata)
		if err != nil {
			return fmt.Errorf("encode metadata %s: %w", r.ID, err)
		}
		_, err = tx.Exec(ctx, `
INSERT INTO `+s.table+` (id, source, text, metadata, embedding)
VALUES ($1, $2, $3, $4::jsonb, $5)
ON CONFLICT (id)
DO UPDATE SET
  source = EXCLUDED.source,
  text = EXCLUDED.text,
  metadata = EXCLUDED.metadata,
  embedding = EXCLUDED.embedding`,
			r.ID, r.Metadata.Source, strings.ReplaceAll(r.Text, "\x00", ""), string(meta), pgvector.NewVector(r.Embedding),
		)
		if err != nil {
			return fmt.Errorf("upsert chunk %s: %w", r.ID, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit chunks tx: %w", err)
	}
	return nil
}

func (s *PGVectorStore) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := s.db.Pool.Exec(ctx, `DELETE FROM `+s.table+` WHERE id = ANY($1)`, ids); err != nil {
		return fmt.Errorf("delete chunks: %w", err)
	}
	return nil
}

func (s *PGVectorStore) Query(ctx context.Context, vec []float32, k int) ([]Match, error) {
	if len(vec) != s.dim {
		return nil, fmt.Errorf("%w: got %d want %d", ErrDimensionMismatch, len(vec), s.dim)
	}
	if k <= 0 {
		k = 8
	}
	rows, err := s.db.Pool.Query(ctx, `
SELECT id, text, metadata::text, (embedding <-> $1) AS distance
FROM `+s.table+`
ORDER BY embedding <-> $1, id
LIMIT $2`, pgvector.NewVector(vec), k)
	if err != nil {
		return nil, fmt.Errorf("query vector search: %w", err)
	}
	matches, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Match, error) {
		var (
			m    Match
			meta string
		)
		if err := row.Scan(&m.ID, &m.Text, &meta, &m.Distance); err != nil {
			return Match{}, err
		}
		if err := json.Unmarshal([]byte(meta), &m.Metadata); err != nil {
			return Match{}, fmt.Errorf("decode metadata %s: %w", m.ID, err)
		}
		// <-> is euclidean; stored distances are squared like the other backends.
		m.Distance *= m.Distance
		return m, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan search rows: %w", err)
	}
	return matches, nil
}

func (s *PGVectorStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM `+s.table).Scan(&n); err != nil {
		return 0, fmt.Errorf("count chunks: %w", err)
	}
	return n, nil
}

func (s *PGVectorStore) IDsBySource(ctx context.Context, source string) ([]string, error) {
	rows, err := s.db.Pool.Query(ctx, `SELECT id FROM `+s.table+` WHERE source = $1 ORDER BY id`, source)
	if err != nil {
		return nil, fmt.Errorf("list chunk ids: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan chunk ids: %w", err)
	}
	return ids, nil
}

func (s *PGVectorStore) Clear(ctx context.Context) error {
	if _, err := s.db.Pool.Exec(ctx, `TRUNCATE `+s.table); err != nil {
		return fmt.Errorf("clear chunks: %w", err)
	}
	return nil
}

func (s *PGVectorStore) Close() error {
	s.db.Close()
	return nil
}
