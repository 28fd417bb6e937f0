package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"docrag/internal/chunker"
	"docrag/internal/extract"
	"docrag/internal/models"
	"docrag/internal/tracking"
	"docrag/internal/util"
	"docrag/internal/vector"
)

// ProcessedDateLayout keeps processed dates lexically sortable.
const ProcessedDateLayout = "2006-01-02T15:04:05.000000Z07:00"

type Extractor interface {
	Extract(ctx context.Context, path string) (string, error)
}

const (
	StatusProcessed = "processed"
	StatusSkipped   = "skipped"
)

type FileOutcome struct {
	File   string `json:"file"`
	Status string `json:"status"`
	Chunks int    `json:"chunks"`
}

type FileError struct {
	File string
	Err  error
}

func (e FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.File, e.Err)
}

func (e FileError) Unwrap() error { return e.Err }

type Report struct {
	Found     int         `json:"found"`
	Processed []string    `json:"processed"`
	Skipped   []string    `json:"skipped"`
	Errors    []FileError `json:"-"`
}

// Pipeline turns a directory of PDFs into indexed chunks and keeps the
// tracking store consistent with the index. All mutating calls are
// serialized.
type Pipeline struct {
	mu sync.Mutex

	docsDir   string
	extractor Extractor
	chunker   *chunker.Chunker
	index     *vector.Index
	tracker   *tracking.Store
	log       *slog.Logger
	now       func() time.Time
}

func NewPipeline(docsDir string, ex Extractor, ch *chunker.Chunker, index *vector.Index, tracker *tracking.Store, log *slog.Logger) *Pipeline {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if ch == nil {
		ch = chunker.New(chunker.DefaultOptions())
	}
	return &Pipeline{
		docsDir:   docsDir,
		extractor: ex,
		chunker:   ch,
		index:     index,
		tracker:   tracker,
		log:       log,
		now:       time.Now,
	}
}

func (p *Pipeline) DocsDir() string { return p.docsDir }

// ListPDFs creates dir when missing and returns the PDF paths in it.
func (p *Pipeline) ListPDFs(dir string) ([]string, error) {
	if dir == "" {
		dir = p.docsDir
	}
	if err := util.EnsureDir(dir); err != nil {
		return nil, err
	}
	return util.ListFilesWithExt(dir, ".pdf")
}

// ProcessNewDocuments ingests every new or changed PDF in dir. Per-file
// failures are collected in the report; index and tracking failures stop the
// batch and are returned with the partial report.
func (p *Pipeline) ProcessNewDocuments(ctx context.Context, dir string) (Report, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var rep Report
	paths, err := p.ListPDFs(dir)
	if err != nil {
		return rep, err
	}
	rep.Found = len(paths)
	if len(paths) == 0 {
		p.log.Info("no pdf files found", "dir", dir)
		return rep, nil
	}
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		out, err := p.processFile(ctx, path)
		if err != nil {
			if IsFatal(err) {
				return rep, err
			}
			rep.Errors = append(rep.Errors, FileError{File: filepath.Base(path), Err: err})
			continue
		}
		if out.Status == StatusSkipped {
			rep.Skipped = append(rep.Skipped, out.File)
		} else {
			rep.Processed = append(rep.Processed, out.File)
		}
	}
	p.log.Info("ingest finished", "found", rep.Found, "processed", len(rep.Processed), "skipped", len(rep.Skipped), "errors", len(rep.Errors))
	return rep, nil
}

// ProcessFile ingests a single PDF if it is new or changed.
func (p *Pipeline) ProcessFile(ctx context.Context, path string) (FileOutcome, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.processFile(ctx, path)
}

// IsFatal reports errors that invalidate the rest of a batch.
func IsFatal(err error) bool {
	return errors.Is(err, util.ErrIndexUnavailable) || errors.Is(err, util.ErrTrackingIO) ||
		errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func (p *Pipeline) processFile(ctx context.Context, path string) (FileOutcome, error) {
	name := filepath.Base(path)
	out := FileOutcome{File: name}

	st, changed, err := p.tracker.ShouldProcess(path)
	if err != nil {
		return out, err
	}
	if !changed {
		rec, _ := p.tracker.Get(name)
		p.log.Debug("skipping unchanged document", "file", name)
		out.Status = StatusSkipped
		out.Chunks = rec.ChunkCount
		return out, nil
	}

	p.log.Info("processing document", "file", name)
	n, err := p.indexFile(ctx, path, st)
	if err != nil {
		p.log.Error("document failed", "file", name, "error", err)
		if rbErr := p.rollback(ctx, name); rbErr != nil {
			return out, errors.Join(err, rbErr)
		}
		return out, err
	}
	out.Status = StatusProcessed
	out.Chunks = n
	p.log.Info("document processed", "file", name, "chunks", n)
	return out, nil
}

func (p *Pipeline) indexFile(ctx context.Context, path string, st tracking.FileState) (int, error) {
	name := st.Name
	raw, err := p.extractor.Extract(ctx, path)
	if err != nil {
		return 0, err
	}
	cleaned := extract.Clean(raw)
	if cleaned == "" {
		return 0, fmt.Errorf("%w: %w", util.ErrExtraction, util.ErrNoExtractableText)
	}
	texts, err := p.chunker.Split(cleaned, name)
	if err != nil {
		return 0, err
	}

	texts, ids := uniqueChunks(name, texts)
	rec := models.TrackingRecord{
		Hash:          st.Hash,
		LastModified:  st.LastModified,
		SourceDir:     filepath.Dir(path),
		ProcessedDate: p.now().UTC().Format(ProcessedDateLayout),
		ChunkCount:    len(texts),
	}
	metas := make([]models.ChunkMetadata, len(texts))
	for i := range texts {
		metas[i] = models.ChunkMetadata{
			Source:        name,
			Hash:          rec.Hash,
			LastModified:  rec.LastModified,
			ProcessedDate: rec.ProcessedDate,
			ChunkIndex:    i,
			ChunkCount:    rec.ChunkCount,
		}
	}

	previous, err := p.index.IDsBySource(ctx, name)
	if err != nil {
		return 0, err
	}
	if err := p.index.AddTexts(ctx, texts, ids, metas); err != nil {
		return 0, err
	}
	if stale := difference(previous, ids); len(stale) > 0 {
		if err := p.index.DeleteByIDs(ctx, stale); err != nil {
			return 0, err
		}
		p.log.Debug("removed stale chunks", "file", name, "count", len(stale))
	}

	p.tracker.Put(name, rec)
	if err := p.tracker.Save(); err != nil {
		return 0, err
	}
	return len(texts), nil
}

// rollback removes every trace of name so tracking and index agree.
func (p *Pipeline) rollback(ctx context.Context, name string) error {
	ids, err := p.index.IDsBySource(ctx, name)
	if err != nil {
		return err
	}
	if err := p.index.DeleteByIDs(ctx, ids); err != nil {
		return err
	}
	if p.tracker.Delete(name) {
		return p.tracker.Save()
	}
	return nil
}

// Documents lists tracked documents, newest first.
func (p *Pipeline) Documents() []models.Document {
	return p.tracker.Documents()
}

// DeleteDocument removes the chunks and tracking entry of name, then the PDF
// from the directory it was ingested from.
// Unknown names report false.
func (p *Pipeline) DeleteDocument(ctx context.Context, name string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	name = filepath.Base(name)
	rec, ok := p.tracker.Get(name)
	if !ok {
		return false, nil
	}
	dir := rec.SourceDir
	if dir == "" {
		dir = p.docsDir
	}
	if err := p.rollback(ctx, name); err != nil {
		return false, err
	}
	path := util.SafeJoin(dir, name)
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("remove %s: %w", path, err)
	}
	p.log.Info("document deleted", "file", name)
	return true, nil
}

type ReconcileAction string

const (
	ReconcileNone          ReconcileAction = "none"
	ReconcileClearIndex    ReconcileAction = "cleared_index"
	ReconcileClearTracking ReconcileAction = "cleared_tracking"
)

// Reconcile repairs the two detectable disagreements between the tracking
// store and the index: an empty store with a populated index clears the
// index, and a populated store with an empty index clears the store.
func (p *Pipeline) Reconcile(ctx context.Context) (ReconcileAction, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	count, err := p.index.Count(ctx)
	if err != nil {
		return ReconcileNone, err
	}
	tracked := p.tracker.Len()
	switch {
	case tracked == 0 && count > 0:
		p.log.Warn("tracking empty but index populated, clearing index", "chunks", count)
		if err := p.index.Clear(ctx); err != nil {
			return ReconcileNone, err
		}
		return ReconcileClearIndex, nil
	case tracked > 0 && count == 0:
		p.log.Warn("index empty but tracking populated, clearing tracking", "documents", tracked)
		p.tracker.Reset()
		if err := p.tracker.Save(); err != nil {
			return ReconcileNone, err
		}
		return ReconcileClearTracking, nil
	}
	return ReconcileNone, nil
}

// uniqueChunks derives <name>_<md5> ids and drops repeated chunk texts,
// keeping the first occurrence.
func uniqueChunks(name string, texts []string) ([]string, []string) {
	seen := make(map[string]struct{}, len(texts))
	outTexts := make([]string, 0, len(texts))
	ids := make([]string, 0, len(texts))
	for _, t := range texts {
		id := name + "_" + util.MD5Hex(t)
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		outTexts = append(outTexts, t)
		ids = append(ids, id)
	}
	return outTexts, ids
}

func difference(a, b []string) []string {
	keep := make(map[string]struct{}, len(b))
	for _, x := range b {
		keep[x] = struct{}{}
	}
	var out []string
	for _, x := range a {
		if _, ok := keep[x]; !ok {
			out = append(out, x)
		}
	}
	return out
}
