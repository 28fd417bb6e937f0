package activities

import (
	"context"
	"errors"

	"docrag/internal/ingest"
	"docrag/internal/util"

	"go.temporal.io/sdk/temporal"
)

// Application error types surfaced to workflows.
const (
	ErrTypeExtraction       = "ExtractionError"
	ErrTypeEmptyChunks      = "EmptyChunksError"
	ErrTypeIndexUnavailable = "IndexUnavailableError"
	ErrTypeTrackingIO       = "TrackingIOError"
	ErrTypeEmbedding        = "EmbeddingError"
)

type Activities struct {
	pipeline *ingest.Pipeline
}

func New(p *ingest.Pipeline) *Activities {
	return &Activities{pipeline: p}
}

func (a *Activities) ListPDFsActivity(ctx context.Context, in ListPDFsInput) (ListPDFsOutput, error) {
	_ = ctx
	dir := in.InputDir
	if dir == "" {
		dir = a.pipeline.DocsDir()
	}
	paths, err := a.pipeline.ListPDFs(dir)
	if err != nil {
		return ListPDFsOutput{}, err
	}
	return ListPDFsOutput{Paths: paths}, nil
}

func (a *Activities) ReconcileActivity(ctx context.Context) (ReconcileOutput, error) {
	action, err := a.pipeline.Reconcile(ctx)
	if err != nil {
		return ReconcileOutput{}, toApplicationError(err)
	}
	return ReconcileOutput{Action: string(action)}, nil
}

func (a *Activities) ProcessDocumentActivity(ctx context.Context, in ProcessDocumentInput) (ProcessDocumentOutput, error) {
	out, err := a.pipeline.ProcessFile(ctx, in.Path)
	if err != nil {
		return ProcessDocumentOutput{}, toApplicationError(err)
	}
	return ProcessDocumentOutput{File: out.File, Status: out.Status, Chunks: out.Chunks}, nil
}

func (a *Activities) DeleteDocumentActivity(ctx context.Context, in DeleteDocumentInput) (DeleteDocumentOutput, error) {
	deleted, err := a.pipeline.DeleteDocument(ctx, in.Name)
	if err != nil {
		return DeleteDocumentOutput{}, toApplicationError(err)
	}
	return DeleteDocumentOutput{Deleted: deleted}, nil
}

// toApplicationError maps pipeline errors onto typed Temporal errors.
// Extraction failures are not retried; storage failures and rate-limited or
// transient embedding failures are.
func toApplicationError(err error) error {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, util.ErrIndexUnavailable):
		return temporal.NewApplicationErrorWithCause(err.Error(), ErrTypeIndexUnavailable, err)
	case errors.Is(err, util.ErrTrackingIO):
		return temporal.NewApplicationErrorWithCause(err.Error(), ErrTypeTrackingIO, err)
	case errors.Is(err, util.ErrEmbedding):
		if errors.Is(err, util.ErrRateLimited) || errors.Is(err, util.ErrTransient) {
			return temporal.NewApplicationErrorWithCause(err.Error(), ErrTypeEmbedding, err)
		}
		return temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeEmbedding, err)
	case errors.Is(err, util.ErrEmptyChunks):
		return temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeEmptyChunks, err)
	default:
		return temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeExtraction, err)
	}
}
