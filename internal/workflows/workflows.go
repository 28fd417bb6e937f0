package workflows

import (
	"errors"
	"path/filepath"
	"strings"
	"time"

	"docrag/internal/activities"
	"docrag/internal/ingest"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

const QueryGetProgress = "GetProgress"

var ingestActivityOptions = workflow.ActivityOptions{
	StartToCloseTimeout: 10 * time.Minute,
	RetryPolicy: &temporal.RetryPolicy{
		InitialInterval:    2 * time.Second,
		BackoffCoefficient: 2,
		MaximumInterval:    20 * time.Second,
		MaximumAttempts:    3,
		NonRetryableErrorTypes: []string{
			activities.ErrTypeExtraction,
			activities.ErrTypeEmptyChunks,
		},
	},
}

// DocumentIngestWorkflow ingests every new or changed PDF in a directory,
// one file at a time. Extraction and chunking failures are recorded per file;
// index and tracking failures stop the run.
func DocumentIngestWorkflow(ctx workflow.Context, input DocumentIngestInput) (DocumentIngestResult, error) {
	progress := DocumentIngestProgress{
		PerFile: map[string]string{},
		Errors:  map[string]string{},
	}
	if err := workflow.SetQueryHandler(ctx, QueryGetProgress, func() (DocumentIngestProgress, error) {
		return progress, nil
	}); err != nil {
		return DocumentIngestResult{}, err
	}
	ctx = workflow.WithActivityOptions(ctx, ingestActivityOptions)
	logger := workflow.GetLogger(ctx)

	result := DocumentIngestResult{Processed: []string{}, Skipped: []string{}, Failed: []FileFailure{}}
	if input.Reconcile {
		var rec activities.ReconcileOutput
		if err := workflow.ExecuteActivity(ctx, "ReconcileActivity").Get(ctx, &rec); err != nil {
			return result, err
		}
		result.Reconcile = rec.Action
	}

	var listOut activities.ListPDFsOutput
	if err := workflow.ExecuteActivity(ctx, "ListPDFsActivity", activities.ListPDFsInput{InputDir: input.InputDir}).Get(ctx, &listOut); err != nil {
		return result, err
	}
	result.Found = len(listOut.Paths)
	progress.Total = len(listOut.Paths)
	for _, path := range listOut.Paths {
		progress.PerFile[filepath.Base(path)] = "pending"
	}

	for _, path := range listOut.Paths {
		name := filepath.Base(path)
		progress.Current = name
		progress.PerFile[name] = "processing"

		var out activities.ProcessDocumentOutput
		err := workflow.ExecuteActivity(ctx, "ProcessDocumentActivity", activities.ProcessDocumentInput{Path: path}).Get(ctx, &out)
		progress.Done++
		if err != nil {
			kind := errorType(err)
			progress.Failed++
			progress.PerFile[name] = "failed"
			progress.Errors[name] = err.Error()
			if isFatal(kind) {
				logger.Error("ingest aborted", "file", name, "type", kind, "error", err)
				progress.Current = ""
				return result, err
			}
			logger.Warn("document not ingested", "file", name, "type", kind, "error", err)
			result.Failed = append(result.Failed, FileFailure{File: name, Type: kind, Message: rootMessage(err)})
			continue
		}
		progress.PerFile[name] = out.Status
		if out.Status == ingest.StatusSkipped {
			progress.Skipped++
			result.Skipped = append(result.Skipped, name)
		} else {
			progress.Processed++
			result.Processed = append(result.Processed, name)
		}
	}
	progress.Current = ""
	return result, nil
}

// DeleteDocumentWorkflow removes one document from disk, the index and tracking.
func DeleteDocumentWorkflow(ctx workflow.Context, input DeleteDocumentInput) (bool, error) {
	ctx = workflow.WithActivityOptions(ctx, ingestActivityOptions)
	var out activities.DeleteDocumentOutput
	if err := workflow.ExecuteActivity(ctx, "DeleteDocumentActivity", activities.DeleteDocumentInput{Name: input.Name}).Get(ctx, &out); err != nil {
		return false, err
	}
	return out.Deleted, nil
}

// IngestWorkflowID names an ingest run over dir.
func IngestWorkflowID(dir, suffix string) string {
	return "ingest-" + sanitizeID(filepath.Base(filepath.Clean(dir))) + "-" + suffix
}

// DeleteWorkflowID names the delete run for one document.
func DeleteWorkflowID(name string) string {
	return "delete-" + sanitizeID(filepath.Base(name))
}

func errorType(err error) string {
	var appErr *temporal.ApplicationError
	if errors.As(err, &appErr) {
		return appErr.Type()
	}
	return ""
}

// Anything that is not a per-document failure ends the run, timeouts included.
// Embedding failures count per document once retries are spent.
func isFatal(kind string) bool {
	switch kind {
	case activities.ErrTypeExtraction, activities.ErrTypeEmptyChunks, activities.ErrTypeEmbedding:
		return false
	}
	return true
}

func rootMessage(err error) string {
	var appErr *temporal.ApplicationError
	if errors.As(err, &appErr) {
		return appErr.Message()
	}
	return err.Error()
}

func sanitizeID(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "_", "-")
	s = strings.ReplaceAll(s, ".", "-")
	s = strings.ReplaceAll(s, "/", "-")
	s = strings.ReplaceAll(s, " ", "-")
	return s
}
