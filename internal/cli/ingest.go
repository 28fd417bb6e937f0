package cli

import (
	"docrag/internal/ingest"
	"docrag/internal/workflows"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/sdk/client"
)

func newIngestCmd(s *session) *cobra.Command {
	var (
		dir         string
		useTemporal bool
	)
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Index new or changed PDFs from the documents directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if dir == "" {
				dir = s.cfg.DocsDir
			}
			if useTemporal {
				return ingestWithTemporal(cmd, s, dir)
			}
			a, err := s.open(cmd.Context())
			if err != nil {
				return err
			}
			if _, err := a.Pipeline.Reconcile(cmd.Context()); err != nil {
				return err
			}
			rep, err := a.Pipeline.ProcessNewDocuments(cmd.Context(), dir)
			printReport(cmd, rep)
			return err
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "documents directory (defaults to docs_dir)")
	cmd.Flags().BoolVar(&useTemporal, "temporal", false, "run ingestion as a Temporal workflow")
	return cmd
}

func printReport(cmd *cobra.Command, rep ingest.Report) {
	cmd.Printf("Found %d PDF file(s): %d processed, %d unchanged, %d failed\n",
		rep.Found, len(rep.Processed), len(rep.Skipped), len(rep.Errors))
	for _, name := range rep.Processed {
		cmd.Printf("  + %s\n", name)
	}
	for _, fe := range rep.Errors {
		cmd.Printf("  ! %s: %v\n", fe.File, fe.Err)
	}
}

func ingestWithTemporal(cmd *cobra.Command, s *session, dir string) error {
	c, err := s.temporal()
	if err != nil {
		return err
	}
	defer c.Close()

	ctx := cmd.Context()
	run, err := c.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:                                       workflows.IngestWorkflowID(dir, uuid.NewString()),
		TaskQueue:                                s.cfg.TemporalTaskQueue,
		WorkflowIDReusePolicy:                    enumspb.WORKFLOW_ID_REUSE_POLICY_ALLOW_DUPLICATE,
		WorkflowExecutionErrorWhenAlreadyStarted: true,
	}, workflows.DocumentIngestWorkflow, workflows.DocumentIngestInput{InputDir: dir, Reconcile: true})
	if err != nil {
		return err
	}
	cmd.Printf("Started workflow %s (run %s)\n", run.GetID(), run.GetRunID())

	var res workflows.DocumentIngestResult
	if err := run.Get(ctx, &res); err != nil {
		return err
	}
	cmd.Printf("Found %d PDF file(s): %d processed, %d unchanged, %d failed\n",
		res.Found, len(res.Processed), len(res.Skipped), len(res.Failed))
	for _, name := range res.Processed {
		cmd.Printf("  + %s\n", name)
	}
	for _, f := range res.Failed {
		cmd.Printf("  ! %s: %s\n", f.File, f.Message)
	}
	return nil
}
