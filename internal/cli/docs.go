package cli

import (
	"fmt"

	"docrag/internal/workflows"

	"github.com/spf13/cobra"
	"go.temporal.io/sdk/client"
)

func newDocsCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docs",
		Short: "Manage ingested documents",
	}

	var asJSON bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List ingested documents, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := s.open(cmd.Context())
			if err != nil {
				return err
			}
			docs := a.Pipeline.Documents()
			if asJSON {
				return printJSON(cmd.OutOrStdout(), docs)
			}
			if len(docs) == 0 {
				cmd.Println("No documents ingested.")
				return nil
			}
			for _, d := range docs {
				cmd.Printf("%-40s %4d chunks  %s\n", d.Filename, d.ChunkCount, d.ProcessedDate)
			}
			return nil
		},
	}
	list.Flags().BoolVar(&asJSON, "json", false, "output documents as JSON")

	var useTemporal bool
	del := &cobra.Command{
		Use:   "delete [name]",
		Short: "Delete a document with its chunks and tracking entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				deleted bool
				err     error
			)
			if useTemporal {
				deleted, err = deleteWithTemporal(cmd, s, args[0])
			} else {
				deleted, err = deleteLocal(cmd, s, args[0])
			}
			if err != nil {
				return err
			}
			if !deleted {
				return fmt.Errorf("document %q is not ingested", args[0])
			}
			cmd.Printf("Deleted %s\n", args[0])
			return nil
		},
	}
	del.Flags().BoolVar(&useTemporal, "temporal", false, "run the deletion as a Temporal workflow")

	cmd.AddCommand(list, del)
	return cmd
}

func deleteLocal(cmd *cobra.Command, s *session, name string) (bool, error) {
	a, err := s.open(cmd.Context())
	if err != nil {
		return false, err
	}
	return a.Pipeline.DeleteDocument(cmd.Context(), name)
}

func deleteWithTemporal(cmd *cobra.Command, s *session, name string) (bool, error) {
	c, err := s.temporal()
	if err != nil {
		return false, err
	}
	defer c.Close()
	run, err := c.ExecuteWorkflow(cmd.Context(), client.StartWorkflowOptions{
		ID:        workflows.DeleteWorkflowID(name),
		TaskQueue: s.cfg.TemporalTaskQueue,
	}, workflows.DeleteDocumentWorkflow, workflows.DeleteDocumentInput{Name: name})
	if err != nil {
		return false, err
	}
	var deleted bool
	err = run.Get(cmd.Context(), &deleted)
	return deleted, err
}

func newReconcileCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Repair disagreement between the tracking file and the index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := s.open(cmd.Context())
			if err != nil {
				return err
			}
			action, err := a.Pipeline.Reconcile(cmd.Context())
			if err != nil {
				return err
			}
			cmd.Printf("Reconcile: %s\n", action)
			return nil
		},
	}
}
