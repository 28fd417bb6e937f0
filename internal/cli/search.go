package cli

import (
	"docrag/internal/models"
	"docrag/internal/util"

	"github.com/spf13/cobra"
)

func newSearchCmd(s *session) *cobra.Command {
	var (
		k      int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Show the chunks most similar to a query",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := s.start(cmd.Context())
			if err != nil {
				return err
			}
			if k <= 0 {
				k = s.cfg.TopK
			}
			results, err := a.Searcher.Search(cmd.Context(), args[0], k)
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), results)
			}
			printSources(cmd, args[0], results)
			return nil
		},
	}
	cmd.Flags().IntVarP(&k, "top-k", "k", 0, "number of results (defaults to top_k)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output results as JSON")
	return cmd
}

func printSources(cmd *cobra.Command, query string, results []models.SearchResult) {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return
	}
	for i, r := range results {
		cmd.Printf("  [%d] %s part %d/%d (score %.3f)\n", i+1, r.Metadata.Source,
			r.Metadata.ChunkIndex+1, r.Metadata.ChunkCount, r.Score)
		cmd.Printf("      %s\n", util.EvidenceSnippet(r.Content, query, 240))
	}
}
