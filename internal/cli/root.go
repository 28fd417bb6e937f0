package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"docrag/internal/app"
	"docrag/internal/config"
	"docrag/internal/util"

	"github.com/spf13/cobra"
	"go.temporal.io/sdk/client"
	tlog "go.temporal.io/sdk/log"
)

// session carries state shared by the subcommands of one invocation.
type session struct {
	configPath string
	cfg        config.Config
	log        *slog.Logger
	app        *app.App
}

// NewRootCmd builds the rag command tree.
func NewRootCmd() *cobra.Command {
	s := &session{}
	root := &cobra.Command{
		Use:           "rag",
		Short:         "Ingest PDF documents and answer questions about them",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadFile(s.configPath)
			if err != nil {
				return err
			}
			s.cfg = cfg
			s.log = util.NewLogger(cfg.LogLevel, cfg.LogFormat, cmd.ErrOrStderr())
			return nil
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if s.app == nil {
				return nil
			}
			return s.app.Close()
		},
	}
	root.PersistentFlags().StringVar(&s.configPath, "config", "docrag.yaml", "path to a YAML config file")

	root.AddCommand(
		newIngestCmd(s),
		newSearchCmd(s),
		newAskCmd(s),
		newChatCmd(s),
		newDocsCmd(s),
		newReconcileCmd(s),
	)
	return root
}

// Execute runs the command tree against os.Args.
func Execute(ctx context.Context) error {
	root := NewRootCmd()
	root.SetOut(os.Stdout)
	return root.ExecuteContext(ctx)
}

// open builds the application lazily so Temporal-only commands never touch the index.
func (s *session) open(ctx context.Context) (*app.App, error) {
	if s.app != nil {
		return s.app, nil
	}
	a, err := app.New(ctx, s.cfg, s.log)
	if err != nil {
		return nil, err
	}
	s.app = a
	return a, nil
}

// start opens the application and runs its startup sequence: reconcile,
// then ingest the documents directory when ingest_on_start is set.
func (s *session) start(ctx context.Context) (*app.App, error) {
	a, err := s.open(ctx)
	if err != nil {
		return nil, err
	}
	if err := a.Start(ctx); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *session) temporal() (client.Client, error) {
	c, err := client.Dial(client.Options{
		HostPort: s.cfg.TemporalAddress,
		Logger:   tlog.NewStructuredLogger(s.log),
	})
	if err != nil {
		return nil, fmt.Errorf("temporal dial %s: %w", s.cfg.TemporalAddress, err)
	}
	return c, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
