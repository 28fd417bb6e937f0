package cli

import (
	"bufio"
	"strings"

	"docrag/internal/chat"
	"docrag/internal/models"

	"github.com/spf13/cobra"
)

func newAskCmd(s *session) *cobra.Command {
	var showSources bool
	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Answer one question from the indexed documents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := s.start(cmd.Context())
			if err != nil {
				return err
			}
			printReply(cmd, args[0], a.Responder.Respond(cmd.Context(), args[0], nil), showSources)
			return nil
		},
	}
	cmd.Flags().BoolVar(&showSources, "sources", true, "list the retrieved passages")
	return cmd
}

func newChatCmd(s *session) *cobra.Command {
	var showSources bool
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Hold a conversation about the indexed documents",
		Long: `Reads questions from standard input, one per line.
Type "clear" to forget the conversation and "exit" to leave.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := s.start(cmd.Context())
			if err != nil {
				return err
			}
			return runChat(cmd, a.Responder, showSources)
		},
	}
	cmd.Flags().BoolVar(&showSources, "sources", false, "list the retrieved passages after each answer")
	return cmd
}

func runChat(cmd *cobra.Command, r *chat.Responder, showSources bool) error {
	var history []models.Turn
	in := bufio.NewScanner(cmd.InOrStdin())
	in.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	cmd.Print("> ")
	for in.Scan() {
		line := strings.TrimSpace(in.Text())
		switch strings.ToLower(line) {
		case "":
			cmd.Print("> ")
			continue
		case "exit", "quit":
			return nil
		case "clear":
			history = nil
			cmd.Println("Conversation cleared.")
			cmd.Print("> ")
			continue
		}
		reply := r.Respond(cmd.Context(), line, history)
		printReply(cmd, line, reply, showSources)
		if !reply.Failed {
			history = append(history,
				models.Turn{Role: models.RoleUser, Content: line},
				models.Turn{Role: models.RoleAssistant, Content: reply.Text})
		}
		cmd.Print("> ")
	}
	return in.Err()
}

func printReply(cmd *cobra.Command, query string, reply chat.Reply, showSources bool) {
	cmd.Println(reply.Text)
	if showSources && len(reply.Sources) > 0 {
		cmd.Println()
		cmd.Println("Sources:")
		printSources(cmd, query, reply.Sources)
	}
}
