package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/gravitrone/replydesk/internal/api"
	"github.com/gravitrone/replydesk/internal/session"
)

// ReplyCmd returns the `replydesk reply` command.
func ReplyCmd() *cobra.Command {
	var (
		kbID    string
		title   string
		desc    string
		topK    int
		noSales bool
	)
	cmd := &cobra.Command{
		Use:   "reply <text>",
		Short: "Suggest a reply to a comment",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, cfg, err := loadClient()
			if err != nil {
				return err
			}
			if kbID == "" {
				kbID = cfg.DefaultKB
			}
			if kbID == "" {
				return fmt.Errorf("%s (pass --kb or set default_kb)", session.PreconditionNoKnowledgeBase)
			}

			res, err := client.SuggestReply(api.SuggestReplyInput{
				KBID: kbID,
				Comment: api.ReplyComment{
					CommentID: "cli-" + uuid.NewString(),
					NoteTitle: title,
					NoteDesc:  desc,
					Content:   strings.Join(args, " "),
				},
				TopK:        topK,
				InjectSales: !noSales,
			})
			if err != nil {
				return fmt.Errorf("suggest reply: %w", err)
			}
			printSuggestion(cmd.OutOrStdout(), res)
			return nil
		},
	}
	cmd.Flags().StringVar(&kbID, "kb", "", "knowledge base id (default: default_kb)")
	cmd.Flags().StringVar(&title, "title", "", "note title for context")
	cmd.Flags().StringVar(&desc, "desc", "", "note body for context")
	cmd.Flags().IntVarP(&topK, "top-k", "k", session.SuggestionTopK, "knowledge snippets to use")
	cmd.Flags().BoolVar(&noSales, "no-sales", false, "do not inject sales guidance")
	return cmd
}

// LeadsCmd returns the `replydesk leads` command group.
func LeadsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "leads",
		Short: "Lead scoring",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "score <text>",
		Short: "Score a piece of text as a sales lead",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := loadClient()
			if err != nil {
				return err
			}
			res, err := client.ScoreLead(strings.Join(args, " "))
			if err != nil {
				return fmt.Errorf("score lead: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "lead: %s (%d)\n", res.Level, res.Score)
			if len(res.Signals) > 0 {
				fmt.Fprintf(out, "signals: %s\n", strings.Join(res.Signals, ", "))
			}
			if len(res.NextActions) > 0 {
				fmt.Fprintf(out, "next: %s\n", strings.Join(res.NextActions, ", "))
			}
			return nil
		},
	})
	return cmd
}

func printSuggestion(out io.Writer, res *api.ReplySuggestion) {
	fmt.Fprintf(out, "intent: %s (%.2f)\n", res.Intent, res.IntentConfidence)
	fmt.Fprintf(out, "lead: %s (%d)\n", res.LeadLevel, res.LeadScore)
	if len(res.LeadSignals) > 0 {
		fmt.Fprintf(out, "signals: %s\n", strings.Join(res.LeadSignals, ", "))
	}
	if len(res.NextActions) > 0 {
		fmt.Fprintf(out, "next: %s\n", strings.Join(res.NextActions, ", "))
	}
	fmt.Fprintf(out, "kb v%d, %d snippets, %dms\n", res.KBVersion, len(res.UsedKnowledge), res.LatencyMS)
	fmt.Fprintln(out)
	fmt.Fprintln(out, res.Reply)
}
