package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/gravitrone/replydesk/internal/api"
	"github.com/gravitrone/replydesk/internal/session"
)

// MonitorCmd returns the `replydesk monitor` command group.
func MonitorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Reply metrics",
	}
	cmd.AddCommand(monitorOverviewCmd())
	cmd.AddCommand(monitorTopLeadsCmd())
	return cmd
}

func monitorOverviewCmd() *cobra.Command {
	var since, until string
	cmd := &cobra.Command{
		Use:   "overview",
		Short: "Aggregate reply metrics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			input := api.OverviewInput{}
			var err error
			if input.Since, err = parseBound("since", since); err != nil {
				return err
			}
			if input.Until, err = parseBound("until", until); err != nil {
				return err
			}

			client, _, err := loadClient()
			if err != nil {
				return err
			}
			res, err := client.MonitorOverview(input)
			if err != nil {
				return fmt.Errorf("overview: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "replies: %d  avg latency: %dms  llm rate: %.0f%%\n",
				res.TotalReplies, res.AvgLatencyMS, res.LLMRate*100)
			fmt.Fprintf(out, "leads: high %d  medium %d  low %d\n", res.LeadHigh, res.LeadMedium, res.LeadLow)
			for _, ic := range session.SortIntents(res.IntentCounts) {
				fmt.Fprintf(out, "  %-12s %d\n", ic.Intent, ic.Count)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&since, "since", "", "window start (RFC3339 or YYYY-MM-DD)")
	cmd.Flags().StringVar(&until, "until", "", "window end (RFC3339 or YYYY-MM-DD)")
	return cmd
}

func monitorTopLeadsCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "top-leads <note-id>",
		Short: "Highest scoring leads for a note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := loadClient()
			if err != nil {
				return err
			}
			res, err := client.MonitorNoteTopLeads(args[0], limit)
			if err != nil {
				return fmt.Errorf("top leads: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(res.Rows) == 0 {
				fmt.Fprintln(out, "no leads yet")
				return nil
			}
			for _, row := range res.Rows {
				fmt.Fprintf(out, "  %3d  %-6s  %-10s  %s  %s\n",
					row.LeadScore, row.LeadLevel, row.Intent, row.CommentID, row.CreatedAt.Local().Format(tsLayout))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "rows to return")
	return cmd
}

func parseBound(name, raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("invalid --%s %q: want RFC3339 or YYYY-MM-DD", name, raw)
}
