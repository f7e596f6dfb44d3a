package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/gravitrone/replydesk/internal/api"
	"github.com/gravitrone/replydesk/internal/session"
)

// BulkCmd returns the `replydesk bulk` command: a headless bulk run over one
// comment page.
func BulkCmd() *cobra.Command {
	var (
		kbID     string
		page     int
		limit    int
		sortKey  string
		q        string
		interval time.Duration
	)
	cmd := &cobra.Command{
		Use:   "bulk <note-id>",
		Short: "Suggest replies for every comment on a page, one at a time",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, cfg, err := loadClient()
			if err != nil {
				return err
			}
			if kbID == "" {
				kbID = cfg.DefaultKB
			}
			if !cmd.Flags().Changed("interval") {
				interval, _ = cfg.Interval()
			}
			if !cmd.Flags().Changed("limit") {
				limit = cfg.PageSize
			}
			if page < 1 {
				return fmt.Errorf("page must be at least 1, got %d", page)
			}
			query := api.CommentQuery{Offset: (page - 1) * limit, Limit: limit, Sort: sortKey, Q: q}
			if err := query.Validate(); err != nil {
				return err
			}

			desk := session.NewDesk(client, session.WithPageSize(limit), session.WithBulkInterval(interval))
			desk.SelectKnowledgeBase(kbID)
			desk.SetSort(sortKey)
			desk.SetFilter(q)
			desk.Settle(desk.SelectNote(args[0]), nil)
			for i := 1; i < page; i++ {
				if err := desk.CommentsErr(); err != nil {
					return fmt.Errorf("list comments: %w", err)
				}
				next := desk.NextPage()
				if next == nil {
					return fmt.Errorf("page %d out of range", page)
				}
				desk.Settle(next, nil)
			}
			if err := desk.CommentsErr(); err != nil {
				return fmt.Errorf("list comments: %w", err)
			}

			comments := desk.Comments()
			effects, err := desk.StartBulk()
			if errors.Is(err, session.ErrEmptyPage) {
				fmt.Fprintln(cmd.OutOrStdout(), "no comments on this page")
				return nil
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printed := 0
			report := func() {
				p := desk.BulkProgress()
				for ; printed < p.Done && printed < len(comments); printed++ {
					c := comments[printed]
					job := desk.Suggestion(c.CommentID)
					switch job.Status {
					case session.JobSucceeded:
						fmt.Fprintf(out, "[%d/%d] %s  %s/%s  %s\n", printed+1, p.Total, c.CommentID,
							job.Value.Intent, job.Value.LeadLevel, oneLine(job.Value.Reply, 100))
					default:
						fmt.Fprintf(out, "[%d/%d] %s  failed: %s\n", printed+1, p.Total, c.CommentID, job.Reason)
					}
				}
			}
			report()
			desk.Settle(effects, report)

			fmt.Fprintf(out, "done: %d succeeded, %d failed\n",
				desk.SuggestionCount(session.JobSucceeded), desk.SuggestionCount(session.JobFailed))
			return nil
		},
	}
	cmd.Flags().StringVar(&kbID, "kb", "", "knowledge base id (default: default_kb)")
	cmd.Flags().IntVar(&page, "page", 1, "1-based comment page")
	cmd.Flags().IntVar(&limit, "limit", session.DefaultPageSize, "page size")
	cmd.Flags().StringVar(&sortKey, "sort", "like", "sort by like or time")
	cmd.Flags().StringVarP(&q, "q", "q", "", "filter comment text")
	cmd.Flags().DurationVar(&interval, "interval", 0, "minimum spacing between requests")
	return cmd
}
