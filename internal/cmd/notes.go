package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/gravitrone/replydesk/internal/api"
	"github.com/gravitrone/replydesk/internal/session"
)

// NotesCmd returns the `replydesk notes` command group.
func NotesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notes",
		Short: "Browse scraped notes and their comments",
	}
	cmd.AddCommand(notesListCmd())
	cmd.AddCommand(notesCommentsCmd())
	cmd.AddCommand(notesAnalyzeCmd())
	cmd.AddCommand(notesShowCmd())
	return cmd
}

func notesListCmd() *cobra.Command {
	var q string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List notes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, _, err := loadClient()
			if err != nil {
				return err
			}
			list, err := client.ListNotes(q)
			if err != nil {
				return fmt.Errorf("list notes: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(list.Notes) == 0 {
				fmt.Fprintln(out, "no notes found")
				return nil
			}
			for _, n := range list.Notes {
				title := n.Title
				if title == "" {
					title = "(untitled)"
				}
				fmt.Fprintf(out, "  %s  %s  likes %s  comments %s\n",
					n.NoteID, oneLine(title, 44), n.LikedCount, n.CommentCount)
			}
			fmt.Fprintf(out, "%d notes\n", list.Total)
			return nil
		},
	}
	cmd.Flags().StringVarP(&q, "q", "q", "", "filter by title, body or tags")
	return cmd
}

type pageFlags struct {
	offset int
	limit  int
	sort   string
	q      string
}

func (f *pageFlags) bind(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.offset, "offset", 0, "first comment to return")
	cmd.Flags().IntVar(&f.limit, "limit", session.DefaultPageSize, "page size")
	cmd.Flags().StringVar(&f.sort, "sort", api.SortLike, "sort by like or time")
	cmd.Flags().StringVarP(&f.q, "q", "q", "", "filter comment text")
}

func (f pageFlags) query() api.CommentQuery {
	return api.CommentQuery{Offset: f.offset, Limit: f.limit, Sort: f.sort, Q: f.q}
}

func notesCommentsCmd() *cobra.Command {
	var flags pageFlags
	cmd := &cobra.Command{
		Use:   "comments <note-id>",
		Short: "List one page of comments for a note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := loadClient()
			if err != nil {
				return err
			}
			page, err := client.ListComments(args[0], flags.query())
			if err != nil {
				return fmt.Errorf("list comments: %w", err)
			}
			printCommentPage(cmd.OutOrStdout(), page)
			return nil
		},
	}
	flags.bind(cmd)
	return cmd
}

func notesAnalyzeCmd() *cobra.Command {
	var maxSamples int
	cmd := &cobra.Command{
		Use:   "analyze <note-id>",
		Short: "Summarize comment intents for a note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := loadClient()
			if err != nil {
				return err
			}
			res, err := client.AnalyzeNote(args[0], maxSamples)
			if err != nil {
				return fmt.Errorf("analyze: %w", err)
			}
			printAnalysis(cmd.OutOrStdout(), res)
			return nil
		},
	}
	cmd.Flags().IntVar(&maxSamples, "max-samples", session.AnalysisSamples, "comments to sample")
	return cmd
}

func notesShowCmd() *cobra.Command {
	var flags pageFlags
	cmd := &cobra.Command{
		Use:   "show <note-id>",
		Short: "Show the analysis and one comment page for a note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := loadClient()
			if err != nil {
				return err
			}
			noteID := args[0]

			var (
				analysis *api.NoteAnalysis
				page     *api.CommentPage
			)
			var g errgroup.Group
			g.Go(func() error {
				res, err := client.AnalyzeNote(noteID, session.AnalysisSamples)
				if err != nil {
					return fmt.Errorf("analyze: %w", err)
				}
				analysis = res
				return nil
			})
			g.Go(func() error {
				res, err := client.ListComments(noteID, flags.query())
				if err != nil {
					return fmt.Errorf("list comments: %w", err)
				}
				page = res
				return nil
			})
			if err := g.Wait(); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printAnalysis(out, analysis)
			fmt.Fprintln(out)
			printCommentPage(out, page)
			return nil
		},
	}
	flags.bind(cmd)
	return cmd
}

func printAnalysis(out io.Writer, res *api.NoteAnalysis) {
	fmt.Fprintf(out, "total comments: %d\n", res.TotalComments)
	for _, ic := range session.SortIntents(res.IntentCounts) {
		fmt.Fprintf(out, "  %-12s %d\n", ic.Intent, ic.Count)
	}
}

func printCommentPage(out io.Writer, page *api.CommentPage) {
	if len(page.Comments) == 0 {
		fmt.Fprintln(out, "no comments")
		return
	}
	p := session.Pager{Offset: page.Offset, Limit: page.Limit, Total: page.Total}
	first, last, total := p.Range()
	fmt.Fprintf(out, "comments %d-%d / %d (sort %s)\n", first, last, total, page.Sort)
	for _, c := range page.Comments {
		fmt.Fprintf(out, "  %s  %s  likes %s  %s\n", c.CommentID, c.Nickname, c.LikeCount, FormatMillis(c.CreateTime))
		fmt.Fprintf(out, "    %s\n", oneLine(c.Content, 120))
	}
}
