package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gravitrone/replydesk/internal/api"
)

// KBCmd returns the `replydesk kb` command group.
func KBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kb",
		Short: "Manage knowledge bases",
	}
	cmd.AddCommand(kbListCmd())
	cmd.AddCommand(kbCreateCmd())
	cmd.AddCommand(kbPublishCmd())
	cmd.AddCommand(kbReindexCmd())
	cmd.AddCommand(kbSearchCmd())
	return cmd
}

func kbListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List knowledge bases",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, _, err := loadClient()
			if err != nil {
				return err
			}
			kbs, err := client.ListKnowledgeBases()
			if err != nil {
				return fmt.Errorf("list knowledge bases: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(kbs) == 0 {
				fmt.Fprintln(out, "no knowledge bases found")
				return nil
			}
			for _, kb := range kbs {
				fmt.Fprintf(out, "  %s  %s (%s)  v%d\n", kb.ID, kb.Name, kb.Slug, kb.PublishedVersion)
			}
			return nil
		},
	}
}

func kbCreateCmd() *cobra.Command {
	var desc string
	cmd := &cobra.Command{
		Use:   "create <slug> <name>",
		Short: "Create a knowledge base",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := loadClient()
			if err != nil {
				return err
			}
			kb, err := client.CreateKnowledgeBase(api.CreateKnowledgeBaseInput{
				Slug:        args[0],
				Name:        args[1],
				Description: desc,
			})
			if err != nil {
				return fmt.Errorf("create knowledge base: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "knowledge base created: %s\n", kb.ID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&desc, "description", "d", "", "knowledge base description")
	return cmd
}

func kbPublishCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "publish <id>",
		Short: "Publish the current draft as a new version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := loadClient()
			if err != nil {
				return err
			}
			res, err := client.PublishKnowledgeBase(args[0])
			if err != nil {
				return fmt.Errorf("publish: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "published %s as v%d\n", res.KBID, res.PublishedVersion)
			return nil
		},
	}
}

func kbReindexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reindex <id>",
		Short: "Rebuild the vector index for the published version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := loadClient()
			if err != nil {
				return err
			}
			res, err := client.ReindexKnowledgeBase(args[0])
			if err != nil {
				return fmt.Errorf("reindex: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "indexed %d chunks (v%d, %s/%s, dim %d)\n",
				res.IndexedChunks, res.KBVersion, res.Provider, res.Model, res.Dim)
			return nil
		},
	}
}

func kbSearchCmd() *cobra.Command {
	var topK int
	cmd := &cobra.Command{
		Use:   "search <id> <query>",
		Short: "Search a knowledge base",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := loadClient()
			if err != nil {
				return err
			}
			query := strings.Join(args[1:], " ")
			res, err := client.SearchKnowledgeBase(args[0], api.SearchInput{Query: query, TopK: topK})
			if err != nil {
				return fmt.Errorf("search: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%d hits (v%d, %dms)\n", len(res.Hits), res.KBVersion, res.LatencyMS)
			for i, hit := range res.Hits {
				fmt.Fprintf(out, "  %d. [%.3f] %s\n", i+1, hit.Score, oneLine(hit.Content, 120))
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&topK, "top-k", "k", 5, "number of hits")
	return cmd
}

// oneLine collapses whitespace and truncates to n runes.
func oneLine(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "…"
}
