package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var listLimit int

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List conversations",
	Long: `List stored conversations, most recently updated first.

Examples:
  convostore list
  convostore list --limit 10`,
	RunE: runList,
}

func init() {
	listCmd.Flags().IntVarP(&listLimit, "limit", "n", 50, "max results")
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	convs, err := durable.List(ctx, listLimit)
	if err != nil {
		return fmt.Errorf("list conversations: %w", err)
	}

	if len(convs) == 0 {
		fmt.Println("No conversations found.")
		return nil
	}

	fmt.Printf("Conversations (%d):\n\n", len(convs))
	for _, c := range convs {
		fmt.Printf("- %s  updated %s\n", c.ID, c.UpdatedAt.Local().Format("2006-01-02 15:04:05"))
		if verbose {
			fmt.Printf("  created %s\n", c.CreatedAt.Local().Format("2006-01-02 15:04:05"))
		}
	}
	return nil
}
