package cli

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/convostore-go/internal/metrics"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show storage statistics",
	Long: `Show stored conversation counts and the token usage recorded in
conversation history.

Examples:
  convostore stats`,
	RunE: runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	stats, err := durable.Stats(ctx)
	if err != nil {
		return fmt.Errorf("collect stats: %w", err)
	}

	fmt.Printf("Storage\n")
	fmt.Printf("═══════════════════════════════════════\n")
	fmt.Printf("Conversations: %d\n", stats.Conversations)
	fmt.Printf("Messages:      %d\n", stats.Messages)
	fmt.Printf("Content items: %d\n", stats.ContentItems)

	u := stats.Usage
	if u.InputTokens > 0 || u.OutputTokens > 0 || u.TotalTokens > 0 {
		fmt.Printf("\nToken usage (from stored history)\n")
		fmt.Printf("═══════════════════════════════════════\n")
		fmt.Printf("Input:  %d\n", u.InputTokens)
		fmt.Printf("Output: %d\n", u.OutputTokens)
		fmt.Printf("Total:  %d\n", u.TotalTokens)
	}
	return nil
}

// printOpMetrics writes the in-process operation stats collected during this
// invocation. Shown on stderr after each command in verbose mode.
func printOpMetrics(snap map[string]metrics.OperationSnapshot) {
	if len(snap) == 0 {
		return
	}

	ops := make([]string, 0, len(snap))
	for op := range snap {
		ops = append(ops, op)
	}
	sort.Strings(ops)

	fmt.Fprintf(os.Stderr, "\nOperations (this invocation)\n")
	for _, op := range ops {
		s := snap[op]
		fmt.Fprintf(os.Stderr, "  %-15s calls=%d failures=%d messages=%d avg=%.1fms\n",
			op, s.Count, s.Failures, s.MessagesAppended, s.AvgTimeMs)
	}
}
