package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var wipeYes bool

var wipeCmd = &cobra.Command{
	Use:   "wipe",
	Short: "Delete all stored conversations",
	Long: `Delete all conversations, messages and content items while keeping
the schema. Intended for test and development databases.`,
	RunE: runWipe,
}

func init() {
	wipeCmd.Flags().BoolVar(&wipeYes, "yes", false, "skip confirmation")
}

func runWipe(cmd *cobra.Command, args []string) error {
	if !wipeYes {
		return fmt.Errorf("refusing to wipe without --yes")
	}

	if err := dbClient.WipeData(context.Background()); err != nil {
		return fmt.Errorf("wipe data: %w", err)
	}

	fmt.Println("All conversation data deleted.")
	return nil
}
