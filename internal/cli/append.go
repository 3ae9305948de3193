package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/convostore-go/internal/models"
)

var (
	appendRole   string
	appendAuthor string
)

var appendCmd = &cobra.Command{
	Use:   "append <conversation-id> <text>",
	Short: "Append a message to a conversation",
	Long: `Append one text message to a conversation, creating the conversation
if it does not exist yet.

Examples:
  convostore append my-thread "What changed in the deploy pipeline?"
  convostore append my-thread "Rolled back at 14:02" --role assistant`,
	Args: cobra.ExactArgs(2),
	RunE: runAppend,
}

func init() {
	appendCmd.Flags().StringVarP(&appendRole, "role", "r", "user", "message role (system, user, assistant, tool)")
	appendCmd.Flags().StringVarP(&appendAuthor, "author", "a", "", "author name")
}

func runAppend(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	msg := models.TextMessage(models.Role(appendRole), args[1])
	msg.Author = appendAuthor

	conv, err := history.GetOrCreateConversation(ctx, args[0], []models.Message{msg})
	if err != nil {
		return fmt.Errorf("append message: %w", err)
	}

	fmt.Printf("Appended to %s (%d messages).\n", conv.ID, len(conv.Messages))
	return nil
}
