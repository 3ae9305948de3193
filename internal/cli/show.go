package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/raphaelgruber/convostore-go/internal/models"
)

// Role colors, same palette family as the log output.
var (
	roleStyles = map[models.Role]lipgloss.Style{
		models.RoleSystem:    lipgloss.NewStyle().Foreground(lipgloss.Color("#6C6C6C")).Bold(true),
		models.RoleUser:      lipgloss.NewStyle().Foreground(lipgloss.Color("#5FAFD7")).Bold(true),
		models.RoleAssistant: lipgloss.NewStyle().Foreground(lipgloss.Color("#00D787")).Bold(true),
		models.RoleTool:      lipgloss.NewStyle().Foreground(lipgloss.Color("#D7AF5F")).Bold(true),
	}
	dimStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C6C6C"))
)

var showCmd = &cobra.Command{
	Use:   "show <conversation-id>",
	Short: "Show a conversation transcript",
	Long: `Show the full ordered transcript of a conversation, including tool
traffic and token usage.

Examples:
  convostore show 4f2c9a11be034fd2
  convostore show my-thread --verbose`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func runShow(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	conv, diag, err := durable.Load(ctx, args[0])
	if err != nil {
		return fmt.Errorf("load conversation: %w", err)
	}

	styled := term.IsTerminal(int(os.Stdout.Fd()))

	fmt.Printf("Conversation %s\n", conv.ID)
	fmt.Printf("Created %s, updated %s, %d messages\n\n",
		conv.CreatedAt.Local().Format("2006-01-02 15:04:05"),
		conv.UpdatedAt.Local().Format("2006-01-02 15:04:05"),
		len(conv.Messages),
	)

	for _, m := range conv.Messages {
		label := string(m.Role)
		if m.Author != "" {
			label += " (" + m.Author + ")"
		}
		if styled {
			label = roleStyles[m.Role].Render(label)
		}
		fmt.Printf("[%d] %s\n", m.Position, label)
		for _, c := range m.Content {
			fmt.Println(renderContent(c, styled))
		}
		fmt.Println()
	}

	if diag.SkippedMessages > 0 || diag.SkippedItems > 0 || diag.DegradedItems > 0 {
		note := fmt.Sprintf("note: %d messages and %d items could not be decoded, %d payloads degraded",
			diag.SkippedMessages, diag.SkippedItems, diag.DegradedItems)
		if styled {
			note = dimStyle.Render(note)
		}
		fmt.Println(note)
	}
	return nil
}

// renderContent formats one content item for the transcript, indented under
// its message header.
func renderContent(c models.Content, styled bool) string {
	indent := func(s string) string {
		lines := strings.Split(s, "\n")
		for i := range lines {
			lines[i] = "    " + lines[i]
		}
		return strings.Join(lines, "\n")
	}
	dim := func(s string) string {
		if styled {
			return dimStyle.Render(s)
		}
		return s
	}

	switch v := c.(type) {
	case models.TextContent:
		return indent(v.Text)
	case models.ReasoningContent:
		return indent(dim("[reasoning] " + v.Text))
	case models.URIContent:
		return indent(dim(fmt.Sprintf("[uri] %s (%s)", v.URI, v.MediaType)))
	case models.ErrorContent:
		s := "[error] " + v.Message
		if v.Code != "" {
			s += " (" + v.Code + ")"
		}
		return indent(dim(s))
	case models.FunctionCall:
		return indent(dim(fmt.Sprintf("[call %s] %s(%v)", v.CallID, v.Name, v.Arguments)))
	case models.FunctionResult:
		return indent(dim(fmt.Sprintf("[result %s] %v", v.CallID, v.Result)))
	case models.UsageContent:
		parts := []string{}
		if v.InputTokens != nil {
			parts = append(parts, fmt.Sprintf("in=%d", *v.InputTokens))
		}
		if v.OutputTokens != nil {
			parts = append(parts, fmt.Sprintf("out=%d", *v.OutputTokens))
		}
		if v.TotalTokens != nil {
			parts = append(parts, fmt.Sprintf("total=%d", *v.TotalTokens))
		}
		return indent(dim("[usage] " + strings.Join(parts, " ")))
	default:
		return indent(dim(fmt.Sprintf("[%s]", c.Kind())))
	}
}
