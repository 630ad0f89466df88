package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sitespec/sitespec/internal/db"
	"github.com/sitespec/sitespec/internal/models"
)

var (
	convLimit     int
	convShowDoc   bool
	convDeleteYes bool
	convDocOutput string
)

var conversationsCmd = &cobra.Command{
	Use:     "conversations",
	Aliases: []string{"conv"},
	Short:   "Inspect and manage stored conversations",
}

var conversationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored conversations",
	RunE:  runConversationsList,
}

var conversationsShowCmd = &cobra.Command{
	Use:   "show <conversation-id>",
	Short: "Show a conversation's messages and document",
	Args:  cobra.ExactArgs(1),
	RunE:  runConversationsShow,
}

var conversationsDeleteCmd = &cobra.Command{
	Use:   "delete <conversation-id>",
	Short: "Delete a conversation, its messages and its document",
	Args:  cobra.ExactArgs(1),
	RunE:  runConversationsDelete,
}

func init() {
	conversationsListCmd.Flags().IntVarP(&convLimit, "limit", "l", 20, "maximum number of conversations to list")
	conversationsShowCmd.Flags().BoolVar(&convShowDoc, "document", false, "print the full document instead of the message log")
	conversationsShowCmd.Flags().StringVarP(&convDocOutput, "output", "o", "", "write the document to a file")
	conversationsDeleteCmd.Flags().BoolVarP(&convDeleteYes, "yes", "y", false, "skip the confirmation prompt")

	conversationsCmd.AddCommand(conversationsListCmd)
	conversationsCmd.AddCommand(conversationsShowCmd)
	conversationsCmd.AddCommand(conversationsDeleteCmd)
}

func runConversationsList(cmd *cobra.Command, args []string) error {
	svc, _ := getGenerationService()

	conversations, err := svc.ListConversations(cmd.Context(), convLimit)
	if err != nil {
		return fmt.Errorf("list conversations: %w", err)
	}

	if len(conversations) == 0 {
		fmt.Println("No conversations stored yet. Start one with 'sitespec generate --title ...'.")
		return nil
	}

	for _, conv := range conversations {
		id, err := models.RecordIDString(conv.ID)
		if err != nil {
			return err
		}
		business := "(no business)"
		if conv.BusinessName != nil {
			business = *conv.BusinessName
		}
		fmt.Printf("%s  %s  %s  updated %s\n",
			id, conv.Title, business, conv.UpdatedAt.Format("2006-01-02 15:04"))
	}

	return nil
}

func runConversationsShow(cmd *cobra.Command, args []string) error {
	svc, _ := getGenerationService()
	ctx := cmd.Context()
	conversationID := args[0]

	if convShowDoc || convDocOutput != "" {
		doc, err := svc.GetDocument(ctx, conversationID)
		if err != nil {
			if errors.Is(err, db.ErrNotFound) {
				return fmt.Errorf("no document for conversation %q; run 'sitespec generate -c %s' first", conversationID, conversationID)
			}
			return fmt.Errorf("get document: %w", err)
		}
		if convDocOutput != "" {
			if err := os.WriteFile(convDocOutput, []byte(doc.Content), 0o644); err != nil {
				return fmt.Errorf("write document: %w", err)
			}
			fmt.Printf("Wrote %q (%d characters) to %s\n", doc.Title, len(doc.Content), convDocOutput)
			return nil
		}
		fmt.Println(doc.Content)
		return nil
	}

	messages, err := svc.ListMessages(ctx, conversationID)
	if err != nil {
		return fmt.Errorf("list messages: %w", err)
	}

	if len(messages) == 0 {
		fmt.Println("No messages in this conversation yet.")
		return nil
	}

	for _, msg := range messages {
		fmt.Printf("[%s] %s\n", msg.Role, msg.CreatedAt.Format("2006-01-02 15:04"))
		for _, line := range strings.Split(strings.TrimSpace(msg.Content), "\n") {
			fmt.Printf("  %s\n", line)
		}
		fmt.Println()
	}

	return nil
}

func runConversationsDelete(cmd *cobra.Command, args []string) error {
	svc, _ := getGenerationService()
	conversationID := args[0]

	if !convDeleteYes {
		fmt.Printf("Delete conversation %s including all messages and its document? [y/N] ", conversationID)
		var answer string
		fmt.Scanln(&answer)
		if !strings.EqualFold(strings.TrimSpace(answer), "y") {
			fmt.Println("Aborted.")
			return nil
		}
	}

	deleted, err := svc.DeleteConversation(cmd.Context(), conversationID)
	if err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	if deleted == 0 {
		fmt.Println("No such conversation.")
		return nil
	}

	fmt.Println("Conversation deleted.")
	return nil
}
