package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/sitespec/sitespec/internal/db"
	"github.com/sitespec/sitespec/internal/models"
)

// GetDocumentInput defines the input schema for the get_document tool.
type GetDocumentInput struct {
	ConversationID string `json:"conversation_id" jsonschema:"required,Conversation whose document to fetch"`
}

// NewGetDocumentHandler creates the get_document tool handler.
func NewGetDocumentHandler(deps *Dependencies) mcp.ToolHandlerFor[GetDocumentInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input GetDocumentInput) (
		*mcp.CallToolResult, any, error,
	) {
		if input.ConversationID == "" {
			return ErrorResult("Conversation id cannot be empty", ""), nil, nil
		}

		doc, err := deps.Service.GetDocument(ctx, input.ConversationID)
		if err != nil {
			if errors.Is(err, db.ErrNotFound) {
				return ErrorResult("No document exists for this conversation", "Run generate_spec first"), nil, nil
			}
			deps.Logger.Error("get document failed", "conversation", input.ConversationID, "error", err)
			return ErrorResult("Failed to fetch document", "Database may be unavailable"), nil, nil
		}

		return TextResult(doc.Content), nil, nil
	}
}

// ListConversationsInput defines the input schema for list_conversations.
type ListConversationsInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"Max conversations to return, default 20"`
}

// NewListConversationsHandler creates the list_conversations tool handler.
func NewListConversationsHandler(deps *Dependencies) mcp.ToolHandlerFor[ListConversationsInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ListConversationsInput) (
		*mcp.CallToolResult, any, error,
	) {
		limit := input.Limit
		if limit <= 0 {
			limit = 20
		}

		conversations, err := deps.Service.ListConversations(ctx, limit)
		if err != nil {
			deps.Logger.Error("list conversations failed", "error", err)
			return ErrorResult("Failed to list conversations", "Database may be unavailable"), nil, nil
		}
		if len(conversations) == 0 {
			return TextResult("No conversations yet."), nil, nil
		}

		lines := make([]string, 0, len(conversations))
		for _, conv := range conversations {
			id, err := models.RecordIDString(conv.ID)
			if err != nil {
				continue
			}
			line := fmt.Sprintf("%s  %s", id, conv.Title)
			if conv.BusinessName != nil {
				line += fmt.Sprintf("  (%s)", *conv.BusinessName)
			}
			lines = append(lines, line)
		}
		return TextResult(strings.Join(lines, "\n")), nil, nil
	}
}
