package tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/sitespec/sitespec/internal/db"
	"github.com/sitespec/sitespec/internal/models"
)

// StartConversationInput defines the input schema for start_conversation.
type StartConversationInput struct {
	Title        string `json:"title" jsonschema:"required,Title for the conversation and its document"`
	BusinessName string `json:"business_name,omitempty" jsonschema:"Business name for directory lookup and reviews"`
	WebsiteURL   string `json:"website_url,omitempty" jsonschema:"Existing website URL for scraping and SEO analysis"`
}

// NewStartConversationHandler creates the start_conversation tool handler.
func NewStartConversationHandler(deps *Dependencies) mcp.ToolHandlerFor[StartConversationInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input StartConversationInput) (
		*mcp.CallToolResult, any, error,
	) {
		if input.Title == "" {
			return ErrorResult("Title cannot be empty", "Provide a conversation title"), nil, nil
		}

		conv, err := deps.Service.StartConversation(ctx, input.Title, optional(input.BusinessName), optional(input.WebsiteURL))
		if err != nil {
			deps.Logger.Error("start conversation failed", "error", err)
			return ErrorResult("Failed to create conversation", "Database may be unavailable"), nil, nil
		}

		id, err := models.RecordIDString(conv.ID)
		if err != nil {
			return ErrorResult("Failed to read conversation id", ""), nil, nil
		}
		return TextResult(fmt.Sprintf("Conversation created with id %q.", id)), nil, nil
	}
}

// GenerateSpecInput defines the input schema for the generate_spec tool.
type GenerateSpecInput struct {
	ConversationID string `json:"conversation_id" jsonschema:"required,Conversation to generate the specification for"`
	Request        string `json:"request,omitempty" jsonschema:"Free-text instructions for this generation run"`
}

// NewGenerateSpecHandler creates the generate_spec tool handler. It runs the
// full pipeline: parallel source aggregation, document assembly, and the
// conversation audit trail. The first call for a conversation creates the
// document; later calls update it.
func NewGenerateSpecHandler(deps *Dependencies) mcp.ToolHandlerFor[GenerateSpecInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input GenerateSpecInput) (
		*mcp.CallToolResult, any, error,
	) {
		if input.ConversationID == "" {
			return ErrorResult("Conversation id cannot be empty", "Use start_conversation first"), nil, nil
		}

		result, err := deps.Service.Generate(ctx, input.ConversationID, input.Request)
		if err != nil {
			if errors.Is(err, db.ErrNotFound) {
				return ErrorResult("Conversation not found", "Check the id or use start_conversation"), nil, nil
			}
			deps.Logger.Error("generation failed", "conversation", input.ConversationID, "error", err)
			return ErrorResult("Generation failed: "+err.Error(), ""), nil, nil
		}

		action := "updated"
		if result.Created {
			action = "created"
		}
		summary := fmt.Sprintf("Specification %s (%d characters). Sources: reviews=%t, website=%t, seo=%t.\n\n%s",
			action, len(result.Document.Content),
			result.Context.HasReviews(), result.Context.HasWebsite(), result.Context.HasSEO(),
			result.Document.Content)
		return TextResult(summary), nil, nil
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
