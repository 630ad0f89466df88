// Package db provides SurrealDB query functions for conversations, messages
// and documents.
package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/surrealdb/surrealdb.go"

	"github.com/sitespec/sitespec/internal/models"
)

// QueryCreateConversation creates a new conversation with a generated id.
func (c *Client) QueryCreateConversation(
	ctx context.Context,
	owner string,
	title string,
	businessName *string,
	websiteURL *string,
) (*models.Conversation, error) {
	sql := `
		CREATE type::record("conversation", $id) SET
			owner = $owner,
			title = $title,
			business_name = $business_name,
			website_url = $website_url
		RETURN AFTER
	`

	results, err := surrealdb.Query[[]models.Conversation](ctx, c.db, sql, map[string]any{
		"id":            uuid.NewString(),
		"owner":         owner,
		"title":         title,
		"business_name": businessName,
		"website_url":   websiteURL,
	})
	if err != nil {
		return nil, fmt.Errorf("create conversation: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, fmt.Errorf("create conversation: no result returned")
	}
	return &(*results)[0].Result[0], nil
}

// QueryGetConversation retrieves a conversation by id.
// Returns ErrNotFound if it does not exist.
func (c *Client) QueryGetConversation(ctx context.Context, id string) (*models.Conversation, error) {
	results, err := surrealdb.Query[[]models.Conversation](ctx, c.db, `
		SELECT * FROM type::record("conversation", $id)
	`, map[string]any{"id": id})
	if err != nil {
		return nil, fmt.Errorf("get conversation: %w", err)
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, fmt.Errorf("get conversation %q: %w", id, ErrNotFound)
	}
	return &(*results)[0].Result[0], nil
}

// QueryListConversations returns an owner's conversations, most recently
// updated first.
func (c *Client) QueryListConversations(ctx context.Context, owner string, limit int) ([]models.Conversation, error) {
	results, err := surrealdb.Query[[]models.Conversation](ctx, c.db, `
		SELECT * FROM conversation WHERE owner = $owner
		ORDER BY updated_at DESC
		LIMIT $limit
	`, map[string]any{"owner": owner, "limit": limit})
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}

	if results == nil || len(*results) == 0 {
		return []models.Conversation{}, nil
	}
	return (*results)[0].Result, nil
}

// QueryTouchConversation bumps a conversation's updated_at timestamp.
func (c *Client) QueryTouchConversation(ctx context.Context, id string) error {
	_, err := surrealdb.Query[any](ctx, c.db, `
		UPDATE type::record("conversation", $id) SET updated_at = time::now()
	`, map[string]any{"id": id})
	if err != nil {
		return fmt.Errorf("touch conversation: %w", err)
	}
	return nil
}

// QueryAppendMessage appends a message to a conversation's log and bumps the
// conversation's updated_at.
func (c *Client) QueryAppendMessage(
	ctx context.Context,
	conversationID string,
	role string,
	content string,
) (*models.Message, error) {
	sql := `
		LET $conv = type::record("conversation", $conversation_id);
		IF (SELECT count() AS c FROM $conv).c == 0 {
			THROW "conversation not found"
		};
		UPDATE $conv SET updated_at = time::now();
		CREATE type::record("message", $id) SET
			conversation = $conv,
			role = $role,
			content = $content
		RETURN AFTER;
	`

	results, err := surrealdb.Query[[]models.Message](ctx, c.db, sql, map[string]any{
		"id":              uuid.NewString(),
		"conversation_id": conversationID,
		"role":            role,
		"content":         content,
	})
	if err != nil {
		return nil, fmt.Errorf("append message: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 {
		return nil, fmt.Errorf("append message: no result returned")
	}
	// The CREATE is the final statement in the batch.
	last := (*results)[len(*results)-1].Result
	if len(last) == 0 {
		return nil, fmt.Errorf("append message: no result returned")
	}
	return &last[0], nil
}

// QueryListMessages returns a conversation's messages in insertion order.
func (c *Client) QueryListMessages(ctx context.Context, conversationID string) ([]models.Message, error) {
	results, err := surrealdb.Query[[]models.Message](ctx, c.db, `
		SELECT * FROM message
		WHERE conversation = type::record("conversation", $conversation_id)
		ORDER BY created_at ASC
	`, map[string]any{"conversation_id": conversationID})
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	if results == nil || len(*results) == 0 {
		return []models.Message{}, nil
	}
	return (*results)[0].Result, nil
}

// QueryGetDocumentByConversation retrieves the document belonging to a
// conversation. Returns ErrNotFound if the conversation has no document yet.
func (c *Client) QueryGetDocumentByConversation(ctx context.Context, conversationID string) (*models.Document, error) {
	results, err := surrealdb.Query[[]models.Document](ctx, c.db, `
		SELECT * FROM document
		WHERE conversation = type::record("conversation", $conversation_id)
		LIMIT 1
	`, map[string]any{"conversation_id": conversationID})
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, fmt.Errorf("document for conversation %q: %w", conversationID, ErrNotFound)
	}
	return &(*results)[0].Result[0], nil
}

// QueryCreateDocument creates the document for a conversation. The unique
// index on document.conversation rejects a second document; that surfaces as
// ErrDocumentExists.
func (c *Client) QueryCreateDocument(
	ctx context.Context,
	conversationID string,
	owner string,
	title string,
	content string,
) (*models.Document, error) {
	sql := `
		CREATE type::record("document", $id) SET
			conversation = type::record("conversation", $conversation_id),
			owner = $owner,
			title = $title,
			content = $content
		RETURN AFTER
	`

	results, err := surrealdb.Query[[]models.Document](ctx, c.db, sql, map[string]any{
		"id":              uuid.NewString(),
		"conversation_id": conversationID,
		"owner":           owner,
		"title":           title,
		"content":         content,
	})
	if err != nil {
		return nil, fmt.Errorf("create document: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, fmt.Errorf("create document: no result returned")
	}
	return &(*results)[0].Result[0], nil
}

// QueryUpdateDocument replaces a document's content and bumps last_modified.
// Returns ErrNotFound if the document does not exist.
func (c *Client) QueryUpdateDocument(ctx context.Context, id string, content string) (*models.Document, error) {
	results, err := surrealdb.Query[[]models.Document](ctx, c.db, `
		UPDATE type::record("document", $id) SET
			content = $content,
			last_modified = time::now()
		RETURN AFTER
	`, map[string]any{"id": id, "content": content})
	if err != nil {
		return nil, fmt.Errorf("update document: %w", err)
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, fmt.Errorf("update document %q: %w", id, ErrNotFound)
	}
	return &(*results)[0].Result[0], nil
}

// QueryDeleteConversation deletes a conversation together with its messages
// and document. Returns the count of deleted conversations (0 if not found,
// idempotent).
func (c *Client) QueryDeleteConversation(ctx context.Context, id string) (int, error) {
	sql := `
		LET $conv = type::record("conversation", $id);
		DELETE message WHERE conversation = $conv;
		DELETE document WHERE conversation = $conv;
		DELETE $conv RETURN BEFORE;
	`

	results, err := surrealdb.Query[[]models.Conversation](ctx, c.db, sql, map[string]any{"id": id})
	if err != nil {
		return 0, fmt.Errorf("delete conversation: %w", err)
	}

	if results == nil || len(*results) == 0 {
		return 0, nil
	}
	last := (*results)[len(*results)-1].Result
	return len(last), nil
}
