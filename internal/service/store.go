// Package service provides business logic for sitespec operations.
package service

import (
	"context"

	"github.com/sitespec/sitespec/internal/db"
	"github.com/sitespec/sitespec/internal/models"
)

// Store is the persistence surface the generation service needs. Implemented
// by the SurrealDB-backed store; faked in tests.
type Store interface {
	CreateConversation(ctx context.Context, owner, title string, businessName, websiteURL *string) (*models.Conversation, error)
	GetConversation(ctx context.Context, id string) (*models.Conversation, error)
	ListConversations(ctx context.Context, owner string, limit int) ([]models.Conversation, error)
	DeleteConversation(ctx context.Context, id string) (int, error)
	AppendMessage(ctx context.Context, conversationID, role, content string) (*models.Message, error)
	ListMessages(ctx context.Context, conversationID string) ([]models.Message, error)
	GetDocumentByConversation(ctx context.Context, conversationID string) (*models.Document, error)
	CreateDocument(ctx context.Context, conversationID, owner, title, content string) (*models.Document, error)
	UpdateDocument(ctx context.Context, id, content string) (*models.Document, error)
}

// dbStore adapts db.Client to the Store interface.
type dbStore struct {
	client *db.Client
}

// NewStore wraps a SurrealDB client as a Store.
func NewStore(client *db.Client) Store {
	return &dbStore{client: client}
}

func (s *dbStore) CreateConversation(ctx context.Context, owner, title string, businessName, websiteURL *string) (*models.Conversation, error) {
	return s.client.QueryCreateConversation(ctx, owner, title, businessName, websiteURL)
}

func (s *dbStore) GetConversation(ctx context.Context, id string) (*models.Conversation, error) {
	return s.client.QueryGetConversation(ctx, id)
}

func (s *dbStore) ListConversations(ctx context.Context, owner string, limit int) ([]models.Conversation, error) {
	return s.client.QueryListConversations(ctx, owner, limit)
}

func (s *dbStore) DeleteConversation(ctx context.Context, id string) (int, error) {
	return s.client.QueryDeleteConversation(ctx, id)
}

func (s *dbStore) AppendMessage(ctx context.Context, conversationID, role, content string) (*models.Message, error) {
	return s.client.QueryAppendMessage(ctx, conversationID, role, content)
}

func (s *dbStore) ListMessages(ctx context.Context, conversationID string) ([]models.Message, error) {
	return s.client.QueryListMessages(ctx, conversationID)
}

func (s *dbStore) GetDocumentByConversation(ctx context.Context, conversationID string) (*models.Document, error) {
	return s.client.QueryGetDocumentByConversation(ctx, conversationID)
}

func (s *dbStore) CreateDocument(ctx context.Context, conversationID, owner, title, content string) (*models.Document, error) {
	return s.client.QueryCreateDocument(ctx, conversationID, owner, title, content)
}

func (s *dbStore) UpdateDocument(ctx context.Context, id, content string) (*models.Document, error) {
	return s.client.QueryUpdateDocument(ctx, id, content)
}
