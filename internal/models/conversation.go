package models

import (
	"time"

	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// Message roles within a conversation.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Conversation represents a persistent generation session for one business.
// BusinessName and WebsiteURL are set at creation and read-only afterwards.
type Conversation struct {
	ID           surrealmodels.RecordID `json:"id"`
	Owner        string                 `json:"owner"`
	Title        string                 `json:"title"`
	BusinessName *string                `json:"business_name,omitempty"`
	WebsiteURL   *string                `json:"website_url,omitempty"`
	CreatedAt    time.Time              `json:"created_at"`
	UpdatedAt    time.Time              `json:"updated_at"`
}

// Message is a single entry in a conversation's append-only log.
type Message struct {
	ID           surrealmodels.RecordID `json:"id"`
	Conversation surrealmodels.RecordID `json:"conversation"`
	Role         string                 `json:"role"`
	Content      string                 `json:"content"`
	CreatedAt    time.Time              `json:"created_at"`
}
