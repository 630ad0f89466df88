package models

import (
	"time"

	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// Document is the generated website specification for one conversation.
// Exactly one document exists per conversation; regenerations mutate Content
// and bump LastModified.
type Document struct {
	ID           surrealmodels.RecordID `json:"id"`
	Conversation surrealmodels.RecordID `json:"conversation"`
	Owner        string                 `json:"owner"`
	Title        string                 `json:"title"`
	Content      string                 `json:"content"`
	CreatedAt    time.Time              `json:"created_at"`
	LastModified time.Time              `json:"last_modified"`
}
