package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sitespec/sitespec/internal/aggregate"
	"github.com/sitespec/sitespec/internal/db"
	"github.com/sitespec/sitespec/internal/metrics"
	"github.com/sitespec/sitespec/internal/models"
)

// Aggregator fetches external source data for one generation request.
// Implemented by aggregate.Aggregator.
type Aggregator interface {
	Fetch(ctx context.Context, req aggregate.Request) models.AggregatedContext
}

// Assembler produces document content for the create and update paths.
// Implemented by document.Assembler.
type Assembler interface {
	Create(ctx context.Context, title, request string, agg models.AggregatedContext) (string, bool)
	Update(ctx context.Context, existing, request string, agg models.AggregatedContext) (string, bool)
}

// GenerationService orchestrates specification generation: it resolves the
// conversation, aggregates external data, assembles the document and writes
// it together with an audit message.
type GenerationService struct {
	store      Store
	aggregator Aggregator
	assembler  Assembler
	stats      *metrics.Collector
	logger     *slog.Logger
	owner      string
}

// NewGenerationService creates a generation service. stats may be nil.
func NewGenerationService(store Store, aggregator Aggregator, assembler Assembler, stats *metrics.Collector, logger *slog.Logger, owner string) *GenerationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &GenerationService{
		store:      store,
		aggregator: aggregator,
		assembler:  assembler,
		stats:      stats,
		logger:     logger,
		owner:      owner,
	}
}

// GenerateResult reports the outcome of one generation run.
type GenerateResult struct {
	Document *models.Document
	// Created is true when the create path ran, false for the update path.
	Created bool
	// Generative is false when the deterministic fallback produced the
	// content.
	Generative bool
	Context    models.AggregatedContext
}

// StartConversation creates a new conversation for a business.
func (s *GenerationService) StartConversation(ctx context.Context, title string, businessName, websiteURL *string) (*models.Conversation, error) {
	if title == "" {
		return nil, fmt.Errorf("conversation title is required")
	}
	conv, err := s.store.CreateConversation(ctx, s.owner, title, businessName, websiteURL)
	if err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}
	s.logger.Info("conversation created", "title", title)
	return conv, nil
}

// Generate runs one generation request against a conversation. The request
// text becomes a user message; the outcome is recorded as an assistant
// message after the document write succeeds. A failing generative call
// degrades to the deterministic path, it never fails the operation. Only an
// unresolvable conversation or a store write failure is returned as an error.
func (s *GenerationService) Generate(ctx context.Context, conversationID, request string) (*GenerateResult, error) {
	conv, err := s.store.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("resolve conversation: %w", err)
	}

	if request != "" {
		if _, err := s.store.AppendMessage(ctx, conversationID, models.RoleUser, request); err != nil {
			return nil, fmt.Errorf("append user message: %w", err)
		}
	}

	agg := s.aggregator.Fetch(ctx, aggregate.Request{
		BusinessName: deref(conv.BusinessName),
		WebsiteURL:   deref(conv.WebsiteURL),
		Context:      request,
	})

	existing, err := s.store.GetDocumentByConversation(ctx, conversationID)
	switch {
	case err == nil:
		return s.update(ctx, conv, conversationID, existing, request, agg)
	case errors.Is(err, db.ErrNotFound):
		return s.create(ctx, conv, conversationID, request, agg)
	default:
		return nil, fmt.Errorf("look up document: %w", err)
	}
}

func (s *GenerationService) create(ctx context.Context, conv *models.Conversation, conversationID, request string, agg models.AggregatedContext) (*GenerateResult, error) {
	content, generative := s.assembler.Create(ctx, conv.Title, request, agg)

	start := time.Now()
	doc, err := s.store.CreateDocument(ctx, conversationID, s.owner, conv.Title, content)
	if errors.Is(err, db.ErrDocumentExists) {
		// Lost a create race; the document now exists, so take the
		// update path against it.
		existing, getErr := s.store.GetDocumentByConversation(ctx, conversationID)
		if getErr != nil {
			return nil, fmt.Errorf("look up document after create conflict: %w", getErr)
		}
		return s.update(ctx, conv, conversationID, existing, request, agg)
	}
	if err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}
	s.recordWrite(start)

	if err := s.audit(ctx, conversationID, "Created the website specification document.", generative, agg); err != nil {
		return nil, err
	}

	s.logger.Info("document created", "title", conv.Title, "generative", generative)
	s.logStats()
	return &GenerateResult{Document: doc, Created: true, Generative: generative, Context: agg}, nil
}

func (s *GenerationService) update(ctx context.Context, conv *models.Conversation, conversationID string, existing *models.Document, request string, agg models.AggregatedContext) (*GenerateResult, error) {
	content, generative := s.assembler.Update(ctx, existing.Content, request, agg)

	docID, err := models.RecordIDString(existing.ID)
	if err != nil {
		return nil, fmt.Errorf("document id: %w", err)
	}

	start := time.Now()
	doc, err := s.store.UpdateDocument(ctx, docID, content)
	if err != nil {
		return nil, fmt.Errorf("update document: %w", err)
	}
	s.recordWrite(start)

	if err := s.audit(ctx, conversationID, "Updated the website specification document.", generative, agg); err != nil {
		return nil, err
	}

	s.logger.Info("document updated", "title", conv.Title, "generative", generative)
	s.logStats()
	return &GenerateResult{Document: doc, Created: false, Generative: generative, Context: agg}, nil
}

// audit appends the assistant summary message. Runs only after the document
// write succeeded.
func (s *GenerationService) audit(ctx context.Context, conversationID, action string, generative bool, agg models.AggregatedContext) error {
	summary := fmt.Sprintf("%s Sources used: reviews=%t, website=%t, seo=%t.",
		action, agg.HasReviews(), agg.HasWebsite(), agg.HasSEO())
	if !generative {
		summary += " Content was assembled from the deterministic template."
	}

	if _, err := s.store.AppendMessage(ctx, conversationID, models.RoleAssistant, summary); err != nil {
		return fmt.Errorf("append audit message: %w", err)
	}
	return nil
}

// GetDocument returns the document for a conversation.
func (s *GenerationService) GetDocument(ctx context.Context, conversationID string) (*models.Document, error) {
	return s.store.GetDocumentByConversation(ctx, conversationID)
}

// ListConversations returns the owner's conversations.
func (s *GenerationService) ListConversations(ctx context.Context, limit int) ([]models.Conversation, error) {
	return s.store.ListConversations(ctx, s.owner, limit)
}

// ListMessages returns a conversation's message log.
func (s *GenerationService) ListMessages(ctx context.Context, conversationID string) ([]models.Message, error) {
	return s.store.ListMessages(ctx, conversationID)
}

// DeleteConversation removes a conversation with its messages and document.
func (s *GenerationService) DeleteConversation(ctx context.Context, conversationID string) (int, error) {
	return s.store.DeleteConversation(ctx, conversationID)
}

// logStats dumps the runtime stats snapshot after a completed generation.
func (s *GenerationService) logStats() {
	if s.stats == nil || !s.logger.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	s.logger.Debug("pipeline stats", "uptime", s.stats.Uptime(), "operations", s.stats.Snapshot())
}

func (s *GenerationService) recordWrite(start time.Time) {
	if s.stats != nil {
		s.stats.Record(metrics.OpStoreWrite, time.Since(start))
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
