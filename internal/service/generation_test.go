package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/sitespec/sitespec/internal/aggregate"
	"github.com/sitespec/sitespec/internal/db"
	"github.com/sitespec/sitespec/internal/document"
	"github.com/sitespec/sitespec/internal/models"
)

// fakeStore is an in-memory Store for unit tests. It enforces the same
// one-document-per-conversation invariant as the SurrealDB schema.
type fakeStore struct {
	conversations map[string]*models.Conversation
	documents     map[string]*models.Document // keyed by conversation id
	messages      map[string][]models.Message
	nextID        int

	failUpdate bool
	failAppend bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		conversations: map[string]*models.Conversation{},
		documents:     map[string]*models.Document{},
		messages:      map[string][]models.Message{},
	}
}

func (f *fakeStore) id(table string) surrealmodels.RecordID {
	f.nextID++
	return surrealmodels.NewRecordID(table, fmt.Sprintf("%s-%d", table, f.nextID))
}

func (f *fakeStore) CreateConversation(ctx context.Context, owner, title string, businessName, websiteURL *string) (*models.Conversation, error) {
	conv := &models.Conversation{
		ID:           f.id("conversation"),
		Owner:        owner,
		Title:        title,
		BusinessName: businessName,
		WebsiteURL:   websiteURL,
	}
	key, _ := models.RecordIDString(conv.ID)
	f.conversations[key] = conv
	return conv, nil
}

func (f *fakeStore) GetConversation(ctx context.Context, id string) (*models.Conversation, error) {
	conv, ok := f.conversations[id]
	if !ok {
		return nil, fmt.Errorf("get conversation %q: %w", id, db.ErrNotFound)
	}
	return conv, nil
}

func (f *fakeStore) ListConversations(ctx context.Context, owner string, limit int) ([]models.Conversation, error) {
	var out []models.Conversation
	for _, c := range f.conversations {
		if c.Owner == owner {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeStore) DeleteConversation(ctx context.Context, id string) (int, error) {
	if _, ok := f.conversations[id]; !ok {
		return 0, nil
	}
	delete(f.conversations, id)
	delete(f.documents, id)
	delete(f.messages, id)
	return 1, nil
}

func (f *fakeStore) AppendMessage(ctx context.Context, conversationID, role, content string) (*models.Message, error) {
	if f.failAppend {
		return nil, errors.New("append message: connection reset")
	}
	if _, ok := f.conversations[conversationID]; !ok {
		return nil, fmt.Errorf("append message: %w", db.ErrNotFound)
	}
	msg := models.Message{
		ID:           f.id("message"),
		Conversation: models.ConversationRecordID(conversationID),
		Role:         role,
		Content:      content,
	}
	f.messages[conversationID] = append(f.messages[conversationID], msg)
	return &msg, nil
}

func (f *fakeStore) ListMessages(ctx context.Context, conversationID string) ([]models.Message, error) {
	return f.messages[conversationID], nil
}

func (f *fakeStore) GetDocumentByConversation(ctx context.Context, conversationID string) (*models.Document, error) {
	doc, ok := f.documents[conversationID]
	if !ok {
		return nil, fmt.Errorf("document for conversation %q: %w", conversationID, db.ErrNotFound)
	}
	return doc, nil
}

func (f *fakeStore) CreateDocument(ctx context.Context, conversationID, owner, title, content string) (*models.Document, error) {
	if _, ok := f.documents[conversationID]; ok {
		return nil, fmt.Errorf("create document: %w", db.ErrDocumentExists)
	}
	doc := &models.Document{
		ID:           f.id("document"),
		Conversation: models.ConversationRecordID(conversationID),
		Owner:        owner,
		Title:        title,
		Content:      content,
	}
	f.documents[conversationID] = doc
	return doc, nil
}

func (f *fakeStore) UpdateDocument(ctx context.Context, id, content string) (*models.Document, error) {
	if f.failUpdate {
		return nil, errors.New("update document: connection reset")
	}
	for _, doc := range f.documents {
		docID, _ := models.RecordIDString(doc.ID)
		if docID == id {
			doc.Content = content
			return doc, nil
		}
	}
	return nil, fmt.Errorf("update document %q: %w", id, db.ErrNotFound)
}

// fakeAggregator returns a canned context.
type fakeAggregator struct {
	agg     models.AggregatedContext
	lastReq aggregate.Request
}

func (f *fakeAggregator) Fetch(ctx context.Context, req aggregate.Request) models.AggregatedContext {
	f.lastReq = req
	return f.agg
}

// failingGenerator always errors, forcing the deterministic paths.
type failingGenerator struct{}

func (failingGenerator) GenerateWithSystem(ctx context.Context, system, prompt string) (string, error) {
	return "", errors.New("model unavailable")
}

// cannedGenerator returns fixed output.
type cannedGenerator struct{ out string }

func (g cannedGenerator) GenerateWithSystem(ctx context.Context, system, prompt string) (string, error) {
	return g.out, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(store Store, agg Aggregator, gen document.Generator) *GenerationService {
	assembler := document.NewAssembler(gen, nil, testLogger())
	return NewGenerationService(store, agg, assembler, nil, testLogger(), "tester")
}

func startConversation(t *testing.T, svc *GenerationService, title string) string {
	t.Helper()
	name := "Joe's Coffee Shop"
	url := "https://joes.example"
	conv, err := svc.StartConversation(context.Background(), title, &name, &url)
	require.NoError(t, err)
	id, err := models.RecordIDString(conv.ID)
	require.NoError(t, err)
	return id
}

func TestGenerateCreatePath(t *testing.T) {
	store := newFakeStore()
	agg := &fakeAggregator{agg: models.AggregatedContext{
		Reviews: &models.ReviewsResult{Success: true, BusinessName: "Joe's Coffee Shop", Rating: 4.6, RatingCount: 12},
	}}
	svc := newTestService(store, agg, cannedGenerator{out: "# Spec for Joe's"})

	convID := startConversation(t, svc, "Joe's website")
	result, err := svc.Generate(context.Background(), convID, "build me a site")
	require.NoError(t, err)

	assert.True(t, result.Created)
	assert.True(t, result.Generative)
	assert.Equal(t, "# Spec for Joe's", result.Document.Content)
	assert.Equal(t, "Joe's website", result.Document.Title)

	// The aggregator saw the conversation's business context.
	assert.Equal(t, "Joe's Coffee Shop", agg.lastReq.BusinessName)
	assert.Equal(t, "https://joes.example", agg.lastReq.WebsiteURL)
	assert.Equal(t, "build me a site", agg.lastReq.Context)

	// User message first, assistant audit message after the write.
	messages, err := svc.ListMessages(context.Background(), convID)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, models.RoleUser, messages[0].Role)
	assert.Equal(t, "build me a site", messages[0].Content)
	assert.Equal(t, models.RoleAssistant, messages[1].Role)
	assert.Contains(t, messages[1].Content, "Created the website specification document.")
}

func TestGenerateUnknownConversation(t *testing.T) {
	svc := newTestService(newFakeStore(), &fakeAggregator{}, nil)

	_, err := svc.Generate(context.Background(), "missing", "request")
	require.Error(t, err)
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestGenerateCreateFallbackOnGenerativeFailure(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeAggregator{}, failingGenerator{})

	convID := startConversation(t, svc, "Joe's website")
	result, err := svc.Generate(context.Background(), convID, "build me a site")
	require.NoError(t, err, "generative failure must not fail the operation")

	assert.True(t, result.Created)
	assert.False(t, result.Generative)
	assert.Contains(t, result.Document.Content, "# Website Specification: Joe's website")
	assert.Contains(t, result.Document.Content, document.NoReviewsAvailable)

	messages, _ := svc.ListMessages(context.Background(), convID)
	require.NotEmpty(t, messages)
	assert.Contains(t, messages[len(messages)-1].Content, "deterministic template")
}

func TestGenerateSecondCallTakesUpdatePath(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeAggregator{}, cannedGenerator{out: "# Spec v1"})

	convID := startConversation(t, svc, "Joe's website")
	first, err := svc.Generate(context.Background(), convID, "build me a site")
	require.NoError(t, err)
	assert.True(t, first.Created)

	second, err := svc.Generate(context.Background(), convID, "add a pricing section")
	require.NoError(t, err)
	assert.False(t, second.Created, "second generation must follow the update path")

	// The one-document-per-conversation invariant holds.
	assert.Len(t, store.documents, 1)

	messages, _ := svc.ListMessages(context.Background(), convID)
	var updates int
	for _, m := range messages {
		if strings.Contains(m.Content, "Updated the website specification document.") {
			updates++
		}
	}
	assert.Equal(t, 1, updates)
}

func TestGenerateUpdateFallbackPreservesPriorContent(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeAggregator{}, failingGenerator{})

	convID := startConversation(t, svc, "Joe's website")
	first, err := svc.Generate(context.Background(), convID, "build me a site")
	require.NoError(t, err)
	prior := first.Document.Content

	second, err := svc.Generate(context.Background(), convID, "add a pricing section")
	require.NoError(t, err)

	assert.False(t, second.Created)
	assert.True(t, strings.HasPrefix(second.Document.Content, strings.TrimRight(prior, "\n")),
		"deterministic update must keep the prior content intact")
	assert.Contains(t, second.Document.Content, "add a pricing section")
}

func TestGenerateStoreWriteFailurePropagates(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeAggregator{}, cannedGenerator{out: "# Spec"})

	convID := startConversation(t, svc, "Joe's website")
	_, err := svc.Generate(context.Background(), convID, "build me a site")
	require.NoError(t, err)

	store.failUpdate = true
	_, err = svc.Generate(context.Background(), convID, "change the hero")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "update document")
}

func TestGenerateAuditFailurePropagates(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeAggregator{}, cannedGenerator{out: "# Spec"})

	convID := startConversation(t, svc, "Joe's website")

	store.failAppend = true
	_, err := svc.Generate(context.Background(), convID, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "append audit message")

	// The document write itself succeeded before the audit message failed.
	doc, getErr := svc.GetDocument(context.Background(), convID)
	require.NoError(t, getErr)
	assert.NotEmpty(t, doc.Content)
}

func TestGenerateEmptyRequestSkipsUserMessage(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeAggregator{}, cannedGenerator{out: "# Spec"})

	convID := startConversation(t, svc, "Joe's website")
	_, err := svc.Generate(context.Background(), convID, "")
	require.NoError(t, err)

	messages, _ := svc.ListMessages(context.Background(), convID)
	require.Len(t, messages, 1)
	assert.Equal(t, models.RoleAssistant, messages[0].Role)
}
