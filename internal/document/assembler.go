package document

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sitespec/sitespec/internal/metrics"
	"github.com/sitespec/sitespec/internal/models"
)

// Generator produces the document body from a system prompt and a user
// prompt. Satisfied by llm.Model.
type Generator interface {
	GenerateWithSystem(ctx context.Context, system, prompt string) (string, error)
}

const createSystemPrompt = `You are a website specification writer for small
businesses. Given customer reviews, the current website's content and an SEO
content analysis, write a complete markdown specification for a new website.
Cover: hero section, services, social proof, about, contact, and page-level
SEO recommendations. Ground every section in the provided data; where a data
source is marked unavailable, write sensible defaults instead of inventing
facts. Output only the markdown document.`

const updateSystemPrompt = `You are a website specification writer revising
an existing specification. Apply the requested change while preserving every
section the request does not target. Use the provided source data to inform
the change. Output only the full revised markdown document.`

// Assembler produces document content for the create and update paths.
// A failing or empty generative call never fails the operation: the create
// path falls back to the deterministic template and the update path to an
// annotated append.
type Assembler struct {
	gen    Generator
	stats  *metrics.Collector
	logger *slog.Logger
	// now is overridable in tests.
	now func() time.Time
}

// NewAssembler creates an assembler. gen may be nil, in which case only the
// deterministic paths are used. stats may be nil.
func NewAssembler(gen Generator, stats *metrics.Collector, logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{gen: gen, stats: stats, logger: logger, now: time.Now}
}

// generate times one generative call.
func (a *Assembler) generate(ctx context.Context, system, prompt string) (string, error) {
	start := time.Now()
	content, err := a.gen.GenerateWithSystem(ctx, system, prompt)
	if a.stats != nil {
		a.stats.Record(metrics.OpLLMGenerate, time.Since(start))
	}
	return content, err
}

// Create produces the content for a new document titled title. The returned
// bool reports whether the generative path succeeded.
func (a *Assembler) Create(ctx context.Context, title, request string, agg models.AggregatedContext) (string, bool) {
	if a.gen == nil {
		return Render(title, agg), false
	}

	prompt := a.createPrompt(title, request, agg)
	content, err := a.generate(ctx, createSystemPrompt, prompt)
	if err != nil {
		a.logger.Warn("generative create failed, using template", "error", err)
		return Render(title, agg), false
	}
	return content, true
}

// Update produces the replacement content for an existing document. The
// returned bool reports whether the generative path succeeded.
func (a *Assembler) Update(ctx context.Context, existing, request string, agg models.AggregatedContext) (string, bool) {
	if a.gen == nil {
		return a.appendFallback(existing, request), false
	}

	prompt := a.updatePrompt(existing, request, agg)
	content, err := a.generate(ctx, updateSystemPrompt, prompt)
	if err != nil {
		a.logger.Warn("generative update failed, appending request note", "error", err)
		return a.appendFallback(existing, request), false
	}
	return content, true
}

func (a *Assembler) createPrompt(title, request string, agg models.AggregatedContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Business: %s\n", title)
	if request != "" {
		fmt.Fprintf(&b, "\nUser request:\n%s\n", request)
	}
	fmt.Fprintf(&b, "\n## Customer Reviews\n\n%s\n", FormatReviews(agg.Reviews))
	fmt.Fprintf(&b, "\n## Current Website Content\n\n%s\n", FormatWebsiteContent(agg.Website))
	fmt.Fprintf(&b, "\n## SEO Analysis\n\n%s\n", FormatSEO(agg.SEO))
	return b.String()
}

func (a *Assembler) updatePrompt(existing, request string, agg models.AggregatedContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Requested change:\n%s\n", request)
	fmt.Fprintf(&b, "\n## Existing Specification\n\n%s\n", existing)
	fmt.Fprintf(&b, "\n## Customer Reviews\n\n%s\n", FormatReviews(agg.Reviews))
	fmt.Fprintf(&b, "\n## Current Website Content\n\n%s\n", FormatWebsiteContent(agg.Website))
	fmt.Fprintf(&b, "\n## SEO Analysis\n\n%s\n", FormatSEO(agg.SEO))
	return b.String()
}

// appendFallback keeps the prior content intact and records the update
// request beneath it.
func (a *Assembler) appendFallback(existing, request string) string {
	note := request
	if note == "" {
		note = "(no details provided)"
	}
	return fmt.Sprintf("%s\n\n## Update requested (%s)\n\n%s\n",
		strings.TrimRight(existing, "\n"), a.now().Format("2006-01-02"), note)
}
