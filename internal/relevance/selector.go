// Package relevance selects the most valuable pages of a mapped site for
// scraping, using a generative ranking call with a deterministic fallback.
package relevance

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sitespec/sitespec/internal/models"
)

// Generator is the text-generation call used for ranking.
type Generator interface {
	GenerateWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

const rankingSystemPrompt = `You rank website pages by how useful they are for writing a business website specification.
Prefer pages describing services, company background, team, case studies, testimonials, pricing, and contact information.
Avoid login, cart, checkout, legal, privacy, terms, and boilerplate pages.
Respond with ONLY the selected URLs, one per line, most valuable first. Do not add numbering, commentary, or URLs that were not in the list.`

// Selector picks up to Limit page URLs out of a candidate list.
type Selector struct {
	gen    Generator
	limit  int
	logger *slog.Logger
}

// NewSelector creates a selector. limit is the maximum number of URLs
// returned (K).
func NewSelector(gen Generator, limit int, logger *slog.Logger) *Selector {
	if limit <= 0 {
		limit = 5
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Selector{gen: gen, limit: limit, logger: logger}
}

// Select returns up to K candidate URLs worth scraping, given free-text
// business context. Small candidate lists are returned unchanged, without a
// ranking call. Hallucinated URLs from the ranking call are discarded, and
// missing slots are backfilled from the candidates in original order. If the
// ranking call fails entirely, the first K candidates are returned — the
// fallback is deterministic.
func (s *Selector) Select(ctx context.Context, candidates []models.PageCandidate, businessContext string) []string {
	if len(candidates) <= s.limit {
		urls := make([]string, len(candidates))
		for i, c := range candidates {
			urls[i] = c.URL
		}
		return urls
	}

	ranked, err := s.rank(ctx, candidates, businessContext)
	if err != nil {
		s.logger.Warn("url ranking failed, using first candidates", "error", err)
		return s.firstK(candidates)
	}

	// Drop anything the ranking call invented.
	known := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		known[c.URL] = true
	}

	selected := make([]string, 0, s.limit)
	seen := make(map[string]bool, s.limit)
	for _, u := range ranked {
		if len(selected) >= s.limit {
			break
		}
		if known[u] && !seen[u] {
			selected = append(selected, u)
			seen[u] = true
		}
	}

	// Backfill from unselected candidates in original order.
	for _, c := range candidates {
		if len(selected) >= s.limit {
			break
		}
		if !seen[c.URL] {
			selected = append(selected, c.URL)
			seen[c.URL] = true
		}
	}

	s.logger.Debug("urls selected", "candidates", len(candidates), "selected", len(selected))
	return selected
}

func (s *Selector) rank(ctx context.Context, candidates []models.PageCandidate, businessContext string) ([]string, error) {
	if s.gen == nil {
		return nil, fmt.Errorf("no generator configured")
	}

	var b strings.Builder
	for _, c := range candidates {
		b.WriteString(c.URL)
		if c.Title != "" {
			fmt.Fprintf(&b, " | %s", c.Title)
		}
		if c.Description != "" {
			fmt.Fprintf(&b, " | %s", c.Description)
		}
		b.WriteString("\n")
	}

	userPrompt := fmt.Sprintf(`Business context:
%s

Candidate pages:
%s
Select the %d most valuable URLs:`, businessContext, b.String(), s.limit)

	response, err := s.gen.GenerateWithSystem(ctx, rankingSystemPrompt, userPrompt)
	if err != nil {
		return nil, fmt.Errorf("ranking call: %w", err)
	}

	var urls []string
	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimPrefix(line, "- ")
		if strings.HasPrefix(line, "http://") || strings.HasPrefix(line, "https://") {
			urls = append(urls, line)
		}
	}
	if len(urls) == 0 {
		return nil, fmt.Errorf("ranking call returned no parseable URLs")
	}
	return urls, nil
}

func (s *Selector) firstK(candidates []models.PageCandidate) []string {
	n := s.limit
	if n > len(candidates) {
		n = len(candidates)
	}
	urls := make([]string, n)
	for i := 0; i < n; i++ {
		urls[i] = candidates[i].URL
	}
	return urls
}
