package document

import (
	"strings"

	"github.com/sitespec/sitespec/internal/models"
)

// Placeholder tokens in the deterministic template. Each is substituted
// exactly once during rendering.
const (
	TokenReviews = "{CUSTOMER_REVIEWS}"
	TokenSEO     = "{SEO_REPORT}"
	TokenWebsite = "{WEBSITE_CONTENT}"
)

const specTemplate = `# Website Specification: {TITLE}

## Business Overview

This specification describes the requirements for a new business website. It
was assembled from customer reviews, the current website's content, and an
SEO content analysis.

## Customer Reviews

{CUSTOMER_REVIEWS}

## Current Website Content

{WEBSITE_CONTENT}

## SEO Analysis

{SEO_REPORT}

## Recommended Structure

- Hero section with the primary value proposition and a clear call to action
- Services overview with one section per core offering
- Social proof section showcasing the strongest customer reviews
- About section covering the team and business background
- Contact section with location, hours and a contact form
`

// Render produces the deterministic templated document for the create-path
// fallback. Sections that yielded no data appear as their placeholder
// strings.
func Render(title string, agg models.AggregatedContext) string {
	content := specTemplate
	content = strings.Replace(content, "{TITLE}", title, 1)
	content = strings.Replace(content, TokenReviews, FormatReviews(agg.Reviews), 1)
	content = strings.Replace(content, TokenWebsite, FormatWebsiteContent(agg.Website), 1)
	content = strings.Replace(content, TokenSEO, FormatSEO(agg.SEO), 1)
	return content
}
