// Package markdown provides light-weight helpers for working with the
// markdown that page scrapes produce.
package markdown

import (
	"regexp"
	"strings"
	"unicode"
)

var h1Regex = regexp.MustCompile(`(?m)^#\s+(.+)$`)

// Title extracts a display title from markdown content: the first h1
// heading, or "" when the content has none.
func Title(content string) string {
	if match := h1Regex.FindStringSubmatch(content); len(match) > 1 {
		return strings.TrimSpace(match[1])
	}
	return ""
}

// truncationMarker is appended whenever Excerpt drops content.
const truncationMarker = "\n\n_[content truncated]_"

// Excerpt bounds markdown content to at most limit characters, cutting at a
// paragraph boundary where possible and falling back to sentence boundaries
// inside an oversized paragraph. Content at or under the limit is returned
// unchanged.
func Excerpt(content string, limit int) string {
	content = strings.TrimSpace(content)
	if limit <= 0 || len(content) <= limit {
		return content
	}

	budget := limit - len(truncationMarker)
	if budget <= 0 {
		budget = limit
	}

	var b strings.Builder
	for _, para := range strings.Split(content, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		sep := 0
		if b.Len() > 0 {
			sep = 2
		}

		if b.Len()+sep+len(para) <= budget {
			if sep > 0 {
				b.WriteString("\n\n")
			}
			b.WriteString(para)
			continue
		}

		// The paragraph overflows the budget. Take whole sentences from it
		// while they still fit, then stop.
		remaining := budget - b.Len() - sep
		partial := takeSentences(para, remaining)
		if partial != "" {
			if sep > 0 {
				b.WriteString("\n\n")
			}
			b.WriteString(partial)
		}
		break
	}

	if b.Len() == 0 {
		// No paragraph or sentence fit at all; hard-cut on a rune boundary.
		runes := []rune(content)
		if len(runes) > budget {
			runes = runes[:budget]
		}
		return string(runes) + truncationMarker
	}

	return b.String() + truncationMarker
}

// takeSentences returns the longest prefix of whole sentences of text that
// fits within limit characters.
func takeSentences(text string, limit int) string {
	var b strings.Builder
	for _, sentence := range splitSentences(text) {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}

		sep := 0
		if b.Len() > 0 {
			sep = 1
		}
		if b.Len()+sep+len(sentence) > limit {
			break
		}
		if sep > 0 {
			b.WriteString(" ")
		}
		b.WriteString(sentence)
	}
	return b.String()
}

// splitSentences splits text at terminal punctuation followed by whitespace.
// A period preceded by an uppercase letter is treated as an abbreviation and
// does not end a sentence.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		current.WriteRune(r)

		if r == '.' || r == '!' || r == '?' {
			if i+1 < len(runes) && !unicode.IsSpace(runes[i+1]) {
				continue
			}
			if r == '.' && i > 0 && unicode.IsUpper(runes[i-1]) {
				continue
			}
			sentences = append(sentences, current.String())
			current.Reset()
		}
	}

	if current.Len() > 0 {
		sentences = append(sentences, current.String())
	}

	return sentences
}
