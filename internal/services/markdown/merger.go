package markdown

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var paragraphBoundary = regexp.MustCompile(`\n\s*\n`)

// MergeParagraphs splits text on blank-line boundaries and greedily
// packs consecutive paragraphs into chunks whose length stays within
// maxChars, counting 2 characters for each joining blank line. Length
// is measured in characters, not bytes, so CJK text packs at the same
// density as ASCII. A paragraph longer than the budget is emitted
// alone rather than split. Chunking is deterministic and preserves
// input order.
func MergeParagraphs(text string, maxChars int) []string {
	paragraphs := SplitParagraphs(text)
	if len(paragraphs) == 0 {
		return nil
	}

	var chunks []string
	var current []string
	currentLen := 0

	for _, p := range paragraphs {
		pLen := utf8.RuneCountInString(p)
		joined := currentLen + pLen
		if len(current) > 0 {
			joined += 2
		}
		if len(current) > 0 && joined > maxChars {
			chunks = append(chunks, strings.Join(current, "\n\n"))
			current = nil
			currentLen = 0
		}
		current = append(current, p)
		if currentLen > 0 {
			currentLen += 2
		}
		currentLen += pLen
	}
	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, "\n\n"))
	}
	return chunks
}

// SplitParagraphs returns the trimmed non-empty paragraphs of text.
func SplitParagraphs(text string) []string {
	var out []string
	for _, p := range paragraphBoundary.Split(text, -1) {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
