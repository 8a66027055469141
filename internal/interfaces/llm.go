package interfaces

import (
	"context"

	"github.com/ternarybob/curator/internal/models"
)

// Message represents a single role-tagged message in a completion
// conversation.
type Message struct {
	Role    string `json:"role"` // "system", "user", or "assistant"
	Content string `json:"content"`
}

// LLMService is the model-client boundary the workflow consumes.
// Implementations never propagate decode failures: a malformed answer
// is persisted to the decode sink and surfaces as a nil result.
type LLMService interface {
	// GetArticleInfo classifies one article from its prompt text
	// (taxonomy catalog + title + content). tag keys any side-channel
	// dump, normally the article id.
	GetArticleInfo(ctx context.Context, text, tag string) (*models.ClassificationResult, error)

	// GetAuthorshipInfo is the no-category variant: extracts authorship
	// only, used when the taxonomy is absent or bypassed.
	GetAuthorshipInfo(ctx context.Context, text, tag string) (*models.ClassificationResult, error)

	// GetAuthorInfo looks up a person by name and optional description.
	GetAuthorInfo(ctx context.Context, name, description, tag string) (*models.AuthorInfo, error)

	// GetFieldInfo analyzes a taxonomy category name and guesses the
	// reasoning behind it.
	GetFieldInfo(ctx context.Context, name, tag string) (*models.FieldInfo, error)

	// Translate translates a document. Chunked mode packs paragraphs
	// up to maxChars characters per model call and reassembles the
	// results in order; whole mode submits the text in one call.
	Translate(ctx context.Context, text string, maxChars int, whole bool) (string, error)
}

// SearchResult is one web-search hit embedded into a prompt.
type SearchResult struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// SearchService is the optional best-effort web-search collaborator.
// Errors mean "no context available", never a workflow failure.
type SearchService interface {
	Search(ctx context.Context, query string, categories []string, language string) ([]SearchResult, error)
}

// DecodeSink receives raw model output for offline triage: malformed
// answers always, full prompt/answer pairs when auditing is on.
type DecodeSink interface {
	Write(tag, text string) error
}
