package models

import "time"

// Article is the projected shape of one article row: the fields the
// curation workflow reads and writes. Content is fetched lazily via
// the workspace service.
type Article struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	AuthorIDs []string `json:"author"`
	Status    string   `json:"status,omitempty"`
}

// Author is the projected shape of one author row.
type Author struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Field is one taxonomy category with its human-authored rationale.
type Field struct {
	ID       string `json:"id"`
	Category string `json:"category"`
	Reason   string `json:"reason"`
}

// RunRecord is one entry of the per-run pass/fail ledger. Failed
// articles are re-run manually from this list; no automatic retry
// exists anywhere in the workflow.
type RunRecord struct {
	Key       string    `json:"key" badgerhold:"key"`
	RunID     string    `json:"run_id" badgerhold:"index"`
	ArticleID string    `json:"article_id"`
	Title     string    `json:"title"`
	Passed    bool      `json:"passed"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
