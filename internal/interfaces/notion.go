package interfaces

import (
	"context"

	"github.com/ternarybob/curator/internal/models"
)

// NotionAPI is the contract the core consumes from the structured
// database service client. Implementations serialize all outbound
// calls through a shared minimum-interval throttle and loop pagination
// cursors until exhaustion.
type NotionAPI interface {
	// ListDatabases lists all databases visible to the workspace token.
	ListDatabases(ctx context.Context) ([]models.Page, error)

	// GetDatabaseByName resolves a database id from its title.
	// Returns "" when no database matches.
	GetDatabaseByName(ctx context.Context, name string) (string, error)

	// QueryDatabase returns all rows matching the filter, following
	// pagination until has_more is false. A nil filter returns every row.
	QueryDatabase(ctx context.Context, databaseID string, filter *models.Filter) ([]models.Page, error)

	// GetDatabaseContent returns all rows of a database, served from the
	// in-memory cache when available. Cache entries never expire; callers
	// invalidate explicitly when underlying data changed.
	GetDatabaseContent(ctx context.Context, databaseID string, useCache bool) ([]models.Page, error)

	// InvalidateCache drops the cached content for a database, or all
	// cached content when databaseID is "".
	InvalidateCache(databaseID string)

	// GetDatabaseSchema returns the database's property schema keyed by
	// property name.
	GetDatabaseSchema(ctx context.Context, databaseID string) (map[string]models.Property, error)

	// AddDatabaseProperty adds a property to a database schema.
	AddDatabaseProperty(ctx context.Context, databaseID, name, propType string, defaultValue any) error

	// RemoveDatabaseProperty removes a property from a database schema.
	RemoveDatabaseProperty(ctx context.Context, databaseID, name string) error

	// CreatePage creates a row in a database and returns its id.
	CreatePage(ctx context.Context, databaseID string, properties map[string]any) (string, error)

	// UpdatePageProperties patches page properties with service-shaped
	// payloads.
	UpdatePageProperties(ctx context.Context, pageID string, properties map[string]any) error

	// ListBlockChildren returns the ordered block records of a page.
	ListBlockChildren(ctx context.Context, blockID string) ([]models.Block, error)
}

// WorkspaceService exposes the typed, higher-level operations the
// reconciliation workflow and HTTP handlers consume.
type WorkspaceService interface {
	GetAuthors(ctx context.Context, filter *models.Filter) ([]models.Author, error)
	GetFields(ctx context.Context, filter *models.Filter) ([]models.Field, error)
	GetArticles(ctx context.Context, filter *models.Filter) ([]models.Article, error)

	// GetArticleContent renders a page's block tree to Markdown.
	// ok is false when the page has no renderable content; that is not
	// an error.
	GetArticleContent(ctx context.Context, pageID string) (content string, ok bool, err error)

	// NewAuthor creates an author record and returns its id. Property
	// types are inferred from the authors database schema when a value
	// carries no explicit type.
	NewAuthor(ctx context.Context, properties map[string]models.PropertyValue) (string, error)

	// UpdateArticleDetail updates article page properties. Values with
	// unknown property types are skipped with a logged warning.
	UpdateArticleDetail(ctx context.Context, pageID string, updates map[string]models.PropertyValue) error

	// UpdateAuthorDescription enriches an author record with looked-up
	// name and introduction fields.
	UpdateAuthorDescription(ctx context.Context, authorID string, info *models.AuthorInfo) error

	// UpdateFieldReason updates a taxonomy category's rationale text.
	UpdateFieldReason(ctx context.Context, fieldID, reason string) error
}
