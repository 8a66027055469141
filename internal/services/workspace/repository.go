// Package workspace exposes typed operations over the curated
// databases: authors, taxonomy fields and articles.
package workspace

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/curator/internal/common"
	"github.com/ternarybob/curator/internal/interfaces"
	"github.com/ternarybob/curator/internal/models"
	"github.com/ternarybob/curator/internal/services/markdown"
)

// Repository projects raw service records into domain shapes and maps
// domain updates back into per-type property payloads.
//
// Fetch operations follow the empty-result degradation contract: a
// transport failure is logged and yields an empty list, indistinguishable
// from "no matches" without inspecting logs. Updates return errors so
// the batch loop can record the failing article.
type Repository struct {
	api    interfaces.NotionAPI
	config *common.WorkspaceConfig
	logger arbor.ILogger
}

// NewRepository creates a repository over the given service client.
func NewRepository(api interfaces.NotionAPI, config *common.WorkspaceConfig, logger arbor.ILogger) *Repository {
	return &Repository{
		api:    api,
		config: config,
		logger: logger,
	}
}

// GetAuthors returns author records matching the filter, or all
// authors when filter is nil. Records without a name are skipped.
func (r *Repository) GetAuthors(ctx context.Context, filter *models.Filter) ([]models.Author, error) {
	pages, err := r.api.QueryDatabase(ctx, r.config.AuthorsDatabaseID, filter)
	if err != nil {
		r.logger.Error().Err(err).Msg("Failed to query authors database")
		return nil, nil
	}

	authors := make([]models.Author, 0, len(pages))
	for _, page := range pages {
		name := page.Properties[r.config.NameProperty].PlainTitle()
		if name == "" {
			continue
		}
		authors = append(authors, models.Author{
			ID:          page.ID,
			Name:        name,
			Description: page.Properties[r.config.DescriptionProperty].PlainText(),
		})
	}
	return authors, nil
}

// GetFields returns the taxonomy categories. Records without a
// category name are skipped.
func (r *Repository) GetFields(ctx context.Context, filter *models.Filter) ([]models.Field, error) {
	pages, err := r.api.QueryDatabase(ctx, r.config.FieldsDatabaseID, filter)
	if err != nil {
		r.logger.Error().Err(err).Msg("Failed to query fields database")
		return nil, nil
	}

	fields := make([]models.Field, 0, len(pages))
	for _, page := range pages {
		category := page.Properties[r.config.FieldNameProperty].PlainTitle()
		if category == "" {
			continue
		}
		fields = append(fields, models.Field{
			ID:       page.ID,
			Category: category,
			Reason:   page.Properties[r.config.FieldReasonProperty].PlainText(),
		})
	}
	return fields, nil
}

// GetArticles returns article records matching the filter. The
// template page and records missing a title are excluded.
func (r *Repository) GetArticles(ctx context.Context, filter *models.Filter) ([]models.Article, error) {
	pages, err := r.api.QueryDatabase(ctx, r.config.ArticlesDatabaseID, filter)
	if err != nil {
		r.logger.Error().Err(err).Msg("Failed to query articles database")
		return nil, nil
	}

	articles := make([]models.Article, 0, len(pages))
	for _, page := range pages {
		title := page.Properties[r.config.TitleProperty].PlainTitle()
		if title == "" || title == r.config.TemplateTitle {
			continue
		}
		articles = append(articles, models.Article{
			ID:        page.ID,
			Name:      title,
			AuthorIDs: page.Properties[r.config.AuthorProperty].RelationIDs(),
			Status:    page.Properties[r.config.StatusProperty].StatusName(),
		})
	}
	return articles, nil
}

// GetArticleContent renders a page's block tree to Markdown. ok is
// false when the page has no renderable content.
func (r *Repository) GetArticleContent(ctx context.Context, pageID string) (string, bool, error) {
	blocks, err := r.api.ListBlockChildren(ctx, pageID)
	if err != nil {
		return "", false, fmt.Errorf("failed to fetch page content: %w", err)
	}
	content, ok := markdown.RenderBlocks(blocks)
	return content, ok, nil
}

// NewAuthor creates an author record and returns its id. Property
// types are inferred from the authors database schema when a value
// carries no explicit type.
func (r *Repository) NewAuthor(ctx context.Context, properties map[string]models.PropertyValue) (string, error) {
	payload, err := r.buildPropertyPayloads(ctx, r.config.AuthorsDatabaseID, properties)
	if err != nil {
		return "", err
	}
	id, err := r.api.CreatePage(ctx, r.config.AuthorsDatabaseID, payload)
	if err != nil {
		return "", fmt.Errorf("failed to create author: %w", err)
	}
	r.logger.Info().Str("author_id", id).Msg("Created author record")
	return id, nil
}

// UpdateArticleDetail updates article page properties. Unknown
// property types are skipped with a logged warning.
func (r *Repository) UpdateArticleDetail(ctx context.Context, pageID string, updates map[string]models.PropertyValue) error {
	payload, err := r.buildPropertyPayloads(ctx, r.config.ArticlesDatabaseID, updates)
	if err != nil {
		return err
	}
	if len(payload) == 0 {
		return nil
	}
	if err := r.api.UpdatePageProperties(ctx, pageID, payload); err != nil {
		return fmt.Errorf("failed to update article %s: %w", pageID, err)
	}
	return nil
}

// UpdateAuthorDescription enriches an author record with looked-up
// name and introduction fields.
func (r *Repository) UpdateAuthorDescription(ctx context.Context, authorID string, info *models.AuthorInfo) error {
	payload := map[string]any{
		r.config.DescriptionProperty: richTextPayload(info.Introduction),
		r.config.EnglishNameProperty: richTextPayload(info.EnglishName),
		r.config.ChineseNameProperty: richTextPayload(info.ChineseName),
	}
	if err := r.api.UpdatePageProperties(ctx, authorID, payload); err != nil {
		return fmt.Errorf("failed to update author %s: %w", authorID, err)
	}
	return nil
}

// UpdateFieldReason updates a taxonomy category's rationale text.
func (r *Repository) UpdateFieldReason(ctx context.Context, fieldID, reason string) error {
	payload := map[string]any{
		r.config.FieldReasonProperty: richTextPayload(reason),
	}
	if err := r.api.UpdatePageProperties(ctx, fieldID, payload); err != nil {
		return fmt.Errorf("failed to update field %s: %w", fieldID, err)
	}
	return nil
}

// buildPropertyPayloads translates caller-facing property values into
// per-type wire payloads. Types missing from the values are inferred
// from the database schema.
func (r *Repository) buildPropertyPayloads(ctx context.Context, databaseID string, values map[string]models.PropertyValue) (map[string]any, error) {
	var schema map[string]models.Property
	for _, v := range values {
		if v.Type == "" {
			var err error
			schema, err = r.api.GetDatabaseSchema(ctx, databaseID)
			if err != nil {
				return nil, fmt.Errorf("failed to retrieve schema for type inference: %w", err)
			}
			break
		}
	}

	payload := make(map[string]any, len(values))
	for name, value := range values {
		propType := value.Type
		if propType == "" {
			propType = schema[name].Type
		}
		shaped, ok := shapePropertyValue(propType, value.Value)
		if !ok {
			r.logger.Warn().
				Str("property", name).
				Str("type", propType).
				Msg("Skipping property with unsupported type")
			continue
		}
		payload[name] = shaped
	}
	return payload, nil
}

// shapePropertyValue maps one value to the wire shape of its property
// type. Empty relation entries (unmatched category lookups) are
// dropped here.
func shapePropertyValue(propType string, value any) (any, bool) {
	switch propType {
	case models.PropertyTitle:
		return map[string]any{
			"title": []any{map[string]any{"text": map[string]any{"content": asString(value)}}},
		}, true
	case models.PropertyRichText:
		return richTextPayload(asString(value)), true
	case models.PropertySelect:
		return map[string]any{"select": map[string]any{"name": asString(value)}}, true
	case models.PropertyMultiSelect:
		options := make([]any, 0)
		for _, name := range asStringSlice(value) {
			if name == "" {
				continue
			}
			options = append(options, map[string]any{"name": name})
		}
		return map[string]any{"multi_select": options}, true
	case models.PropertyRelation:
		relations := make([]any, 0)
		for _, id := range asStringSlice(value) {
			if id == "" {
				continue
			}
			relations = append(relations, map[string]any{"id": id})
		}
		return map[string]any{"relation": relations}, true
	case models.PropertyStatus:
		return map[string]any{"status": map[string]any{"name": asString(value)}}, true
	case models.PropertyCheckbox:
		b, _ := value.(bool)
		return map[string]any{"checkbox": b}, true
	case models.PropertyDate:
		return map[string]any{"date": map[string]any{"start": asString(value)}}, true
	case models.PropertyNumber:
		switch n := value.(type) {
		case float64:
			return map[string]any{"number": n}, true
		case int:
			return map[string]any{"number": float64(n)}, true
		}
		return nil, false
	default:
		return nil, false
	}
}

func richTextPayload(text string) map[string]any {
	return map[string]any{
		"rich_text": []any{
			map[string]any{
				"type": "text",
				"text": map[string]any{"content": text},
			},
		},
	}
}

func asString(value any) string {
	s, _ := value.(string)
	return s
}

func asStringSlice(value any) []string {
	switch v := value.(type) {
	case []string:
		return v
	case string:
		return []string{v}
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, _ := item.(string)
			out = append(out, s)
		}
		return out
	}
	return nil
}
