// Package workflow implements the content-to-taxonomy reconciliation
// pipeline: fetch an article, classify it, resolve or create its
// author, decide its status and write the results back.
package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/curator/internal/common"
	"github.com/ternarybob/curator/internal/interfaces"
	"github.com/ternarybob/curator/internal/models"
)

const fieldInfoFile = "field.info.json"

// Service drives the reconciliation workflow. Articles are processed
// one at a time; a failing article is recorded in the run ledger and
// the batch continues. No retry or backoff exists here: failed
// articles are re-run manually from the persisted failure list.
type Service struct {
	workspace interfaces.WorkspaceService
	llm       interfaces.LLMService
	runs      interfaces.RunStore
	config    *common.Config
	logger    arbor.ILogger
}

// NewService creates a workflow service. runs may be nil when no run
// ledger is wanted (one-shot CLI invocations).
func NewService(
	workspace interfaces.WorkspaceService,
	llm interfaces.LLMService,
	runs interfaces.RunStore,
	config *common.Config,
	logger arbor.ILogger,
) *Service {
	return &Service{
		workspace: workspace,
		llm:       llm,
		runs:      runs,
		config:    config,
		logger:    logger,
	}
}

// Run executes one reconciliation batch over every article whose
// status is "not started". Returns the run id and the count of
// articles that failed.
func (s *Service) Run(ctx context.Context) (string, int, error) {
	runID := common.NewRunID()

	articles, err := s.workspace.GetArticles(ctx, &models.Filter{
		Property:  s.config.Workspace.StatusProperty,
		Type:      models.PropertyStatus,
		Condition: "equals",
		Value:     s.config.Workspace.StatusNotStarted,
	})
	if err != nil {
		return runID, 0, fmt.Errorf("failed to list articles: %w", err)
	}

	var fields []models.Field
	if s.config.Workflow.ClassifyCategories {
		fields, err = s.LoadFields(ctx)
		if err != nil {
			return runID, 0, fmt.Errorf("failed to load taxonomy fields: %w", err)
		}
	}

	s.logger.Info().
		Str("run_id", runID).
		Int("articles", len(articles)).
		Int("fields", len(fields)).
		Msg("Starting reconciliation run")

	failed := 0
	for _, article := range articles {
		err := s.ProcessArticle(ctx, article, fields)
		if err != nil {
			failed++
			s.logger.Error().
				Err(err).
				Str("article_id", article.ID).
				Str("title", article.Name).
				Msg("Article processing failed, continuing with next")
		}
		s.record(runID, article, err)
	}

	s.logger.Info().
		Str("run_id", runID).
		Int("processed", len(articles)).
		Int("failed", failed).
		Msg("Reconciliation run finished")

	return runID, failed, nil
}

// ProcessArticle runs the state machine for one article: render
// content, classify, resolve the author, decide status, persist.
// The article is left unchanged when classification fails.
func (s *Service) ProcessArticle(ctx context.Context, article models.Article, fields []models.Field) error {
	content, ok, err := s.workspace.GetArticleContent(ctx, article.ID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("article %s has no renderable content", article.ID)
	}

	prompt := buildClassifyPrompt(article.Name, content, fields)

	var result *models.ClassificationResult
	if len(fields) > 0 {
		result, err = s.llm.GetArticleInfo(ctx, prompt, article.ID)
	} else {
		result, err = s.llm.GetAuthorshipInfo(ctx, prompt, article.ID)
	}
	if err != nil {
		return fmt.Errorf("classification call failed: %w", err)
	}
	if result == nil {
		return fmt.Errorf("classification answer for article %s could not be decoded", article.ID)
	}

	status := s.config.Workspace.StatusInProgress
	authorID := ""
	if result.AuthorUnknown() {
		status = s.config.Workspace.StatusInfoMissing
	} else {
		authorID, err = s.resolveAuthor(ctx, result)
		if err != nil {
			return fmt.Errorf("author resolution failed: %w", err)
		}
	}

	// Audit trail: the model's decision merged with the article stub,
	// written whether or not anything changes in the workspace.
	if err := s.writeArtifact(article, result); err != nil {
		s.logger.Warn().Err(err).Str("article_id", article.ID).Msg("Failed to write debug artifact")
	}

	updates := make(map[string]models.PropertyValue)
	if article.Status != status {
		updates[s.config.Workspace.StatusProperty] = models.PropertyValue{
			Value: status, Type: models.PropertyStatus,
		}
	}
	if len(fields) > 0 {
		updates[s.config.Workspace.CategoryProperty] = models.PropertyValue{
			Value: fieldIDList(fields, result.Category), Type: models.PropertyRelation,
		}
	}
	if authorID != "" && !containsID(article.AuthorIDs, authorID) {
		updates[s.config.Workspace.AuthorProperty] = models.PropertyValue{
			Value: append(append([]string{}, article.AuthorIDs...), authorID),
			Type:  models.PropertyRelation,
		}
	}
	if len(updates) == 0 {
		s.logger.Debug().Str("article_id", article.ID).Msg("Article already up to date, skipping write")
		return nil
	}

	if err := s.workspace.UpdateArticleDetail(ctx, article.ID, updates); err != nil {
		return err
	}

	s.logger.Info().
		Str("article_id", article.ID).
		Str("status", status).
		Str("author_id", authorID).
		Msg("Article reconciled")
	return nil
}

// resolveAuthor finds or creates the author record for a decoded
// classification. Lookup is contains-match on the English name first
// (models return name variants and honorifics), then exact match on
// the Chinese name; the first hit wins. A name that decoded to an
// unknown sentinel skips its lookup entirely: an empty contains filter
// would match every record. No match creates a new record enriched by
// an author-info lookup.
func (s *Service) resolveAuthor(ctx context.Context, result *models.ClassificationResult) (string, error) {
	if !models.IsUnknown(result.AuthorEnglishName) {
		authors, err := s.workspace.GetAuthors(ctx, &models.Filter{
			Property:  s.config.Workspace.EnglishNameProperty,
			Type:      models.PropertyRichText,
			Condition: "contains",
			Value:     result.AuthorEnglishName,
		})
		if err != nil {
			return "", err
		}
		if len(authors) > 0 {
			return authors[0].ID, nil
		}
	}

	if !models.IsUnknown(result.AuthorChineseName) {
		authors, err := s.workspace.GetAuthors(ctx, &models.Filter{
			Property:  s.config.Workspace.ChineseNameProperty,
			Type:      models.PropertyRichText,
			Condition: "equals",
			Value:     result.AuthorChineseName,
		})
		if err != nil {
			return "", err
		}
		if len(authors) > 0 {
			return authors[0].ID, nil
		}
	}

	introduction := ""
	info, err := s.llm.GetAuthorInfo(ctx, result.Author, "", common.NewDumpID())
	if err != nil {
		s.logger.Warn().Err(err).Str("author", result.Author).Msg("Author info lookup failed, creating record without introduction")
	} else if info != nil {
		introduction = info.Introduction
	}

	chineseName := result.AuthorChineseName
	if chineseName == "none" {
		chineseName = ""
	}

	return s.workspace.NewAuthor(ctx, map[string]models.PropertyValue{
		s.config.Workspace.NameProperty:        {Value: result.Author, Type: models.PropertyTitle},
		s.config.Workspace.EnglishNameProperty: {Value: result.AuthorEnglishName, Type: models.PropertyRichText},
		s.config.Workspace.ChineseNameProperty: {Value: chineseName, Type: models.PropertyRichText},
		s.config.Workspace.DescriptionProperty: {Value: introduction, Type: models.PropertyRichText},
	})
}

// RemoveUnknownAuthors strips author-relation entries that no longer
// resolve to an existing author record from every article matching the
// status filter. Articles whose relation set is already clean are not
// written. Stale keys appear when authors are deleted manually
// elsewhere.
func (s *Service) RemoveUnknownAuthors(ctx context.Context, statusFilter string) (int, error) {
	authors, err := s.workspace.GetAuthors(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to load author set: %w", err)
	}
	known := make(map[string]struct{}, len(authors))
	for _, a := range authors {
		known[a.ID] = struct{}{}
	}

	articles, err := s.workspace.GetArticles(ctx, &models.Filter{
		Property:  s.config.Workspace.StatusProperty,
		Type:      models.PropertyStatus,
		Condition: "equals",
		Value:     statusFilter,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to list articles: %w", err)
	}

	cleaned := 0
	for _, article := range articles {
		kept := make([]string, 0, len(article.AuthorIDs))
		for _, id := range article.AuthorIDs {
			if _, ok := known[id]; ok {
				kept = append(kept, id)
			}
		}
		if len(kept) == len(article.AuthorIDs) {
			continue
		}

		err := s.workspace.UpdateArticleDetail(ctx, article.ID, map[string]models.PropertyValue{
			s.config.Workspace.AuthorProperty: {Value: kept, Type: models.PropertyRelation},
		})
		if err != nil {
			s.logger.Error().Err(err).Str("article_id", article.ID).Msg("Failed to strip stale author relations")
			continue
		}
		cleaned++
		s.logger.Info().
			Str("article_id", article.ID).
			Int("removed", len(article.AuthorIDs)-len(kept)).
			Msg("Removed stale author relations")
	}
	return cleaned, nil
}

// EnrichAuthors fills in missing author descriptions: every author
// record without a description gets a model lookup and a write-back of
// the introduction and name fields. Returns the count of enriched
// records. Malformed lookup answers are already dumped by the model
// service and simply skip the record.
func (s *Service) EnrichAuthors(ctx context.Context) (int, error) {
	authors, err := s.workspace.GetAuthors(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to load author set: %w", err)
	}

	enriched := 0
	for _, author := range authors {
		if author.Description != "" {
			continue
		}
		info, err := s.llm.GetAuthorInfo(ctx, author.Name, "", author.ID)
		if err != nil {
			s.logger.Warn().Err(err).Str("author", author.Name).Msg("Author info lookup failed, skipping")
			continue
		}
		if info == nil {
			continue
		}
		if err := s.workspace.UpdateAuthorDescription(ctx, author.ID, info); err != nil {
			s.logger.Error().Err(err).Str("author_id", author.ID).Msg("Failed to write author description")
			continue
		}
		enriched++
	}
	return enriched, nil
}

// TranslateArticle renders an article page's content and translates
// it. The configured max_chars budget sizes the translation chunks;
// whole_doc_translate submits the document in a single call instead.
func (s *Service) TranslateArticle(ctx context.Context, articleID string) (string, error) {
	content, ok, err := s.workspace.GetArticleContent(ctx, articleID)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("article %s has no renderable content", articleID)
	}
	return s.llm.Translate(ctx, content, s.config.Workflow.MaxChars, s.config.Workflow.WholeDocTranslate)
}

// LoadFields returns the taxonomy. When update_field_info is set the
// taxonomy is refreshed from the workspace and re-analyzed; otherwise
// the cached field.info.json is used, falling back to a live fetch
// when no cache exists.
func (s *Service) LoadFields(ctx context.Context) ([]models.Field, error) {
	if s.config.Workflow.UpdateFieldInfo {
		return s.RenewFields(ctx)
	}

	path := filepath.Join(s.config.Workflow.SavePath, fieldInfoFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read field cache: %w", err)
		}
		return s.workspace.GetFields(ctx, nil)
	}

	var fields []models.Field
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("failed to parse field cache %s: %w", path, err)
	}
	return fields, nil
}

// RenewFields fetches the taxonomy, asks the model to explain each
// category name, writes the reasoning back and caches the result in
// field.info.json.
func (s *Service) RenewFields(ctx context.Context) ([]models.Field, error) {
	fields, err := s.workspace.GetFields(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch fields: %w", err)
	}

	for i := range fields {
		info, err := s.llm.GetFieldInfo(ctx, fields[i].Category, fields[i].ID)
		if err != nil {
			return nil, fmt.Errorf("field info lookup failed for %q: %w", fields[i].Category, err)
		}
		if info == nil || info.Reason == "" {
			continue
		}
		fields[i].Reason = info.Reason
		if err := s.workspace.UpdateFieldReason(ctx, fields[i].ID, info.Reason); err != nil {
			s.logger.Warn().Err(err).Str("field_id", fields[i].ID).Msg("Failed to write field reasoning back")
		}
	}

	data, err := json.MarshalIndent(fields, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode field cache: %w", err)
	}
	path := filepath.Join(s.config.Workflow.SavePath, fieldInfoFile)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return nil, fmt.Errorf("failed to write field cache: %w", err)
	}
	return fields, nil
}

// buildClassifyPrompt joins the taxonomy catalog, the article title
// and its rendered content into the classification prompt. Without a
// taxonomy only title and content are sent.
func buildClassifyPrompt(title, content string, fields []models.Field) string {
	var lines []string
	if len(fields) > 0 {
		catalog := make([]string, 0, len(fields))
		for _, field := range fields {
			catalog = append(catalog, fmt.Sprintf("%s:%s", field.Category, field.Reason))
		}
		lines = append(lines,
			"==============",
			"【分类类型】:【理由】",
			"==============",
			strings.Join(catalog, "\n"),
		)
	}
	lines = append(lines,
		fmt.Sprintf("文章标题：%s", title),
		fmt.Sprintf("文章内容：%s", content),
	)
	return strings.Join(lines, "\n")
}

// fieldIDList maps decoded category names to field ids, preserving an
// empty entry for every name that does not match a known category.
// Names are trimmed; no other normalization is applied.
func fieldIDList(fields []models.Field, categories models.CategoryList) []string {
	byName := make(map[string]string, len(fields))
	for _, field := range fields {
		byName[field.Category] = field.ID
	}
	ids := make([]string, 0, len(categories))
	for _, name := range categories {
		ids = append(ids, byName[strings.TrimSpace(name)])
	}
	return ids
}

// writeArtifact persists the decoded classification merged with the
// article stub to <save_path>/output/<pageId>.json.
func (s *Service) writeArtifact(article models.Article, result *models.ClassificationResult) error {
	// classification first, article stub second: on key collisions
	// (notably "author") the article's own fields win
	merged := make(map[string]any)
	for _, part := range []any{*result, article} {
		encoded, err := json.Marshal(part)
		if err != nil {
			return fmt.Errorf("failed to encode artifact: %w", err)
		}
		if err := json.Unmarshal(encoded, &merged); err != nil {
			return fmt.Errorf("failed to merge artifact: %w", err)
		}
	}
	data, err := json.MarshalIndent(merged, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode artifact: %w", err)
	}

	dir := filepath.Join(s.config.Workflow.SavePath, "output")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create artifact directory: %w", err)
	}
	path := filepath.Join(dir, article.ID+".json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write artifact: %w", err)
	}
	return nil
}

func (s *Service) record(runID string, article models.Article, err error) {
	if s.runs == nil {
		return
	}
	rec := &models.RunRecord{
		Key:       runID + ":" + article.ID,
		RunID:     runID,
		ArticleID: article.ID,
		Title:     article.Name,
		Passed:    err == nil,
		Timestamp: time.Now(),
	}
	if err != nil {
		rec.Error = err.Error()
	}
	if storeErr := s.runs.Record(rec); storeErr != nil {
		s.logger.Error().Err(storeErr).Str("run_id", runID).Msg("Failed to persist run record")
	}
}

func containsID(ids []string, id string) bool {
	for _, existing := range ids {
		if existing == id {
			return true
		}
	}
	return false
}
