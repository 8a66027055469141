package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/curator/internal/common"
	"github.com/ternarybob/curator/internal/models"
)

// fakeAuthor pairs a projected author with its filterable property
// values, so lookup filters behave like the live service.
type fakeAuthor struct {
	author models.Author
	props  map[string]string
}

type fakeWorkspace struct {
	articles   []models.Article
	authors    []fakeAuthor
	fields     []models.Field
	content    map[string]string
	contentErr map[string]error

	created       []map[string]models.PropertyValue
	newAuthorID   string
	updates       map[string][]map[string]models.PropertyValue
	descUpdates   []string
	authorFilters []models.Filter
}

func newFakeWorkspace() *fakeWorkspace {
	return &fakeWorkspace{
		content:     make(map[string]string),
		contentErr:  make(map[string]error),
		updates:     make(map[string][]map[string]models.PropertyValue),
		newAuthorID: "new-author-id",
	}
}

func (f *fakeWorkspace) GetAuthors(ctx context.Context, filter *models.Filter) ([]models.Author, error) {
	if filter != nil {
		f.authorFilters = append(f.authorFilters, *filter)
	}
	var out []models.Author
	for _, a := range f.authors {
		if filter == nil {
			out = append(out, a.author)
			continue
		}
		value := a.props[filter.Property]
		switch filter.Condition {
		case "contains":
			if filter.Value != "" && strings.Contains(value, filter.Value) {
				out = append(out, a.author)
			}
		default:
			if value == filter.Value {
				out = append(out, a.author)
			}
		}
	}
	return out, nil
}

func (f *fakeWorkspace) GetFields(ctx context.Context, filter *models.Filter) ([]models.Field, error) {
	return f.fields, nil
}

func (f *fakeWorkspace) GetArticles(ctx context.Context, filter *models.Filter) ([]models.Article, error) {
	return f.articles, nil
}

func (f *fakeWorkspace) GetArticleContent(ctx context.Context, pageID string) (string, bool, error) {
	if err := f.contentErr[pageID]; err != nil {
		return "", false, err
	}
	content := f.content[pageID]
	if strings.TrimSpace(content) == "" {
		return "", false, nil
	}
	return content, true, nil
}

func (f *fakeWorkspace) NewAuthor(ctx context.Context, properties map[string]models.PropertyValue) (string, error) {
	f.created = append(f.created, properties)
	return f.newAuthorID, nil
}

func (f *fakeWorkspace) UpdateArticleDetail(ctx context.Context, pageID string, updates map[string]models.PropertyValue) error {
	f.updates[pageID] = append(f.updates[pageID], updates)
	return nil
}

func (f *fakeWorkspace) UpdateAuthorDescription(ctx context.Context, authorID string, info *models.AuthorInfo) error {
	f.descUpdates = append(f.descUpdates, authorID)
	return nil
}

func (f *fakeWorkspace) UpdateFieldReason(ctx context.Context, fieldID, reason string) error {
	return nil
}

type fakeLLM struct {
	classification *models.ClassificationResult
	authorInfo     *models.AuthorInfo
	fieldInfo      *models.FieldInfo
	err            error

	articlePrompts []string
	authorLookups  []string

	translateMaxChars int
	translateWhole    bool
}

func (f *fakeLLM) GetArticleInfo(ctx context.Context, text, tag string) (*models.ClassificationResult, error) {
	f.articlePrompts = append(f.articlePrompts, text)
	return f.classification, f.err
}

func (f *fakeLLM) GetAuthorshipInfo(ctx context.Context, text, tag string) (*models.ClassificationResult, error) {
	f.articlePrompts = append(f.articlePrompts, text)
	return f.classification, f.err
}

func (f *fakeLLM) GetAuthorInfo(ctx context.Context, name, description, tag string) (*models.AuthorInfo, error) {
	f.authorLookups = append(f.authorLookups, name)
	return f.authorInfo, nil
}

func (f *fakeLLM) GetFieldInfo(ctx context.Context, name, tag string) (*models.FieldInfo, error) {
	return f.fieldInfo, nil
}

func (f *fakeLLM) Translate(ctx context.Context, text string, maxChars int, whole bool) (string, error) {
	f.translateMaxChars = maxChars
	f.translateWhole = whole
	return strings.ToUpper(text), nil
}

type memoryRunStore struct {
	records []models.RunRecord
}

func (m *memoryRunStore) Record(rec *models.RunRecord) error {
	m.records = append(m.records, *rec)
	return nil
}

func (m *memoryRunStore) ListByRun(runID string) ([]models.RunRecord, error) {
	return m.records, nil
}

func (m *memoryRunStore) Failures(runID string) ([]models.RunRecord, error) {
	var out []models.RunRecord
	for _, r := range m.records {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memoryRunStore) Close() error { return nil }

func newTestService(t *testing.T, ws *fakeWorkspace, llm *fakeLLM) (*Service, *common.Config) {
	t.Helper()
	cfg := common.NewDefaultConfig()
	cfg.Workflow.SavePath = t.TempDir()
	return NewService(ws, llm, nil, cfg, common.GetLogger()), cfg
}

func TestProcessArticle_InfoMissingEndToEnd(t *testing.T) {
	ws := newFakeWorkspace()
	ws.content["p1"] = "article body"
	llm := &fakeLLM{classification: &models.ClassificationResult{
		Author:            "unknown",
		AuthorEnglishName: "unknown",
		AuthorChineseName: "none",
		Category:          models.CategoryList{"Tech"},
	}}
	svc, cfg := newTestService(t, ws, llm)

	article := models.Article{ID: "p1", Name: "Title"}
	fields := []models.Field{{ID: "f1", Category: "Tech", Reason: "technology"}}

	require.NoError(t, svc.ProcessArticle(context.Background(), article, fields))

	// no author resolution and no author relation written
	assert.Empty(t, ws.created)
	assert.Empty(t, llm.authorLookups)

	require.Len(t, ws.updates["p1"], 1)
	updates := ws.updates["p1"][0]
	assert.Equal(t, cfg.Workspace.StatusInfoMissing, updates[cfg.Workspace.StatusProperty].Value)
	assert.NotContains(t, updates, cfg.Workspace.AuthorProperty)
	assert.Equal(t, []string{"f1"}, updates[cfg.Workspace.CategoryProperty].Value)

	// debug artifact carries the merged record
	data, err := os.ReadFile(filepath.Join(cfg.Workflow.SavePath, "output", "p1.json"))
	require.NoError(t, err)
	var artifact map[string]any
	require.NoError(t, json.Unmarshal(data, &artifact))
	assert.Equal(t, "p1", artifact["id"])
	assert.Equal(t, "Title", artifact["name"])
	assert.Equal(t, "unknown", artifact["author_english_name"])
}

func TestProcessArticle_CreatesAuthorEndToEnd(t *testing.T) {
	ws := newFakeWorkspace()
	ws.content["p1"] = "essay text"
	llm := &fakeLLM{
		classification: &models.ClassificationResult{
			Author:            "Jane Doe",
			AuthorEnglishName: "Jane Doe",
			AuthorChineseName: "none",
		},
		authorInfo: &models.AuthorInfo{Introduction: "a writer"},
	}
	svc, cfg := newTestService(t, ws, llm)

	article := models.Article{ID: "p1", Name: "Essay"}
	require.NoError(t, svc.ProcessArticle(context.Background(), article, nil))

	// exactly one author created, chinese name sentinel blanked
	require.Len(t, ws.created, 1)
	created := ws.created[0]
	assert.Equal(t, "Jane Doe", created[cfg.Workspace.NameProperty].Value)
	assert.Equal(t, "Jane Doe", created[cfg.Workspace.EnglishNameProperty].Value)
	assert.Equal(t, "", created[cfg.Workspace.ChineseNameProperty].Value)
	assert.Equal(t, "a writer", created[cfg.Workspace.DescriptionProperty].Value)

	require.Len(t, ws.updates["p1"], 1)
	updates := ws.updates["p1"][0]
	assert.Equal(t, cfg.Workspace.StatusInProgress, updates[cfg.Workspace.StatusProperty].Value)
	assert.Equal(t, []string{"new-author-id"}, updates[cfg.Workspace.AuthorProperty].Value)
}

func TestProcessArticle_ExistingAuthorByContainsMatch(t *testing.T) {
	ws := newFakeWorkspace()
	ws.content["p1"] = "essay text"
	cfg := common.NewDefaultConfig()
	ws.authors = []fakeAuthor{{
		author: models.Author{ID: "a1", Name: "Paul Graham"},
		props:  map[string]string{cfg.Workspace.EnglishNameProperty: "Paul Graham"},
	}}
	llm := &fakeLLM{classification: &models.ClassificationResult{
		Author:            "Graham",
		AuthorEnglishName: "Graham",
		AuthorChineseName: "none",
	}}
	svc, cfg := newTestService(t, ws, llm)

	require.NoError(t, svc.ProcessArticle(context.Background(), models.Article{ID: "p1", Name: "Essay"}, nil))

	assert.Empty(t, ws.created, "lookup-before-create must reuse the match")
	updates := ws.updates["p1"][0]
	assert.Equal(t, []string{"a1"}, updates[cfg.Workspace.AuthorProperty].Value)
}

func TestProcessArticle_Idempotent(t *testing.T) {
	ws := newFakeWorkspace()
	ws.content["p1"] = "essay text"
	cfg := common.NewDefaultConfig()
	ws.authors = []fakeAuthor{{
		author: models.Author{ID: "a1", Name: "Jane Doe"},
		props:  map[string]string{cfg.Workspace.EnglishNameProperty: "Jane Doe"},
	}}
	llm := &fakeLLM{classification: &models.ClassificationResult{
		Author:            "Jane Doe",
		AuthorEnglishName: "Jane Doe",
		AuthorChineseName: "none",
	}}
	svc, cfg := newTestService(t, ws, llm)

	article := models.Article{
		ID:        "p1",
		Name:      "Essay",
		AuthorIDs: []string{"a1"},
		Status:    cfg.Workspace.StatusInProgress,
	}
	require.NoError(t, svc.ProcessArticle(context.Background(), article, nil))

	assert.Empty(t, ws.created, "re-run must not duplicate the author")
	assert.Empty(t, ws.updates["p1"], "unchanged status and relation must not be rewritten")
}

func TestProcessArticle_OneKnownFieldForcesInProgress(t *testing.T) {
	ws := newFakeWorkspace()
	ws.content["p1"] = "essay text"
	llm := &fakeLLM{classification: &models.ClassificationResult{
		Author:            "unknown",
		AuthorEnglishName: "unknown",
		AuthorChineseName: "张三",
	}}
	svc, cfg := newTestService(t, ws, llm)

	require.NoError(t, svc.ProcessArticle(context.Background(), models.Article{ID: "p1", Name: "Essay"}, nil))

	// an identified chinese name is enough: no match -> create -> in progress
	require.Len(t, ws.created, 1)
	updates := ws.updates["p1"][0]
	assert.Equal(t, cfg.Workspace.StatusInProgress, updates[cfg.Workspace.StatusProperty].Value)
}

func TestResolveAuthor_SkipsLookupForUnknownNames(t *testing.T) {
	ws := newFakeWorkspace()
	ws.content["p1"] = "essay text"
	cfg := common.NewDefaultConfig()
	ws.authors = []fakeAuthor{{
		author: models.Author{ID: "a1", Name: "张三"},
		props:  map[string]string{cfg.Workspace.ChineseNameProperty: "张三"},
	}}
	llm := &fakeLLM{classification: &models.ClassificationResult{
		Author:            "张三",
		AuthorEnglishName: "unknown",
		AuthorChineseName: "张三",
	}}
	svc, cfg := newTestService(t, ws, llm)

	require.NoError(t, svc.ProcessArticle(context.Background(), models.Article{ID: "p1", Name: "Essay"}, nil))

	// the unresolved english name must not be sent as a contains filter
	require.Len(t, ws.authorFilters, 1)
	assert.Equal(t, cfg.Workspace.ChineseNameProperty, ws.authorFilters[0].Property)
	assert.Empty(t, ws.created)
	assert.Equal(t, []string{"a1"}, ws.updates["p1"][0][cfg.Workspace.AuthorProperty].Value)
}

func TestResolveAuthor_OnlyPenNameKnownCreatesWithoutLookup(t *testing.T) {
	ws := newFakeWorkspace()
	ws.content["p1"] = "essay text"
	llm := &fakeLLM{classification: &models.ClassificationResult{
		Author:            "佚名斋主",
		AuthorEnglishName: "unknown",
		AuthorChineseName: "none",
	}}
	svc, _ := newTestService(t, ws, llm)

	require.NoError(t, svc.ProcessArticle(context.Background(), models.Article{ID: "p1", Name: "Essay"}, nil))

	assert.Empty(t, ws.authorFilters, "sentinel names issue no filtered lookups")
	require.Len(t, ws.created, 1)
}

func TestProcessArticle_DecodeFailureLeavesArticleUnchanged(t *testing.T) {
	ws := newFakeWorkspace()
	ws.content["p1"] = "essay text"
	llm := &fakeLLM{classification: nil}
	svc, cfg := newTestService(t, ws, llm)

	err := svc.ProcessArticle(context.Background(), models.Article{ID: "p1", Name: "Essay"}, nil)
	require.Error(t, err)
	assert.Empty(t, ws.updates["p1"])
	assert.Empty(t, ws.created)

	_, statErr := os.Stat(filepath.Join(cfg.Workflow.SavePath, "output", "p1.json"))
	assert.True(t, os.IsNotExist(statErr), "failed classification writes no artifact")
}

func TestProcessArticle_CatalogPrompt(t *testing.T) {
	ws := newFakeWorkspace()
	ws.content["p1"] = "essay text"
	llm := &fakeLLM{classification: &models.ClassificationResult{
		Author:            "unknown",
		AuthorEnglishName: "unknown",
		AuthorChineseName: "none",
	}}
	svc, _ := newTestService(t, ws, llm)

	fields := []models.Field{
		{ID: "f1", Category: "科技", Reason: "technology"},
		{ID: "f2", Category: "商业", Reason: "business"},
	}
	require.NoError(t, svc.ProcessArticle(context.Background(), models.Article{ID: "p1", Name: "标题"}, fields))

	require.Len(t, llm.articlePrompts, 1)
	prompt := llm.articlePrompts[0]
	assert.Contains(t, prompt, "==============\n【分类类型】:【理由】\n==============")
	assert.Contains(t, prompt, "科技:technology")
	assert.Contains(t, prompt, "文章标题：标题")
	assert.Contains(t, prompt, "文章内容：essay text")
}

func TestRun_RecordsFailuresAndContinues(t *testing.T) {
	ws := newFakeWorkspace()
	ws.articles = []models.Article{
		{ID: "p1", Name: "Broken"},
		{ID: "p2", Name: "Fine"},
	}
	ws.contentErr["p1"] = errors.New("service unavailable")
	ws.content["p2"] = "body"
	llm := &fakeLLM{classification: &models.ClassificationResult{
		Author:            "unknown",
		AuthorEnglishName: "unknown",
		AuthorChineseName: "none",
	}}

	cfg := common.NewDefaultConfig()
	cfg.Workflow.SavePath = t.TempDir()
	cfg.Workflow.ClassifyCategories = false
	store := &memoryRunStore{}
	svc := NewService(ws, llm, store, cfg, common.GetLogger())

	runID, failed, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, failed)
	assert.NotEmpty(t, runID)

	require.Len(t, store.records, 2)
	assert.False(t, store.records[0].Passed)
	assert.Contains(t, store.records[0].Error, "service unavailable")
	assert.True(t, store.records[1].Passed)

	// the second article was still processed
	assert.Len(t, ws.updates["p2"], 1)
}

func TestRemoveUnknownAuthors(t *testing.T) {
	ws := newFakeWorkspace()
	ws.authors = []fakeAuthor{{author: models.Author{ID: "a1", Name: "Known"}}}
	ws.articles = []models.Article{
		{ID: "p1", Name: "Stale", AuthorIDs: []string{"a1", "deleted"}},
		{ID: "p2", Name: "Clean", AuthorIDs: []string{"a1"}},
	}
	svc, cfg := newTestService(t, ws, &fakeLLM{})

	cleaned, err := svc.RemoveUnknownAuthors(context.Background(), cfg.Workspace.StatusInProgress)
	require.NoError(t, err)
	assert.Equal(t, 1, cleaned)

	require.Len(t, ws.updates["p1"], 1)
	assert.Equal(t, []string{"a1"}, ws.updates["p1"][0][cfg.Workspace.AuthorProperty].Value)
	assert.Empty(t, ws.updates["p2"], "clean relation sets are not rewritten")
}

func TestEnrichAuthors_OnlyMissingDescriptions(t *testing.T) {
	ws := newFakeWorkspace()
	ws.authors = []fakeAuthor{
		{author: models.Author{ID: "a1", Name: "Jane Doe"}},
		{author: models.Author{ID: "a2", Name: "Paul Graham", Description: "essayist"}},
		{author: models.Author{ID: "a3", Name: "佚名"}},
	}
	llm := &fakeLLM{authorInfo: &models.AuthorInfo{Introduction: "a writer"}}
	svc, _ := newTestService(t, ws, llm)

	enriched, err := svc.EnrichAuthors(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, enriched)
	assert.Equal(t, []string{"a1", "a3"}, ws.descUpdates)
	assert.Equal(t, []string{"Jane Doe", "佚名"}, llm.authorLookups)
}

func TestTranslateArticle_UsesConfiguredChunking(t *testing.T) {
	ws := newFakeWorkspace()
	ws.content["p1"] = "essay text"
	llm := &fakeLLM{}
	svc, cfg := newTestService(t, ws, llm)
	cfg.Workflow.MaxChars = 1234
	cfg.Workflow.WholeDocTranslate = true

	got, err := svc.TranslateArticle(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "ESSAY TEXT", got)
	assert.Equal(t, 1234, llm.translateMaxChars)
	assert.True(t, llm.translateWhole)

	_, err = svc.TranslateArticle(context.Background(), "empty")
	assert.Error(t, err, "a page without renderable content cannot be translated")
}

func TestFieldIDList_NullOnMiss(t *testing.T) {
	fields := []models.Field{
		{ID: "f1", Category: "科技"},
		{ID: "f2", Category: "商业"},
	}
	ids := fieldIDList(fields, models.CategoryList{"科技", " 商业 ", "未知领域"})
	assert.Equal(t, []string{"f1", "f2", ""}, ids)
}
