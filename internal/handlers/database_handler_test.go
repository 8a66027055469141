package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/curator/internal/common"
	"github.com/ternarybob/curator/internal/models"
)

type fakeNotionAPI struct {
	mu sync.Mutex

	databases []models.Page
	content   map[string][]models.Page

	addedProps   []propertyRequest
	removedProps []string
	queries      []*models.Filter
	pageUpdates  map[string][]map[string]any
	invalidated  []string
}

func newFakeNotionAPI() *fakeNotionAPI {
	return &fakeNotionAPI{
		content:     make(map[string][]models.Page),
		pageUpdates: make(map[string][]map[string]any),
	}
}

func (f *fakeNotionAPI) ListDatabases(ctx context.Context) ([]models.Page, error) {
	return f.databases, nil
}

func (f *fakeNotionAPI) GetDatabaseByName(ctx context.Context, name string) (string, error) {
	return "", nil
}

func (f *fakeNotionAPI) QueryDatabase(ctx context.Context, databaseID string, filter *models.Filter) ([]models.Page, error) {
	f.queries = append(f.queries, filter)
	return f.content[databaseID], nil
}

func (f *fakeNotionAPI) GetDatabaseContent(ctx context.Context, databaseID string, useCache bool) ([]models.Page, error) {
	return f.content[databaseID], nil
}

func (f *fakeNotionAPI) InvalidateCache(databaseID string) {
	f.invalidated = append(f.invalidated, databaseID)
}

func (f *fakeNotionAPI) GetDatabaseSchema(ctx context.Context, databaseID string) (map[string]models.Property, error) {
	return nil, nil
}

func (f *fakeNotionAPI) AddDatabaseProperty(ctx context.Context, databaseID, name, propType string, defaultValue any) error {
	f.addedProps = append(f.addedProps, propertyRequest{DatabaseID: databaseID, PropertyName: name, PropertyType: propType, DefaultValue: defaultValue})
	return nil
}

func (f *fakeNotionAPI) RemoveDatabaseProperty(ctx context.Context, databaseID, name string) error {
	f.removedProps = append(f.removedProps, databaseID+"/"+name)
	return nil
}

func (f *fakeNotionAPI) CreatePage(ctx context.Context, databaseID string, properties map[string]any) (string, error) {
	return "page-id", nil
}

func (f *fakeNotionAPI) UpdatePageProperties(ctx context.Context, pageID string, properties map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pageUpdates[pageID] = append(f.pageUpdates[pageID], properties)
	return nil
}

func (f *fakeNotionAPI) ListBlockChildren(ctx context.Context, blockID string) ([]models.Block, error) {
	return nil, nil
}

func newTestDatabaseHandler(api *fakeNotionAPI) *DatabaseHandler {
	cfg := common.NewDefaultConfig()
	return NewDatabaseHandler(api, &cfg.Workspace, common.GetLogger())
}

func textPage(id, text string) models.Page {
	page := models.Page{ID: id, Properties: map[string]models.Property{}}
	if text != "" {
		page.Properties["文本"] = models.Property{
			Type:     models.PropertyRichText,
			RichText: []models.RichText{{PlainText: text}},
		}
	}
	return page
}

func TestListHandler(t *testing.T) {
	api := newFakeNotionAPI()
	api.databases = []models.Page{
		{ID: "db1", Title: []models.RichText{{PlainText: "Articles"}}},
		{ID: "db2"},
	}
	handler := newTestDatabaseHandler(api)

	rec := httptest.NewRecorder()
	handler.ListHandler(rec, httptest.NewRequest("GET", "/api/databases", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var summaries []databaseSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summaries))
	require.Len(t, summaries, 2)
	assert.Equal(t, "Articles", summaries[0].Title)
	assert.Equal(t, "未命名", summaries[1].Title, "untitled databases get the placeholder title")
}

func TestAddPropertyHandler(t *testing.T) {
	api := newFakeNotionAPI()
	handler := newTestDatabaseHandler(api)

	body := `{"database_id":"db1","property_name":"评分","property_type":"number"}`
	rec := httptest.NewRecorder()
	handler.AddPropertyHandler(rec, httptest.NewRequest("POST", "/api/databases/property", strings.NewReader(body)))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, api.addedProps, 1)
	assert.Equal(t, "评分", api.addedProps[0].PropertyName)
	assert.Equal(t, "number", api.addedProps[0].PropertyType)
}

func TestAddPropertyHandler_MissingFields(t *testing.T) {
	handler := newTestDatabaseHandler(newFakeNotionAPI())

	rec := httptest.NewRecorder()
	handler.AddPropertyHandler(rec, httptest.NewRequest("POST", "/api/databases/property", strings.NewReader(`{"database_id":"db1"}`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFilterHandler_DefaultsToEquals(t *testing.T) {
	api := newFakeNotionAPI()
	handler := newTestDatabaseHandler(api)

	body := `{"database_id":"db1","filter_property":"状态","filter_value":"未开始"}`
	rec := httptest.NewRecorder()
	handler.FilterHandler(rec, httptest.NewRequest("POST", "/api/databases/filter", strings.NewReader(body)))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, api.queries, 1)
	assert.Equal(t, "equals", api.queries[0].Condition)
	assert.Equal(t, "状态", api.queries[0].Property)
}

func TestUpdateTextHandler_FillsOnlyEmptyPages(t *testing.T) {
	api := newFakeNotionAPI()
	api.content["db1"] = []models.Page{
		textPage("p1", ""),
		textPage("p2", "already filled"),
		textPage("p3", ""),
	}
	handler := newTestDatabaseHandler(api)

	body := `{"database_id":"db1","text_content":"placeholder"}`
	rec := httptest.NewRecorder()
	handler.UpdateTextHandler(rec, httptest.NewRequest("POST", "/api/databases/update-text", strings.NewReader(body)))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, float64(2), resp["success_count"])

	assert.Len(t, api.pageUpdates["p1"], 1)
	assert.Empty(t, api.pageUpdates["p2"], "pages with existing text are left alone")
	assert.Len(t, api.pageUpdates["p3"], 1)
	assert.Equal(t, []string{"db1"}, api.invalidated, "cache must be dropped after a batch update")
}

func TestRemovePropertyHandler(t *testing.T) {
	api := newFakeNotionAPI()
	handler := newTestDatabaseHandler(api)

	rec := httptest.NewRecorder()
	handler.RemovePropertyHandler(rec, httptest.NewRequest("DELETE", "/api/databases/db1/properties/评分", nil), "db1", "评分")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"db1/评分"}, api.removedProps)
}
