package handlers

import (
	"net/http"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/curator/internal/common"
	"github.com/ternarybob/curator/internal/interfaces"
	"github.com/ternarybob/curator/internal/models"
)

// DatabaseHandler exposes database administration over HTTP: listing,
// content dumps, schema edits, filtered queries and batch text fills.
type DatabaseHandler struct {
	api    interfaces.NotionAPI
	config *common.WorkspaceConfig
	logger arbor.ILogger
}

func NewDatabaseHandler(api interfaces.NotionAPI, config *common.WorkspaceConfig, logger arbor.ILogger) *DatabaseHandler {
	return &DatabaseHandler{
		api:    api,
		config: config,
		logger: logger,
	}
}

type databaseSummary struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type propertyRequest struct {
	DatabaseID   string `json:"database_id"`
	PropertyName string `json:"property_name"`
	PropertyType string `json:"property_type"`
	DefaultValue any    `json:"default_value,omitempty"`
}

type filterRequest struct {
	DatabaseID     string `json:"database_id"`
	FilterProperty string `json:"filter_property"`
	FilterValue    string `json:"filter_value"`
	FilterType     string `json:"filter_type"`
}

type updateTextRequest struct {
	DatabaseID  string `json:"database_id"`
	TextContent string `json:"text_content"`
}

// ListHandler returns id and title of every database visible to the
// workspace token.
func (h *DatabaseHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	databases, err := h.api.ListDatabases(r.Context())
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	summaries := make([]databaseSummary, 0, len(databases))
	for _, db := range databases {
		title := "未命名"
		if len(db.Title) > 0 {
			title = db.Title[0].Content()
		}
		summaries = append(summaries, databaseSummary{ID: db.ID, Title: title})
	}
	WriteJSON(w, http.StatusOK, summaries)
}

// ContentHandler returns all rows of the database named in the path.
func (h *DatabaseHandler) ContentHandler(w http.ResponseWriter, r *http.Request, databaseID string) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	pages, err := h.api.GetDatabaseContent(r.Context(), databaseID, true)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, pages)
}

// AddPropertyHandler adds a property to a database schema.
func (h *DatabaseHandler) AddPropertyHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	var req propertyRequest
	if !DecodeBody(w, r, &req) {
		return
	}
	if req.DatabaseID == "" || req.PropertyName == "" || req.PropertyType == "" {
		WriteError(w, http.StatusBadRequest, "database_id, property_name and property_type are required")
		return
	}

	if err := h.api.AddDatabaseProperty(r.Context(), req.DatabaseID, req.PropertyName, req.PropertyType, req.DefaultValue); err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	WriteSuccess(w, "added property "+req.PropertyName)
}

// RemovePropertyHandler removes a property from a database schema.
// Routed as DELETE /api/databases/{id}/properties/{name}.
func (h *DatabaseHandler) RemovePropertyHandler(w http.ResponseWriter, r *http.Request, databaseID, propertyName string) {
	if !RequireMethod(w, r, "DELETE") {
		return
	}

	if err := h.api.RemoveDatabaseProperty(r.Context(), databaseID, propertyName); err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	WriteSuccess(w, "removed property "+propertyName)
}

// FilterHandler runs a single-property filtered query.
func (h *DatabaseHandler) FilterHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	var req filterRequest
	if !DecodeBody(w, r, &req) {
		return
	}
	if req.DatabaseID == "" || req.FilterProperty == "" {
		WriteError(w, http.StatusBadRequest, "database_id and filter_property are required")
		return
	}
	condition := req.FilterType
	if condition == "" {
		condition = "equals"
	}

	pages, err := h.api.QueryDatabase(r.Context(), req.DatabaseID, &models.Filter{
		Property:  req.FilterProperty,
		Condition: condition,
		Value:     req.FilterValue,
	})
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, pages)
}

// UpdateTextHandler fills the free-text property of every page whose
// text is still empty. Pages are updated concurrently; each call still
// passes the client's shared throttle.
func (h *DatabaseHandler) UpdateTextHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	var req updateTextRequest
	if !DecodeBody(w, r, &req) {
		return
	}
	if req.DatabaseID == "" {
		WriteError(w, http.StatusBadRequest, "database_id is required")
		return
	}

	pages, err := h.api.GetDatabaseContent(r.Context(), req.DatabaseID, false)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	var successCount int64
	var wg sync.WaitGroup
	for _, page := range pages {
		prop, ok := page.Properties[h.config.TextProperty]
		if ok && strings.TrimSpace(prop.PlainText()) != "" {
			continue
		}

		wg.Add(1)
		go func(pageID string) {
			defer wg.Done()
			err := h.api.UpdatePageProperties(r.Context(), pageID, map[string]any{
				h.config.TextProperty: map[string]any{
					"rich_text": []map[string]any{
						{"text": map[string]any{"content": req.TextContent}},
					},
				},
			})
			if err != nil {
				h.logger.Warn().Err(err).Str("page_id", pageID).Msg("Batch text update failed for page")
				return
			}
			atomic.AddInt64(&successCount, 1)
		}(page.ID)
	}
	wg.Wait()

	h.api.InvalidateCache(req.DatabaseID)

	WriteJSON(w, http.StatusOK, map[string]any{
		"message":       "update complete",
		"success_count": successCount,
	})
}
