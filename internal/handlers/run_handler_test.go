package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/curator/internal/common"
	"github.com/ternarybob/curator/internal/models"
)

type fakeRunService struct {
	runID   string
	failed  int
	cleaned int
	err     error

	cleanupStatuses []string
}

func (f *fakeRunService) Run(ctx context.Context) (string, int, error) {
	return f.runID, f.failed, f.err
}

func (f *fakeRunService) RemoveUnknownAuthors(ctx context.Context, statusFilter string) (int, error) {
	f.cleanupStatuses = append(f.cleanupStatuses, statusFilter)
	return f.cleaned, f.err
}

type fakeRunStore struct {
	records []models.RunRecord
}

func (f *fakeRunStore) Record(rec *models.RunRecord) error { return nil }
func (f *fakeRunStore) Close() error                       { return nil }

func (f *fakeRunStore) ListByRun(runID string) ([]models.RunRecord, error) {
	return f.records, nil
}

func (f *fakeRunStore) Failures(runID string) ([]models.RunRecord, error) {
	var out []models.RunRecord
	for _, r := range f.records {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out, nil
}

func TestTriggerHandler(t *testing.T) {
	svc := &fakeRunService{runID: "run_abc", failed: 2}
	handler := NewRunHandler(svc, &fakeRunStore{}, common.GetLogger())

	rec := httptest.NewRecorder()
	handler.TriggerHandler(rec, httptest.NewRequest("POST", "/api/run", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "run_abc", resp["run_id"])
	assert.Equal(t, float64(2), resp["failed"])
}

func TestTriggerHandler_RunError(t *testing.T) {
	svc := &fakeRunService{err: errors.New("failed to list articles")}
	handler := NewRunHandler(svc, &fakeRunStore{}, common.GetLogger())

	rec := httptest.NewRecorder()
	handler.TriggerHandler(rec, httptest.NewRequest("POST", "/api/run", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRecordsHandler_FailuresFilter(t *testing.T) {
	store := &fakeRunStore{records: []models.RunRecord{
		{Key: "run_abc:p1", RunID: "run_abc", ArticleID: "p1", Passed: true},
		{Key: "run_abc:p2", RunID: "run_abc", ArticleID: "p2", Passed: false, Error: "decode failed"},
	}}
	handler := NewRunHandler(&fakeRunService{}, store, common.GetLogger())

	rec := httptest.NewRecorder()
	handler.RecordsHandler(rec, httptest.NewRequest("GET", "/api/runs/run_abc?failures=true", nil), "run_abc")

	require.Equal(t, http.StatusOK, rec.Code)
	var records []models.RunRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &records))
	require.Len(t, records, 1)
	assert.Equal(t, "p2", records[0].ArticleID)
}

func TestCleanupHandler_RequiresStatus(t *testing.T) {
	handler := NewRunHandler(&fakeRunService{}, &fakeRunStore{}, common.GetLogger())

	rec := httptest.NewRecorder()
	handler.CleanupHandler(rec, httptest.NewRequest("POST", "/api/run/cleanup", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCleanupHandler(t *testing.T) {
	svc := &fakeRunService{cleaned: 3}
	handler := NewRunHandler(svc, &fakeRunStore{}, common.GetLogger())

	rec := httptest.NewRecorder()
	handler.CleanupHandler(rec, httptest.NewRequest("POST", "/api/run/cleanup?status=进行中", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"进行中"}, svc.cleanupStatuses)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, float64(3), resp["cleaned"])
}
