package handlers

import (
	"context"
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/curator/internal/interfaces"
)

// RunService is the slice of the workflow service the HTTP surface
// needs: trigger a batch and clean stale author relations.
type RunService interface {
	Run(ctx context.Context) (string, int, error)
	RemoveUnknownAuthors(ctx context.Context, statusFilter string) (int, error)
}

// RunHandler triggers reconciliation batches and serves the run ledger.
type RunHandler struct {
	workflow RunService
	runs     interfaces.RunStore
	logger   arbor.ILogger
}

func NewRunHandler(workflow RunService, runs interfaces.RunStore, logger arbor.ILogger) *RunHandler {
	return &RunHandler{
		workflow: workflow,
		runs:     runs,
		logger:   logger,
	}
}

// TriggerHandler starts a reconciliation batch synchronously and
// returns its outcome.
func (h *RunHandler) TriggerHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	runID, failed, err := h.workflow.Run(r.Context())
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"run_id": runID,
		"failed": failed,
	})
}

// RecordsHandler returns the per-article ledger of one run. With
// ?failures=true only failed articles are returned.
func (h *RunHandler) RecordsHandler(w http.ResponseWriter, r *http.Request, runID string) {
	if !RequireMethod(w, r, "GET") {
		return
	}
	if h.runs == nil {
		WriteError(w, http.StatusServiceUnavailable, "run ledger is not configured")
		return
	}

	var err error
	var records any
	if r.URL.Query().Get("failures") == "true" {
		records, err = h.runs.Failures(runID)
	} else {
		records, err = h.runs.ListByRun(runID)
	}
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, records)
}

// CleanupHandler strips stale author relations from articles matching
// the given status.
func (h *RunHandler) CleanupHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	status := r.URL.Query().Get("status")
	if status == "" {
		WriteError(w, http.StatusBadRequest, "status query parameter is required")
		return
	}

	cleaned, err := h.workflow.RemoveUnknownAuthors(r.Context(), status)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"cleaned": cleaned,
	})
}
