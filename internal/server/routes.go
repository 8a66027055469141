package server

import (
	"net/http"
	"strings"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// API routes - Database administration
	mux.HandleFunc("/api/databases", s.app.DatabaseHandler.ListHandler)                   // GET - list databases
	mux.HandleFunc("/api/databases/property", s.app.DatabaseHandler.AddPropertyHandler)   // POST - add schema property
	mux.HandleFunc("/api/databases/filter", s.app.DatabaseHandler.FilterHandler)          // POST - filtered query
	mux.HandleFunc("/api/databases/update-text", s.app.DatabaseHandler.UpdateTextHandler) // POST - batch text fill
	mux.HandleFunc("/api/databases/", s.handleDatabaseRoutes)                             // GET content, DELETE property

	// API routes - Reconciliation runs
	mux.HandleFunc("/api/run", s.app.RunHandler.TriggerHandler)         // POST - start a batch
	mux.HandleFunc("/api/run/cleanup", s.app.RunHandler.CleanupHandler) // POST - strip stale author relations
	mux.HandleFunc("/api/runs/", s.handleRunRoutes)                     // GET /{id} ledger

	// API routes - System
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", s.app.APIHandler.NotFoundHandler)

	return mux
}

// handleDatabaseRoutes routes path-parameterized database requests:
// GET /api/databases/{id} and DELETE /api/databases/{id}/properties/{name}.
func (s *Server) handleDatabaseRoutes(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/databases/")
	if rest == "" {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}

	parts := strings.Split(rest, "/")
	switch {
	case len(parts) == 1:
		s.app.DatabaseHandler.ContentHandler(w, r, parts[0])
	case len(parts) == 3 && parts[1] == "properties":
		s.app.DatabaseHandler.RemovePropertyHandler(w, r, parts[0], parts[2])
	default:
		http.Error(w, "Not found", http.StatusNotFound)
	}
}

// handleRunRoutes routes GET /api/runs/{id}.
func (s *Server) handleRunRoutes(w http.ResponseWriter, r *http.Request) {
	runID := strings.TrimPrefix(r.URL.Path, "/api/runs/")
	if runID == "" || strings.Contains(runID, "/") {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}
	s.app.RunHandler.RecordsHandler(w, r, runID)
}
