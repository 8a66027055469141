package interfaces

import "github.com/ternarybob/curator/internal/models"

// RunStore persists per-article pass/fail outcomes of curation runs.
type RunStore interface {
	Record(rec *models.RunRecord) error
	ListByRun(runID string) ([]models.RunRecord, error)
	Failures(runID string) ([]models.RunRecord, error)
	Close() error
}
