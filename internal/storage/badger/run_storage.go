package badger

import (
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/curator/internal/interfaces"
	"github.com/ternarybob/curator/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// RunStorage implements the RunStore interface for Badger. Records are
// keyed "<runID>:<articleID>" so re-processing an article within the
// same run overwrites its earlier outcome.
type RunStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewRunStorage creates a new RunStorage instance
func NewRunStorage(db *BadgerDB, logger arbor.ILogger) interfaces.RunStore {
	return &RunStorage{
		db:     db,
		logger: logger,
	}
}

func (s *RunStorage) Record(rec *models.RunRecord) error {
	if err := s.db.Store().Upsert(rec.Key, rec); err != nil {
		return fmt.Errorf("failed to record run outcome: %w", err)
	}
	return nil
}

func (s *RunStorage) ListByRun(runID string) ([]models.RunRecord, error) {
	var records []models.RunRecord
	query := badgerhold.Where("RunID").Eq(runID).SortBy("Timestamp")
	if err := s.db.Store().Find(&records, query); err != nil {
		return nil, fmt.Errorf("failed to list run records: %w", err)
	}
	return records, nil
}

func (s *RunStorage) Failures(runID string) ([]models.RunRecord, error) {
	var records []models.RunRecord
	query := badgerhold.Where("RunID").Eq(runID).And("Passed").Eq(false).SortBy("Timestamp")
	if err := s.db.Store().Find(&records, query); err != nil {
		return nil, fmt.Errorf("failed to list run failures: %w", err)
	}
	return records, nil
}

func (s *RunStorage) Close() error {
	return s.db.Close()
}
