package common

import (
	"strings"

	"github.com/google/uuid"
)

// NewDumpID generates a unique key for a side-channel dump file when no
// source record id is available.
func NewDumpID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}

// NewRunID generates a unique id for one reconciliation batch run.
// Format: run_<uuid>
func NewRunID() string {
	return "run_" + uuid.New().String()
}
