package llm

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileSink appends raw model output to <dir>/<tag>.txt for offline
// triage. The directory is created on first write.
type FileSink struct {
	dir string
}

// NewFileSink creates a sink writing under dir.
func NewFileSink(dir string) *FileSink {
	return &FileSink{dir: dir}
}

// Write appends text to the file keyed by tag.
func (s *FileSink) Write(tag, text string) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create dump directory: %w", err)
	}
	path := filepath.Join(s.dir, tag+".txt")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open dump file: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(text + "\n\n"); err != nil {
		return fmt.Errorf("failed to write dump: %w", err)
	}
	return nil
}

// MemorySink collects writes in memory for tests.
type MemorySink struct {
	mu      sync.Mutex
	Entries map[string][]string
}

// NewMemorySink creates an empty in-memory sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{Entries: make(map[string][]string)}
}

// Write records text under tag.
func (s *MemorySink) Write(tag, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Entries[tag] = append(s.Entries[tag], text)
	return nil
}
