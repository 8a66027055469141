package notion

import (
	"sync"

	"github.com/ternarybob/curator/internal/models"
)

// queryCache holds database query results keyed by database id.
// Entries never expire; invalidation is explicit.
type queryCache struct {
	mu      sync.RWMutex
	entries map[string][]models.Page
}

func newQueryCache() *queryCache {
	return &queryCache{
		entries: make(map[string][]models.Page),
	}
}

func (c *queryCache) get(databaseID string) ([]models.Page, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	pages, ok := c.entries[databaseID]
	return pages, ok
}

func (c *queryCache) put(databaseID string, pages []models.Page) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[databaseID] = pages
}

// invalidate drops one database's entry, or every entry when
// databaseID is "".
func (c *queryCache) invalidate(databaseID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if databaseID == "" {
		c.entries = make(map[string][]models.Page)
		return
	}
	delete(c.entries, databaseID)
}
