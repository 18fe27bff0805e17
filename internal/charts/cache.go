package charts

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/lox/evdemand/internal/models"
)

// DefaultMaxAge is how long a rendered chart is served from disk.
const DefaultMaxAge = 24 * time.Hour

// Cache provides file-based caching for rendered charts. A nil *Cache is a
// valid cache that never hits.
type Cache struct {
	dir    string
	maxAge time.Duration
	clock  clockwork.Clock
	mu     sync.Mutex
}

// NewCache creates a chart cache in dir. Charts are re-rendered after
// maxAge, or sooner when the source artifact changes.
func NewCache(dir string, maxAge time.Duration, clock clockwork.Clock) *Cache {
	if err := os.MkdirAll(dir, 0755); err != nil {
		log.Printf("chart cache: could not create %s: %v", dir, err)
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Cache{dir: dir, maxAge: maxAge, clock: clock}
}

// Key names a chart for one selection and source artifact version.
func Key(chart string, sel models.Selection, sourceModTime time.Time) string {
	city := strings.ReplaceAll(strings.ToLower(string(sel.City)), " ", "-")
	model := strings.ToLower(string(sel.Model))
	return fmt.Sprintf("%s_%s_%s_%d", chart, city, model, sourceModTime.Unix())
}

func (c *Cache) path(key string) string {
	return filepath.Join(c.dir, key+".png")
}

// Get retrieves a cached chart if it exists and is not stale.
func (c *Cache) Get(key string) ([]byte, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	path := c.path(key)
	info, err := os.Stat(path)
	if err != nil {
		return nil, false
	}
	if c.clock.Since(info.ModTime()) > c.maxAge {
		return nil, false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	return data, true
}

// Set stores a chart. The file's modification time is taken from the
// cache clock so staleness is measured on one timeline.
func (c *Cache) Set(key string, data []byte) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	path := c.path(key)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return err
	}
	now := c.clock.Now()
	return os.Chtimes(path, now, now)
}

// Prune removes stale chart files and returns how many were deleted.
func (c *Cache) Prune() (int, error) {
	if c == nil {
		return 0, nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".png" {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if c.clock.Since(info.ModTime()) <= c.maxAge {
			continue
		}
		if err := os.Remove(filepath.Join(c.dir, entry.Name())); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}
