// Package catalog holds the loaded channel list together with the user's
// search text and filter, and derives the visible channels from them.
package catalog

import (
	"sort"
	"strings"
	"sync"

	"github.com/voyagen/iptvbrowser/internal/models"
)

// Catalog is safe for concurrent use.
type Catalog struct {
	mu       sync.RWMutex
	channels []models.Channel
	search   string
	filter   models.Filter
}

// New returns an empty catalog.
func New() *Catalog {
	return &Catalog{}
}

// Replace swaps the channel list wholesale. Search text and filter are kept.
func (c *Catalog) Replace(channels []models.Channel) {
	cp := make([]models.Channel, len(channels))
	copy(cp, channels)

	c.mu.Lock()
	c.channels = cp
	c.mu.Unlock()
}

// Len returns the number of loaded channels.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.channels)
}

// Lookup finds a loaded channel by URL.
func (c *Catalog) Lookup(url string) (models.Channel, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, ch := range c.channels {
		if ch.URL == url {
			return ch, true
		}
	}
	return models.Channel{}, false
}

// SetSearch sets the applied search text.
func (c *Catalog) SetSearch(text string) {
	c.mu.Lock()
	c.search = text
	c.mu.Unlock()
}

// Search returns the applied search text.
func (c *Catalog) Search() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.search
}

// SetFilter replaces the current filter.
func (c *Catalog) SetFilter(f models.Filter) {
	c.mu.Lock()
	c.filter = f
	c.mu.Unlock()
}

// Filter returns the current filter.
func (c *Catalog) Filter() models.Filter {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.filter
}

// Visible returns, in load order, the channels whose name contains the search
// text (case-insensitive) and that match every set filter field.
func (c *Catalog) Visible() []models.Channel {
	c.mu.RLock()
	defer c.mu.RUnlock()

	term := strings.ToLower(c.search)
	visible := make([]models.Channel, 0, len(c.channels))
	for _, ch := range c.channels {
		if !strings.Contains(strings.ToLower(ch.Name), term) {
			continue
		}
		if !c.filter.Matches(ch) {
			continue
		}
		visible = append(visible, ch)
	}
	return visible
}

// DistinctValues returns the sorted set of non-empty values of field across
// the full channel list. Search text and filter are ignored so a narrowed
// filter can always be broadened again.
func (c *Catalog) DistinctValues(field models.Field) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	seen := make(map[string]struct{})
	values := make([]string, 0)
	for _, ch := range c.channels {
		v := field.Value(ch)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		values = append(values, v)
	}
	sort.Strings(values)
	return values
}

// HasValue reports whether v is one of the distinct values of field.
func (c *Catalog) HasValue(field models.Field, v string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, ch := range c.channels {
		if field.Value(ch) == v {
			return true
		}
	}
	return false
}
