// Package oui resolves a MAC address prefix to its IEEE
// organizationally-unique-identifier registrant, backed by a
// periodically refreshed copy of the public OUI CSV registry.
package oui

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

// CSVURL is the public IEEE OUI registry this cache refreshes from.
const CSVURL = "https://standards-oui.ieee.org/oui/oui.csv"

// MaxAge is how long a cached registry is trusted before the next
// lookup triggers a refresh.
const MaxAge = 10 * 24 * time.Hour

// Entry is one OUI registry row.
type Entry struct {
	Registry     string
	Assignment   string
	Organization string
	Address      string
}

// Cache is a write-once/read-mostly MAC-prefix lookup, refreshed from
// CSVURL on expiry. The zero value is not usable; use NewCache.
type Cache struct {
	client *http.Client

	mu       sync.RWMutex
	byPrefix map[string]Entry
	loadedAt time.Time
}

// NewCache returns an empty cache that lazily fetches on first lookup.
func NewCache(client *http.Client) *Cache {
	if client == nil {
		client = http.DefaultClient
	}
	return &Cache{client: client}
}

// Lookup resolves the registrant for mac's first six hex characters
// (the 24-bit OUI block), refreshing the cache first if it's empty or
// older than MaxAge. Returns false if the prefix is unknown; a failed
// refresh returns its error with false, even when an older copy is
// cached.
func (c *Cache) Lookup(ctx context.Context, mac string) (Entry, bool, error) {
	if err := c.refreshIfStale(ctx); err != nil {
		return Entry{}, false, err
	}

	prefix := strings.ToUpper(strings.ReplaceAll(mac, ":", ""))
	if len(prefix) > 6 {
		prefix = prefix[:6]
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.byPrefix[prefix]
	return entry, ok, nil
}

func (c *Cache) refreshIfStale(ctx context.Context) error {
	c.mu.RLock()
	stale := c.byPrefix == nil || time.Since(c.loadedAt) > MaxAge
	c.mu.RUnlock()
	if !stale {
		return nil
	}
	return c.refresh(ctx)
}

func (c *Cache) refresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, CSVURL, nil)
	if err != nil {
		return fmt.Errorf("oui: build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("oui: fetch registry: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("oui: fetch registry: unexpected status %d", resp.StatusCode)
	}

	entries, err := parseCSV(resp.Body)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.byPrefix = entries
	c.loadedAt = time.Now()
	c.mu.Unlock()

	return nil
}

func parseCSV(r io.Reader) (map[string]Entry, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("oui: parse registry csv: %w", err)
	}
	if len(rows) > 0 {
		rows = rows[1:] // header
	}

	out := make(map[string]Entry, len(rows))
	for _, row := range rows {
		if len(row) < 4 {
			continue
		}
		assignment := strings.ToUpper(row[1])
		out[assignment] = Entry{
			Registry:     row[0],
			Assignment:   assignment,
			Organization: row[2],
			Address:      row[3],
		}
	}
	return out, nil
}
