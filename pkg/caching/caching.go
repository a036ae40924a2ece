// Package caching stores fetched pages on disk so repeated scrape rounds do
// not hit the reader backends again for the same URL.
package caching

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ultrawiki/refpipe/models"
)

// Cache is a file-based page cache with a TTL, keyed by backend and URL.
type Cache struct {
	path string
	ttl  time.Duration
}

// NewCache creates a cache rooted at path, creating the directory if needed.
func NewCache(path string, ttl time.Duration) (*Cache, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &Cache{path: path, ttl: ttl}, nil
}

// key hashes the backend name and URL into a filename.
func (c *Cache) key(engine, url string) string {
	hash := sha256.Sum256([]byte(engine + "\x00" + url))
	return fmt.Sprintf("%x", hash)
}

// GetPage retrieves a cached page. It returns the page and true on a fresh
// hit, nil and false on a miss or an expired entry.
func (c *Cache) GetPage(engine, url string) (*models.FetchedPage, bool) {
	filePath := filepath.Join(c.path, c.key(engine, url))

	info, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return nil, false
	}
	if err != nil {
		return nil, false
	}
	if c.ttl > 0 && time.Since(info.ModTime()) > c.ttl {
		return nil, false
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, false
	}
	var page models.FetchedPage
	if err := json.Unmarshal(data, &page); err != nil {
		return nil, false
	}
	return &page, true
}

// SetPage stores a fetched page in the cache.
func (c *Cache) SetPage(engine, url string, page *models.FetchedPage) error {
	data, err := json.Marshal(page)
	if err != nil {
		return fmt.Errorf("failed to marshal page for cache: %w", err)
	}
	filePath := filepath.Join(c.path, c.key(engine, url))
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write to cache: %w", err)
	}
	return nil
}

// Purge removes expired entries and returns how many were deleted.
func (c *Cache) Purge() (int, error) {
	if c.ttl <= 0 {
		return 0, nil
	}
	entries, err := os.ReadDir(c.path)
	if err != nil {
		return 0, fmt.Errorf("failed to read cache directory: %w", err)
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if time.Since(info.ModTime()) > c.ttl {
			if err := os.Remove(filepath.Join(c.path, entry.Name())); err == nil {
				removed++
			}
		}
	}
	return removed, nil
}
