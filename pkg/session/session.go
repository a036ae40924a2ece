// Package session tracks scrape sessions on disk. Each run over a set of
// articles gets a session directory and an entry in the output index.yaml.
package session

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

// SessionInfo represents metadata about one scrape session.
type SessionInfo struct {
	SessionID     string    `yaml:"session_id"`
	Created       time.Time `yaml:"created"`
	ArticleCount  int       `yaml:"article_count"`
	Success       int       `yaml:"success"`
	Failed        int       `yaml:"failed"`
	Skipped       int       `yaml:"skipped"`
	Fetcher       string    `yaml:"fetcher,omitempty"`
	TitlesPreview []string  `yaml:"titles_preview,omitempty"` // First 3 titles
}

// SessionIndex represents the index.yaml file at the output root.
type SessionIndex struct {
	Sessions []SessionInfo `yaml:"sessions"`
}

// GenerateSessionID creates a timestamp-first session ID from the article
// URLs being scraped. Format: YYYY-MM-DDTHH-MM-{hash}, where the hash is
// derived from the sorted URL list.
func GenerateSessionID(urls []string) string {
	normalized := make([]string, len(urls))
	copy(normalized, urls)
	sort.Strings(normalized)

	h := sha256.New()
	for _, url := range normalized {
		h.Write([]byte(url))
		h.Write([]byte("\n"))
	}
	shortHash := hex.EncodeToString(h.Sum(nil)[:6])

	timestamp := time.Now().Format("2006-01-02T15-04")
	return fmt.Sprintf("%s-%s", timestamp, shortHash)
}

// GetSessionDir returns the full path to a session directory.
func GetSessionDir(baseDir, sessionID string) string {
	return filepath.Join(baseDir, "sessions", sessionID)
}

// GetSessionsIndexPath returns the path to the index file at the output root.
func GetSessionsIndexPath(baseDir string) string {
	return filepath.Join(baseDir, "index.yaml")
}

// EnsureSessionDir creates the session directory structure if needed.
func EnsureSessionDir(baseDir, sessionID string) error {
	if err := os.MkdirAll(GetSessionDir(baseDir, sessionID), 0755); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}
	return nil
}

// UpdateSessionIndex adds or updates a session entry in index.yaml.
func UpdateSessionIndex(baseDir string, info SessionInfo) error {
	indexPath := GetSessionsIndexPath(baseDir)

	var index SessionIndex
	data, err := os.ReadFile(indexPath)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to read session index: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, &index); err != nil {
			return fmt.Errorf("failed to parse session index: %w", err)
		}
	}

	found := false
	for i, s := range index.Sessions {
		if s.SessionID == info.SessionID {
			index.Sessions[i] = info
			found = true
			break
		}
	}
	if !found {
		index.Sessions = append(index.Sessions, info)
	}

	// newest first
	sort.Slice(index.Sessions, func(i, j int) bool {
		return index.Sessions[i].Created.After(index.Sessions[j].Created)
	})

	out, err := yaml.Marshal(&index)
	if err != nil {
		return fmt.Errorf("failed to marshal session index: %w", err)
	}
	if err := os.WriteFile(indexPath, out, 0644); err != nil {
		return fmt.Errorf("failed to write session index: %w", err)
	}
	return nil
}

// LoadSessionIndex reads index.yaml. A missing file yields an empty index.
func LoadSessionIndex(baseDir string) (*SessionIndex, error) {
	data, err := os.ReadFile(GetSessionsIndexPath(baseDir))
	if os.IsNotExist(err) {
		return &SessionIndex{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session index: %w", err)
	}
	var index SessionIndex
	if err := yaml.Unmarshal(data, &index); err != nil {
		return nil, fmt.Errorf("failed to parse session index: %w", err)
	}
	return &index, nil
}

// PreviewTitles returns up to three titles for the index entry.
func PreviewTitles(titles []string) []string {
	if len(titles) > 3 {
		return titles[:3]
	}
	return titles
}
