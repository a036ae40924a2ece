// Package manifest summarizes a scrape run in a single JSON file so the
// output can be triaged without opening every article directory.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

const FileName = "manifest.json"

// RunManifest is the top-level summary of one scrape run.
type RunManifest struct {
	GeneratedAt   string           `json:"generated_at"`
	Fetcher       string           `json:"fetcher"`
	TotalArticles int              `json:"total_articles"`
	Successful    int              `json:"successful"`
	Failed        int              `json:"failed"`
	Skipped       int              `json:"skipped"`
	Articles      []ArticleSummary `json:"articles"`
}

// ArticleSummary is the per-article outcome: where its output landed and how
// many references were fetched or filtered.
type ArticleSummary struct {
	Title        string `json:"title"`
	URL          string `json:"url"`
	Dir          string `json:"dir,omitempty"`
	Status       string `json:"status"` // "success", "failed" or "skipped"
	ErrorMessage string `json:"error_message,omitempty"`
	RefsTotal    int    `json:"refs_total,omitempty"`
	RefsFetched  int    `json:"refs_fetched,omitempty"`
	RefsFiltered int    `json:"refs_filtered,omitempty"`
	SizeBytes    int64  `json:"size_bytes,omitempty"`
}

// New builds a manifest from per-article summaries, computing the aggregate
// counts.
func New(fetcher string, articles []ArticleSummary) *RunManifest {
	m := &RunManifest{
		GeneratedAt:   time.Now().UTC().Format(time.RFC3339),
		Fetcher:       fetcher,
		TotalArticles: len(articles),
		Articles:      articles,
	}
	for _, a := range articles {
		switch a.Status {
		case "success":
			m.Successful++
		case "failed":
			m.Failed++
		case "skipped":
			m.Skipped++
		}
	}
	return m
}

// Write saves the manifest as indented JSON.
func Write(path string, m *RunManifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

// Load reads a manifest back from disk.
func Load(path string) (*RunManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	var m RunManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	return &m, nil
}
