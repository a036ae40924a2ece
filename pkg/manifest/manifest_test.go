package manifest

import (
	"path/filepath"
	"testing"
)

func TestNewAggregates(t *testing.T) {
	m := New("jina", []ArticleSummary{
		{Title: "A", Status: "success", RefsFetched: 10},
		{Title: "B", Status: "failed", ErrorMessage: "fetch failed"},
		{Title: "C", Status: "skipped"},
		{Title: "D", Status: "success", RefsFetched: 4, RefsFiltered: 1},
	})

	if m.TotalArticles != 4 {
		t.Errorf("TotalArticles = %d, want 4", m.TotalArticles)
	}
	if m.Successful != 2 || m.Failed != 1 || m.Skipped != 1 {
		t.Errorf("aggregates = %d/%d/%d, want 2/1/1", m.Successful, m.Failed, m.Skipped)
	}
	if m.Fetcher != "jina" {
		t.Errorf("Fetcher = %q", m.Fetcher)
	}
	if m.GeneratedAt == "" {
		t.Error("GeneratedAt should be set")
	}
}

func TestWriteAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	m := New("direct", []ArticleSummary{
		{Title: "Agriculture", URL: "https://en.wikipedia.org/wiki/Agriculture", Status: "success"},
	})

	if err := Write(path, m); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.TotalArticles != 1 || loaded.Articles[0].Title != "Agriculture" {
		t.Errorf("Load() = %+v", loaded)
	}
}

func TestLoadMissing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("expected error for missing manifest")
	}
}
