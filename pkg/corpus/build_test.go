package corpus

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ultrawiki/refpipe/models"
	"github.com/ultrawiki/refpipe/pkg/refs"
)

const testArticlePage = `Agriculture is the practice of cultivating plants and livestock.[1] It was a key development in the rise of sedentary human civilization. Farming produced food surpluses that enabled people to live in cities.

References
----------

1. ["The Big Story"](https://example.com/story).
`

func setupScrapeDir(t *testing.T) string {
	t.Helper()
	inputDir := t.TempDir()
	articleDir := filepath.Join(inputDir, "Agriculture")
	refPagesDir := filepath.Join(articleDir, "reference", "reference_pages")
	if err := os.MkdirAll(refPagesDir, 0o755); err != nil {
		t.Fatal(err)
	}

	records := []models.Reference{
		{
			Title:      "The Big Story",
			URL:        "https://example.com/story",
			IsExternal: true,
			Scraped:    true,
		},
		{
			Title:      "Internal Note",
			URL:        "https://en.wikipedia.org/wiki/Note",
			IsExternal: false,
		},
	}
	if err := refs.SaveJSONL(filepath.Join(articleDir, "reference", "references.jsonl"), records); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(filepath.Join(articleDir, "Agriculture.md"), []byte(testArticlePage), 0o644); err != nil {
		t.Fatal(err)
	}

	refPage := "# The Big Story\n\n" + strings.Repeat("This external reference page carries plenty of words for fulltext status. ", 10)
	if err := os.WriteFile(filepath.Join(refPagesDir, "The Big Story.md"), []byte(refPage), 0o644); err != nil {
		t.Fatal(err)
	}

	return inputDir
}

func TestBuild(t *testing.T) {
	inputDir := setupScrapeDir(t)
	outDir := t.TempDir()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	result, err := NewBuilder(inputDir, outDir, logger).Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if result.Docs != 1 {
		t.Errorf("Docs = %d, want 1", result.Docs)
	}
	if result.Refs != 2 {
		t.Errorf("Refs = %d, want 2", result.Refs)
	}
	if result.Mentions != 1 {
		t.Errorf("Mentions = %d, want 1", result.Mentions)
	}
	if result.ExtDocs != 1 {
		t.Errorf("ExtDocs = %d, want 1 (internal refs get no ext doc)", result.ExtDocs)
	}
	if result.Links != 1 {
		t.Errorf("Links = %d, want 1", result.Links)
	}
	if result.ExtPassages == 0 {
		t.Error("ExtPassages = 0, want chunks for the fulltext page")
	}

	docs, err := readTable[models.CorpusDoc](filepath.Join(outDir, "docs.jsonl"))
	if err != nil {
		t.Fatalf("readTable(docs) error = %v", err)
	}
	if len(docs) != 1 || docs[0].NRefs != 2 || docs[0].Title != "Agriculture" {
		t.Errorf("docs = %+v", docs)
	}
	if !strings.HasPrefix(docs[0].DocID, "wiki_en_0_") {
		t.Errorf("DocID = %q", docs[0].DocID)
	}

	extDocs, err := readTable[models.ExtDoc](filepath.Join(outDir, "ext_docs.jsonl"))
	if err != nil {
		t.Fatalf("readTable(ext_docs) error = %v", err)
	}
	if len(extDocs) != 1 {
		t.Fatalf("got %d ext docs, want 1", len(extDocs))
	}
	ext := extDocs[0]
	if !strings.HasPrefix(ext.ExtDocID, "ext_") {
		t.Errorf("ExtDocID = %q", ext.ExtDocID)
	}
	if ext.Status != "fetched_fulltext" || !ext.HasFulltext {
		t.Errorf("ext doc status = %q, has_fulltext = %v", ext.Status, ext.HasFulltext)
	}
	if ext.SourceType != "web" {
		t.Errorf("SourceType = %q", ext.SourceType)
	}
}

func TestBuildEmptyInput(t *testing.T) {
	inputDir := t.TempDir()
	outDir := t.TempDir()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	result, err := NewBuilder(inputDir, outDir, logger).Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if result.Docs != 0 {
		t.Errorf("Docs = %d, want 0", result.Docs)
	}

	// all seven tables exist even when empty
	for _, name := range []string{
		"docs.jsonl", "passages.jsonl", "references.jsonl", "ref_mentions.jsonl",
		"ext_docs.jsonl", "ext_passages.jsonl", "ref2ext.jsonl",
	} {
		if _, err := os.Stat(filepath.Join(outDir, name)); err != nil {
			t.Errorf("missing table %s: %v", name, err)
		}
	}
}

func TestComputeStats(t *testing.T) {
	inputDir := setupScrapeDir(t)
	outDir := t.TempDir()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if _, err := NewBuilder(inputDir, outDir, logger).Build(); err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	stats, err := ComputeStats(outDir, 5)
	if err != nil {
		t.Fatalf("ComputeStats() error = %v", err)
	}
	if stats.Docs != 1 || stats.Refs != 2 || stats.RefsScraped != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.SourceTypes["web"] != 1 {
		t.Errorf("SourceTypes = %v", stats.SourceTypes)
	}
	if stats.TotalTokens == 0 {
		t.Error("TotalTokens = 0")
	}
	if len(stats.TopKeywords) == 0 {
		t.Error("TopKeywords is empty")
	}
}
