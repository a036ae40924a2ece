package refs

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/ultrawiki/refpipe/models"
)

func TestJSONLRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "references.jsonl")
	items := []models.Reference{
		{
			Title:      "The Big Story",
			URL:        "https://example.com/story",
			IsExternal: true,
			Author:     "Smith, John",
			Source:     "The Times",
		},
		{
			Title:       "Second Story",
			URL:         "https://example.org/second",
			IsExternal:  true,
			Scraped:     true,
			FetcherUsed: "jina",
		},
	}

	if err := SaveJSONL(path, items); err != nil {
		t.Fatalf("SaveJSONL() error = %v", err)
	}
	got, err := LoadJSONL(path)
	if err != nil {
		t.Fatalf("LoadJSONL() error = %v", err)
	}
	if !reflect.DeepEqual(got, items) {
		t.Errorf("round trip = %+v, want %+v", got, items)
	}
}

func TestSaveJSONLReplacesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "references.jsonl")
	if err := os.WriteFile(path, []byte("{\"title\":\"old\",\"url\":\"https://old\"}\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	items := []models.Reference{{Title: "new", URL: "https://new", IsExternal: true}}
	if err := SaveJSONL(path, items); err != nil {
		t.Fatalf("SaveJSONL() error = %v", err)
	}
	got, err := LoadJSONL(path)
	if err != nil {
		t.Fatalf("LoadJSONL() error = %v", err)
	}
	if len(got) != 1 || got[0].Title != "new" {
		t.Errorf("got %+v, want single record titled %q", got, "new")
	}
}

func TestLoadJSONLMalformedLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "references.jsonl")
	if err := os.WriteFile(path, []byte("{\"title\":\"ok\",\"url\":\"https://a\"}\nnot json\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadJSONL(path); err == nil {
		t.Error("LoadJSONL() error = nil, want parse error")
	}
}
