package refs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ultrawiki/refpipe/models"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "articles.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadTargetsCSV(t *testing.T) {
	path := writeCSV(t, "title,url\nJoe Biden,https://en.wikipedia.org/wiki/Joe_Biden\nAgriculture,https://en.wikipedia.org/wiki/Agriculture\n")

	targets, err := LoadTargetsCSV(path)
	if err != nil {
		t.Fatalf("LoadTargetsCSV() error = %v", err)
	}
	if len(targets) != 2 {
		t.Fatalf("got %d targets, want 2 (header must be skipped): %+v", len(targets), targets)
	}
	if targets[0].Title != "Joe Biden" || targets[0].URL != "https://en.wikipedia.org/wiki/Joe_Biden" {
		t.Errorf("targets[0] = %+v", targets[0])
	}
}

func TestLoadTargetsCSVNoHeader(t *testing.T) {
	path := writeCSV(t, "Joe Biden,https://en.wikipedia.org/wiki/Joe_Biden\n")

	targets, err := LoadTargetsCSV(path)
	if err != nil {
		t.Fatalf("LoadTargetsCSV() error = %v", err)
	}
	if len(targets) != 1 {
		t.Fatalf("got %d targets, want 1: %+v", len(targets), targets)
	}
}

func TestLoadTargetsCSVDerivesMissingTitle(t *testing.T) {
	path := writeCSV(t, "title,url\n,https://en.wikipedia.org/wiki/Tell_es-Sakan\n")

	targets, err := LoadTargetsCSV(path)
	if err != nil {
		t.Fatalf("LoadTargetsCSV() error = %v", err)
	}
	if len(targets) != 1 || targets[0].Title != "Tell es-Sakan" {
		t.Errorf("got %+v, want derived title %q", targets, "Tell es-Sakan")
	}
}

func TestLoadTargetsCSVMissing(t *testing.T) {
	if _, err := LoadTargetsCSV(filepath.Join(t.TempDir(), "missing.csv")); err == nil {
		t.Error("LoadTargetsCSV() error = nil, want open error")
	}
}

func TestSelectRange(t *testing.T) {
	targets := []models.ScrapeTarget{
		{Title: "a"}, {Title: "b"}, {Title: "c"}, {Title: "d"},
	}

	tests := []struct {
		name       string
		start, end int
		want       []string
	}{
		{name: "window", start: 2, end: 3, want: []string{"b", "c"}},
		{name: "single row", start: 3, end: 3, want: []string{"c"}},
		{name: "open end", start: 3, end: 0, want: []string{"c", "d"}},
		{name: "clamped end", start: 1, end: 99, want: []string{"a", "b", "c", "d"}},
		{name: "zero start", start: 0, end: 1, want: []string{"a"}},
		{name: "inverted", start: 3, end: 2, want: nil},
		{name: "past the end", start: 10, end: 0, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SelectRange(targets, tt.start, tt.end)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d targets, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i].Title != tt.want[i] {
					t.Errorf("got[%d].Title = %q, want %q", i, got[i].Title, tt.want[i])
				}
			}
		})
	}
}
