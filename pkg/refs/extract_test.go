package refs

import (
	"reflect"
	"testing"

	"github.com/ultrawiki/refpipe/models"
)

const sampleMarkdown = `Joe Biden is an American politician.

Some body text with an inline citation.[1]

References
----------

1. [Jump up to](https://en.wikipedia.org/wiki/X#cite_ref-1) Smith, John (January 5, 2021). ["The Big Story"](https://example.com/story). _The Times_. [Archived](https://web.archive.org/web/2021/https://example.com/story) from the original. Retrieved March 2, 2021.

2. Doe, Jane. ["Internal Page"](https://en.wikipedia.org/wiki/Y).
`

func TestExtractFromMarkdown(t *testing.T) {
	items := ExtractFromMarkdown(sampleMarkdown)
	if len(items) != 1 {
		t.Fatalf("got %d references, want 1: %+v", len(items), items)
	}

	ref := items[0]
	if ref.Title != "The Big Story" {
		t.Errorf("Title = %q, want %q", ref.Title, "The Big Story")
	}
	if ref.URL != "https://example.com/story" {
		t.Errorf("URL = %q, want %q", ref.URL, "https://example.com/story")
	}
	if !ref.IsExternal {
		t.Error("IsExternal = false, want true")
	}
	if ref.Author != "Smith, John" {
		t.Errorf("Author = %q, want %q", ref.Author, "Smith, John")
	}
	if ref.Source != "The Times" {
		t.Errorf("Source = %q, want %q", ref.Source, "The Times")
	}
	if ref.ArchiveURL != "https://web.archive.org/web/2021/https://example.com/story" {
		t.Errorf("ArchiveURL = %q", ref.ArchiveURL)
	}
	if ref.PublishDate != "January 5, 2021" {
		t.Errorf("PublishDate = %q, want %q", ref.PublishDate, "January 5, 2021")
	}
	if ref.RetrievedDate != "Retrieved March 2, 2021." {
		t.Errorf("RetrievedDate = %q", ref.RetrievedDate)
	}
	if ref.Scraped {
		t.Error("Scraped = true, want false for fresh records")
	}
}

func TestParseReferencesBlockMissing(t *testing.T) {
	md := "Just an article body.\n\nNo citation section at all, only prose that keeps going for a while."
	if lines := ParseReferencesBlock(md); len(lines) != 0 {
		t.Errorf("got %d lines, want 0", len(lines))
	}
}

func TestParseReferencesBlockTrailingList(t *testing.T) {
	md := `Intro paragraph.

* ["First source"](https://example.com/a). Retrieved January 1, 2020.
* ["Second source"](https://example.org/b).
`
	lines := ParseReferencesBlock(md)
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2: %q", len(lines), lines)
	}
}

func TestGroupEntriesMergesContinuations(t *testing.T) {
	lines := []string{
		`1. Author One. ["Title A"](https://example.com/a).`,
		`   continues on the next line.`,
		``,
		`2. Author Two. ["Title B"](https://example.com/b).`,
	}
	entries := GroupEntries(lines)
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2: %q", len(entries), entries)
	}
	want := `1. Author One. ["Title A"](https://example.com/a). continues on the next line.`
	if entries[0] != want {
		t.Errorf("entries[0] = %q, want %q", entries[0], want)
	}
}

func TestBuildReferencesDropsLinkless(t *testing.T) {
	entries := []string{
		"1. Plain book citation with no link at all. New York: Publisher, 1999.",
	}
	if items := BuildReferences(entries); len(items) != 0 {
		t.Errorf("got %d references, want 0", len(items))
	}
}

func TestDedupe(t *testing.T) {
	items := ExtractFromMarkdown(sampleMarkdown)
	doubled := append(append([]models.Reference{}, items...), items...)
	if got := Dedupe(doubled); !reflect.DeepEqual(got, items) {
		t.Errorf("Dedupe() = %+v, want %+v", got, items)
	}
}
