package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/ultrawiki/refpipe/models"
)

type fakeFetcher struct {
	name  string
	pages map[string]string // url -> content, missing urls fail
	calls []string
}

func (f *fakeFetcher) Name() string { return f.name }

func (f *fakeFetcher) Fetch(_ context.Context, url string) (*models.FetchedPage, error) {
	f.calls = append(f.calls, url)
	content, ok := f.pages[url]
	if !ok {
		return nil, fmt.Errorf("%s: no page for %s", f.name, url)
	}
	return &models.FetchedPage{URL: url, Content: content}, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestChainStepsWithArchive(t *testing.T) {
	primary := &fakeFetcher{name: "jina"}
	fallback := &fakeFetcher{name: "goliath"}
	c := NewChain(primary, fallback, testLogger())

	ref := &models.Reference{
		URL:        "https://example.com/story",
		ArchiveURL: "https://web.archive.org/web/2021/https://example.com/story",
	}
	steps := c.Steps(ref)
	if len(steps) != 3 {
		t.Fatalf("got %d steps, want 3", len(steps))
	}

	want := []struct {
		engine string
		url    string
	}{
		{"goliath", ref.ArchiveURL},
		{"jina", ref.URL},
		{"goliath", ref.URL},
	}
	for i, w := range want {
		if steps[i].engine.Name() != w.engine || steps[i].url != w.url {
			t.Errorf("steps[%d] = %s %s, want %s %s",
				i, steps[i].engine.Name(), steps[i].url, w.engine, w.url)
		}
	}
}

func TestChainStepsNoArchive(t *testing.T) {
	c := NewChain(&fakeFetcher{name: "jina"}, &fakeFetcher{name: "goliath"}, testLogger())

	steps := c.Steps(&models.Reference{URL: "https://example.com/story"})
	if len(steps) != 2 {
		t.Fatalf("got %d steps, want 2", len(steps))
	}
	if steps[0].engine.Name() != "jina" || steps[1].engine.Name() != "goliath" {
		t.Errorf("step order = %s, %s", steps[0].engine.Name(), steps[1].engine.Name())
	}
}

func TestChainStepsDeduped(t *testing.T) {
	// primary and fallback are the same backend: the live URL is tried once
	goliath := &fakeFetcher{name: "goliath"}
	c := NewChain(goliath, goliath, testLogger())

	ref := &models.Reference{
		URL:        "https://example.com/story",
		ArchiveURL: "https://web.archive.org/x",
	}
	steps := c.Steps(ref)
	if len(steps) != 2 {
		t.Fatalf("got %d steps, want 2: archive then live", len(steps))
	}
	if steps[0].url != ref.ArchiveURL || steps[1].url != ref.URL {
		t.Errorf("urls = %s, %s", steps[0].url, steps[1].url)
	}
}

func TestFetchReferenceFallsThrough(t *testing.T) {
	ref := &models.Reference{
		URL:        "https://example.com/story",
		ArchiveURL: "https://web.archive.org/x",
	}
	primary := &fakeFetcher{name: "jina"}
	fallback := &fakeFetcher{name: "goliath", pages: map[string]string{
		ref.URL: "# rescued content",
	}}
	c := NewChain(primary, fallback, testLogger())

	page, engine, attempts, err := c.FetchReference(context.Background(), ref, 1)
	if err != nil {
		t.Fatalf("FetchReference() error = %v", err)
	}
	if engine != "goliath" {
		t.Errorf("engine = %q, want %q", engine, "goliath")
	}
	if page.Content != "# rescued content" {
		t.Errorf("content = %q", page.Content)
	}
	if len(attempts) != 3 {
		t.Fatalf("got %d attempts, want 3", len(attempts))
	}
	if attempts[0].Success || attempts[1].Success || !attempts[2].Success {
		t.Errorf("attempt successes = %v %v %v",
			attempts[0].Success, attempts[1].Success, attempts[2].Success)
	}
	if attempts[0].Step != "archive" || attempts[1].Step != "primary" || attempts[2].Step != "fallback" {
		t.Errorf("attempt steps = %s %s %s",
			attempts[0].Step, attempts[1].Step, attempts[2].Step)
	}
}

func TestFetchReferenceAllFail(t *testing.T) {
	ref := &models.Reference{URL: "https://example.com/story"}
	c := NewChain(&fakeFetcher{name: "jina"}, &fakeFetcher{name: "goliath"}, testLogger())

	_, _, attempts, err := c.FetchReference(context.Background(), ref, 1)
	if err == nil {
		t.Fatal("FetchReference() error = nil, want failure")
	}
	if len(attempts) != 2 {
		t.Errorf("got %d attempts, want 2", len(attempts))
	}
	for _, a := range attempts {
		if a.Success || a.Error == "" {
			t.Errorf("attempt %+v should record a failure", a)
		}
	}
}

func TestFetchReferenceCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ref := &models.Reference{URL: "https://example.com/story"}
	c := NewChain(&fakeFetcher{name: "jina"}, &fakeFetcher{name: "goliath"}, testLogger())

	_, _, _, err := c.FetchReference(ctx, ref, 1)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}
