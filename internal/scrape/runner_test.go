package scrape

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/ultrawiki/refpipe/models"
	"github.com/ultrawiki/refpipe/pkg/fetcher"
	"github.com/ultrawiki/refpipe/pkg/refs"
	"github.com/ultrawiki/refpipe/pkg/storage"
)

const articleMarkdown = `# Agriculture

Agriculture is the practice of cultivating plants and livestock.[1]

## References

1. Smith, John (January 5, 2021). ["The Big Story"](https://example.com/story). _The Times_. Retrieved March 2, 2021.
`

type fakeFetcher struct {
	name  string
	pages map[string]*models.FetchedPage
	calls []string
}

func (f *fakeFetcher) Name() string { return f.name }

func (f *fakeFetcher) Fetch(_ context.Context, url string) (*models.FetchedPage, error) {
	f.calls = append(f.calls, url)
	page, ok := f.pages[url]
	if !ok {
		return nil, fmt.Errorf("no page for %s", url)
	}
	return page, nil
}

func goodContent() string {
	return strings.Repeat("A full line of real article text.\n", 12)
}

func newTestRunner(t *testing.T, primary, fallback *fakeFetcher, cfg *models.ScrapeConfig) *Runner {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if cfg == nil {
		cfg = &models.ScrapeConfig{}
	}
	return &Runner{
		Store:  storage.NewStore(t.TempDir()),
		Chain:  fetcher.NewChain(primary, fallback, logger),
		Logger: logger,
		Config: cfg,
	}
}

func TestProcessArticleExtractsAndFetches(t *testing.T) {
	target := models.ScrapeTarget{Title: "Agriculture", URL: "https://en.wikipedia.org/wiki/Agriculture"}
	primary := &fakeFetcher{name: "jina", pages: map[string]*models.FetchedPage{
		target.URL:                  {URL: target.URL, Content: articleMarkdown},
		"https://example.com/story": {URL: "https://example.com/story", Content: goodContent()},
	}}
	fallback := &fakeFetcher{name: "goliath", pages: map[string]*models.FetchedPage{}}

	r := newTestRunner(t, primary, fallback, nil)
	outcome := r.ProcessArticle(context.Background(), target)

	if outcome.Status != "success" {
		t.Fatalf("status = %q, err = %v", outcome.Status, outcome.Err)
	}
	if outcome.RefsTotal != 1 || outcome.RefsFetched != 1 {
		t.Errorf("refs total/fetched = %d/%d, want 1/1", outcome.RefsTotal, outcome.RefsFetched)
	}

	records, err := refs.LoadJSONL(r.Store.ReferencesPath(outcome.Dir))
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	rec := records[0]
	if !rec.Scraped {
		t.Error("reference should be marked scraped")
	}
	if rec.FetcherUsed != "jina" {
		t.Errorf("fetcher_used = %q, want jina", rec.FetcherUsed)
	}
	pagePath := r.Store.RefPagePath(outcome.Dir, rec.Title, 0)
	pageData, err := r.Store.ReadFile(pagePath)
	if err != nil {
		t.Fatalf("reference page not written: %v", err)
	}
	if !strings.HasPrefix(string(pageData), "# The Big Story\n\n") {
		t.Errorf("reference page missing title heading: %.60q", pageData)
	}
	articleData, err := r.Store.ReadFile(r.Store.ArticlePagePath(outcome.Dir, target.Title))
	if err != nil {
		t.Fatalf("article page not written: %v", err)
	}
	if !strings.HasPrefix(string(articleData), "---\ntitle: Agriculture\n") {
		t.Errorf("article page missing front matter: %.60q", articleData)
	}
}

func TestProcessArticleLowQualityAfterThreeRounds(t *testing.T) {
	target := models.ScrapeTarget{Title: "Agriculture", URL: "https://en.wikipedia.org/wiki/Agriculture"}
	short := &models.FetchedPage{URL: "https://example.com/story", Content: "Page Not Found"}
	primary := &fakeFetcher{name: "jina", pages: map[string]*models.FetchedPage{
		target.URL:                  {URL: target.URL, Content: articleMarkdown},
		"https://example.com/story": short,
	}}
	fallback := &fakeFetcher{name: "goliath", pages: map[string]*models.FetchedPage{
		"https://example.com/story": short,
	}}

	r := newTestRunner(t, primary, fallback, &models.ScrapeConfig{RecordAttempts: true})
	outcome := r.ProcessArticle(context.Background(), target)

	if outcome.RefsFiltered != 1 {
		t.Fatalf("filtered = %d, want 1", outcome.RefsFiltered)
	}
	records, err := refs.LoadJSONL(r.Store.ReferencesPath(outcome.Dir))
	if err != nil {
		t.Fatal(err)
	}
	rec := records[0]
	if rec.FetcherUsed != "jina(low_quality)" {
		t.Errorf("fetcher_used = %q, want jina(low_quality)", rec.FetcherUsed)
	}
	if rec.FilterReason == "" {
		t.Error("filter_reason should be set")
	}
	if !rec.Scraped {
		t.Error("low quality page is still marked scraped")
	}
	// one article-page call plus three rounds against the reference URL
	refCalls := 0
	for _, u := range primary.calls {
		if u == "https://example.com/story" {
			refCalls++
		}
	}
	if refCalls != maxFetchRounds {
		t.Errorf("primary hit the reference %d times, want %d", refCalls, maxFetchRounds)
	}
	if len(rec.AttemptLog) == 0 {
		t.Error("attempt log should be recorded")
	}
	if r.Store.HasFile(r.Store.RefPagePath(outcome.Dir, rec.Title, 0)) {
		t.Error("filtered content should not be written to disk")
	}
}

func TestProcessArticleRefLineRange(t *testing.T) {
	md := `# Agriculture

Body.[1][2]

## References

1. ["First Story"](https://example.com/first).
2. ["Second Story"](https://example.com/second).
`
	target := models.ScrapeTarget{Title: "Agriculture", URL: "https://en.wikipedia.org/wiki/Agriculture"}
	primary := &fakeFetcher{name: "jina", pages: map[string]*models.FetchedPage{
		target.URL:                   {URL: target.URL, Content: md},
		"https://example.com/second": {URL: "https://example.com/second", Content: goodContent()},
	}}
	fallback := &fakeFetcher{name: "goliath", pages: map[string]*models.FetchedPage{}}

	r := newTestRunner(t, primary, fallback, &models.ScrapeConfig{RefStart: 2, RefEnd: 2})
	outcome := r.ProcessArticle(context.Background(), target)

	if outcome.Status != "success" {
		t.Fatalf("status = %q, err = %v", outcome.Status, outcome.Err)
	}
	if outcome.RefsFetched != 1 {
		t.Errorf("fetched = %d, want 1", outcome.RefsFetched)
	}
	for _, u := range primary.calls {
		if u == "https://example.com/first" {
			t.Error("reference outside the line range was fetched")
		}
	}
}

func TestProcessArticleReusesExistingReferences(t *testing.T) {
	target := models.ScrapeTarget{Title: "Agriculture", URL: "https://en.wikipedia.org/wiki/Agriculture"}
	primary := &fakeFetcher{name: "jina", pages: map[string]*models.FetchedPage{}}
	fallback := &fakeFetcher{name: "goliath", pages: map[string]*models.FetchedPage{}}

	r := newTestRunner(t, primary, fallback, nil)
	dir, err := r.Store.EnsureArticleDir(target.Title)
	if err != nil {
		t.Fatal(err)
	}
	seed := []models.Reference{{
		Title:       "The Big Story",
		URL:         "https://example.com/story",
		IsExternal:  true,
		Scraped:     true,
		FetcherUsed: "jina",
	}}
	if err := refs.SaveJSONL(r.Store.ReferencesPath(dir), seed); err != nil {
		t.Fatal(err)
	}

	outcome := r.ProcessArticle(context.Background(), target)
	if outcome.Status != "success" {
		t.Fatalf("status = %q, err = %v", outcome.Status, outcome.Err)
	}
	if outcome.RefsSkipped != 1 {
		t.Errorf("skipped = %d, want 1", outcome.RefsSkipped)
	}
	if len(primary.calls) != 0 {
		t.Errorf("no fetches expected, got %v", primary.calls)
	}
}

func TestProcessArticleFetchFailure(t *testing.T) {
	target := models.ScrapeTarget{Title: "Agriculture", URL: "https://en.wikipedia.org/wiki/Agriculture"}
	primary := &fakeFetcher{name: "jina", pages: map[string]*models.FetchedPage{}}
	fallback := &fakeFetcher{name: "goliath", pages: map[string]*models.FetchedPage{}}

	r := newTestRunner(t, primary, fallback, nil)
	outcome := r.ProcessArticle(context.Background(), target)
	if outcome.Status != "failed" {
		t.Fatalf("status = %q, want failed", outcome.Status)
	}
	if outcome.Err == nil {
		t.Error("expected an error for an unfetchable article page")
	}
}
