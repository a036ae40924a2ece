package scrape

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ultrawiki/refpipe/models"
	"github.com/ultrawiki/refpipe/pkg/db"
	"github.com/ultrawiki/refpipe/pkg/fetcher"
	"github.com/ultrawiki/refpipe/pkg/refs"
	"github.com/ultrawiki/refpipe/pkg/storage"
)

const maxFetchRounds = 3

// Runner processes scrape targets: fetch the article page, extract its
// references, then fetch each reference page through the fallback chain.
type Runner struct {
	Store    *storage.Store
	Chain    *fetcher.Chain
	Database *db.DB
	Logger   *slog.Logger
	Config   *models.ScrapeConfig
}

// ArticleOutcome summarizes one processed target.
type ArticleOutcome struct {
	Title        string
	URL          string
	Dir          string
	Status       string // "success", "failed" or "skipped"
	Err          error
	RefsTotal    int
	RefsFetched  int
	RefsFiltered int
	RefsSkipped  int
	RefsFailed   int
}

// ProcessArticle runs the full extract-then-fetch flow for one target.
func (r *Runner) ProcessArticle(ctx context.Context, target models.ScrapeTarget) ArticleOutcome {
	outcome := ArticleOutcome{Title: target.Title, URL: target.URL}

	dir, err := r.Store.EnsureArticleDir(target.Title)
	if err != nil {
		outcome.Status = "failed"
		outcome.Err = err
		return outcome
	}
	outcome.Dir = dir

	records, err := r.loadOrExtract(ctx, dir, target)
	if err != nil {
		outcome.Status = "failed"
		outcome.Err = err
		return outcome
	}
	outcome.RefsTotal = len(records)

	if len(records) == 0 {
		// nothing to fetch; an article without references is a clean no-op
		r.Logger.Info("no references to fetch", "article", target.Title)
		outcome.Status = "success"
		return outcome
	}

	refsPath := r.Store.ReferencesPath(dir)
	fetched, filtered, skipped, failed := r.fetchReferences(ctx, dir, refsPath, records)
	outcome.RefsFetched = fetched
	outcome.RefsFiltered = filtered
	outcome.RefsSkipped = skipped
	outcome.RefsFailed = failed
	outcome.Status = "success"

	r.recordMetadata(target, records)
	return outcome
}

// loadOrExtract returns the reference records for a target, extracting them
// from a fresh page fetch unless references.jsonl already exists.
func (r *Runner) loadOrExtract(ctx context.Context, dir string, target models.ScrapeTarget) ([]models.Reference, error) {
	refsPath := r.Store.ReferencesPath(dir)
	if r.Store.HasFile(refsPath) && !r.Config.Force {
		records, err := refs.LoadJSONL(refsPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load existing references: %w", err)
		}
		r.Logger.Info("reusing extracted references",
			"article", target.Title, "count", len(records))
		return records, nil
	}

	page, engine, _, err := r.Chain.FetchReference(ctx, &models.Reference{URL: target.URL}, 1)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch article page: %w", err)
	}
	r.Logger.Info("fetched article page",
		"article", target.Title, "engine", engine, "bytes", len(page.Content))

	pagePath := r.Store.ArticlePagePath(dir, target.Title)
	front := fmt.Sprintf("---\ntitle: %s\nurl: %s\nretrieved: %s\n---\n\n",
		target.Title, target.URL, time.Now().UTC().Format(time.RFC3339))
	if err := r.Store.SaveFile(pagePath, []byte(front+page.Content)); err != nil {
		return nil, fmt.Errorf("failed to save article page: %w", err)
	}

	records := refs.ExtractFromMarkdown(page.Content)
	if len(records) == 0 && looksLikeHTML(page.Content) {
		records, err = refs.ExtractFromHTML(page.Content)
		if err != nil {
			return nil, fmt.Errorf("failed to extract references from HTML: %w", err)
		}
	}

	if err := refs.SaveJSONL(refsPath, records); err != nil {
		return nil, fmt.Errorf("failed to save references: %w", err)
	}
	r.Logger.Info("extracted references", "article", target.Title, "count", len(records))
	return records, nil
}

// fetchReferences walks the records in line order, fetching each unscraped
// reference and rewriting references.jsonl after every record so progress
// survives interruption.
func (r *Runner) fetchReferences(ctx context.Context, dir, refsPath string, records []models.Reference) (fetched, filtered, skipped, failed int) {
	for i := range records {
		rec := &records[i]
		line := i + 1
		if r.Config.RefStart > 0 && line < r.Config.RefStart {
			continue
		}
		if r.Config.RefEnd > 0 && line > r.Config.RefEnd {
			break
		}
		if rec.URL == "" {
			continue
		}
		if rec.Scraped && !r.Config.Force {
			skipped++
			continue
		}

		pagePath := r.Store.RefPagePath(dir, rec.Title, i)
		if r.Config.SkipExists && r.Store.HasFile(pagePath) {
			r.Logger.Info("page file already present", "ref", rec.URL)
			skipped++
			continue
		}

		page, engine, reason := r.fetchWithQualityRounds(ctx, rec)
		switch {
		case page != nil && reason == "":
			if err := r.Store.SaveFile(pagePath, []byte(refPageBody(rec, page))); err != nil {
				r.Logger.Error("failed to save reference page", "ref", rec.URL, "error", err.Error())
				failed++
				break
			}
			rec.Scraped = true
			rec.FetcherUsed = engine
			rec.FilterReason = ""
			fetched++
		case page != nil:
			// filtered content never reaches disk, only the jsonl record
			rec.Scraped = true
			rec.FetcherUsed = engine + "(low_quality)"
			rec.FilterReason = reason
			filtered++
		default:
			r.Logger.Warn("reference fetch failed on all backends", "ref", rec.URL)
			failed++
		}

		if err := refs.SaveJSONL(refsPath, records); err != nil {
			r.Logger.Error("failed to rewrite references file", "error", err.Error())
		}

		if ctx.Err() != nil {
			return
		}
	}
	return
}

// fetchWithQualityRounds retries the full fallback chain up to three rounds
// when the fetched content trips the low-quality filter. It returns the last
// page seen plus the filter reason, empty when the page passed.
func (r *Runner) fetchWithQualityRounds(ctx context.Context, rec *models.Reference) (*models.FetchedPage, string, string) {
	var lastPage *models.FetchedPage
	var lastEngine, lastReason string

	for round := 1; round <= maxFetchRounds; round++ {
		page, engine, attempts, err := r.Chain.FetchReference(ctx, rec, round)
		if r.Config.RecordAttempts {
			rec.AttemptLog = append(rec.AttemptLog, attempts...)
		}
		if err != nil {
			return lastPage, lastEngine, lastReason
		}

		ok, reason := refs.QualityCheck(page.Content)
		lastPage, lastEngine, lastReason = page, engine, reason
		if ok {
			return page, engine, ""
		}
		r.Logger.Warn("low quality content, refetching",
			"ref", rec.URL, "round", round, "reason", reason)
	}
	return lastPage, lastEngine, lastReason
}

// recordMetadata mirrors the article and its references into the metadata
// database. Failures here are logged, never fatal.
func (r *Runner) recordMetadata(target models.ScrapeTarget, records []models.Reference) {
	if r.Database == nil {
		return
	}
	articleID, err := r.Database.InsertArticle(target.Title, target.URL)
	if err != nil {
		r.Logger.Warn("failed to record article", "error", err.Error())
		return
	}
	for i := range records {
		refID, err := r.Database.UpsertRef(articleID, &records[i])
		if err != nil {
			r.Logger.Warn("failed to record ref", "error", err.Error())
			continue
		}
		for _, attempt := range records[i].AttemptLog {
			if err := r.Database.RecordAttempt(refID, attempt); err != nil {
				r.Logger.Warn("failed to record attempt", "error", err.Error())
			}
		}
	}
	if err := r.Database.UpdateArticleRefCount(articleID); err != nil {
		r.Logger.Warn("failed to update ref count", "error", err.Error())
	}
}

// refPageBody prefixes the fetched content with a title heading so every
// saved page opens the same way regardless of engine.
func refPageBody(rec *models.Reference, page *models.FetchedPage) []byte {
	title := rec.Title
	if title == "" {
		title = page.Title
	}
	if title == "" {
		title = rec.URL
	}
	return []byte(fmt.Sprintf("# %s\n\n%s", title, page.Content))
}

func looksLikeHTML(content string) bool {
	head := content
	if len(head) > 512 {
		head = head[:512]
	}
	head = strings.ToLower(head)
	return strings.Contains(head, "<html") || strings.Contains(head, "<!doctype html")
}
