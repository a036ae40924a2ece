package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ultrawiki/refpipe/internal/common"
	"github.com/ultrawiki/refpipe/models"
)

// InsertArticle inserts an article, returning its article_id.
// If the URL already exists, returns the existing article_id.
func (db *DB) InsertArticle(title, url string) (int64, error) {
	var existingID int64
	err := db.QueryRow("SELECT article_id FROM articles WHERE url = ?", url).Scan(&existingID)
	if err == nil {
		return existingID, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("failed to check existing article: %w", err)
	}

	result, err := db.Exec(`
		INSERT INTO articles (title, url, slug)
		VALUES (?, ?, ?)
	`, title, url, common.Slugify(title, 120))
	if err != nil {
		return 0, fmt.Errorf("failed to insert article: %w", err)
	}
	articleID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get article ID: %w", err)
	}
	return articleID, nil
}

// GetArticleID returns the article_id for a given article URL.
func (db *DB) GetArticleID(url string) (int64, error) {
	var articleID int64
	err := db.QueryRow("SELECT article_id FROM articles WHERE url = ?", url).Scan(&articleID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("article not found: %s", url)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get article ID: %w", err)
	}
	return articleID, nil
}

// UpsertRef inserts or updates a reference record for an article, returning
// the ref_id. The (article_id, url) pair is the identity.
func (db *DB) UpsertRef(articleID int64, ref *models.Reference) (int64, error) {
	var existingID int64
	err := db.QueryRow("SELECT ref_id FROM refs WHERE article_id = ? AND url = ?",
		articleID, ref.URL).Scan(&existingID)
	if err == nil {
		_, err = db.Exec(`
			UPDATE refs
			SET title = ?, norm_url = ?, is_external = ?, archive_url = ?,
			    scraped = ?, fetcher_used = ?, filter_reason = ?,
			    updated_at = CURRENT_TIMESTAMP
			WHERE ref_id = ?
		`, ref.Title, common.NormURL(ref.URL), ref.IsExternal, ref.ArchiveURL,
			ref.Scraped, ref.FetcherUsed, ref.FilterReason, existingID)
		if err != nil {
			return 0, fmt.Errorf("failed to update ref: %w", err)
		}
		return existingID, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("failed to check existing ref: %w", err)
	}

	result, err := db.Exec(`
		INSERT INTO refs (article_id, title, url, norm_url, is_external,
		                  archive_url, scraped, fetcher_used, filter_reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, articleID, ref.Title, ref.URL, common.NormURL(ref.URL), ref.IsExternal,
		ref.ArchiveURL, ref.Scraped, ref.FetcherUsed, ref.FilterReason)
	if err != nil {
		return 0, fmt.Errorf("failed to insert ref: %w", err)
	}
	refID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get ref ID: %w", err)
	}
	return refID, nil
}

// UpdateArticleRefCount refreshes the cached reference count for an article.
func (db *DB) UpdateArticleRefCount(articleID int64) error {
	_, err := db.Exec(`
		UPDATE articles
		SET ref_count = (SELECT COUNT(*) FROM refs WHERE article_id = ?),
		    updated_at = CURRENT_TIMESTAMP
		WHERE article_id = ?
	`, articleID, articleID)
	if err != nil {
		return fmt.Errorf("failed to update ref count: %w", err)
	}
	return nil
}

// RecordAttempt records one backend fetch attempt for a reference.
func (db *DB) RecordAttempt(refID int64, attempt models.AttemptLog) error {
	_, err := db.Exec(`
		INSERT INTO fetch_attempts (ref_id, round, step, engine, url, success, error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, refID, attempt.Round, attempt.Step, attempt.Engine, attempt.URL,
		attempt.Success, attempt.Error)
	if err != nil {
		return fmt.Errorf("failed to record attempt: %w", err)
	}
	return nil
}

// ArticleInfo is a summary row for article listings.
type ArticleInfo struct {
	ArticleID int64
	Title     string
	URL       string
	Slug      string
	RefCount  int
	CreatedAt time.Time
}

// ListArticles returns articles ordered by most recently updated.
func (db *DB) ListArticles(limit int) ([]ArticleInfo, error) {
	query := `
		SELECT article_id, title, url, slug, ref_count, created_at
		FROM articles
		ORDER BY updated_at DESC
	`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list articles: %w", err)
	}
	defer rows.Close()

	var articles []ArticleInfo
	for rows.Next() {
		var a ArticleInfo
		if err := rows.Scan(&a.ArticleID, &a.Title, &a.URL, &a.Slug, &a.RefCount, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan article: %w", err)
		}
		articles = append(articles, a)
	}
	return articles, nil
}

// RefInfo is a summary row for reference listings.
type RefInfo struct {
	RefID        int64
	Title        string
	URL          string
	Scraped      bool
	FetcherUsed  string
	FilterReason string
}

// ListRefs returns the references recorded for one article.
func (db *DB) ListRefs(articleID int64) ([]RefInfo, error) {
	rows, err := db.Query(`
		SELECT ref_id, COALESCE(title, ''), url, scraped,
		       COALESCE(fetcher_used, ''), COALESCE(filter_reason, '')
		FROM refs
		WHERE article_id = ?
		ORDER BY ref_id
	`, articleID)
	if err != nil {
		return nil, fmt.Errorf("failed to list refs: %w", err)
	}
	defer rows.Close()

	var refs []RefInfo
	for rows.Next() {
		var r RefInfo
		if err := rows.Scan(&r.RefID, &r.Title, &r.URL, &r.Scraped, &r.FetcherUsed, &r.FilterReason); err != nil {
			return nil, fmt.Errorf("failed to scan ref: %w", err)
		}
		refs = append(refs, r)
	}
	return refs, nil
}

// EngineStats aggregates fetch attempts per backend.
type EngineStats struct {
	Engine   string
	Attempts int
	Success  int
}

// AttemptStatsByEngine reports per-engine success rates across all attempts.
func (db *DB) AttemptStatsByEngine() ([]EngineStats, error) {
	rows, err := db.Query(`
		SELECT engine, COUNT(*), SUM(CASE WHEN success THEN 1 ELSE 0 END)
		FROM fetch_attempts
		GROUP BY engine
		ORDER BY engine
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query attempt stats: %w", err)
	}
	defer rows.Close()

	var stats []EngineStats
	for rows.Next() {
		var s EngineStats
		if err := rows.Scan(&s.Engine, &s.Attempts, &s.Success); err != nil {
			return nil, fmt.Errorf("failed to scan attempt stats: %w", err)
		}
		stats = append(stats, s)
	}
	return stats, nil
}
