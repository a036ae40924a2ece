package db

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Run represents one CLI invocation recorded in the metadata database.
type Run struct {
	RunID        int64
	Kind         string
	CreatedAt    time.Time
	ArticleCount int
	SuccessCount int
	FailedCount  int
	SkippedCount int
	OutputDir    string
}

// CreateRun records the start of a scrape or corpus run.
func (db *DB) CreateRun(kind string, articleCount int, outputDir string) (int64, error) {
	result, err := db.Exec(`
		INSERT INTO runs (kind, article_count, output_dir)
		VALUES (?, ?, ?)
	`, kind, articleCount, outputDir)
	if err != nil {
		return 0, fmt.Errorf("failed to create run: %w", err)
	}
	runID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run ID: %w", err)
	}
	return runID, nil
}

// RecordRunArticle records the per-article outcome within a run.
func (db *DB) RecordRunArticle(runID, articleID int64, status, errorMessage string, refsFetched, refsFiltered int) error {
	_, err := db.Exec(`
		INSERT INTO run_articles (run_id, article_id, status, error_message, refs_fetched, refs_filtered)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, article_id) DO UPDATE SET
			status = excluded.status,
			error_message = excluded.error_message,
			refs_fetched = excluded.refs_fetched,
			refs_filtered = excluded.refs_filtered
	`, runID, articleID, status, errorMessage, refsFetched, refsFiltered)
	if err != nil {
		return fmt.Errorf("failed to record run article: %w", err)
	}
	return nil
}

// UpdateRunStats updates the aggregate counts for a run.
func (db *DB) UpdateRunStats(runID int64, successCount, failedCount, skippedCount int) error {
	_, err := db.Exec(`
		UPDATE runs
		SET success_count = ?, failed_count = ?, skipped_count = ?
		WHERE run_id = ?
	`, successCount, failedCount, skippedCount, runID)
	if err != nil {
		return fmt.Errorf("failed to update run stats: %w", err)
	}
	return nil
}

// GetRunByID retrieves a run by its ID.
func (db *DB) GetRunByID(runID int64) (*Run, error) {
	var r Run
	err := db.QueryRow(`
		SELECT run_id, kind, created_at, article_count, success_count,
		       failed_count, skipped_count, output_dir
		FROM runs
		WHERE run_id = ?
	`, runID).Scan(&r.RunID, &r.Kind, &r.CreatedAt, &r.ArticleCount,
		&r.SuccessCount, &r.FailedCount, &r.SkippedCount, &r.OutputDir)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %d not found", runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return &r, nil
}

// QueryRuns filters runs by kind, recency and failure status.
func (db *DB) QueryRuns(kind string, todayOnly, failedOnly bool) ([]Run, error) {
	query := `
		SELECT run_id, kind, created_at, article_count, success_count,
		       failed_count, skipped_count, output_dir
		FROM runs
	`

	var conditions []string
	var args []interface{}

	if kind != "" {
		conditions = append(conditions, "kind = ?")
		args = append(args, kind)
	}
	if todayOnly {
		conditions = append(conditions, "DATE(created_at) = DATE('now')")
	}
	if failedOnly {
		conditions = append(conditions, "failed_count > 0")
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC"

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.RunID, &r.Kind, &r.CreatedAt, &r.ArticleCount,
			&r.SuccessCount, &r.FailedCount, &r.SkippedCount, &r.OutputDir); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, nil
}

// RunArticleResult is a per-article outcome row for a run.
type RunArticleResult struct {
	Title        string
	URL          string
	Status       string
	ErrorMessage string
	RefsFetched  int
	RefsFiltered int
}

// GetRunArticles retrieves the per-article results for a run.
func (db *DB) GetRunArticles(runID int64) ([]RunArticleResult, error) {
	rows, err := db.Query(`
		SELECT a.title, a.url, ra.status, COALESCE(ra.error_message, ''),
		       ra.refs_fetched, ra.refs_filtered
		FROM run_articles ra
		JOIN articles a ON ra.article_id = a.article_id
		WHERE ra.run_id = ?
		ORDER BY ra.id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get run articles: %w", err)
	}
	defer rows.Close()

	var results []RunArticleResult
	for rows.Next() {
		var r RunArticleResult
		if err := rows.Scan(&r.Title, &r.URL, &r.Status, &r.ErrorMessage,
			&r.RefsFetched, &r.RefsFiltered); err != nil {
			return nil, fmt.Errorf("failed to scan run article: %w", err)
		}
		results = append(results, r)
	}
	return results, nil
}
