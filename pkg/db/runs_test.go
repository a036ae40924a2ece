package db

import "testing"

func TestRunLifecycle(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	articleID, err := db.InsertArticle("Joe Biden", "https://en.wikipedia.org/wiki/Joe_Biden")
	if err != nil {
		t.Fatalf("InsertArticle() error = %v", err)
	}

	runID, err := db.CreateRun("scrape", 1, "output")
	if err != nil {
		t.Fatalf("CreateRun() error = %v", err)
	}

	if err := db.RecordRunArticle(runID, articleID, "success", "", 12, 2); err != nil {
		t.Fatalf("RecordRunArticle() error = %v", err)
	}
	// re-recording the same article updates the row
	if err := db.RecordRunArticle(runID, articleID, "failed", "fetch error", 3, 0); err != nil {
		t.Fatalf("RecordRunArticle() update error = %v", err)
	}
	if err := db.UpdateRunStats(runID, 0, 1, 0); err != nil {
		t.Fatalf("UpdateRunStats() error = %v", err)
	}

	run, err := db.GetRunByID(runID)
	if err != nil {
		t.Fatalf("GetRunByID() error = %v", err)
	}
	if run.Kind != "scrape" || run.FailedCount != 1 || run.ArticleCount != 1 {
		t.Errorf("run = %+v", run)
	}

	results, err := db.GetRunArticles(runID)
	if err != nil {
		t.Fatalf("GetRunArticles() error = %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].Status != "failed" || results[0].ErrorMessage != "fetch error" || results[0].RefsFetched != 3 {
		t.Errorf("results[0] = %+v", results[0])
	}
}

func TestQueryRuns(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	scrapeID, err := db.CreateRun("scrape", 2, "output")
	if err != nil {
		t.Fatalf("CreateRun() error = %v", err)
	}
	if _, err := db.CreateRun("corpus", 2, "corpus_release"); err != nil {
		t.Fatalf("CreateRun() error = %v", err)
	}
	if err := db.UpdateRunStats(scrapeID, 1, 1, 0); err != nil {
		t.Fatalf("UpdateRunStats() error = %v", err)
	}

	byKind, err := db.QueryRuns("corpus", false, false)
	if err != nil {
		t.Fatalf("QueryRuns() error = %v", err)
	}
	if len(byKind) != 1 || byKind[0].Kind != "corpus" {
		t.Errorf("byKind = %+v", byKind)
	}

	failed, err := db.QueryRuns("", false, true)
	if err != nil {
		t.Fatalf("QueryRuns() error = %v", err)
	}
	if len(failed) != 1 || failed[0].RunID != scrapeID {
		t.Errorf("failed = %+v", failed)
	}

	today, err := db.QueryRuns("", true, false)
	if err != nil {
		t.Fatalf("QueryRuns() error = %v", err)
	}
	if len(today) != 2 {
		t.Errorf("got %d runs today, want 2", len(today))
	}
}
