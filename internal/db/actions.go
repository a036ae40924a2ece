// Package db provides the CLI inspection commands over the metadata
// database: articles, references, runs and backend statistics.
package db

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	dbpkg "github.com/ultrawiki/refpipe/pkg/db"
)

func openDatabase(c *cli.Context) (*dbpkg.DB, error) {
	if c.String("db") != "" {
		return dbpkg.OpenAt(c.String("db"))
	}
	return dbpkg.Open()
}

func InitAction(c *cli.Context) error {
	database, err := openDatabase(c)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	if err := database.InitSchema(); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	fmt.Printf("Database initialized at %s\n", database.Path())
	return nil
}

func ArticlesAction(c *cli.Context) error {
	database, err := openDatabase(c)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	articles, err := database.ListArticles(c.Int("limit"))
	if err != nil {
		return fmt.Errorf("failed to list articles: %w", err)
	}
	if len(articles) == 0 {
		fmt.Println("No articles found")
		return nil
	}

	fmt.Printf("%-6s %-40s %-6s %-20s %s\n", "ID", "Title", "Refs", "Created", "URL")
	fmt.Println(strings.Repeat("-", 120))
	for _, a := range articles {
		fmt.Printf("%-6d %-40s %-6d %-20s %s\n",
			a.ArticleID,
			truncate(a.Title, 40),
			a.RefCount,
			a.CreatedAt.Format("2006-01-02 15:04:05"),
			a.URL,
		)
	}
	fmt.Printf("\nTotal: %d articles\n", len(articles))
	fmt.Printf("\nTip: Use 'refpipe db refs <id>' to see an article's references\n")
	return nil
}

func RefsAction(c *cli.Context) error {
	database, err := openDatabase(c)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	if c.Args().Len() == 0 {
		return fmt.Errorf("usage: refpipe db refs <article-id>")
	}
	articleID, err := strconv.ParseInt(c.Args().First(), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid article ID %q", c.Args().First())
	}

	refs, err := database.ListRefs(articleID)
	if err != nil {
		return fmt.Errorf("failed to list refs: %w", err)
	}
	if len(refs) == 0 {
		fmt.Printf("No references recorded for article %d\n", articleID)
		return nil
	}

	fmt.Printf("%-6s %-40s %-10s %-20s %s\n", "ID", "Title", "Scraped", "Fetcher", "URL")
	fmt.Println(strings.Repeat("-", 130))
	for _, r := range refs {
		scraped := "no"
		if r.Scraped {
			scraped = "yes"
		}
		fetcherCol := r.FetcherUsed
		if r.FilterReason != "" {
			fetcherCol += " (" + r.FilterReason + ")"
		}
		fmt.Printf("%-6d %-40s %-10s %-20s %s\n",
			r.RefID, truncate(r.Title, 40), scraped, truncate(fetcherCol, 20), r.URL)
	}
	fmt.Printf("\nTotal: %d references\n", len(refs))
	return nil
}

func RunsAction(c *cli.Context) error {
	database, err := openDatabase(c)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	runs, err := database.QueryRuns(c.String("kind"), c.Bool("today"), c.Bool("failed"))
	if err != nil {
		return fmt.Errorf("failed to query runs: %w", err)
	}
	if len(runs) == 0 {
		fmt.Println("No runs found")
		return nil
	}

	fmt.Printf("%-6s %-10s %-20s %-9s %-9s %-8s %-9s %s\n",
		"ID", "Kind", "Created", "Articles", "Success", "Failed", "Skipped", "Output Dir")
	fmt.Println(strings.Repeat("-", 110))
	for _, r := range runs {
		fmt.Printf("%-6d %-10s %-20s %-9d %-9d %-8d %-9d %s\n",
			r.RunID, r.Kind, r.CreatedAt.Format("2006-01-02 15:04:05"),
			r.ArticleCount, r.SuccessCount, r.FailedCount, r.SkippedCount, r.OutputDir)
	}
	fmt.Printf("\nTotal: %d runs\n", len(runs))
	fmt.Printf("\nTip: Use 'refpipe db run <id>' to see per-article results\n")
	return nil
}

func RunAction(c *cli.Context) error {
	database, err := openDatabase(c)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	if c.Args().Len() == 0 {
		return fmt.Errorf("usage: refpipe db run <run-id>")
	}
	runID, err := strconv.ParseInt(c.Args().First(), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid run ID %q", c.Args().First())
	}

	run, err := database.GetRunByID(runID)
	if err != nil {
		return err
	}
	results, err := database.GetRunArticles(runID)
	if err != nil {
		return fmt.Errorf("failed to get run articles: %w", err)
	}

	fmt.Printf("Run %d (%s)\n", run.RunID, run.Kind)
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("Created:    %s\n", run.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("Output:     %s\n", run.OutputDir)
	fmt.Printf("Articles:   %d total (%d success, %d failed, %d skipped)\n",
		run.ArticleCount, run.SuccessCount, run.FailedCount, run.SkippedCount)

	if len(results) > 0 {
		fmt.Printf("\nResults (%d):\n", len(results))
		fmt.Println(strings.Repeat("-", 60))
		for i, r := range results {
			fmt.Printf("%2d. [%s] %s\n", i+1, r.Status, r.Title)
			if r.Status == "failed" {
				fmt.Printf("    Error: %s\n", r.ErrorMessage)
			} else {
				fmt.Printf("    Refs: %d fetched, %d filtered\n", r.RefsFetched, r.RefsFiltered)
			}
		}
	}
	return nil
}

func EnginesAction(c *cli.Context) error {
	database, err := openDatabase(c)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	stats, err := database.AttemptStatsByEngine()
	if err != nil {
		return fmt.Errorf("failed to get engine stats: %w", err)
	}
	if len(stats) == 0 {
		fmt.Println("No fetch attempts recorded")
		fmt.Println("\nTip: Run scrape with --record-attempts to collect per-engine stats")
		return nil
	}

	fmt.Printf("%-12s %-10s %-10s %s\n", "Engine", "Attempts", "Success", "Rate")
	fmt.Println(strings.Repeat("-", 45))
	for _, s := range stats {
		rate := 0.0
		if s.Attempts > 0 {
			rate = float64(s.Success) / float64(s.Attempts) * 100
		}
		fmt.Printf("%-12s %-10d %-10d %.1f%%\n", s.Engine, s.Attempts, s.Success, rate)
	}
	return nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
