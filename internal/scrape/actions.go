package scrape

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/ultrawiki/refpipe/internal/common"
	"github.com/ultrawiki/refpipe/models"
	"github.com/ultrawiki/refpipe/pkg/caching"
	"github.com/ultrawiki/refpipe/pkg/db"
	"github.com/ultrawiki/refpipe/pkg/fetcher"
	"github.com/ultrawiki/refpipe/pkg/manifest"
	"github.com/ultrawiki/refpipe/pkg/refs"
	"github.com/ultrawiki/refpipe/pkg/session"
	"github.com/ultrawiki/refpipe/pkg/storage"
)

// FinalOutput is the yaml summary printed at the end of a scrape run.
type FinalOutput struct {
	SessionID        string  `yaml:"session_id"`
	Articles         int     `yaml:"articles"`
	Success          int     `yaml:"success"`
	Failed           int     `yaml:"failed"`
	RefsFetched      int     `yaml:"refs_fetched"`
	RefsFiltered     int     `yaml:"refs_filtered"`
	RefsSkipped      int     `yaml:"refs_skipped"`
	RefsFailed       int     `yaml:"refs_failed"`
	TotalTimeSeconds float64 `yaml:"total_time_seconds"`
	OutputDir        string  `yaml:"output_dir"`
}

func ScrapeAction(c *cli.Context) error {
	logLevel := slog.LevelInfo
	if c.Bool("verbose") {
		logLevel = slog.LevelDebug
	}
	if c.Bool("quiet") {
		logLevel = slog.LevelError
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	startTime := time.Now()

	config := &models.ScrapeConfig{
		OutputDir:      c.String("output-dir"),
		APIKey:         c.String("api-key"),
		Fetcher:        c.String("fetcher"),
		Start:          c.Int("start"),
		End:            c.Int("end"),
		All:            c.Bool("all"),
		Force:          c.Bool("force"),
		SkipExists:     !c.Bool("no-skip-exists"),
		RecordAttempts: c.Bool("record-attempts"),
	}
	if config.APIKey == "" {
		config.APIKey = os.Getenv("JINA_API_KEY")
	}

	targets, err := resolveTargets(c, config)
	if err != nil {
		logger.Error("failed to resolve scrape targets", "error", err)
		os.Exit(2)
	}
	if len(targets) == 0 {
		fmt.Fprintln(os.Stderr, "Error: No articles to scrape")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Usage:")
		fmt.Fprintln(os.Stderr, `  refpipe scrape https://en.wikipedia.org/wiki/Agriculture`)
		fmt.Fprintln(os.Stderr, `  refpipe scrape --csv articles.csv --start 0 --end 50`)
		fmt.Fprintln(os.Stderr, `  refpipe scrape --csv articles.csv --all`)
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Need help? Run: refpipe scrape --help")
		os.Exit(1)
	}

	chain, err := buildChain(c, config, logger)
	if err != nil {
		logger.Error("failed to configure fetch backends", "error", err)
		os.Exit(2)
	}

	var database *db.DB
	if c.String("db") != "" {
		database, err = db.OpenAt(c.String("db"))
	} else {
		database, err = db.Open()
	}
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(2)
	}
	defer database.Close()

	store := storage.NewStore(config.OutputDir)
	if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
		logger.Error("failed to create output directory", "error", err)
		os.Exit(2)
	}

	runner := &Runner{
		Store:    store,
		Chain:    chain,
		Database: database,
		Logger:   logger,
		Config:   config,
	}

	urls := make([]string, len(targets))
	for i, t := range targets {
		urls[i] = t.URL
	}
	sessionID := session.GenerateSessionID(urls)
	if err := session.EnsureSessionDir(config.OutputDir, sessionID); err != nil {
		logger.Warn("failed to create session directory", "error", err)
	}

	runID, err := database.CreateRun("scrape", len(targets), config.OutputDir)
	if err != nil {
		logger.Warn("failed to record run", "error", err)
	}

	var summaries []manifest.ArticleSummary
	out := &FinalOutput{SessionID: sessionID, Articles: len(targets), OutputDir: config.OutputDir}

	for i, target := range targets {
		logger.Info("processing article",
			"index", i+1, "total", len(targets), "title", target.Title)
		outcome := runner.ProcessArticle(c.Context, target)

		summary := manifest.ArticleSummary{
			Title:        outcome.Title,
			URL:          outcome.URL,
			Dir:          outcome.Dir,
			Status:       outcome.Status,
			RefsTotal:    outcome.RefsTotal,
			RefsFetched:  outcome.RefsFetched,
			RefsFiltered: outcome.RefsFiltered,
		}
		if outcome.Err != nil {
			summary.ErrorMessage = outcome.Err.Error()
		}
		summaries = append(summaries, summary)

		switch outcome.Status {
		case "success":
			out.Success++
		case "failed":
			out.Failed++
		}
		out.RefsFetched += outcome.RefsFetched
		out.RefsFiltered += outcome.RefsFiltered
		out.RefsSkipped += outcome.RefsSkipped
		out.RefsFailed += outcome.RefsFailed

		recordRunArticle(database, logger, runID, target, outcome)

		if outcome.Status == "failed" && c.Args().Len() > 0 {
			printArticleDirListing(outcome.Dir, outcome.Err)
		}

		if c.Context.Err() != nil {
			logger.Warn("scrape interrupted", "processed", i+1)
			break
		}
	}

	m := manifest.New(config.Fetcher, summaries)
	if err := manifest.Write(filepath.Join(config.OutputDir, manifest.FileName), m); err != nil {
		logger.Warn("failed to write manifest", "error", err)
	}

	titles := make([]string, len(targets))
	for i, t := range targets {
		titles[i] = t.Title
	}
	info := session.SessionInfo{
		SessionID:     sessionID,
		Created:       time.Now(),
		ArticleCount:  len(targets),
		Success:       out.Success,
		Failed:        out.Failed,
		Skipped:       m.Skipped,
		Fetcher:       config.Fetcher,
		TitlesPreview: session.PreviewTitles(titles),
	}
	if err := session.UpdateSessionIndex(config.OutputDir, info); err != nil {
		logger.Warn("failed to update session index", "error", err)
	}

	if runID > 0 {
		if err := database.UpdateRunStats(runID, out.Success, out.Failed, m.Skipped); err != nil {
			logger.Warn("failed to update run stats", "error", err)
		}
	}

	out.TotalTimeSeconds = time.Since(startTime).Seconds()
	yamlOut, err := yaml.Marshal(out)
	if err != nil {
		return fmt.Errorf("failed to marshal final output: %w", err)
	}
	fmt.Println(string(yamlOut))

	if out.Failed > 0 && out.Success == 0 {
		return cli.Exit("all articles failed", 1)
	}
	return nil
}

// resolveTargets turns either a single URL argument or a CSV file into the
// selected slice of scrape targets. In single-URL mode the optional second
// and third arguments bound the reference lines to fetch, 1-based inclusive.
func resolveTargets(c *cli.Context, config *models.ScrapeConfig) ([]models.ScrapeTarget, error) {
	if c.Args().Len() > 0 {
		rawURL := c.Args().First()
		cleaned := common.SanitizeURL(rawURL)
		if !common.ValidateURL(cleaned) {
			return nil, fmt.Errorf("invalid article URL: %s", rawURL)
		}
		if err := parseRefRange(c, config); err != nil {
			return nil, err
		}
		title, err := common.ArticleTitleFromURL(cleaned)
		if err != nil {
			return nil, err
		}
		return []models.ScrapeTarget{{Title: title, URL: cleaned}}, nil
	}

	csvPath := c.String("csv")
	if csvPath == "" {
		return nil, nil
	}
	targets, err := refs.LoadTargetsCSV(csvPath)
	if err != nil {
		return nil, err
	}
	if config.All {
		return targets, nil
	}
	return refs.SelectRange(targets, config.Start, config.End), nil
}

// parseRefRange reads the optional start/end reference line numbers from the
// positional arguments, falling back to the --start/--end flags.
func parseRefRange(c *cli.Context, config *models.ScrapeConfig) error {
	if config.All {
		return nil
	}
	if c.Args().Len() > 1 {
		start, err := strconv.Atoi(c.Args().Get(1))
		if err != nil || start < 1 {
			return fmt.Errorf("invalid reference start line: %s", c.Args().Get(1))
		}
		config.RefStart = start
	} else if c.IsSet("start") {
		config.RefStart = c.Int("start")
	}
	if c.Args().Len() > 2 {
		end, err := strconv.Atoi(c.Args().Get(2))
		if err != nil || end < 1 {
			return fmt.Errorf("invalid reference end line: %s", c.Args().Get(2))
		}
		config.RefEnd = end
	} else if c.IsSet("end") {
		config.RefEnd = c.Int("end")
	}
	if config.RefStart > 0 && config.RefEnd > 0 && config.RefEnd < config.RefStart {
		return fmt.Errorf("reference end line %d precedes start line %d", config.RefEnd, config.RefStart)
	}
	return nil
}

// buildChain assembles the primary backend plus the goliath fallback. When
// goliath is unconfigured the direct fetcher takes its place so the fallback
// step still exists.
func buildChain(c *cli.Context, config *models.ScrapeConfig, logger *slog.Logger) (*fetcher.Chain, error) {
	endpoint := c.String("goliath-endpoint")
	if endpoint == "" {
		endpoint = os.Getenv("GOLIATH_ENDPOINT")
	}
	token := c.String("goliath-token")
	if token == "" {
		token = os.Getenv("GOLIATH_TOKEN")
	}

	var goliath fetcher.Fetcher
	if endpoint != "" && token != "" {
		goliath = fetcher.NewGoliath(endpoint, token, c.String("goliath-biz"), logger)
	}

	var primary fetcher.Fetcher
	switch config.Fetcher {
	case "jina":
		primary = fetcher.NewJina(config.APIKey)
	case "goliath":
		if goliath == nil {
			return nil, fmt.Errorf("fetcher goliath requires --goliath-endpoint and --goliath-token")
		}
		primary = goliath
	case "direct":
		primary = fetcher.NewDirect()
	default:
		return nil, fmt.Errorf("unknown fetcher %q (expected jina, goliath or direct)", config.Fetcher)
	}

	fallback := goliath
	if fallback == nil {
		logger.Info("goliath unconfigured, using direct fetch as fallback")
		fallback = fetcher.NewDirect()
	}

	if c.String("cache-dir") != "" {
		cache, err := caching.NewCache(c.String("cache-dir"), c.Duration("cache-ttl"))
		if err != nil {
			return nil, err
		}
		primary = fetcher.WithCache(primary, cache)
		fallback = fetcher.WithCache(fallback, cache)
	}

	return fetcher.NewChain(primary, fallback, logger), nil
}

// printArticleDirListing shows what the article directory holds when a
// single-URL scrape fails, so missing pieces are obvious without digging.
func printArticleDirListing(dir string, cause error) {
	if cause != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", cause)
	}
	if dir == "" {
		return
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Could not list %s: %v\n", dir, err)
		return
	}
	fmt.Fprintf(os.Stderr, "Contents of %s:\n", dir)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() {
			name += "/"
		}
		fmt.Fprintf(os.Stderr, "  %s\n", name)
	}
}

func recordRunArticle(database *db.DB, logger *slog.Logger, runID int64, target models.ScrapeTarget, outcome ArticleOutcome) {
	if database == nil || runID <= 0 {
		return
	}
	articleID, err := database.GetArticleID(target.URL)
	if err != nil || articleID == 0 {
		articleID, err = database.InsertArticle(target.Title, target.URL)
		if err != nil {
			logger.Warn("failed to record run article", "error", err)
			return
		}
	}
	errMsg := ""
	if outcome.Err != nil {
		errMsg = outcome.Err.Error()
	}
	if err := database.RecordRunArticle(runID, articleID, outcome.Status, errMsg,
		outcome.RefsFetched, outcome.RefsFiltered); err != nil {
		logger.Warn("failed to record run article", "error", err)
	}
}
