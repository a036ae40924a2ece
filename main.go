package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	corpusactions "github.com/ultrawiki/refpipe/internal/corpus"
	dbactions "github.com/ultrawiki/refpipe/internal/db"
	deployactions "github.com/ultrawiki/refpipe/internal/deploy"
	"github.com/ultrawiki/refpipe/internal/ragdrv"
	"github.com/ultrawiki/refpipe/internal/scrape"
	"github.com/ultrawiki/refpipe/pkg/help"
)

func main() {
	app := &cli.App{
		Name:    "refpipe",
		Usage:   "Scrape Wikipedia references, build RAG corpora and drive retrieval experiments",
		Version: "0.3.0",
		Commands: []*cli.Command{
			{
				Name:      "scrape",
				Usage:     "Scrape article pages and their references",
				ArgsUsage: "[article-url] [ref-start] [ref-end]",
				Action:    scrape.ScrapeAction,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "output-dir", Value: "wiki_data", Usage: "Directory for scraped output"},
					&cli.StringFlag{Name: "csv", Usage: "CSV file of article titles and URLs"},
					&cli.StringFlag{Name: "api-key", Usage: "Jina reader API key (or JINA_API_KEY)"},
					&cli.StringFlag{Name: "fetcher", Value: "jina", Usage: "Primary backend: jina, goliath or direct"},
					&cli.StringFlag{Name: "goliath-endpoint", Usage: "Goliath service URL (or GOLIATH_ENDPOINT)"},
					&cli.StringFlag{Name: "goliath-token", Usage: "Goliath bearer token (or GOLIATH_TOKEN)"},
					&cli.StringFlag{Name: "goliath-biz", Value: "refpipe", Usage: "Goliath business definition"},
					&cli.IntFlag{Name: "start", Usage: "First CSV row to scrape (1-based, inclusive)"},
					&cli.IntFlag{Name: "end", Usage: "Last CSV row to scrape (inclusive, 0 = last)"},
					&cli.BoolFlag{Name: "all", Usage: "Scrape every CSV row, ignoring --start/--end"},
					&cli.BoolFlag{Name: "force", Usage: "Re-extract and refetch even if output exists"},
					&cli.BoolFlag{Name: "no-skip-exists", Usage: "Refetch refs whose page file is already on disk"},
					&cli.BoolFlag{Name: "record-attempts", Usage: "Record every backend attempt in the database"},
					&cli.StringFlag{Name: "db", Usage: "Database path (default: next to binary)"},
					&cli.StringFlag{Name: "cache-dir", Usage: "Page cache directory (empty disables caching)"},
					&cli.DurationFlag{Name: "cache-ttl", Value: 24 * time.Hour, Usage: "Page cache entry lifetime"},
					&cli.BoolFlag{Name: "quiet", Usage: "Only log errors"},
					&cli.BoolFlag{Name: "verbose", Usage: "Log debug detail"},
				},
			},
			{
				Name:  "corpus",
				Usage: "Build and inspect corpus tables from scraped output",
				Subcommands: []*cli.Command{
					{
						Name:   "build",
						Usage:  "Build the seven corpus JSONL tables",
						Action: corpusactions.BuildAction,
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "input-dir", Value: "wiki_data", Usage: "Scrape output directory"},
							&cli.StringFlag{Name: "out-dir", Value: "corpus", Usage: "Corpus output directory"},
							&cli.IntFlag{Name: "chunk-words", Value: 350, Usage: "Max words per passage"},
							&cli.StringFlag{Name: "db", Usage: "Database path (default: next to binary)"},
							&cli.BoolFlag{Name: "quiet", Usage: "Only log errors"},
						},
					},
					{
						Name:   "stats",
						Usage:  "Print corpus statistics as YAML",
						Action: corpusactions.StatsAction,
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "corpus-dir", Value: "corpus", Usage: "Corpus directory"},
							&cli.IntFlag{Name: "top-keywords", Value: 25, Usage: "Keywords to report"},
						},
					},
				},
			},
			{
				Name:   "rag",
				Usage:  "Check or run the retrieval experiment stages",
				Action: ragdrv.RagAction,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "env-file", Value: ".env", Usage: "Env file with experiment settings"},
					&cli.StringFlag{Name: "base-dir", Value: ".", Usage: "Experiment working directory"},
					&cli.StringFlag{Name: "class", Usage: "Corpus class (overrides CLASS env)"},
					&cli.StringFlag{Name: "stage", Usage: "Run a single stage instead of all"},
					&cli.BoolFlag{Name: "run", Usage: "Execute stage commands (default: gate checks only)"},
					&cli.BoolFlag{Name: "quiet", Usage: "Only log errors"},
				},
			},
			{
				Name:  "deploy",
				Usage: "Launch and probe the model-serving fleet",
				Subcommands: []*cli.Command{
					{
						Name:   "llm",
						Usage:  "Start sglang containers, one GPU per port",
						Action: deployactions.LLMAction,
						Flags: []cli.Flag{
							&cli.IntFlag{Name: "base-port", Value: 8001, Usage: "First LLM port"},
							&cli.IntFlag{Name: "count", Value: 8, Usage: "Number of containers"},
							&cli.StringFlag{Name: "image", Value: "lmsysorg/sglang:latest", Usage: "Container image"},
							&cli.StringFlag{Name: "model-path", Usage: "Host path to the model weights"},
							&cli.StringFlag{Name: "container-prefix", Value: "llm", Usage: "Container name prefix"},
							&cli.StringFlag{Name: "mem-fraction", Value: "0.85", Usage: "sglang --mem-fraction-static"},
							&cli.IntFlag{Name: "stagger-seconds", Value: 5, Usage: "Delay between container starts"},
							&cli.BoolFlag{Name: "dry-run", Usage: "Print commands without running them"},
							&cli.BoolFlag{Name: "quiet", Usage: "Only log errors"},
						},
					},
					{
						Name:   "embed",
						Usage:  "Start embedding servers, one GPU per port",
						Action: deployactions.EmbedAction,
						Flags: []cli.Flag{
							&cli.IntFlag{Name: "base-port", Value: 9001, Usage: "First embedding port"},
							&cli.IntFlag{Name: "count", Value: 2, Usage: "Number of servers"},
							&cli.StringFlag{Name: "model-path", Usage: "Path to the embedding model"},
							&cli.IntFlag{Name: "stagger-seconds", Value: 5, Usage: "Delay between starts"},
							&cli.BoolFlag{Name: "dry-run", Usage: "Print commands without running them"},
							&cli.BoolFlag{Name: "quiet", Usage: "Only log errors"},
						},
					},
					{
						Name:   "status",
						Usage:  "Probe the fleet ports",
						Action: deployactions.StatusAction,
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "host", Value: "localhost", Usage: "Fleet host"},
							&cli.IntFlag{Name: "base-port", Value: 8001, Usage: "First port to probe"},
							&cli.IntFlag{Name: "count", Value: 8, Usage: "Number of ports"},
							&cli.BoolFlag{Name: "health", Usage: "Also check GET /health on each port"},
						},
					},
				},
			},
			{
				Name:  "db",
				Usage: "Inspect the metadata database",
				Subcommands: []*cli.Command{
					{
						Name:   "init",
						Usage:  "Initialize the database schema",
						Action: dbactions.InitAction,
						Flags:  dbFlag(),
					},
					{
						Name:   "articles",
						Usage:  "List scraped articles",
						Action: dbactions.ArticlesAction,
						Flags: append(dbFlag(),
							&cli.IntFlag{Name: "limit", Value: 50, Usage: "Max articles to show"}),
					},
					{
						Name:      "refs",
						Usage:     "List the references of one article",
						ArgsUsage: "<article-id>",
						Action:    dbactions.RefsAction,
						Flags:     dbFlag(),
					},
					{
						Name:   "runs",
						Usage:  "List recorded runs",
						Action: dbactions.RunsAction,
						Flags: append(dbFlag(),
							&cli.StringFlag{Name: "kind", Usage: "Filter by run kind (scrape, corpus)"},
							&cli.BoolFlag{Name: "today", Usage: "Only today's runs"},
							&cli.BoolFlag{Name: "failed", Usage: "Only runs with failures"}),
					},
					{
						Name:      "run",
						Usage:     "Show per-article results of one run",
						ArgsUsage: "<run-id>",
						Action:    dbactions.RunAction,
						Flags:     dbFlag(),
					},
					{
						Name:   "engines",
						Usage:  "Per-backend fetch success rates",
						Action: dbactions.EnginesAction,
						Flags:  dbFlag(),
					},
				},
			},
			{
				Name:  "coldstart",
				Usage: "Print the quick-start reference",
				Action: func(c *cli.Context) error {
					fmt.Print(help.ColdstartYAML)
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func dbFlag() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "db", Usage: "Database path (default: next to binary)"},
	}
}
