package corpus

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/ultrawiki/refpipe/pkg/corpus"
	"github.com/ultrawiki/refpipe/pkg/db"
)

// BuildOutput is the yaml summary printed after a corpus build.
type BuildOutput struct {
	Docs             int     `yaml:"docs"`
	Passages         int     `yaml:"passages"`
	References       int     `yaml:"references"`
	RefMentions      int     `yaml:"ref_mentions"`
	ExtDocs          int     `yaml:"ext_docs"`
	ExtPassages      int     `yaml:"ext_passages"`
	Ref2ExtLinks     int     `yaml:"ref2ext_links"`
	TotalTimeSeconds float64 `yaml:"total_time_seconds"`
	OutputDir        string  `yaml:"output_dir"`
}

func BuildAction(c *cli.Context) error {
	logLevel := slog.LevelInfo
	if c.Bool("quiet") {
		logLevel = slog.LevelError
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	startTime := time.Now()

	inputDir := c.String("input-dir")
	outDir := c.String("out-dir")

	if _, err := os.Stat(inputDir); err != nil {
		logger.Error("input directory not readable", "dir", inputDir, "error", err)
		os.Exit(2)
	}

	builder := corpus.NewBuilder(inputDir, outDir, logger)
	builder.ChunkWords = c.Int("chunk-words")

	result, err := builder.Build()
	if err != nil {
		logger.Error("corpus build failed", "error", err)
		os.Exit(1)
	}

	recordBuildRun(c, logger, result, outDir)

	out := &BuildOutput{
		Docs:             result.Docs,
		Passages:         result.Passages,
		References:       result.Refs,
		RefMentions:      result.Mentions,
		ExtDocs:          result.ExtDocs,
		ExtPassages:      result.ExtPassages,
		Ref2ExtLinks:     result.Links,
		TotalTimeSeconds: time.Since(startTime).Seconds(),
		OutputDir:        outDir,
	}
	yamlOut, err := yaml.Marshal(out)
	if err != nil {
		return fmt.Errorf("failed to marshal build output: %w", err)
	}
	fmt.Println(string(yamlOut))
	return nil
}

func StatsAction(c *cli.Context) error {
	corpusDir := c.String("corpus-dir")

	stats, err := corpus.ComputeStats(corpusDir, c.Int("top-keywords"))
	if err != nil {
		return fmt.Errorf("failed to compute corpus stats: %w", err)
	}

	yamlOut, err := yaml.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to marshal stats: %w", err)
	}
	fmt.Println(string(yamlOut))
	return nil
}

// recordBuildRun mirrors the build into the runs table. Metadata only, a
// failure here never fails the build.
func recordBuildRun(c *cli.Context, logger *slog.Logger, result *corpus.BuildResult, outDir string) {
	var database *db.DB
	var err error
	if c.String("db") != "" {
		database, err = db.OpenAt(c.String("db"))
	} else {
		database, err = db.Open()
	}
	if err != nil {
		logger.Warn("failed to open database", "error", err)
		return
	}
	defer database.Close()

	runID, err := database.CreateRun("corpus", result.Docs, outDir)
	if err != nil {
		logger.Warn("failed to record run", "error", err)
		return
	}
	if err := database.UpdateRunStats(runID, result.Docs, 0, 0); err != nil {
		logger.Warn("failed to update run stats", "error", err)
	}
}
