// Package ragdrv drives the retrieval experiment stages: environment
// loading, per-stage file gates and optional execution of the stage
// commands.
package ragdrv

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/ultrawiki/refpipe/models"
	"github.com/ultrawiki/refpipe/pkg/pipeline"
)

const defaultClass = "agriculture"

func RagAction(c *cli.Context) error {
	logLevel := slog.LevelInfo
	if c.Bool("quiet") {
		logLevel = slog.LevelError
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	// .env is optional; real environment variables win
	if err := godotenv.Load(c.String("env-file")); err != nil && c.IsSet("env-file") {
		logger.Error("failed to load env file", "file", c.String("env-file"), "error", err)
		os.Exit(2)
	}

	cfg, err := ConfigFromEnv(c.String("base-dir"))
	if err != nil {
		logger.Error("invalid environment configuration", "error", err)
		os.Exit(2)
	}
	if c.String("class") != "" {
		cfg.Class = c.String("class")
	}
	logger.Info("experiment configuration",
		"class", cfg.Class, "oss_ports", len(cfg.OSSPorts), "embed_ports", len(cfg.EmbedPorts))

	runner := pipeline.NewRunner(cfg, c.Bool("run"), logger)

	var results []pipeline.StageResult
	var runErr error
	if stageName := c.String("stage"); stageName != "" {
		stage, err := pipeline.StageByName(stageName)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			fmt.Fprintf(os.Stderr, "Known stages: %s\n", strings.Join(pipeline.StageNames(), ", "))
			os.Exit(1)
		}
		var result pipeline.StageResult
		result, runErr = runner.RunStage(c.Context, stage)
		results = append(results, result)
	} else {
		results, runErr = runner.RunAll(c.Context)
	}

	printStageResults(results)
	if runErr != nil {
		return cli.Exit("", 1)
	}
	return nil
}

// ConfigFromEnv reads the experiment settings from the process environment.
func ConfigFromEnv(baseDir string) (*models.RagConfig, error) {
	cfg := &models.RagConfig{
		Class:      envOr("CLASS", defaultClass),
		OSSHost:    envOr("OSS_HOST", "localhost"),
		EmbedHost:  envOr("EMBED_HOST", "localhost"),
		OSSPorts:   splitPorts(os.Getenv("OSS_PORTS")),
		EmbedPorts: splitPorts(os.Getenv("EMBED_PORTS")),
		BaseDir:    baseDir,
	}

	var err error
	cfg.LLMMaxAsync, err = envInt("LLM_MAX_ASYNC", 64)
	if err != nil {
		return nil, err
	}
	cfg.EmbedMaxAsync, err = envInt("EMBED_MAX_ASYNC", 32)
	if err != nil {
		return nil, err
	}

	for _, port := range append(append([]string{}, cfg.OSSPorts...), cfg.EmbedPorts...) {
		if _, err := strconv.Atoi(port); err != nil {
			return nil, fmt.Errorf("invalid port %q in environment: %w", port, err)
		}
	}
	return cfg, nil
}

func printStageResults(results []pipeline.StageResult) {
	fmt.Printf("%-12s %-8s %s\n", "STAGE", "STATUS", "DETAIL")
	fmt.Println(strings.Repeat("-", 60))
	for _, r := range results {
		fmt.Printf("%-12s %-8s %s\n", r.Stage, r.Status, r.Message)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, v, err)
	}
	return n, nil
}

func splitPorts(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
