// Package deploy exposes the model-serving fleet commands: start the LLM
// containers, start the embedding servers and probe the running fleet.
package deploy

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/ultrawiki/refpipe/pkg/deploy"
)

func newLogger(c *cli.Context) *slog.Logger {
	logLevel := slog.LevelInfo
	if c.Bool("quiet") {
		logLevel = slog.LevelError
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}

func LLMAction(c *cli.Context) error {
	logger := newLogger(c)

	opts := deploy.LLMOptions{
		BasePort:        c.Int("base-port"),
		Count:           c.Int("count"),
		Image:           c.String("image"),
		ModelPath:       c.String("model-path"),
		ContainerPrefix: c.String("container-prefix"),
		MemFraction:     c.String("mem-fraction"),
	}
	if opts.ModelPath == "" {
		fmt.Fprintln(os.Stderr, "Error: --model-path is required")
		os.Exit(1)
	}

	cmds := deploy.LLMCommands(opts)
	launcher := deploy.NewLauncher(c.Bool("dry-run"),
		time.Duration(c.Int("stagger-seconds"))*time.Second, logger)
	if err := launcher.LaunchAll(c.Context, cmds); err != nil {
		logger.Error("failed to launch LLM fleet", "error", err)
		os.Exit(1)
	}

	if !c.Bool("dry-run") {
		fmt.Printf("Started %d LLM containers on ports %d-%d\n",
			opts.Count, opts.BasePort, opts.BasePort+opts.Count-1)
	}
	return nil
}

func EmbedAction(c *cli.Context) error {
	logger := newLogger(c)

	opts := deploy.EmbedOptions{
		BasePort:  c.Int("base-port"),
		Count:     c.Int("count"),
		ModelPath: c.String("model-path"),
	}
	if opts.ModelPath == "" {
		fmt.Fprintln(os.Stderr, "Error: --model-path is required")
		os.Exit(1)
	}

	cmds := deploy.EmbedCommands(opts)
	launcher := deploy.NewLauncher(c.Bool("dry-run"),
		time.Duration(c.Int("stagger-seconds"))*time.Second, logger)
	if err := launcher.LaunchAll(c.Context, cmds); err != nil {
		logger.Error("failed to launch embedding fleet", "error", err)
		os.Exit(1)
	}

	if !c.Bool("dry-run") {
		fmt.Printf("Started %d embedding servers on ports %d-%d\n",
			opts.Count, opts.BasePort, opts.BasePort+opts.Count-1)
	}
	return nil
}

func StatusAction(c *cli.Context) error {
	ports := deploy.Ports(c.Int("base-port"), c.Int("count"))
	prober := deploy.NewProber(c.String("host"), c.Bool("health"))
	statuses := prober.ProbeAll(c.Context, ports)

	fmt.Printf("%-8s %-6s %-8s %s\n", "PORT", "UP", "HEALTHY", "DETAIL")
	fmt.Println(strings.Repeat("-", 50))
	for _, s := range statuses {
		fmt.Printf("%-8d %-6s %-8s %s\n", s.Port, yesNo(s.Up), yesNo(s.Healthy), s.Detail)
	}

	up := deploy.CountUp(statuses)
	fmt.Printf("\n%d/%d services up\n", up, len(statuses))
	if up < len(statuses) {
		return cli.Exit("", 1)
	}
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
