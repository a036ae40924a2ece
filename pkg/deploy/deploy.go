// Package deploy launches and probes the model-serving fleet: one sglang
// container or embedding-server process per port, one GPU per port.
package deploy

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"
)

// GPUIndex maps a service port to its GPU: the offset from the base port.
func GPUIndex(port, basePort int) int {
	return port - basePort
}

// Ports enumerates the ports for a fleet of count services.
func Ports(basePort, count int) []int {
	ports := make([]int, 0, count)
	for p := basePort; p < basePort+count; p++ {
		ports = append(ports, p)
	}
	return ports
}

// LLMOptions configures the sglang container fleet.
type LLMOptions struct {
	BasePort        int
	Count           int
	Image           string
	ModelPath       string
	ContainerPrefix string
	MemFraction     string
}

// LLMCommands builds one docker run command per port. Each container pins a
// single GPU and serves the chat-completion API on its port.
func LLMCommands(opts LLMOptions) [][]string {
	var cmds [][]string
	for _, port := range Ports(opts.BasePort, opts.Count) {
		gpu := GPUIndex(port, opts.BasePort)
		cmds = append(cmds, []string{
			"docker", "run", "-d",
			"--gpus", fmt.Sprintf("device=%d", gpu),
			"--name", fmt.Sprintf("%s-%d", opts.ContainerPrefix, port),
			"--shm-size", "32g",
			"-p", fmt.Sprintf("%d:%d", port, port),
			"-v", fmt.Sprintf("%s:/model", opts.ModelPath),
			opts.Image,
			"python", "-m", "sglang.launch_server",
			"--model-path", "/model",
			"--host", "0.0.0.0",
			"--port", fmt.Sprintf("%d", port),
			"--mem-fraction-static", opts.MemFraction,
		})
	}
	return cmds
}

// EmbedOptions configures the host embedding-server processes.
type EmbedOptions struct {
	BasePort  int
	Count     int
	ModelPath string
}

// EmbedCommands builds one embedding-server launch per port. GPU pinning
// rides on CUDA_VISIBLE_DEVICES in the command prefix.
func EmbedCommands(opts EmbedOptions) [][]string {
	var cmds [][]string
	for _, port := range Ports(opts.BasePort, opts.Count) {
		gpu := GPUIndex(port, opts.BasePort)
		cmds = append(cmds, []string{
			"env", fmt.Sprintf("CUDA_VISIBLE_DEVICES=%d", gpu),
			"python", "-m", "embed_server",
			"--model-path", opts.ModelPath,
			"--host", "0.0.0.0",
			"--port", fmt.Sprintf("%d", port),
		})
	}
	return cmds
}

// Launcher runs a command fleet with a fixed stagger between starts.
// DryRun prints the commands instead of executing them.
type Launcher struct {
	DryRun  bool
	Stagger time.Duration
	Logger  *slog.Logger

	// runCommand is swapped in tests.
	runCommand func(ctx context.Context, argv []string) error
}

func NewLauncher(dryRun bool, stagger time.Duration, logger *slog.Logger) *Launcher {
	l := &Launcher{DryRun: dryRun, Stagger: stagger, Logger: logger}
	l.runCommand = runOSCommand
	return l
}

// LaunchAll starts every command in order, sleeping the stagger between
// starts so the services don't race each other for GPU memory.
func (l *Launcher) LaunchAll(ctx context.Context, cmds [][]string) error {
	for i, argv := range cmds {
		if i > 0 && l.Stagger > 0 && !l.DryRun {
			select {
			case <-time.After(l.Stagger):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if l.DryRun {
			fmt.Println(strings.Join(argv, " "))
			continue
		}

		l.Logger.Info("launching service", "command", argv[0], "args", argv[1:])
		if err := l.runCommand(ctx, argv); err != nil {
			return fmt.Errorf("failed to launch %s: %w", strings.Join(argv, " "), err)
		}
	}
	return nil
}

func runOSCommand(ctx context.Context, argv []string) error {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
