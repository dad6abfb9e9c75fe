package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/germanamz/overture/cmd/overture/internal/monitor"
	"github.com/germanamz/overture/pkg/host"
)

func main() {
	// Handle subcommands before flag parsing.
	if len(os.Args) > 1 && os.Args[1] == "init" {
		initCmd := flag.NewFlagSet("init", flag.ExitOnError)
		initCmd.Usage = func() {
			fmt.Fprintf(os.Stderr, "Usage: overture init [flags]\n\nCreate a host configuration file interactively.\n\nFlags:\n")
			initCmd.PrintDefaults()
		}
		out := initCmd.String("config", host.DefaultConfigPath, "path to write the configuration file")
		_ = initCmd.Parse(os.Args[2:])

		if err := runInit(*out); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}

		return
	}

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: overture [flags]\n       overture <command> [flags]\n\nFlags:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nCommands:\n  init    Create a host configuration file interactively\n")
	}

	configPath := flag.String("config", "", "path to configuration file (default: overture.yaml if present)")
	envFile := flag.String("env", ".env", "path to .env file (ignored if missing)")
	useMonitor := flag.Bool("monitor", false, "show the interactive boot monitor")
	watch := flag.Bool("watch", true, "apply log level changes from the config file at runtime")
	flag.Parse()

	if err := loadDotEnv(*envFile); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if err := run(*configPath, *useMonitor, *watch); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, useMonitor, watch bool) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Config resolution: explicit flag → overture.yaml → built-in defaults.
	var (
		cfg host.Config
		err error
	)

	resolved := resolveConfigPath(configPath)
	if resolved != "" {
		cfg, err = host.LoadConfig(resolved)
		if err != nil {
			return err
		}
	}

	h, err := host.New(cfg, host.Options{})
	if err != nil {
		return err
	}
	defer func() { _ = h.Close() }()

	if useMonitor {
		return runMonitor(ctx, h)
	}

	report, err := h.Run(ctx)
	if err != nil {
		return err
	}

	h.Logger().Info("boot complete", "controllers", report.Ready(), "duration", report.Duration)

	if watch && resolved != "" {
		w, werr := h.WatchLevel()
		if werr != nil {
			h.Logger().Warn("config watching disabled", "error", werr)
		} else {
			defer func() { _ = w.Close() }()
		}
	}

	<-ctx.Done()

	h.Logger().Info("shutting down")

	return nil
}

func runMonitor(ctx context.Context, h *host.Host) error {
	p := tea.NewProgram(monitor.New(ctx, h.Run))

	// The bridge must subscribe before Init starts the run, or early events
	// would be dropped. Stopping it waits for the forwarder, which cannot
	// block once Run has returned and sends are no-ops.
	stop := monitor.StartBridge(ctx, p, h.Events())
	defer stop()

	if _, err := p.Run(); err != nil {
		return err
	}

	// The monitor has already rendered the failure; the completion signal
	// carries it into the exit code. Quitting mid-boot leaves it unresolved.
	if outcome, resolved := h.Signal().Outcome(); resolved && outcome != nil {
		return outcome
	}

	return nil
}
