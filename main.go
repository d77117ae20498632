package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"

	"fabric_tui/internal/config"
	"fabric_tui/internal/executor"
	"fabric_tui/internal/fab"
	"fabric_tui/internal/history"
	"fabric_tui/internal/jobs"
	"fabric_tui/internal/logging"
	"fabric_tui/internal/parser"
	"fabric_tui/internal/tui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

// version is overridden at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	flagSet := pflag.NewFlagSet(config.AppName, pflag.ContinueOnError)
	showHelp := flagSet.BoolP("help", "h", false, "show help")
	showVersion := flagSet.BoolP("version", "v", false, "print version and exit")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(flagSet)
			return nil
		}
		return err
	}
	if *showHelp {
		printHelp(flagSet)
		return nil
	}
	if *showVersion {
		fmt.Printf("%s %s\n", config.AppName, version)
		return nil
	}
	if rest := flagSet.Args(); len(rest) > 0 {
		return fmt.Errorf("unexpected argument: %s", rest[0])
	}

	// A broken config file never blocks startup
	cfg, err := config.LoadFromDefaultPath()
	if err != nil {
		cfg = config.DefaultConfig()
	}

	logger, flush, err := logging.New(logging.DefaultOptions(config.LogPath()))
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer flush()
	parser.SetLogger(logger.Named("parser"))
	logger.Info("starting", zap.String("version", version), zap.String("tool", cfg.Tool))

	store, err := history.Load(config.HistoryPath(), cfg.HistorySize)
	if err != nil {
		logger.Warn("history not loaded", zap.Error(err))
	}
	logger.Debug("history loaded", zap.Int("entries", store.Len()))

	notices := make(chan string, 16)
	cache := executor.NewCache(cfg.CacheTTL())
	cmdExec := executor.New(executor.NewExecRunner(),
		executor.WithRecorder(store),
		executor.WithCache(cache),
		executor.WithLogger(logger.Named("executor")),
		executor.WithTimeout(cfg.CommandTimeoutDuration()),
		executor.WithRetry(cfg.MaxRetries, cfg.RetryDelay()),
		executor.WithSpawnLimit(cfg.SpawnRate, 4),
		executor.WithSuccessFunc(successPolicy(cfg.SuccessPolicy)),
		executor.WithNotifier(func(text string) {
			select {
			case notices <- text:
			default:
			}
		}),
	)

	builder := fab.NewBuilder(cfg.Tool)
	svc := fab.NewService(builder, cmdExec, logger.Named("fab"))
	svc.SetRunTimeout(cfg.RunTimeoutDuration())

	poller := jobs.NewPoller(svc.PollStatus)
	poller.ActiveInterval, poller.IdleInterval = cfg.PollIntervals()

	opts := tui.ModelOptions{
		Backend: svc,
		History: store,
		Poller:  poller,
		Config:  cfg,
		Logger:  logger.Named("tui"),
		Notices: notices,
		OnConfig: func(c *config.Config) {
			cmdExec.SetMaxRetries(c.MaxRetries)
			cache.SetTTL(c.CacheTTL())
			logger.Debug("executor reconfigured",
				zap.Int("max_retries", c.MaxRetries),
				zap.Int("cached_listings", cache.Len()))
		},
	}

	watcher, err := config.NewWatcher(config.DefaultPath())
	if err != nil {
		logger.Warn("config hot reload disabled", zap.Error(err))
	} else {
		watcher.Start()
		logger.Info("watching config", zap.String("path", watcher.Path()))
		defer func() { _ = watcher.Stop() }()
		opts.Reloads = watcher.Reloads
		opts.ReloadErrors = watcher.Errors
	}

	program := tea.NewProgram(tui.NewModel(opts), tea.WithAltScreen())
	final, err := program.Run()
	if err != nil {
		return fmt.Errorf("running program: %w", err)
	}

	if m, ok := final.(tui.Model); ok && m.LoginRequested() {
		return login(builder, logger)
	}
	logger.Info("exiting")
	return nil
}

// successPolicy picks how a finished fab process is judged
func successPolicy(name string) executor.SuccessFunc {
	if name == "exit_code" {
		return executor.ExitCodeSuccess
	}
	return executor.StrictSuccess
}

// login hands the terminal to the interactive auth flow
func login(b fab.Builder, logger *zap.Logger) error {
	cmd := b.Login()
	logger.Info("running login", zap.String("command", cmd.String()))

	c := exec.CommandContext(context.Background(), cmd.Tool, cmd.Args...) //nolint:gosec // argv built by fab.Builder
	c.Env = append(os.Environ(), "FORCE_COLOR=1", "TERM=xterm-256color")
	c.Stdin = os.Stdin
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr

	if err := c.Run(); err != nil {
		logger.Warn("login failed", zap.Error(err))
		return fmt.Errorf("%s: %w", cmd.String(), err)
	}
	fmt.Printf("\nLogin finished. Run %s again to continue.\n", config.AppName)
	return nil
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `%[1]s is a terminal UI for the Microsoft Fabric CLI (fab).

Browse workspaces and items, start or run jobs, watch background jobs,
move and copy items, and review the commands it ran.

Configuration is read from ./config.yaml or %[2]s/config.yaml
and reloaded when the file changes. Logs are written to %[3]s.

Usage:
  %[1]s [flags]

Flags:
`, config.AppName, config.Dir(), config.LogPath())
	flagSet.SetOutput(os.Stderr)
	flagSet.PrintDefaults()
}
