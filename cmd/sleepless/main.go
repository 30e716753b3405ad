package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/Zaybrah/sleepless-agent/internal/config"
	"github.com/Zaybrah/sleepless-agent/internal/daemon"
	"github.com/Zaybrah/sleepless-agent/internal/eventstore"
	"github.com/Zaybrah/sleepless-agent/internal/foundation/errors"
	"github.com/Zaybrah/sleepless-agent/internal/metrics"
	"github.com/Zaybrah/sleepless-agent/internal/server/httpserver"
	"github.com/Zaybrah/sleepless-agent/internal/supervisor"
	"github.com/Zaybrah/sleepless-agent/internal/version"
	"github.com/Zaybrah/sleepless-agent/internal/workspace"
)

const auditDBName = "panel.db"

var CLI struct {
	Config  string `short:"c" help:"Configuration file path (defaults to ~/.sleepless-agent/config.yaml)"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Serve struct {
		Host string `help:"Listen address override"`
		Port int    `help:"Listen port override"`
	} `cmd:"" default:"1" help:"Run the web control panel"`

	Daemon struct{} `cmd:"" help:"Run the agent worker process"`

	Init struct {
		Force bool `help:"Overwrite existing configuration file"`
	} `cmd:"" help:"Write a default configuration file"`

	Version struct{} `cmd:"" help:"Print version information"`
}

func main() {
	ctx := kong.Parse(&CLI)

	env := config.LoadEnvironment()

	logLevel := slog.LevelInfo
	if CLI.Verbose || env.Debug {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	adapter := errors.NewCLIErrorAdapter(CLI.Verbose, logger)

	var err error
	switch ctx.Command() {
	case "serve":
		err = runServe(env)
	case "daemon":
		err = runDaemon()
	case "init":
		err = runInit()
	case "version":
		fmt.Printf("sleepless %s (built %s, commit %s)\n", version.Version, version.BuildTime, version.GitCommit)
	}
	if err != nil {
		adapter.HandleError(err)
		os.Exit(adapter.ExitCodeFor(err))
	}
}

// configPath resolves the configuration file location, materializing the
// default file when none exists yet.
func configPath() (string, error) {
	if CLI.Config != "" {
		return filepath.Abs(CLI.Config)
	}
	return config.Path()
}

// daemonCommand resolves the worker launch command. An empty configured
// command means this binary's own daemon subcommand.
func daemonCommand(cfg *config.Config) ([]string, error) {
	if len(cfg.Agent.DaemonCommand) > 0 {
		return cfg.Agent.DaemonCommand, nil
	}
	self, err := os.Executable()
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryDaemon, "resolve own executable").Build()
	}
	return []string{self, "daemon"}, nil
}

func runServe(env config.Environment) error {
	path, err := configPath()
	if err != nil {
		return errors.WrapError(err, errors.CategoryConfig, "resolve configuration path").Build()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return errors.WrapError(err, errors.CategoryConfig, "load configuration").Build()
	}
	if CLI.Serve.Host != "" {
		cfg.WebUI.Host = CLI.Serve.Host
	}
	if CLI.Serve.Port != 0 {
		cfg.WebUI.Port = CLI.Serve.Port
	}

	stateDir, err := config.StateDir()
	if err != nil {
		return errors.WrapError(err, errors.CategoryConfig, "resolve state directory").Build()
	}

	ws, err := workspace.NewService(cfg.Agent.WorkspaceRoot)
	if err != nil {
		return err
	}

	command, err := daemonCommand(cfg)
	if err != nil {
		return err
	}
	sup, err := supervisor.New(supervisor.Options{
		StateDir: stateDir,
		Command:  command,
	})
	if err != nil {
		return err
	}

	events, err := eventstore.NewSQLiteStore(filepath.Join(stateDir, auditDBName))
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "open audit store").Build()
	}
	defer func() { _ = events.Close() }()

	registry := prom.NewRegistry()
	recorder := metrics.NewPrometheusRecorder(registry)

	server := httpserver.New(cfg, httpserver.Options{
		Supervisor:  sup,
		Workspace:   ws,
		Events:      events,
		ConfigPath:  path,
		Credentials: env.Credentials,
		Recorder:    recorder,
		Registry:    registry,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	slog.Info("Configuration file", "config_path", path)
	if err := server.Start(ctx); err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "start control panel").Build()
	}

	<-ctx.Done()
	slog.Info("Shutdown signal received, stopping control panel...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Stop(shutdownCtx); err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "stop control panel").Build()
	}
	return nil
}

func runDaemon() error {
	path, err := configPath()
	if err != nil {
		return errors.WrapError(err, errors.CategoryConfig, "resolve configuration path").Build()
	}
	stateDir, err := config.StateDir()
	if err != nil {
		return errors.WrapError(err, errors.CategoryConfig, "resolve state directory").Build()
	}

	worker, err := daemon.NewWorker(path, stateDir)
	if err != nil {
		return errors.WrapError(err, errors.CategoryDaemon, "initialize worker").Build()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := worker.Run(ctx); err != nil {
		return errors.WrapError(err, errors.CategoryDaemon, "worker failed").Build()
	}
	return nil
}

func runInit() error {
	var path string
	var err error
	if CLI.Config != "" {
		path, err = filepath.Abs(CLI.Config)
	} else {
		path, err = config.DefaultPath()
	}
	if err != nil {
		return errors.WrapError(err, errors.CategoryConfig, "resolve configuration path").Build()
	}
	if err := config.WriteDefault(path, CLI.Init.Force); err != nil {
		return errors.WrapError(err, errors.CategoryConfig, "write default configuration").Build()
	}
	slog.Info("Configuration written", "config_path", path)
	return nil
}
