// Package daemon implements the agent worker process that the control panel
// supervises. The worker keeps a heartbeat so the panel and operators can see
// it is alive, and reloads its configuration when the file changes on disk.
package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/Zaybrah/sleepless-agent/internal/config"
	"github.com/Zaybrah/sleepless-agent/internal/logfields"
)

const heartbeatFileName = "heartbeat"

// Worker is the long-running agent process.
type Worker struct {
	mu         sync.RWMutex
	cfg        *config.Config
	configPath string
	stateDir   string

	scheduler gocron.Scheduler
	watcher   *ConfigWatcher
}

// NewWorker loads configuration and prepares the worker. Nothing runs until
// Run is called.
func NewWorker(configPath, stateDir string) (*Worker, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}

	return &Worker{
		cfg:        cfg,
		configPath: configPath,
		stateDir:   stateDir,
		scheduler:  s,
	}, nil
}

// Config returns the currently applied configuration.
func (w *Worker) Config() *config.Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.cfg
}

// Run starts the heartbeat schedule and the config watcher, then blocks until
// the context is canceled. Shutdown is graceful: pending jobs finish and the
// watcher is closed before Run returns.
func (w *Worker) Run(ctx context.Context) error {
	interval := w.Config().Agent.Heartbeat()
	_, err := w.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(w.beat),
		gocron.WithName("heartbeat"),
	)
	if err != nil {
		return fmt.Errorf("failed to create heartbeat job: %w", err)
	}

	watcher, err := NewConfigWatcher(w.configPath, w)
	if err != nil {
		return fmt.Errorf("create config watcher: %w", err)
	}
	w.watcher = watcher
	if err := watcher.Start(ctx); err != nil {
		return fmt.Errorf("start config watcher: %w", err)
	}

	slog.Info("Agent worker running",
		logfields.ConfigPath(w.configPath),
		slog.Duration("heartbeat_interval", interval))
	w.scheduler.Start()
	w.beat()

	<-ctx.Done()

	slog.Info("Agent worker shutting down")
	if err := w.watcher.Stop(context.Background()); err != nil {
		slog.Error("Error stopping config watcher", logfields.Error(err))
	}
	if err := w.scheduler.Shutdown(); err != nil {
		return fmt.Errorf("scheduler shutdown: %w", err)
	}
	return nil
}

// beat records the worker's liveness in the state directory.
func (w *Worker) beat() {
	path := filepath.Join(w.stateDir, heartbeatFileName)
	stamp := time.Now().UTC().Format(time.RFC3339) + "\n"
	if err := os.WriteFile(path, []byte(stamp), 0o644); err != nil {
		slog.Warn("Failed to write heartbeat", logfields.Path(path), logfields.Error(err))
		return
	}
	slog.Debug("Heartbeat", logfields.Path(path))
}

// ReloadConfig applies a new configuration. A changed heartbeat interval is
// rescheduled live; a changed workspace root only takes effect on restart.
func (w *Worker) ReloadConfig(ctx context.Context, newCfg *config.Config) error {
	w.mu.Lock()
	oldCfg := w.cfg
	w.cfg = newCfg
	w.mu.Unlock()

	if newCfg.Agent.WorkspaceRoot != oldCfg.Agent.WorkspaceRoot {
		slog.Warn("Workspace root changed; restart the worker for it to take effect",
			logfields.Workspace(newCfg.Agent.WorkspaceRoot))
	}

	oldInterval := oldCfg.Agent.Heartbeat()
	newInterval := newCfg.Agent.Heartbeat()
	if newInterval != oldInterval {
		if err := w.rescheduleHeartbeat(newInterval); err != nil {
			return err
		}
		slog.Info("Heartbeat interval updated",
			slog.Duration("heartbeat_interval", newInterval))
	}
	return nil
}

func (w *Worker) rescheduleHeartbeat(interval time.Duration) error {
	for _, job := range w.scheduler.Jobs() {
		if job.Name() != "heartbeat" {
			continue
		}
		if err := w.scheduler.RemoveJob(job.ID()); err != nil {
			return fmt.Errorf("remove heartbeat job: %w", err)
		}
	}
	_, err := w.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(w.beat),
		gocron.WithName("heartbeat"),
	)
	if err != nil {
		return fmt.Errorf("failed to create heartbeat job: %w", err)
	}
	return nil
}
