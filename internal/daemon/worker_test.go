package daemon

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zaybrah/sleepless-agent/internal/config"
)

func writeConfig(t *testing.T, dir, workspace, heartbeat string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	content := "agent:\n  workspace_root: " + workspace + "\n"
	if heartbeat != "" {
		content += "  heartbeat_interval: " + heartbeat + "\n"
	}
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestNewWorkerLoadsConfig(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "/tmp/ws", "45s")

	w, err := NewWorker(path, dir)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/ws", w.Config().Agent.WorkspaceRoot)
	assert.Equal(t, 45*time.Second, w.Config().Agent.Heartbeat())
}

func TestNewWorkerMissingConfig(t *testing.T) {
	_, err := NewWorker(filepath.Join(t.TempDir(), "absent.yaml"), t.TempDir())
	assert.Error(t, err)
}

func TestWorkerRunWritesHeartbeat(t *testing.T) {
	dir := t.TempDir()
	stateDir := t.TempDir()
	path := writeConfig(t, dir, "/tmp/ws", "1h")

	w, err := NewWorker(path, stateDir)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Run issues an immediate heartbeat on startup.
	require.Eventually(t, func() bool {
		_, err := os.Stat(filepath.Join(stateDir, heartbeatFileName))
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not shut down")
	}
}

func TestWorkerReloadConfigReschedulesHeartbeat(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "/tmp/ws", "1h")

	w, err := NewWorker(path, t.TempDir())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.Eventually(t, func() bool {
		return len(w.scheduler.Jobs()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	newCfg, err := config.Load(writeConfig(t, t.TempDir(), "/tmp/other", "30m"))
	require.NoError(t, err)
	require.NoError(t, w.ReloadConfig(ctx, newCfg))

	assert.Equal(t, 30*time.Minute, w.Config().Agent.Heartbeat())
	assert.Equal(t, "/tmp/other", w.Config().Agent.WorkspaceRoot)
}

type recordingReloader struct {
	mu   sync.Mutex
	cfgs []*config.Config
}

func (r *recordingReloader) ReloadConfig(_ context.Context, cfg *config.Config) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cfgs = append(r.cfgs, cfg)
	return nil
}

func (r *recordingReloader) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.cfgs)
}

func (r *recordingReloader) last() *config.Config {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.cfgs) == 0 {
		return nil
	}
	return r.cfgs[len(r.cfgs)-1]
}

func TestConfigWatcherReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "/tmp/ws", "1h")

	target := &recordingReloader{}
	cw, err := NewConfigWatcher(path, target)
	require.NoError(t, err)
	cw.debounceTime = 50 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, cw.Start(ctx))
	t.Cleanup(func() { _ = cw.Stop(context.Background()) })

	writeConfig(t, dir, "/tmp/changed", "1h")

	require.Eventually(t, func() bool {
		return target.count() >= 1
	}, 3*time.Second, 20*time.Millisecond)
	assert.Equal(t, "/tmp/changed", target.last().Agent.WorkspaceRoot)
}

func TestConfigWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "/tmp/ws", "1h")

	target := &recordingReloader{}
	cw, err := NewConfigWatcher(path, target)
	require.NoError(t, err)
	cw.debounceTime = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, cw.Start(ctx))
	t.Cleanup(func() { _ = cw.Stop(context.Background()) })

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, 0, target.count())
}
