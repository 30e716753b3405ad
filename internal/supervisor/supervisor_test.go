package supervisor

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zaybrah/sleepless-agent/internal/foundation/errors"
)

func newTestSupervisor(t *testing.T, opts Options) *Supervisor {
	t.Helper()
	if opts.StateDir == "" {
		opts.StateDir = t.TempDir()
	}
	if opts.StartGrace == 0 {
		opts.StartGrace = 100 * time.Millisecond
	}
	if opts.StopGrace == 0 {
		opts.StopGrace = 100 * time.Millisecond
	}
	sup, err := New(opts)
	require.NoError(t, err)
	return sup
}

// fakeProc builds a fixture process table with the given pid → command line
// entries.
func fakeProc(t *testing.T, procs map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for pid, cmdline := range procs {
		dir := filepath.Join(root, pid)
		require.NoError(t, os.Mkdir(dir, 0o755))
		nulSeparated := strings.ReplaceAll(cmdline, " ", "\x00") + "\x00"
		require.NoError(t, os.WriteFile(filepath.Join(dir, "cmdline"), []byte(nulSeparated), 0o644))
	}
	return root
}

// exitedPID returns the pid of a process that has already terminated.
func exitedPID(t *testing.T) int {
	t.Helper()
	cmd := exec.Command("/bin/true")
	require.NoError(t, cmd.Start())
	require.NoError(t, cmd.Wait())
	return cmd.Process.Pid
}

func TestNewValidation(t *testing.T) {
	_, err := New(Options{Command: []string{"sle", "daemon"}})
	assert.Error(t, err)

	_, err = New(Options{StateDir: t.TempDir()})
	assert.Error(t, err)
}

func TestNewDerivesSignature(t *testing.T) {
	sup := newTestSupervisor(t, Options{Command: []string{"/usr/local/bin/sle", "daemon"}})
	assert.Equal(t, "sle daemon", sup.signature)
}

func TestStatusStoppedWhenNothingMatches(t *testing.T) {
	sup := newTestSupervisor(t, Options{
		Command:  []string{"sle", "daemon"},
		ProcRoot: fakeProc(t, map[string]string{"300": "/usr/bin/bash -l"}),
	})

	st, err := sup.Status()
	require.NoError(t, err)
	assert.False(t, st.Running)
}

func TestStatusFindsWorkerBySignatureScan(t *testing.T) {
	sup := newTestSupervisor(t, Options{
		Command: []string{"sle", "daemon"},
		ProcRoot: fakeProc(t, map[string]string{
			"300": "/usr/bin/bash -l",
			"415": "/usr/local/bin/sle daemon",
		}),
	})

	st, err := sup.Status()
	require.NoError(t, err)
	assert.True(t, st.Running)
	assert.Equal(t, 415, st.PID)
}

func TestStatusAmbiguousMatchesError(t *testing.T) {
	sup := newTestSupervisor(t, Options{
		Command: []string{"sle", "daemon"},
		ProcRoot: fakeProc(t, map[string]string{
			"415": "/usr/local/bin/sle daemon",
			"612": "/opt/other/sle daemon",
		}),
	})

	_, err := sup.Status()
	assert.True(t, errors.HasCategory(err, errors.CategoryDaemon))
}

func TestStalePidFileFallsThroughToScan(t *testing.T) {
	stateDir := t.TempDir()
	sup := newTestSupervisor(t, Options{
		StateDir: stateDir,
		Command:  []string{"sle", "daemon"},
		ProcRoot: fakeProc(t, nil),
	})

	// The recorded process died without cleaning up its pid file.
	stale := Identity{PID: exitedPID(t), Command: "sle daemon", StartedAt: time.Now()}
	require.NoError(t, writeIdentity(sup.pidFile, stale))

	st, err := sup.Status()
	require.NoError(t, err)
	assert.False(t, st.Running)
}

func TestPidFileTrustedAfterIdentityRecheck(t *testing.T) {
	selfCmdline, err := os.ReadFile("/proc/self/cmdline")
	require.NoError(t, err)
	signature := strings.TrimSpace(strings.ReplaceAll(string(selfCmdline), "\x00", " "))

	sup := newTestSupervisor(t, Options{
		Command:   []string{"irrelevant"},
		Signature: signature,
	})
	require.NoError(t, writeIdentity(sup.pidFile, Identity{PID: os.Getpid(), StartedAt: time.Now()}))

	st, err := sup.Status()
	require.NoError(t, err)
	assert.True(t, st.Running)
	assert.Equal(t, os.Getpid(), st.PID)
}

func TestStartStopLifecycle(t *testing.T) {
	sup := newTestSupervisor(t, Options{Command: []string{"/bin/sleep", "60"}})
	t.Cleanup(func() { _ = sup.Stop() })

	pid, err := sup.Start()
	require.NoError(t, err)
	assert.Greater(t, pid, 0)

	id, err := readIdentity(sup.pidFile)
	require.NoError(t, err)
	assert.Equal(t, pid, id.PID)
	assert.NotEmpty(t, id.Token)

	// The launch token identifies the spawned process directly.
	assert.True(t, sup.environHasToken(pid, id.Token))

	st, err := sup.Status()
	require.NoError(t, err)
	assert.True(t, st.Running)
	assert.Equal(t, pid, st.PID)

	_, err = sup.Start()
	assert.True(t, errors.HasCategory(err, errors.CategoryConflict))

	require.NoError(t, sup.Stop())

	_, err = readIdentity(sup.pidFile)
	assert.Error(t, err)

	st, err = sup.Status()
	require.NoError(t, err)
	assert.False(t, st.Running)

	err = sup.Stop()
	assert.True(t, errors.HasCategory(err, errors.CategoryConflict))
}

func TestConcurrentStartsSpawnOnce(t *testing.T) {
	sup := newTestSupervisor(t, Options{Command: []string{"/bin/sleep", "60"}})
	t.Cleanup(func() { _ = sup.Stop() })

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = sup.Start()
		}(i)
	}
	wg.Wait()

	var successes, conflicts int
	for _, err := range results {
		switch {
		case err == nil:
			successes++
		case errors.HasCategory(err, errors.CategoryConflict):
			conflicts++
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, conflicts)
}

func TestStartFailureReportsStderrTail(t *testing.T) {
	sup := newTestSupervisor(t, Options{
		Command: []string{"/bin/sh", "-c", "echo disk is on fire >&2; exit 1"},
	})

	_, err := sup.Start()
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryDaemon))
	assert.Contains(t, err.Error(), "disk is on fire")

	st, serr := sup.Status()
	require.NoError(t, serr)
	assert.False(t, st.Running)
}

func TestTailLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "err.log")
	require.NoError(t, os.WriteFile(path, []byte("one\ntwo\n\nthree\nfour\nfive\nsix\nseven\n"), 0o644))

	tail := tailLines(path, 5)
	assert.Equal(t, []string{"three", "four", "five", "six", "seven"}, tail)

	assert.Nil(t, tailLines(filepath.Join(t.TempDir(), "missing.log"), 5))
}

func TestIdentityRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "daemon.pid")
	id := Identity{PID: 4321, Token: "tok", Command: "sle daemon", StartedAt: time.Now().UTC().Truncate(time.Second)}

	require.NoError(t, writeIdentity(path, id))
	got, err := readIdentity(path)
	require.NoError(t, err)
	assert.Equal(t, id.PID, got.PID)
	assert.Equal(t, id.Token, got.Token)

	clearIdentity(path)
	_, err = readIdentity(path)
	assert.Error(t, err)

	// Clearing twice is harmless.
	clearIdentity(path)
}

func TestInvalidPidFileRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "daemon.pid")
	require.NoError(t, os.WriteFile(path, []byte("{\"pid\": 0}"), 0o644))

	_, err := readIdentity(path)
	assert.Error(t, err)
}
