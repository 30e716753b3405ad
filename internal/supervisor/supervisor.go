// Package supervisor owns the lifecycle of the background worker process:
// detection, start, and stop. Detection always re-derives truth from the OS
// rather than trusting cached state; the pid file records belief, the process
// table decides.
package supervisor

import (
	stderrors "errors"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sys/unix"

	"github.com/Zaybrah/sleepless-agent/internal/foundation/errors"
	"github.com/Zaybrah/sleepless-agent/internal/logfields"
)

const (
	pidFileName   = "daemon.pid"
	stdoutLogName = "daemon_stdout.log"
	stderrLogName = "daemon_stderr.log"

	defaultStartGrace = 1 * time.Second
	defaultStopGrace  = 2 * time.Second

	// errorTailLines bounds how much of the stderr log a failed start
	// reports back to the operator.
	errorTailLines = 5
)

// Status is the detected worker state: Stopped, or Running with a pid.
type Status struct {
	Running bool
	PID     int
}

// Options configures a Supervisor.
type Options struct {
	// StateDir holds the pid file and the worker's stdout/stderr logs.
	StateDir string
	// Command is the worker invocation, executable first.
	Command []string
	// Signature identifies the worker among arbitrary processes by
	// command-line substring. Defaults to the command with the executable
	// reduced to its base name.
	Signature string
	// StartGrace and StopGrace are the fixed waits after spawning and
	// after SIGTERM respectively.
	StartGrace time.Duration
	StopGrace  time.Duration
	// ProcRoot overrides the process table location. Tests point it at a
	// fixture tree.
	ProcRoot string
}

// Supervisor manages a single out-of-process worker. Start and stop are
// serialized through one mutex per instance: concurrent requests cannot both
// observe Stopped and both spawn.
type Supervisor struct {
	mu sync.Mutex

	command    []string
	signature  string
	startGrace time.Duration
	stopGrace  time.Duration
	procRoot   string

	pidFile   string
	stdoutLog string
	stderrLog string
}

// New validates options and constructs a Supervisor.
func New(opts Options) (*Supervisor, error) {
	if opts.StateDir == "" {
		return nil, errors.ValidationError("state directory required").Build()
	}
	if len(opts.Command) == 0 {
		return nil, errors.ValidationError("worker command required").Build()
	}

	signature := opts.Signature
	if signature == "" {
		parts := append([]string{filepath.Base(opts.Command[0])}, opts.Command[1:]...)
		signature = strings.Join(parts, " ")
	}
	startGrace := opts.StartGrace
	if startGrace == 0 {
		startGrace = defaultStartGrace
	}
	stopGrace := opts.StopGrace
	if stopGrace == 0 {
		stopGrace = defaultStopGrace
	}
	procRoot := opts.ProcRoot
	if procRoot == "" {
		procRoot = "/proc"
	}

	return &Supervisor{
		command:    opts.Command,
		signature:  signature,
		startGrace: startGrace,
		stopGrace:  stopGrace,
		procRoot:   procRoot,
		pidFile:    filepath.Join(opts.StateDir, pidFileName),
		stdoutLog:  filepath.Join(opts.StateDir, stdoutLogName),
		stderrLog:  filepath.Join(opts.StateDir, stderrLogName),
	}, nil
}

// Status reports whether the worker is running, re-deriving the answer from
// the OS on every call.
func (s *Supervisor) Status() (Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.detect()
}

// detect implements the two-step detection: trust the pid file only after a
// liveness and identity re-check, then fall back to a full process scan for
// workers started outside this supervisor. Callers hold s.mu.
func (s *Supervisor) detect() (Status, error) {
	if id, err := readIdentity(s.pidFile); err == nil {
		if s.isWorker(id.PID, id.Token) {
			return Status{Running: true, PID: id.PID}, nil
		}
	}

	matches, err := s.scanBySignature()
	if err != nil {
		return Status{}, errors.WrapError(err, errors.CategoryDaemon, "scan process table").Build()
	}
	switch len(matches) {
	case 0:
		return Status{}, nil
	case 1:
		return Status{Running: true, PID: matches[0]}, nil
	default:
		// Two installations matching the same signature cannot be told
		// apart; refusing is the only safe answer.
		return Status{}, errors.DaemonError("multiple processes match the worker signature").
			WithContext("pids", matches).
			Build()
	}
}

// isWorker decides whether pid is our worker: it must be alive and carry the
// launch token, or failing that, match the invocation signature. A recycled
// pid fails both checks.
func (s *Supervisor) isWorker(pid int, token string) bool {
	if !pidAlive(pid) {
		return false
	}
	if s.environHasToken(pid, token) {
		return true
	}
	return strings.Contains(s.cmdline(pid), s.signature)
}

// Start spawns the worker as a fully detached child, waits the start grace
// interval, and verifies the worker actually came up before persisting its
// identity. A failed start leaves the supervisor Stopped.
func (s *Supervisor) Start() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.detect()
	if err != nil {
		return 0, err
	}
	if st.Running {
		return 0, errors.ConflictError("agent is already running").
			WithContext("pid", st.PID).
			Build()
	}

	if err := os.MkdirAll(filepath.Dir(s.pidFile), 0o755); err != nil {
		return 0, errors.WrapError(err, errors.CategoryDaemon, "create state directory").Build()
	}

	stdout, err := os.OpenFile(s.stdoutLog, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return 0, errors.WrapError(err, errors.CategoryDaemon, "open stdout log").Build()
	}
	defer stdout.Close()
	stderr, err := os.OpenFile(s.stderrLog, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return 0, errors.WrapError(err, errors.CategoryDaemon, "open stderr log").Build()
	}
	defer stderr.Close()

	token := uuid.NewString()
	cmd := exec.Command(s.command[0], s.command[1:]...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.Env = append(os.Environ(), EnvLaunchToken+"="+token)
	// Own session so the worker outlives this process and never receives
	// terminal signals sent to it.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := cmd.Start(); err != nil {
		return 0, errors.WrapError(err, errors.CategoryDaemon, "failed to start agent").Build()
	}
	pid := cmd.Process.Pid
	_ = cmd.Process.Release()

	time.Sleep(s.startGrace)

	if !s.isWorker(pid, token) {
		return 0, errors.DaemonError(s.startFailureMessage()).Build()
	}

	id := Identity{
		PID:       pid,
		Token:     token,
		Command:   strings.Join(s.command, " "),
		StartedAt: time.Now().UTC(),
	}
	if err := writeIdentity(s.pidFile, id); err != nil {
		slog.Warn("Failed to persist daemon identity", logfields.Error(err))
	}

	slog.Info("Agent daemon started",
		logfields.PID(pid),
		logfields.Path(s.stdoutLog))
	return pid, nil
}

// Stop terminates the detected worker: SIGTERM, a fixed grace interval, then
// SIGKILL if it is still alive. The persisted identity is cleared on every
// path; a process that vanished on its own counts as a successful stop.
func (s *Supervisor) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.detect()
	if err != nil {
		return err
	}
	if !st.Running {
		return errors.ConflictError("agent is not running").Build()
	}

	if err := unix.Kill(st.PID, unix.SIGTERM); err != nil && !stderrors.Is(err, unix.ESRCH) {
		clearIdentity(s.pidFile)
		return errors.WrapError(err, errors.CategoryDaemon, "signal agent").
			WithContext("pid", st.PID).
			Build()
	}

	time.Sleep(s.stopGrace)

	if pidAlive(st.PID) {
		_ = unix.Kill(st.PID, unix.SIGKILL)
	}

	clearIdentity(s.pidFile)
	slog.Info("Agent daemon stopped", logfields.PID(st.PID))
	return nil
}

// startFailureMessage enriches a failed start with the tail of the stderr log.
func (s *Supervisor) startFailureMessage() string {
	msg := "failed to start agent"
	tail := tailLines(s.stderrLog, errorTailLines)
	if len(tail) > 0 {
		msg += ". Recent errors: " + strings.Join(tail, "; ")
	}
	return msg
}

// tailLines returns up to n trailing non-empty lines of the file at path.
func tailLines(path string, n int) []string {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	var out []string
	for _, line := range lines {
		if strings.TrimSpace(line) != "" {
			out = append(out, line)
		}
	}
	if len(out) > n {
		out = out[len(out)-n:]
	}
	return out
}
