package supervisor

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

// EnvLaunchToken names the environment variable carrying the unique launch
// token injected into every worker this supervisor spawns. Token matching
// identifies the worker even after pid recycling would fool a bare pid check.
const EnvLaunchToken = "SLEEPLESS_LAUNCH_TOKEN"

// pidAlive probes a pid with signal 0. EPERM still means the process exists.
func pidAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := unix.Kill(pid, 0)
	return err == nil || errors.Is(err, unix.EPERM)
}

// cmdline returns the process's command line with NUL separators replaced by
// spaces, or "" if it cannot be read.
func (s *Supervisor) cmdline(pid int) string {
	data, err := os.ReadFile(filepath.Join(s.procRoot, strconv.Itoa(pid), "cmdline"))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(bytes.ReplaceAll(data, []byte{0}, []byte{' '})))
}

// environHasToken reports whether the process environment carries the given
// launch token. Reading another user's environ fails with EACCES; that is a
// non-match, not an error.
func (s *Supervisor) environHasToken(pid int, token string) bool {
	if token == "" {
		return false
	}
	data, err := os.ReadFile(filepath.Join(s.procRoot, strconv.Itoa(pid), "environ"))
	if err != nil {
		return false
	}
	want := EnvLaunchToken + "=" + token
	for _, entry := range bytes.Split(data, []byte{0}) {
		if string(entry) == want {
			return true
		}
	}
	return false
}

// scanBySignature walks the process table and collects pids whose command
// line contains the worker's invocation signature. The supervisor's own
// process never counts as the worker.
func (s *Supervisor) scanBySignature() ([]int, error) {
	entries, err := os.ReadDir(s.procRoot)
	if err != nil {
		return nil, err
	}

	self := os.Getpid()
	var matches []int
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		pid, err := strconv.Atoi(entry.Name())
		if err != nil || pid == self {
			continue
		}
		if strings.Contains(s.cmdline(pid), s.signature) {
			matches = append(matches, pid)
		}
	}
	return matches, nil
}
