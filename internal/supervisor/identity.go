package supervisor

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Identity is the persisted belief that a specific OS process is the managed
// worker. At most one identity exists at a time; it is never trusted without
// re-checking liveness against the OS.
type Identity struct {
	PID       int       `json:"pid"`
	Token     string    `json:"token,omitempty"`
	Command   string    `json:"command"`
	StartedAt time.Time `json:"started_at"`
}

// readIdentity loads the pid file. A missing or unparseable file means no
// identity is persisted.
func readIdentity(path string) (*Identity, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var id Identity
	if err := json.Unmarshal(data, &id); err != nil {
		return nil, fmt.Errorf("parse pid file %s: %w", path, err)
	}
	if id.PID <= 0 {
		return nil, fmt.Errorf("pid file %s holds invalid pid %d", path, id.PID)
	}
	return &id, nil
}

// writeIdentity persists the pid file.
func writeIdentity(path string, id Identity) error {
	data, err := json.MarshalIndent(id, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// clearIdentity removes the pid file. Removing an absent file is not an error.
func clearIdentity(path string) {
	_ = os.Remove(path)
}
