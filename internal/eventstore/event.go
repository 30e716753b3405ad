package eventstore

import "time"

// Audit event types recorded by the control panel.
const (
	TypeDaemonStarted = "daemon_started"
	TypeDaemonStopped = "daemon_stopped"
	TypeConfigUpdated = "config_updated"
	TypeFileWritten   = "file_written"
	TypeFileDeleted   = "file_deleted"
	TypeFolderCreated = "folder_created"
)

// Event is a single audit log entry. Details carry event-specific fields
// such as the affected path or the worker pid.
type Event struct {
	ID        int64             `json:"id"`
	Type      string            `json:"type"`
	Timestamp time.Time         `json:"timestamp"`
	Details   map[string]string `json:"details,omitempty"`
}
