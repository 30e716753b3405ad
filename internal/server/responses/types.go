// Package responses defines the JSON success envelopes used by the control
// panel API. Every payload carries success=true; failures are produced by the
// HTTP error adapter instead.
package responses

import (
	"time"

	"github.com/Zaybrah/sleepless-agent/internal/eventstore"
	"github.com/Zaybrah/sleepless-agent/internal/workspace"
)

// AgentStatusResponse reports whether the worker is running. PID is null when
// stopped.
type AgentStatusResponse struct {
	Success bool `json:"success"`
	Running bool `json:"running"`
	PID     *int `json:"pid"`
}

// AgentStartResponse reports the pid of a freshly started worker.
type AgentStartResponse struct {
	Success bool `json:"success"`
	PID     int  `json:"pid"`
}

// OKResponse is the bare success envelope, optionally with a human message.
type OKResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// FileInfoResponse is the browse result for a file target.
type FileInfoResponse struct {
	Success bool   `json:"success"`
	Type    string `json:"type"`
	Name    string `json:"name"`
	Path    string `json:"path"`
	Size    int64  `json:"size"`
}

// DirectoryListingResponse is the browse result for a directory target.
type DirectoryListingResponse struct {
	Success bool              `json:"success"`
	Type    string            `json:"type"`
	Path    string            `json:"path"`
	Items   []workspace.Entry `json:"items"`
}

// FileContentResponse carries the full UTF-8 content of a file.
type FileContentResponse struct {
	Success bool   `json:"success"`
	Content string `json:"content"`
	Path    string `json:"path"`
	Size    int64  `json:"size"`
}

// PathResponse acknowledges a mutation with the affected relative path.
type PathResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Path    string `json:"path"`
}

// ConfigResponse carries the raw configuration document.
type ConfigResponse struct {
	Success bool           `json:"success"`
	Config  map[string]any `json:"config"`
}

// EventsResponse carries recent audit events, newest first.
type EventsResponse struct {
	Success bool              `json:"success"`
	Events  []eventstore.Event `json:"events"`
}

// HealthResponse is the liveness probe response.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
	Uptime    float64   `json:"uptime"`
}
