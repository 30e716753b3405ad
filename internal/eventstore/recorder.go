package eventstore

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/Zaybrah/sleepless-agent/internal/logfields"
)

// Recorder provides typed, best-effort audit recording. A failed append is
// logged and swallowed: the panel never fails an operation because the audit
// trail could not be written.
type Recorder struct {
	store Store
}

// NewRecorder wraps a store. A nil store yields a recorder that drops
// everything, which keeps callers free of nil checks.
func NewRecorder(store Store) *Recorder {
	return &Recorder{store: store}
}

func (r *Recorder) record(ctx context.Context, eventType string, details map[string]string) {
	if r == nil || r.store == nil {
		return
	}
	if err := r.store.Append(ctx, eventType, details); err != nil {
		slog.Warn("Failed to record audit event",
			logfields.Event(eventType),
			logfields.Error(err))
	}
}

// DaemonStarted records a successful worker start.
func (r *Recorder) DaemonStarted(ctx context.Context, pid int) {
	r.record(ctx, TypeDaemonStarted, map[string]string{"pid": strconv.Itoa(pid)})
}

// DaemonStopped records a worker stop.
func (r *Recorder) DaemonStopped(ctx context.Context, pid int) {
	r.record(ctx, TypeDaemonStopped, map[string]string{"pid": strconv.Itoa(pid)})
}

// ConfigUpdated records a configuration change.
func (r *Recorder) ConfigUpdated(ctx context.Context, path string) {
	r.record(ctx, TypeConfigUpdated, map[string]string{"path": path})
}

// FileWritten records a workspace file write.
func (r *Recorder) FileWritten(ctx context.Context, path string) {
	r.record(ctx, TypeFileWritten, map[string]string{"path": path})
}

// FileDeleted records a workspace file or directory deletion.
func (r *Recorder) FileDeleted(ctx context.Context, path string) {
	r.record(ctx, TypeFileDeleted, map[string]string{"path": path})
}

// FolderCreated records a workspace directory creation.
func (r *Recorder) FolderCreated(ctx context.Context, path string) {
	r.record(ctx, TypeFolderCreated, map[string]string{"path": path})
}
