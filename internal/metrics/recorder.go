package metrics

import "time"

// Recorder defines observability hooks for the control panel. Implementations
// may forward to Prometheus, OpenTelemetry, etc. All methods must be safe for
// nil receivers when using the NoopRecorder (allowing optional injection).
type Recorder interface {
	IncHTTPRequest(path, method string, status int)
	ObserveHTTPDuration(path string, d time.Duration)
	IncDaemonOperation(operation string, success bool) // operation: start|stop
	SetDaemonUp(running bool)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) IncHTTPRequest(string, string, int)        {}
func (NoopRecorder) ObserveHTTPDuration(string, time.Duration) {}
func (NoopRecorder) IncDaemonOperation(string, bool)           {}
func (NoopRecorder) SetDaemonUp(bool)                          {}
