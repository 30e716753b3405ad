package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyPath       = "path"
	KeyPID        = "pid"
	KeyMethod     = "method"
	KeyStatus     = "status"
	KeyDurationMS = "duration_ms"
	KeyUserAgent  = "user_agent"
	KeyRemoteAddr = "remote_addr"
	KeyUsername   = "username"
	KeyWorkspace  = "workspace"
	KeyConfigPath = "config_path"
	KeyEvent      = "event"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func PID(pid int) slog.Attr           { return slog.Int(KeyPID, pid) }
func Method(m string) slog.Attr       { return slog.String(KeyMethod, m) }
func Status(code int) slog.Attr       { return slog.Int(KeyStatus, code) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func UserAgent(ua string) slog.Attr   { return slog.String(KeyUserAgent, ua) }
func RemoteAddr(a string) slog.Attr   { return slog.String(KeyRemoteAddr, a) }
func Username(u string) slog.Attr     { return slog.String(KeyUsername, u) }
func Workspace(w string) slog.Attr    { return slog.String(KeyWorkspace, w) }
func ConfigPath(p string) slog.Attr   { return slog.String(KeyConfigPath, p) }
func Event(e string) slog.Attr        { return slog.String(KeyEvent, e) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
