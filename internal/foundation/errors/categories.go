package errors

import "maps"

// ErrorCategory represents the broad category of an error for classification and routing.
type ErrorCategory string

const (
	// CategoryValidation represents malformed or unusable request input.
	CategoryValidation ErrorCategory = "validation"
	// CategoryAuth represents missing or invalid credentials.
	CategoryAuth ErrorCategory = "auth"
	// CategoryForbidden represents requests rejected by policy: sandbox
	// violations and attempts to delete the workspace root.
	CategoryForbidden ErrorCategory = "forbidden"
	CategoryNotFound  ErrorCategory = "not_found"
	// CategoryConflict represents operations rejected by current state:
	// already-existing paths, already-running or not-running daemon.
	CategoryConflict ErrorCategory = "conflict"

	// CategoryDaemon represents supervisor failures (spawn, signal, pid file).
	CategoryDaemon     ErrorCategory = "daemon"
	CategoryFileSystem ErrorCategory = "filesystem"
	CategoryConfig     ErrorCategory = "config"
	CategoryInternal   ErrorCategory = "internal"
)

// ErrorSeverity indicates the impact level of an error.
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Stops execution completely
	SeverityError   ErrorSeverity = "error"   // Fails the current operation
	SeverityWarning ErrorSeverity = "warning" // Continues with degraded functionality
	SeverityInfo    ErrorSeverity = "info"    // Informational, no impact
)

// ErrorContext provides structured context for errors.
type ErrorContext map[string]any

// Set adds or updates a context value.
func (c ErrorContext) Set(key string, value any) ErrorContext {
	if c == nil {
		c = make(ErrorContext)
	}
	c[key] = value
	return c
}

// Get retrieves a context value.
func (c ErrorContext) Get(key string) (any, bool) {
	if c == nil {
		return nil, false
	}
	value, exists := c[key]
	return value, exists
}

// GetString retrieves a string context value.
func (c ErrorContext) GetString(key string) (string, bool) {
	if value, exists := c.Get(key); exists {
		if str, ok := value.(string); ok {
			return str, true
		}
	}
	return "", false
}

// Merge combines two contexts, with other taking precedence.
func (c ErrorContext) Merge(other ErrorContext) ErrorContext {
	if c == nil {
		return other
	}
	if other == nil {
		return c
	}
	result := make(ErrorContext)
	maps.Copy(result, c)
	maps.Copy(result, other)
	return result
}
