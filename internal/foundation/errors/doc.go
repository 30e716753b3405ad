// Package errors provides foundational, type-safe error primitives used across the panel.
//
// This package contains classified error types and helpers for robust error handling,
// including a fluent builder API for constructing ClassifiedError values with context.
//
// Key features:
//   - ErrorCategory: Broad error classification (validation, auth, forbidden, daemon, etc.)
//   - ErrorSeverity: Impact level (error, warning, info)
//   - ClassifiedError: Structured error with category, severity, and context
//   - ErrorBuilder: Fluent API for creating classified errors
//   - HTTP and CLI adapters for error presentation
//
// Example usage:
//
//	err := errors.NewError(errors.CategoryDaemon, "start failed").
//		WithSeverity(errors.SeverityError).
//		WithContext("pid_file", pidPath).
//		Build()
package errors
