// Package handlers implements the control panel's JSON API endpoints.
package handlers

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/Zaybrah/sleepless-agent/internal/logfields"
)

// writeJSON serializes the provided value to JSON and writes it with the given
// status code. It sets a consistent Content-Type header. Encoding is performed
// into an intermediate buffer so that we don't send partial responses if
// serialization fails.
func writeJSON(w http.ResponseWriter, status int, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(true)
	if err := enc.Encode(v); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Error("failed writing JSON response body", logfields.Error(err))
		return err
	}
	return nil
}
