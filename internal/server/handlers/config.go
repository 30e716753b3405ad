package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/Zaybrah/sleepless-agent/internal/config"
	"github.com/Zaybrah/sleepless-agent/internal/eventstore"
	derrors "github.com/Zaybrah/sleepless-agent/internal/foundation/errors"
	"github.com/Zaybrah/sleepless-agent/internal/server/responses"
)

// ConfigHandlers serves the raw YAML configuration document. The editor
// round-trips the whole mapping so unknown keys survive an update.
type ConfigHandlers struct {
	configPath string
	adapter    *derrors.HTTPErrorAdapter
	audit      *eventstore.Recorder
}

// NewConfigHandlers wires the config endpoints against the file at configPath.
func NewConfigHandlers(configPath string, adapter *derrors.HTTPErrorAdapter, audit *eventstore.Recorder) *ConfigHandlers {
	return &ConfigHandlers{configPath: configPath, adapter: adapter, audit: audit}
}

// Get handles GET /api/config.
func (h *ConfigHandlers) Get(w http.ResponseWriter, r *http.Request) {
	raw, err := config.LoadRaw(h.configPath)
	if err != nil {
		h.adapter.WriteErrorResponse(w, r,
			derrors.WrapError(err, derrors.CategoryConfig, "load configuration").Build())
		return
	}
	_ = writeJSON(w, http.StatusOK, responses.ConfigResponse{Success: true, Config: raw})
}

// Update handles POST /api/config. The body is {"config": {...}}; anything
// other than a mapping is rejected.
func (h *ConfigHandlers) Update(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Config map[string]any `json:"config"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.adapter.WriteErrorResponse(w, r, derrors.ValidationError("invalid config format").Build())
		return
	}
	if req.Config == nil {
		h.adapter.WriteErrorResponse(w, r, derrors.ValidationError("invalid config format").Build())
		return
	}

	if err := config.SaveRaw(req.Config, h.configPath); err != nil {
		h.adapter.WriteErrorResponse(w, r,
			derrors.WrapError(err, derrors.CategoryConfig, "save configuration").Build())
		return
	}

	h.audit.ConfigUpdated(r.Context(), h.configPath)
	_ = writeJSON(w, http.StatusOK, responses.OKResponse{
		Success: true,
		Message: "Configuration updated successfully",
	})
}
