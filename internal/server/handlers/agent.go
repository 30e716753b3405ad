package handlers

import (
	"net/http"

	"github.com/Zaybrah/sleepless-agent/internal/eventstore"
	derrors "github.com/Zaybrah/sleepless-agent/internal/foundation/errors"
	"github.com/Zaybrah/sleepless-agent/internal/metrics"
	"github.com/Zaybrah/sleepless-agent/internal/server/responses"
	"github.com/Zaybrah/sleepless-agent/internal/supervisor"
)

// AgentController is the supervisor surface the agent endpoints need.
type AgentController interface {
	Status() (supervisor.Status, error)
	Start() (int, error)
	Stop() error
}

// AgentHandlers serves the daemon lifecycle endpoints.
type AgentHandlers struct {
	agent    AgentController
	adapter  *derrors.HTTPErrorAdapter
	recorder metrics.Recorder
	audit    *eventstore.Recorder
}

// NewAgentHandlers wires the daemon endpoints.
func NewAgentHandlers(agent AgentController, adapter *derrors.HTTPErrorAdapter, recorder metrics.Recorder, audit *eventstore.Recorder) *AgentHandlers {
	return &AgentHandlers{agent: agent, adapter: adapter, recorder: recorder, audit: audit}
}

// Status handles GET /api/agent/status.
func (h *AgentHandlers) Status(w http.ResponseWriter, r *http.Request) {
	st, err := h.agent.Status()
	if err != nil {
		h.adapter.WriteErrorResponse(w, r, err)
		return
	}

	h.recorder.SetDaemonUp(st.Running)
	resp := responses.AgentStatusResponse{Success: true, Running: st.Running}
	if st.Running {
		pid := st.PID
		resp.PID = &pid
	}
	_ = writeJSON(w, http.StatusOK, resp)
}

// Start handles POST /api/agent/start.
func (h *AgentHandlers) Start(w http.ResponseWriter, r *http.Request) {
	pid, err := h.agent.Start()
	if err != nil {
		h.recorder.IncDaemonOperation("start", false)
		h.adapter.WriteErrorResponse(w, r, err)
		return
	}

	h.recorder.IncDaemonOperation("start", true)
	h.recorder.SetDaemonUp(true)
	h.audit.DaemonStarted(r.Context(), pid)
	_ = writeJSON(w, http.StatusOK, responses.AgentStartResponse{Success: true, PID: pid})
}

// Stop handles POST /api/agent/stop.
func (h *AgentHandlers) Stop(w http.ResponseWriter, r *http.Request) {
	// Capture the pid before stopping so the audit trail can name it.
	var pid int
	if st, err := h.agent.Status(); err == nil {
		pid = st.PID
	}

	if err := h.agent.Stop(); err != nil {
		h.recorder.IncDaemonOperation("stop", false)
		h.adapter.WriteErrorResponse(w, r, err)
		return
	}

	h.recorder.IncDaemonOperation("stop", true)
	h.recorder.SetDaemonUp(false)
	h.audit.DaemonStopped(r.Context(), pid)
	_ = writeJSON(w, http.StatusOK, responses.OKResponse{Success: true})
}
