package api

import (
	"encoding/json"
	"net/http"

	"github.com/RLabs-Inc/memory/internal/engine"
	"github.com/RLabs-Inc/memory/internal/models"
)

// Handler wires the HTTP surface to the Engine (spec.md §6).
type Handler struct {
	engine *engine.Engine
}

func NewHandler(eng *engine.Engine) *Handler {
	return &Handler{engine: eng}
}

// Health implements GET /health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.HealthResponse{Status: "ok", Engine: "memory"})
}

// Context implements POST /memory/context.
func (h *Handler) Context(w http.ResponseWriter, r *http.Request) {
	var req models.ContextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.SessionID == "" || req.ProjectID == "" {
		writeError(w, http.StatusBadRequest, "session_id and project_id are required")
		return
	}

	resp, err := h.engine.GetContext(r.Context(), req)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Process implements POST /memory/process.
func (h *Handler) Process(w http.ResponseWriter, r *http.Request) {
	var req models.ProcessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.SessionID == "" || req.ProjectID == "" {
		writeError(w, http.StatusBadRequest, "session_id and project_id are required")
		return
	}

	resp, err := h.engine.ProcessMessage(req)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Checkpoint implements POST /memory/checkpoint. trigger_curation is
// fire-and-forget from the caller's perspective, so the handler acks
// with 202 as soon as the request is validated (spec.md §4.4).
func (h *Handler) Checkpoint(w http.ResponseWriter, r *http.Request) {
	var req models.CheckpointRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.SessionID == "" || req.ProjectID == "" {
		writeError(w, http.StatusBadRequest, "session_id and project_id are required")
		return
	}
	if !req.Trigger.IsValid() {
		writeError(w, http.StatusBadRequest, "invalid trigger")
		return
	}

	h.engine.TriggerCuration(req)
	writeJSON(w, http.StatusAccepted, models.CheckpointResponse{Accepted: true})
}

// Stats implements GET /memory/stats?project_id=<id>.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	projectID := r.URL.Query().Get("project_id")
	if projectID == "" {
		writeError(w, http.StatusBadRequest, "project_id is required")
		return
	}

	resp, err := h.engine.Stats(projectID)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
