package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/wolfman30/hospital-ai-scheduler/internal/scheduler"
	"github.com/wolfman30/hospital-ai-scheduler/pkg/logging"
)

// SystemHandler handles HTTP requests for system-wide state
type SystemHandler struct {
	scheduler *scheduler.Scheduler
	logger    *logging.Logger
}

// NewSystemHandler creates a new system handler
func NewSystemHandler(s *scheduler.Scheduler, logger *logging.Logger) *SystemHandler {
	return &SystemHandler{
		scheduler: s,
		logger:    logger,
	}
}

// GetStatus handles GET /status requests
func (h *SystemHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.scheduler.SystemStatus())
}

// GetConfig handles GET /config requests
func (h *SystemHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.scheduler.CurrentConfig())
}

// UpdateConfig handles PUT /config requests
func (h *SystemHandler) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	cfg := h.scheduler.CurrentConfig()
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	h.scheduler.UpdateConfig(cfg)
	writeJSON(w, http.StatusOK, cfg)
}

// ExportData handles POST /export requests
func (h *SystemHandler) ExportData(w http.ResponseWriter, r *http.Request) {
	export, err := h.scheduler.ExportData(r.Context())
	if err != nil {
		h.logger.Error("export failed", "error", err)
		http.Error(w, "export failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, export)
}

// HealthCheck handles GET /health requests
func (h *SystemHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}
