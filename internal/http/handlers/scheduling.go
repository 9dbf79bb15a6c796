package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/wolfman30/hospital-ai-scheduler/internal/decisions"
	"github.com/wolfman30/hospital-ai-scheduler/internal/ml"
	"github.com/wolfman30/hospital-ai-scheduler/internal/scheduler"
	"github.com/wolfman30/hospital-ai-scheduler/pkg/logging"
)

const dateLayout = "2006-01-02"

// SchedulingHandler handles HTTP requests for appointment decisions
type SchedulingHandler struct {
	scheduler *scheduler.Scheduler
	audit     decisions.Store
	logger    *logging.Logger
}

// NewSchedulingHandler creates a new scheduling handler
func NewSchedulingHandler(s *scheduler.Scheduler, audit decisions.Store, logger *logging.Logger) *SchedulingHandler {
	return &SchedulingHandler{
		scheduler: s,
		audit:     audit,
		logger:    logger,
	}
}

// ScheduleRequest is the request body for scheduling an appointment
type ScheduleRequest struct {
	PatientID       string      `json:"patient_id"`
	PatientFeatures ml.Features `json:"patient_features"`
	PreferredDoctor string      `json:"preferred_doctor,omitempty"`
	PreferredDate   string      `json:"preferred_date,omitempty"`
	PreferredTime   string      `json:"preferred_time,omitempty"`
	UrgencyScore    int         `json:"urgency_score,omitempty"`
	MedicalNotes    string      `json:"medical_notes,omitempty"`
}

// ScheduleAppointment handles POST /appointments/schedule requests
func (h *SchedulingHandler) ScheduleAppointment(w http.ResponseWriter, r *http.Request) {
	var req ScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode request", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.PatientID == "" {
		http.Error(w, "missing patient_id", http.StatusBadRequest)
		return
	}

	var preferredDate *time.Time
	if req.PreferredDate != "" {
		parsed, err := time.Parse(dateLayout, req.PreferredDate)
		if err != nil {
			http.Error(w, "invalid preferred_date, expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		preferredDate = &parsed
	}

	result := h.scheduler.ScheduleAppointment(r.Context(), req.PatientFeatures, scheduler.Request{
		PatientID:       req.PatientID,
		PreferredDoctor: req.PreferredDoctor,
		PreferredDate:   preferredDate,
		PreferredTime:   req.PreferredTime,
		UrgencyScore:    req.UrgencyScore,
		MedicalNotes:    req.MedicalNotes,
	})

	h.logger.Info("scheduling decision made",
		"patient_id", req.PatientID,
		"action", result.Action,
		"success", result.Success,
	)

	status := http.StatusOK
	if result.Action == "error" {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, result)
}

// CancelAppointment handles POST /appointments/{patientID}/cancel requests
func (h *SchedulingHandler) CancelAppointment(w http.ResponseWriter, r *http.Request) {
	patientID := chi.URLParam(r, "patientID")
	if patientID == "" {
		http.Error(w, "missing patient_id", http.StatusBadRequest)
		return
	}

	result := h.scheduler.HandleCancellation(r.Context(), patientID)
	status := http.StatusOK
	if !result.Success {
		status = http.StatusNotFound
	}
	writeJSON(w, status, result)
}

// GetRecommendations handles GET /patients/{patientID}/recommendations requests
func (h *SchedulingHandler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	patientID := chi.URLParam(r, "patientID")
	if patientID == "" {
		http.Error(w, "missing patient_id", http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, h.scheduler.PatientRecommendations(patientID))
}

// ListDecisionsResponse is the response for a patient's decision history
type ListDecisionsResponse struct {
	PatientID string              `json:"patient_id"`
	Decisions []*decisions.Record `json:"decisions"`
	Count     int                 `json:"count"`
}

// ListDecisions handles GET /patients/{patientID}/decisions requests
func (h *SchedulingHandler) ListDecisions(w http.ResponseWriter, r *http.Request) {
	patientID := chi.URLParam(r, "patientID")
	if patientID == "" {
		http.Error(w, "missing patient_id", http.StatusBadRequest)
		return
	}

	limit := 50
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 && parsed <= 200 {
			limit = parsed
		}
	}

	recs, err := h.audit.ListByPatient(r.Context(), patientID, limit)
	if err != nil {
		h.logger.Error("failed to list decisions", "error", err, "patient_id", patientID)
		http.Error(w, "failed to list decisions", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, ListDecisionsResponse{
		PatientID: patientID,
		Decisions: recs,
		Count:     len(recs),
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
