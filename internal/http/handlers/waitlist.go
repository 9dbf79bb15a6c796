package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/wolfman30/hospital-ai-scheduler/internal/scheduler"
	"github.com/wolfman30/hospital-ai-scheduler/internal/waitlist"
	"github.com/wolfman30/hospital-ai-scheduler/pkg/logging"
)

// WaitlistHandler handles HTTP requests for the waitlist
type WaitlistHandler struct {
	scheduler *scheduler.Scheduler
	manager   *waitlist.Manager
	logger    *logging.Logger
}

// NewWaitlistHandler creates a new waitlist handler
func NewWaitlistHandler(s *scheduler.Scheduler, manager *waitlist.Manager, logger *logging.Logger) *WaitlistHandler {
	return &WaitlistHandler{
		scheduler: s,
		manager:   manager,
		logger:    logger,
	}
}

// ListWaitlistResponse is the response for listing waiting patients
type ListWaitlistResponse struct {
	Patients   []*waitlist.Entry   `json:"patients"`
	Count      int                 `json:"count"`
	Statistics waitlist.Statistics `json:"statistics"`
}

// ListWaitlist handles GET /waitlist requests
func (h *WaitlistHandler) ListWaitlist(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 && parsed <= 200 {
			limit = parsed
		}
	}

	patients := h.manager.TopPatients(limit)
	writeJSON(w, http.StatusOK, ListWaitlistResponse{
		Patients:   patients,
		Count:      len(patients),
		Statistics: h.manager.Statistics(),
	})
}

// ProcessFill handles POST /waitlist/fill requests
func (h *WaitlistHandler) ProcessFill(w http.ResponseWriter, r *http.Request) {
	result := h.scheduler.ProcessWaitlistFill(r.Context())
	h.logger.Info("waitlist fill processed", "filled_slots", result.FilledSlots)
	writeJSON(w, http.StatusOK, result)
}

// ContactScheduleResponse lists patients due for a contact attempt
type ContactScheduleResponse struct {
	Due   map[string]time.Time `json:"due_contacts"`
	Count int                  `json:"count"`
}

// GetContactSchedule handles GET /waitlist/contacts requests
func (h *WaitlistHandler) GetContactSchedule(w http.ResponseWriter, r *http.Request) {
	due := h.manager.ContactSchedule()
	writeJSON(w, http.StatusOK, ContactScheduleResponse{
		Due:   due,
		Count: len(due),
	})
}

// RecordContactRequest is the request body for recording a contact attempt
type RecordContactRequest struct {
	Success bool `json:"success"`
}

// RecordContact handles POST /waitlist/{patientID}/contact requests
func (h *WaitlistHandler) RecordContact(w http.ResponseWriter, r *http.Request) {
	patientID := chi.URLParam(r, "patientID")
	if patientID == "" {
		http.Error(w, "missing patient_id", http.StatusBadRequest)
		return
	}

	var req RecordContactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if !h.manager.RecordContactAttempt(patientID, req.Success) {
		http.Error(w, "patient not on waitlist", http.StatusNotFound)
		return
	}

	entry, _ := h.manager.Get(patientID)
	writeJSON(w, http.StatusOK, entry)
}

// UpdatePriorityRequest is the request body for updating waitlist priority
type UpdatePriorityRequest struct {
	NoShowProbability *float64 `json:"no_show_probability,omitempty"`
	UrgencyScore      *int     `json:"urgency_score,omitempty"`
}

// UpdatePriority handles PUT /waitlist/{patientID}/priority requests
func (h *WaitlistHandler) UpdatePriority(w http.ResponseWriter, r *http.Request) {
	patientID := chi.URLParam(r, "patientID")
	if patientID == "" {
		http.Error(w, "missing patient_id", http.StatusBadRequest)
		return
	}

	var req UpdatePriorityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.NoShowProbability == nil && req.UrgencyScore == nil {
		http.Error(w, "nothing to update", http.StatusBadRequest)
		return
	}

	if !h.manager.UpdatePriority(patientID, req.NoShowProbability, req.UrgencyScore) {
		http.Error(w, "patient not on waitlist", http.StatusNotFound)
		return
	}

	entry, _ := h.manager.Get(patientID)
	writeJSON(w, http.StatusOK, entry)
}

// RemovePatient handles DELETE /waitlist/{patientID} requests
func (h *WaitlistHandler) RemovePatient(w http.ResponseWriter, r *http.Request) {
	patientID := chi.URLParam(r, "patientID")
	if patientID == "" {
		http.Error(w, "missing patient_id", http.StatusBadRequest)
		return
	}

	if !h.manager.Remove(patientID) {
		http.Error(w, "patient not on waitlist", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
