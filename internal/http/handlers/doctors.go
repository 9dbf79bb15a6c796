package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/wolfman30/hospital-ai-scheduler/internal/slots"
	"github.com/wolfman30/hospital-ai-scheduler/pkg/logging"
)

// DoctorsHandler handles HTTP requests for doctor schedules
type DoctorsHandler struct {
	optimizer *slots.Optimizer
	logger    *logging.Logger
}

// NewDoctorsHandler creates a new doctors handler
func NewDoctorsHandler(optimizer *slots.Optimizer, logger *logging.Logger) *DoctorsHandler {
	return &DoctorsHandler{
		optimizer: optimizer,
		logger:    logger,
	}
}

// RegisterScheduleRequest is the request body for registering a schedule
type RegisterScheduleRequest struct {
	StartDate           string `json:"start_date"`
	EndDate             string `json:"end_date"`
	StartHour           int    `json:"start_hour,omitempty"`
	EndHour             int    `json:"end_hour,omitempty"`
	SlotDurationMinutes int    `json:"slot_duration_minutes,omitempty"`
	MaxCapacity         int    `json:"max_capacity,omitempty"`
}

// RegisterScheduleResponse reports how many slots were created
type RegisterScheduleResponse struct {
	DoctorID     string `json:"doctor_id"`
	SlotsCreated int    `json:"slots_created"`
}

// RegisterSchedule handles POST /doctors/{doctorID}/schedule requests
func (h *DoctorsHandler) RegisterSchedule(w http.ResponseWriter, r *http.Request) {
	doctorID := chi.URLParam(r, "doctorID")
	if doctorID == "" {
		http.Error(w, "missing doctor_id", http.StatusBadRequest)
		return
	}

	var req RegisterScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode request", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	startDate, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		http.Error(w, "invalid start_date, expected YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	endDate, err := time.Parse(dateLayout, req.EndDate)
	if err != nil {
		http.Error(w, "invalid end_date, expected YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	if endDate.Before(startDate) {
		http.Error(w, "end_date before start_date", http.StatusBadRequest)
		return
	}

	created := h.optimizer.RegisterSchedule(slots.ScheduleInput{
		DoctorID:     doctorID,
		StartDate:    startDate,
		EndDate:      endDate,
		StartHour:    req.StartHour,
		EndHour:      req.EndHour,
		SlotDuration: time.Duration(req.SlotDurationMinutes) * time.Minute,
		MaxCapacity:  req.MaxCapacity,
	})

	writeJSON(w, http.StatusCreated, RegisterScheduleResponse{
		DoctorID:     doctorID,
		SlotsCreated: created,
	})
}

// SlotView is the API representation of one open slot
type SlotView struct {
	ID                string    `json:"id"`
	StartTime         time.Time `json:"start_time"`
	EndTime           time.Time `json:"end_time"`
	AvailableCapacity int       `json:"available_capacity"`
	MaxCapacity       int       `json:"max_capacity"`
	BufferTime        int       `json:"buffer_time"`
}

// AvailabilityResponse lists a doctor's open slots for one date
type AvailabilityResponse struct {
	DoctorID string     `json:"doctor_id"`
	Date     string     `json:"date"`
	Slots    []SlotView `json:"available_slots"`
	Count    int        `json:"count"`
}

// GetAvailability handles GET /doctors/{doctorID}/availability requests
func (h *DoctorsHandler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	doctorID := chi.URLParam(r, "doctorID")
	if doctorID == "" {
		http.Error(w, "missing doctor_id", http.StatusBadRequest)
		return
	}

	dateStr := r.URL.Query().Get("date")
	if dateStr == "" {
		http.Error(w, "missing date query parameter", http.StatusBadRequest)
		return
	}
	date, err := time.Parse(dateLayout, dateStr)
	if err != nil {
		http.Error(w, "invalid date, expected YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	available := h.optimizer.DoctorAvailability(doctorID, date)
	views := make([]SlotView, 0, len(available))
	for _, slot := range available {
		views = append(views, SlotView{
			ID:                slot.ID.String(),
			StartTime:         slot.Start,
			EndTime:           slot.End,
			AvailableCapacity: slot.AvailableCapacity(),
			MaxCapacity:       slot.MaxCapacity,
			BufferTime:        slot.BufferTime,
		})
	}

	writeJSON(w, http.StatusOK, AvailabilityResponse{
		DoctorID: doctorID,
		Date:     dateStr,
		Slots:    views,
		Count:    len(views),
	})
}
