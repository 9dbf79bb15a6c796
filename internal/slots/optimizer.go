package slots

import (
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wolfman30/hospital-ai-scheduler/internal/risk"
	"github.com/wolfman30/hospital-ai-scheduler/pkg/logging"
)

// Time-of-day bands used for coarse preference matching.
const (
	TimeOfDayMorning   = "morning"   // 9-12
	TimeOfDayAfternoon = "afternoon" // 13-17
	TimeOfDayEvening   = "evening"   // 18-20
)

// Optimizer owns all doctor slots and the patient-to-slot assignment map.
// Every public operation holds the optimizer lock so capacity checks and
// increments are atomic under concurrent callers.
type Optimizer struct {
	mu          sync.Mutex
	doctorSlots map[string][]*Slot
	// doctorOrder preserves registration order so scans and waitlist fill
	// are deterministic and reproducible.
	doctorOrder []string
	assignments map[string]*Slot
	logger      *logging.Logger
}

// NewOptimizer creates an empty slot optimizer.
func NewOptimizer(logger *logging.Logger) *Optimizer {
	if logger == nil {
		logger = logging.Default()
	}
	return &Optimizer{
		doctorSlots: make(map[string][]*Slot),
		assignments: make(map[string]*Slot),
		logger:      logger,
	}
}

// ScheduleInput describes a doctor's working schedule to register.
type ScheduleInput struct {
	DoctorID  string
	StartDate time.Time
	EndDate   time.Time
	StartHour int
	EndHour   int
	// SlotDuration defaults to 30 minutes.
	SlotDuration time.Duration
	// MaxCapacity defaults to 1 patient per slot.
	MaxCapacity int
}

// RegisterSchedule tiles the working-hours window with fixed-duration slots
// for every business day in [StartDate, EndDate]. Registering the same range
// twice appends duplicate slots; idempotency is the caller's responsibility.
func (o *Optimizer) RegisterSchedule(input ScheduleInput) int {
	if input.StartHour == 0 && input.EndHour == 0 {
		input.StartHour, input.EndHour = 9, 17
	}
	if input.SlotDuration <= 0 {
		input.SlotDuration = 30 * time.Minute
	}
	if input.MaxCapacity <= 0 {
		input.MaxCapacity = 1
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if _, ok := o.doctorSlots[input.DoctorID]; !ok {
		o.doctorOrder = append(o.doctorOrder, input.DoctorID)
	}

	created := 0
	day := input.StartDate
	for !day.After(input.EndDate) {
		// Weekends are excluded from working schedules.
		if wd := day.Weekday(); wd != time.Saturday && wd != time.Sunday {
			dayStart := time.Date(day.Year(), day.Month(), day.Day(), input.StartHour, 0, 0, 0, day.Location())
			dayEnd := time.Date(day.Year(), day.Month(), day.Day(), input.EndHour, 0, 0, 0, day.Location())

			for start := dayStart; start.Before(dayEnd); start = start.Add(input.SlotDuration) {
				o.doctorSlots[input.DoctorID] = append(o.doctorSlots[input.DoctorID], &Slot{
					ID:          uuid.New(),
					DoctorID:    input.DoctorID,
					Start:       start,
					End:         start.Add(input.SlotDuration),
					MaxCapacity: input.MaxCapacity,
				})
				created++
			}
		}
		day = day.AddDate(0, 0, 1)
	}

	o.logger.Info("doctor schedule registered",
		"doctor_id", input.DoctorID,
		"slots_created", created,
		"total_slots", len(o.doctorSlots[input.DoctorID]),
	)
	return created
}

// SearchRequest carries patient preferences for a slot search.
type SearchRequest struct {
	PatientID       string
	PreferredDoctor string
	PreferredDate   *time.Time
	PreferredTime   string
	RiskLevel       risk.Level
	UrgencyScore    int
}

// FindOptimalSlot scans every slot with spare capacity, scores each against
// the request, and returns the highest scorer. Ties break to the first slot
// encountered in registration-then-chronological order. Returns nil when no
// slot has spare capacity.
func (o *Optimizer) FindOptimalSlot(req SearchRequest) *Slot {
	o.mu.Lock()
	defer o.mu.Unlock()

	var best *Slot
	bestScore := math.Inf(-1)

	for _, doctorID := range o.doctorOrder {
		if req.PreferredDoctor != "" && doctorID != req.PreferredDoctor {
			continue
		}
		for _, slot := range o.doctorSlots[doctorID] {
			if !slot.Available() {
				continue
			}
			if score := scoreSlot(slot, req); score > bestScore {
				best = slot
				bestScore = score
			}
		}
	}
	return best
}

func scoreSlot(slot *Slot, req SearchRequest) float64 {
	score := 0.0

	// Date proximity, max 10 points for the exact preferred day.
	if req.PreferredDate != nil {
		days := daysBetween(slot.Start, *req.PreferredDate)
		score += math.Max(0, 10-math.Abs(float64(days)))
	}

	if hourInBand(slot.Start.Hour(), req.PreferredTime) {
		score += 5
	}

	// High-risk patients favor slots that already carry buffer time.
	switch req.RiskLevel {
	case risk.LevelHigh:
		score += float64(slot.BufferTime) * 0.1
	case risk.LevelMedium:
		score += float64(slot.BufferTime) * 0.05
	}

	score += float64(req.UrgencyScore) * 2
	score += float64(slot.AvailableCapacity()) * 0.5

	return score
}

func hourInBand(hour int, timeOfDay string) bool {
	switch timeOfDay {
	case TimeOfDayMorning:
		return hour >= 9 && hour <= 12
	case TimeOfDayAfternoon:
		return hour >= 13 && hour <= 17
	case TimeOfDayEvening:
		return hour >= 18 && hour <= 20
	default:
		return false
	}
}

func daysBetween(a, b time.Time) int {
	ad := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bd := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(ad.Sub(bd).Hours() / 24)
}

// Book assigns the patient to the slot, raising the slot's recorded buffer
// time if needed. Returns false without mutating anything when the slot is
// full. Booking does not reject a patient that already holds another slot;
// use Reschedule to move an existing appointment.
func (o *Optimizer) Book(patientID string, slot *Slot, bufferTime int) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.bookLocked(patientID, slot, bufferTime)
}

func (o *Optimizer) bookLocked(patientID string, slot *Slot, bufferTime int) bool {
	if slot == nil || !slot.addPatient(patientID, bufferTime) {
		return false
	}
	o.assignments[patientID] = slot
	o.logger.Info("appointment scheduled",
		"patient_id", patientID,
		"doctor_id", slot.DoctorID,
		"start_time", slot.Start,
	)
	return true
}

// Reschedule releases the patient's current slot, if tracked, then books the
// new one. A missing prior assignment is not an error.
func (o *Optimizer) Reschedule(patientID string, newSlot *Slot, bufferTime int) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if old, ok := o.assignments[patientID]; ok {
		old.removePatient(patientID)
	}
	return o.bookLocked(patientID, newSlot, bufferTime)
}

// Cancel releases the patient's tracked slot. Returns false when the patient
// has no assignment; a second cancel for the same patient is a no-op.
func (o *Optimizer) Cancel(patientID string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	slot, ok := o.assignments[patientID]
	if !ok {
		return false
	}
	slot.removePatient(patientID)
	delete(o.assignments, patientID)
	o.logger.Info("appointment cancelled", "patient_id", patientID, "doctor_id", slot.DoctorID)
	return true
}

// Assignment returns the patient's current slot, if any.
func (o *Optimizer) Assignment(patientID string) (*Slot, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	slot, ok := o.assignments[patientID]
	return slot, ok
}

// DoctorAvailability lists the doctor's slots with spare capacity on the
// given calendar date, in chronological order.
func (o *Optimizer) DoctorAvailability(doctorID string, date time.Time) []*Slot {
	o.mu.Lock()
	defer o.mu.Unlock()

	var out []*Slot
	for _, slot := range o.doctorSlots[doctorID] {
		if sameDate(slot.Start, date) && slot.Available() {
			out = append(out, slot)
		}
	}
	return out
}

// AvailableSlots lists every slot with spare capacity across all doctors in
// registration-then-chronological order.
func (o *Optimizer) AvailableSlots() []*Slot {
	o.mu.Lock()
	defer o.mu.Unlock()

	var out []*Slot
	for _, doctorID := range o.doctorOrder {
		for _, slot := range o.doctorSlots[doctorID] {
			if slot.Available() {
				out = append(out, slot)
			}
		}
	}
	return out
}

func sameDate(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

// OptimizeResult reports what a consolidation pass changed.
type OptimizeResult struct {
	SlotsMerged int `json:"slots_merged"`
}

// Optimize runs a one-pass greedy merge over each doctor's chronological
// slot list: an empty slot immediately following a non-full slot with a
// matching boundary time is folded into its predecessor, extending the
// predecessor and growing its capacity up to 3. Best-effort heuristic, not
// an optimal packing.
func (o *Optimizer) Optimize() OptimizeResult {
	o.mu.Lock()
	defer o.mu.Unlock()

	var result OptimizeResult
	for _, doctorID := range o.doctorOrder {
		slots := o.doctorSlots[doctorID]
		merged := slots[:0]
		for _, slot := range slots {
			if len(merged) > 0 {
				prev := merged[len(merged)-1]
				if slot.CurrentCapacity == 0 && prev.End.Equal(slot.Start) && prev.Available() {
					prev.End = slot.End
					if prev.MaxCapacity < 3 {
						prev.MaxCapacity++
					}
					result.SlotsMerged++
					continue
				}
			}
			merged = append(merged, slot)
		}
		o.doctorSlots[doctorID] = merged
	}

	if result.SlotsMerged > 0 {
		o.logger.Info("schedule optimized", "slots_merged", result.SlotsMerged)
	}
	return result
}

// Statistics aggregates slot utilization across all doctors.
type Statistics struct {
	TotalSlots        int     `json:"total_slots"`
	OccupiedSlots     int     `json:"occupied_slots"`
	TotalCapacity     int     `json:"total_capacity"`
	UsedCapacity      int     `json:"used_capacity"`
	AvailableCapacity int     `json:"available_capacity"`
	UtilizationRate   float64 `json:"utilization_rate"`
}

// Statistics returns aggregate counts and the utilization percentage.
func (o *Optimizer) Statistics() Statistics {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.statisticsLocked()
}

func (o *Optimizer) statisticsLocked() Statistics {
	var stats Statistics
	for _, slots := range o.doctorSlots {
		for _, slot := range slots {
			stats.TotalSlots++
			stats.TotalCapacity += slot.MaxCapacity
			stats.UsedCapacity += slot.CurrentCapacity
			if slot.CurrentCapacity > 0 {
				stats.OccupiedSlots++
			}
		}
	}
	stats.AvailableCapacity = stats.TotalCapacity - stats.UsedCapacity
	if stats.TotalCapacity > 0 {
		stats.UtilizationRate = math.Round(float64(stats.UsedCapacity)/float64(stats.TotalCapacity)*100*100) / 100
	}
	return stats
}
