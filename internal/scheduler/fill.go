package scheduler

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
)

// FillResult reports one waitlist back-fill pass.
type FillResult struct {
	Enabled     bool         `json:"auto_fill_enabled"`
	FilledSlots int          `json:"filled_slots"`
	Placements  []*Placement `json:"placements,omitempty"`
}

// Placement records one patient moved from the waitlist into a slot.
type Placement struct {
	PatientID string `json:"patient_id"`
	DoctorID  string `json:"doctor_id"`
	StartTime string `json:"start_time"`
}

// ProcessWaitlistFill walks every open slot in registration-then-chronological
// order and offers each to the best-matching waiting patient. Placed patients
// leave the waitlist; slots with no eligible match stay open.
func (s *Scheduler) ProcessWaitlistFill(ctx context.Context) FillResult {
	_, span := tracer.Start(ctx, "scheduler.waitlist_fill")
	defer span.End()

	result := FillResult{Enabled: s.config().WaitlistAutoFill}
	if !result.Enabled {
		return result
	}

	for _, slot := range s.optimizer.AvailableSlots() {
		entry := s.waitlist.FindOptimalPatientForSlot(slot, slot.DoctorID, slot.Start)
		if entry == nil {
			continue
		}
		if !s.optimizer.Book(entry.PatientID, slot, 0) {
			continue
		}
		s.waitlist.Remove(entry.PatientID)
		result.FilledSlots++
		result.Placements = append(result.Placements, &Placement{
			PatientID: entry.PatientID,
			DoctorID:  slot.DoctorID,
			StartTime: slot.Start.Format("2006-01-02 15:04"),
		})
		s.logger.Info("waitlist slot filled",
			"patient_id", entry.PatientID,
			"doctor_id", slot.DoctorID,
			"start_time", slot.Start,
		)
	}

	s.metrics.ObserveWaitlistFill(result.FilledSlots)
	s.metrics.SetWaitlistDepth(s.waitlist.Size())
	span.SetAttributes(attribute.Int("hospital.filled_slots", result.FilledSlots))
	return result
}

// CancellationResult reports a cancellation and any back-fill it triggered.
type CancellationResult struct {
	Success           bool   `json:"success"`
	PatientID         string `json:"patient_id"`
	Action            string `json:"action"`
	BackfilledPatient string `json:"backfilled_patient,omitempty"`
	Error             string `json:"error,omitempty"`
}

// HandleCancellation releases the patient's slot and, when auto-fill is on,
// immediately offers the freed slot to the best-matching waiting patient.
func (s *Scheduler) HandleCancellation(ctx context.Context, patientID string) CancellationResult {
	_, span := tracer.Start(ctx, "scheduler.handle_cancellation")
	defer span.End()
	span.SetAttributes(attribute.String("hospital.patient_id", patientID))

	freed, had := s.optimizer.Assignment(patientID)
	if !had || !s.optimizer.Cancel(patientID) {
		return CancellationResult{
			Success:   false,
			PatientID: patientID,
			Error:     "no active appointment found",
		}
	}

	result := CancellationResult{
		Success:   true,
		PatientID: patientID,
		Action:    "cancelled",
	}

	if s.config().WaitlistAutoFill {
		if entry := s.waitlist.FindOptimalPatientForSlot(freed, freed.DoctorID, freed.Start); entry != nil {
			if s.optimizer.Book(entry.PatientID, freed, 0) {
				s.waitlist.Remove(entry.PatientID)
				result.BackfilledPatient = entry.PatientID
				s.metrics.ObserveWaitlistFill(1)
				s.metrics.SetWaitlistDepth(s.waitlist.Size())
				s.logger.Info("cancelled slot backfilled",
					"cancelled_patient", patientID,
					"backfilled_patient", entry.PatientID,
				)
			}
		}
	}

	return result
}
