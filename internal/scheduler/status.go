package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/wolfman30/hospital-ai-scheduler/internal/slots"
	"github.com/wolfman30/hospital-ai-scheduler/internal/waitlist"
)

// Status is a point-in-time view of the whole scheduling system.
type Status struct {
	ScheduleStatistics slots.Statistics    `json:"schedule_statistics"`
	WaitlistStatistics waitlist.Statistics `json:"waitlist_statistics"`
	RiskThresholds     map[string]float64  `json:"risk_thresholds"`
	Config             Config              `json:"system_config"`
	Timestamp          time.Time           `json:"timestamp"`
}

// SystemStatus aggregates slot utilization, waitlist statistics, and the
// active configuration.
func (s *Scheduler) SystemStatus() Status {
	return Status{
		ScheduleStatistics: s.optimizer.Statistics(),
		WaitlistStatistics: s.waitlist.Statistics(),
		RiskThresholds: map[string]float64{
			"low":    s.assessor.LowThreshold,
			"medium": s.assessor.MediumThreshold,
			"high":   s.assessor.HighThreshold,
		},
		Config:    s.config(),
		Timestamp: time.Now(),
	}
}

// Recommendations describes a patient's current standing and suggested next
// steps.
type Recommendations struct {
	PatientID     string     `json:"patient_id"`
	Status        string     `json:"status"`
	DoctorID      string     `json:"doctor_id,omitempty"`
	StartTime     *time.Time `json:"appointment_time,omitempty"`
	PriorityScore int        `json:"priority_score,omitempty"`
	WaitingDays   int        `json:"waiting_days,omitempty"`
	EstimatedWait string     `json:"estimated_wait_time,omitempty"`
	Suggestions   []string   `json:"recommendations"`
}

// PatientRecommendations reports whether the patient holds an appointment, is
// waiting, or is unknown, with guidance for each case.
func (s *Scheduler) PatientRecommendations(patientID string) Recommendations {
	if slot, ok := s.optimizer.Assignment(patientID); ok {
		return Recommendations{
			PatientID: patientID,
			Status:    "confirmed",
			DoctorID:  slot.DoctorID,
			StartTime: &slot.Start,
			Suggestions: []string{
				"Arrive 15 minutes before your appointment",
				"Bring your insurance card and identification",
				"Contact us if you need to reschedule",
			},
		}
	}

	if entry, ok := s.waitlist.Get(patientID); ok {
		return Recommendations{
			PatientID:     patientID,
			Status:        "waitlisted",
			PriorityScore: entry.PriorityScore,
			WaitingDays:   entry.WaitingDays,
			EstimatedWait: estimateWait(entry.PriorityScore),
			Suggestions: []string{
				"Keep your phone available for scheduling calls",
				"Consider flexible appointment times for faster placement",
				"Update us if your availability changes",
			},
		}
	}

	return Recommendations{
		PatientID: patientID,
		Status:    "not_found",
		Suggestions: []string{
			"Schedule an appointment through the booking system",
		},
	}
}

// SystemExport bundles the schedule and waitlist snapshots.
type SystemExport struct {
	Schedule   slots.ScheduleExport    `json:"schedule"`
	Waitlist   waitlist.WaitlistExport `json:"waitlist"`
	Config     Config                  `json:"system_config"`
	ExportedAt time.Time               `json:"export_timestamp"`
}

// ExportData snapshots all scheduling state. When a snapshot sink is wired,
// the schedule and waitlist payloads are also persisted there; a sink failure
// fails the export.
func (s *Scheduler) ExportData(ctx context.Context) (*SystemExport, error) {
	export := &SystemExport{
		Schedule:   s.optimizer.Export(),
		Waitlist:   s.waitlist.Export(),
		Config:     s.config(),
		ExportedAt: time.Now(),
	}

	if s.snapshots != nil {
		schedulePayload, err := json.Marshal(export.Schedule)
		if err != nil {
			return nil, fmt.Errorf("scheduler: marshal schedule export: %w", err)
		}
		waitlistPayload, err := json.Marshal(export.Waitlist)
		if err != nil {
			return nil, fmt.Errorf("scheduler: marshal waitlist export: %w", err)
		}
		if err := s.snapshots.SaveSchedule(ctx, schedulePayload); err != nil {
			return nil, fmt.Errorf("scheduler: save schedule snapshot: %w", err)
		}
		if err := s.snapshots.SaveWaitlist(ctx, waitlistPayload); err != nil {
			return nil, fmt.Errorf("scheduler: save waitlist snapshot: %w", err)
		}
	}

	return export, nil
}
