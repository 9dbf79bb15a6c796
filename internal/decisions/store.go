package decisions

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound indicates no decisions exist for the patient.
var ErrNotFound = errors.New("decisions: not found")

// Record is one audited scheduling decision.
type Record struct {
	ID                uuid.UUID  `json:"id"`
	PatientID         string     `json:"patient_id"`
	Action            string     `json:"action"`
	RiskLevel         string     `json:"risk_level"`
	NoShowProbability float64    `json:"no_show_probability"`
	Success           bool       `json:"success"`
	DoctorID          string     `json:"doctor_id,omitempty"`
	SlotStart         *time.Time `json:"slot_start,omitempty"`
	Error             string     `json:"error,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}

// Store persists scheduling decisions for audit.
type Store interface {
	Record(ctx context.Context, rec *Record) error
	ListByPatient(ctx context.Context, patientID string, limit int) ([]*Record, error)
}

// InMemoryStore keeps decisions in memory, for development and tests.
type InMemoryStore struct {
	mu      sync.Mutex
	records []*Record
}

// NewInMemoryStore creates an empty in-memory decision store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

// Record appends a decision, assigning ID and timestamp when unset.
func (s *InMemoryStore) Record(_ context.Context, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	stored := *rec
	s.records = append(s.records, &stored)
	return nil
}

// ListByPatient returns the patient's decisions, most recent first.
func (s *InMemoryStore) ListByPatient(_ context.Context, patientID string, limit int) ([]*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*Record
	for i := len(s.records) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		if s.records[i].PatientID == patientID {
			rec := *s.records[i]
			out = append(out, &rec)
		}
	}
	return out, nil
}
