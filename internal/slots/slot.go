package slots

import (
	"time"

	"github.com/google/uuid"
)

// Slot represents one bookable time interval for one doctor with finite
// concurrent capacity. All mutation goes through the Optimizer.
type Slot struct {
	ID              uuid.UUID `json:"id"`
	DoctorID        string    `json:"doctor_id"`
	Start           time.Time `json:"start_time"`
	End             time.Time `json:"end_time"`
	MaxCapacity     int       `json:"max_capacity"`
	CurrentCapacity int       `json:"current_capacity"`
	Patients        []string  `json:"patients"`
	// BufferTime records the largest buffer (minutes) requested by any
	// assigned occupant.
	BufferTime int `json:"buffer_time"`
}

// Available reports whether the slot has spare capacity.
func (s *Slot) Available() bool {
	return s.CurrentCapacity < s.MaxCapacity
}

// AvailableCapacity returns the remaining capacity.
func (s *Slot) AvailableCapacity() int {
	return s.MaxCapacity - s.CurrentCapacity
}

// DurationMinutes returns the slot length in minutes.
func (s *Slot) DurationMinutes() int {
	return int(s.End.Sub(s.Start).Minutes())
}

func (s *Slot) addPatient(patientID string, bufferTime int) bool {
	if s.CurrentCapacity >= s.MaxCapacity {
		return false
	}
	s.Patients = append(s.Patients, patientID)
	s.CurrentCapacity++
	if bufferTime > s.BufferTime {
		s.BufferTime = bufferTime
	}
	return true
}

func (s *Slot) removePatient(patientID string) bool {
	for i, p := range s.Patients {
		if p == patientID {
			s.Patients = append(s.Patients[:i], s.Patients[i+1:]...)
			s.CurrentCapacity--
			return true
		}
	}
	return false
}
