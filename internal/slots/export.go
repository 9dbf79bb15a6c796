package slots

import "time"

// SlotExport is the serializable view of one slot.
type SlotExport struct {
	ID              string    `json:"id"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	CurrentCapacity int       `json:"current_capacity"`
	MaxCapacity     int       `json:"max_capacity"`
	Patients        []string  `json:"patients"`
	BufferTime      int       `json:"buffer_time"`
}

// AssignmentExport records where a patient is booked.
type AssignmentExport struct {
	DoctorID  string    `json:"doctor_id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

// ScheduleExport is the structured snapshot of all slot state, suitable for
// callers that want durability outside this in-memory core.
type ScheduleExport struct {
	DoctorSlots map[string][]SlotExport     `json:"doctor_slots"`
	Assignments map[string]AssignmentExport `json:"patient_assignments"`
	Statistics  Statistics                  `json:"statistics"`
}

// Export snapshots the per-doctor slot lists, all active assignments, and
// the statistics block.
func (o *Optimizer) Export() ScheduleExport {
	o.mu.Lock()
	defer o.mu.Unlock()

	export := ScheduleExport{
		DoctorSlots: make(map[string][]SlotExport, len(o.doctorSlots)),
		Assignments: make(map[string]AssignmentExport, len(o.assignments)),
		Statistics:  o.statisticsLocked(),
	}

	for doctorID, slots := range o.doctorSlots {
		list := make([]SlotExport, 0, len(slots))
		for _, slot := range slots {
			patients := make([]string, len(slot.Patients))
			copy(patients, slot.Patients)
			list = append(list, SlotExport{
				ID:              slot.ID.String(),
				StartTime:       slot.Start,
				EndTime:         slot.End,
				CurrentCapacity: slot.CurrentCapacity,
				MaxCapacity:     slot.MaxCapacity,
				Patients:        patients,
				BufferTime:      slot.BufferTime,
			})
		}
		export.DoctorSlots[doctorID] = list
	}

	for patientID, slot := range o.assignments {
		export.Assignments[patientID] = AssignmentExport{
			DoctorID:  slot.DoctorID,
			StartTime: slot.Start,
			EndTime:   slot.End,
		}
	}

	return export
}
