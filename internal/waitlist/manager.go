package waitlist

import (
	"container/heap"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/wolfman30/hospital-ai-scheduler/internal/risk"
	"github.com/wolfman30/hospital-ai-scheduler/internal/slots"
	"github.com/wolfman30/hospital-ai-scheduler/pkg/logging"
)

// Manager owns the priority-ordered waitlist and the per-patient contact
// schedule. Entry scores decay-refresh before any match decision, and the
// heap invariant is restored eagerly after every score change.
type Manager struct {
	mu              sync.Mutex
	assessor        *risk.Assessor
	entries         entryHeap
	byPatient       map[string]*Entry
	contactSchedule map[string]time.Time
	nextSeq         int
	logger          *logging.Logger
	now             func() time.Time
}

// NewManager creates an empty waitlist manager.
func NewManager(assessor *risk.Assessor, logger *logging.Logger) *Manager {
	if assessor == nil {
		assessor = risk.NewAssessor()
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Manager{
		assessor:        assessor,
		byPatient:       make(map[string]*Entry),
		contactSchedule: make(map[string]time.Time),
		logger:          logger,
		now:             time.Now,
	}
}

// AddInput describes a patient joining the waitlist.
type AddInput struct {
	PatientID         string
	NoShowProbability float64
	UrgencyScore      int
	PreferredDoctor   string
	PreferredDate     *time.Time
	MedicalNotes      string
}

// Add enqueues a patient. Returns false when the patient is already waiting.
// The first contact attempt is scheduled one day after entry.
func (m *Manager) Add(input AddInput) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byPatient[input.PatientID]; exists {
		m.logger.Warn("patient already on waitlist", "patient_id", input.PatientID)
		return false
	}

	now := m.now()
	entry := &Entry{
		PatientID:         input.PatientID,
		NoShowProbability: input.NoShowProbability,
		UrgencyScore:      input.UrgencyScore,
		EnteredAt:         now,
		PreferredDoctor:   input.PreferredDoctor,
		PreferredDate:     input.PreferredDate,
		MedicalNotes:      input.MedicalNotes,
		LastContactAt:     now,
		seq:               m.nextSeq,
	}
	m.nextSeq++
	entry.refreshPriority(m.assessor)

	m.byPatient[input.PatientID] = entry
	heap.Push(&m.entries, entry)
	m.contactSchedule[input.PatientID] = now.AddDate(0, 0, 1)

	m.logger.Info("patient added to waitlist",
		"patient_id", input.PatientID,
		"priority_score", entry.PriorityScore,
	)
	return true
}

// Remove drops a patient and their contact schedule, restoring ordering.
func (m *Manager) Remove(patientID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byPatient[patientID]; !exists {
		return false
	}
	delete(m.byPatient, patientID)
	delete(m.contactSchedule, patientID)

	kept := m.entries[:0]
	for _, e := range m.entries {
		if e.PatientID != patientID {
			kept = append(kept, e)
		}
	}
	m.entries = kept
	heap.Init(&m.entries)

	m.logger.Info("patient removed from waitlist", "patient_id", patientID)
	return true
}

// Get returns the entry for a patient, if waiting.
func (m *Manager) Get(patientID string) (*Entry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.byPatient[patientID]
	return e, ok
}

// Size returns the number of waiting patients.
func (m *Manager) Size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// TopPatients refreshes waiting times and returns up to n entries in
// priority order, highest first.
func (m *Manager) TopPatients(n int) []*Entry {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.refreshAllLocked()

	sorted := m.sortedSnapshotLocked()
	if n < len(sorted) {
		sorted = sorted[:n]
	}
	return sorted
}

func (m *Manager) sortedSnapshotLocked() []*Entry {
	out := make([]*Entry, len(m.entries))
	copy(out, m.entries)
	sort.Slice(out, func(i, j int) bool {
		if out[i].PriorityScore != out[j].PriorityScore {
			return out[i].PriorityScore > out[j].PriorityScore
		}
		return out[i].seq < out[j].seq
	})
	return out
}

// refreshAllLocked recomputes waiting days and priority for every entry and
// re-heapifies. Stale priorities are never trusted for a match decision.
func (m *Manager) refreshAllLocked() {
	now := m.now()
	for _, e := range m.entries {
		e.WaitingDays = int(now.Sub(e.EnteredAt).Hours() / 24)
		e.refreshPriority(m.assessor)
	}
	heap.Init(&m.entries)
}

// FindOptimalPatientForSlot refreshes every entry, filters to patients whose
// doctor preference matches and whose preferred date is within seven days of
// the slot, scores the survivors against the slot, and returns the best
// match. Ties break to the higher-priority, earlier-queued entry.
func (m *Manager) FindOptimalPatientForSlot(slot *slots.Slot, doctorID string, slotDate time.Time) *Entry {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.entries) == 0 {
		return nil
	}
	m.refreshAllLocked()

	var best *Entry
	bestScore := math.Inf(-1)

	for _, entry := range m.sortedSnapshotLocked() {
		if entry.PreferredDoctor != "" && entry.PreferredDoctor != doctorID {
			continue
		}
		if entry.PreferredDate != nil {
			if abs(daysBetween(slotDate, *entry.PreferredDate)) > 7 {
				continue
			}
		}
		if score := m.slotMatchScoreLocked(entry, slot, slotDate); score > bestScore {
			best = entry
			bestScore = score
		}
	}
	return best
}

func (m *Manager) slotMatchScoreLocked(entry *Entry, slot *slots.Slot, slotDate time.Time) float64 {
	score := float64(entry.PriorityScore) * 2

	if entry.PreferredDate != nil {
		days := abs(daysBetween(slotDate, *entry.PreferredDate))
		score += math.Max(0, 10-float64(days))
	}

	if slot != nil {
		hour := slot.Start.Hour()
		if (hour >= 9 && hour <= 12) || (hour >= 13 && hour <= 17) || (hour >= 18 && hour <= 20) {
			score += 3
		}
	}

	switch m.assessor.Assess(entry.NoShowProbability) {
	case risk.LevelHigh:
		score += 5
	case risk.LevelMedium:
		score += 3
	}

	return score
}

// UpdatePriority applies new probability and/or urgency values, recomputes
// the priority score, and restores ordering.
func (m *Manager) UpdatePriority(patientID string, newProbability *float64, newUrgency *int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.byPatient[patientID]
	if !ok {
		return false
	}
	if newProbability != nil {
		entry.NoShowProbability = *newProbability
	}
	if newUrgency != nil {
		entry.UrgencyScore = *newUrgency
	}
	entry.refreshPriority(m.assessor)
	heap.Init(&m.entries)

	m.logger.Info("waitlist priority updated",
		"patient_id", patientID,
		"priority_score", entry.PriorityScore,
	)
	return true
}

// RecordContactAttempt increments the patient's attempt counter. Successful
// contacts schedule the next one on a risk-dependent cadence (high: daily,
// medium: every 3 days, low: weekly); failures retry after one day.
func (m *Manager) RecordContactAttempt(patientID string, success bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.byPatient[patientID]
	if !ok {
		return false
	}
	now := m.now()
	entry.LastContactAt = now
	entry.ContactAttempts++

	delayDays := 1
	if success {
		switch m.assessor.Assess(entry.NoShowProbability) {
		case risk.LevelHigh:
			delayDays = 1
		case risk.LevelMedium:
			delayDays = 3
		default:
			delayDays = 7
		}
	}
	m.contactSchedule[patientID] = now.AddDate(0, 0, delayDays)

	m.logger.Info("contact attempt recorded",
		"patient_id", patientID,
		"success", success,
		"attempts", entry.ContactAttempts,
	)
	return true
}

// ContactSchedule returns patients whose scheduled contact time has arrived.
func (m *Manager) ContactSchedule() map[string]time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	due := make(map[string]time.Time)
	for patientID, at := range m.contactSchedule {
		if !at.After(now) {
			due[patientID] = at
		}
	}
	return due
}

func daysBetween(a, b time.Time) int {
	ad := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bd := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(ad.Sub(bd).Hours() / 24)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
