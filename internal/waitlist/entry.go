package waitlist

import (
	"math"
	"time"

	"github.com/wolfman30/hospital-ai-scheduler/internal/risk"
)

// Entry represents one patient waiting for a slot.
type Entry struct {
	PatientID         string     `json:"patient_id"`
	NoShowProbability float64    `json:"no_show_probability"`
	UrgencyScore      int        `json:"urgency_score"`
	EnteredAt         time.Time  `json:"entry_date"`
	PreferredDoctor   string     `json:"preferred_doctor,omitempty"`
	PreferredDate     *time.Time `json:"preferred_date,omitempty"`
	MedicalNotes      string     `json:"medical_notes,omitempty"`
	WaitingDays       int        `json:"waiting_days"`
	LastContactAt     time.Time  `json:"last_contact_date"`
	ContactAttempts   int        `json:"contact_attempts"`
	PriorityScore     int        `json:"priority_score"`

	// seq is the insertion sequence, used as a stable tie-break.
	seq int
}

// refreshPriority recomputes the 1-10 priority score from the entry's
// current risk tier, urgency, and capped waiting time, plus a fixed bonus
// for medium and high tiers. Callers must restore heap ordering afterwards.
func (e *Entry) refreshPriority(assessor *risk.Assessor) {
	level := assessor.Assess(e.NoShowProbability)

	base := risk.RiskBase(level)
	urgencyMultiplier := float64(e.UrgencyScore) / 5.0
	waitingBonus := math.Min(float64(e.WaitingDays), 7) * 0.5

	var riskBonus float64
	switch level {
	case risk.LevelHigh:
		riskBonus = 2.0
	case risk.LevelMedium:
		riskBonus = 1.0
	}

	score := int(math.Round(base*urgencyMultiplier + waitingBonus + riskBonus))
	if score < 1 {
		score = 1
	}
	if score > 10 {
		score = 10
	}
	e.PriorityScore = score
}

// entryHeap is a max-heap on priority score; older entries win ties.
type entryHeap []*Entry

func (h entryHeap) Len() int { return len(h) }

func (h entryHeap) Less(i, j int) bool {
	if h[i].PriorityScore != h[j].PriorityScore {
		return h[i].PriorityScore > h[j].PriorityScore
	}
	return h[i].seq < h[j].seq
}

func (h entryHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *entryHeap) Push(x any) { *h = append(*h, x.(*Entry)) }

func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return e
}
