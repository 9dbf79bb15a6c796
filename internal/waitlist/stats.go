package waitlist

import (
	"math"
	"time"

	"github.com/wolfman30/hospital-ai-scheduler/internal/risk"
)

// Statistics summarizes the waitlist population.
type Statistics struct {
	TotalPatients        int                `json:"total_patients"`
	AverageWaitingDays   float64            `json:"average_waiting_time"`
	MinWaitingDays       int                `json:"min_waiting_time"`
	MaxWaitingDays       int                `json:"max_waiting_time"`
	RiskDistribution     map[risk.Level]int `json:"risk_distribution"`
	UrgencyDistribution  map[int]int        `json:"urgency_distribution"`
	PriorityDistribution map[int]int        `json:"priority_distribution"`
}

// Statistics refreshes waiting times and returns population counts and the
// risk/urgency/priority distributions.
func (m *Manager) Statistics() Statistics {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := Statistics{
		RiskDistribution:     map[risk.Level]int{risk.LevelLow: 0, risk.LevelMedium: 0, risk.LevelHigh: 0},
		UrgencyDistribution:  make(map[int]int),
		PriorityDistribution: make(map[int]int),
	}
	if len(m.entries) == 0 {
		return stats
	}

	m.refreshAllLocked()

	stats.TotalPatients = len(m.entries)
	stats.MinWaitingDays = math.MaxInt
	totalDays := 0
	for _, e := range m.entries {
		totalDays += e.WaitingDays
		if e.WaitingDays < stats.MinWaitingDays {
			stats.MinWaitingDays = e.WaitingDays
		}
		if e.WaitingDays > stats.MaxWaitingDays {
			stats.MaxWaitingDays = e.WaitingDays
		}
		stats.RiskDistribution[m.assessor.Assess(e.NoShowProbability)]++
		stats.UrgencyDistribution[e.UrgencyScore]++
		stats.PriorityDistribution[e.PriorityScore]++
	}
	stats.AverageWaitingDays = math.Round(float64(totalDays)/float64(len(m.entries))*10) / 10
	return stats
}

// WaitlistExport is the serializable snapshot of waitlist state.
type WaitlistExport struct {
	Entries    []Entry    `json:"waitlist"`
	Statistics Statistics `json:"statistics"`
	ExportedAt time.Time  `json:"export_timestamp"`
}

// Export snapshots every entry in priority order plus the statistics block.
func (m *Manager) Export() WaitlistExport {
	stats := m.Statistics()

	m.mu.Lock()
	defer m.mu.Unlock()

	export := WaitlistExport{
		Statistics: stats,
		ExportedAt: m.now(),
	}
	for _, e := range m.sortedSnapshotLocked() {
		export.Entries = append(export.Entries, *e)
	}
	return export
}
