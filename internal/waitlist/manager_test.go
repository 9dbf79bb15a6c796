package waitlist

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/hospital-ai-scheduler/internal/risk"
	"github.com/wolfman30/hospital-ai-scheduler/internal/slots"
)

var baseTime = time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)

func newTestManager(t *testing.T) (*Manager, *time.Time) {
	t.Helper()
	current := baseTime
	m := NewManager(risk.NewAssessor(), nil)
	m.now = func() time.Time { return current }
	return m, &current
}

func TestAddRejectsDuplicates(t *testing.T) {
	m, _ := newTestManager(t)

	require.True(t, m.Add(AddInput{PatientID: "p1", NoShowProbability: 0.5, UrgencyScore: 3}))
	assert.False(t, m.Add(AddInput{PatientID: "p1", NoShowProbability: 0.9, UrgencyScore: 5}))
	assert.Equal(t, 1, m.Size())
}

func TestAddComputesInitialPriority(t *testing.T) {
	m, _ := newTestManager(t)

	// High tier, urgency 5, zero waiting: 5*1 + 0 + bonus 2 = 7.
	require.True(t, m.Add(AddInput{PatientID: "high", NoShowProbability: 0.9, UrgencyScore: 5}))
	entry, ok := m.Get("high")
	require.True(t, ok)
	assert.Equal(t, 7, entry.PriorityScore)

	// Low tier, urgency 1: 1*0.2 = 0.2 clamps to 1.
	require.True(t, m.Add(AddInput{PatientID: "low", NoShowProbability: 0.1, UrgencyScore: 1}))
	entry, ok = m.Get("low")
	require.True(t, ok)
	assert.Equal(t, 1, entry.PriorityScore)
}

func TestAddSchedulesFirstContact(t *testing.T) {
	m, now := newTestManager(t)
	require.True(t, m.Add(AddInput{PatientID: "p1", NoShowProbability: 0.2, UrgencyScore: 1}))

	assert.Empty(t, m.ContactSchedule(), "first contact is a day out")

	*now = now.AddDate(0, 0, 1)
	due := m.ContactSchedule()
	require.Contains(t, due, "p1")
	assert.Equal(t, baseTime.AddDate(0, 0, 1), due["p1"])
}

func TestRemove(t *testing.T) {
	m, _ := newTestManager(t)
	m.Add(AddInput{PatientID: "p1", NoShowProbability: 0.5, UrgencyScore: 3})
	m.Add(AddInput{PatientID: "p2", NoShowProbability: 0.9, UrgencyScore: 5})

	assert.True(t, m.Remove("p1"))
	assert.False(t, m.Remove("p1"), "second remove must return false")
	assert.Equal(t, 1, m.Size())

	top := m.TopPatients(5)
	require.Len(t, top, 1)
	assert.Equal(t, "p2", top[0].PatientID)
}

func TestTopPatientsOrdering(t *testing.T) {
	m, _ := newTestManager(t)

	// Same probability and entry time; urgency must decide the order.
	m.Add(AddInput{PatientID: "urgent", NoShowProbability: 0.85, UrgencyScore: 5})
	m.Add(AddInput{PatientID: "routine", NoShowProbability: 0.85, UrgencyScore: 1})

	urgent, _ := m.Get("urgent")
	routine, _ := m.Get("routine")
	assert.Greater(t, urgent.PriorityScore, routine.PriorityScore)

	top := m.TopPatients(1)
	require.Len(t, top, 1)
	assert.Equal(t, "urgent", top[0].PatientID)
}

func TestOrderingRestoredAfterUpdate(t *testing.T) {
	m, _ := newTestManager(t)
	m.Add(AddInput{PatientID: "a", NoShowProbability: 0.2, UrgencyScore: 2})
	m.Add(AddInput{PatientID: "b", NoShowProbability: 0.2, UrgencyScore: 1})

	prob := 0.95
	urgency := 5
	require.True(t, m.UpdatePriority("b", &prob, &urgency))

	top := m.TopPatients(1)
	require.Len(t, top, 1)
	assert.Equal(t, "b", top[0].PatientID)

	assert.False(t, m.UpdatePriority("missing", &prob, nil))
}

func TestWaitingTimeDecayRaisesPriority(t *testing.T) {
	m, now := newTestManager(t)
	m.Add(AddInput{PatientID: "p1", NoShowProbability: 0.5, UrgencyScore: 3})

	initial, _ := m.Get("p1")
	initialScore := initial.PriorityScore

	*now = now.AddDate(0, 0, 10)
	top := m.TopPatients(1)
	require.Len(t, top, 1)
	assert.Equal(t, 10, top[0].WaitingDays)
	assert.Greater(t, top[0].PriorityScore, initialScore)
}

func TestFindOptimalPatientForSlot(t *testing.T) {
	m, _ := newTestManager(t)
	slotDate := baseTime.AddDate(0, 0, 3)
	slot := &slots.Slot{DoctorID: "dr_a", Start: slotDate, End: slotDate.Add(30 * time.Minute)}

	prefOther := baseTime.AddDate(0, 0, 30)
	m.Add(AddInput{PatientID: "wrong_doctor", NoShowProbability: 0.9, UrgencyScore: 5, PreferredDoctor: "dr_b"})
	m.Add(AddInput{PatientID: "wrong_date", NoShowProbability: 0.9, UrgencyScore: 5, PreferredDate: &prefOther})
	m.Add(AddInput{PatientID: "match", NoShowProbability: 0.9, UrgencyScore: 4})

	best := m.FindOptimalPatientForSlot(slot, "dr_a", slotDate)
	require.NotNil(t, best)
	assert.Equal(t, "match", best.PatientID)
}

func TestFindOptimalPatientRefreshesBeforeMatching(t *testing.T) {
	m, now := newTestManager(t)
	slot := &slots.Slot{DoctorID: "dr_a", Start: baseTime, End: baseTime.Add(30 * time.Minute)}

	// Low scorer that will overtake through waiting-time decay.
	m.Add(AddInput{PatientID: "old", NoShowProbability: 0.5, UrgencyScore: 3})
	*now = now.AddDate(0, 0, 7)
	m.Add(AddInput{PatientID: "fresh", NoShowProbability: 0.5, UrgencyScore: 3})

	best := m.FindOptimalPatientForSlot(slot, "dr_a", now.AddDate(0, 0, 1))
	require.NotNil(t, best)
	assert.Equal(t, "old", best.PatientID, "decayed priority must be applied before matching")
	assert.Equal(t, 7, best.WaitingDays)
}

func TestFindOptimalPatientEmptyWaitlist(t *testing.T) {
	m, _ := newTestManager(t)
	slot := &slots.Slot{DoctorID: "dr_a", Start: baseTime}
	assert.Nil(t, m.FindOptimalPatientForSlot(slot, "dr_a", baseTime))
}

func TestRecordContactAttemptCadence(t *testing.T) {
	m, now := newTestManager(t)
	m.Add(AddInput{PatientID: "high", NoShowProbability: 0.9, UrgencyScore: 3})
	m.Add(AddInput{PatientID: "medium", NoShowProbability: 0.5, UrgencyScore: 3})
	m.Add(AddInput{PatientID: "low", NoShowProbability: 0.1, UrgencyScore: 3})

	require.True(t, m.RecordContactAttempt("high", true))
	require.True(t, m.RecordContactAttempt("medium", true))
	require.True(t, m.RecordContactAttempt("low", true))
	assert.False(t, m.RecordContactAttempt("missing", true))

	high, _ := m.Get("high")
	assert.Equal(t, 1, high.ContactAttempts)
	assert.Equal(t, baseTime, high.LastContactAt)

	// High-risk follow-up is due after one day; medium after three; low after seven.
	*now = baseTime.AddDate(0, 0, 1)
	due := m.ContactSchedule()
	assert.Contains(t, due, "high")
	assert.NotContains(t, due, "medium")
	assert.NotContains(t, due, "low")

	*now = baseTime.AddDate(0, 0, 3)
	due = m.ContactSchedule()
	assert.Contains(t, due, "medium")
	assert.NotContains(t, due, "low")

	*now = baseTime.AddDate(0, 0, 7)
	assert.Contains(t, m.ContactSchedule(), "low")
}

func TestRecordContactAttemptFailureRetriesNextDay(t *testing.T) {
	m, now := newTestManager(t)
	m.Add(AddInput{PatientID: "low", NoShowProbability: 0.1, UrgencyScore: 1})

	require.True(t, m.RecordContactAttempt("low", false))
	*now = baseTime.AddDate(0, 0, 1)
	assert.Contains(t, m.ContactSchedule(), "low")
}

func TestStatistics(t *testing.T) {
	m, now := newTestManager(t)

	empty := m.Statistics()
	assert.Zero(t, empty.TotalPatients)
	assert.Zero(t, empty.AverageWaitingDays)

	m.Add(AddInput{PatientID: "a", NoShowProbability: 0.9, UrgencyScore: 5})
	*now = now.AddDate(0, 0, 2)
	m.Add(AddInput{PatientID: "b", NoShowProbability: 0.5, UrgencyScore: 2})
	m.Add(AddInput{PatientID: "c", NoShowProbability: 0.1, UrgencyScore: 2})
	*now = now.AddDate(0, 0, 2)

	stats := m.Statistics()
	assert.Equal(t, 3, stats.TotalPatients)
	assert.Equal(t, 1, stats.RiskDistribution[risk.LevelHigh])
	assert.Equal(t, 1, stats.RiskDistribution[risk.LevelMedium])
	assert.Equal(t, 1, stats.RiskDistribution[risk.LevelLow])
	assert.Equal(t, 2, stats.UrgencyDistribution[2])
	assert.Equal(t, 4, stats.MaxWaitingDays)
	assert.Equal(t, 2, stats.MinWaitingDays)
	assert.InDelta(t, 2.7, stats.AverageWaitingDays, 0.001)
}

func TestExport(t *testing.T) {
	m, _ := newTestManager(t)
	m.Add(AddInput{PatientID: "a", NoShowProbability: 0.9, UrgencyScore: 5, MedicalNotes: "follow-up"})
	m.Add(AddInput{PatientID: "b", NoShowProbability: 0.1, UrgencyScore: 1})

	export := m.Export()
	require.Len(t, export.Entries, 2)
	assert.Equal(t, "a", export.Entries[0].PatientID, "export is priority-ordered")
	assert.Equal(t, "follow-up", export.Entries[0].MedicalNotes)
	assert.Equal(t, 2, export.Statistics.TotalPatients)
	assert.Equal(t, baseTime, export.ExportedAt)
}
