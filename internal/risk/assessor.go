package risk

import (
	"math"

	"github.com/wolfman30/hospital-ai-scheduler/pkg/logging"
)

// Level classifies a patient's no-show probability.
type Level string

const (
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

// Action names the scheduling move chosen for a risk tier.
type Action string

const (
	ActionConfirm                   Action = "confirm"
	ActionConfirmWithBuffer         Action = "confirm_with_buffer"
	ActionConfirmWithExtendedBuffer Action = "confirm_with_extended_buffer"
	ActionReschedule                Action = "reschedule"
	ActionRescheduleOptimal         Action = "reschedule_optimal"
	ActionWaitlistHighPriority      Action = "waitlist_high_priority"
)

// Strategy describes how an appointment should be handled for a given risk
// tier and slot availability. Produced fresh per decision, never persisted.
type Strategy struct {
	RiskLevel            Level    `json:"risk_level"`
	Action               Action   `json:"action"`
	BufferTime           int      `json:"buffer_time"`
	RequiresConfirmation bool     `json:"requires_confirmation"`
	WaitlistPriority     int      `json:"waitlist_priority"`
	Interventions        []string `json:"interventions"`
	Notes                string   `json:"notes"`
}

// Assessor maps no-show probabilities to risk tiers and scheduling strategies.
type Assessor struct {
	LowThreshold    float64
	MediumThreshold float64
	// HighThreshold is configurable but inert: every probability above
	// MediumThreshold already classifies as high, so no fourth tier exists.
	HighThreshold float64

	logger *logging.Logger
}

// Option configures an Assessor.
type Option func(*Assessor)

// WithThresholds overrides the default tier thresholds.
func WithThresholds(low, medium, high float64) Option {
	return func(a *Assessor) {
		a.LowThreshold = low
		a.MediumThreshold = medium
		a.HighThreshold = high
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *logging.Logger) Option {
	return func(a *Assessor) {
		a.logger = logger
	}
}

// NewAssessor creates an assessor with default thresholds (0.3 / 0.6 / 0.8).
func NewAssessor(opts ...Option) *Assessor {
	a := &Assessor{
		LowThreshold:    0.3,
		MediumThreshold: 0.6,
		HighThreshold:   0.8,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = logging.Default()
	}
	return a
}

// Assess classifies a no-show probability. Probabilities are read as already
// in [0,1]; boundary values resolve to the lower tier.
func (a *Assessor) Assess(noShowProbability float64) Level {
	switch {
	case noShowProbability <= a.LowThreshold:
		return LevelLow
	case noShowProbability <= a.MediumThreshold:
		return LevelMedium
	default:
		return LevelHigh
	}
}

// Strategy resolves the 3x2 decision table of risk tier against slot
// availability. A slot counts as available only when the flag is set and it
// has spare capacity.
func (a *Assessor) Strategy(level Level, slotAvailable bool, slotCapacity int) Strategy {
	available := slotAvailable && slotCapacity > 0

	s := Strategy{
		RiskLevel:     level,
		Interventions: interventionTags[level],
	}

	switch level {
	case LevelMedium:
		if available {
			s.Action = ActionConfirmWithBuffer
			s.BufferTime = 15
			s.RequiresConfirmation = true
			s.WaitlistPriority = 2
			s.Notes = "Medium risk patient - confirm with buffer time and follow-up"
		} else {
			s.Action = ActionRescheduleOptimal
			s.RequiresConfirmation = true
			s.WaitlistPriority = 3
			s.Notes = "Medium risk patient - find optimal slot with confirmation"
		}
	case LevelHigh:
		if available {
			s.Action = ActionConfirmWithExtendedBuffer
			s.BufferTime = 30
			s.RequiresConfirmation = true
			s.WaitlistPriority = 4
			s.Notes = "High risk patient - extended buffer and intensive follow-up"
		} else {
			s.Action = ActionWaitlistHighPriority
			s.RequiresConfirmation = true
			s.WaitlistPriority = 5
			s.Notes = "High risk patient - high priority waitlist placement"
		}
	default:
		if available {
			s.Action = ActionConfirm
			s.Notes = "Low risk patient - standard scheduling"
		} else {
			s.Action = ActionReschedule
			s.WaitlistPriority = 1
			s.Notes = "Low risk patient - reschedule to available slot"
		}
	}

	return s
}

var interventionTags = map[Level][]string{
	LevelLow:    {"standard_reminder"},
	LevelMedium: {"enhanced_reminder", "confirmation_call"},
	LevelHigh:   {"urgent_reminder", "confirmation_call", "alternative_times"},
}

var interventionPlans = map[Level][]string{
	LevelLow: {
		"Standard SMS reminder 24h before appointment",
		"Email confirmation",
		"App notification",
	},
	LevelMedium: {
		"Enhanced SMS reminder 48h and 24h before",
		"Confirmation call 24h before appointment",
		"Email with appointment details",
		"App notification with reminder",
	},
	LevelHigh: {
		"Urgent SMS reminder 72h, 48h, and 24h before",
		"Confirmation call 48h and 24h before",
		"Personalized email with appointment importance",
		"App notification with multiple reminders",
		"Alternative appointment time suggestions",
		"Follow-up call after appointment",
	},
}

// Interventions returns the recommended outreach checklist for a tier.
// Dispatch is entirely external to this system.
func (a *Assessor) Interventions(level Level) []string {
	plan, ok := interventionPlans[level]
	if !ok {
		return nil
	}
	out := make([]string, len(plan))
	copy(out, plan)
	return out
}

var riskBasePriority = map[Level]float64{
	LevelLow:    1,
	LevelMedium: 3,
	LevelHigh:   5,
}

// WaitlistPriority computes the 1-10 priority score used to rank waitlisted
// patients. Waiting-time contribution is capped after seven days.
func (a *Assessor) WaitlistPriority(noShowProbability float64, urgencyScore, waitingDays int) int {
	base := riskBasePriority[a.Assess(noShowProbability)]
	urgencyMultiplier := float64(urgencyScore) / 5.0
	waitingBonus := math.Min(float64(waitingDays), 7) * 0.5

	score := int(math.Round(base*urgencyMultiplier + waitingBonus))
	return clamp(score, 1, 10)
}

// RiskBase returns the base priority weight for a tier.
func RiskBase(level Level) float64 {
	return riskBasePriority[level]
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
