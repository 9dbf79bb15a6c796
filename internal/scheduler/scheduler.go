package scheduler

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/hospital-ai-scheduler/internal/decisions"
	"github.com/wolfman30/hospital-ai-scheduler/internal/ml"
	"github.com/wolfman30/hospital-ai-scheduler/internal/observability/metrics"
	"github.com/wolfman30/hospital-ai-scheduler/internal/risk"
	"github.com/wolfman30/hospital-ai-scheduler/internal/slots"
	"github.com/wolfman30/hospital-ai-scheduler/internal/waitlist"
	"github.com/wolfman30/hospital-ai-scheduler/pkg/logging"
)

var tracer trace.Tracer = otel.Tracer("hospital.internal.scheduler")

// Config holds the orchestrator's behavior toggles.
type Config struct {
	AutoOptimizeSchedule bool `json:"auto_optimize_schedule"`
	WaitlistAutoFill     bool `json:"enable_waitlist_auto_fill"`
	MaxWaitlistSize      int  `json:"max_waitlist_size"`
	ContactRetryAttempts int  `json:"contact_retry_attempts"`
}

// DefaultConfig returns the standard orchestrator settings.
func DefaultConfig() Config {
	return Config{
		AutoOptimizeSchedule: true,
		WaitlistAutoFill:     true,
		MaxWaitlistSize:      100,
		ContactRetryAttempts: 3,
	}
}

// SnapshotSink receives serialized exports for durable storage.
type SnapshotSink interface {
	SaveSchedule(ctx context.Context, payload []byte) error
	SaveWaitlist(ctx context.Context, payload []byte) error
}

// Scheduler composes the ML oracle, risk assessor, slot optimizer, and
// waitlist manager into one decision pipeline. It owns neither the slot map
// nor the waitlist; both are reached only through their public operations.
type Scheduler struct {
	predictor ml.Predictor
	assessor  *risk.Assessor
	optimizer *slots.Optimizer
	waitlist  *waitlist.Manager
	audit     decisions.Store
	snapshots SnapshotSink
	metrics   *metrics.SchedulingMetrics
	logger    *logging.Logger

	mu  sync.Mutex
	cfg Config
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithAudit records every decision in the given store.
func WithAudit(store decisions.Store) Option {
	return func(s *Scheduler) { s.audit = store }
}

// WithSnapshots saves exports to the given sink.
func WithSnapshots(sink SnapshotSink) Option {
	return func(s *Scheduler) { s.snapshots = sink }
}

// WithMetrics attaches scheduling metrics.
func WithMetrics(m *metrics.SchedulingMetrics) Option {
	return func(s *Scheduler) { s.metrics = m }
}

// WithConfig overrides the default behavior toggles.
func WithConfig(cfg Config) Option {
	return func(s *Scheduler) { s.cfg = cfg }
}

// WithLogger attaches a logger.
func WithLogger(logger *logging.Logger) Option {
	return func(s *Scheduler) { s.logger = logger }
}

// New creates a scheduler over explicit component instances. No ambient
// global state: the caller owns wiring.
func New(predictor ml.Predictor, assessor *risk.Assessor, optimizer *slots.Optimizer, wl *waitlist.Manager, opts ...Option) *Scheduler {
	s := &Scheduler{
		predictor: predictor,
		assessor:  assessor,
		optimizer: optimizer,
		waitlist:  wl,
		cfg:       DefaultConfig(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.Default()
	}
	return s
}

// Request carries the appointment preferences for one scheduling call.
type Request struct {
	PatientID       string     `json:"patient_id"`
	PreferredDoctor string     `json:"preferred_doctor,omitempty"`
	PreferredDate   *time.Time `json:"preferred_date,omitempty"`
	PreferredTime   string     `json:"preferred_time,omitempty"`
	UrgencyScore    int        `json:"urgency_score,omitempty"`
	MedicalNotes    string     `json:"medical_notes,omitempty"`
}

// Preferences echoes the original request for audit after a reschedule.
type Preferences struct {
	Doctor string     `json:"doctor,omitempty"`
	Date   *time.Time `json:"date,omitempty"`
	Time   string     `json:"time,omitempty"`
}

// Result is the outcome of one scheduling decision. It carries either slot
// details or an error string, never both.
type Result struct {
	Success              bool          `json:"success"`
	PatientID            string        `json:"patient_id"`
	Action               risk.Action   `json:"action"`
	RiskLevel            risk.Level    `json:"risk_level"`
	NoShowProbability    float64       `json:"no_show_probability"`
	ShowProbability      float64       `json:"show_probability"`
	PredictionLabel      int           `json:"ml_prediction"`
	Strategy             risk.Strategy `json:"strategy"`
	SlotAssigned         bool          `json:"slot_assigned"`
	DoctorID             string        `json:"doctor_id,omitempty"`
	StartTime            *time.Time    `json:"start_time,omitempty"`
	EndTime              *time.Time    `json:"end_time,omitempty"`
	BufferTime           int           `json:"buffer_time,omitempty"`
	RequiresConfirmation bool          `json:"requires_confirmation,omitempty"`
	Rescheduled          bool          `json:"rescheduled,omitempty"`
	OriginalPreferences  *Preferences  `json:"original_preferences,omitempty"`
	WaitlistPriority     int           `json:"waitlist_priority,omitempty"`
	EstimatedWait        string        `json:"estimated_wait_time,omitempty"`
	Error                string        `json:"error,omitempty"`
	Timestamp            time.Time     `json:"timestamp"`
}

const actionError risk.Action = "error"

// ScheduleAppointment runs the full decision pipeline: predict, classify,
// resolve availability, derive the strategy, and execute the action. Oracle
// failures return an error result before any slot or waitlist mutation.
func (s *Scheduler) ScheduleAppointment(ctx context.Context, patient ml.Features, req Request) Result {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "scheduler.schedule_appointment")
	defer span.End()
	span.SetAttributes(attribute.String("hospital.patient_id", req.PatientID))

	prediction, err := s.predictor.Predict(ctx, patient)
	if err != nil {
		span.RecordError(err)
		s.logger.Error("appointment scheduling failed", "patient_id", req.PatientID, "error", err)
		result := Result{
			Success:   false,
			PatientID: req.PatientID,
			Action:    actionError,
			Error:     err.Error(),
			Timestamp: time.Now(),
		}
		s.finishDecision(ctx, &result, start)
		return result
	}

	level := s.assessor.Assess(prediction.NoShowProbability)

	slotAvailable, chosen := s.resolveAvailability(req, level)

	capacity := 0
	if chosen != nil {
		capacity = chosen.AvailableCapacity()
	}
	strategy := s.assessor.Strategy(level, slotAvailable, capacity)

	result := s.execute(req, strategy, chosen, prediction.NoShowProbability)
	result.RiskLevel = level
	result.NoShowProbability = prediction.NoShowProbability
	result.ShowProbability = prediction.ShowProbability
	result.PredictionLabel = prediction.Label

	if s.config().AutoOptimizeSchedule {
		// Best effort; a consolidation pass never fails the decision.
		s.optimizer.Optimize()
	}

	span.SetAttributes(
		attribute.String("hospital.action", string(result.Action)),
		attribute.String("hospital.risk_level", string(level)),
	)
	s.finishDecision(ctx, &result, start)
	return result
}

// resolveAvailability checks the caller's explicit doctor+date preference
// first; the availability flag reflects only that preferred slot. The
// fallback search is decoupled and may still find a slot when the flag is
// false.
func (s *Scheduler) resolveAvailability(req Request, level risk.Level) (bool, *slots.Slot) {
	if req.PreferredDoctor != "" && req.PreferredDate != nil {
		if avail := s.optimizer.DoctorAvailability(req.PreferredDoctor, *req.PreferredDate); len(avail) > 0 {
			return true, avail[0]
		}
	}

	return false, s.optimizer.FindOptimalSlot(slots.SearchRequest{
		PatientID:       req.PatientID,
		PreferredDoctor: req.PreferredDoctor,
		PreferredDate:   req.PreferredDate,
		PreferredTime:   req.PreferredTime,
		RiskLevel:       level,
		UrgencyScore:    req.UrgencyScore,
	})
}

func (s *Scheduler) execute(req Request, strategy risk.Strategy, chosen *slots.Slot, noShowProbability float64) Result {
	result := Result{
		Success:   true,
		PatientID: req.PatientID,
		Action:    strategy.Action,
		Strategy:  strategy,
		Timestamp: time.Now(),
	}

	switch strategy.Action {
	case risk.ActionConfirm, risk.ActionConfirmWithBuffer, risk.ActionConfirmWithExtendedBuffer:
		s.bookInto(&result, req, strategy, chosen, false)

	case risk.ActionReschedule, risk.ActionRescheduleOptimal:
		s.bookInto(&result, req, strategy, chosen, true)

	case risk.ActionWaitlistHighPriority:
		s.enqueue(&result, req, strategy, noShowProbability)

	default:
		result.Success = false
		result.Error = "unknown action: " + string(strategy.Action)
	}

	return result
}

// bookInto books the chosen slot. The availability check and the booking
// are separate steps; capacity consumed in between surfaces here as a
// failed result rather than a panic or partial write.
func (s *Scheduler) bookInto(result *Result, req Request, strategy risk.Strategy, chosen *slots.Slot, rescheduled bool) {
	if chosen == nil {
		result.Success = false
		if rescheduled {
			result.Error = "no alternative slot available"
		} else {
			result.Error = "no suitable slot available"
		}
		return
	}

	if !s.optimizer.Book(req.PatientID, chosen, strategy.BufferTime) {
		s.metrics.ObserveBookFailure()
		result.Success = false
		result.Error = "failed to schedule appointment"
		return
	}

	result.SlotAssigned = true
	result.DoctorID = chosen.DoctorID
	result.StartTime = &chosen.Start
	result.EndTime = &chosen.End
	result.BufferTime = strategy.BufferTime
	result.RequiresConfirmation = strategy.RequiresConfirmation
	if rescheduled {
		result.Rescheduled = true
		result.OriginalPreferences = &Preferences{
			Doctor: req.PreferredDoctor,
			Date:   req.PreferredDate,
			Time:   req.PreferredTime,
		}
	}
}

func (s *Scheduler) enqueue(result *Result, req Request, strategy risk.Strategy, noShowProbability float64) {
	urgency := req.UrgencyScore
	if urgency < 1 {
		urgency = 1
	}
	s.waitlist.Add(waitlist.AddInput{
		PatientID:         req.PatientID,
		NoShowProbability: noShowProbability,
		UrgencyScore:      urgency,
		PreferredDoctor:   req.PreferredDoctor,
		PreferredDate:     req.PreferredDate,
		MedicalNotes:      req.MedicalNotes,
	})

	result.SlotAssigned = false
	result.WaitlistPriority = strategy.WaitlistPriority
	result.EstimatedWait = estimateWait(strategy.WaitlistPriority)
	result.RequiresConfirmation = strategy.RequiresConfirmation
}

func estimateWait(priorityScore int) string {
	switch {
	case priorityScore >= 8:
		return "1-2 days"
	case priorityScore >= 6:
		return "3-5 days"
	case priorityScore >= 4:
		return "1-2 weeks"
	default:
		return "2-4 weeks"
	}
}

func (s *Scheduler) finishDecision(ctx context.Context, result *Result, start time.Time) {
	s.metrics.ObserveDecision(string(result.Action), string(result.RiskLevel), result.NoShowProbability, time.Since(start).Seconds())
	s.metrics.SetWaitlistDepth(s.waitlist.Size())

	if s.audit == nil {
		return
	}
	rec := &decisions.Record{
		PatientID:         result.PatientID,
		Action:            string(result.Action),
		RiskLevel:         string(result.RiskLevel),
		NoShowProbability: result.NoShowProbability,
		Success:           result.Success,
		DoctorID:          result.DoctorID,
		SlotStart:         result.StartTime,
		Error:             result.Error,
	}
	if err := s.audit.Record(ctx, rec); err != nil {
		s.logger.Error("decision audit failed", "patient_id", result.PatientID, "error", err)
	}
}

func (s *Scheduler) config() Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// UpdateConfig replaces the behavior toggles.
func (s *Scheduler) UpdateConfig(cfg Config) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = cfg
	s.logger.Info("scheduler configuration updated",
		"auto_optimize", cfg.AutoOptimizeSchedule,
		"waitlist_auto_fill", cfg.WaitlistAutoFill,
	)
}

// CurrentConfig returns the active behavior toggles.
func (s *Scheduler) CurrentConfig() Config {
	return s.config()
}
