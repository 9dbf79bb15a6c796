package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/hospital-ai-scheduler/internal/decisions"
	"github.com/wolfman30/hospital-ai-scheduler/internal/ml"
	"github.com/wolfman30/hospital-ai-scheduler/internal/risk"
	"github.com/wolfman30/hospital-ai-scheduler/internal/scheduler"
	"github.com/wolfman30/hospital-ai-scheduler/internal/slots"
	"github.com/wolfman30/hospital-ai-scheduler/internal/waitlist"
)

type stubPredictor struct {
	probability float64
	err         error
}

func (p *stubPredictor) Predict(_ context.Context, _ ml.Features) (ml.Prediction, error) {
	if p.err != nil {
		return ml.Prediction{}, p.err
	}
	label := 0
	if p.probability >= 0.5 {
		label = 1
	}
	return ml.Prediction{
		Label:             label,
		NoShowProbability: p.probability,
		ShowProbability:   1 - p.probability,
	}, nil
}

func (p *stubPredictor) PredictNoShowProbability(ctx context.Context, f ml.Features) (float64, error) {
	pred, err := p.Predict(ctx, f)
	return pred.NoShowProbability, err
}

type testStack struct {
	scheduler *scheduler.Scheduler
	optimizer *slots.Optimizer
	waitlist  *waitlist.Manager
	audit     decisions.Store
}

func newTestStack(t *testing.T, predictor ml.Predictor) *testStack {
	t.Helper()
	assessor := risk.NewAssessor()
	optimizer := slots.NewOptimizer(nil)
	manager := waitlist.NewManager(assessor, nil)
	audit := decisions.NewInMemoryStore()
	s := scheduler.New(predictor, assessor, optimizer, manager, scheduler.WithAudit(audit))
	return &testStack{scheduler: s, optimizer: optimizer, waitlist: manager, audit: audit}
}

func registerWeek(t *testing.T, optimizer *slots.Optimizer, doctorID string) {
	t.Helper()
	created := optimizer.RegisterSchedule(slots.ScheduleInput{
		DoctorID:  doctorID,
		StartDate: time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 6, 6, 0, 0, 0, 0, time.UTC),
	})
	require.Greater(t, created, 0)
}

func schedulingRouter(stack *testStack) http.Handler {
	h := NewSchedulingHandler(stack.scheduler, stack.audit, testLogger())
	r := chi.NewRouter()
	r.Post("/appointments/schedule", h.ScheduleAppointment)
	r.Post("/appointments/{patientID}/cancel", h.CancelAppointment)
	r.Get("/patients/{patientID}/recommendations", h.GetRecommendations)
	r.Get("/patients/{patientID}/decisions", h.ListDecisions)
	return r
}

func TestScheduleAppointmentLowRisk(t *testing.T) {
	stack := newTestStack(t, &stubPredictor{probability: 0.2})
	registerWeek(t, stack.optimizer, "dr_smith")
	router := schedulingRouter(stack)

	body, err := json.Marshal(ScheduleRequest{
		PatientID:       "p1",
		PatientFeatures: ml.Features{"Age": 40},
		PreferredDoctor: "dr_smith",
		PreferredDate:   "2025-06-02",
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/appointments/schedule", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var result scheduler.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.Success)
	assert.Equal(t, risk.ActionConfirm, result.Action)
	assert.Equal(t, "dr_smith", result.DoctorID)
}

func TestScheduleAppointmentInvalidBody(t *testing.T) {
	stack := newTestStack(t, &stubPredictor{probability: 0.2})
	router := schedulingRouter(stack)

	req := httptest.NewRequest(http.MethodPost, "/appointments/schedule", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestScheduleAppointmentMissingPatientID(t *testing.T) {
	stack := newTestStack(t, &stubPredictor{probability: 0.2})
	router := schedulingRouter(stack)

	req := httptest.NewRequest(http.MethodPost, "/appointments/schedule", bytes.NewReader([]byte(`{}`)))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestScheduleAppointmentBadDate(t *testing.T) {
	stack := newTestStack(t, &stubPredictor{probability: 0.2})
	router := schedulingRouter(stack)

	req := httptest.NewRequest(http.MethodPost, "/appointments/schedule",
		bytes.NewReader([]byte(`{"patient_id":"p1","preferred_date":"06/02/2025"}`)))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestScheduleAppointmentOracleFailure(t *testing.T) {
	stack := newTestStack(t, &stubPredictor{err: errors.New("model server unavailable")})
	router := schedulingRouter(stack)

	req := httptest.NewRequest(http.MethodPost, "/appointments/schedule",
		bytes.NewReader([]byte(`{"patient_id":"p1"}`)))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadGateway, rec.Code)
	var result scheduler.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "model server unavailable")
}

func TestCancelAppointmentNotFound(t *testing.T) {
	stack := newTestStack(t, &stubPredictor{probability: 0.2})
	router := schedulingRouter(stack)

	req := httptest.NewRequest(http.MethodPost, "/appointments/ghost/cancel", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetRecommendationsNotFound(t *testing.T) {
	stack := newTestStack(t, &stubPredictor{probability: 0.2})
	router := schedulingRouter(stack)

	req := httptest.NewRequest(http.MethodGet, "/patients/p9/recommendations", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var recs scheduler.Recommendations
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &recs))
	assert.Equal(t, "not_found", recs.Status)
}

func TestListDecisions(t *testing.T) {
	stack := newTestStack(t, &stubPredictor{probability: 0.9})
	router := schedulingRouter(stack)

	// High risk with no slots waitlists the patient and records a decision.
	req := httptest.NewRequest(http.MethodPost, "/appointments/schedule",
		bytes.NewReader([]byte(`{"patient_id":"p1","urgency_score":4}`)))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/patients/p1/decisions?limit=10", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp ListDecisionsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "waitlist_high_priority", resp.Decisions[0].Action)
}
