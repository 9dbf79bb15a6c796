package ml

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeFillsAllFeatures(t *testing.T) {
	f := Features{"Age": 35, "SmsReceived": 1}
	full := f.Normalize()

	assert.Len(t, full, FeatureCount)
	assert.Equal(t, 35.0, full["Age"])
	assert.Equal(t, 1.0, full["SmsReceived"])
	assert.Zero(t, full["Neighbourhood_CENTRO"], "absent keys default to zero")
}

func TestValidateRejectsUnknownKeys(t *testing.T) {
	assert.NoError(t, Features{"Age": 20}.Validate())
	assert.Error(t, Features{"FavoriteColor": 1}.Validate())
}

func TestSetNeighbourhood(t *testing.T) {
	f := Features{}
	require.True(t, f.SetNeighbourhood("Jardim Camburi"))
	assert.Equal(t, 1.0, f["Neighbourhood_JARDIM_CAMBURI"])

	require.True(t, f.SetNeighbourhood("CENTRO"))
	assert.Equal(t, 1.0, f["Neighbourhood_CENTRO"])
	assert.Zero(t, f["Neighbourhood_JARDIM_CAMBURI"], "indicators are exclusive")

	assert.False(t, f.SetNeighbourhood("Atlantis"))
	assert.Zero(t, f["Neighbourhood_CENTRO"])
}

func TestHTTPPredictor(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/predict", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req struct {
			Features Features `json:"features"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Len(t, req.Features, FeatureCount, "predictor must send the full vector")

		_ = json.NewEncoder(w).Encode(Prediction{
			Label:             1,
			NoShowProbability: 0.72,
			ShowProbability:   0.28,
		})
	}))
	defer srv.Close()

	p := NewHTTPPredictor(srv.URL, 5*time.Second, nil)
	pred, err := p.Predict(context.Background(), Features{"Age": 40})
	require.NoError(t, err)
	assert.Equal(t, 1, pred.Label)
	assert.Equal(t, 0.72, pred.NoShowProbability)

	prob, err := p.PredictNoShowProbability(context.Background(), Features{"Age": 40})
	require.NoError(t, err)
	assert.Equal(t, 0.72, prob)
}

func TestHTTPPredictorServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p := NewHTTPPredictor(srv.URL, time.Second, nil)
	_, err := p.Predict(context.Background(), Features{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestHTTPPredictorRejectsInvalidFeatures(t *testing.T) {
	p := NewHTTPPredictor("http://unused.invalid", time.Second, nil)
	_, err := p.Predict(context.Background(), Features{"Nope": 1})
	assert.Error(t, err)
}

func TestLocalPredictorDeterministic(t *testing.T) {
	p := NewLocalPredictor()
	f := Features{"Age": 30, "LeadDays": 10, "SmsReceived": 1}

	first, err := p.Predict(context.Background(), f)
	require.NoError(t, err)
	second, err := p.Predict(context.Background(), f)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	assert.InDelta(t, 1.0, first.NoShowProbability+first.ShowProbability, 1e-9)
	assert.GreaterOrEqual(t, first.NoShowProbability, 0.0)
	assert.LessOrEqual(t, first.NoShowProbability, 1.0)
}

func TestLocalPredictorSignals(t *testing.T) {
	p := NewLocalPredictor()
	ctx := context.Background()

	reliable, err := p.PredictNoShowProbability(ctx, Features{
		"Age": 60, "SmsReceived": 1, "LastShowStatus": 1, "LeadDays": 1,
	})
	require.NoError(t, err)

	risky, err := p.PredictNoShowProbability(ctx, Features{
		"Age": 20, "LeadDays": 45, "NoShowRate": 0.8,
	})
	require.NoError(t, err)

	assert.Greater(t, risky, reliable)
}
