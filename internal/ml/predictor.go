package ml

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/wolfman30/hospital-ai-scheduler/pkg/logging"
)

// Prediction is the model's full output for one patient.
type Prediction struct {
	// Label is 1 for a predicted no-show, 0 for a predicted show.
	Label             int     `json:"prediction"`
	NoShowProbability float64 `json:"no_show_probability"`
	ShowProbability   float64 `json:"show_probability"`
}

// Predictor is the opaque no-show oracle. Implementations block until the
// model answers; there is no partial result.
type Predictor interface {
	// PredictNoShowProbability returns only the no-show class probability.
	PredictNoShowProbability(ctx context.Context, features Features) (float64, error)
	// Predict returns the label and both class probabilities.
	Predict(ctx context.Context, features Features) (Prediction, error)
}

// HTTPPredictor calls a model-serving endpoint over HTTP.
type HTTPPredictor struct {
	baseURL string
	client  *http.Client
	logger  *logging.Logger
}

// NewHTTPPredictor creates a predictor for the given model server base URL.
func NewHTTPPredictor(baseURL string, timeout time.Duration, logger *logging.Logger) *HTTPPredictor {
	if logger == nil {
		logger = logging.Default()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPPredictor{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

type predictRequest struct {
	Features Features `json:"features"`
}

// Predict posts the normalized feature vector to the model server.
func (p *HTTPPredictor) Predict(ctx context.Context, features Features) (Prediction, error) {
	if err := features.Validate(); err != nil {
		return Prediction{}, err
	}

	body, err := json.Marshal(predictRequest{Features: features.Normalize()})
	if err != nil {
		return Prediction{}, fmt.Errorf("ml: marshal features: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/predict", bytes.NewReader(body))
	if err != nil {
		return Prediction{}, fmt.Errorf("ml: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return Prediction{}, fmt.Errorf("ml: model server call failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Prediction{}, fmt.Errorf("ml: model server returned %d: %s", resp.StatusCode, bytes.TrimSpace(payload))
	}

	var pred Prediction
	if err := json.NewDecoder(resp.Body).Decode(&pred); err != nil {
		return Prediction{}, fmt.Errorf("ml: decode prediction: %w", err)
	}

	p.logger.Debug("model prediction received",
		"label", pred.Label,
		"no_show_probability", pred.NoShowProbability,
	)
	return pred, nil
}

// PredictNoShowProbability returns only the no-show class probability.
func (p *HTTPPredictor) PredictNoShowProbability(ctx context.Context, features Features) (float64, error) {
	pred, err := p.Predict(ctx, features)
	if err != nil {
		return 0, err
	}
	return pred.NoShowProbability, nil
}
