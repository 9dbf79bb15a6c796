package ml

import (
	"context"
	"math"
)

// LocalPredictor is a deterministic stand-in for the trained model, used in
// development and tests. It scores a handful of strong no-show signals from
// the published dataset through a logistic curve; it is not a substitute for
// the real model in production.
type LocalPredictor struct{}

// NewLocalPredictor creates the deterministic dev predictor.
func NewLocalPredictor() *LocalPredictor {
	return &LocalPredictor{}
}

// Predict derives a stable probability from the feature vector.
func (p *LocalPredictor) Predict(_ context.Context, features Features) (Prediction, error) {
	if err := features.Validate(); err != nil {
		return Prediction{}, err
	}
	f := features.Normalize()

	// Weights mirror the directional effects seen in the no-show dataset:
	// long lead times and a history of missed visits raise risk, a received
	// SMS and recent attendance lower it.
	z := -1.2
	z += 0.045 * f["LeadDays"]
	z += 2.4 * f["NoShowRate"]
	z += 0.35 * f["Scholarship"]
	z += 0.25 * f["Alcoholism"]
	z -= 0.30 * f["SmsReceived"]
	z -= 0.40 * f["LastShowStatus"]
	z -= 0.012 * f["Age"]

	noShow := 1.0 / (1.0 + math.Exp(-z))

	pred := Prediction{
		NoShowProbability: noShow,
		ShowProbability:   1 - noShow,
	}
	if noShow >= 0.5 {
		pred.Label = 1
	}
	return pred, nil
}

// PredictNoShowProbability returns only the no-show class probability.
func (p *LocalPredictor) PredictNoShowProbability(ctx context.Context, features Features) (float64, error) {
	pred, err := p.Predict(ctx, features)
	if err != nil {
		return 0, err
	}
	return pred.NoShowProbability, nil
}
