package model

import (
	"fmt"
	"math"
)

// OnlineModel is an incremental binary classifier estimating P(win).
//
// Contract, independent of backend:
//   - PredictProba returns 0.5 before the first Update (cold start).
//   - PredictProba output is always within [0, 1].
//   - Update must only be fed labels for outcomes that have actually
//     resolved; callers own that causality guarantee.
type OnlineModel interface {
	PredictProba(features []float64) float64
	Update(features []float64, label int)
}

// New builds the configured backend. calibration ("platt" | "isotonic") is
// recorded for forward compatibility; neither backend applies it yet.
func New(modelType, calibration string) (OnlineModel, error) {
	switch modelType {
	case "logistic":
		return NewLogistic(calibration), nil
	case "ftrl":
		return NewFTRL(calibration), nil
	default:
		return nil, fmt.Errorf("model.New: unknown model type %q", modelType)
	}
}

func clampProba(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

func sigmoid(z float64) float64 {
	// Guard the exp against extreme margins.
	if z > 35 {
		return 1
	}
	if z < -35 {
		return 0
	}
	return 1 / (1 + math.Exp(-z))
}
