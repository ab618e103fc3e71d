package model

import "math"

// Logistic is an online logistic regression trained by plain SGD over
// running-standardized features. Standardization statistics are learned
// incrementally (Welford), so no pass over the data is needed up front.
type Logistic struct {
	weights []float64
	bias    float64
	lr      float64

	// Running per-feature mean/variance for standardization.
	count int
	means []float64
	m2s   []float64

	calibration string
}

func NewLogistic(calibration string) *Logistic {
	return &Logistic{lr: 0.05, calibration: calibration}
}

// PredictProba returns the estimated win probability, or the neutral 0.5
// prior when the model has never been updated.
func (m *Logistic) PredictProba(features []float64) float64 {
	if m.count == 0 || len(features) != len(m.weights) {
		return 0.5
	}
	return clampProba(sigmoid(m.margin(m.standardize(features))))
}

// Update standardizes the example, then takes one gradient step on the
// log loss.
func (m *Logistic) Update(features []float64, label int) {
	if m.weights == nil {
		m.weights = make([]float64, len(features))
		m.means = make([]float64, len(features))
		m.m2s = make([]float64, len(features))
	}
	if len(features) != len(m.weights) {
		return
	}

	m.learnScaling(features)
	x := m.standardize(features)

	p := sigmoid(m.margin(x))
	grad := p - float64(label)
	for i := range m.weights {
		m.weights[i] -= m.lr * grad * x[i]
	}
	m.bias -= m.lr * grad
	m.count++
}

func (m *Logistic) margin(x []float64) float64 {
	z := m.bias
	for i, w := range m.weights {
		z += w * x[i]
	}
	return z
}

func (m *Logistic) learnScaling(features []float64) {
	n := float64(m.count + 1)
	for i, v := range features {
		delta := v - m.means[i]
		m.means[i] += delta / n
		m.m2s[i] += delta * (v - m.means[i])
	}
}

func (m *Logistic) standardize(features []float64) []float64 {
	x := make([]float64, len(features))
	n := float64(m.count)
	for i, v := range features {
		std := 1.0
		if n > 1 {
			if variance := m.m2s[i] / n; variance > 1e-12 {
				std = math.Sqrt(variance)
			}
		}
		x[i] = (v - m.means[i]) / std
	}
	return x
}
