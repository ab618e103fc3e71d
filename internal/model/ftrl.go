package model

import "math"

// FTRL is logistic regression trained with FTRL-proximal, the standard
// sparse online learner. Compared to plain SGD it keeps per-coordinate
// learning rates and L1-induced sparsity, which behaves better when some
// features rarely move.
type FTRL struct {
	alpha float64
	beta  float64
	l1    float64
	l2    float64

	z []float64
	n []float64

	samples     int
	calibration string
}

func NewFTRL(calibration string) *FTRL {
	return &FTRL{alpha: 0.1, beta: 1.0, l1: 0.001, l2: 0.001, calibration: calibration}
}

// PredictProba returns the estimated win probability, or the neutral 0.5
// prior when the model has never been updated.
func (m *FTRL) PredictProba(features []float64) float64 {
	if m.samples == 0 || len(features) != len(m.z) {
		return 0.5
	}
	w := m.currentWeights()
	z := 0.0
	for i, v := range features {
		z += w[i] * v
	}
	return clampProba(sigmoid(z))
}

func (m *FTRL) Update(features []float64, label int) {
	if m.z == nil {
		m.z = make([]float64, len(features))
		m.n = make([]float64, len(features))
	}
	if len(features) != len(m.z) {
		return
	}

	w := m.currentWeights()
	margin := 0.0
	for i, v := range features {
		margin += w[i] * v
	}
	p := sigmoid(margin)

	grad := p - float64(label)
	for i, v := range features {
		g := grad * v
		sigma := (math.Sqrt(m.n[i]+g*g) - math.Sqrt(m.n[i])) / m.alpha
		m.z[i] += g - sigma*w[i]
		m.n[i] += g * g
	}
	m.samples++
}

// currentWeights materializes the weight vector from the z/n state using
// the FTRL-proximal closed form.
func (m *FTRL) currentWeights() []float64 {
	w := make([]float64, len(m.z))
	for i, zi := range m.z {
		if math.Abs(zi) <= m.l1 {
			continue
		}
		sign := 1.0
		if zi < 0 {
			sign = -1.0
		}
		w[i] = -(zi - sign*m.l1) / ((m.beta+math.Sqrt(m.n[i]))/m.alpha + m.l2)
	}
	return w
}
