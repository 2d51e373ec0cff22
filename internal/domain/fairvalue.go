package domain

import "math"

const (
	minWinProb = 0.01
	maxWinProb = 0.99
)

// FairValuer maps the game state to the home side's win probability.
type FairValuer interface {
	WinProbability(s GameState) float64
}

// LogisticModel combines time-scaled lead, late-weighted momentum and home
// advantage into a logit.
type LogisticModel struct {
	HomeAdvantage  float64
	LeadWeight     float64
	MomentumWeight float64
	HomeWeight     float64
}

// NewLogisticModel builds the default model from params.
func NewLogisticModel(p Params) LogisticModel {
	return LogisticModel{
		HomeAdvantage:  p.HomeAdvantage,
		LeadWeight:     p.LeadWeight,
		MomentumWeight: p.MomentumWeight,
		HomeWeight:     p.HomeWeight,
	}
}

// WinProbability implements FairValuer.
func (m LogisticModel) WinProbability(s GameState) float64 {
	t := max(s.TimeRemaining, 0)
	scale := 1 / math.Sqrt(t/60+1)
	late := LateFactor(t, 600)

	xLead := s.Lead * scale
	xMom := late * s.Momentum
	xHome := m.HomeAdvantage * scale

	logit := m.LeadWeight*xLead + m.MomentumWeight*xMom + m.HomeWeight*xHome
	return ClampProbability(Sigmoid(logit))
}

// LateFactor grows from 1 (plenty of time) to 2 (no time left).
func LateFactor(t, horizon float64) float64 {
	return 1 + (1 - math.Tanh(max(t, 0)/horizon))
}

// Sigmoid es la función logística.
func Sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// ClampProbability keeps p inside [0.01, 0.99].
func ClampProbability(p float64) float64 {
	if math.IsNaN(p) {
		return 0.5
	}
	return min(maxWinProb, max(minWinProb, p))
}

// FairPrice is 100 × the clamped win probability, so always in [1, 99].
func FairPrice(v FairValuer, s GameState) float64 {
	return 100 * ClampProbability(v.WinProbability(s))
}
