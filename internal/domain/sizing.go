package domain

import "math"

// Sizer converts edge and capital into an order quantity.
type Sizer struct {
	riskPerTrade float64
	maxPosition  float64
}

// NewSizer crea un Sizer a partir de los parámetros.
func NewSizer(p Params) Sizer {
	return Sizer{riskPerTrade: p.RiskPerTrade, maxPosition: p.MaxPosition}
}

// TargetSize returns a whole, non-negative quantity for an edge against
// refPrice. Zero when refPrice is not positive.
//
//	base     = max(1, capital × risk / max(1, refPrice))
//	urgency  = 1 + (1 − tanh(t/800))        ~1 → 2 as t → 0
//	edgeMult = 0.5 + min(1.5, |edge|/2)     0.5 → 2.0
//	size     = floor(min(base × urgency × edgeMult, maxPosition/4))
func (s Sizer) TargetSize(edge, refPrice, capital, timeRemaining float64) float64 {
	if refPrice <= 0 {
		return 0
	}
	budget := capital * s.riskPerTrade
	base := max(1, budget/max(1, refPrice))
	urgency := LateFactor(timeRemaining, 800)
	edgeMult := 0.5 + min(1.5, math.Abs(edge)/2)

	size := min(base*urgency*edgeMult, s.maxPosition*0.25)
	return max(0, math.Floor(size))
}
