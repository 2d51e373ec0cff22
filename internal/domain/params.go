package domain

import (
	"errors"
	"fmt"
)

// Params agrupa todas las constantes numéricas de la estrategia.
// Se cargan una sola vez al construir el engine.
type Params struct {
	// Risk / sizing
	MaxPosition      float64 // abs contracts
	RiskPerTrade     float64 // fraction of remaining capital per entry
	LateShedFraction float64 // fraction of inventory shed by the late nudge
	InitialCapital   float64

	// Microstructure
	MaxSpreadToCross float64 // price points
	PriceTick        float64
	PassiveImprove   float64 // improve best by one tick
	MinBookQty       float64 // levels below this are dust

	// Fair value model
	HomeAdvantage  float64 // points
	MomentumAlpha  float64
	LeadWeight     float64
	MomentumWeight float64
	HomeWeight     float64

	// Thresholds
	BaseEdgeThreshold float64 // price points
	MinEdgeThreshold  float64
	LateTighten       float64

	// Game / time
	GameLengthShort         float64 // seconds
	GameLengthLong          float64 // seconds, overtime-extended regime
	CooldownSeconds         float64
	CloseOutBuffer          float64
	LateNudgeWindow         float64
	HighImpactScoreWindow   float64
	HighImpactDefenseWindow float64
}

// DefaultParams devuelve los valores de referencia.
func DefaultParams() Params {
	return Params{
		MaxPosition:      1200,
		RiskPerTrade:     0.0075,
		LateShedFraction: 0.25,
		InitialCapital:   100000,

		MaxSpreadToCross: 2.0,
		PriceTick:        0.1,
		PassiveImprove:   0.1,
		MinBookQty:       1.0,

		HomeAdvantage:  1.25,
		MomentumAlpha:  0.2,
		LeadWeight:     0.18,
		MomentumWeight: 0.10,
		HomeWeight:     0.20,

		BaseEdgeThreshold: 0.9,
		MinEdgeThreshold:  0.2,
		LateTighten:       0.55,

		GameLengthShort:         2400,
		GameLengthLong:          2880,
		CooldownSeconds:         5,
		CloseOutBuffer:          2,
		LateNudgeWindow:         60,
		HighImpactScoreWindow:   30,
		HighImpactDefenseWindow: 45,
	}
}

var errInvalidParams = errors.New("invalid params")

// Validate rejects parameter sets the engine cannot run with.
func (p Params) Validate() error {
	switch {
	case p.MaxPosition <= 0:
		return fmt.Errorf("%w: max position must be positive", errInvalidParams)
	case p.RiskPerTrade <= 0 || p.RiskPerTrade > 1:
		return fmt.Errorf("%w: risk per trade must be in (0, 1]", errInvalidParams)
	case p.LateShedFraction <= 0 || p.LateShedFraction > 1:
		return fmt.Errorf("%w: late shed fraction must be in (0, 1]", errInvalidParams)
	case p.PriceTick <= 0:
		return fmt.Errorf("%w: price tick must be positive", errInvalidParams)
	case p.MomentumAlpha <= 0 || p.MomentumAlpha > 1:
		return fmt.Errorf("%w: momentum alpha must be in (0, 1]", errInvalidParams)
	case p.GameLengthShort <= 0 || p.GameLengthLong < p.GameLengthShort:
		return fmt.Errorf("%w: game lengths must satisfy 0 < short <= long", errInvalidParams)
	case p.CooldownSeconds < 0 || p.CloseOutBuffer < 0:
		return fmt.Errorf("%w: timing buffers must be non-negative", errInvalidParams)
	}
	return nil
}
