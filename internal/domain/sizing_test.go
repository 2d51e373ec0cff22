package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEdgeThreshold_TightensLate(t *testing.T) {
	p := DefaultParams()
	early := EdgeThreshold(p, 2880)
	late := EdgeThreshold(p, 0)

	assert.InDelta(t, 0.9, early, 0.001)
	assert.InDelta(t, 0.9*(1-0.55), late, 1e-9)
	assert.Less(t, late, early)
	assert.Equal(t, late, EdgeThreshold(p, -5))
}

func TestEdgeThreshold_Floor(t *testing.T) {
	p := DefaultParams()
	p.LateTighten = 0.95
	assert.Equal(t, 0.2, EdgeThreshold(p, 0))
}

func TestComputeEdges(t *testing.T) {
	e := ComputeEdges(48.0, 45.0, 45.3)
	assert.InDelta(t, 2.7, e.Buy, 1e-9)
	assert.InDelta(t, -3.0, e.Sell, 1e-9)
	assert.True(t, Actionable(e.Buy, 0.9))
	assert.False(t, Actionable(e.Sell, 0.9))
	assert.False(t, Actionable(0.9, 0.9), "must strictly exceed")
}

func TestSizer_ZeroReferencePrice(t *testing.T) {
	s := NewSizer(DefaultParams())
	assert.Zero(t, s.TargetSize(5, 0, 100000, 100))
	assert.Zero(t, s.TargetSize(5, -1, 100000, 100))
}

func TestSizer_Formula(t *testing.T) {
	s := NewSizer(DefaultParams())
	got := s.TargetSize(2.7, 45.15, 100000, 2880)

	base := 100000 * 0.0075 / 45.15
	urgency := 1 + (1 - math.Tanh(2880.0/800))
	want := math.Floor(base * urgency * (0.5 + 1.35))
	assert.Equal(t, want, got)
	assert.Equal(t, 30.0, got)
}

func TestSizer_CappedAtQuarterOfMaxPosition(t *testing.T) {
	s := NewSizer(DefaultParams())
	assert.Equal(t, 300.0, s.TargetSize(10, 1, 1e9, 0))
}

func TestSizer_MinimumBaseOfOne(t *testing.T) {
	s := NewSizer(DefaultParams())
	// base floors at 1; edge 0 → multiplier 0.5, urgency ~2 at t=0
	assert.Equal(t, 1.0, s.TargetSize(0, 50, 0, 0))
	assert.Equal(t, 0.0, s.TargetSize(0, 50, 0, 5000))
}

func TestSizer_EdgeMultiplierCap(t *testing.T) {
	s := NewSizer(DefaultParams())
	assert.Equal(t, s.TargetSize(3, 50, 100000, 1000), s.TargetSize(30, 50, 100000, 1000))
	assert.Equal(t, s.TargetSize(-30, 50, 100000, 1000), s.TargetSize(30, 50, 100000, 1000))
}
