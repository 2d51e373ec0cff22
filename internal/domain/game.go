package domain

// GameState tracks clock, score and momentum for the current game.
type GameState struct {
	TimeRemaining float64
	HomeScore     int
	AwayScore     int
	Lead          float64 // home - away
	Momentum      float64 // EMA of lead deltas
	Seeded        bool    // at least one event observed this game
}

// GameTracker folds game events into a GameState.
type GameTracker struct {
	state    GameState
	shortLen float64
	longLen  float64
	alpha    float64
}

// NewGameTracker creates a tracker at the start of a game.
func NewGameTracker(p Params) *GameTracker {
	t := &GameTracker{
		shortLen: p.GameLengthShort,
		longLen:  p.GameLengthLong,
		alpha:    p.MomentumAlpha,
	}
	t.Reset()
	return t
}

// Reset restores the full-game clock and clears score and momentum.
func (t *GameTracker) Reset() {
	t.state = GameState{TimeRemaining: t.longLen}
}

// State returns a copy of the current state.
func (t *GameTracker) State() GameState { return t.state }

// Observe folds one event into the state.
//
// A reported time inside the short regime is taken as is. A time inside the
// long (overtime) regime only moves the clock up, so out-of-order events
// from the extended game cannot rewind it. Anything beyond the long regime
// is ignored.
func (t *GameTracker) Observe(ev GameEvent) {
	if ev.TimeRemaining != nil {
		reported := *ev.TimeRemaining
		if reported <= t.shortLen+1 {
			t.state.TimeRemaining = reported
		}
		if reported <= t.longLen+1 {
			t.state.TimeRemaining = max(t.state.TimeRemaining, reported)
		}
	}

	prevLead := t.state.Lead
	t.state.HomeScore = ev.HomeScore
	t.state.AwayScore = ev.AwayScore
	t.state.Lead = float64(ev.HomeScore - ev.AwayScore)

	if !t.state.Seeded {
		t.state.Momentum = 0
		t.state.Seeded = true
		return
	}
	delta := t.state.Lead - prevLead
	t.state.Momentum = (1-t.alpha)*t.state.Momentum + t.alpha*delta
}
