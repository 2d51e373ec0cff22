package domain

// ImpactClassifier decides whether a game event is significant enough to
// allow crossing a wide spread.
type ImpactClassifier interface {
	IsHighImpact(ev GameEvent, timeRemaining float64) bool
}

// DefaultImpact flags three-pointers, any score late in the game, and
// turnovers, steals and fouls inside the defense window.
type DefaultImpact struct {
	ScoreWindow   float64
	DefenseWindow float64
}

// NewDefaultImpact builds the classifier from params.
func NewDefaultImpact(p Params) DefaultImpact {
	return DefaultImpact{ScoreWindow: p.HighImpactScoreWindow, DefenseWindow: p.HighImpactDefenseWindow}
}

// IsHighImpact implements ImpactClassifier.
func (c DefaultImpact) IsHighImpact(ev GameEvent, timeRemaining float64) bool {
	switch ev.Type {
	case EventScore:
		if ev.ShotType != nil && *ev.ShotType == ShotThreePoint {
			return true
		}
		return timeRemaining < c.ScoreWindow
	case EventTurnover, EventSteal, EventFoul:
		return timeRemaining < c.DefenseWindow
	}
	return false
}

// ImpactFunc adapts a plain function to ImpactClassifier.
type ImpactFunc func(ev GameEvent, timeRemaining float64) bool

// IsHighImpact implements ImpactClassifier.
func (f ImpactFunc) IsHighImpact(ev GameEvent, timeRemaining float64) bool {
	return f(ev, timeRemaining)
}
