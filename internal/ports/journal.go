package ports

import (
	"context"
	"time"

	"github.com/alejandrodnm/courtside/internal/domain"
)

// ActionKind classifies an outbound order command.
type ActionKind string

const (
	ActionLimit  ActionKind = "LIMIT"
	ActionIOC    ActionKind = "IOC"
	ActionMarket ActionKind = "MARKET"
	ActionCancel ActionKind = "CANCEL"
)

// Action is one outbound order command as seen by the journal.
type Action struct {
	SessionID  string
	Kind       ActionKind
	Instrument domain.Instrument
	Side       domain.Side
	Quantity   float64
	Price      float64
	OrderID    domain.OrderID
	Rejected   bool
	At         time.Time
}

// GameResult is the final score recorded at end of game.
type GameResult struct {
	SessionID string
	HomeScore int
	AwayScore int
	EndedAt   time.Time
}

// JournalSummary aggregates a session for reporting.
type JournalSummary struct {
	Actions map[ActionKind]int
	Fills   int
	Games   int
}

// Journal persists the trading trail of a session.
type Journal interface {
	StartSession(ctx context.Context, sessionID string, instrument domain.Instrument, startedAt time.Time) error
	RecordAction(ctx context.Context, a Action) error
	RecordFill(ctx context.Context, sessionID string, fill domain.AccountUpdate, at time.Time) error
	RecordGame(ctx context.Context, g GameResult) error
	Summary(ctx context.Context, sessionID string) (JournalSummary, error)
	Close() error
}
