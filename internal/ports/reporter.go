package ports

import (
	"context"

	"github.com/alejandrodnm/courtside/internal/domain"
)

// SessionReport is what the session hands to the reporter when it ends.
type SessionReport struct {
	SessionID        string
	Instrument       domain.Instrument
	Events           map[string]int
	Actions          map[ActionKind]int
	Rejections       int
	Fills            int
	GamesCompleted   int
	Position         float64
	CapitalRemaining float64
	LastFair         float64
}

// Reporter presenta el resumen de una sesión al usuario.
type Reporter interface {
	Report(ctx context.Context, r SessionReport) error
}
