package session

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/alejandrodnm/courtside/internal/domain"
	"github.com/alejandrodnm/courtside/internal/ports"
)

// Recorder wraps an OrderRouter, counting every command and writing it to
// the journal. Journal failures are logged and never block the order.
type Recorder struct {
	next      ports.OrderRouter
	journal   ports.Journal
	sessionID string
	now       func() time.Time

	actions    map[ports.ActionKind]int
	rejections int
}

// NewRecorder crea el decorador. journal puede ser nil.
func NewRecorder(next ports.OrderRouter, journal ports.Journal, sessionID string) *Recorder {
	return &Recorder{
		next:      next,
		journal:   journal,
		sessionID: sessionID,
		now:       time.Now,
		actions:   make(map[ports.ActionKind]int),
	}
}

// PlaceLimitOrder implements ports.OrderRouter.
func (r *Recorder) PlaceLimitOrder(ctx context.Context, req domain.LimitOrderRequest) (domain.OrderID, error) {
	id, err := r.next.PlaceLimitOrder(ctx, req)
	kind := ports.ActionLimit
	if req.IOC {
		kind = ports.ActionIOC
	}
	rejected := err != nil || id < 0
	r.record(ctx, ports.Action{
		Kind:       kind,
		Instrument: req.Instrument,
		Side:       req.Side,
		Quantity:   req.Quantity,
		Price:      req.Price,
		OrderID:    id,
		Rejected:   rejected,
	})
	if err == nil && id < 0 {
		err = domain.ErrRejected
	}
	return id, err
}

// PlaceMarketOrder implements ports.OrderRouter.
func (r *Recorder) PlaceMarketOrder(ctx context.Context, req domain.MarketOrderRequest) error {
	err := r.next.PlaceMarketOrder(ctx, req)
	r.record(ctx, ports.Action{
		Kind:       ports.ActionMarket,
		Instrument: req.Instrument,
		Side:       req.Side,
		Quantity:   req.Quantity,
		OrderID:    domain.RejectedOrderID,
		Rejected:   errors.Is(err, domain.ErrRejected),
	})
	return err
}

// CancelOrder implements ports.OrderRouter.
func (r *Recorder) CancelOrder(ctx context.Context, instrument domain.Instrument, id domain.OrderID) error {
	err := r.next.CancelOrder(ctx, instrument, id)
	r.record(ctx, ports.Action{Kind: ports.ActionCancel, Instrument: instrument, OrderID: id})
	return err
}

func (r *Recorder) record(ctx context.Context, a ports.Action) {
	r.actions[a.Kind]++
	if a.Rejected {
		r.rejections++
	}
	if r.journal == nil {
		return
	}
	a.SessionID = r.sessionID
	a.At = r.now().UTC()
	if err := r.journal.RecordAction(ctx, a); err != nil {
		slog.Warn("session: journal action failed", "kind", a.Kind, "err", err)
	}
}

// Actions returns a copy of the per-kind counters.
func (r *Recorder) Actions() map[ports.ActionKind]int {
	out := make(map[ports.ActionKind]int, len(r.actions))
	for k, v := range r.actions {
		out[k] = v
	}
	return out
}

// Rejections returns how many placements the venue refused.
func (r *Recorder) Rejections() int { return r.rejections }
