package engine

import (
	"context"
	"errors"
	"log/slog"
	"math"

	"github.com/alejandrodnm/courtside/internal/domain"
)

func (e *Engine) slot(side domain.Side) *domain.RestingOrder {
	if side == domain.Buy {
		return &e.bid
	}
	return &e.ask
}

// cancelSide cancels the resting order on side, if any. The slot is cleared
// even when the router fails: cancels are assumed to take effect.
func (e *Engine) cancelSide(ctx context.Context, side domain.Side) {
	s := e.slot(side)
	id, ok := s.ID()
	if !ok {
		return
	}
	*s = domain.NoOrder()
	if err := e.router.CancelOrder(ctx, e.instrument, id); err != nil {
		slog.Warn("engine: cancel failed", "side", side, "order_id", id, "err", err)
	}
}

func (e *Engine) cancelResting(ctx context.Context) {
	e.cancelSide(ctx, domain.Buy)
	e.cancelSide(ctx, domain.Sell)
}

// replaceResting pulls both resting orders and rests a new one on side.
// A rejected placement leaves the side empty.
func (e *Engine) replaceResting(ctx context.Context, side domain.Side, qty, price float64) {
	e.cancelResting(ctx)
	id, ok := e.placeLimit(ctx, side, qty, price, false)
	if ok {
		*e.slot(side) = domain.Resting(id)
	}
}

func (e *Engine) placeLimit(ctx context.Context, side domain.Side, qty, price float64, ioc bool) (domain.OrderID, bool) {
	req := domain.LimitOrderRequest{
		Instrument: e.instrument,
		Side:       side,
		Quantity:   qty,
		Price:      price,
		IOC:        ioc,
	}
	id, err := e.router.PlaceLimitOrder(ctx, req)
	if err != nil || id < 0 {
		level := slog.LevelWarn
		if errors.Is(err, domain.ErrRejected) || err == nil {
			level = slog.LevelInfo
		}
		slog.Log(ctx, level, "engine: limit order not accepted",
			"side", side, "qty", qty, "price", price, "ioc", ioc, "err", err)
		return domain.RejectedOrderID, false
	}
	slog.Debug("engine: limit order placed", "side", side, "qty", qty, "price", price, "ioc", ioc, "order_id", id)
	return id, true
}

func (e *Engine) placeMarket(ctx context.Context, side domain.Side, qty float64) {
	req := domain.MarketOrderRequest{Instrument: e.instrument, Side: side, Quantity: qty}
	if err := e.router.PlaceMarketOrder(ctx, req); err != nil {
		slog.Warn("engine: market order failed", "side", side, "qty", qty, "err", err)
	}
}

// flatten cancels resting orders and exits the whole position at market.
func (e *Engine) flatten(ctx context.Context) {
	e.cancelResting(ctx)
	if math.Abs(e.position) < 1 {
		return
	}
	side := domain.Sell
	if e.position < 0 {
		side = domain.Buy
	}
	qty := math.Floor(math.Abs(e.position))
	slog.Info("engine: flattening", "side", side, "qty", qty)
	e.placeMarket(ctx, side, qty)
}

// closeOut flattens once and then suppresses trading until the next reset.
func (e *Engine) closeOut(ctx context.Context) {
	if e.closedOut {
		return
	}
	e.closedOut = true
	slog.Info("engine: close-out buffer reached", "t", e.game.State().TimeRemaining, "position", e.position)
	e.flatten(ctx)
}
