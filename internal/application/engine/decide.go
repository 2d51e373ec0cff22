package engine

import (
	"context"
	"log/slog"
	"math"

	"github.com/alejandrodnm/courtside/internal/domain"
)

// quote is the book view a decision pass works from.
type quote struct {
	bid, ask, mid float64
}

func (q quote) spread() float64 { return max(0, q.ask-q.bid) }

// decide runs one decision pass. Order of precedence:
// close-out gate, late inventory nudge, aggressive cross, passive rest.
func (e *Engine) decide(ctx context.Context, highImpact bool) {
	if e.inCooldown() {
		return
	}
	bid, okBid := e.book.BestBid()
	ask, okAsk := e.book.BestAsk()
	mid, okMid := e.book.Mid()
	if !okBid || !okAsk || !okMid {
		return
	}
	q := quote{bid: bid, ask: ask, mid: mid}

	st := e.game.State()
	if e.closedOut || st.TimeRemaining <= e.params.CloseOutBuffer {
		e.closeOut(ctx)
		return
	}

	fair := domain.FairPrice(e.valuer, st)
	e.lastFair = fair
	thr := domain.EdgeThreshold(e.params, st.TimeRemaining)
	edges := domain.ComputeEdges(fair, q.bid, q.ask)

	slog.Debug("engine: decision pass",
		"t", st.TimeRemaining,
		"lead", st.Lead,
		"momentum", st.Momentum,
		"fair", fair,
		"bid", q.bid,
		"ask", q.ask,
		"thr", thr,
		"edge_buy", edges.Buy,
		"edge_sell", edges.Sell,
		"position", e.position,
	)

	if st.TimeRemaining < e.params.LateNudgeWindow && e.nudge(ctx, fair, q) {
		return
	}

	if q.spread() <= e.params.MaxSpreadToCross || highImpact {
		if e.cross(ctx, edges, thr, q, st.TimeRemaining) {
			return
		}
	}

	e.rest(ctx, edges, thr, q, st.TimeRemaining)
}

func (e *Engine) inCooldown() bool {
	return e.clock()-e.startedAt < e.params.CooldownSeconds
}

// room returns how much more can be traded on side before hitting the
// position limit.
func (e *Engine) room(side domain.Side) float64 {
	if side == domain.Buy {
		return e.params.MaxPosition - e.position
	}
	return e.position + e.params.MaxPosition
}

// size returns the whole quantity for edge, capped by the room on side.
func (e *Engine) size(side domain.Side, edge, ref, timeRemaining float64) float64 {
	qty := e.sizer.TargetSize(edge, ref, e.capital, timeRemaining)
	return math.Floor(min(qty, e.room(side)))
}

// nudge sheds part of the inventory when the model has turned against it
// late in the game.
func (e *Engine) nudge(ctx context.Context, fair float64, q quote) bool {
	var side domain.Side
	switch {
	case e.position > 0.5 && fair < q.bid:
		side = domain.Sell
	case e.position < -0.5 && fair > q.ask:
		side = domain.Buy
	default:
		return false
	}
	qty := math.Floor(max(1, math.Abs(e.position)*e.params.LateShedFraction))
	slog.Info("engine: late inventory nudge", "side", side, "qty", qty, "fair", fair, "position", e.position)
	e.placeMarket(ctx, side, qty)
	return true
}

// cross sends an IOC at the opposite best when the edge clears the
// threshold. Buy goes first unless sell is also actionable and larger.
func (e *Engine) cross(ctx context.Context, edges domain.Edges, thr float64, q quote, t float64) bool {
	order := [2]domain.Side{domain.Buy, domain.Sell}
	if domain.Actionable(edges.Sell, thr) && edges.Sell > edges.Buy {
		order = [2]domain.Side{domain.Sell, domain.Buy}
	}

	for _, side := range order {
		edge, price := edges.Buy, q.ask
		if side == domain.Sell {
			edge, price = edges.Sell, q.bid
		}
		if !domain.Actionable(edge, thr) || e.room(side) <= 0 {
			continue
		}
		qty := e.size(side, edge, q.mid, t)
		if qty < 1 {
			continue
		}
		e.cancelResting(ctx)
		slog.Info("engine: crossing spread", "side", side, "qty", qty, "price", price, "edge", edge, "thr", thr)
		e.placeLimit(ctx, side, qty, price, true)
		return true
	}
	return false
}

// rest keeps a single passive order on the side with the dominant edge, or
// none when neither side clears the threshold.
func (e *Engine) rest(ctx context.Context, edges domain.Edges, thr float64, q quote, t float64) {
	switch {
	case edges.Buy > edges.Sell && domain.Actionable(edges.Buy, thr) && e.room(domain.Buy) > 0:
		price := domain.QuantizePrice(q.bid+e.params.PassiveImprove, e.params.PriceTick)
		if price >= q.ask {
			price = q.bid
		}
		qty := e.size(domain.Buy, edges.Buy, q.mid, t)
		if qty < 1 {
			return
		}
		e.replaceResting(ctx, domain.Buy, qty, price)

	case domain.Actionable(edges.Sell, thr) && e.room(domain.Sell) > 0:
		price := domain.QuantizePrice(q.ask-e.params.PassiveImprove, e.params.PriceTick)
		if price <= q.bid {
			price = q.ask
		}
		qty := e.size(domain.Sell, edges.Sell, q.mid, t)
		if qty < 1 {
			return
		}
		e.replaceResting(ctx, domain.Sell, qty, price)

	default:
		e.cancelResting(ctx)
	}
}
