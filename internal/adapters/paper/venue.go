package paper

// venue.go: venue simulado para dry runs.
//
// Mantiene su propia copia del book a partir de los mismos eventos que ve el
// engine, ejecuta IOC y market contra el lado opuesto consumiendo cantidad
// visible, y llena las órdenes pasivas cuando el book o un trade las cruza.
// Los fills quedan en cola hasta que la sesión los drena.

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/alejandrodnm/courtside/internal/domain"
)

type restingOrder struct {
	id    domain.OrderID
	side  domain.Side
	qty   float64
	price float64
}

// Config holds paper venue settings.
type Config struct {
	Instrument     domain.Instrument
	InitialCapital float64
	PriceTick      float64
	MinBookQty     float64
}

// Venue implements ports.OrderRouter, ports.FillSource and ports.MarketObserver.
type Venue struct {
	cfg       Config
	book      *domain.OrderBook
	capital   float64
	position  float64
	lastTrade float64
	nextID    domain.OrderID
	resting   map[domain.OrderID]*restingOrder
	pending   []domain.AccountUpdate
	settled   bool // game over; exit orders are acknowledged without fills
}

// New crea un venue con el capital inicial dado.
func New(cfg Config) *Venue {
	return &Venue{
		cfg:     cfg,
		book:    domain.NewOrderBook(cfg.PriceTick, cfg.MinBookQty),
		capital: cfg.InitialCapital,
		resting: make(map[domain.OrderID]*restingOrder),
	}
}

// Observe mirrors the public book and matches resting orders.
func (v *Venue) Observe(ev domain.Event) {
	switch e := ev.(type) {
	case domain.BookDelta:
		if e.Instrument != v.cfg.Instrument {
			return
		}
		v.settled = false
		v.book.ApplyDelta(e.Side, e.Price, e.Quantity)
		v.matchResting()
	case domain.BookSnapshot:
		if e.Instrument != v.cfg.Instrument {
			return
		}
		v.settled = false
		v.book.ApplySnapshot(e.Bids, e.Asks)
		v.matchResting()
	case domain.TradePrint:
		if e.Instrument != v.cfg.Instrument {
			return
		}
		v.lastTrade = e.Price
		v.matchTrade(e)
	case domain.GameEvent:
		if e.IsEndGame() {
			v.settleGame()
		}
	}
}

// PlaceLimitOrder implements ports.OrderRouter.
func (v *Venue) PlaceLimitOrder(_ context.Context, req domain.LimitOrderRequest) (domain.OrderID, error) {
	if err := v.validate(req.Instrument, req.Quantity); err != nil {
		return domain.RejectedOrderID, err
	}
	if req.Price < domain.MinPrice || req.Price > domain.MaxPrice {
		return domain.RejectedOrderID, fmt.Errorf("paper: price %.2f out of range: %w", req.Price, domain.ErrRejected)
	}
	if req.Side == domain.Buy && req.Price*req.Quantity > v.capital {
		return domain.RejectedOrderID, fmt.Errorf("paper: insufficient capital: %w", domain.ErrRejected)
	}

	v.nextID++
	id := v.nextID
	remaining := v.sweep(req.Side, req.Quantity, req.Price)
	if remaining >= 1e-9 && !req.IOC {
		v.resting[id] = &restingOrder{id: id, side: req.Side, qty: remaining, price: req.Price}
	}
	return id, nil
}

// PlaceMarketOrder implements ports.OrderRouter. With an empty opposite side
// the remainder fills at the last trade price, if any.
func (v *Venue) PlaceMarketOrder(_ context.Context, req domain.MarketOrderRequest) error {
	if err := v.validate(req.Instrument, req.Quantity); err != nil {
		return err
	}
	if v.settled {
		slog.Debug("paper: market order after settlement ignored", "side", req.Side, "qty", req.Quantity)
		return nil
	}
	limit := domain.MaxPrice
	if req.Side == domain.Sell {
		limit = domain.MinPrice
	}
	remaining := v.sweep(req.Side, req.Quantity, limit)
	if remaining < 1e-9 {
		return nil
	}
	if v.lastTrade <= 0 {
		slog.Warn("paper: market order partially unfilled", "side", req.Side, "unfilled", remaining)
		return fmt.Errorf("paper: no liquidity for %.0f: %w", remaining, domain.ErrRejected)
	}
	v.fill(req.Side, remaining, v.lastTrade)
	return nil
}

// CancelOrder implements ports.OrderRouter. Unknown ids are ignored.
func (v *Venue) CancelOrder(_ context.Context, instrument domain.Instrument, id domain.OrderID) error {
	if instrument != v.cfg.Instrument {
		return nil
	}
	delete(v.resting, id)
	return nil
}

// DrainFills implements ports.FillSource.
func (v *Venue) DrainFills() []domain.AccountUpdate {
	out := v.pending
	v.pending = nil
	return out
}

// Capital returns the simulated capital.
func (v *Venue) Capital() float64 { return v.capital }

// Position returns the simulated net position.
func (v *Venue) Position() float64 { return v.position }

// OpenOrders returns the number of resting orders.
func (v *Venue) OpenOrders() int { return len(v.resting) }

func (v *Venue) validate(instrument domain.Instrument, qty float64) error {
	if instrument != v.cfg.Instrument {
		return fmt.Errorf("paper: unknown instrument %q: %w", instrument, domain.ErrRejected)
	}
	if qty <= 0 || math.IsNaN(qty) {
		return fmt.Errorf("paper: invalid quantity %v: %w", qty, domain.ErrRejected)
	}
	return nil
}

// sweep consumes opposite-side levels priced at or better than limit and
// returns the unfilled quantity.
func (v *Venue) sweep(side domain.Side, qty, limit float64) float64 {
	levels := v.book.Asks.Levels()
	if side == domain.Sell {
		levels = v.book.Bids.Levels()
	}
	for _, lvl := range levels {
		if qty < 1e-9 {
			break
		}
		if lvl.Size < v.cfg.MinBookQty {
			continue
		}
		if (side == domain.Buy && lvl.Price > limit) || (side == domain.Sell && lvl.Price < limit) {
			break
		}
		take := min(qty, lvl.Size)
		v.book.ApplyDelta(side.Opposite(), lvl.Price, lvl.Size-take)
		v.fill(side, take, lvl.Price)
		qty -= take
	}
	return qty
}

// matchResting fills passive orders the book has moved through.
func (v *Venue) matchResting() {
	for _, o := range v.sortedResting() {
		best, ok := v.book.BestLevel(o.side.Opposite())
		if !ok {
			continue
		}
		crossed := (o.side == domain.Buy && best.Price <= o.price) || (o.side == domain.Sell && best.Price >= o.price)
		if !crossed {
			continue
		}
		o.qty = v.sweep(o.side, o.qty, o.price)
		if o.qty < 1e-9 {
			delete(v.resting, o.id)
		}
	}
}

// matchTrade fills passive orders a print traded through: a sell print at or
// below our bid, or a buy print at or above our ask.
func (v *Venue) matchTrade(t domain.TradePrint) {
	left := t.Quantity
	for _, o := range v.sortedResting() {
		if left <= 0 {
			return
		}
		if o.side == t.Side {
			continue
		}
		hit := (o.side == domain.Buy && t.Price <= o.price) || (o.side == domain.Sell && t.Price >= o.price)
		if !hit {
			continue
		}
		take := min(left, o.qty)
		v.fill(o.side, take, o.price)
		o.qty -= take
		left -= take
		if o.qty < 1e-9 {
			delete(v.resting, o.id)
		}
	}
}

// settleGame drops resting orders and the book and restores the capital
// once the game is over, mirroring the engine reset. Contracts settle at the
// venue, so exit orders sent until the next book update do not fill.
func (v *Venue) settleGame() {
	v.settled = true
	v.book.Clear()
	clear(v.resting)
	v.position = 0
	v.capital = v.cfg.InitialCapital
}

func (v *Venue) fill(side domain.Side, qty, price float64) {
	if side == domain.Buy {
		v.capital -= qty * price
		v.position += qty
	} else {
		v.capital += qty * price
		v.position -= qty
	}
	v.pending = append(v.pending, domain.AccountUpdate{
		Instrument:       v.cfg.Instrument,
		Side:             side,
		Price:            price,
		Quantity:         qty,
		CapitalRemaining: v.capital,
	})
	slog.Debug("paper: fill", "side", side, "qty", qty, "price", price, "capital", v.capital)
}

// sortedResting returns resting orders oldest first.
func (v *Venue) sortedResting() []*restingOrder {
	out := make([]*restingOrder, 0, len(v.resting))
	for _, o := range v.resting {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}
