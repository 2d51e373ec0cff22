package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alejandrodnm/courtside/internal/domain"
	"github.com/alejandrodnm/courtside/internal/ports"
)

// Handler recibe los callbacks del venue y del feed de juego.
// Cada llamada se procesa completa antes de aceptar la siguiente.
type Handler interface {
	OnTradeUpdate(ctx context.Context, t domain.TradePrint)
	OnOrderbookUpdate(ctx context.Context, d domain.BookDelta)
	OnOrderbookSnapshot(ctx context.Context, s domain.BookSnapshot)
	OnAccountUpdate(ctx context.Context, u domain.AccountUpdate)
	OnGameEvent(ctx context.Context, ev domain.GameEvent)
}

// Dispatch routes an event to the matching Handler method.
func Dispatch(ctx context.Context, h Handler, ev domain.Event) {
	switch e := ev.(type) {
	case domain.TradePrint:
		h.OnTradeUpdate(ctx, e)
	case domain.BookDelta:
		h.OnOrderbookUpdate(ctx, e)
	case domain.BookSnapshot:
		h.OnOrderbookSnapshot(ctx, e)
	case domain.AccountUpdate:
		h.OnAccountUpdate(ctx, e)
	case domain.GameEvent:
		h.OnGameEvent(ctx, e)
	}
}

// Option customizes an Engine at construction.
type Option func(*Engine)

// WithClock replaces the monotonic clock used for the cooldown window.
func WithClock(c ports.Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithFairValuer replaces the logistic fair-value model.
func WithFairValuer(v domain.FairValuer) Option {
	return func(e *Engine) { e.valuer = v }
}

// WithImpactClassifier replaces the high-impact event detector.
func WithImpactClassifier(c domain.ImpactClassifier) Option {
	return func(e *Engine) { e.impact = c }
}

// Engine is the order lifecycle controller for one instrument. It owns the
// book, game and position state and is the only component that emits orders.
// It is not safe for concurrent use: callers serialize the callbacks.
type Engine struct {
	params     domain.Params
	instrument domain.Instrument
	router     ports.OrderRouter
	clock      ports.Clock
	valuer     domain.FairValuer
	impact     domain.ImpactClassifier
	sizer      domain.Sizer

	book     *domain.OrderBook
	game     *domain.GameTracker
	position float64
	capital  float64
	bid      domain.RestingOrder
	ask      domain.RestingOrder

	startedAt float64
	closedOut bool
	lastFair  float64
	games     int
}

// New crea un Engine listo para operar tras la ventana de cooldown.
func New(params domain.Params, instrument domain.Instrument, router ports.OrderRouter, opts ...Option) (*Engine, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("engine.New: %w", err)
	}
	if router == nil {
		return nil, fmt.Errorf("engine.New: nil router")
	}
	e := &Engine{
		params:     params,
		instrument: instrument,
		router:     router,
		clock:      monotonicClock(),
		valuer:     domain.NewLogisticModel(params),
		impact:     domain.NewDefaultImpact(params),
		sizer:      domain.NewSizer(params),
		book:       domain.NewOrderBook(params.PriceTick, params.MinBookQty),
		game:       domain.NewGameTracker(params),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.resetState()
	return e, nil
}

func monotonicClock() ports.Clock {
	base := time.Now()
	return func() float64 { return time.Since(base).Seconds() }
}

// Reset cancels resting orders, restores initial game, book and position
// state and restarts the cooldown window.
func (e *Engine) Reset(ctx context.Context) {
	e.cancelResting(ctx)
	e.resetState()
}

func (e *Engine) resetState() {
	e.book.Clear()
	e.game.Reset()
	e.capital = e.params.InitialCapital
	e.position = 0
	e.bid = domain.NoOrder()
	e.ask = domain.NoOrder()
	e.closedOut = false
	e.startedAt = e.clock()
}

// OnTradeUpdate is informational only.
func (e *Engine) OnTradeUpdate(_ context.Context, t domain.TradePrint) {
	if t.Instrument != e.instrument {
		return
	}
	slog.Debug("engine: trade print", "side", t.Side, "qty", t.Quantity, "price", t.Price)
}

// OnOrderbookUpdate patches one level and runs a decision pass.
func (e *Engine) OnOrderbookUpdate(ctx context.Context, d domain.BookDelta) {
	if d.Instrument != e.instrument {
		return
	}
	e.book.ApplyDelta(d.Side, d.Price, d.Quantity)
	e.decide(ctx, false)
}

// OnOrderbookSnapshot replaces the book and runs a decision pass.
func (e *Engine) OnOrderbookSnapshot(ctx context.Context, s domain.BookSnapshot) {
	if s.Instrument != e.instrument {
		return
	}
	e.book.ApplySnapshot(s.Bids, s.Asks)
	e.decide(ctx, false)
}

// OnAccountUpdate applies a fill. Once long, a resting bid is redundant;
// once short, a resting ask is.
func (e *Engine) OnAccountUpdate(ctx context.Context, u domain.AccountUpdate) {
	if u.Instrument != e.instrument {
		return
	}
	e.capital = u.CapitalRemaining
	e.position += u.SignedQuantity()

	slog.Info("engine: fill",
		"side", u.Side,
		"qty", u.Quantity,
		"price", u.Price,
		"position", e.position,
		"capital", fmt.Sprintf("%.2f", e.capital),
	)

	if e.position > 0 {
		e.cancelSide(ctx, domain.Buy)
	}
	if e.position < 0 {
		e.cancelSide(ctx, domain.Sell)
	}
}

// OnGameEvent updates clock, score and momentum, then handles end of game,
// the close-out buffer, or runs a decision pass.
func (e *Engine) OnGameEvent(ctx context.Context, ev domain.GameEvent) {
	e.game.Observe(ev)
	st := e.game.State()

	if ev.IsEndGame() {
		slog.Info("engine: end of game",
			"home", st.HomeScore,
			"away", st.AwayScore,
			"position", e.position,
		)
		e.flatten(ctx)
		e.resetState()
		e.games++
		return
	}

	if st.TimeRemaining <= e.params.CloseOutBuffer {
		e.closeOut(ctx)
		return
	}

	e.decide(ctx, e.impact.IsHighImpact(ev, st.TimeRemaining))
}

// Snapshot is a read-only view of the engine state.
type Snapshot struct {
	Position       float64
	Capital        float64
	Bid            domain.RestingOrder
	Ask            domain.RestingOrder
	Game           domain.GameState
	LastFair       float64
	ClosedOut      bool
	GamesCompleted int
}

// Snapshot returns the current state.
func (e *Engine) Snapshot() Snapshot {
	return Snapshot{
		Position:       e.position,
		Capital:        e.capital,
		Bid:            e.bid,
		Ask:            e.ask,
		Game:           e.game.State(),
		LastFair:       e.lastFair,
		ClosedOut:      e.closedOut,
		GamesCompleted: e.games,
	}
}

// Book exposes the engine's order book for inspection.
func (e *Engine) Book() *domain.OrderBook { return e.book }

// FairPrice returns the model price for the current game state.
func (e *Engine) FairPrice() float64 {
	return domain.FairPrice(e.valuer, e.game.State())
}
