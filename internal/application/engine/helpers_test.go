package engine_test

import (
	"context"
	"testing"

	"github.com/alejandrodnm/courtside/internal/application/engine"
	"github.com/alejandrodnm/courtside/internal/domain"
	"github.com/stretchr/testify/require"
)

const team = domain.Instrument("TEAM_A")

type call struct {
	kind  string // limit | market | cancel
	side  domain.Side
	qty   float64
	price float64
	ioc   bool
	id    domain.OrderID
}

// recordingRouter guarda cada comando y devuelve IDs crecientes.
type recordingRouter struct {
	calls  []call
	nextID domain.OrderID
	reject bool
}

func (r *recordingRouter) PlaceLimitOrder(_ context.Context, req domain.LimitOrderRequest) (domain.OrderID, error) {
	if r.reject {
		r.calls = append(r.calls, call{kind: "limit", side: req.Side, qty: req.Quantity, price: req.Price, ioc: req.IOC, id: domain.RejectedOrderID})
		return domain.RejectedOrderID, domain.ErrRejected
	}
	r.nextID++
	r.calls = append(r.calls, call{kind: "limit", side: req.Side, qty: req.Quantity, price: req.Price, ioc: req.IOC, id: r.nextID})
	return r.nextID, nil
}

func (r *recordingRouter) PlaceMarketOrder(_ context.Context, req domain.MarketOrderRequest) error {
	r.calls = append(r.calls, call{kind: "market", side: req.Side, qty: req.Quantity})
	return nil
}

func (r *recordingRouter) CancelOrder(_ context.Context, _ domain.Instrument, id domain.OrderID) error {
	r.calls = append(r.calls, call{kind: "cancel", id: id})
	return nil
}

func (r *recordingRouter) reset() { r.calls = nil }

func (r *recordingRouter) ofKind(kind string) []call {
	var out []call
	for _, c := range r.calls {
		if c.kind == kind {
			out = append(out, c)
		}
	}
	return out
}

type fakeClock struct{ now float64 }

func (c *fakeClock) read() float64 { return c.now }

// fixedFair devuelve siempre la misma probabilidad.
type fixedFair struct{ p float64 }

func (f *fixedFair) WinProbability(domain.GameState) float64 { return f.p }

type harness struct {
	eng    *engine.Engine
	router *recordingRouter
	clock  *fakeClock
	fair   *fixedFair
	params domain.Params
}

// newHarness builds an engine past its cooldown with a fixed fair value.
func newHarness(t *testing.T, fair float64, opts ...engine.Option) *harness {
	t.Helper()
	h := &harness{
		router: &recordingRouter{},
		clock:  &fakeClock{},
		fair:   &fixedFair{p: fair / 100},
		params: domain.DefaultParams(),
	}
	all := append([]engine.Option{
		engine.WithClock(h.clock.read),
		engine.WithFairValuer(h.fair),
	}, opts...)
	eng, err := engine.New(h.params, team, h.router, all...)
	require.NoError(t, err)
	h.eng = eng
	h.clock.now = h.params.CooldownSeconds + 1
	return h
}

func (h *harness) snapshot(bids, asks []domain.BookEntry) {
	h.eng.OnOrderbookSnapshot(context.Background(), domain.BookSnapshot{Instrument: team, Bids: bids, Asks: asks})
}

func (h *harness) fill(side domain.Side, qty, price float64) {
	h.eng.OnAccountUpdate(context.Background(), domain.AccountUpdate{
		Instrument: team, Side: side, Quantity: qty, Price: price, CapitalRemaining: h.params.InitialCapital,
	})
}

func (h *harness) game(typ string, home, away int, t float64) {
	h.eng.OnGameEvent(context.Background(), domain.GameEvent{Type: typ, HomeScore: home, AwayScore: away, TimeRemaining: &t})
}

func lvl(price, qty float64) domain.BookEntry { return domain.BookEntry{Price: price, Size: qty} }
