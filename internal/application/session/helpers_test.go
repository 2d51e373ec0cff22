package session_test

import (
	"context"
	"sync"
	"time"

	"github.com/alejandrodnm/courtside/internal/domain"
	"github.com/alejandrodnm/courtside/internal/ports"
)

// memJournal es un ports.Journal en memoria.
type memJournal struct {
	mu       sync.Mutex
	sessions []string
	actions  []ports.Action
	fills    []domain.AccountUpdate
	games    []ports.GameResult
	failures error
}

func (j *memJournal) StartSession(_ context.Context, id string, _ domain.Instrument, _ time.Time) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.sessions = append(j.sessions, id)
	return j.failures
}

func (j *memJournal) RecordAction(_ context.Context, a ports.Action) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.actions = append(j.actions, a)
	return j.failures
}

func (j *memJournal) RecordFill(_ context.Context, _ string, f domain.AccountUpdate, _ time.Time) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.fills = append(j.fills, f)
	return j.failures
}

func (j *memJournal) RecordGame(_ context.Context, g ports.GameResult) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.games = append(j.games, g)
	return j.failures
}

func (j *memJournal) Summary(context.Context, string) (ports.JournalSummary, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	sum := ports.JournalSummary{Actions: map[ports.ActionKind]int{}, Fills: len(j.fills), Games: len(j.games)}
	for _, a := range j.actions {
		sum.Actions[a.Kind]++
	}
	return sum, nil
}

func (j *memJournal) Close() error { return nil }

// stubRouter acepta todo salvo lo que se configure.
type stubRouter struct {
	nextID    domain.OrderID
	limitErr  error
	limitID   *domain.OrderID
	marketErr error
}

func (r *stubRouter) PlaceLimitOrder(context.Context, domain.LimitOrderRequest) (domain.OrderID, error) {
	if r.limitID != nil {
		return *r.limitID, r.limitErr
	}
	r.nextID++
	return r.nextID, r.limitErr
}

func (r *stubRouter) PlaceMarketOrder(context.Context, domain.MarketOrderRequest) error {
	return r.marketErr
}

func (r *stubRouter) CancelOrder(context.Context, domain.Instrument, domain.OrderID) error {
	return nil
}

// sliceSource emite eventos fijos y termina.
type sliceSource struct {
	events []domain.Event
	err    error
}

func (s sliceSource) Run(ctx context.Context, out chan<- domain.Event) error {
	for _, ev := range s.events {
		select {
		case out <- ev:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return s.err
}

// countingHandler registra los eventos despachados.
type countingHandler struct {
	seen []domain.Event
}

func (h *countingHandler) OnTradeUpdate(_ context.Context, t domain.TradePrint) { h.seen = append(h.seen, t) }
func (h *countingHandler) OnOrderbookUpdate(_ context.Context, d domain.BookDelta) {
	h.seen = append(h.seen, d)
}
func (h *countingHandler) OnOrderbookSnapshot(_ context.Context, s domain.BookSnapshot) {
	h.seen = append(h.seen, s)
}
func (h *countingHandler) OnAccountUpdate(_ context.Context, u domain.AccountUpdate) {
	h.seen = append(h.seen, u)
}
func (h *countingHandler) OnGameEvent(_ context.Context, g domain.GameEvent) { h.seen = append(h.seen, g) }

type captureReporter struct {
	reports []ports.SessionReport
}

func (c *captureReporter) Report(_ context.Context, r ports.SessionReport) error {
	c.reports = append(c.reports, r)
	return nil
}

func steppingClock() func() float64 {
	var t float64
	return func() float64 {
		t += 10
		return t
	}
}

// fixedFair devuelve siempre la misma probabilidad.
type fixedFair float64

func (f fixedFair) WinProbability(domain.GameState) float64 { return float64(f) }
