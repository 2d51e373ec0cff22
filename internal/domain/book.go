package domain

import (
	"sort"

	"github.com/shopspring/decimal"
)

const (
	MinPrice = 0.0
	MaxPrice = 100.0
)

// ClampPrice limita un precio al rango válido del instrumento [0, 100].
func ClampPrice(p float64) float64 {
	return min(MaxPrice, max(MinPrice, p))
}

// QuantizePrice clamps p to the instrument range and rounds it to the nearest
// tick. Decimal arithmetic keeps 45.3 from becoming 45.300000000000004 so that
// levels patched by deltas hit the same map key as the snapshot.
func QuantizePrice(p, tick float64) float64 {
	p = ClampPrice(p)
	if tick <= 0 {
		return p
	}
	t := decimal.NewFromFloat(tick)
	q, _ := decimal.NewFromFloat(p).Div(t).Round(0).Mul(t).Float64()
	return ClampPrice(q)
}

// BookEntry es un nivel de precio en el orderbook.
type BookEntry struct {
	Price float64
	Size  float64
}

// BookSide is one ordered side of the book. Prices are kept ascending;
// descending marks the bid side, whose best level is the highest price.
type BookSide struct {
	levels     map[float64]float64
	prices     []float64
	descending bool
}

func newBookSide(descending bool) BookSide {
	return BookSide{levels: make(map[float64]float64), descending: descending}
}

func (s *BookSide) set(price, qty float64) {
	if qty <= 0 {
		s.remove(price)
		return
	}
	if _, ok := s.levels[price]; !ok {
		i := sort.SearchFloat64s(s.prices, price)
		s.prices = append(s.prices, 0)
		copy(s.prices[i+1:], s.prices[i:])
		s.prices[i] = price
	}
	s.levels[price] = qty
}

func (s *BookSide) remove(price float64) {
	if _, ok := s.levels[price]; !ok {
		return
	}
	delete(s.levels, price)
	i := sort.SearchFloat64s(s.prices, price)
	if i < len(s.prices) && s.prices[i] == price {
		s.prices = append(s.prices[:i], s.prices[i+1:]...)
	}
}

func (s *BookSide) clear() {
	clear(s.levels)
	s.prices = s.prices[:0]
}

// Len returns the number of stored levels, dust included.
func (s *BookSide) Len() int { return len(s.prices) }

// Quantity returns the displayed quantity at price, or 0.
func (s *BookSide) Quantity(price float64) float64 { return s.levels[price] }

// Levels returns the side best-first.
func (s *BookSide) Levels() []BookEntry {
	out := make([]BookEntry, 0, len(s.prices))
	s.each(func(p, q float64) bool {
		out = append(out, BookEntry{Price: p, Size: q})
		return true
	})
	return out
}

// each walks the side best-first until fn returns false.
func (s *BookSide) each(fn func(price, qty float64) bool) {
	if s.descending {
		for i := len(s.prices) - 1; i >= 0; i-- {
			p := s.prices[i]
			if !fn(p, s.levels[p]) {
				return
			}
		}
		return
	}
	for _, p := range s.prices {
		if !fn(p, s.levels[p]) {
			return
		}
	}
}

// best returns the first level whose quantity reaches minQty.
func (s *BookSide) best(minQty float64) (BookEntry, bool) {
	var (
		entry BookEntry
		found bool
	)
	s.each(func(p, q float64) bool {
		if q >= minQty {
			entry, found = BookEntry{Price: p, Size: q}, true
			return false
		}
		return true
	})
	return entry, found
}

// OrderBook stores both sides of the tracked instrument. Bids are ordered
// highest-first, asks lowest-first. Either side may be empty.
type OrderBook struct {
	Bids BookSide
	Asks BookSide

	tick   float64
	minQty float64
}

// NewOrderBook crea un book vacío con el tick y la cantidad mínima visible dados.
func NewOrderBook(tick, minQty float64) *OrderBook {
	return &OrderBook{
		Bids:   newBookSide(true),
		Asks:   newBookSide(false),
		tick:   tick,
		minQty: minQty,
	}
}

func (ob *OrderBook) side(s Side) *BookSide {
	if s == Buy {
		return &ob.Bids
	}
	return &ob.Asks
}

// ApplyDelta upserts a level, or removes it when quantity <= 0.
func (ob *OrderBook) ApplyDelta(side Side, price, quantity float64) {
	ob.side(side).set(QuantizePrice(price, ob.tick), quantity)
}

// ApplySnapshot replaces both sides, dropping levels below the minimum
// displayable quantity.
func (ob *OrderBook) ApplySnapshot(bids, asks []BookEntry) {
	ob.Clear()
	for _, e := range bids {
		if e.Size >= ob.minQty {
			ob.Bids.set(QuantizePrice(e.Price, ob.tick), e.Size)
		}
	}
	for _, e := range asks {
		if e.Size >= ob.minQty {
			ob.Asks.set(QuantizePrice(e.Price, ob.tick), e.Size)
		}
	}
}

// Clear empties both sides.
func (ob *OrderBook) Clear() {
	ob.Bids.clear()
	ob.Asks.clear()
}

// BestBid devuelve el mejor bid con cantidad >= mínimo.
func (ob *OrderBook) BestBid() (float64, bool) {
	e, ok := ob.Bids.best(ob.minQty)
	return e.Price, ok
}

// BestAsk devuelve el mejor ask con cantidad >= mínimo.
func (ob *OrderBook) BestAsk() (float64, bool) {
	e, ok := ob.Asks.best(ob.minQty)
	return e.Price, ok
}

// BestLevel returns the best qualifying level on side, with its quantity.
func (ob *OrderBook) BestLevel(side Side) (BookEntry, bool) {
	return ob.side(side).best(ob.minQty)
}

// Mid is only defined when both sides have a qualifying level.
func (ob *OrderBook) Mid() (float64, bool) {
	bid, okBid := ob.BestBid()
	ask, okAsk := ob.BestAsk()
	if !okBid || !okAsk {
		return 0, false
	}
	return (bid + ask) / 2, true
}

// Spread devuelve ask - bid, nunca negativo. Cero si falta un lado.
func (ob *OrderBook) Spread() float64 {
	bid, okBid := ob.BestBid()
	ask, okAsk := ob.BestAsk()
	if !okBid || !okAsk {
		return 0
	}
	return max(0, ask-bid)
}
