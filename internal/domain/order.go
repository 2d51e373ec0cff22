package domain

import "errors"

// Side es el lado de una orden o de un nivel del book.
type Side int

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	if s == Sell {
		return "SELL"
	}
	return "BUY"
}

// Opposite returns the other side of the book.
func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

// ParseSide maps venue strings ("BUY", "buy", "bid", ...) to a Side.
func ParseSide(s string) (Side, bool) {
	switch s {
	case "BUY", "buy", "Buy", "BID", "bid":
		return Buy, true
	case "SELL", "sell", "Sell", "ASK", "ask":
		return Sell, true
	}
	return Buy, false
}

// Instrument identifies the single tradable contract the engine tracks.
type Instrument string

// OrderID is the venue's opaque identifier for a resting order.
type OrderID int64

// RejectedOrderID is the sentinel a venue returns when it refuses a placement.
const RejectedOrderID OrderID = -1

// ErrRejected is returned by routers when the venue refuses an order.
var ErrRejected = errors.New("order rejected")

// RestingOrder is either NoOrder or Resting(id). The zero value is NoOrder.
type RestingOrder struct {
	id   OrderID
	live bool
}

// NoOrder returns the empty slot.
func NoOrder() RestingOrder { return RestingOrder{} }

// Resting returns a slot holding id.
func Resting(id OrderID) RestingOrder { return RestingOrder{id: id, live: true} }

// ID returns the held identifier and whether the slot is occupied.
func (r RestingOrder) ID() (OrderID, bool) { return r.id, r.live }

// IsLive reports whether the slot holds an order.
func (r RestingOrder) IsLive() bool { return r.live }

// LimitOrderRequest is a limit order sent to the router.
type LimitOrderRequest struct {
	Instrument Instrument
	Side       Side
	Quantity   float64
	Price      float64
	IOC        bool // immediate-or-cancel
}

// MarketOrderRequest is a fire-and-forget market order.
type MarketOrderRequest struct {
	Instrument Instrument
	Side       Side
	Quantity   float64
}
