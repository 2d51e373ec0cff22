package ports

import (
	"context"

	"github.com/alejandrodnm/courtside/internal/domain"
)

// OrderRouter sends order commands to the execution venue.
type OrderRouter interface {
	// PlaceLimitOrder submits a limit order. A refused order returns
	// domain.RejectedOrderID and an error wrapping domain.ErrRejected.
	PlaceLimitOrder(ctx context.Context, req domain.LimitOrderRequest) (domain.OrderID, error)

	// PlaceMarketOrder is fire-and-forget; the error only reports transport failures.
	PlaceMarketOrder(ctx context.Context, req domain.MarketOrderRequest) error

	// CancelOrder is idempotent: canceling an unknown or filled order is not an error.
	CancelOrder(ctx context.Context, instrument domain.Instrument, id domain.OrderID) error
}

// FillSource is implemented by venues that produce fills locally (paper trading).
type FillSource interface {
	// DrainFills returns and forgets the fills produced since the last call.
	DrainFills() []domain.AccountUpdate
}

// MarketObserver is implemented by venues that mirror the public book from
// the same events the engine sees.
type MarketObserver interface {
	Observe(ev domain.Event)
}
