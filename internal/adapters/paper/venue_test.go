package paper_test

import (
	"context"
	"testing"

	"github.com/alejandrodnm/courtside/internal/adapters/paper"
	"github.com/alejandrodnm/courtside/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const team = domain.Instrument("TEAM_A")

func newVenue() *paper.Venue {
	v := paper.New(paper.Config{Instrument: team, InitialCapital: 10000, PriceTick: 0.1, MinBookQty: 1})
	v.Observe(domain.BookSnapshot{
		Instrument: team,
		Bids:       []domain.BookEntry{{Price: 45.0, Size: 5}, {Price: 44.8, Size: 10}},
		Asks:       []domain.BookEntry{{Price: 45.3, Size: 5}, {Price: 45.6, Size: 10}},
	})
	return v
}

func TestVenue_IOCFillsAgainstAsks(t *testing.T) {
	v := newVenue()
	id, err := v.PlaceLimitOrder(context.Background(), domain.LimitOrderRequest{
		Instrument: team, Side: domain.Buy, Quantity: 8, Price: 45.3, IOC: true,
	})
	require.NoError(t, err)
	assert.Positive(t, int64(id))

	fills := v.DrainFills()
	require.Len(t, fills, 1, "only the 45.3 level is inside the limit")
	assert.Equal(t, 5.0, fills[0].Quantity)
	assert.Equal(t, 45.3, fills[0].Price)
	assert.InDelta(t, 10000-5*45.3, fills[0].CapitalRemaining, 1e-9)
	assert.Zero(t, v.OpenOrders(), "IOC remainder is canceled")
	assert.Empty(t, v.DrainFills())
}

func TestVenue_MarketSweepsLevels(t *testing.T) {
	v := newVenue()
	require.NoError(t, v.PlaceMarketOrder(context.Background(), domain.MarketOrderRequest{
		Instrument: team, Side: domain.Sell, Quantity: 12,
	}))

	fills := v.DrainFills()
	require.Len(t, fills, 2)
	assert.Equal(t, 45.0, fills[0].Price)
	assert.Equal(t, 5.0, fills[0].Quantity)
	assert.Equal(t, 44.8, fills[1].Price)
	assert.Equal(t, 7.0, fills[1].Quantity)
	assert.Equal(t, -12.0, v.Position())
}

func TestVenue_MarketWithoutLiquidityUsesLastTrade(t *testing.T) {
	v := paper.New(paper.Config{Instrument: team, InitialCapital: 1000, PriceTick: 0.1, MinBookQty: 1})
	ctx := context.Background()

	err := v.PlaceMarketOrder(ctx, domain.MarketOrderRequest{Instrument: team, Side: domain.Buy, Quantity: 2})
	assert.ErrorIs(t, err, domain.ErrRejected)

	v.Observe(domain.TradePrint{Instrument: team, Side: domain.Buy, Quantity: 1, Price: 52})
	require.NoError(t, v.PlaceMarketOrder(ctx, domain.MarketOrderRequest{Instrument: team, Side: domain.Buy, Quantity: 2}))
	fills := v.DrainFills()
	require.Len(t, fills, 1)
	assert.Equal(t, 52.0, fills[0].Price)
}

func TestVenue_PassiveRestsAndFillsOnCross(t *testing.T) {
	v := newVenue()
	id, err := v.PlaceLimitOrder(context.Background(), domain.LimitOrderRequest{
		Instrument: team, Side: domain.Buy, Quantity: 3, Price: 45.1,
	})
	require.NoError(t, err)
	assert.Empty(t, v.DrainFills())
	assert.Equal(t, 1, v.OpenOrders())

	v.Observe(domain.BookDelta{Instrument: team, Side: domain.Sell, Price: 45.1, Quantity: 2})
	fills := v.DrainFills()
	require.Len(t, fills, 1)
	assert.Equal(t, 2.0, fills[0].Quantity)
	assert.Equal(t, 1, v.OpenOrders())

	v.Observe(domain.TradePrint{Instrument: team, Side: domain.Sell, Quantity: 4, Price: 45.0})
	fills = v.DrainFills()
	require.Len(t, fills, 1)
	assert.Equal(t, 1.0, fills[0].Quantity)
	assert.Equal(t, 45.1, fills[0].Price)
	assert.Zero(t, v.OpenOrders())

	require.NoError(t, v.CancelOrder(context.Background(), team, id), "cancel is idempotent")
}

func TestVenue_Rejections(t *testing.T) {
	v := newVenue()
	ctx := context.Background()

	_, err := v.PlaceLimitOrder(ctx, domain.LimitOrderRequest{Instrument: "OTHER", Side: domain.Buy, Quantity: 1, Price: 45})
	assert.ErrorIs(t, err, domain.ErrRejected)

	id, err := v.PlaceLimitOrder(ctx, domain.LimitOrderRequest{Instrument: team, Side: domain.Buy, Quantity: 0, Price: 45})
	assert.ErrorIs(t, err, domain.ErrRejected)
	assert.Equal(t, domain.RejectedOrderID, id)

	_, err = v.PlaceLimitOrder(ctx, domain.LimitOrderRequest{Instrument: team, Side: domain.Buy, Quantity: 1000, Price: 45})
	assert.ErrorIs(t, err, domain.ErrRejected, "insufficient capital")
}

func TestVenue_EndGameSettles(t *testing.T) {
	v := newVenue()
	ctx := context.Background()
	_, err := v.PlaceLimitOrder(ctx, domain.LimitOrderRequest{Instrument: team, Side: domain.Buy, Quantity: 2, Price: 44.0})
	require.NoError(t, err)

	v.Observe(domain.GameEvent{Type: domain.EventEndGame})
	assert.Zero(t, v.OpenOrders())
	assert.Equal(t, 10000.0, v.Capital())

	require.NoError(t, v.PlaceMarketOrder(ctx, domain.MarketOrderRequest{Instrument: team, Side: domain.Sell, Quantity: 2}))
	assert.Empty(t, v.DrainFills())
}
