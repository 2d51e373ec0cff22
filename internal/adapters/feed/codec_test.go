package feed_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/courtside/internal/adapters/feed"
	"github.com/alejandrodnm/courtside/internal/domain"
)

func TestDecode_MarketEvents(t *testing.T) {
	ev, err := feed.Decode([]byte(`{"type":"trade","instrument":"LAL-BOS","side":"sell","price":51.2,"quantity":3}`))
	require.NoError(t, err)
	assert.Equal(t, domain.TradePrint{Instrument: "LAL-BOS", Side: domain.Sell, Price: 51.2, Quantity: 3}, ev)

	ev, err = feed.Decode([]byte(`{"type":"book_delta","instrument":"LAL-BOS","side":"BUY","price":50.5,"quantity":0}`))
	require.NoError(t, err)
	assert.Equal(t, domain.BookDelta{Instrument: "LAL-BOS", Side: domain.Buy, Price: 50.5}, ev)

	ev, err = feed.Decode([]byte(`{"type":"book_snapshot","instrument":"LAL-BOS","bids":[[50,10],[49.5,4]],"asks":[[51,7]]}`))
	require.NoError(t, err)
	snap, ok := ev.(domain.BookSnapshot)
	require.True(t, ok)
	assert.Equal(t, []domain.BookEntry{{Price: 50, Size: 10}, {Price: 49.5, Size: 4}}, snap.Bids)
	assert.Equal(t, []domain.BookEntry{{Price: 51, Size: 7}}, snap.Asks)

	ev, err = feed.Decode([]byte(`{"type":"account","instrument":"LAL-BOS","side":"sell","price":52,"quantity":5,"capital_remaining":99740}`))
	require.NoError(t, err)
	acct, ok := ev.(domain.AccountUpdate)
	require.True(t, ok)
	assert.Equal(t, 99740.0, acct.CapitalRemaining)
	assert.Equal(t, -5.0, acct.SignedQuantity())
}

func TestDecode_GameEvent(t *testing.T) {
	ev, err := feed.Decode([]byte(`{"type":"game","event_type":"SCORE","home_away":"home","home_score":54,"away_score":50,"player_name":"Tatum","shot_type":"THREE_POINT","time_seconds":1180.5}`))
	require.NoError(t, err)
	g, ok := ev.(domain.GameEvent)
	require.True(t, ok)
	assert.Equal(t, domain.EventScore, g.Type)
	assert.Equal(t, 54, g.HomeScore)
	require.NotNil(t, g.ShotType)
	assert.Equal(t, domain.ShotThreePoint, *g.ShotType)
	require.NotNil(t, g.TimeRemaining)
	assert.InDelta(t, 1180.5, *g.TimeRemaining, 1e-9)

	ev, err = feed.Decode([]byte(`{"type":"game","event_type":"END_GAME","home_score":101,"away_score":99}`))
	require.NoError(t, err)
	g = ev.(domain.GameEvent)
	assert.True(t, g.IsEndGame())
	assert.Nil(t, g.TimeRemaining)
}

func TestDecode_Errors(t *testing.T) {
	_, err := feed.Decode([]byte(`{"type":"heartbeat"}`))
	assert.ErrorIs(t, err, feed.ErrUnknownEvent)

	_, err = feed.Decode([]byte(`{"type":"trade","side":"sideways","price":1,"quantity":1}`))
	assert.ErrorIs(t, err, feed.ErrMalformed)

	_, err = feed.Decode([]byte(`{"type":"game"}`))
	assert.ErrorIs(t, err, feed.ErrMalformed)

	_, err = feed.Decode([]byte(`not json`))
	assert.ErrorIs(t, err, feed.ErrMalformed)
}

func TestEncode_RoundTripsThroughDecode(t *testing.T) {
	tr := 12.0
	events := []domain.Event{
		domain.BookSnapshot{Instrument: "X", Bids: []domain.BookEntry{{Price: 40, Size: 2}}, Asks: []domain.BookEntry{{Price: 41, Size: 3}}},
		domain.GameEvent{Type: domain.EventTurnover, HomeAway: "away", HomeScore: 80, AwayScore: 81, TimeRemaining: &tr},
	}
	for _, ev := range events {
		data, err := feed.Encode(ev)
		require.NoError(t, err)
		got, err := feed.Decode(data)
		require.NoError(t, err)
		assert.Equal(t, ev, got)
	}
}
