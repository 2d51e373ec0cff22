package feed_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/courtside/internal/adapters/feed"
	"github.com/alejandrodnm/courtside/internal/domain"
)

var upgrader = websocket.Upgrader{}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func closeNormally(conn *websocket.Conn) {
	_ = conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"))
	time.Sleep(20 * time.Millisecond)
}

func TestWebSocket_SubscribesAndStreams(t *testing.T) {
	subscribed := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		_, msg, err := conn.ReadMessage()
		if err == nil {
			subscribed <- string(msg)
		}
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"trade","instrument":"X","side":"buy","price":50,"quantity":2}`))
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"nope"}`))
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"game","event_type":"END_GAME"}`))
		closeNormally(conn)
	}))
	defer srv.Close()

	src := feed.NewWebSocketSource(feed.WSConfig{
		URL:       wsURL(srv),
		Subscribe: []byte(`{"subscribe":"X"}`),
	})
	out := make(chan domain.Event, 8)
	require.NoError(t, src.Run(context.Background(), out))

	assert.Equal(t, `{"subscribe":"X"}`, <-subscribed)
	events := drain(out)
	require.Len(t, events, 2)
	assert.Equal(t, domain.TradePrint{Instrument: "X", Side: domain.Buy, Price: 50, Quantity: 2}, events[0])
	assert.True(t, events[1].(domain.GameEvent).IsEndGame())
}

func TestWebSocket_ReconnectsAfterDrop(t *testing.T) {
	var conns atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		if conns.Add(1) == 1 {
			return // corte abrupto, sin close frame
		}
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"trade","instrument":"X","side":"sell","price":49,"quantity":1}`))
		closeNormally(conn)
	}))
	defer srv.Close()

	src := feed.NewWebSocketSource(feed.WSConfig{
		URL:           wsURL(srv),
		MaxReconnects: 3,
		Backoff:       10 * time.Millisecond,
	})
	out := make(chan domain.Event, 8)
	require.NoError(t, src.Run(context.Background(), out))

	assert.EqualValues(t, 2, conns.Load())
	assert.Len(t, drain(out), 1)
}

func TestWebSocket_HealthyDropsDoNotExhaustReconnects(t *testing.T) {
	var conns atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"trade","instrument":"X","side":"buy","price":51,"quantity":1}`))
		if conns.Add(1) < 5 {
			return // una trama y corte abrupto
		}
		closeNormally(conn)
	}))
	defer srv.Close()

	src := feed.NewWebSocketSource(feed.WSConfig{
		URL:           wsURL(srv),
		MaxReconnects: 2,
		Backoff:       5 * time.Millisecond,
	})
	out := make(chan domain.Event, 8)
	require.NoError(t, src.Run(context.Background(), out))

	assert.EqualValues(t, 5, conns.Load())
	assert.Len(t, drain(out), 5)
}

func TestWebSocket_GivesUp(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no", http.StatusForbidden)
	}))
	defer srv.Close()

	src := feed.NewWebSocketSource(feed.WSConfig{
		URL:           wsURL(srv),
		MaxReconnects: 1,
		Backoff:       5 * time.Millisecond,
	})
	err := src.Run(context.Background(), make(chan domain.Event, 1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "giving up")
}

func TestWebSocket_CancelEndsStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	src := feed.NewWebSocketSource(feed.WSConfig{URL: wsURL(srv), PingInterval: 20 * time.Millisecond})
	err := src.Run(ctx, make(chan domain.Event, 1))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
