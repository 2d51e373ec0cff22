package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/alejandrodnm/courtside/internal/domain"
)

// WSConfig configures a WebSocketSource.
type WSConfig struct {
	URL string
	// Subscribe, when not empty, is sent as a text frame right after dialing.
	Subscribe     []byte
	PingInterval  time.Duration
	ReadTimeout   time.Duration
	MaxReconnects int
	Backoff       time.Duration
}

// WebSocketSource streams envelopes from a websocket, one per text frame.
// Dropped connections are redialed with exponential backoff; a normal close
// from the server ends the stream.
type WebSocketSource struct {
	cfg    WSConfig
	dialer *websocket.Dialer
}

// NewWebSocketSource applies defaults to cfg.
func NewWebSocketSource(cfg WSConfig) *WebSocketSource {
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = 15 * time.Second
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 3 * cfg.PingInterval
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = 500 * time.Millisecond
	}
	if cfg.MaxReconnects < 0 {
		cfg.MaxReconnects = 0
	}
	return &WebSocketSource{
		cfg: cfg,
		dialer: &websocket.Dialer{
			HandshakeTimeout: 10 * time.Second,
		},
	}
}

var errNormalClose = errors.New("normal close")

// Run implements ports.EventSource. The reconnect budget only counts
// consecutive failures: a connection that delivered at least one frame
// restores it.
func (s *WebSocketSource) Run(ctx context.Context, out chan<- domain.Event) error {
	var lastErr error
	for attempt := 0; attempt <= s.cfg.MaxReconnects; attempt++ {
		if attempt > 0 {
			wait := s.cfg.Backoff * time.Duration(1<<uint(attempt-1))
			slog.Warn("feed: reconnecting", "attempt", attempt, "wait", wait, "err", lastErr)
			if err := sleep(ctx, wait); err != nil {
				return err
			}
		}

		healthy, err := s.stream(ctx, out)
		switch {
		case err == nil, errors.Is(err, errNormalClose):
			return nil
		case ctx.Err() != nil:
			return ctx.Err()
		}
		lastErr = err
		if healthy {
			// conexión sana: el presupuesto vuelve a empezar
			attempt = 0
		}
	}
	return fmt.Errorf("feed.WebSocket: giving up after %d reconnects: %w", s.cfg.MaxReconnects, lastErr)
}

// stream reads one connection until it fails. healthy reports whether any
// frame arrived before that.
func (s *WebSocketSource) stream(ctx context.Context, out chan<- domain.Event) (healthy bool, err error) {
	conn, _, err := s.dialer.DialContext(ctx, s.cfg.URL, nil)
	if err != nil {
		return false, fmt.Errorf("feed.WebSocket: dial %s: %w", s.cfg.URL, err)
	}
	defer conn.Close()
	slog.Info("feed: websocket connected", "url", s.cfg.URL)

	if len(s.cfg.Subscribe) > 0 {
		if err := conn.WriteMessage(websocket.TextMessage, s.cfg.Subscribe); err != nil {
			return false, fmt.Errorf("feed.WebSocket: subscribe: %w", err)
		}
	}

	_ = conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
	})

	done := make(chan struct{})
	defer close(done)
	go s.keepAlive(ctx, conn, done)

	for {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Info("feed: websocket closed by server")
				return healthy, errNormalClose
			}
			return healthy, fmt.Errorf("feed.WebSocket: read: %w", err)
		}
		healthy = true
		_ = conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
		if kind != websocket.TextMessage {
			continue
		}

		ev, err := Decode(data)
		if err != nil {
			slog.Warn("feed: dropping frame", "err", err)
			continue
		}
		select {
		case out <- ev:
		case <-ctx.Done():
			return healthy, ctx.Err()
		}
	}
}

// keepAlive pings until the stream ends. Cancelling ctx closes the
// connection, which unblocks the reader.
func (s *WebSocketSource) keepAlive(ctx context.Context, conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(s.cfg.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			_ = conn.Close()
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				slog.Debug("feed: ping failed", "err", err)
				return
			}
		}
	}
}

// sleep espera d o hasta que ctx se cancele.
func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
