package venue

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/alejandrodnm/courtside/internal/domain"
)

const (
	apiKeyHeader = "X-API-Key"

	// Por debajo del límite del exchange (20/s) para dejar margen a cancels en ráfaga.
	defaultRatePerSec = 12
	defaultBurst      = 6

	maxRetries       = 3
	defaultRetryWait = 500 * time.Millisecond
)

// Config configura el Client REST del exchange.
type Config struct {
	BaseURL    string
	APIKey     string
	RatePerSec float64
	Burst      int
	Timeout    time.Duration
	RetryWait  time.Duration
}

// Client implements ports.OrderRouter over the exchange REST API.
type Client struct {
	http      *http.Client
	base      string
	apiKey    string
	limiter   *rate.Limiter
	retryWait time.Duration
}

// NewClient aplica defaults a los campos vacíos de cfg.
func NewClient(cfg Config) *Client {
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = defaultRatePerSec
	}
	if cfg.Burst <= 0 {
		cfg.Burst = defaultBurst
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.RetryWait <= 0 {
		cfg.RetryWait = defaultRetryWait
	}
	return &Client{
		http:      &http.Client{Timeout: cfg.Timeout},
		base:      cfg.BaseURL,
		apiKey:    cfg.APIKey,
		limiter:   rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.Burst),
		retryWait: cfg.RetryWait,
	}
}

type limitOrderBody struct {
	ClientOrderID string  `json:"client_order_id"`
	Instrument    string  `json:"instrument"`
	Side          string  `json:"side"`
	Quantity      float64 `json:"quantity"`
	Price         float64 `json:"price"`
	IOC           bool    `json:"ioc"`
}

type marketOrderBody struct {
	ClientOrderID string  `json:"client_order_id"`
	Instrument    string  `json:"instrument"`
	Side          string  `json:"side"`
	Quantity      float64 `json:"quantity"`
}

type orderResponse struct {
	OrderID int64 `json:"order_id"`
}

// statusError es una respuesta HTTP no reintentable.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.code, e.body)
}

// PlaceLimitOrder envía una orden límite (o IOC) y devuelve el id asignado.
func (c *Client) PlaceLimitOrder(ctx context.Context, req domain.LimitOrderRequest) (domain.OrderID, error) {
	body := limitOrderBody{
		ClientOrderID: uuid.NewString(),
		Instrument:    string(req.Instrument),
		Side:          req.Side.String(),
		Quantity:      req.Quantity,
		Price:         req.Price,
		IOC:           req.IOC,
	}
	var resp orderResponse
	if err := c.do(ctx, http.MethodPost, "/orders", body, &resp); err != nil {
		return domain.RejectedOrderID, fmt.Errorf("venue.PlaceLimitOrder: %w", rejection(err))
	}
	if resp.OrderID == int64(domain.RejectedOrderID) {
		return domain.RejectedOrderID, fmt.Errorf("venue.PlaceLimitOrder: %w", domain.ErrRejected)
	}
	return domain.OrderID(resp.OrderID), nil
}

// PlaceMarketOrder envía una orden a mercado.
func (c *Client) PlaceMarketOrder(ctx context.Context, req domain.MarketOrderRequest) error {
	body := marketOrderBody{
		ClientOrderID: uuid.NewString(),
		Instrument:    string(req.Instrument),
		Side:          req.Side.String(),
		Quantity:      req.Quantity,
	}
	if err := c.do(ctx, http.MethodPost, "/orders/market", body, nil); err != nil {
		return fmt.Errorf("venue.PlaceMarketOrder: %w", rejection(err))
	}
	return nil
}

// CancelOrder cancela una orden. Un 404 (orden ya ejecutada o cancelada) no es error.
func (c *Client) CancelOrder(ctx context.Context, instrument domain.Instrument, id domain.OrderID) error {
	path := "/orders/" + strconv.FormatInt(int64(id), 10) + "?instrument=" + url.QueryEscape(string(instrument))
	err := c.do(ctx, http.MethodDelete, path, nil, nil)
	var se *statusError
	if errors.As(err, &se) && se.code == http.StatusNotFound {
		slog.Debug("venue: cancel of unknown order", "order_id", id)
		return nil
	}
	if err != nil {
		return fmt.Errorf("venue.CancelOrder: %w", err)
	}
	return nil
}

// rejection marca los 4xx como rechazos del exchange.
func rejection(err error) error {
	var se *statusError
	if errors.As(err, &se) {
		return fmt.Errorf("%w: %v", domain.ErrRejected, se)
	}
	return err
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		payload = b
	}
	return c.doWithRetry(ctx, func() (*http.Response, error) {
		var rd io.Reader
		if payload != nil {
			rd = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
		if err != nil {
			return nil, err
		}
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		req.Header.Set("Accept", "application/json")
		if c.apiKey != "" {
			req.Header.Set(apiKeyHeader, c.apiKey)
		}
		return c.http.Do(req)
	}, out)
}

// doWithRetry ejecuta la función con backoff exponencial, respetando el contexto.
func (c *Client) doWithRetry(ctx context.Context, fn func() (*http.Response, error), out any) error {
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}

		resp, err := fn()
		if err != nil {
			if attempt == maxRetries || ctx.Err() != nil {
				return fmt.Errorf("request failed after %d retries: %w", attempt, err)
			}
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			resp.Body.Close()
			if attempt == maxRetries {
				return fmt.Errorf("server error %d after %d retries", resp.StatusCode, maxRetries)
			}
			slog.Warn("venue: retrying", "status", resp.StatusCode, "attempt", attempt+1)
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode >= 400 {
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return &statusError{code: resp.StatusCode, body: string(bytes.TrimSpace(b))}
		}

		defer resp.Body.Close()
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	}
	return fmt.Errorf("exhausted %d retries", maxRetries)
}

func (c *Client) sleep(ctx context.Context, attempt int) {
	wait := time.Duration(math.Pow(2, float64(attempt))) * c.retryWait
	select {
	case <-time.After(wait):
	case <-ctx.Done():
	}
}
