// Package market provides the market price adapter used by ticker
// formulas: an HTTP quote client with a short timeout, wrapped in a
// process-wide cache with a freshness window, stale fallback, and a
// background eviction sweep.
package market

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// Source provides the current price for a ticker symbol. A lookup
// fails on an unknown symbol, a network failure, or a timeout.
type Source interface {
	Price(symbol string) (float64, error)
}

// DefaultTimeout bounds a single quote request. Expiry is a normal
// failure path, not an exceptional one.
const DefaultTimeout = 3 * time.Second

// quote is the wire shape of the quote endpoint response
type quote struct {
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
}

// Client fetches prices from an HTTP quote endpoint:
// GET <endpoint>/quote?symbol=XYZ returning {"symbol":..,"price":..}.
type Client struct {
	endpoint string
	timeout  time.Duration
	http     *http.Client
	log      *zap.Logger
}

// NewClient creates a quote client. timeout <= 0 selects
// DefaultTimeout; log may be nil.
func NewClient(endpoint string, timeout time.Duration, log *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		endpoint: endpoint,
		timeout:  timeout,
		http:     &http.Client{},
		log:      log,
	}
}

// Price fetches the current price for symbol
func (c *Client) Price(symbol string) (float64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	u := fmt.Sprintf("%s/quote?symbol=%s", c.endpoint, url.QueryEscape(symbol))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, fmt.Errorf("market: build quote request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("market: fetch quote for %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("market: quote for %s: unexpected status %d", symbol, resp.StatusCode)
	}

	var q quote
	if err := json.NewDecoder(resp.Body).Decode(&q); err != nil {
		return 0, fmt.Errorf("market: decode quote for %s: %w", symbol, err)
	}

	c.log.Debug("fetched quote",
		zap.String("symbol", symbol),
		zap.Float64("price", q.Price))
	return q.Price, nil
}
