// Package kalshi is a minimal signed client for the Kalshi trade API v2,
// covering the market data and portfolio endpoints the bots use.
package kalshi

import (
	"bytes"
	"context"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

const apiPrefix = "/trade-api/v2"

// Config for the API client.
type Config struct {
	BaseURL    string
	KeyID      string
	PrivateKey *rsa.PrivateKey
	Timeout    time.Duration
}

// Client talks to the Kalshi trade API. Safe for concurrent use.
type Client struct {
	baseURL string
	keyID   string
	key     *rsa.PrivateKey
	http    *http.Client
	now     func() time.Time
}

// New creates a client. BaseURL defaults to the production elections API.
func New(cfg Config) (*Client, error) {
	if cfg.KeyID == "" {
		return nil, fmt.Errorf("kalshi: key ID is required")
	}
	if cfg.PrivateKey == nil {
		return nil, fmt.Errorf("kalshi: private key is required")
	}
	base := cfg.BaseURL
	if base == "" {
		base = "https://api.elections.kalshi.com"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: base,
		keyID:   cfg.KeyID,
		key:     cfg.PrivateKey,
		http:    &http.Client{Timeout: timeout},
		now:     time.Now,
	}, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("kalshi: encode request: %w", err)
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return err
	}

	ts := strconv.FormatInt(c.now().UnixMilli(), 10)
	sig, err := signRequest(c.key, ts, method, path)
	if err != nil {
		return err
	}
	req.Header.Set("KALSHI-ACCESS-KEY", c.keyID)
	req.Header.Set("KALSHI-ACCESS-TIMESTAMP", ts)
	req.Header.Set("KALSHI-ACCESS-SIGNATURE", sig)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("kalshi: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("kalshi: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Debug().Int("status", resp.StatusCode).Str("path", path).Msg("API error response")
		return &APIError{Status: resp.StatusCode, Path: path, Body: string(raw)}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("kalshi: decode %s: %w", path, err)
	}
	return nil
}

// APIError is a non-2xx response from the exchange.
type APIError struct {
	Status int
	Path   string
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("kalshi: %s returned %d: %s", e.Path, e.Status, e.Body)
}

// Markets lists markets for a series. Status may be "open" or empty for all.
func (c *Client) Markets(ctx context.Context, seriesTicker, status string, limit int) ([]Market, error) {
	q := url.Values{}
	if seriesTicker != "" {
		q.Set("series_ticker", seriesTicker)
	}
	if status != "" {
		q.Set("status", status)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var resp marketsResponse
	if err := c.do(ctx, http.MethodGet, apiPrefix+"/markets", q, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Markets, nil
}

// Market fetches one market by ticker.
func (c *Client) Market(ctx context.Context, ticker string) (Market, error) {
	var resp marketResponse
	err := c.do(ctx, http.MethodGet, apiPrefix+"/markets/"+ticker, nil, nil, &resp)
	return resp.Market, err
}

// Orderbook fetches resting orders for a market, up to depth levels per side.
func (c *Client) Orderbook(ctx context.Context, ticker string, depth int) (Orderbook, error) {
	q := url.Values{}
	if depth > 0 {
		q.Set("depth", strconv.Itoa(depth))
	}
	var resp orderbookResponse
	err := c.do(ctx, http.MethodGet, apiPrefix+"/markets/"+ticker+"/orderbook", q, nil, &resp)
	return resp.Orderbook, err
}

// Balance returns available cash in cents.
func (c *Client) Balance(ctx context.Context) (int, error) {
	var resp Balance
	if err := c.do(ctx, http.MethodGet, apiPrefix+"/portfolio/balance", nil, nil, &resp); err != nil {
		return 0, err
	}
	return resp.BalanceCents, nil
}

// Positions returns all market positions.
func (c *Client) Positions(ctx context.Context) ([]Position, error) {
	var resp positionsResponse
	if err := c.do(ctx, http.MethodGet, apiPrefix+"/portfolio/positions", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.MarketPositions, nil
}

// HeldPositions returns positions with live contracts or resting orders,
// keyed by ticker.
func (c *Client) HeldPositions(ctx context.Context) (map[string]Position, error) {
	positions, err := c.Positions(ctx)
	if err != nil {
		return nil, err
	}
	held := make(map[string]Position)
	for _, p := range positions {
		if p.Position != 0 || p.RestingOrdersCount > 0 {
			held[p.Ticker] = p
		}
	}
	return held, nil
}

// PlaceOrder submits a limit order.
func (c *Client) PlaceOrder(ctx context.Context, req OrderRequest) (Order, error) {
	if req.Type == "" {
		req.Type = "limit"
	}
	var resp orderResponse
	err := c.do(ctx, http.MethodPost, apiPrefix+"/portfolio/orders", nil, req, &resp)
	if err != nil {
		return Order{}, err
	}
	log.Info().
		Str("ticker", req.Ticker).
		Str("side", req.Side).
		Str("action", req.Action).
		Int("count", req.Count).
		Str("order_id", resp.Order.OrderID).
		Msg("Order placed")
	return resp.Order, nil
}
