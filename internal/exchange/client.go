// Package exchange is the client for the remote order API. The local view
// of orders is only ever a cache of what these endpoints return.
package exchange

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ln9swrd/coinpulse-sub001/internal/domain"
	"github.com/ln9swrd/coinpulse-sub001/internal/infra"
)

// ErrCircuitOpen is returned while the breaker is rejecting requests.
var ErrCircuitOpen = errors.New("order API circuit open")

// Client talks to the remote order API. All calls honor the passed context,
// go through the token-bucket limiters and trip the shared circuit breaker
// on repeated failure.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	readLimiter  *infra.RateLimiter
	writeLimiter *infra.RateLimiter
	breaker      *infra.CircuitBreaker
}

// NewClient creates an order API client for the given base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		readLimiter:  infra.NewRateLimiter(10, 20), // 20 req/s, burst 10
		writeLimiter: infra.NewRateLimiter(5, 10),  // 10 req/s, burst 5
		breaker:      infra.NewCircuitBreaker(infra.DefaultCircuitBreakerConfig("order-api")),
	}
}

// OpenOrders fetches the resting orders for a market (state=wait).
func (c *Client) OpenOrders(ctx context.Context, market string) ([]domain.PendingOrder, error) {
	q := url.Values{}
	q.Set("state", domain.StateWait)
	q.Set("market", market)

	body, err := c.do(ctx, http.MethodGet, "/orders?"+q.Encode(), nil, c.readLimiter)
	if err != nil {
		return nil, err
	}

	var resp ordersResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode orders: %w", err)
	}
	if !resp.Success {
		return nil, apiError("orders", resp.Message)
	}
	return resp.Orders, nil
}

// CreateOrder places a new limit order.
func (c *Client) CreateOrder(ctx context.Context, market string, side domain.Side, price, volume decimal.Decimal) error {
	if !side.Valid() {
		return fmt.Errorf("invalid order side: %q", side)
	}

	req := createOrderRequest{
		Market:  market,
		Side:    string(side),
		Price:   price.String(),
		Volume:  volume.String(),
		OrdType: "limit",
	}

	body, err := c.do(ctx, http.MethodPost, "/order", req, c.writeLimiter)
	if err != nil {
		return err
	}

	var resp simpleResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("decode create response: %w", err)
	}
	if !resp.Success {
		return apiError("create order", resp.Message)
	}
	return nil
}

// CancelOrder cancels a resting order by its exchange-assigned uuid.
// The cancel endpoint does not echo order details back.
func (c *Client) CancelOrder(ctx context.Context, uuid string) error {
	body, err := c.do(ctx, http.MethodDelete, "/order/"+url.PathEscape(uuid), nil, c.writeLimiter)
	if err != nil {
		return err
	}

	var resp simpleResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("decode cancel response: %w", err)
	}
	if !resp.Success {
		return apiError("cancel order", resp.Message)
	}
	return nil
}

// Balance fetches the quote-currency account balance.
func (c *Client) Balance(ctx context.Context) (decimal.Decimal, error) {
	body, err := c.do(ctx, http.MethodGet, "/account/balance", nil, c.readLimiter)
	if err != nil {
		return decimal.Zero, err
	}

	var resp balanceResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return decimal.Zero, fmt.Errorf("decode balance: %w", err)
	}
	if !resp.Success {
		return decimal.Zero, apiError("balance", resp.Message)
	}
	return resp.Balance, nil
}

// Holdings fetches all non-zero asset positions.
func (c *Client) Holdings(ctx context.Context) ([]domain.Holding, error) {
	body, err := c.do(ctx, http.MethodGet, "/holdings", nil, c.readLimiter)
	if err != nil {
		return nil, err
	}

	var resp holdingsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode holdings: %w", err)
	}
	if !resp.Success {
		return nil, apiError("holdings", resp.Message)
	}

	out := make([]domain.Holding, 0, len(resp.Holdings))
	for _, h := range resp.Holdings {
		out = append(out, domain.Holding{Symbol: h.symbol(), Balance: h.Balance})
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, lim *infra.RateLimiter) ([]byte, error) {
	if !c.breaker.Allow() {
		return nil, ErrCircuitOpen
	}

	if err := lim.Wait(ctx); err != nil {
		return nil, err
	}

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("User-Agent", infra.GetUserAgent())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.breaker.RecordFailure()
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		c.breaker.RecordFailure()
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		c.breaker.RecordFailure()
		return nil, fmt.Errorf("order API %s %s: status %d", method, path, resp.StatusCode)
	}

	c.breaker.RecordSuccess()
	return data, nil
}

func apiError(op, message string) error {
	if message == "" {
		message = "request rejected"
	}
	return fmt.Errorf("order API %s failed: %s", op, message)
}
