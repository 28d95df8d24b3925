// Package channel owns the single WebSocket connection to the market/order
// event server: connection lifecycle, subscription intent and replay, and
// typed event delivery over the bus.
package channel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"

	"github.com/ln9swrd/coinpulse-sub001/internal/event"
	"github.com/ln9swrd/coinpulse-sub001/internal/infra"
)

// State is the connection lifecycle state.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateReconnecting
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "DISCONNECTED"
	case StateConnecting:
		return "CONNECTING"
	case StateConnected:
		return "CONNECTED"
	case StateReconnecting:
		return "RECONNECTING"
	case StateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// Config tunes the channel's transport behavior.
type Config struct {
	URL          string
	BaseDelay    time.Duration // first reconnect delay
	MaxDelay     time.Duration // reconnect delay cap
	MaxAttempts  int           // reconnect attempts before FAILED
	PingInterval time.Duration
	ReadTimeout  time.Duration
}

// Channel maintains one connection to the event server. It tracks the
// desired-subscription set and replays it on every transition into the
// connected state, so a reconnect is invisible to consumers beyond a
// Disconnected/Connected event pair.
type Channel struct {
	cfg Config
	bus *event.Bus

	mu      sync.RWMutex
	conn    *websocket.Conn
	state   State
	subs    map[string]struct{}
	retries int
	cancel  context.CancelFunc

	writeMu sync.Mutex
	wg      sync.WaitGroup
}

// New creates a channel publishing to bus. Zero config fields fall back to
// defaults (1s base delay, 60s cap, 10 attempts, 30s ping, 60s read timeout).
func New(cfg Config, bus *event.Bus) *Channel {
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = infra.DefaultBaseDelay
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = infra.DefaultMaxDelay
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 10
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = 30 * time.Second
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 60 * time.Second
	}
	return &Channel{
		cfg:   cfg,
		bus:   bus,
		state: StateDisconnected,
		subs:  make(map[string]struct{}),
	}
}

// State returns the current lifecycle state.
func (c *Channel) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Subscriptions returns a copy of the desired-subscription set.
func (c *Channel) Subscriptions() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.subs))
	for m := range c.subs {
		out = append(out, m)
	}
	return out
}

// Connect starts the connection loop. A malformed endpoint is a
// configuration error: it is logged and returned, never retried.
func (c *Channel) Connect(ctx context.Context) error {
	if !strings.HasPrefix(c.cfg.URL, "ws://") && !strings.HasPrefix(c.cfg.URL, "wss://") {
		err := fmt.Errorf("event server URL is not a websocket endpoint: %q", c.cfg.URL)
		slog.Error("Channel connect refused", slog.Any("error", err))
		return err
	}

	c.mu.Lock()
	if c.state == StateConnecting || c.state == StateConnected || c.state == StateReconnecting {
		c.mu.Unlock()
		return errors.New("channel already running")
	}
	c.state = StateConnecting
	c.retries = 0
	ctx, c.cancel = context.WithCancel(ctx)
	c.mu.Unlock()

	c.wg.Add(1)
	go c.runLoop(ctx)
	return nil
}

// Disconnect closes the connection and cancels any pending reconnect
// backoff. The channel stays disconnected until Connect is called again.
func (c *Channel) Disconnect() {
	c.mu.Lock()
	cancel := c.cancel
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	c.closeConn()
	c.wg.Wait()

	c.mu.Lock()
	c.state = StateDisconnected
	c.mu.Unlock()

	c.bus.Publish(event.DisconnectedEvent{Reason: "explicit disconnect"})
	slog.Info("Channel disconnected")
}

// SubscribeMarket adds the market to the desired-subscription set. If the
// channel is connected the subscribe request is sent immediately; otherwise
// it is deferred to the next successful connect. Duplicate subscribes are
// no-ops.
func (c *Channel) SubscribeMarket(market string) {
	c.mu.Lock()
	if _, ok := c.subs[market]; ok {
		c.mu.Unlock()
		return
	}
	c.subs[market] = struct{}{}
	connected := c.state == StateConnected
	c.mu.Unlock()

	if !connected {
		return
	}
	if err := c.send(clientMessage{Event: opSubscribeMarket, Market: market}); err != nil {
		slog.Warn("Subscribe request not sent", slog.String("market", market), slog.Any("error", err))
	}
}

// UnsubscribeMarket removes the market from the set. The unsubscribe
// request is only sent while connected; a closed channel has nothing to
// unsubscribe from.
func (c *Channel) UnsubscribeMarket(market string) {
	c.mu.Lock()
	delete(c.subs, market)
	connected := c.state == StateConnected
	c.mu.Unlock()

	if !connected {
		return
	}
	if err := c.send(clientMessage{Event: opUnsubscribeMarket, Market: market}); err != nil {
		slog.Warn("Unsubscribe request not sent", slog.String("market", market), slog.Any("error", err))
	}
}

// Authenticate requests user-scoped notifications. It is not replayed on
// reconnect; callers listening for order notifications across reconnects
// must re-authenticate on the Connected event.
func (c *Channel) Authenticate(userID string) {
	if err := c.send(clientMessage{Event: opAuthenticate, UserID: userID}); err != nil {
		slog.Warn("Authenticate request not sent", slog.Any("error", err))
	}
}

func (c *Channel) runLoop(ctx context.Context) {
	defer c.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := c.dial(ctx); err != nil {
			c.mu.Lock()
			c.retries++
			retry := c.retries
			exhausted := retry >= c.cfg.MaxAttempts
			if exhausted {
				c.state = StateFailed
			} else {
				c.state = StateReconnecting
			}
			c.mu.Unlock()

			if exhausted {
				slog.Error("Channel reconnect attempts exhausted",
					slog.Int("attempts", retry), slog.Any("error", err))
				c.bus.Publish(event.ConnectionErrorEvent{Err: err, Terminal: true})
				return
			}

			delay := infra.CalculateBackoff(retry-1, c.cfg.BaseDelay, c.cfg.MaxDelay)
			slog.Warn("Channel connection failed",
				slog.Any("error", err), slog.Int("retry", retry), slog.Duration("delay", delay))
			c.bus.Publish(event.ConnectionErrorEvent{Err: err})

			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
				continue
			}
		}

		c.onConnected()
		pingCtx, stopPing := context.WithCancel(ctx)
		go c.pingLoop(pingCtx)
		c.readLoop(ctx)
		stopPing()

		select {
		case <-ctx.Done():
			return
		default:
		}

		c.mu.Lock()
		c.state = StateReconnecting
		c.mu.Unlock()
		c.bus.Publish(event.DisconnectedEvent{Reason: "transport loss"})
	}
}

func (c *Channel) dial(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	header := make(http.Header)
	header.Set("User-Agent", infra.GetUserAgent())

	conn, _, err := dialer.DialContext(ctx, c.cfg.URL, header)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	return nil
}

// onConnected runs on every transition into the connected state, resets the
// attempt counter and replays the desired-subscription set exactly once per
// market.
func (c *Channel) onConnected() {
	c.mu.Lock()
	c.state = StateConnected
	c.retries = 0
	markets := make([]string, 0, len(c.subs))
	for m := range c.subs {
		markets = append(markets, m)
	}
	c.mu.Unlock()

	slog.Info("Channel connected", slog.Int("subscriptions", len(markets)))
	c.bus.Publish(event.ConnectedEvent{})

	for _, m := range markets {
		if err := c.send(clientMessage{Event: opSubscribeMarket, Market: m}); err != nil {
			slog.Warn("Subscription replay failed", slog.String("market", m), slog.Any("error", err))
		}
	}
}

func (c *Channel) readLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		c.mu.RLock()
		conn := c.conn
		c.mu.RUnlock()
		if conn == nil {
			return
		}

		conn.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("Channel read error", slog.Any("error", err))
			}
			c.closeConn()
			return
		}

		c.handleMessage(msg)
	}
}

func (c *Channel) pingLoop(ctx context.Context) {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.mu.RLock()
			conn := c.conn
			connected := c.state == StateConnected
			c.mu.RUnlock()
			if conn == nil || !connected {
				return
			}
			if err := c.send(clientMessage{Event: opPing}); err != nil {
				slog.Warn("Channel ping failed", slog.Any("error", err))
				c.closeConn()
				return
			}
		}
	}
}

func (c *Channel) handleMessage(data []byte) {
	var msg serverMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		slog.Debug("Channel dropped unparseable frame", slog.Int("len", len(data)))
		return
	}

	switch msg.Event {
	case evPriceUpdate:
		// Defensive filter: the server should not send updates for markets
		// we never asked for, but stragglers can race an unsubscribe.
		c.mu.RLock()
		_, wanted := c.subs[msg.Market]
		c.mu.RUnlock()
		if !wanted {
			return
		}
		price, err := decimal.NewFromString(msg.Price.String())
		if err != nil {
			slog.Debug("Channel dropped price update with bad price",
				slog.String("market", msg.Market), slog.String("price", msg.Price.String()))
			return
		}
		c.bus.Publish(event.PriceUpdateEvent{Market: msg.Market, Price: price, TsMS: msg.TsMS})

	case evOrderNotification:
		c.bus.Publish(event.OrderNotificationEvent{Data: msg.Data})

	case evPositionUpdate:
		c.bus.Publish(event.PositionUpdateEvent{Data: msg.Data})

	case evError:
		c.bus.Publish(event.ConnectionErrorEvent{Err: errors.New(msg.Message)})

	case evConnected, evSubscribed, evAuthenticated, evPong:
		slog.Debug("Channel server ack", slog.String("event", msg.Event), slog.String("market", msg.Market))

	default:
		slog.Debug("Channel ignored unknown event", slog.String("event", msg.Event))
	}
}

func (c *Channel) send(msg clientMessage) error {
	b, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()
	if conn == nil {
		return errors.New("channel not connected")
	}

	return conn.WriteMessage(websocket.TextMessage, b)
}

func (c *Channel) closeConn() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}
