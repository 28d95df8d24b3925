package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ln9swrd/coinpulse-sub001/internal/channel"
	"github.com/ln9swrd/coinpulse-sub001/internal/chart"
	"github.com/ln9swrd/coinpulse-sub001/internal/event"
	"github.com/ln9swrd/coinpulse-sub001/internal/exchange"
	"github.com/ln9swrd/coinpulse-sub001/internal/storage"
	"github.com/ln9swrd/coinpulse-sub001/internal/trade"
)

// Core is the composed dashboard: channel, overlay, drag controller,
// mutation coordinator and reconciliation sweep sharing one event bus.
// The embedding shell supplies the renderer and receives pointer events
// through Drag.
type Core struct {
	Bus         *event.Bus
	Channel     *channel.Channel
	Client      *exchange.Client
	Candles     *chart.TickCandleSource
	Overlay     *chart.Overlay
	Drag        *chart.DragController
	Coordinator *trade.Coordinator
	Sweeper     *storage.Sweeper

	markets []string
	userID  string
	log     *slog.Logger
}

// BuildCore wires every component from the bootstrapped configuration.
// Nothing is global; the shell holds the Core and tears it down.
func BuildCore(b *Bootstrap, renderer chart.Renderer, onPriceSelected chart.PriceSelectedFunc) *Core {
	cfg := b.Config
	log := slog.Default()

	bus := event.NewBus()
	client := exchange.NewClient(cfg.Server.RestURL)
	candles := chart.NewTickCandleSource(time.Minute, 120)
	overlay := chart.NewOverlay(client, renderer, candles, cfg.Chart.TolerancePct, log)
	coord := trade.NewCoordinator(client, overlay, overlay, b.Ledger, log)
	drag := chart.NewDragController(overlay, coord, onPriceSelected, log)
	sweeper := storage.NewSweeper(b.Ledger, client, bus, b.SweepInterval(), log)
	ch := channel.New(b.ChannelConfig(), bus)

	core := &Core{
		Bus:         bus,
		Channel:     ch,
		Client:      client,
		Candles:     candles,
		Overlay:     overlay,
		Drag:        drag,
		Coordinator: coord,
		Sweeper:     sweeper,
		markets:     cfg.Chart.Markets,
		userID:      cfg.Server.UserID,
		log:         log,
	}

	bus.Subscribe(event.EvPriceUpdate, func(ev event.Event) {
		pu := ev.(event.PriceUpdateEvent)
		if pu.Market == core.activeMarket() {
			candles.Apply(pu.Price, pu.TsMS)
		}
	})
	// The channel itself never replays authenticate, so the shell re-sends
	// it on every Connected transition. Before the first connect there is
	// no transport to write to; this hook is the earliest point a frame
	// can actually go out.
	if core.userID != "" {
		bus.Subscribe(event.EvConnected, func(event.Event) {
			ch.Authenticate(core.userID)
		})
	}
	// Snapshots go stale while disconnected and on every order fill, so
	// both triggers re-fetch. Refreshes run off the reader goroutine.
	bus.Subscribe(event.EvConnected, func(event.Event) {
		go core.refreshActive()
	})
	bus.Subscribe(event.EvOrderNotification, func(event.Event) {
		go core.refreshActive()
	})

	return core
}

// Start connects the channel, subscribes the configured markets and
// begins the reconciliation sweep. It returns once the connection attempt
// is underway; reconnects are the channel's business.
func (c *Core) Start(ctx context.Context) error {
	go c.Sweeper.Run(ctx)

	if err := c.Channel.Connect(ctx); err != nil {
		return fmt.Errorf("connect event channel: %w", err)
	}
	for _, m := range c.markets {
		c.Channel.SubscribeMarket(m)
	}

	go c.refreshActive()
	return nil
}

// Stop disconnects the channel. The sweep stops with the Start context.
func (c *Core) Stop() {
	c.Channel.Disconnect()
}

// BuyAtPrice places a limit buy at price sized as pct percent of the
// current quote balance. The shell calls this from its order-entry form,
// typically with the price-selected value.
func (c *Core) BuyAtPrice(ctx context.Context, price decimal.Decimal, pct int64) error {
	market := c.activeMarket()
	if market == "" {
		return fmt.Errorf("no active market")
	}
	balance, err := c.Client.Balance(ctx)
	if err != nil {
		return fmt.Errorf("fetch balance: %w", err)
	}
	return c.Coordinator.PlaceBuy(ctx, market, price, balance, pct)
}

// SellAtPrice places a limit sell at price sized as pct percent of the
// held base asset of the active market.
func (c *Core) SellAtPrice(ctx context.Context, price decimal.Decimal, pct int64) error {
	market := c.activeMarket()
	if market == "" {
		return fmt.Errorf("no active market")
	}
	holdings, err := c.Client.Holdings(ctx)
	if err != nil {
		return fmt.Errorf("fetch holdings: %w", err)
	}
	held := trade.HoldingBalance(holdings, baseSymbol(market))
	return c.Coordinator.PlaceSell(ctx, market, price, held, pct)
}

// baseSymbol extracts the asset code from a market like "KRW-BTC".
func baseSymbol(market string) string {
	if i := strings.IndexByte(market, '-'); i >= 0 {
		return market[i+1:]
	}
	return market
}

func (c *Core) activeMarket() string {
	if len(c.markets) == 0 {
		return ""
	}
	return c.markets[0]
}

func (c *Core) refreshActive() {
	market := c.activeMarket()
	if market == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := c.Overlay.Refresh(ctx, market); err != nil {
		c.log.Warn("overlay refresh failed", "market", market, "error", err)
	}
}
