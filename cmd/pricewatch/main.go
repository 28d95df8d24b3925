// pricewatch subscribes to the markets given on the command line and
// prints every price update. Useful for checking the event server and the
// reconnect behavior without the rest of the dashboard.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ln9swrd/coinpulse-sub001/internal/channel"
	"github.com/ln9swrd/coinpulse-sub001/internal/event"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: pricewatch MARKET [MARKET...]")
		fmt.Fprintln(os.Stderr, "set COINPULSE_WS_URL to point at the event server")
		os.Exit(2)
	}
	wsURL := os.Getenv("COINPULSE_WS_URL")
	if wsURL == "" {
		fmt.Fprintln(os.Stderr, "COINPULSE_WS_URL is not set")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bus := event.NewBus()
	bus.Subscribe(event.EvConnected, func(event.Event) {
		fmt.Println("# connected")
	})
	bus.Subscribe(event.EvDisconnected, func(ev event.Event) {
		fmt.Printf("# disconnected: %s\n", ev.(event.DisconnectedEvent).Reason)
	})
	bus.Subscribe(event.EvConnectionError, func(ev event.Event) {
		ce := ev.(event.ConnectionErrorEvent)
		fmt.Printf("# error: %v\n", ce.Err)
		if ce.Terminal {
			stop()
		}
	})
	bus.Subscribe(event.EvPriceUpdate, func(ev event.Event) {
		pu := ev.(event.PriceUpdateEvent)
		ts := time.UnixMilli(pu.TsMS).Format("15:04:05.000")
		fmt.Printf("%s  %-12s %s\n", ts, pu.Market, pu.Price)
	})

	ch := channel.New(channel.Config{URL: wsURL}, bus)
	if err := ch.Connect(ctx); err != nil {
		slog.Error("connect failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer ch.Disconnect()

	for _, market := range os.Args[1:] {
		ch.SubscribeMarket(market)
	}

	<-ctx.Done()
}
