package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/shopspring/decimal"

	"github.com/ln9swrd/coinpulse-sub001/internal/app"
	"github.com/ln9swrd/coinpulse-sub001/internal/chart"
	"github.com/ln9swrd/coinpulse-sub001/internal/domain"
	"github.com/ln9swrd/coinpulse-sub001/internal/event"
)

// logRenderer is the headless shell's renderer: order lines become log
// lines. A UI shell substitutes its own implementation.
type logRenderer struct {
	nextID atomic.Int64
}

func (r *logRenderer) AddOrderLine(order domain.PendingOrder) chart.LineHandle {
	id := r.nextID.Add(1)
	slog.Info("order line added",
		"handle", id, "order", order.UUID, "side", order.Side, "price", order.Price)
	return id
}

func (r *logRenderer) MoveOrderLine(handle chart.LineHandle, price decimal.Decimal) {
	slog.Debug("order line moved", "handle", handle, "price", price)
}

func (r *logRenderer) RemoveOrderLine(handle chart.LineHandle) {
	slog.Debug("order line removed", "handle", handle)
}

func main() {
	bootstrap := app.NewBootstrap()
	if err := bootstrap.Initialize(); err != nil {
		slog.Error("bootstrap failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer bootstrap.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	core := app.BuildCore(bootstrap, &logRenderer{}, func(price decimal.Decimal) {
		slog.Info("price selected", "price", price)
	})

	core.Bus.Subscribe(event.EvPriceUpdate, func(ev event.Event) {
		pu := ev.(event.PriceUpdateEvent)
		slog.Debug("tick", "market", pu.Market, "price", pu.Price)
	})
	core.Bus.Subscribe(event.EvReconcileAlert, func(ev event.Event) {
		alert := ev.(event.ReconcileAlertEvent)
		slog.Error("RECONCILE", "order", alert.OrderUUID, "market", alert.Market, "detail", alert.Detail)
	})
	core.Bus.Subscribe(event.EvConnectionError, func(ev event.Event) {
		ce := ev.(event.ConnectionErrorEvent)
		if ce.Terminal {
			slog.Error("event channel gave up, restart required", slog.Any("error", ce.Err))
			stop()
		}
	})

	if err := core.Start(ctx); err != nil {
		slog.Error("startup failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer core.Stop()

	slog.Info("coinpulse core running, press Ctrl+C to exit",
		"markets", bootstrap.Config.Chart.Markets)
	<-ctx.Done()

	slog.Info("shutting down")
}
