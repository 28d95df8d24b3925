package chart

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/ln9swrd/coinpulse-sub001/internal/domain"
)

// FetchError reports a failed order snapshot fetch. The overlay keeps its
// existing markers when Refresh returns one.
type FetchError struct {
	Market string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch open orders for %s: %v", e.Market, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// OrdersAPI is the slice of the exchange client the overlay needs.
type OrdersAPI interface {
	OpenOrders(ctx context.Context, market string) ([]domain.PendingOrder, error)
}

// Marker pairs a resting order with its rendered line. OriginalPrice is
// the resting price at refresh time and stays fixed while the line is
// dragged around.
type Marker struct {
	Order         domain.PendingOrder
	Handle        LineHandle
	OriginalPrice decimal.Decimal
}

// Overlay mirrors the resting orders of one market as horizontal lines on
// the chart. Refresh replaces the whole marker set from a fresh snapshot;
// there is no incremental patching.
type Overlay struct {
	api          OrdersAPI
	renderer     Renderer
	candles      CandleSource
	tolerancePct decimal.Decimal
	log          *slog.Logger

	mu      sync.Mutex
	market  string
	markers map[string]*Marker
}

// DefaultTolerancePct sizes the marker grab zone as a percentage of the
// visible price range.
const DefaultTolerancePct = 1.0

func NewOverlay(api OrdersAPI, renderer Renderer, candles CandleSource, tolerancePct float64, log *slog.Logger) *Overlay {
	if tolerancePct <= 0 {
		tolerancePct = DefaultTolerancePct
	}
	if log == nil {
		log = slog.Default()
	}
	return &Overlay{
		api:          api,
		renderer:     renderer,
		candles:      candles,
		tolerancePct: decimal.NewFromFloat(tolerancePct),
		log:          log,
		markers:      make(map[string]*Marker),
	}
}

// Refresh fetches the open orders for market and rebuilds every marker
// from the result. On a fetch failure the current markers are left in
// place untouched and a FetchError is returned; a stale overlay is better
// than an empty one.
func (o *Overlay) Refresh(ctx context.Context, market string) error {
	orders, err := o.api.OpenOrders(ctx, market)
	if err != nil {
		o.log.Warn("order snapshot fetch failed, keeping stale markers",
			"market", market, "error", err)
		return &FetchError{Market: market, Err: err}
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	for _, m := range o.markers {
		o.renderer.RemoveOrderLine(m.Handle)
	}
	o.markers = make(map[string]*Marker, len(orders))
	o.market = market

	for _, ord := range orders {
		if !ord.IsResting() {
			continue
		}
		h := o.renderer.AddOrderLine(ord)
		o.markers[ord.UUID] = &Marker{
			Order:         ord,
			Handle:        h,
			OriginalPrice: ord.Price,
		}
	}
	o.log.Debug("overlay refreshed", "market", market, "orders", len(o.markers))
	return nil
}

// Order returns the snapshot of a resting order by UUID.
func (o *Overlay) Order(uuid string) (domain.PendingOrder, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	m, ok := o.markers[uuid]
	if !ok {
		return domain.PendingOrder{}, false
	}
	return m.Order, true
}

// Market returns the market the overlay currently mirrors.
func (o *Overlay) Market() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.market
}

// MarkerCount reports how many order lines are currently drawn.
func (o *Overlay) MarkerCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.markers)
}

// FindMarkerNear returns the marker whose original price lies closest to
// price, provided the distance is within the grab tolerance. The
// tolerance is tolerancePct of the visible price range, so grabbing stays
// easy at any zoom level. With no visible candles there is no range to
// measure against and nothing is grabbable.
func (o *Overlay) FindMarkerNear(price decimal.Decimal) *Marker {
	series := o.candles.VisibleCandles()
	if len(series) == 0 {
		return nil
	}
	low, high := series[0].Low, series[0].High
	for _, c := range series[1:] {
		if c.Low.LessThan(low) {
			low = c.Low
		}
		if c.High.GreaterThan(high) {
			high = c.High
		}
	}
	tolerance := high.Sub(low).Mul(o.tolerancePct).Div(decimal.NewFromInt(100))

	o.mu.Lock()
	defer o.mu.Unlock()

	var best *Marker
	var bestDist decimal.Decimal
	for _, m := range o.markers {
		dist := m.OriginalPrice.Sub(price).Abs()
		if dist.GreaterThan(tolerance) {
			continue
		}
		if best == nil || dist.LessThan(bestDist) {
			best = m
			bestDist = dist
		}
	}
	return best
}

// MoveMarker slides a marker's line to price. Visual only; the stored
// original price is untouched so an aborted drag can snap back.
func (o *Overlay) MoveMarker(m *Marker, price decimal.Decimal) {
	o.renderer.MoveOrderLine(m.Handle, price)
}

// ResetMarker snaps a marker's line back to its original resting price.
// The marker is re-looked up by order uuid: a refresh may have removed or
// rebuilt it in the meantime, and moving a stale handle would redraw a
// line the renderer already dropped.
func (o *Overlay) ResetMarker(m *Marker) {
	o.mu.Lock()
	cur, ok := o.markers[m.Order.UUID]
	o.mu.Unlock()
	if !ok {
		return
	}
	o.renderer.MoveOrderLine(cur.Handle, cur.OriginalPrice)
}
