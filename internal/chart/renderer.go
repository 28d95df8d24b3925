// Package chart keeps the on-chart order markers consistent with the
// remote order book and turns pointer gestures on the price axis into
// order mutations. Rendering itself lives behind the Renderer interface;
// this package never touches a drawing surface directly.
package chart

import (
	"github.com/shopspring/decimal"

	"github.com/ln9swrd/coinpulse-sub001/internal/domain"
)

// LineHandle is an opaque reference to one rendered horizontal order line.
// The renderer owns its meaning; the overlay only stores and returns it.
type LineHandle any

// Renderer draws horizontal order lines on the price chart.
type Renderer interface {
	AddOrderLine(order domain.PendingOrder) LineHandle
	MoveOrderLine(handle LineHandle, price decimal.Decimal)
	RemoveOrderLine(handle LineHandle)
}

// CandleSource exposes the currently visible candle series. The overlay
// uses its price range to size the marker grab tolerance.
type CandleSource interface {
	VisibleCandles() []domain.Candle
}
