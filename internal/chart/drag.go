package chart

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/shopspring/decimal"
)

// DragState tracks where a pointer gesture is in its lifecycle.
type DragState int

const (
	DragIdle DragState = iota
	DragArmed
	DragDragging
	DragCommitting
)

func (s DragState) String() string {
	switch s {
	case DragIdle:
		return "idle"
	case DragArmed:
		return "armed"
	case DragDragging:
		return "dragging"
	case DragCommitting:
		return "committing"
	default:
		return "unknown"
	}
}

// ErrDragInProgress rejects a new gesture while another one is still
// armed, dragging, or committing.
var ErrDragInProgress = errors.New("drag session already in progress")

// Replacer commits a price change for a resting order.
type Replacer interface {
	Replace(ctx context.Context, orderUUID string, newPrice decimal.Decimal) error
}

// PriceSelectedFunc receives the price of a pointer press that landed on
// empty chart space rather than on an order marker.
type PriceSelectedFunc func(price decimal.Decimal)

type dragSession struct {
	marker   *Marker
	proposed decimal.Decimal
}

// DragController turns pointer events on the price axis into order
// replacements. At most one gesture is live at a time; a press while a
// session exists is rejected rather than queued.
type DragController struct {
	overlay         *Overlay
	replacer        Replacer
	onPriceSelected PriceSelectedFunc
	log             *slog.Logger

	mu      sync.Mutex
	state   DragState
	session *dragSession
}

func NewDragController(overlay *Overlay, replacer Replacer, onPriceSelected PriceSelectedFunc, log *slog.Logger) *DragController {
	if log == nil {
		log = slog.Default()
	}
	return &DragController{
		overlay:         overlay,
		replacer:        replacer,
		onPriceSelected: onPriceSelected,
		log:             log,
	}
}

// State returns the current gesture state.
func (d *DragController) State() DragState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// PointerDown begins a gesture at price. Landing on a marker arms a drag
// session; landing on empty space reports the price through the
// price-selected callback and the controller stays idle.
func (d *DragController) PointerDown(price decimal.Decimal) error {
	d.mu.Lock()
	if d.state != DragIdle {
		d.mu.Unlock()
		return ErrDragInProgress
	}
	m := d.overlay.FindMarkerNear(price)
	if m == nil {
		d.mu.Unlock()
		if d.onPriceSelected != nil {
			d.onPriceSelected(price)
		}
		return nil
	}
	d.state = DragArmed
	d.session = &dragSession{marker: m, proposed: m.OriginalPrice}
	d.mu.Unlock()

	d.log.Debug("drag armed", "order", m.Order.UUID, "price", m.OriginalPrice)
	return nil
}

// PointerMove updates the proposed price and slides the marker's line to
// give live feedback. Ignored unless a session is armed or dragging.
func (d *DragController) PointerMove(price decimal.Decimal) {
	d.mu.Lock()
	if d.state != DragArmed && d.state != DragDragging {
		d.mu.Unlock()
		return
	}
	d.state = DragDragging
	d.session.proposed = price
	m := d.session.marker
	d.mu.Unlock()

	d.overlay.MoveMarker(m, price)
}

// PointerUp ends the gesture. If the price never moved the session is
// discarded and no mutation happens. Otherwise the controller enters
// Committing, hands the replacement to the replacer, and returns to Idle
// once it resolves. A failed commit snaps the line back to the original
// price; whether the real order changed is the replacer's error to tell.
func (d *DragController) PointerUp(ctx context.Context) error {
	d.mu.Lock()
	if d.state == DragIdle || d.state == DragCommitting {
		d.mu.Unlock()
		return nil
	}
	s := d.session
	if s.proposed.Equal(s.marker.OriginalPrice) {
		d.state = DragIdle
		d.session = nil
		d.mu.Unlock()
		d.overlay.ResetMarker(s.marker)
		return nil
	}
	d.state = DragCommitting
	d.mu.Unlock()

	d.log.Info("committing order replacement",
		"order", s.marker.Order.UUID,
		"from", s.marker.OriginalPrice, "to", s.proposed)
	err := d.replacer.Replace(ctx, s.marker.Order.UUID, s.proposed)

	d.mu.Lock()
	d.state = DragIdle
	d.session = nil
	d.mu.Unlock()

	if err != nil {
		d.overlay.ResetMarker(s.marker)
		return err
	}
	return nil
}

// Cancel aborts any live gesture without committing, snapping the marker
// back if it was moved. A commit already in flight is left to finish.
func (d *DragController) Cancel() {
	d.mu.Lock()
	if d.state != DragArmed && d.state != DragDragging {
		d.mu.Unlock()
		return
	}
	s := d.session
	d.state = DragIdle
	d.session = nil
	d.mu.Unlock()

	d.overlay.ResetMarker(s.marker)
}
