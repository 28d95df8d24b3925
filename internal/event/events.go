package event

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Type tags the event variants delivered over the bus.
type Type uint8

const (
	EvConnected Type = iota + 1
	EvDisconnected
	EvConnectionError
	EvPriceUpdate
	EvOrderNotification
	EvPositionUpdate
	EvReconcileAlert
)

func (t Type) String() string {
	switch t {
	case EvConnected:
		return "connected"
	case EvDisconnected:
		return "disconnected"
	case EvConnectionError:
		return "connection_error"
	case EvPriceUpdate:
		return "price_update"
	case EvOrderNotification:
		return "order_notification"
	case EvPositionUpdate:
		return "position_update"
	case EvReconcileAlert:
		return "reconcile_alert"
	default:
		return "unknown"
	}
}

// Event is implemented by every variant published on the Bus.
type Event interface {
	EventType() Type
}

// ConnectedEvent fires on every transition into the connected state,
// including reconnects.
type ConnectedEvent struct{}

func (ConnectedEvent) EventType() Type { return EvConnected }

// DisconnectedEvent fires when the transport drops or is closed.
type DisconnectedEvent struct {
	Reason string
}

func (DisconnectedEvent) EventType() Type { return EvDisconnected }

// ConnectionErrorEvent carries transport-level failures. Terminal is set
// once reconnect attempts are exhausted and the channel gives up.
type ConnectionErrorEvent struct {
	Err      error
	Terminal bool
}

func (ConnectionErrorEvent) EventType() Type { return EvConnectionError }

// PriceUpdateEvent is a trade-price tick for a subscribed market.
type PriceUpdateEvent struct {
	Market string
	Price  decimal.Decimal
	TsMS   int64
}

func (PriceUpdateEvent) EventType() Type { return EvPriceUpdate }

// OrderNotificationEvent carries the raw user-scoped order payload.
type OrderNotificationEvent struct {
	Data json.RawMessage
}

func (OrderNotificationEvent) EventType() Type { return EvOrderNotification }

// PositionUpdateEvent carries the raw position payload.
type PositionUpdateEvent struct {
	Data json.RawMessage
}

func (PositionUpdateEvent) EventType() Type { return EvPositionUpdate }

// ReconcileAlertEvent surfaces a ledger record whose remote order state
// could not be confirmed after a replace attempt.
type ReconcileAlertEvent struct {
	RecordID  string
	OrderUUID string
	Market    string
	Detail    string
}

func (ReconcileAlertEvent) EventType() Type { return EvReconcileAlert }
