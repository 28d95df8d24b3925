package channel

import "encoding/json"

// Client -> server events.
const (
	opSubscribeMarket   = "subscribe_market"
	opUnsubscribeMarket = "unsubscribe_market"
	opAuthenticate      = "authenticate"
	opPing              = "ping"
)

// Server -> client events.
const (
	evConnected         = "connected"
	evPriceUpdate       = "price_update"
	evOrderNotification = "order_notification"
	evPositionUpdate    = "position_update"
	evSubscribed        = "subscribed"
	evAuthenticated     = "authenticated"
	evError             = "error"
	evPong              = "pong"
)

// clientMessage is the envelope for every request the channel sends.
type clientMessage struct {
	Event  string `json:"event"`
	Market string `json:"market,omitempty"`
	UserID string `json:"user_id,omitempty"`
}

// serverMessage is the envelope for every frame the server delivers.
// Price arrives as a string or number; json.Number keeps full precision
// until it is converted to a decimal at the boundary.
type serverMessage struct {
	Event   string          `json:"event"`
	Market  string          `json:"market,omitempty"`
	Price   json.Number     `json:"price,omitempty"`
	TsMS    int64           `json:"ts,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	Message string          `json:"message,omitempty"`
	UserID  string          `json:"user_id,omitempty"`
}
