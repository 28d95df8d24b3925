package exchange

import (
	"github.com/shopspring/decimal"

	"github.com/ln9swrd/coinpulse-sub001/internal/domain"
)

// Response envelopes for the remote order API. Every endpoint wraps its
// payload in {success, ...}; success=false with HTTP 200 is still a failure.

type ordersResponse struct {
	Success bool                  `json:"success"`
	Message string                `json:"message,omitempty"`
	Orders  []domain.PendingOrder `json:"orders"`
}

type simpleResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

type balanceResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Balance decimal.Decimal `json:"balance"`
}

type holdingsResponse struct {
	Success  bool             `json:"success"`
	Message  string           `json:"message,omitempty"`
	Holdings []holdingPayload `json:"holdings"`
}

// holdingPayload tolerates both key spellings the server uses.
type holdingPayload struct {
	Market  string          `json:"market,omitempty"`
	Symbol  string          `json:"symbol,omitempty"`
	Balance decimal.Decimal `json:"balance"`
}

func (h holdingPayload) symbol() string {
	if h.Symbol != "" {
		return h.Symbol
	}
	return h.Market
}

// createOrderRequest is the POST order body. Prices and volumes travel as
// strings to keep decimal precision on the wire.
type createOrderRequest struct {
	Market  string `json:"market"`
	Side    string `json:"side"`
	Price   string `json:"price"`
	Volume  string `json:"volume"`
	OrdType string `json:"ord_type"`
}
