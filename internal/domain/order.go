package domain

import "github.com/shopspring/decimal"

// Order states as the exchange reports them.
const (
	StateWait   = "wait"
	StateDone   = "done"
	StateCancel = "cancel"
)

// Side is the order direction.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Valid reports whether the side is one the exchange accepts.
func (s Side) Valid() bool {
	return s == SideBuy || s == SideSell
}

// PendingOrder is a resting order as last fetched from the exchange.
// The local copy is always a cache of the last snapshot, never the source
// of truth. After any mutation attempt only a fresh fetch is authoritative.
type PendingOrder struct {
	UUID   string          `json:"uuid"`
	Market string          `json:"market"`
	Side   Side            `json:"side"`
	Price  decimal.Decimal `json:"price"`
	Volume decimal.Decimal `json:"volume"`
	State  string          `json:"state"`
}

// IsResting reports whether the order still sits on the book.
func (o *PendingOrder) IsResting() bool {
	return o.State == StateWait
}
