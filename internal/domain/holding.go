package domain

import "github.com/shopspring/decimal"

// Holding is a non-zero asset position from the holdings endpoint.
type Holding struct {
	Symbol  string          `json:"symbol"`
	Balance decimal.Decimal `json:"balance"`
}

// Candle is one bar of the visible chart series. Only the price range
// matters to the overlay; open/close are carried for completeness.
type Candle struct {
	Open  decimal.Decimal `json:"open"`
	High  decimal.Decimal `json:"high"`
	Low   decimal.Decimal `json:"low"`
	Close decimal.Decimal `json:"close"`
	TsMS  int64           `json:"ts"`
}
