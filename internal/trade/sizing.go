package trade

import (
	"github.com/shopspring/decimal"

	"github.com/ln9swrd/coinpulse-sub001/internal/domain"
)

// BuyQuantity sizes a buy as pct percent of the quote balance at price,
// floored to a whole unit. Flooring keeps the cost under the committed
// fraction of the balance; a zero result means the balance cannot cover
// one unit at that price.
func BuyQuantity(balance, price decimal.Decimal, pct int64) decimal.Decimal {
	if price.Sign() <= 0 {
		return decimal.Zero
	}
	q := balance.Mul(decimal.NewFromInt(pct)).
		Div(decimal.NewFromInt(100)).
		Div(price)
	return q.Floor()
}

// SellQuantity sizes a sell as pct percent of the held amount. Not
// floored: crypto positions are fractional and a sell should be able to
// unwind exactly a quarter of 2.0 units.
func SellQuantity(holding decimal.Decimal, pct int64) decimal.Decimal {
	return holding.Mul(decimal.NewFromInt(pct)).Div(decimal.NewFromInt(100))
}

// HoldingBalance returns the held balance for symbol, zero when the
// asset is not held.
func HoldingBalance(holdings []domain.Holding, symbol string) decimal.Decimal {
	for _, h := range holdings {
		if h.Symbol == symbol {
			return h.Balance
		}
	}
	return decimal.Zero
}
