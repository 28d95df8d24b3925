package trade

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/ln9swrd/coinpulse-sub001/internal/domain"
)

func TestBuyQuantity(t *testing.T) {
	tests := []struct {
		name    string
		balance float64
		price   float64
		pct     int64
		want    string
	}{
		{"half balance exact", 100000, 50000, 50, "1"},
		{"floors partial unit", 100000, 60000, 50, "0"},
		{"full balance", 100000, 25000, 100, "4"},
		{"floors to whole units", 99999, 10000, 100, "9"},
		{"zero price", 100000, 0, 50, "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuyQuantity(
				decimal.NewFromFloat(tt.balance),
				decimal.NewFromFloat(tt.price),
				tt.pct,
			)
			if got.String() != tt.want {
				t.Errorf("BuyQuantity(%v, %v, %d) = %s, want %s",
					tt.balance, tt.price, tt.pct, got, tt.want)
			}
		})
	}
}

func TestSellQuantity(t *testing.T) {
	tests := []struct {
		name    string
		holding float64
		pct     int64
		want    string
	}{
		{"quarter of two units", 2.0, 25, "0.5"},
		{"keeps fraction", 0.3, 50, "0.15"},
		{"everything", 1.23, 100, "1.23"},
		{"nothing held", 0, 50, "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SellQuantity(decimal.NewFromFloat(tt.holding), tt.pct)
			if got.String() != tt.want {
				t.Errorf("SellQuantity(%v, %d) = %s, want %s",
					tt.holding, tt.pct, got, tt.want)
			}
		})
	}
}

func TestHoldingBalance(t *testing.T) {
	holdings := []domain.Holding{
		{Symbol: "BTC", Balance: decimal.NewFromFloat(0.5)},
		{Symbol: "ETH", Balance: decimal.NewFromFloat(3)},
	}
	if got := HoldingBalance(holdings, "ETH"); !got.Equal(decimal.NewFromFloat(3)) {
		t.Errorf("ETH balance = %s, want 3", got)
	}
	if got := HoldingBalance(holdings, "XRP"); !got.IsZero() {
		t.Errorf("missing symbol balance = %s, want 0", got)
	}
}
