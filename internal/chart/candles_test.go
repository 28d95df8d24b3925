package chart

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestTickCandleSourceAggregates(t *testing.T) {
	s := NewTickCandleSource(time.Minute, 10)
	base := int64(1_700_000_040_000) // mid-minute

	s.Apply(decimal.NewFromInt(100), base)
	s.Apply(decimal.NewFromInt(105), base+1000)
	s.Apply(decimal.NewFromInt(98), base+2000)
	s.Apply(decimal.NewFromInt(101), base+3000)

	candles := s.VisibleCandles()
	if len(candles) != 1 {
		t.Fatalf("candles = %d, want 1", len(candles))
	}
	c := candles[0]
	if !c.Open.Equal(decimal.NewFromInt(100)) || !c.Close.Equal(decimal.NewFromInt(101)) {
		t.Errorf("open/close = %s/%s", c.Open, c.Close)
	}
	if !c.High.Equal(decimal.NewFromInt(105)) || !c.Low.Equal(decimal.NewFromInt(98)) {
		t.Errorf("high/low = %s/%s", c.High, c.Low)
	}
	if c.TsMS%60000 != 0 {
		t.Errorf("bucket ts %d not minute-aligned", c.TsMS)
	}
}

func TestTickCandleSourceRollsBuckets(t *testing.T) {
	s := NewTickCandleSource(time.Minute, 2)
	base := int64(1_700_000_000_000) // minute-aligned

	s.Apply(decimal.NewFromInt(100), base)
	s.Apply(decimal.NewFromInt(101), base+60_000)
	s.Apply(decimal.NewFromInt(102), base+120_000)

	candles := s.VisibleCandles()
	if len(candles) != 2 {
		t.Fatalf("candles = %d, want trimmed to 2", len(candles))
	}
	if !candles[0].Open.Equal(decimal.NewFromInt(101)) {
		t.Errorf("oldest surviving candle opens at %s, want 101", candles[0].Open)
	}
}
