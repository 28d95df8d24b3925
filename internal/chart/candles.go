package chart

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ln9swrd/coinpulse-sub001/internal/domain"
)

// TickCandleSource aggregates price ticks into fixed-interval candles and
// serves the most recent ones as the visible series. It is the headless
// stand-in for a charting widget's own series.
type TickCandleSource struct {
	interval   time.Duration
	maxVisible int

	mu      sync.Mutex
	candles []domain.Candle
}

func NewTickCandleSource(interval time.Duration, maxVisible int) *TickCandleSource {
	if interval <= 0 {
		interval = time.Minute
	}
	if maxVisible <= 0 {
		maxVisible = 120
	}
	return &TickCandleSource{interval: interval, maxVisible: maxVisible}
}

// Apply folds one tick into the series, opening a new candle when the
// tick falls into a new time bucket.
func (s *TickCandleSource) Apply(price decimal.Decimal, tsMS int64) {
	bucket := tsMS - tsMS%s.interval.Milliseconds()

	s.mu.Lock()
	defer s.mu.Unlock()

	if n := len(s.candles); n > 0 && s.candles[n-1].TsMS == bucket {
		c := &s.candles[n-1]
		if price.GreaterThan(c.High) {
			c.High = price
		}
		if price.LessThan(c.Low) {
			c.Low = price
		}
		c.Close = price
		return
	}

	s.candles = append(s.candles, domain.Candle{
		Open:  price,
		High:  price,
		Low:   price,
		Close: price,
		TsMS:  bucket,
	})
	if len(s.candles) > s.maxVisible {
		s.candles = s.candles[len(s.candles)-s.maxVisible:]
	}
}

// VisibleCandles returns a copy of the current series.
func (s *TickCandleSource) VisibleCandles() []domain.Candle {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Candle, len(s.candles))
	copy(out, s.candles)
	return out
}
