package storage

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/ln9swrd/coinpulse-sub001/internal/domain"
	"github.com/ln9swrd/coinpulse-sub001/internal/event"
)

// OrdersAPI is the read-only slice of the exchange client the sweep uses
// to check what is actually resting on the book.
type OrdersAPI interface {
	OpenOrders(ctx context.Context, market string) ([]domain.PendingOrder, error)
}

const (
	// DefaultSweepInterval is how often open ledger records are checked.
	DefaultSweepInterval = 30 * time.Second
	// DefaultSweepGrace leaves freshly written records alone so a replace
	// still in flight is not flagged.
	DefaultSweepGrace = 20 * time.Second

	lastSweepKey = "last_sweep_ms"
)

// Sweeper periodically compares open ledger records against the exchange
// and publishes a ReconcileAlert for every replace that cancelled an
// order without a confirmed replacement.
type Sweeper struct {
	ledger   *Ledger
	api      OrdersAPI
	bus      *event.Bus
	interval time.Duration
	grace    time.Duration
	log      *slog.Logger
}

func NewSweeper(ledger *Ledger, api OrdersAPI, bus *event.Bus, interval time.Duration, log *slog.Logger) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	if log == nil {
		log = slog.Default()
	}
	return &Sweeper{
		ledger:   ledger,
		api:      api,
		bus:      bus,
		interval: interval,
		grace:    DefaultSweepGrace,
		log:      log,
	}
}

// Run sweeps on a timer until ctx is cancelled. One failed sweep is
// logged and retried on the next tick.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.SweepOnce(ctx); err != nil {
				s.log.Warn("reconciliation sweep failed", "error", err)
			}
		}
	}
}

// SweepOnce processes every open record older than the grace period.
// Records whose original order still rests on the book are closed as
// aborted; records whose order is gone without a resolved create are
// surfaced as ReconcileAlert events and marked so they fire only once.
func (s *Sweeper) SweepOnce(ctx context.Context) error {
	records, err := s.ledger.Open(ctx, time.Now().Add(-s.grace))
	if err != nil {
		return fmt.Errorf("load open records: %w", err)
	}
	if len(records) == 0 {
		return s.stampSweep(ctx)
	}

	resting := make(map[string]map[string]bool)
	for _, rec := range records {
		book, ok := resting[rec.Market]
		if !ok {
			orders, err := s.api.OpenOrders(ctx, rec.Market)
			if err != nil {
				return fmt.Errorf("fetch open orders for %s: %w", rec.Market, err)
			}
			book = make(map[string]bool, len(orders))
			for _, o := range orders {
				book[o.UUID] = o.IsResting()
			}
			resting[rec.Market] = book
		}

		if book[rec.OrderUUID] {
			// The original order survived, so the replace never changed
			// anything remotely.
			if err := s.ledger.Abort(ctx, rec.ID); err != nil {
				s.log.Warn("failed to close surviving record", "record", rec.ID, "error", err)
			}
			continue
		}

		detail := fmt.Sprintf("order cancelled at %s but replacement at %s never confirmed",
			rec.OldPrice, rec.NewPrice)
		if rec.Status == StatusPending {
			detail = "order missing with cancel outcome unrecorded"
		}
		s.log.Error("unreconciled order replacement",
			"record", rec.ID, "order", rec.OrderUUID, "market", rec.Market, "detail", detail)
		s.bus.Publish(event.ReconcileAlertEvent{
			RecordID:  rec.ID,
			OrderUUID: rec.OrderUUID,
			Market:    rec.Market,
			Detail:    detail,
		})
		if err := s.ledger.MarkAlerted(ctx, rec.ID); err != nil {
			s.log.Warn("failed to mark record alerted", "record", rec.ID, "error", err)
		}
	}

	return s.stampSweep(ctx)
}

func (s *Sweeper) stampSweep(ctx context.Context) error {
	now := time.Now().UnixMilli()
	return s.ledger.UpsertMetadata(ctx, lastSweepKey, strconv.FormatInt(now, 10), now)
}
