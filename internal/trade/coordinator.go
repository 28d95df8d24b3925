package trade

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ln9swrd/coinpulse-sub001/internal/domain"
)

// OrderAPI is the mutating slice of the exchange client.
type OrderAPI interface {
	CancelOrder(ctx context.Context, uuid string) error
	CreateOrder(ctx context.Context, market string, side domain.Side, price, volume decimal.Decimal) error
}

// Snapshot looks up a resting order in the last fetched open-order set.
type Snapshot interface {
	Order(uuid string) (domain.PendingOrder, bool)
}

// Refresher re-fetches the open-order snapshot for a market.
type Refresher interface {
	Refresh(ctx context.Context, market string) error
}

// Ledger records replace intents so a crash between cancel and create
// leaves a durable trace for the reconciliation sweep.
type Ledger interface {
	Begin(ctx context.Context, old domain.PendingOrder, newPrice decimal.Decimal) (string, error)
	MarkCancelled(ctx context.Context, recordID string) error
	Resolve(ctx context.Context, recordID string) error
	Abort(ctx context.Context, recordID string) error
}

// DefaultMutationTimeout bounds one whole replace attempt.
const DefaultMutationTimeout = 15 * time.Second

// Coordinator performs order replacements as cancel-then-create. The
// exchange offers no atomic modify, so the two legs can fail
// independently; the error type tells the caller which world they are in.
type Coordinator struct {
	api       OrderAPI
	snap      Snapshot
	refresher Refresher
	ledger    Ledger
	timeout   time.Duration
	log       *slog.Logger
}

func NewCoordinator(api OrderAPI, snap Snapshot, refresher Refresher, ledger Ledger, log *slog.Logger) *Coordinator {
	if log == nil {
		log = slog.Default()
	}
	return &Coordinator{
		api:       api,
		snap:      snap,
		refresher: refresher,
		ledger:    ledger,
		timeout:   DefaultMutationTimeout,
		log:       log,
	}
}

// Replace moves the resting order identified by orderUUID to newPrice by
// cancelling it and creating a fresh order with the same side and volume.
//
// Failure modes:
//   - cancel fails: nothing changed on the exchange, *CancelFailedError.
//   - create fails after a successful cancel: the old order is gone, the
//     overlay is force-refreshed so the vanished marker is visible
//     immediately, and *CreateFailedAfterCancelError is returned. The
//     ledger record stays open for the sweep.
//
// The local snapshot is a cache; after any attempt, success included, the
// snapshot is re-fetched rather than patched.
func (c *Coordinator) Replace(ctx context.Context, orderUUID string, newPrice decimal.Decimal) error {
	old, ok := c.snap.Order(orderUUID)
	if !ok {
		return fmt.Errorf("replace %s: %w", orderUUID, ErrUnknownOrder)
	}
	if newPrice.Sign() <= 0 {
		return fmt.Errorf("replace %s: price %s not positive", orderUUID, newPrice)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	recID, err := c.ledger.Begin(ctx, old, newPrice)
	if err != nil {
		return fmt.Errorf("record replace intent: %w", err)
	}

	if err := c.api.CancelOrder(ctx, orderUUID); err != nil {
		if aerr := c.ledger.Abort(detach(ctx), recID); aerr != nil {
			c.log.Warn("ledger abort failed", "record", recID, "error", aerr)
		}
		return &CancelFailedError{OrderUUID: orderUUID, Err: err}
	}
	if err := c.ledger.MarkCancelled(detach(ctx), recID); err != nil {
		c.log.Warn("ledger mark-cancelled failed", "record", recID, "error", err)
	}

	if err := c.api.CreateOrder(ctx, old.Market, old.Side, newPrice, old.Volume); err != nil {
		c.log.Error("replacement create failed after cancel",
			"order", orderUUID, "market", old.Market, "error", err)
		c.refreshSnapshot(old.Market)
		return &CreateFailedAfterCancelError{
			OrderUUID: orderUUID,
			Market:    old.Market,
			Err:       err,
		}
	}

	if err := c.ledger.Resolve(detach(ctx), recID); err != nil {
		c.log.Warn("ledger resolve failed", "record", recID, "error", err)
	}
	c.refreshSnapshot(old.Market)

	c.log.Info("order replaced",
		"order", orderUUID, "market", old.Market,
		"from", old.Price, "to", newPrice)
	return nil
}

// PlaceBuy places a limit buy sized as pct percent of balance at price.
func (c *Coordinator) PlaceBuy(ctx context.Context, market string, price, balance decimal.Decimal, pct int64) error {
	qty := BuyQuantity(balance, price, pct)
	if qty.Sign() <= 0 {
		return fmt.Errorf("buy on %s: balance %s covers no whole unit at %s", market, balance, price)
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.api.CreateOrder(ctx, market, domain.SideBuy, price, qty); err != nil {
		return fmt.Errorf("place buy on %s: %w", market, err)
	}
	c.refreshSnapshot(market)
	return nil
}

// PlaceSell places a limit sell sized as pct percent of holding at price.
func (c *Coordinator) PlaceSell(ctx context.Context, market string, price, holding decimal.Decimal, pct int64) error {
	qty := SellQuantity(holding, pct)
	if qty.Sign() <= 0 {
		return fmt.Errorf("sell on %s: nothing held", market)
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.api.CreateOrder(ctx, market, domain.SideSell, price, qty); err != nil {
		return fmt.Errorf("place sell on %s: %w", market, err)
	}
	c.refreshSnapshot(market)
	return nil
}

func (c *Coordinator) refreshSnapshot(market string) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()
	if err := c.refresher.Refresh(ctx, market); err != nil {
		c.log.Warn("snapshot refresh after mutation failed", "market", market, "error", err)
	}
}

// detach keeps ctx's values but drops its cancellation, so bookkeeping
// writes survive a cancelled or timed-out mutation.
func detach(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}
