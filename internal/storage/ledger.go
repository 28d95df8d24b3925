// Package storage persists order-replacement intents in SQLite. A replace
// is two remote calls with a gap between them; the ledger records the
// intent before the first call so a crash inside the gap leaves a durable
// trace instead of a silently vanished order.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ln9swrd/coinpulse-sub001/internal/domain"

	_ "github.com/glebarez/go-sqlite"
)

// Replacement record statuses.
const (
	StatusPending   = "pending"   // intent recorded, cancel not confirmed
	StatusCancelled = "cancelled" // cancel confirmed, create not confirmed
	StatusResolved  = "resolved"  // create confirmed
	StatusAborted   = "aborted"   // cancel failed, nothing changed remotely
	StatusAlerted   = "alerted"   // discrepancy surfaced by the sweep
)

// Ledger stores replacement records and a small metadata KV table.
type Ledger struct {
	db *sql.DB
}

// NewLedger opens (or creates) the ledger database with WAL mode enabled.
func NewLedger(dbPath string) (*Ledger, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA cache_size=-2000;", // 2MB cache
		"PRAGMA foreign_keys=ON;",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return nil, fmt.Errorf("failed to set pragma %s: %w", pragma, err)
		}
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS metadata (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		);
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to create metadata table: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS replacements (
			id TEXT PRIMARY KEY,
			order_uuid TEXT NOT NULL,
			market TEXT NOT NULL,
			side TEXT NOT NULL,
			volume TEXT NOT NULL,
			old_price TEXT NOT NULL,
			new_price TEXT NOT NULL,
			status TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		);
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to create replacements table: %w", err)
	}

	return &Ledger{db: db}, nil
}

// Record is one replacement intent as stored.
type Record struct {
	ID        string
	OrderUUID string
	Market    string
	Side      domain.Side
	Volume    decimal.Decimal
	OldPrice  decimal.Decimal
	NewPrice  decimal.Decimal
	Status    string
	CreatedAt int64
	UpdatedAt int64
}

// Begin writes a pending record for a replace about to start and returns
// its id. Called before the cancel request goes out.
func (l *Ledger) Begin(ctx context.Context, old domain.PendingOrder, newPrice decimal.Decimal) (string, error) {
	id := uuid.NewString()
	now := time.Now().UnixMilli()
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO replacements
			(id, order_uuid, market, side, volume, old_price, new_price, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, old.UUID, old.Market, string(old.Side),
		old.Volume.String(), old.Price.String(), newPrice.String(),
		StatusPending, now, now,
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert replacement record: %w", err)
	}
	return id, nil
}

// MarkCancelled records that the cancel leg succeeded.
func (l *Ledger) MarkCancelled(ctx context.Context, recordID string) error {
	return l.setStatus(ctx, recordID, StatusCancelled)
}

// Resolve records that the create leg succeeded and the replace is whole.
func (l *Ledger) Resolve(ctx context.Context, recordID string) error {
	return l.setStatus(ctx, recordID, StatusResolved)
}

// Abort records that the cancel leg failed and the remote order is
// untouched.
func (l *Ledger) Abort(ctx context.Context, recordID string) error {
	return l.setStatus(ctx, recordID, StatusAborted)
}

func (l *Ledger) setStatus(ctx context.Context, recordID, status string) error {
	res, err := l.db.ExecContext(ctx,
		"UPDATE replacements SET status = ?, updated_at = ? WHERE id = ?",
		status, time.Now().UnixMilli(), recordID,
	)
	if err != nil {
		return fmt.Errorf("failed to update record %s: %w", recordID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("no replacement record %s", recordID)
	}
	return nil
}

// Open returns records still in flight: pending or cancelled with no
// confirmed create, last touched before cutoff.
func (l *Ledger) Open(ctx context.Context, cutoff time.Time) ([]Record, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT id, order_uuid, market, side, volume, old_price, new_price, status, created_at, updated_at
		FROM replacements
		WHERE status IN (?, ?) AND updated_at < ?
		ORDER BY created_at ASC`,
		StatusPending, StatusCancelled, cutoff.UnixMilli(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query open records: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		var side, volume, oldPrice, newPrice string
		if err := rows.Scan(&r.ID, &r.OrderUUID, &r.Market, &side,
			&volume, &oldPrice, &newPrice, &r.Status, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		r.Side = domain.Side(side)
		if r.Volume, err = decimal.NewFromString(volume); err != nil {
			return nil, fmt.Errorf("bad volume in record %s: %w", r.ID, err)
		}
		if r.OldPrice, err = decimal.NewFromString(oldPrice); err != nil {
			return nil, fmt.Errorf("bad old price in record %s: %w", r.ID, err)
		}
		if r.NewPrice, err = decimal.NewFromString(newPrice); err != nil {
			return nil, fmt.Errorf("bad new price in record %s: %w", r.ID, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// MarkAlerted closes a record the sweep has surfaced so it is not
// reported again.
func (l *Ledger) MarkAlerted(ctx context.Context, recordID string) error {
	return l.setStatus(ctx, recordID, StatusAlerted)
}

// UpsertMetadata saves a key-value pair to the metadata table.
func (l *Ledger) UpsertMetadata(ctx context.Context, key, value string, ts int64) error {
	_, err := l.db.ExecContext(ctx,
		"INSERT INTO metadata (key, value, updated_at) VALUES (?, ?, ?) ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at",
		key, value, ts,
	)
	return err
}

// GetMetadata retrieves a value from the metadata table. Missing keys
// return an empty string.
func (l *Ledger) GetMetadata(ctx context.Context, key string) (string, error) {
	var value string
	err := l.db.QueryRowContext(ctx, "SELECT value FROM metadata WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

// Close closes the database connection.
func (l *Ledger) Close() error {
	return l.db.Close()
}
