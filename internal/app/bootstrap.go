// Package app wires configuration, logging, the workspace and the ledger
// together before the dashboard core starts.
package app

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"github.com/ln9swrd/coinpulse-sub001/internal/channel"
	"github.com/ln9swrd/coinpulse-sub001/internal/infra"
	"github.com/ln9swrd/coinpulse-sub001/internal/storage"
)

// Bootstrap orchestrates the application startup sequence.
type Bootstrap struct {
	Config *infra.Config
	Ledger *storage.Ledger

	unlock func()
}

func NewBootstrap() *Bootstrap {
	return &Bootstrap{}
}

// Initialize loads configuration, installs the logger and opens the
// workspace with its ledger database.
func (b *Bootstrap) Initialize() error {
	// .env is optional; real environments set variables directly.
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig(infra.ResolveConfigPath())
	if err != nil {
		return err
	}
	b.Config = cfg

	logger := infra.NewLogger(cfg)
	slog.SetDefault(logger)

	infra.PrintBanner(cfg)

	workDir := infra.GetWorkspaceDir()
	dataDir := filepath.Join(workDir, "data")
	if err := infra.EnsureDir(dataDir); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}

	// One process per ledger database; two writers would corrupt the
	// replacement records silently.
	unlock, err := infra.CreateLockFile(workDir)
	if err != nil {
		return err
	}
	b.unlock = unlock

	dbPath := filepath.Join(dataDir, "ledger.db")
	ledger, err := storage.NewLedger(dbPath)
	if err != nil {
		b.unlock()
		return err
	}
	b.Ledger = ledger
	slog.Info("replacement ledger ready", "path", dbPath)

	return nil
}

// ChannelConfig maps the file configuration onto the realtime channel.
func (b *Bootstrap) ChannelConfig() channel.Config {
	cfg := b.Config
	return channel.Config{
		URL:          cfg.Server.WSURL,
		BaseDelay:    cfg.BaseDelay(),
		MaxDelay:     cfg.MaxDelay(),
		MaxAttempts:  cfg.Channel.MaxAttempts,
		PingInterval: time.Duration(cfg.Channel.PingIntervalSec) * time.Second,
		ReadTimeout:  time.Duration(cfg.Channel.ReadTimeoutSec) * time.Second,
	}
}

// SweepInterval returns the reconciliation sweep period with the default
// applied.
func (b *Bootstrap) SweepInterval() time.Duration {
	if b.Config.Ledger.SweepIntervalSec <= 0 {
		return storage.DefaultSweepInterval
	}
	return time.Duration(b.Config.Ledger.SweepIntervalSec) * time.Second
}

// Shutdown releases the ledger and the instance lock.
func (b *Bootstrap) Shutdown() {
	if b.Ledger != nil {
		if err := b.Ledger.Close(); err != nil {
			slog.Warn("ledger close failed", "error", err)
		}
	}
	if b.unlock != nil {
		b.unlock()
	}
}
