package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"

	"github.com/ln9swrd/coinpulse-sub001/internal/chart"
	"github.com/ln9swrd/coinpulse-sub001/internal/domain"
	"github.com/ln9swrd/coinpulse-sub001/internal/event"
	"github.com/ln9swrd/coinpulse-sub001/internal/infra"
	"github.com/ln9swrd/coinpulse-sub001/internal/storage"
)

type nopRenderer struct{}

func (nopRenderer) AddOrderLine(domain.PendingOrder) chart.LineHandle { return 0 }
func (nopRenderer) MoveOrderLine(chart.LineHandle, decimal.Decimal)   {}
func (nopRenderer) RemoveOrderLine(chart.LineHandle)                  {}

func testBootstrap(t *testing.T) *Bootstrap {
	t.Helper()
	ledger, err := storage.NewLedger(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("open ledger: %v", err)
	}
	t.Cleanup(func() { ledger.Close() })

	cfg := &infra.Config{}
	cfg.Server.RestURL = "https://api.example.com"
	cfg.Server.WSURL = "wss://stream.example.com"
	cfg.Chart.Markets = []string{"KRW-BTC", "KRW-ETH"}
	cfg.Chart.TolerancePct = 1.0
	return &Bootstrap{Config: cfg, Ledger: ledger}
}

func TestBuildCoreFeedsCandlesForActiveMarketOnly(t *testing.T) {
	core := BuildCore(testBootstrap(t), nopRenderer{}, nil)

	core.Bus.Publish(event.PriceUpdateEvent{
		Market: "KRW-BTC",
		Price:  decimal.NewFromInt(50000),
		TsMS:   1_700_000_000_000,
	})
	core.Bus.Publish(event.PriceUpdateEvent{
		Market: "KRW-ETH",
		Price:  decimal.NewFromInt(3000),
		TsMS:   1_700_000_000_000,
	})

	candles := core.Candles.VisibleCandles()
	if len(candles) != 1 {
		t.Fatalf("candles = %d, want 1 (active market only)", len(candles))
	}
	if !candles[0].Close.Equal(decimal.NewFromInt(50000)) {
		t.Errorf("close = %s, want the KRW-BTC tick", candles[0].Close)
	}
}

func TestCoreAuthenticatesOnceConnected(t *testing.T) {
	authCh := make(chan string, 4)
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}
	wsSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var req struct {
				Event  string `json:"event"`
				UserID string `json:"user_id"`
			}
			if json.Unmarshal(msg, &req) == nil && req.Event == "authenticate" {
				authCh <- req.UserID
			}
		}
	}))
	defer wsSrv.Close()

	restSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"success":true,"orders":[]}`)
	}))
	defer restSrv.Close()

	b := testBootstrap(t)
	b.Config.Server.WSURL = strings.Replace(wsSrv.URL, "http://", "ws://", 1)
	b.Config.Server.RestURL = restSrv.URL
	b.Config.Server.UserID = "user-7"

	core := BuildCore(b, nopRenderer{}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := core.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer core.Stop()

	// The authenticate frame can only be written on a live connection, so
	// it must arrive after connect rather than being dropped pre-dial.
	select {
	case uid := <-authCh:
		if uid != "user-7" {
			t.Errorf("authenticated as %q, want user-7", uid)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("authenticate request never reached the server")
	}
}

func TestBaseSymbol(t *testing.T) {
	tests := []struct {
		market string
		want   string
	}{
		{"KRW-BTC", "BTC"},
		{"USDT-ETH", "ETH"},
		{"BTC", "BTC"},
	}
	for _, tt := range tests {
		if got := baseSymbol(tt.market); got != tt.want {
			t.Errorf("baseSymbol(%q) = %q, want %q", tt.market, got, tt.want)
		}
	}
}
