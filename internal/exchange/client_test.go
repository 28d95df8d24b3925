package exchange

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/ln9swrd/coinpulse-sub001/internal/domain"
)

func TestClient_OpenOrders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/orders" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("state"); got != "wait" {
			t.Errorf("expected state=wait, got %s", got)
		}
		if got := r.URL.Query().Get("market"); got != "KRW-BTC" {
			t.Errorf("expected market=KRW-BTC, got %s", got)
		}
		w.Write([]byte(`{"success":true,"orders":[
			{"uuid":"o-1","market":"KRW-BTC","side":"buy","price":"50000000","volume":"0.01","state":"wait"},
			{"uuid":"o-2","market":"KRW-BTC","side":"sell","price":"51000000","volume":"0.02","state":"wait"}
		]}`))
	}))
	defer server.Close()

	c := NewClient(server.URL)
	orders, err := c.OpenOrders(context.Background(), "KRW-BTC")
	if err != nil {
		t.Fatalf("OpenOrders failed: %v", err)
	}
	if len(orders) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(orders))
	}
	if orders[0].UUID != "o-1" || orders[0].Side != domain.SideBuy {
		t.Errorf("unexpected first order: %+v", orders[0])
	}
	if !orders[1].Price.Equal(decimal.RequireFromString("51000000")) {
		t.Errorf("expected price 51000000, got %s", orders[1].Price)
	}
}

func TestClient_OpenOrders_APIRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false,"message":"market suspended"}`))
	}))
	defer server.Close()

	c := NewClient(server.URL)
	if _, err := c.OpenOrders(context.Background(), "KRW-BTC"); err == nil {
		t.Fatal("expected error on success=false envelope")
	}
}

func TestClient_CreateOrder(t *testing.T) {
	var got createOrderRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/order" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"success":true}`))
	}))
	defer server.Close()

	c := NewClient(server.URL)
	err := c.CreateOrder(context.Background(), "KRW-BTC", domain.SideBuy,
		decimal.RequireFromString("49000000"), decimal.RequireFromString("0.013"))
	if err != nil {
		t.Fatalf("CreateOrder failed: %v", err)
	}

	if got.Market != "KRW-BTC" || got.Side != "buy" || got.OrdType != "limit" {
		t.Errorf("unexpected body: %+v", got)
	}
	if got.Price != "49000000" || got.Volume != "0.013" {
		t.Errorf("expected string price/volume, got %+v", got)
	}
}

func TestClient_CreateOrder_InvalidSide(t *testing.T) {
	c := NewClient("http://unused")
	err := c.CreateOrder(context.Background(), "KRW-BTC", domain.Side("short"),
		decimal.NewFromInt(1), decimal.NewFromInt(1))
	if err == nil {
		t.Fatal("expected error for invalid side")
	}
}

func TestClient_CancelOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.Path != "/order/o-42" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		w.Write([]byte(`{"success":true}`))
	}))
	defer server.Close()

	c := NewClient(server.URL)
	if err := c.CancelOrder(context.Background(), "o-42"); err != nil {
		t.Fatalf("CancelOrder failed: %v", err)
	}
}

func TestClient_BalanceAndHoldings(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/account/balance":
			w.Write([]byte(`{"success":true,"balance":"100000"}`))
		case "/holdings":
			// One entry keyed by market, one by symbol.
			w.Write([]byte(`{"success":true,"holdings":[
				{"market":"KRW-BTC","balance":"2.0"},
				{"symbol":"ETH","balance":"10"}
			]}`))
		default:
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
	}))
	defer server.Close()

	c := NewClient(server.URL)

	bal, err := c.Balance(context.Background())
	if err != nil {
		t.Fatalf("Balance failed: %v", err)
	}
	if !bal.Equal(decimal.NewFromInt(100000)) {
		t.Errorf("expected balance 100000, got %s", bal)
	}

	holdings, err := c.Holdings(context.Background())
	if err != nil {
		t.Fatalf("Holdings failed: %v", err)
	}
	if len(holdings) != 2 {
		t.Fatalf("expected 2 holdings, got %d", len(holdings))
	}
	if holdings[0].Symbol != "KRW-BTC" || holdings[1].Symbol != "ETH" {
		t.Errorf("unexpected holding symbols: %+v", holdings)
	}
}

func TestClient_HTTPErrorTripsBreaker(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	c := NewClient(server.URL)
	ctx := context.Background()

	// Default breaker threshold is 5 failures.
	for i := 0; i < 5; i++ {
		if _, err := c.OpenOrders(ctx, "KRW-BTC"); err == nil {
			t.Fatal("expected error on HTTP 500")
		}
	}

	_, err := c.OpenOrders(ctx, "KRW-BTC")
	if err != ErrCircuitOpen {
		t.Errorf("expected ErrCircuitOpen after repeated failures, got %v", err)
	}
}
