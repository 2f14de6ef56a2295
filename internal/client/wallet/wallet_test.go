package wallet

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coin-wallet/internal/client/api"
	"coin-wallet/internal/client/fetch"
	"coin-wallet/internal/client/gateway"
	"coin-wallet/internal/client/ledger"
	"coin-wallet/internal/client/purchase"
	"coin-wallet/internal/client/walleterr"
	"coin-wallet/internal/domain/transaction"
)

// fakeServer 購入の流れを再現する最小限のウォレットAPI
type fakeServer struct {
	mu       sync.Mutex
	balance  int64
	settled  bool
	txLoads  int
	polls    int
	posts    int
	redirect string

	transactions []map[string]interface{}
}

func (s *fakeServer) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()

		write := func(body interface{}) {
			w.Header().Set("Content-Type", "application/json")
			require.NoError(t, json.NewEncoder(w).Encode(body))
		}

		switch r.URL.Path {
		case "/snap.js":
			_, _ = w.Write([]byte("window.snap = {};"))
		case "/api/v1/me/balance":
			write(map[string]interface{}{"user_id": "user1", "balance": s.balance, "rupee_value": "0.00"})
		case "/api/v1/coins/packages":
			write(map[string]interface{}{"packages": []map[string]interface{}{
				{"package_id": "pkg_1000", "name": "Popular", "coin_amount": 1000, "bonus_coins": 100, "total_coins": 1100, "rupee_price": "50.00", "is_popular": true},
			}})
		case "/api/v1/purchases":
			s.posts++
			w.WriteHeader(http.StatusCreated)
			write(map[string]interface{}{"order_id": "order_1", "status": "pending", "coins": 1100, "amount": "50.00", "redirect_url": "https://pay.example/order_1"})
		case "/api/v1/purchases/order_1":
			s.polls++
			status := "pending"
			if s.polls >= 2 {
				status = "settled"
				if !s.settled {
					s.settled = true
					s.balance += 1100
				}
			}
			write(map[string]interface{}{"order_id": "order_1", "status": status, "coins": 1100, "amount": "50.00"})
		case "/api/v1/me/transactions":
			s.txLoads++
			txType := r.URL.Query().Get("type")
			items := []map[string]interface{}{}
			for _, tx := range s.transactions {
				if txType == "" || tx["type"] == txType {
					items = append(items, tx)
				}
			}
			totalPages := 0
			if len(items) > 0 {
				totalPages = 1
			}
			write(map[string]interface{}{
				"transactions": items,
				"pagination":   map[string]interface{}{"page": 1, "limit": 20, "total": len(items), "total_pages": totalPages, "has_more": false},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

func TestWallet_PurchaseFlow(t *testing.T) {
	fake := &fakeServer{balance: 500}
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()

	w := New(Config{
		API: api.Options{
			BaseURL:      srv.URL,
			Token:        "token",
			ScriptURL:    srv.URL + "/snap.js",
			PollInterval: 5 * time.Millisecond,
			HTTPClient:   srv.Client(),
			OnRedirect: func(orderID, redirectURL string) {
				fake.mu.Lock()
				fake.redirect = redirectURL
				fake.mu.Unlock()
			},
		},
		Customer:     gateway.Customer{Name: "Asha", Email: "asha@example.com", Phone: "9999999999"},
		FetchPolicy:  fetch.Policy{MaxTries: 1, Timeout: time.Second},
		SuccessDelay: 20 * time.Millisecond,
	})

	require.NoError(t, w.Start(context.Background()))
	assert.Equal(t, int64(500), w.Balance.Display())

	flow := w.NewPurchaseFlow()
	require.NoError(t, flow.Open(context.Background()))
	require.Eventually(t, func() bool {
		snap := flow.Snapshot()
		return snap.State == purchase.StateSelecting && snap.CanPay
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, flow.Select("pkg_1000"))
	require.NoError(t, flow.Confirm(context.Background()))

	require.Eventually(t, func() bool {
		return flow.State() == purchase.StateIdle
	}, 2*time.Second, 5*time.Millisecond)

	require.Eventually(t, func() bool {
		snap := w.Balance.Snapshot()
		return snap.Authoritative == 1600 && snap.Pending == 0
	}, time.Second, 5*time.Millisecond)

	require.Eventually(t, func() bool {
		fake.mu.Lock()
		defer fake.mu.Unlock()
		return fake.txLoads == 1
	}, time.Second, 5*time.Millisecond)

	fake.mu.Lock()
	assert.Equal(t, "https://pay.example/order_1", fake.redirect)
	fake.mu.Unlock()
}

func TestWallet_TopUpFlow(t *testing.T) {
	tests := []struct {
		name    string
		amount  decimal.Decimal
		wantMsg string
	}{
		{
			name:    "異常系: 最小未満はサーバーに送らない",
			amount:  decimal.NewFromInt(5),
			wantMsg: "Amount must be between ₹10.00 and ₹10000.00",
		},
		{
			name:    "異常系: 端数のある金額はサーバーに送らない",
			amount:  decimal.RequireFromString("10.07"),
			wantMsg: "Please enter a whole rupee amount",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeServer{}
			srv := httptest.NewServer(fake.handler(t))
			defer srv.Close()

			w := New(Config{
				API:         api.Options{BaseURL: srv.URL, ScriptURL: srv.URL + "/snap.js", HTTPClient: srv.Client()},
				Customer:    gateway.Customer{Name: "Asha", Email: "asha@example.com", Phone: "9999999999"},
				FetchPolicy: fetch.Policy{MaxTries: 1},
			})
			require.NoError(t, w.Start(context.Background()))

			flow := w.NewTopUpFlow()
			require.NoError(t, flow.Open(context.Background()))
			require.Eventually(t, func() bool {
				return flow.Snapshot().CanPay
			}, time.Second, 5*time.Millisecond)

			assert.Len(t, flow.Snapshot().Tiers, 3)

			require.NoError(t, flow.SetCustomAmount(tt.amount))
			err := flow.Confirm(context.Background())
			assert.ErrorIs(t, err, walleterr.ErrValidation)

			snap := flow.Snapshot()
			assert.Equal(t, purchase.StateSelecting, snap.State)
			assert.Equal(t, tt.wantMsg, snap.ValidationMessage)

			fake.mu.Lock()
			defer fake.mu.Unlock()
			assert.Zero(t, fake.posts)
			assert.Zero(t, fake.polls)
		})
	}
}

func TestWallet_ExportFiltered(t *testing.T) {
	fake := &fakeServer{transactions: []map[string]interface{}{
		{"transaction_id": "txn_1", "user_id": "user1", "type": "purchase", "coin_amount": 1100, "rupee_amount": "50.00", "status": "completed", "description": "Popular pack", "created_at": "2026-03-01T11:00:00Z"},
		{"transaction_id": "txn_2", "user_id": "user1", "type": "spend", "coin_amount": 50, "status": "completed", "description": "Unlocked chapter 3, part 1", "created_at": "2026-03-01T10:00:00Z"},
		{"transaction_id": "txn_3", "user_id": "user1", "type": "earn", "coin_amount": 20, "status": "completed", "description": "Daily login", "created_at": "2026-03-01T09:00:00Z"},
	}}
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()

	w := New(Config{
		API:         api.Options{BaseURL: srv.URL, Token: "token", HTTPClient: srv.Client()},
		FetchPolicy: fetch.Policy{MaxTries: 1, Timeout: time.Second},
	})

	spend := transaction.TransactionTypeSpend
	var buf bytes.Buffer
	n, err := w.Ledger.Export(context.Background(), transaction.Filter{Type: &spend}, &buf)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, ledger.CSVHeader, records[0])
	assert.Equal(t, []string{"2026-03-01 10:00:00", "spend", "-50", "", "completed", "Unlocked chapter 3; part 1"}, records[1])

	// 絞り込みなしでは3件すべて
	buf.Reset()
	n, err = w.Ledger.Export(context.Background(), transaction.Filter{}, &buf)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}
