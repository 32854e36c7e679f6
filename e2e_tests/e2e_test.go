//go:build e2e

package e2etests

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

const (
	timeout   = 5 * time.Second
	waitReady = 20 * time.Second
	// A 30 second lane settles within one window plus the chain of retries.
	waitSettle = 90 * time.Second
)

var (
	baseURL    = envOr("E2E_BASE_URL", "http://localhost:8080")
	httpClient = &http.Client{Timeout: timeout}
)

func TestE2E_WalletFlow(t *testing.T) {
	waitUntilReady(t)

	start := balanceOf(t, 1)

	t.Run("win_increases_balance", func(t *testing.T) {
		code, body := postTransaction(t, 1, "payment", "win", "10.15", uniqTxID("u1-win"))
		if code != http.StatusOK {
			t.Fatalf("win tx: want 200, got %d (%s)", code, body)
		}

		assertBalance(t, 1, start.Add(decimal.RequireFromString("10.15")))
	})

	t.Run("duplicate_transaction_conflict", func(t *testing.T) {
		tid := uniqTxID("u1-dup")

		code, body := postTransaction(t, 1, "payment", "win", "5.00", tid)
		if code != http.StatusOK {
			t.Fatalf("first send: want 200, got %d (%s)", code, body)
		}

		code, body = postTransaction(t, 1, "payment", "win", "5.00", tid)
		if code != http.StatusConflict {
			t.Fatalf("duplicate send: want 409, got %d (%s)", code, body)
		}

		assertBalance(t, 1, start.Add(decimal.RequireFromString("15.15")))
	})

	t.Run("lose_decreases_balance", func(t *testing.T) {
		code, body := postTransaction(t, 1, "server", "lose", "1.15", uniqTxID("u1-lose"))
		if code != http.StatusOK {
			t.Fatalf("lose tx: want 200, got %d (%s)", code, body)
		}

		assertBalance(t, 1, start.Add(decimal.RequireFromString("14.00")))
	})

	t.Run("validation", func(t *testing.T) {
		cases := []struct {
			name, source, state, amount string
		}{
			{"bad_state", "game", "invalid", "1.00"},
			{"bad_precision", "game", "win", "1.234"},
			{"bad_source", "bad-source", "win", "1.00"},
		}

		for _, tc := range cases {
			code, _ := postTransaction(t, 3, tc.source, tc.state, tc.amount, uniqTxID("u3-"+tc.name))
			if code != http.StatusBadRequest {
				t.Fatalf("%s: want 400, got %d", tc.name, code)
			}
		}
	})
}

// A lone big bet on a house lane is the only exposure in its period, so the
// settled digit must be small and the stake is lost.
func TestE2E_WagerLifecycle(t *testing.T) {
	waitUntilReady(t)

	const userID = 5

	before := balanceOf(t, userID)

	cur := currentPeriod(t, "wingo", 30)
	if time.Until(cur.EndAt) < 3*time.Second {
		time.Sleep(time.Until(cur.EndAt) + time.Second)
		cur = currentPeriod(t, "wingo", 30)
	}

	code, body := postJSON(t, "/games/wingo/30/wagers", userID, map[string]string{
		"category": "size:big",
		"stake":    "10.00",
		"periodId": cur.PeriodID,
	})
	if code != http.StatusCreated {
		t.Fatalf("place wager: want 201, got %d (%s)", code, body)
	}

	var placed struct {
		WagerID      string `json:"wagerId"`
		PeriodID     string `json:"periodId"`
		Tax          string `json:"tax"`
		BalanceAfter string `json:"balanceAfter"`
	}

	mustDecode(t, body, &placed)

	if placed.PeriodID != cur.PeriodID || placed.WagerID == "" {
		t.Fatalf("unexpected receipt: %s", body)
	}

	if placed.Tax != "0.20" {
		t.Fatalf("tax = %s, want 0.20", placed.Tax)
	}

	afterDebit := before.Sub(decimal.RequireFromString("10.00"))
	assertBalance(t, userID, afterDebit)

	rec := waitForRecord(t, "wingo", 30, cur.PeriodID)

	if rec.Method != "min_exposure" {
		t.Fatalf("method = %s", rec.Method)
	}

	if len(rec.Outcome.Digits) != 1 || rec.Outcome.Digits[0] >= 5 {
		t.Fatalf("outcome %v should be small", rec.Outcome.Digits)
	}

	assertBalance(t, userID, afterDebit)
}

func TestE2E_WagerRejections(t *testing.T) {
	waitUntilReady(t)

	cur := currentPeriod(t, "wingo", 60)

	cases := []struct {
		name string
		path string
		body map[string]string
		want int
	}{
		{"unknown_game", "/games/keno/60/wagers", map[string]string{"category": "size:big", "stake": "1.00"}, http.StatusNotFound},
		{"unsupported_duration", "/games/wingo/45/wagers", map[string]string{"category": "size:big", "stake": "1.00"}, http.StatusNotFound},
		{"foreign_category", "/games/wingo/60/wagers", map[string]string{"category": "sum_size:big", "stake": "1.00", "periodId": cur.PeriodID}, http.StatusBadRequest},
		{"stake_below_minimum", "/games/wingo/60/wagers", map[string]string{"category": "size:big", "stake": "0.50", "periodId": cur.PeriodID}, http.StatusBadRequest},
		{"stale_period", "/games/wingo/60/wagers", map[string]string{"category": "size:big", "stake": "1.00", "periodId": "190001011000600001"}, http.StatusConflict},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, body := postJSON(t, tc.path, 4, tc.body)
			if code != tc.want {
				t.Fatalf("want %d, got %d (%s)", tc.want, code, body)
			}
		})
	}
}

/* -------------------- helpers -------------------- */

type periodPayload struct {
	PeriodID string    `json:"periodId"`
	EndAt    time.Time `json:"endAt"`
}

type recordPayload struct {
	PeriodID string `json:"periodId"`
	Method   string `json:"method"`
	Outcome  struct {
		Digits []int `json:"digits"`
	} `json:"outcome"`
}

func currentPeriod(t *testing.T, g string, secs int) periodPayload {
	t.Helper()

	code, body := get(t, fmt.Sprintf("/games/%s/%d/periods/current", g, secs))
	if code != http.StatusOK {
		t.Fatalf("current period: want 200, got %d (%s)", code, body)
	}

	var p periodPayload

	mustDecode(t, body, &p)

	return p
}

func waitForRecord(t *testing.T, g string, secs int, periodID string) recordPayload {
	t.Helper()

	ctx, cancel := context.WithTimeout(t.Context(), waitSettle)
	defer cancel()

	tick := time.NewTicker(time.Second)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			t.Fatalf("period %s not settled within %s", periodID, waitSettle)
		case <-tick.C:
			code, body := get(t, fmt.Sprintf("/games/%s/%d/results/last", g, secs))
			if code != http.StatusOK {
				continue
			}

			var rec recordPayload

			mustDecode(t, body, &rec)

			if rec.PeriodID >= periodID {
				if rec.PeriodID != periodID {
					t.Fatalf("last result skipped past %s to %s", periodID, rec.PeriodID)
				}

				return rec
			}
		}
	}
}

func balanceOf(t *testing.T, userID uint64) decimal.Decimal {
	t.Helper()

	code, body := get(t, fmt.Sprintf("/user/%d/balance", userID))
	if code != http.StatusOK {
		t.Fatalf("balance of %d: want 200, got %d (%s)", userID, code, body)
	}

	var payload struct {
		UserID  uint64 `json:"userId"`
		Balance string `json:"balance"`
	}

	mustDecode(t, body, &payload)

	if payload.UserID != userID {
		t.Fatalf("userId mismatch: want %d, got %d", userID, payload.UserID)
	}

	bal, err := decimal.NewFromString(payload.Balance)
	if err != nil || bal.StringFixed(2) != payload.Balance {
		t.Fatalf("invalid balance format %q", payload.Balance)
	}

	return bal
}

func assertBalance(t *testing.T, userID uint64, want decimal.Decimal) {
	t.Helper()

	got := balanceOf(t, userID)
	if !got.Equal(want) {
		t.Fatalf("balance of %d = %s, want %s", userID, got.StringFixed(2), want.StringFixed(2))
	}
}

func postTransaction(t *testing.T, userID uint64, source, state, amount, txid string) (int, string) {
	t.Helper()

	data, err := json.Marshal(map[string]string{
		"state":         state,
		"amount":        amount,
		"transactionId": txid,
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	req, err := http.NewRequestWithContext(t.Context(), http.MethodPost,
		fmt.Sprintf("%s/user/%d/transaction", baseURL, userID), bytes.NewReader(data))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}

	req.Header.Set("Source-Type", source)
	req.Header.Set("Content-Type", "application/json")

	return do(t, req)
}

func postJSON(t *testing.T, path string, userID uint64, body any) (int, string) {
	t.Helper()

	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	req, err := http.NewRequestWithContext(t.Context(), http.MethodPost, baseURL+path, bytes.NewReader(data))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}

	req.Header.Set("X-User-Id", fmt.Sprint(userID))
	req.Header.Set("Content-Type", "application/json")

	return do(t, req)
}

func get(t *testing.T, path string) (int, string) {
	t.Helper()

	req, err := http.NewRequestWithContext(t.Context(), http.MethodGet, baseURL+path, nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}

	return do(t, req)
}

func do(t *testing.T, req *http.Request) (int, string) {
	t.Helper()

	resp, err := httpClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", req.Method, req.URL, err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}

	return resp.StatusCode, string(b)
}

func mustDecode(t *testing.T, body string, dst any) {
	t.Helper()

	err := json.Unmarshal([]byte(body), dst)
	if err != nil {
		t.Fatalf("decode %q: %v", body, err)
	}
}

// waitUntilReady polls /healthz until the service answers.
func waitUntilReady(t *testing.T) {
	t.Helper()

	ctx, cancel := context.WithTimeout(t.Context(), waitReady)
	defer cancel()

	tick := time.NewTicker(200 * time.Millisecond)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			t.Fatalf("service not ready at %s within %s", baseURL, waitReady)
		case <-tick.C:
			req, _ := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/healthz", nil)

			resp, err := httpClient.Do(req)
			if err != nil {
				continue
			}

			_ = resp.Body.Close()

			if resp.StatusCode == http.StatusOK {
				return
			}
		}
	}
}

func uniqTxID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return def
}
