package gateway

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"racebank/pkg/bank"
	"racebank/pkg/guard"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	b, err := bank.New(bank.Config{
		InitialBalance: decimal.NewFromInt(1000),
		Delay:          time.Millisecond,
		AllowOverdraft: false,
		Mode:           guard.ModeProtected,
	})
	if err != nil {
		t.Fatalf("bank.New failed: %v", err)
	}

	return httptest.NewServer(NewServer(b).Routes())
}

func postJSON(t *testing.T, url string, body any) (*http.Response, map[string]any) {
	t.Helper()

	b, _ := json.Marshal(body)
	res, err := http.Post(url, "application/json", bytes.NewReader(b))
	if err != nil {
		t.Fatalf("POST %s failed: %v", url, err)
	}
	defer res.Body.Close()

	var out map[string]any
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		t.Fatalf("decoding response from %s: %v", url, err)
	}
	return res, out
}

func getJSON(t *testing.T, url string) (*http.Response, map[string]any) {
	t.Helper()

	res, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s failed: %v", url, err)
	}
	defer res.Body.Close()

	var out map[string]any
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		t.Fatalf("decoding response from %s: %v", url, err)
	}
	return res, out
}

func TestStatusEndpoint(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	res, body := getJSON(t, srv.URL+"/status")

	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.StatusCode)
	}
	if body["balance"] != "1000" {
		t.Errorf("expected balance 1000, got %v", body["balance"])
	}
	if body["mode"] != "protected" {
		t.Errorf("expected protected mode, got %v", body["mode"])
	}
	if body["transaction_count"] != float64(0) {
		t.Errorf("expected transaction count 0, got %v", body["transaction_count"])
	}
}

func TestApplyDeposit(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	res, body := postJSON(t, srv.URL+"/apply", map[string]any{
		"kind":   "deposit",
		"amount": "250",
	})

	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %v", res.StatusCode, body)
	}
	if body["new_balance"] != "1250" {
		t.Errorf("expected new balance 1250, got %v", body["new_balance"])
	}
}

func TestApplyInsufficientFunds(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	res, body := postJSON(t, srv.URL+"/apply", map[string]any{
		"kind":   "withdraw",
		"amount": "5000",
	})

	if res.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %v", res.StatusCode, body)
	}

	// The rejection must leave the balance untouched.
	_, status := getJSON(t, srv.URL+"/status")
	if status["balance"] != "1000" {
		t.Errorf("expected balance unchanged at 1000, got %v", status["balance"])
	}
}

func TestApplyValidation(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	tests := []struct {
		name string
		body map[string]any
	}{
		{name: "unknown kind", body: map[string]any{"kind": "transfer", "amount": "10"}},
		{name: "negative amount", body: map[string]any{"kind": "deposit", "amount": "-10"}},
		{name: "zero amount", body: map[string]any{"kind": "deposit", "amount": "0"}},
	}

	for _, test := range tests {
		res, _ := postJSON(t, srv.URL+"/apply", test.body)
		if res.StatusCode != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", test.name, res.StatusCode)
		}
	}
}

func TestSimulateProtected(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	res, body := postJSON(t, srv.URL+"/simulate", map[string]any{
		"mode":    "protected",
		"tellers": 10,
		"amount":  "100",
		"kind":    "deposit",
	})

	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %v", res.StatusCode, body)
	}
	if body["expected_final_balance"] != "2000" {
		t.Errorf("expected analytic balance 2000, got %v", body["expected_final_balance"])
	}
	if body["observed_final_balance"] != "2000" {
		t.Errorf("protected run must observe 2000, got %v", body["observed_final_balance"])
	}
	if body["consistent"] != true {
		t.Errorf("protected run must be consistent, got %v", body["consistent"])
	}
	if body["lost_update_count"] != float64(0) {
		t.Errorf("expected zero lost updates, got %v", body["lost_update_count"])
	}

	log, ok := body["per_transaction_log"].([]any)
	if !ok || len(log) != 10 {
		t.Fatalf("expected 10 log entries, got %v", body["per_transaction_log"])
	}
}

func TestSimulateInvalidMode(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	res, _ := postJSON(t, srv.URL+"/simulate", map[string]any{
		"mode":    "turbo",
		"tellers": 2,
		"amount":  "10",
	})

	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.StatusCode)
	}
}

func TestResetEndpoint(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	if _, body := postJSON(t, srv.URL+"/apply", map[string]any{"kind": "deposit", "amount": "500"}); body["new_balance"] != "1500" {
		t.Fatalf("setup deposit failed: %v", body)
	}

	res, body := postJSON(t, srv.URL+"/reset", map[string]any{
		"initial_balance": "1000",
	})

	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %v", res.StatusCode, body)
	}
	if body["balance"] != "1000" {
		t.Errorf("expected balance 1000 after reset, got %v", body["balance"])
	}
	if body["transaction_count"] != float64(0) {
		t.Errorf("expected transaction count 0 after reset, got %v", body["transaction_count"])
	}
}

func TestBadJSONBody(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	res, err := http.Post(srv.URL+"/apply", "application/json", bytes.NewReader([]byte(`{"kind":`)))
	if err != nil {
		t.Fatalf("POST failed: %v", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.StatusCode)
	}
}
