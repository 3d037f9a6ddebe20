package bank

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"racebank/pkg/bankerr"
	"racebank/pkg/guard"
	"racebank/pkg/simulator"
	"racebank/pkg/teller"
)

func newTestBank(t *testing.T, cfg Config) *Bank {
	t.Helper()

	b, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return b
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if !cfg.InitialBalance.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("expected initial balance 1000, got %s", cfg.InitialBalance)
	}
	if cfg.Delay != 50*time.Millisecond {
		t.Errorf("expected 50ms delay, got %v", cfg.Delay)
	}
	if cfg.AllowOverdraft {
		t.Error("overdraft protection should be on by default")
	}
	if cfg.Mode != guard.ModeProtected {
		t.Errorf("expected protected default mode, got %q", cfg.Mode)
	}
}

func TestNewRejectsInvalidMode(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Mode = "yolo"

	if _, err := New(cfg); !bankerr.IsCode(err, bankerr.CodeInvalidMode) {
		t.Fatalf("want INVALID_MODE, got %v", err)
	}
}

// TestCanonicalScenarioProtected: 1000 opening balance, 10 concurrent
// deposits of 100 — the mutex must deliver exactly 2000 on every trial.
func TestCanonicalScenarioProtected(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Delay = 5 * time.Millisecond
	b := newTestBank(t, cfg)

	for trial := 0; trial < 50; trial++ {
		if err := b.Reset(decimal.NewFromInt(1000)); err != nil {
			t.Fatalf("trial %d: reset failed: %v", trial, err)
		}

		run, err := b.Simulate(context.Background(), simulator.RunConfig{
			Mode:    guard.ModeProtected,
			Tellers: 10,
			Amount:  decimal.NewFromInt(100),
			Kind:    teller.Deposit,
		})
		if err != nil {
			t.Fatalf("trial %d: simulate failed: %v", trial, err)
		}

		if !run.ObservedFinalBalance.Equal(decimal.NewFromInt(2000)) {
			t.Fatalf("trial %d: observed %s, want 2000", trial, run.ObservedFinalBalance)
		}
	}
}

func TestApplyUpdatesStats(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Delay = 0
	b := newTestBank(t, cfg)

	if _, err := b.Apply(context.Background(), teller.Deposit, decimal.NewFromInt(100)); err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if _, err := b.Apply(context.Background(), teller.Withdraw, decimal.NewFromInt(5000)); err == nil {
		t.Fatal("expected insufficient funds rejection")
	}

	info := b.Info()
	if info.Applied != 1 {
		t.Errorf("expected 1 applied, got %d", info.Applied)
	}
	if info.Rejected != 1 {
		t.Errorf("expected 1 rejected, got %d", info.Rejected)
	}
	if !info.Balance.Equal(decimal.NewFromInt(1100)) {
		t.Errorf("expected balance 1100, got %s", info.Balance)
	}
}

func TestSimulateUpdatesStats(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Delay = 20 * time.Millisecond
	b := newTestBank(t, cfg)

	if _, err := b.Simulate(context.Background(), simulator.RunConfig{
		Mode:    guard.ModeUnsafe,
		Tellers: 8,
		Amount:  decimal.NewFromInt(100),
		Kind:    teller.Deposit,
	}); err != nil {
		t.Fatalf("simulate failed: %v", err)
	}

	info := b.Info()
	if info.RunsExecuted != 1 {
		t.Errorf("expected 1 run executed, got %d", info.RunsExecuted)
	}
	if info.LostUpdatesTotal < 1 {
		t.Errorf("expected lost updates to accumulate, got %d", info.LostUpdatesTotal)
	}
	if info.Mode != guard.ModeUnsafe {
		t.Errorf("expected mode to reflect the last run, got %q", info.Mode)
	}
}

func TestStatusAndReset(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Delay = 0
	b := newTestBank(t, cfg)

	if _, err := b.Apply(context.Background(), teller.Deposit, decimal.NewFromInt(100)); err != nil {
		t.Fatalf("apply failed: %v", err)
	}

	if err := b.Reset(decimal.NewFromInt(1000)); err != nil {
		t.Fatalf("reset failed: %v", err)
	}

	st := b.Status()
	if !st.Balance.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("expected balance 1000, got %s", st.Balance)
	}
	if st.TransactionCount != 0 {
		t.Errorf("expected transaction count 0, got %d", st.TransactionCount)
	}
}

func TestSetMode(t *testing.T) {
	b := newTestBank(t, DefaultConfig())

	if err := b.SetMode(guard.ModeUnsafe); err != nil {
		t.Fatalf("SetMode failed: %v", err)
	}
	if b.Status().Mode != guard.ModeUnsafe {
		t.Errorf("expected unsafe mode, got %q", b.Status().Mode)
	}

	if err := b.SetMode("bogus"); !bankerr.IsCode(err, bankerr.CodeInvalidMode) {
		t.Errorf("want INVALID_MODE, got %v", err)
	}
}
