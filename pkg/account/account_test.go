package account

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestNewAccount(t *testing.T) {
	acc := New(decimal.NewFromInt(1000))

	if acc == nil {
		t.Fatal("New() returned nil")
	}

	if !acc.Read().Equal(decimal.NewFromInt(1000)) {
		t.Errorf("expected opening balance 1000, got %s", acc.Read())
	}

	if acc.TransactionCount() != 0 {
		t.Errorf("expected zero transaction count, got %d", acc.TransactionCount())
	}

	if !acc.InitialBalance().Equal(decimal.NewFromInt(1000)) {
		t.Errorf("expected initial balance 1000, got %s", acc.InitialBalance())
	}
}

func TestWriteIncrementsTransactionCount(t *testing.T) {
	acc := New(decimal.NewFromInt(500))

	acc.Write(decimal.NewFromInt(600))
	acc.Write(decimal.NewFromInt(700))
	acc.Write(decimal.NewFromInt(650))

	if !acc.Read().Equal(decimal.NewFromInt(650)) {
		t.Errorf("expected balance 650, got %s", acc.Read())
	}

	if acc.TransactionCount() != 3 {
		t.Errorf("expected 3 committed writes, got %d", acc.TransactionCount())
	}
}

func TestWriteAllowsNegativeBalance(t *testing.T) {
	acc := New(decimal.NewFromInt(50))

	acc.Write(decimal.NewFromInt(-50))

	if !acc.Read().Equal(decimal.NewFromInt(-50)) {
		t.Errorf("expected balance -50, got %s", acc.Read())
	}
}

func TestReset(t *testing.T) {
	acc := New(decimal.NewFromInt(1000))
	acc.Write(decimal.NewFromInt(1100))
	acc.Write(decimal.NewFromInt(1200))

	acc.Reset(decimal.NewFromInt(1000))

	if !acc.Read().Equal(decimal.NewFromInt(1000)) {
		t.Errorf("expected balance 1000 after reset, got %s", acc.Read())
	}

	if acc.TransactionCount() != 0 {
		t.Errorf("expected transaction count 0 after reset, got %d", acc.TransactionCount())
	}
}

func TestResetChangesInitialBalance(t *testing.T) {
	acc := New(decimal.NewFromInt(1000))

	acc.Reset(decimal.NewFromInt(2500))

	if !acc.InitialBalance().Equal(decimal.NewFromInt(2500)) {
		t.Errorf("expected initial balance 2500 after reset, got %s", acc.InitialBalance())
	}
}
