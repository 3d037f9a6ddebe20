// Package account holds the shared bank-account state: the balance under
// test and a diagnostic counter of committed writes.
//
// Account is deliberately NOT thread-safe. It is the single contended
// resource of the simulation, and whether concurrent read-modify-write
// cycles against it are serialized is entirely the caller's decision,
// made through the guard package. Wrapping the balance in its own mutex
// here would defeat the demonstration.
package account

import (
	"sync/atomic"

	"github.com/shopspring/decimal"
)

// Account is the single shared mutable resource of the simulation.
type Account struct {
	// balance is bare on purpose: concurrent Read/Write pairs from
	// unguarded tellers are expected to race on it.
	balance decimal.Decimal

	initial decimal.Decimal

	// txCount is atomic so diagnostics stay exact even during unsafe
	// runs; the counter is not part of the resource under test.
	txCount atomic.Int64
}

// New creates an account with the given opening balance.
func New(initial decimal.Decimal) *Account {
	return &Account{
		balance: initial,
		initial: initial,
	}
}

// Read returns the current balance. No synchronization.
func (a *Account) Read() decimal.Decimal {
	return a.balance
}

// Write commits a new balance and increments the transaction counter.
// No synchronization and no validation: negative balances are allowed at
// this layer, overdraft policy belongs to the executor.
func (a *Account) Write(newBalance decimal.Decimal) {
	a.balance = newBalance
	a.txCount.Add(1)
}

// Reset reinitializes the account for a fresh demonstration run: the
// balance becomes initial and the transaction counter returns to zero.
func (a *Account) Reset(initial decimal.Decimal) {
	a.balance = initial
	a.initial = initial
	a.txCount.Store(0)
}

// TransactionCount reports the number of committed writes since the last
// reset.
func (a *Account) TransactionCount() int64 {
	return a.txCount.Load()
}

// InitialBalance returns the opening balance of the current lifecycle.
func (a *Account) InitialBalance() decimal.Decimal {
	return a.initial
}
