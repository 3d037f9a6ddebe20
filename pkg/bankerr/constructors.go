package bankerr

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// InsufficientFunds reports a withdrawal that exceeds the locally observed
// balance while overdraft protection is enabled. The observed balance is
// part of the racy read, so in unsafe mode this rejection may be based on
// a stale value.
func InsufficientFunds(observed, requested decimal.Decimal) *BankError {
	e := New(CategoryFunds, CodeInsufficientFunds, "insufficient funds")
	e.Detail = fmt.Sprintf("requested %s, observed balance %s", requested, observed)
	e.Hint = "lower the amount or disable overdraft protection"
	return e
}

// InvalidAmount reports a non-positive transaction amount.
func InvalidAmount(amount decimal.Decimal) *BankError {
	e := New(CategoryUser, CodeInvalidAmount, "amount must be positive")
	e.Detail = fmt.Sprintf("got %s", amount)
	return e
}

// InvalidMode reports an unrecognized execution mode.
func InvalidMode(mode string) *BankError {
	e := New(CategoryUser, CodeInvalidMode, "unrecognized execution mode")
	e.Detail = fmt.Sprintf("got %q", mode)
	e.Hint = `use "unsafe" or "protected"`
	return e
}

// InvalidKind reports an unrecognized transaction kind.
func InvalidKind(kind string) *BankError {
	e := New(CategoryUser, CodeInvalidKind, "unrecognized transaction kind")
	e.Detail = fmt.Sprintf("got %q", kind)
	e.Hint = `use "deposit" or "withdraw"`
	return e
}

// RunInFlight reports an operation that conflicts with an active
// simulation run. Mode switches and resets wait until the run settles so
// a run's mode stays fixed for its entire duration.
func RunInFlight(operation string) *BankError {
	e := New(CategoryConcurrency, CodeRunInFlight, "simulation run in flight")
	e.Operation = operation
	e.Hint = "wait for the current run to settle and retry"
	return e
}
