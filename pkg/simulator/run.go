package simulator

import (
	"time"

	"github.com/shopspring/decimal"

	"racebank/pkg/guard"
	"racebank/pkg/teller"
)

// RunConfig describes one stress run. The same config can be replayed under
// both modes so operators can contrast outcomes of identical request sets.
type RunConfig struct {
	Mode guard.Mode

	// Tellers is the number of concurrent transaction requests to fire.
	Tellers int

	// Amount is the per-request amount; every teller in a run moves the
	// same amount so the expectation stays order-independent arithmetic.
	Amount decimal.Decimal

	Kind teller.Kind
}

// Run is the immutable report of a settled stress run.
type Run struct {
	ID             string
	Mode           guard.Mode
	RequestedCount int
	Kind           teller.Kind
	AmountPerReq   decimal.Decimal

	// StartingBalance is the balance when the run was launched.
	StartingBalance decimal.Decimal

	// ExpectedFinalBalance is computed analytically before execution:
	// starting balance ± tellers × amount, independent of any ordering.
	ExpectedFinalBalance decimal.Decimal

	// ObservedFinalBalance is the balance after every teller settled.
	ObservedFinalBalance decimal.Decimal

	// CommittedCount and RejectedCount split the request set into writes
	// that reached the account and requests rejected before writing.
	CommittedCount int
	RejectedCount  int

	// LostUpdateCount is the number of committed writes whose effect
	// vanished under a concurrently computed write. Derived from the
	// discrepancy between the committed-adjusted expectation and the
	// observed balance; rejected requests cannot be lost, so they are
	// excluded from the expectation first.
	LostUpdateCount int64

	// Outcomes is the per-transaction log, indexed by teller.
	Outcomes []teller.Outcome

	StartedAt time.Time
	Duration  time.Duration
}

// Consistent reports whether the run settled on the analytically expected
// balance, after accounting for rejected requests.
func (r *Run) Consistent() bool {
	return r.LostUpdateCount == 0
}

// committedExpectation recomputes the expectation over committed writes
// only: starting balance plus the sum of amounts that actually reached the
// write step.
func (r *Run) committedExpectation() decimal.Decimal {
	moved := r.AmountPerReq.Mul(decimal.NewFromInt(int64(r.CommittedCount)))
	if r.Kind == teller.Withdraw {
		return r.StartingBalance.Sub(moved)
	}
	return r.StartingBalance.Add(moved)
}

// deriveLostUpdates turns the balance discrepancy into a lost-update count.
// Uniform per-request amounts make the division exact; the absolute value
// covers both directions (deposits land low, withdrawals land high).
func (r *Run) deriveLostUpdates() int64 {
	if r.AmountPerReq.IsZero() {
		return 0
	}
	diff := r.committedExpectation().Sub(r.ObservedFinalBalance).Abs()
	return diff.Div(r.AmountPerReq).IntPart()
}
