// Package teller executes single deposit/withdraw transactions against the
// shared account as a staged read-modify-write cycle.
//
// The staging is deliberate: reading the balance, computing the new value,
// pausing, and writing back are separate steps so that another teller's
// steps can interleave anywhere in between when the guard is off. A single
// atomic update would never race and would demonstrate nothing.
package teller

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"racebank/pkg/account"
	"racebank/pkg/bankerr"
	"racebank/pkg/guard"
	"racebank/pkg/logging"
)

// Executor performs transactions against one account through one guard.
type Executor struct {
	account *account.Account
	guard   *guard.Controller

	// delay is the race-widening pause between computing the new balance
	// and committing it. Explicit and configurable so tests can tune the
	// race probability instead of relying on scheduler luck.
	delay time.Duration

	// allowOverdraft disables the insufficient-funds check. The policy is
	// fixed per executor so it stays consistent within a run.
	allowOverdraft bool

	// clock stamps read and write steps across all tellers so outcomes
	// can be ordered afterwards.
	clock atomic.Uint64

	logger *slog.Logger
}

// NewExecutor wires an executor to its account and guard. A zero delay is
// valid; it just makes lost updates in unsafe mode far less likely.
func NewExecutor(acc *account.Account, ctrl *guard.Controller, delay time.Duration, allowOverdraft bool) *Executor {
	return &Executor{
		account:        acc,
		guard:          ctrl,
		delay:          delay,
		allowOverdraft: allowOverdraft,
		logger:         logging.WithComponent("executor"),
	}
}

// Delay returns the configured race-widening pause.
func (e *Executor) Delay() time.Duration {
	return e.delay
}

// AllowOverdraft reports the executor's overdraft policy.
func (e *Executor) AllowOverdraft() bool {
	return e.allowOverdraft
}

// Execute runs one request through the four staged steps, bracketed by the
// guard: read balance, compute the updated value, pause, write back.
//
// Validation errors surface in Outcome.Err and leave the account untouched.
// In unsafe mode a cancelled context abandons the worker at the pause
// point; in protected mode an entered critical section always completes,
// so an aborted run never leaves the account torn.
func (e *Executor) Execute(ctx context.Context, req Request) Outcome {
	out := Outcome{Request: req, At: time.Now()}

	if !req.Kind.Valid() {
		out.Err = bankerr.InvalidKind(string(req.Kind))
		return out
	}
	if !req.Amount.IsPositive() {
		out.Err = bankerr.InvalidAmount(req.Amount)
		return out
	}
	if err := ctx.Err(); err != nil {
		out.Err = err
		return out
	}

	out.Err = e.guard.Do(func() error {
		out.ReadSeq = e.clock.Add(1)
		current := e.account.Read()
		out.ReadBalance = current

		var updated decimal.Decimal
		switch req.Kind {
		case Deposit:
			updated = current.Add(req.Amount)
		case Withdraw:
			// This check is part of the racy read: in unsafe mode the
			// observed balance may already be stale by the write step.
			if !e.allowOverdraft && current.LessThan(req.Amount) {
				return bankerr.InsufficientFunds(current, req.Amount)
			}
			updated = current.Sub(req.Amount)
		}

		if err := e.pause(ctx); err != nil {
			return err
		}

		e.account.Write(updated)
		out.WriteSeq = e.clock.Add(1)
		out.WrittenBalance = updated
		out.Committed = true
		return nil
	})

	if out.Err != nil {
		e.logger.Debug("transaction rejected",
			"teller", req.ActorID, "kind", req.Kind.String(), "error", out.Err.Error())
	}
	return out
}

// pause simulates processing latency between compute and write. Guarded
// critical sections are never interrupted; unguarded workers honor
// cancellation since no invariant protects them anyway.
func (e *Executor) pause(ctx context.Context) error {
	if e.delay <= 0 {
		return nil
	}
	if e.guard.Mode() == guard.ModeProtected {
		time.Sleep(e.delay)
		return nil
	}

	t := time.NewTimer(e.delay)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
