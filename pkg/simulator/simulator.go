// Package simulator drives many simultaneous teller transactions against
// the shared account and reports the resulting (in)consistency.
package simulator

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"racebank/pkg/account"
	"racebank/pkg/bankerr"
	"racebank/pkg/guard"
	"racebank/pkg/logging"
	"racebank/pkg/teller"
)

// Status is a point-in-time view of the shared state.
type Status struct {
	Balance          decimal.Decimal
	TransactionCount int64
	Mode             guard.Mode
}

// Simulator owns the concurrent stress machinery. At most one run is in
// flight at a time; mode switches and resets are refused while tellers are
// still executing so every run is legible on its own.
type Simulator struct {
	account  *account.Account
	guard    *guard.Controller
	executor *teller.Executor

	running atomic.Bool
	logger  *slog.Logger
}

// New wires a simulator to the account, guard, and executor it drives.
func New(acc *account.Account, ctrl *guard.Controller, exec *teller.Executor) *Simulator {
	return &Simulator{
		account:  acc,
		guard:    ctrl,
		executor: exec,
		logger:   logging.WithComponent("simulator"),
	}
}

// Run fires cfg.Tellers concurrent transactions and waits for all of them
// to settle before reading the final balance. The expectation is computed
// analytically up front; the report contrasts it with what the account
// actually holds.
func (s *Simulator) Run(ctx context.Context, cfg RunConfig) (*Run, error) {
	if !cfg.Mode.Valid() {
		return nil, bankerr.InvalidMode(string(cfg.Mode))
	}
	if !cfg.Kind.Valid() {
		return nil, bankerr.InvalidKind(string(cfg.Kind))
	}
	if !cfg.Amount.IsPositive() {
		return nil, bankerr.InvalidAmount(cfg.Amount)
	}
	if cfg.Tellers < 1 {
		e := bankerr.New(bankerr.CategoryUser, bankerr.CodeInvalidAmount, "teller count must be at least 1")
		e.Detail = fmt.Sprintf("got %d", cfg.Tellers)
		return nil, e
	}

	if !s.running.CompareAndSwap(false, true) {
		return nil, bankerr.RunInFlight("Run")
	}
	defer s.running.Store(false)

	// The run's mode is pinned now and stays fixed until every teller
	// settled.
	if err := s.guard.SetMode(cfg.Mode); err != nil {
		return nil, err
	}

	run := &Run{
		ID:              uuid.NewString(),
		Mode:            cfg.Mode,
		RequestedCount:  cfg.Tellers,
		Kind:            cfg.Kind,
		AmountPerReq:    cfg.Amount,
		StartingBalance: s.account.Read(),
		StartedAt:       time.Now(),
		Outcomes:        make([]teller.Outcome, cfg.Tellers),
	}
	run.ExpectedFinalBalance = expectedBalance(run.StartingBalance, cfg)

	log := logging.WithRun(run.ID).With("mode", cfg.Mode.String())
	log.Info("stress run launched",
		"tellers", cfg.Tellers, "kind", cfg.Kind.String(), "amount", cfg.Amount.String())

	var g errgroup.Group
	for i := range run.Outcomes {
		i := i
		req := teller.Request{
			ActorID: actorID(i),
			Kind:    cfg.Kind,
			Amount:  cfg.Amount,
		}
		g.Go(func() error {
			run.Outcomes[i] = s.executor.Execute(ctx, req)
			return nil
		})
	}
	// Workers report failures through their outcome, never through the
	// group, so Wait is purely a join point.
	_ = g.Wait()

	run.Duration = time.Since(run.StartedAt)
	run.ObservedFinalBalance = s.account.Read()
	for _, out := range run.Outcomes {
		if out.Committed {
			run.CommittedCount++
		} else {
			run.RejectedCount++
		}
	}
	run.LostUpdateCount = run.deriveLostUpdates()

	log.Info("stress run settled",
		"expected", run.ExpectedFinalBalance.String(),
		"observed", run.ObservedFinalBalance.String(),
		"committed", run.CommittedCount,
		"lost_updates", run.LostUpdateCount,
		"duration", run.Duration)
	return run, nil
}

// Apply is the non-concurrent passthrough for interactive single calls.
// It is mode-agnostic: the transaction runs under whatever mode the guard
// currently holds.
func (s *Simulator) Apply(ctx context.Context, kind teller.Kind, amount decimal.Decimal) (teller.Outcome, error) {
	req := teller.Request{
		ActorID: "operator-" + uuid.NewString()[:8],
		Kind:    kind,
		Amount:  amount,
	}
	out := s.executor.Execute(ctx, req)
	return out, out.Err
}

// Status reports the current balance, committed-write counter, and mode.
func (s *Simulator) Status() Status {
	return Status{
		Balance:          s.account.Read(),
		TransactionCount: s.account.TransactionCount(),
		Mode:             s.guard.Mode(),
	}
}

// Reset reinitializes the account for a fresh demonstration. Refused while
// a run is in flight: a reset racing the tellers it is supposed to clean
// up after would just be another lost update.
func (s *Simulator) Reset(initial decimal.Decimal) error {
	if s.running.Load() {
		return bankerr.RunInFlight("Reset")
	}
	s.account.Reset(initial)
	s.logger.Info("account reset", "balance", initial.String())
	return nil
}

// SetMode switches the execution mode between runs. Refused mid-run so a
// run's mode stays fixed for its entire duration.
func (s *Simulator) SetMode(mode guard.Mode) error {
	if s.running.Load() {
		return bankerr.RunInFlight("SetMode")
	}
	return s.guard.SetMode(mode)
}

// expectedBalance is the order-independent arithmetic expectation for a
// uniform request set.
func expectedBalance(start decimal.Decimal, cfg RunConfig) decimal.Decimal {
	moved := cfg.Amount.Mul(decimal.NewFromInt(int64(cfg.Tellers)))
	if cfg.Kind == teller.Withdraw {
		return start.Sub(moved)
	}
	return start.Add(moved)
}

// actorID labels the i-th simulated teller of a run.
func actorID(i int) string {
	return fmt.Sprintf("teller-%02d-%s", i+1, uuid.NewString()[:8])
}
