// Package bank is the facade that coordinates the account, guard, executor,
// and simulator behind a single handle for the UI, the HTTP gateway, and
// main. No ambient singletons: the shared account is owned here and threaded
// explicitly into every collaborator.
package bank

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"racebank/pkg/account"
	"racebank/pkg/guard"
	"racebank/pkg/logging"
	"racebank/pkg/simulator"
	"racebank/pkg/teller"
)

// Config fixes the knobs of one bank instance. Delay and overdraft policy
// are configured once so they stay consistent within every run.
type Config struct {
	InitialBalance decimal.Decimal

	// Delay is the executor's race-widening pause between computing a
	// new balance and committing it.
	Delay time.Duration

	// AllowOverdraft disables the insufficient-funds check on withdrawals.
	AllowOverdraft bool

	// Mode is the starting execution mode.
	Mode guard.Mode
}

// DefaultConfig mirrors the canonical demonstration scenario: an opening
// balance of 1000, a 50ms race window, overdraft protection on, and the
// protected mode as the safe default.
func DefaultConfig() Config {
	return Config{
		InitialBalance: decimal.NewFromInt(1000),
		Delay:          50 * time.Millisecond,
		AllowOverdraft: false,
		Mode:           guard.ModeProtected,
	}
}

// Stats tracks facade-level usage counters.
type Stats struct {
	mu               sync.RWMutex
	applied          int64
	rejected         int64
	runsExecuted     int64
	lostUpdatesTotal int64
}

// Info is the aggregate view rendered by the UI header and status bar.
type Info struct {
	Balance          decimal.Decimal
	InitialBalance   decimal.Decimal
	TransactionCount int64
	Mode             guard.Mode
	Delay            time.Duration
	AllowOverdraft   bool
	Applied          int64
	Rejected         int64
	RunsExecuted     int64
	LostUpdatesTotal int64
}

// Bank coordinates all simulation components.
type Bank struct {
	account  *account.Account
	guard    *guard.Controller
	executor *teller.Executor
	sim      *simulator.Simulator

	stats  Stats
	logger *slog.Logger
}

// New builds a bank from its configuration.
func New(cfg Config) (*Bank, error) {
	ctrl, err := guard.NewController(cfg.Mode)
	if err != nil {
		return nil, err
	}

	acc := account.New(cfg.InitialBalance)
	exec := teller.NewExecutor(acc, ctrl, cfg.Delay, cfg.AllowOverdraft)

	b := &Bank{
		account:  acc,
		guard:    ctrl,
		executor: exec,
		sim:      simulator.New(acc, ctrl, exec),
		logger:   logging.WithComponent("bank"),
	}
	b.logger.Info("bank opened",
		"balance", cfg.InitialBalance.String(),
		"mode", cfg.Mode.String(),
		"delay", cfg.Delay,
		"overdraft_allowed", cfg.AllowOverdraft)
	return b, nil
}

// Apply executes a single interactive transaction.
func (b *Bank) Apply(ctx context.Context, kind teller.Kind, amount decimal.Decimal) (teller.Outcome, error) {
	out, err := b.sim.Apply(ctx, kind, amount)

	b.stats.mu.Lock()
	if err != nil {
		b.stats.rejected++
	} else {
		b.stats.applied++
	}
	b.stats.mu.Unlock()
	return out, err
}

// Simulate launches a concurrent stress run and blocks until it settles.
func (b *Bank) Simulate(ctx context.Context, cfg simulator.RunConfig) (*simulator.Run, error) {
	run, err := b.sim.Run(ctx, cfg)
	if err != nil {
		return nil, err
	}

	b.stats.mu.Lock()
	b.stats.runsExecuted++
	b.stats.lostUpdatesTotal += run.LostUpdateCount
	b.stats.mu.Unlock()
	return run, nil
}

// Status reports balance, committed-write counter, and mode.
func (b *Bank) Status() simulator.Status {
	return b.sim.Status()
}

// Reset reinitializes the account for a fresh demonstration run.
func (b *Bank) Reset(initial decimal.Decimal) error {
	return b.sim.Reset(initial)
}

// SetMode switches the execution mode between runs.
func (b *Bank) SetMode(mode guard.Mode) error {
	return b.sim.SetMode(mode)
}

// Info returns the aggregate facade view.
func (b *Bank) Info() Info {
	st := b.sim.Status()

	b.stats.mu.RLock()
	defer b.stats.mu.RUnlock()
	return Info{
		Balance:          st.Balance,
		InitialBalance:   b.account.InitialBalance(),
		TransactionCount: st.TransactionCount,
		Mode:             st.Mode,
		Delay:            b.executor.Delay(),
		AllowOverdraft:   b.executor.AllowOverdraft(),
		Applied:          b.stats.applied,
		Rejected:         b.stats.rejected,
		RunsExecuted:     b.stats.runsExecuted,
		LostUpdatesTotal: b.stats.lostUpdatesTotal,
	}
}
