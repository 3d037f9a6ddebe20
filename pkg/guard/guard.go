// Package guard implements the lock controller: one process-wide mutex and
// the switch that decides whether transactions run through it.
package guard

import (
	"sync"

	"racebank/pkg/bankerr"
)

// Mode selects how the controller brackets critical sections.
type Mode string

const (
	// ModeUnsafe runs critical sections with no synchronization at all,
	// allowing arbitrary interleavings between tellers.
	ModeUnsafe Mode = "unsafe"

	// ModeProtected serializes critical sections through the single
	// process-wide mutex.
	ModeProtected Mode = "protected"
)

// ParseMode converts a string into a Mode, rejecting anything that is not
// exactly "unsafe" or "protected".
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeUnsafe, ModeProtected:
		return Mode(s), nil
	default:
		return "", bankerr.InvalidMode(s)
	}
}

// Valid reports whether m is a recognized mode.
func (m Mode) Valid() bool {
	return m == ModeUnsafe || m == ModeProtected
}

func (m Mode) String() string {
	return string(m)
}

// Controller gates every balance mutation in the process. There is exactly
// one mutex and it is never sharded: the pedagogical goal is one contended
// resource with one choke point.
type Controller struct {
	// mu is the process-wide mutual-exclusion lock.
	mu sync.Mutex

	// modeMu only protects the mode switch itself, not the account.
	modeMu sync.RWMutex
	mode   Mode
}

// NewController creates a controller starting in the given mode.
func NewController(mode Mode) (*Controller, error) {
	if !mode.Valid() {
		return nil, bankerr.InvalidMode(string(mode))
	}
	return &Controller{mode: mode}, nil
}

// Mode returns the currently selected execution mode.
func (c *Controller) Mode() Mode {
	c.modeMu.RLock()
	defer c.modeMu.RUnlock()
	return c.mode
}

// SetMode switches between unsafe and protected execution. Callers that
// drive concurrent runs must not switch modes mid-run; the simulator
// enforces that a run's mode is fixed for its whole duration.
func (c *Controller) SetMode(mode Mode) error {
	if !mode.Valid() {
		return bankerr.InvalidMode(string(mode))
	}
	c.modeMu.Lock()
	defer c.modeMu.Unlock()
	c.mode = mode
	return nil
}

// Do runs fn as a critical section. In protected mode the process-wide
// mutex is held for the duration of fn and released on every exit path,
// guaranteeing at most one concurrent invocation system-wide. In unsafe
// mode fn runs directly with no synchronization.
func (c *Controller) Do(fn func() error) error {
	if c.Mode() == ModeProtected {
		c.mu.Lock()
		defer c.mu.Unlock()
	}
	return fn()
}
