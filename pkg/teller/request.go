package teller

import (
	"time"

	"github.com/shopspring/decimal"

	"racebank/pkg/bankerr"
)

// Kind identifies the direction of a transaction.
type Kind string

const (
	Deposit  Kind = "deposit"
	Withdraw Kind = "withdraw"
)

// ParseKind converts a string into a Kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case Deposit, Withdraw:
		return Kind(s), nil
	default:
		return "", bankerr.InvalidKind(s)
	}
}

// Valid reports whether k is a recognized kind.
func (k Kind) Valid() bool {
	return k == Deposit || k == Withdraw
}

func (k Kind) String() string {
	return string(k)
}

// Request is one teller's transaction against the shared account. It is
// ephemeral: created per call, discarded once its outcome is recorded.
type Request struct {
	// ActorID identifies the simulated teller issuing the request.
	// Display and log ordering only, never correctness.
	ActorID string
	Kind    Kind
	Amount  decimal.Decimal
}

// Outcome records what one executed request saw and did, with enough
// sequence information for the simulator to reconstruct interleavings.
type Outcome struct {
	Request Request

	// ReadBalance is the balance observed at the read step.
	ReadBalance decimal.Decimal

	// WrittenBalance is the balance committed at the write step.
	// Meaningless unless Committed is true.
	WrittenBalance decimal.Decimal

	// Committed reports whether the write step ran.
	Committed bool

	// ReadSeq and WriteSeq are markers from a shared atomic clock taken
	// at the read and write steps. Gaps between one teller's ReadSeq and
	// WriteSeq show exactly which other steps interleaved.
	ReadSeq  uint64
	WriteSeq uint64

	// At is the wall-clock start of the request.
	At time.Time

	// Err is the structured rejection, if any. Lost updates never
	// appear here: they are silent and only visible in the run report.
	Err error
}
