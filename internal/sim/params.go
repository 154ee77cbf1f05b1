package sim

import (
	"fmt"
	"runtime"
)

// Params are the simulation parameters for a run.
type Params struct {
	// Iterations is the number of independent trials requested.
	Iterations int

	// HandSize is the opening hand size.
	HandSize int

	// MinLands and MaxLands drive the default keep rule: keep when the
	// opening hand's land count falls inside [MinLands, MaxLands].
	MinLands int
	MaxLands int

	// MaxMulligans caps mulligans per trial; reaching it forces a keep.
	MaxMulligans int

	// OnThePlay skips the turn-1 draw.
	OnThePlay bool

	// MaxTurn is the last turn simulated and reported.
	MaxTurn int

	// Seed makes runs reproducible. Zero picks a random seed.
	Seed int64

	// TargetDeckSize drives the deck-size invariant check (0 disables).
	TargetDeckSize int

	// Workers is the number of concurrent trial workers (0 = NumCPU).
	Workers int

	// BatchSize is the number of trials dispatched to a worker at once.
	// Results are independent of batch size and worker count.
	BatchSize int
}

// DefaultParams returns the stock simulation parameters: a Commander deck
// checked over eight turns at 20k iterations.
func DefaultParams() Params {
	return Params{
		Iterations:     20000,
		HandSize:       7,
		MinLands:       2,
		MaxLands:       5,
		MaxMulligans:   3,
		MaxTurn:        8,
		TargetDeckSize: 100,
		BatchSize:      256,
	}
}

// Validate reports configuration errors. Called before any trial runs.
func (p Params) Validate() error {
	if p.Iterations <= 0 {
		return fmt.Errorf("iterations must be positive, got %d", p.Iterations)
	}
	if p.HandSize <= 0 {
		return fmt.Errorf("hand size must be positive, got %d", p.HandSize)
	}
	if p.MaxTurn <= 0 {
		return fmt.Errorf("max turn must be positive, got %d", p.MaxTurn)
	}
	if p.MaxMulligans < 0 {
		return fmt.Errorf("max mulligans must be non-negative, got %d", p.MaxMulligans)
	}
	if p.MinLands < 0 || p.MaxLands < p.MinLands {
		return fmt.Errorf("land thresholds invalid: min %d, max %d", p.MinLands, p.MaxLands)
	}
	if p.MaxMulligans >= p.HandSize {
		return fmt.Errorf("max mulligans %d must stay below hand size %d", p.MaxMulligans, p.HandSize)
	}
	if p.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", p.Workers)
	}
	if p.BatchSize < 0 {
		return fmt.Errorf("batch size must be non-negative, got %d", p.BatchSize)
	}
	return nil
}

// normalized fills in derived defaults.
func (p Params) normalized() Params {
	if p.Workers == 0 {
		p.Workers = runtime.NumCPU()
	}
	if p.BatchSize == 0 {
		p.BatchSize = 256
	}
	return p
}
