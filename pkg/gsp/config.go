// Package gsp mines frequent sequential patterns from a windowed event database
// with the Generalized Sequential Pattern algorithm: level-wise candidate join,
// anti-monotone pruning and gap-constrained support counting.
package gsp

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidConfig is returned when mining parameters violate their preconditions
var ErrInvalidConfig = errors.New("invalid mining configuration")

// Constraints bound the time indices of a pattern occurrence inside a window
type Constraints struct {
	// MinGap and MaxGap bound the distance between consecutive matched itemsets, inclusive.
	MinGap int
	MaxGap int
	// WinSize bounds the distance from the first to the last matched itemset.
	// Nil means unconstrained.
	WinSize *int
}

// Validate checks the gap and window preconditions
func (c Constraints) Validate() error {
	if c.MinGap < 0 {
		return fmt.Errorf("%w: min_gap %d must be >= 0", ErrInvalidConfig, c.MinGap)
	}
	if c.MaxGap < c.MinGap {
		return fmt.Errorf("%w: max_gap %d must be >= min_gap %d", ErrInvalidConfig, c.MaxGap, c.MinGap)
	}
	if c.WinSize != nil && *c.WinSize < 0 {
		return fmt.Errorf("%w: win_size %d must be >= 0", ErrInvalidConfig, *c.WinSize)
	}
	return nil
}

// Config holds the parameters of a mining run
type Config struct {
	// MinSupPct is the minimum support in percent of windows, 0..100.
	MinSupPct float64
	Constraints
}

// Validate checks every parameter; nothing is clamped
func (c Config) Validate() error {
	if math.IsNaN(c.MinSupPct) || c.MinSupPct < 0 || c.MinSupPct > 100 {
		return fmt.Errorf("%w: min_sup_pct %v must be within [0, 100]", ErrInvalidConfig, c.MinSupPct)
	}
	return c.Constraints.Validate()
}

// MinSupportCount converts the support percentage into a window count for a database of
// dbSize windows, rounding any fractional excess up. A non-positive percentage yields 0.
func (c Config) MinSupportCount(dbSize int) int {
	if c.MinSupPct <= 0 {
		return 0
	}
	raw := c.MinSupPct / 100.0 * float64(dbSize)
	count := int(raw)
	if raw > float64(count) {
		count++
	}
	return count
}

// WinSize returns a pointer to size, for literal configs
func WinSize(size int) *int {
	return &size
}
