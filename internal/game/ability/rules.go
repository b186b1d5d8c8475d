package ability

import (
	"errors"
	"fmt"
)

// Bands decides the tier thresholds for an effective chance.
//
// Critical and Special return the highest roll that still earns that tier.
// Fumble returns how many of the top rolls (counting down from 100) fumble.
type Bands interface {
	Critical(chance int) int
	Special(chance int) int
	Fumble(chance int) int
}

// Table is the default rule table: each band is floor(x / divisor).
//
// Invariant: all divisors are > 0.
type Table struct {
	CriticalDivisor int `mapstructure:"critical_divisor" yaml:"critical_divisor"`
	SpecialDivisor  int `mapstructure:"special_divisor" yaml:"special_divisor"`
	FumbleDivisor   int `mapstructure:"fumble_divisor" yaml:"fumble_divisor"`
	// Unclamped lets the effective chance leave [0, 100] so that very high
	// or very low chances widen or close the edge bands.
	Unclamped bool `mapstructure:"unclamped" yaml:"unclamped"`
}

// DefaultTable returns the standard 1/20 critical, 1/5 special, 1/20 fumble table.
func DefaultTable() Table {
	return Table{CriticalDivisor: 20, SpecialDivisor: 5, FumbleDivisor: 20}
}

// Validate checks that every divisor is positive.
func (t Table) Validate() error {
	var errs []error
	if t.CriticalDivisor <= 0 {
		errs = append(errs, fmt.Errorf("critical_divisor must be > 0, got %d", t.CriticalDivisor))
	}
	if t.SpecialDivisor <= 0 {
		errs = append(errs, fmt.Errorf("special_divisor must be > 0, got %d", t.SpecialDivisor))
	}
	if t.FumbleDivisor <= 0 {
		errs = append(errs, fmt.Errorf("fumble_divisor must be > 0, got %d", t.FumbleDivisor))
	}
	return errors.Join(errs...)
}

// Critical returns floor(chance / CriticalDivisor), never negative.
func (t Table) Critical(chance int) int { return floorDiv(chance, t.CriticalDivisor) }

// Special returns floor(chance / SpecialDivisor), never negative.
func (t Table) Special(chance int) int { return floorDiv(chance, t.SpecialDivisor) }

// Fumble returns floor((100 - chance) / FumbleDivisor), never negative.
func (t Table) Fumble(chance int) int { return floorDiv(100-chance, t.FumbleDivisor) }

// Effective applies modifier to chance and clamps to [0, 100] unless Unclamped.
func (t Table) Effective(chance, modifier int) int {
	c := chance + modifier
	if t.Unclamped {
		return c
	}
	return max(0, min(100, c))
}

func floorDiv(n, d int) int {
	if n <= 0 {
		return 0
	}
	return n / d
}
