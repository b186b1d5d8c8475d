package ability

import (
	"errors"
	"fmt"

	"github.com/cory-johannsen/rqgcombat/internal/game/dice"
)

// ErrInvalidChance is returned for a base chance outside [0, 100].
var ErrInvalidChance = errors.New("ability: chance must be within [0, 100]")

// Classify assigns the tier for a d100 roll against an effective chance.
//
// A roll of 1 is always critical and a roll of 100 always fumbles; between
// those, the best band containing roll wins.
//
// Precondition: 1 <= roll <= 100; bands must be non-nil.
// Postcondition: deterministic in (effective, roll); for fixed roll, a higher
// effective chance never yields a worse tier.
func Classify(effective, roll int, bands Bands) Tier {
	switch {
	case roll <= 1:
		return CriticalSuccess
	case roll >= 100:
		return Fumble
	case roll <= bands.Critical(effective):
		return CriticalSuccess
	case roll <= bands.Special(effective):
		return SpecialSuccess
	case roll <= effective:
		return Success
	case roll > 100-bands.Fumble(effective):
		return Fumble
	default:
		return Failure
	}
}

// Checker resolves checks against a rule table, optionally overridden by
// scripted bands.
type Checker struct {
	table Table
	bands Bands
}

// NewChecker returns a Checker using table for clamping and bands for thresholds.
// A nil bands falls back to table itself.
//
// Precondition: table.Validate() == nil.
func NewChecker(table Table, bands Bands) *Checker {
	if err := table.Validate(); err != nil {
		panic("ability: NewChecker: " + err.Error())
	}
	if bands == nil {
		bands = table
	}
	return &Checker{table: table, bands: bands}
}

// Resolve rolls 1d100 from src and classifies it against chance+modifier.
//
// Precondition: src must be non-nil.
// Postcondition: returns ErrInvalidChance without consuming randomness when
// chance is out of range; otherwise Result.Roll is in [1, 100].
func (c *Checker) Resolve(chance, modifier int, src dice.Source) (Result, error) {
	if chance < 0 || chance > 100 {
		return Result{}, fmt.Errorf("%w: got %d", ErrInvalidChance, chance)
	}
	roll := src.Intn(100) + 1
	return c.Check(chance, modifier, roll), nil
}

// Check classifies a known roll; it performs no randomness.
func (c *Checker) Check(chance, modifier, roll int) Result {
	eff := c.table.Effective(chance, modifier)
	return Result{
		Chance:    chance,
		Modifier:  modifier,
		Effective: eff,
		Roll:      roll,
		Tier:      Classify(eff, roll, c.bands),
	}
}
