package damage

import (
	"errors"
	"fmt"

	"github.com/cory-johannsen/rqgcombat/internal/game/dice"
	"github.com/cory-johannsen/rqgcombat/internal/game/inventory"
	"github.com/cory-johannsen/rqgcombat/internal/notice"
)

var (
	// ErrNoSpecialDamage is returned when a special roll tier is requested
	// for a maneuver whose damage type cannot deal special damage.
	ErrNoSpecialDamage = errors.New("damage: maneuver has no special damage")
	// ErrInvalidFormula wraps a formula that does not parse.
	ErrInvalidFormula = errors.New("damage: invalid formula")
)

// Request carries everything Build needs about one attack.
type Request struct {
	WeaponName string
	// BaseFormula is the usage's damage formula; "" or "0" means no base term.
	BaseFormula string
	// DamageBonus is the attacker's damage bonus formula, possibly signed.
	DamageBonus string
	Maneuver    inventory.Maneuver
	// Siblings are the other maneuvers of the same usage, used to resolve parry.
	Siblings []inventory.Maneuver
	Usage    inventory.UsageType
	Thrown   bool
	Tier     RollTier
}

// Plan is an ordered, unresolved damage expression.
type Plan struct {
	Terms []Term
	// DamageType is the effective type after parry substitution.
	DamageType inventory.DamageType
	Notices    []notice.Notice
}

// Build composes the damage terms for req in order: weapon damage, then any
// special bonus, then the damage bonus.
//
// Postcondition: returns ErrNoSpecialDamage for special/none maneuvers with a
// special tier; a parry with no usable sibling yields a ManeuverMisconfigured
// notice and no special term.
func Build(req Request) (Plan, error) {
	plan := Plan{DamageType: req.Maneuver.DamageType}

	base, hasBase, err := parseBase(req.BaseFormula)
	if err != nil {
		return Plan{}, err
	}
	db, hasDB, err := adjustedBonus(req)
	if err != nil {
		return Plan{}, err
	}

	if hasBase {
		plan.Terms = append(plan.Terms, Term{Label: LabelWeapon, Expr: base, Sign: 1})
	}

	if req.Tier.IsSpecial() {
		dt := req.Maneuver.DamageType
		if dt == inventory.DamageParry {
			sub, ok := ParrySubstitute(req.Siblings)
			if !ok {
				plan.Notices = append(plan.Notices, notice.New(notice.ManeuverMisconfigured,
					"weapon", req.WeaponName, "maneuver", req.Maneuver.Name))
			}
			dt = sub
			plan.DamageType = sub
		}
		switch dt {
		case inventory.DamageSlash, inventory.DamageImpale:
			if hasBase {
				plan.Terms = append(plan.Terms, Term{Label: LabelSpecialBonus, Expr: base, Sign: 1})
			}
		case inventory.DamageCrush:
			if hasDB {
				crush := db
				crush.Label = LabelCrushBonus
				crush.ForceMax = true
				plan.Terms = append(plan.Terms, crush)
			}
		case inventory.DamageSpecial, inventory.DamageNone:
			return Plan{}, fmt.Errorf("%w: %q (%s) with %s roll", ErrNoSpecialDamage, req.Maneuver.Name, dt, req.Tier)
		}
	}

	if hasDB {
		plan.Terms = append(plan.Terms, db)
	}
	return plan, nil
}

// ParrySubstitute picks the damage type a parry deals from its sibling
// maneuvers, preferring crush, then slash, then impale. It returns the parry
// type itself and false when no sibling qualifies.
func ParrySubstitute(siblings []inventory.Maneuver) (inventory.DamageType, bool) {
	for _, want := range []inventory.DamageType{inventory.DamageCrush, inventory.DamageSlash, inventory.DamageImpale} {
		for _, m := range siblings {
			if m.DamageType == want {
				return want, true
			}
		}
	}
	return inventory.DamageParry, false
}

func parseBase(formula string) (dice.Expression, bool, error) {
	if formula == "" || formula == "0" {
		return dice.Expression{}, false, nil
	}
	expr, err := dice.Parse(formula)
	if err != nil {
		return dice.Expression{}, false, fmt.Errorf("%w: weapon damage %q: %v", ErrInvalidFormula, formula, err)
	}
	if expr.IsZero() {
		return dice.Expression{}, false, nil
	}
	return expr, true, nil
}

// adjustedBonus returns the damage bonus term after missile adjustments:
// thrown weapons halve it, launched projectiles drop it.
func adjustedBonus(req Request) (Term, bool, error) {
	sign, rest := splitSign(req.DamageBonus)
	if rest == "" || rest == "0" {
		return Term{}, false, nil
	}
	if req.Usage == inventory.UsageMissile && !req.Thrown {
		return Term{}, false, nil
	}
	expr, err := dice.Parse(rest)
	if err != nil {
		return Term{}, false, fmt.Errorf("%w: damage bonus %q: %v", ErrInvalidFormula, req.DamageBonus, err)
	}
	if expr.IsZero() {
		return Term{}, false, nil
	}
	return Term{
		Label: LabelDamageBonus,
		Expr:  expr,
		Sign:  sign,
		Halve: req.Usage == inventory.UsageMissile,
	}, true, nil
}
