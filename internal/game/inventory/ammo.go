package inventory

import "fmt"

// ConsumeStatus is the outcome of an ammunition consumption attempt.
type ConsumeStatus int

const (
	// ConsumeOK means one unit was taken.
	ConsumeOK ConsumeStatus = iota
	// ConsumeDepleted means the stock was already empty or missing; the
	// attack must be refused.
	ConsumeDepleted
	// ConsumeNotApplicable means the attack does not expend ammunition.
	ConsumeNotApplicable
)

func (s ConsumeStatus) String() string {
	switch s {
	case ConsumeOK:
		return "ok"
	case ConsumeDepleted:
		return "depleted"
	case ConsumeNotApplicable:
		return "not applicable"
	default:
		return fmt.Sprintf("ConsumeStatus(%d)", int(s))
	}
}

// Consumption records the intended effect of one Consume call.
//
// Invariant: After >= 0; After == Before-1 iff Status == ConsumeOK.
type Consumption struct {
	Status ConsumeStatus
	// ItemID is the stock item; empty when a launcher's projectile is missing.
	ItemID   string
	ItemName string
	Before   int
	After    int
	// LastUsed is set when this consumption emptied the stock.
	LastUsed bool
}

// Ledger decides ammunition consumption for missile attacks against a
// snapshot. It never writes; the store performs the decrement.
type Ledger struct{}

// Consume evaluates one attack's draw on its ammunition stock.
//
// Precondition: actor and weapon are non-nil and weapon belongs to actor.
// Postcondition: never mutates actor; ConsumeNotApplicable for non-missile
// usages and for parry/special maneuvers; ConsumeDepleted when the stock item
// is missing or at 0; otherwise ConsumeOK with After == Before-1.
func (Ledger) Consume(actor *Actor, weapon *Weapon, usage UsageType, dt DamageType) Consumption {
	if usage != UsageMissile || !dt.ExpendsAmmo() {
		return Consumption{Status: ConsumeNotApplicable}
	}
	stock, ok := actor.Weapon(weapon.AmmoSourceID())
	if !ok {
		return Consumption{Status: ConsumeDepleted}
	}
	c := Consumption{ItemID: stock.ID, ItemName: stock.Name, Before: stock.Quantity}
	if stock.Quantity <= 0 {
		c.Status = ConsumeDepleted
		c.After = 0
		return c
	}
	c.Status = ConsumeOK
	c.After = stock.Quantity - 1
	c.LastUsed = c.After == 0
	return c
}
