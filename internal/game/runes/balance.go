// Package runes keeps paired opposing rune chances consistent.
package runes

import (
	"errors"
	"fmt"

	"github.com/cory-johannsen/rqgcombat/internal/game/inventory"
	"github.com/cory-johannsen/rqgcombat/internal/notice"
)

// PairTotal is the sum an opposing rune pair is expected to have.
const PairTotal = 100

var (
	ErrRuneNotFound  = errors.New("runes: rune not found")
	ErrInvalidChance = errors.New("runes: chance must be within [0, 100]")
)

// Balance computes the writes that set runeID to chance and keep its
// opposing rune at PairTotal-chance. It does not modify a.
//
// Postcondition: the first update always sets runeID itself. A compensating
// update follows only when the pair would not sum to PairTotal. An opposing
// rune named but not owned yields a RuneMisconfigured notice and no
// compensating write.
func Balance(a *inventory.Actor, runeID string, chance int) ([]inventory.ItemUpdate, []notice.Notice, error) {
	if chance < 0 || chance > PairTotal {
		return nil, nil, fmt.Errorf("%w: got %d", ErrInvalidChance, chance)
	}
	r, ok := a.Rune(runeID)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %q on actor %q", ErrRuneNotFound, runeID, a.ID)
	}
	updates := []inventory.ItemUpdate{{ItemID: r.ID, Chance: &chance}}
	if r.OpposingRune == "" {
		return updates, nil, nil
	}
	opp, ok := a.Rune(r.OpposingRune)
	if !ok {
		return updates, []notice.Notice{notice.New(notice.RuneMisconfigured, "rune", r.Name, "opposing", r.OpposingRune)}, nil
	}
	if chance+opp.Chance != PairTotal {
		rest := PairTotal - chance
		updates = append(updates, inventory.ItemUpdate{ItemID: opp.ID, Chance: &rest})
	}
	return updates, nil, nil
}
