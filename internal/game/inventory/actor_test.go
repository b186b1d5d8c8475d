package inventory_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/rqgcombat/internal/game/inventory"
)

func intp(v int) *int    { return &v }
func boolp(v bool) *bool { return &v }

func warrior() *inventory.Actor {
	return &inventory.Actor{
		ID: "vasana", Name: "Vasana", DamageBonus: "+1d4",
		Weapons: []inventory.Weapon{{
			ID: "broadsword", Name: "Broadsword", Quantity: 1,
			Usages: map[inventory.UsageType]inventory.Usage{
				inventory.UsageOneHand: {SkillID: "sword", Damage: "1d8+1", Maneuvers: []inventory.Maneuver{
					{Name: "slash", DamageType: inventory.DamageSlash},
					{Name: "parry", DamageType: inventory.DamageParry},
				}},
			},
		}},
		Skills:       []inventory.Skill{{ID: "sword", Name: "Broadsword", Chance: 75}},
		Runes:        []inventory.Rune{{ID: "air", Name: "Air", Chance: 80, OpposingRune: "earth"}, {ID: "earth", Name: "Earth", Chance: 20, OpposingRune: "air"}},
		HitLocations: []inventory.HitLocation{{ID: "leg", Name: "Right Leg", AP: 2, Low: 1, High: 4}, {ID: "head", Name: "Head", AP: 5, Low: 19, High: 20}},
	}
}

func TestActor_Validate_AcceptsWarrior(t *testing.T) {
	require.NoError(t, warrior().Validate())
}

func TestActor_Validate_RejectsBadReferences(t *testing.T) {
	a := warrior()
	a.Skills = nil
	a.Runes = append(a.Runes, inventory.Rune{ID: "air", Name: "Dup", Chance: 150})
	err := a.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown skill")
	assert.Contains(t, err.Error(), "duplicate item ID")
	assert.Contains(t, err.Error(), "within [0, 100]")
}

func TestActor_Ability_ReturnsSkillOrRune(t *testing.T) {
	a := warrior()
	s, ok := a.Ability("sword")
	require.True(t, ok)
	assert.Equal(t, 75, s.BaseChance())
	r, ok := a.Ability("earth")
	require.True(t, ok)
	assert.Equal(t, "Earth", r.AbilityName())
	_, ok = a.Ability("broadsword")
	assert.False(t, ok, "weapons carry no chance of their own")
}

func TestActor_Apply(t *testing.T) {
	a := warrior()
	require.NoError(t, a.Apply(inventory.ItemUpdate{ItemID: "sword", HasExperience: boolp(true), Chance: intp(76)}))
	s, _ := a.Skill("sword")
	assert.True(t, s.HasExperience)
	assert.Equal(t, 76, s.Chance)

	require.NoError(t, a.Apply(inventory.ItemUpdate{ItemID: "broadsword", Quantity: intp(0)}))
	w, _ := a.Weapon("broadsword")
	assert.Equal(t, 0, w.Quantity)

	assert.Error(t, a.Apply(inventory.ItemUpdate{ItemID: "broadsword", Quantity: intp(-1)}))
	assert.Error(t, a.Apply(inventory.ItemUpdate{ItemID: "sword", Quantity: intp(3)}))
	assert.ErrorIs(t, a.Apply(inventory.ItemUpdate{ItemID: "nope", Chance: intp(1)}), inventory.ErrItemNotFound)
}

func TestActor_Clone_IsIndependent(t *testing.T) {
	a := warrior()
	c := a.Clone()
	c.Skills[0].Chance = 5
	c.Weapons[0].Usages[inventory.UsageOneHand] = inventory.Usage{}
	assert.Equal(t, 75, a.Skills[0].Chance)
	assert.Len(t, a.Weapons[0].Usages[inventory.UsageOneHand].Maneuvers, 2)
}

func TestActor_HitLocationFor(t *testing.T) {
	a := warrior()
	h, ok := a.HitLocationFor(20)
	require.True(t, ok)
	assert.Equal(t, "Head", h.Name)
	_, ok = a.HitLocationFor(10)
	assert.False(t, ok)
}

func TestActor_RemoveEffects(t *testing.T) {
	a := warrior()
	a.Effects = []inventory.ActiveEffect{{ID: "e1"}, {ID: "e2"}, {ID: "e3"}}
	assert.Equal(t, 2, a.RemoveEffects([]string{"e1", "e3", "missing"}))
	require.Len(t, a.Effects, 1)
	assert.Equal(t, "e2", a.Effects[0].ID)
}
