package runes_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/rqgcombat/internal/game/inventory"
	"github.com/cory-johannsen/rqgcombat/internal/game/runes"
	"github.com/cory-johannsen/rqgcombat/internal/notice"
)

func pair(air, earth int) *inventory.Actor {
	return &inventory.Actor{ID: "a", Name: "A", Runes: []inventory.Rune{
		{ID: "air", Name: "Air", Chance: air, OpposingRune: "earth"},
		{ID: "earth", Name: "Earth", Chance: earth, OpposingRune: "air"},
		{ID: "death", Name: "Death", Chance: 30},
		{ID: "truth", Name: "Truth", Chance: 30, OpposingRune: "illusion"},
	}}
}

func TestBalance_WritesOpposingComplement(t *testing.T) {
	a := pair(60, 40)
	ups, ns, err := runes.Balance(a, "air", 75)
	require.NoError(t, err)
	assert.Empty(t, ns)
	require.Len(t, ups, 2)
	assert.Equal(t, "air", ups[0].ItemID)
	assert.Equal(t, 75, *ups[0].Chance)
	assert.Equal(t, "earth", ups[1].ItemID)
	assert.Equal(t, 25, *ups[1].Chance)
	assert.Equal(t, 60, a.Runes[0].Chance, "balance must not mutate")
}

func TestBalance_NoCompensationWhenAlreadyBalanced(t *testing.T) {
	ups, _, err := runes.Balance(pair(60, 25), "air", 75)
	require.NoError(t, err)
	assert.Len(t, ups, 1)
}

func TestBalance_UnpairedRune(t *testing.T) {
	ups, ns, err := runes.Balance(pair(50, 50), "death", 45)
	require.NoError(t, err)
	assert.Len(t, ups, 1)
	assert.Empty(t, ns)
}

func TestBalance_MissingOpposingRuneWarns(t *testing.T) {
	ups, ns, err := runes.Balance(pair(50, 50), "truth", 45)
	require.NoError(t, err)
	assert.Len(t, ups, 1)
	require.Len(t, ns, 1)
	assert.Equal(t, notice.RuneMisconfigured, ns[0].Kind)
	assert.Equal(t, "illusion", ns[0].Param("opposing"))
}

func TestBalance_Errors(t *testing.T) {
	_, _, err := runes.Balance(pair(50, 50), "fire", 10)
	assert.ErrorIs(t, err, runes.ErrRuneNotFound)
	_, _, err = runes.Balance(pair(50, 50), "air", 101)
	assert.ErrorIs(t, err, runes.ErrInvalidChance)
}

func TestBalance_PairAlwaysSumsToTotal(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		a := pair(rapid.IntRange(0, 100).Draw(rt, "air"), rapid.IntRange(0, 100).Draw(rt, "earth"))
		chance := rapid.IntRange(0, 100).Draw(rt, "chance")
		ups, _, err := runes.Balance(a, "air", chance)
		if err != nil {
			rt.Fatal(err)
		}
		for _, u := range ups {
			if err := a.Apply(u); err != nil {
				rt.Fatal(err)
			}
		}
		if a.Runes[0].Chance+a.Runes[1].Chance != runes.PairTotal {
			rt.Fatalf("pair sums to %d", a.Runes[0].Chance+a.Runes[1].Chance)
		}
	})
}
