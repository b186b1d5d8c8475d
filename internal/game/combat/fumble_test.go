package combat_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/rqgcombat/internal/game/combat"
)

func TestLoadFumbleTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fumbles.yaml")
	content := `name: Melee Fumbles
roll: 1d20
entries:
  - {low: 1, high: 10, text: Lose next parry.}
  - {low: 11, high: 20, text: Weapon breaks.}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	table, err := combat.LoadFumbleTable(path)
	require.NoError(t, err)
	e, ok := table.Lookup(15)
	require.True(t, ok)
	assert.Equal(t, "Weapon breaks.", e.Text)
	_, ok = table.Lookup(21)
	assert.False(t, ok)
}

func TestNewFumbleTable_Validation(t *testing.T) {
	_, err := combat.NewFumbleTable("", "", []combat.FumbleEntry{{Low: 1, High: 2, Text: "x"}})
	assert.Error(t, err)
	_, err = combat.NewFumbleTable("t", "", nil)
	assert.Error(t, err)
	_, err = combat.NewFumbleTable("t", "", []combat.FumbleEntry{{Low: 5, High: 2, Text: "x"}})
	assert.Error(t, err)
	_, err = combat.NewFumbleTable("t", "2x", []combat.FumbleEntry{{Low: 1, High: 2, Text: "x"}})
	assert.Error(t, err)
	table, err := combat.NewFumbleTable("t", "", []combat.FumbleEntry{{Low: 1, High: 100, Text: "x"}})
	require.NoError(t, err)
	assert.Equal(t, "1d100", table.Roll)
}

func TestMemoryInstances_AdvanceChecksState(t *testing.T) {
	m := combat.NewMemoryInstances()
	ctx := t.Context()
	inst := combat.AttackInstance{ID: "a1", State: combat.StateRolled}
	require.NoError(t, m.Create(ctx, inst))
	assert.Error(t, m.Create(ctx, inst))

	inst.State = combat.StateDamagePending
	require.NoError(t, m.Advance(ctx, inst, combat.StateRolled))
	assert.ErrorIs(t, m.Advance(ctx, inst, combat.StateRolled), combat.ErrStaleState)

	_, err := m.Get(ctx, "zz")
	assert.ErrorIs(t, err, combat.ErrInstanceNotFound)
}

func TestState_RoundTrip(t *testing.T) {
	for s := combat.StateIdle; s <= combat.StateDamageResolved; s++ {
		got, err := combat.ParseState(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}
	_, err := combat.ParseState("bogus")
	assert.Error(t, err)
}
