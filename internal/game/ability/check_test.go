package ability_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/rqgcombat/internal/game/ability"
)

type fixedSrc struct{ val int }

func (f fixedSrc) Intn(n int) int {
	if f.val >= n {
		return n - 1
	}
	return f.val
}

func TestClassify_Table(t *testing.T) {
	table := ability.DefaultTable()
	cases := []struct {
		name   string
		chance int
		roll   int
		want   ability.Tier
	}{
		{"one always critical at zero chance", 0, 1, ability.CriticalSuccess},
		{"hundred always fumbles at full chance", 100, 100, ability.Fumble},
		{"critical band 60", 60, 3, ability.CriticalSuccess},
		{"special band 60", 60, 12, ability.SpecialSuccess},
		{"success 60", 60, 60, ability.Success},
		{"failure 60", 60, 61, ability.Failure},
		{"fumble band 60", 60, 99, ability.Fumble},
		{"just below fumble band 60", 60, 98, ability.Failure},
		{"zero chance failure", 0, 50, ability.Failure},
		{"zero chance fumble band", 0, 96, ability.Fumble},
		{"zero chance just outside fumble band", 0, 95, ability.Failure},
		{"full chance high roll succeeds", 100, 99, ability.Success},
		{"low chance no critical band", 10, 2, ability.SpecialSuccess},
		{"chance four has neither band", 4, 2, ability.Success},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ability.Classify(tc.chance, tc.roll, table))
		})
	}
}

func TestChecker_ClampsModifier(t *testing.T) {
	c := ability.NewChecker(ability.DefaultTable(), nil)
	res := c.Check(90, 40, 50)
	assert.Equal(t, 100, res.Effective)
	assert.Equal(t, ability.Success, res.Tier)

	res = c.Check(10, -40, 50)
	assert.Equal(t, 0, res.Effective)
	assert.Equal(t, ability.Failure, res.Tier)
}

func TestChecker_Unclamped(t *testing.T) {
	table := ability.DefaultTable()
	table.Unclamped = true
	c := ability.NewChecker(table, nil)
	res := c.Check(100, 40, 7)
	assert.Equal(t, 140, res.Effective)
	assert.Equal(t, ability.CriticalSuccess, res.Tier)
}

func TestChecker_Resolve_UsesSource(t *testing.T) {
	c := ability.NewChecker(ability.DefaultTable(), nil)
	res, err := c.Resolve(50, 0, fixedSrc{val: 0})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Roll)
	assert.Equal(t, ability.CriticalSuccess, res.Tier)

	res, err = c.Resolve(50, 0, fixedSrc{val: 99})
	require.NoError(t, err)
	assert.Equal(t, 100, res.Roll)
	assert.Equal(t, ability.Fumble, res.Tier)
}

func TestChecker_Resolve_RejectsOutOfRangeChance(t *testing.T) {
	c := ability.NewChecker(ability.DefaultTable(), nil)
	_, err := c.Resolve(101, 0, fixedSrc{})
	assert.ErrorIs(t, err, ability.ErrInvalidChance)
	_, err = c.Resolve(-1, 0, fixedSrc{})
	assert.ErrorIs(t, err, ability.ErrInvalidChance)
}

func TestNewChecker_PanicsOnZeroDivisor(t *testing.T) {
	assert.Panics(t, func() {
		ability.NewChecker(ability.Table{CriticalDivisor: 20, SpecialDivisor: 0, FumbleDivisor: 20}, nil)
	})
}

type stubBands struct{ crit, special, fumble int }

func (s stubBands) Critical(int) int { return s.crit }
func (s stubBands) Special(int) int  { return s.special }
func (s stubBands) Fumble(int) int   { return s.fumble }

func TestChecker_CustomBands(t *testing.T) {
	c := ability.NewChecker(ability.DefaultTable(), stubBands{crit: 10, special: 30, fumble: 10})
	assert.Equal(t, ability.CriticalSuccess, c.Check(50, 0, 10).Tier)
	assert.Equal(t, ability.SpecialSuccess, c.Check(50, 0, 30).Tier)
	assert.Equal(t, ability.Fumble, c.Check(50, 0, 91).Tier)
}

func TestTier_Ordering(t *testing.T) {
	assert.True(t, ability.CriticalSuccess.BetterThan(ability.SpecialSuccess))
	assert.True(t, ability.Success.IsSuccess())
	assert.False(t, ability.Failure.IsSuccess())
	got, err := ability.ParseTier("special success")
	require.NoError(t, err)
	assert.Equal(t, ability.SpecialSuccess, got)
	_, err = ability.ParseTier("great")
	assert.Error(t, err)
}

func TestClassify_Deterministic(t *testing.T) {
	table := ability.DefaultTable()
	rapid.Check(t, func(rt *rapid.T) {
		chance := rapid.IntRange(0, 100).Draw(rt, "chance")
		roll := rapid.IntRange(1, 100).Draw(rt, "roll")
		assert.Equal(rt, ability.Classify(chance, roll, table), ability.Classify(chance, roll, table))
	})
}

func TestClassify_MonotoneInChance(t *testing.T) {
	table := ability.DefaultTable()
	rapid.Check(t, func(rt *rapid.T) {
		lo := rapid.IntRange(0, 100).Draw(rt, "lo")
		hi := rapid.IntRange(lo, 100).Draw(rt, "hi")
		roll := rapid.IntRange(1, 100).Draw(rt, "roll")
		a := ability.Classify(lo, roll, table)
		b := ability.Classify(hi, roll, table)
		if a.BetterThan(b) {
			rt.Fatalf("chance %d gave %v but higher chance %d gave worse %v at roll %d", lo, a, hi, b, roll)
		}
	})
}

func TestClassify_EdgeRollsFixed(t *testing.T) {
	table := ability.DefaultTable()
	rapid.Check(t, func(rt *rapid.T) {
		chance := rapid.IntRange(0, 100).Draw(rt, "chance")
		assert.Equal(rt, ability.CriticalSuccess, ability.Classify(chance, 1, table))
		assert.Equal(rt, ability.Fumble, ability.Classify(chance, 100, table))
	})
}
