package scripting_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/rqgcombat/internal/game/ability"
	"github.com/cory-johannsen/rqgcombat/internal/scripting"
)

func TestRuleScript_NoHooksUsesFallback(t *testing.T) {
	rs, err := scripting.NewRuleScript(`local unused = 1`, ability.DefaultTable(), 0, zap.NewNop())
	require.NoError(t, err)
	defer rs.Close()

	table := ability.DefaultTable()
	assert.Empty(t, rs.Hooks())
	assert.Equal(t, table.Critical(65), rs.Critical(65))
	assert.Equal(t, table.Special(65), rs.Special(65))
	assert.Equal(t, table.Fumble(65), rs.Fumble(65))
}

func TestRuleScript_HookOverridesBand(t *testing.T) {
	src := `
		function fumble_band(chance)
			return math.floor((100 - chance) / 10)
		end
	`
	rs, err := scripting.NewRuleScript(src, ability.DefaultTable(), 0, zap.NewNop())
	require.NoError(t, err)
	defer rs.Close()

	assert.Equal(t, []string{scripting.FumbleHook}, rs.Hooks())
	assert.Equal(t, 3, rs.Fumble(65))
	assert.Equal(t, 3, rs.Critical(65))
}

func TestRuleScript_FailingHookFallsBackAndWarns(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	src := `
		function critical_band(chance) error("boom") end
		function special_band(chance) return "wide" end
	`
	rs, err := scripting.NewRuleScript(src, ability.DefaultTable(), 0, zap.New(core))
	require.NoError(t, err)
	defer rs.Close()

	assert.Equal(t, 3, rs.Critical(65))
	assert.Equal(t, 13, rs.Special(65))
	assert.Equal(t, 2, logs.Len())
}

func TestRuleScript_RunawayHookFallsBack(t *testing.T) {
	src := `function special_band(chance) while true do end end`
	rs, err := scripting.NewRuleScript(src, ability.DefaultTable(), 500, zap.NewNop())
	require.NoError(t, err)
	defer rs.Close()

	assert.Equal(t, 10, rs.Special(50))
}

func TestRuleScript_NegativeBandClampsToZero(t *testing.T) {
	rs, err := scripting.NewRuleScript(`function critical_band(c) return -4 end`, ability.DefaultTable(), 0, zap.NewNop())
	require.NoError(t, err)
	defer rs.Close()
	assert.Equal(t, 0, rs.Critical(90))
}

func TestRuleScript_SyntaxErrorFailsLoad(t *testing.T) {
	_, err := scripting.NewRuleScript(`function (`, ability.DefaultTable(), 0, zap.NewNop())
	assert.Error(t, err)
}

func TestLoadRuleScript_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.lua")
	require.NoError(t, os.WriteFile(path, []byte(`function special_band(c) return math.floor(c / 4) end`), 0o644))

	rs, err := scripting.LoadRuleScript(path, ability.DefaultTable(), 0, zap.NewNop())
	require.NoError(t, err)
	defer rs.Close()
	assert.Equal(t, 20, rs.Special(80))
}

func TestLoadRuleScript_MissingFile(t *testing.T) {
	_, err := scripting.LoadRuleScript(filepath.Join(t.TempDir(), "nope.lua"), ability.DefaultTable(), 0, zap.NewNop())
	assert.Error(t, err)
}

func TestRuleScript_DrivesChecker(t *testing.T) {
	rs, err := scripting.NewRuleScript(`function critical_band(c) return 10 end`, ability.DefaultTable(), 0, zap.NewNop())
	require.NoError(t, err)
	defer rs.Close()

	checker := ability.NewChecker(ability.DefaultTable(), rs)
	res := checker.Check(40, 0, 9)
	assert.Equal(t, ability.CriticalSuccess, res.Tier)
}

func TestProperty_RuleScriptMatchesEquivalentTable(t *testing.T) {
	src := `
		function critical_band(c) return math.floor(c / 20) end
		function special_band(c) return math.floor(c / 5) end
		function fumble_band(c) return math.floor((100 - c) / 20) end
	`
	rs, err := scripting.NewRuleScript(src, ability.DefaultTable(), 0, zap.NewNop())
	require.NoError(t, err)
	defer rs.Close()
	table := ability.DefaultTable()

	rapid.Check(t, func(t *rapid.T) {
		c := rapid.IntRange(0, 100).Draw(t, "chance")
		if rs.Critical(c) != table.Critical(c) || rs.Special(c) != table.Special(c) || rs.Fumble(c) != table.Fumble(c) {
			t.Fatalf("band mismatch at chance %d", c)
		}
	})
}
