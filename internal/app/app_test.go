package app_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cory-johannsen/rqgcombat/internal/app"
	"github.com/cory-johannsen/rqgcombat/internal/config"
	"github.com/cory-johannsen/rqgcombat/internal/game/ability"
	"github.com/cory-johannsen/rqgcombat/internal/game/combat"
	"github.com/cory-johannsen/rqgcombat/internal/game/inventory"
	"github.com/cory-johannsen/rqgcombat/internal/notice"
)

const actorYAML = `
id: harrek
name: Harrek
damage_bonus: "+1d4"
weapons:
  - id: maul
    name: Maul
    quantity: 1
    usages:
      two-hand:
        skill: maul-skill
        damage: "2d8"
        maneuvers:
          - name: crush
            damage_type: crush
  - id: javelin
    name: Javelin
    quantity: 1
    thrown_weapon: true
    usages:
      missile:
        skill: javelin-skill
        damage: "1d10"
        maneuvers:
          - name: impale
            damage_type: impale
skills:
  - id: javelin-skill
    name: Javelin
    chance: 50
  - id: maul-skill
    name: Maul
    chance: 80
`

const maneuversYAML = `
crush:
  damage_type: crush
  description: A bone-breaking blow.
`

const fumblesYAML = `
name: Melee Fumbles
roll: 1d100
entries:
  - {low: 1, high: 100, text: "Drop your weapon."}
`

// fixedSrc always returns the same value.
type fixedSrc struct{ v int }

func (f fixedSrc) Intn(n int) int {
	if f.v >= n {
		return n - 1
	}
	return f.v
}

func contentConfig(t *testing.T) config.Config {
	t.Helper()
	dir := t.TempDir()
	actors := filepath.Join(dir, "actors")
	require.NoError(t, os.MkdirAll(actors, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(actors, "harrek.yaml"), []byte(actorYAML), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "maneuvers.yaml"), []byte(maneuversYAML), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fumbles.yaml"), []byte(fumblesYAML), 0o644))

	cfg, err := config.LoadFromViper(config.Defaults())
	require.NoError(t, err)
	cfg.Content.ActorsDir = actors
	cfg.Content.ManeuversFile = filepath.Join(dir, "maneuvers.yaml")
	cfg.Content.FumbleTable = filepath.Join(dir, "fumbles.yaml")
	return cfg
}

func TestBuild_MemoryDriverResolvesAttack(t *testing.T) {
	cfg := contentConfig(t)
	a, err := app.Build(context.Background(), cfg, zap.NewNop(), app.WithSource(fixedSrc{v: 40}))
	require.NoError(t, err)
	defer a.Close()

	assert.Nil(t, a.Pool)
	res, err := a.Engine.ResolveAttack(context.Background(), combat.AttackRequest{
		ActorID: "harrek", WeaponID: "maul", Usage: inventory.UsageTwoHand, Maneuver: "crush",
	})
	require.NoError(t, err)
	assert.Equal(t, 41, res.Roll)
	assert.Equal(t, ability.Success, res.Tier)
	assert.Equal(t, "A bone-breaking blow.", res.SpecialDescription)
}

func TestBuild_RuleScriptOverridesBands(t *testing.T) {
	cfg := contentConfig(t)
	script := filepath.Join(t.TempDir(), "rules.lua")
	require.NoError(t, os.WriteFile(script, []byte(`function critical_band(c) return 50 end`), 0o644))
	cfg.Rules.Script = script

	a, err := app.Build(context.Background(), cfg, zap.NewNop(), app.WithSource(fixedSrc{v: 40}))
	require.NoError(t, err)
	defer a.Close()

	res, err := a.Engine.ResolveAttack(context.Background(), combat.AttackRequest{
		ActorID: "harrek", WeaponID: "maul", Usage: inventory.UsageTwoHand, Maneuver: "crush",
	})
	require.NoError(t, err)
	assert.Equal(t, ability.CriticalSuccess, res.Tier)
}

func TestBuild_SinkReceivesNotices(t *testing.T) {
	cfg := contentConfig(t)
	var got notice.Collector
	a, err := app.Build(context.Background(), cfg, zap.NewNop(), app.WithSource(fixedSrc{v: 40}), app.WithSink(&got))
	require.NoError(t, err)
	defer a.Close()

	req := combat.AttackRequest{ActorID: "harrek", WeaponID: "javelin", Usage: inventory.UsageMissile, Maneuver: "impale"}
	first, err := a.Engine.ResolveAttack(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, first.Refused)

	second, err := a.Engine.ResolveAttack(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, second.Refused)

	kinds := make([]notice.Kind, 0, 2)
	for _, n := range got.Notices() {
		kinds = append(kinds, n.Kind)
	}
	assert.Equal(t, []notice.Kind{notice.LastAmmoUsed, notice.OutOfAmmo}, kinds)
	assert.Equal(t, "That was the last Javelin for Javelin.", a.Printer.Render(a.Locale, got.Notices()[0]))
}

func TestBuild_MissingManeuversFails(t *testing.T) {
	cfg := contentConfig(t)
	cfg.Content.ManeuversFile = filepath.Join(t.TempDir(), "nope.yaml")
	_, err := app.Build(context.Background(), cfg, zap.NewNop())
	assert.Error(t, err)
}

func TestBuild_BadScriptFails(t *testing.T) {
	cfg := contentConfig(t)
	script := filepath.Join(t.TempDir(), "rules.lua")
	require.NoError(t, os.WriteFile(script, []byte(`function (`), 0o644))
	cfg.Rules.Script = script
	_, err := app.Build(context.Background(), cfg, zap.NewNop())
	assert.Error(t, err)
}

func TestBuild_ShippedContent(t *testing.T) {
	cfg, err := config.Load("../../configs/dev.yaml")
	require.NoError(t, err)
	cfg.Content.ActorsDir = "../../content/actors"
	cfg.Content.ManeuversFile = "../../content/maneuvers.yaml"
	cfg.Content.FumbleTable = "../../content/fumbles.yaml"
	cfg.Rules.Script = "../../content/scripts/rules.lua"

	a, err := app.Build(context.Background(), cfg, zap.NewNop(), app.WithSource(fixedSrc{v: 40}))
	require.NoError(t, err)
	defer a.Close()

	res, err := a.Engine.ResolveAttack(context.Background(), combat.AttackRequest{
		ActorID: "vasana", WeaponID: "broadsword", Usage: inventory.UsageOneHand, Maneuver: "slash",
	})
	require.NoError(t, err)
	assert.Equal(t, 85, res.Chance)
	assert.Equal(t, ability.Success, res.Tier)
	assert.Empty(t, res.Notices)
}
