package scripting_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/rqgcombat/internal/scripting"
)

func TestNewSandboxedState_UnsafeLibsNil(t *testing.T) {
	L := scripting.NewSandboxedState()
	require.NotNil(t, L)
	defer L.Close()
	for _, name := range []string{"os", "io", "debug"} {
		assert.Equal(t, lua.LNil, L.GetGlobal(name), "expected %s to be nil", name)
	}
}

func TestNewSandboxedState_DangerousGlobalsNil(t *testing.T) {
	L := scripting.NewSandboxedState()
	defer L.Close()
	for _, name := range []string{"dofile", "loadfile", "load", "collectgarbage", "require"} {
		assert.Equal(t, lua.LNil, L.GetGlobal(name), "expected %s to be nil", name)
	}
}

func TestNewSandboxedState_SafeLibsAvailable(t *testing.T) {
	L := scripting.NewSandboxedState()
	defer L.Close()
	err := scripting.Limited(L, 0, func() error {
		return L.DoString(`
			local x = math.floor(7 / 2)
			assert(x == 3, "math.floor failed")
			local s = string.upper("hello")
			assert(s == "HELLO", "string.upper failed")
		`)
	})
	assert.NoError(t, err)
}

func TestLimited_InstructionLimitExceeded(t *testing.T) {
	L := scripting.NewSandboxedState()
	defer L.Close()
	err := scripting.Limited(L, 10, func() error { return L.DoString(`while true do end`) })
	assert.Error(t, err)
}

func TestLimited_BudgetIsPerCall(t *testing.T) {
	L := scripting.NewSandboxedState()
	defer L.Close()
	for i := 0; i < 50; i++ {
		err := scripting.Limited(L, 200, func() error { return L.DoString(`local x = 0 for i = 1, 10 do x = x + i end`) })
		require.NoError(t, err, "call %d", i)
	}
}

func TestRegisterModules_DiceBounds(t *testing.T) {
	L := scripting.NewSandboxedState()
	defer L.Close()
	scripting.RegisterModules(L, zap.NewNop())
	err := scripting.Limited(L, 0, func() error {
		return L.DoString(`
			assert(engine.dice.max("2d6+1") == 13)
			assert(engine.dice.min("2d6+1") == 3)
			engine.log("ok")
		`)
	})
	assert.NoError(t, err)
}

func TestRegisterModules_BadExpressionRaises(t *testing.T) {
	L := scripting.NewSandboxedState()
	defer L.Close()
	scripting.RegisterModules(L, zap.NewNop())
	err := scripting.Limited(L, 0, func() error { return L.DoString(`engine.dice.max("banana")`) })
	assert.Error(t, err)
}

func TestProperty_InstructionLimitAlwaysErrors(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		limit := rapid.IntRange(1, 50).Draw(t, "limit")
		L := scripting.NewSandboxedState()
		defer L.Close()
		err := scripting.Limited(L, limit, func() error { return L.DoString(`while true do end`) })
		if err == nil {
			t.Fatalf("expected error with limit=%d but got nil", limit)
		}
	})
}
