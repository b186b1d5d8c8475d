package scripting

import (
	"fmt"
	"os"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/rqgcombat/internal/game/ability"
)

// Band hook names a rule script may define. Each receives the effective
// chance and returns the width of the band.
const (
	CriticalHook = "critical_band"
	SpecialHook  = "special_band"
	FumbleHook   = "fumble_band"
)

// RuleScript implements ability.Bands by calling Lua hooks, deferring to a
// fallback for any hook the script does not define or that fails.
//
// RuleScript is safe for concurrent use; calls into the VM are serialized.
type RuleScript struct {
	mu       sync.Mutex
	L        *lua.LState
	limit    int
	fallback ability.Bands
	logger   *zap.Logger
	path     string
}

var _ ability.Bands = (*RuleScript)(nil)

// LoadRuleScript reads and executes the script at path in a fresh sandbox.
//
// Precondition: fallback and logger must be non-nil; limit <= 0 uses
// DefaultInstructionLimit.
// Postcondition: Returns a ready RuleScript or an error; the caller must
// Close the script when done.
func LoadRuleScript(path string, fallback ability.Bands, limit int, logger *zap.Logger) (*RuleScript, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rule script %s: %w", path, err)
	}
	rs, err := NewRuleScript(string(src), fallback, limit, logger)
	if err != nil {
		return nil, fmt.Errorf("loading rule script %s: %w", path, err)
	}
	rs.path = path
	return rs, nil
}

// NewRuleScript executes src in a fresh sandbox and returns the resulting
// RuleScript.
func NewRuleScript(src string, fallback ability.Bands, limit int, logger *zap.Logger) (*RuleScript, error) {
	if fallback == nil {
		panic("scripting.NewRuleScript: fallback must not be nil")
	}
	if logger == nil {
		panic("scripting.NewRuleScript: logger must not be nil")
	}
	L := NewSandboxedState()
	RegisterModules(L, logger)
	if err := Limited(L, limit, func() error { return L.DoString(src) }); err != nil {
		L.Close()
		return nil, err
	}
	return &RuleScript{L: L, limit: limit, fallback: fallback, logger: logger, path: "<inline>"}, nil
}

// Hooks reports which band hooks the script defines.
func (r *RuleScript) Hooks() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, name := range []string{CriticalHook, SpecialHook, FumbleHook} {
		if _, ok := r.L.GetGlobal(name).(*lua.LFunction); ok {
			out = append(out, name)
		}
	}
	return out
}

// Critical returns the critical band for chance.
func (r *RuleScript) Critical(chance int) int {
	return r.band(CriticalHook, chance, r.fallback.Critical)
}

// Special returns the special band for chance.
func (r *RuleScript) Special(chance int) int {
	return r.band(SpecialHook, chance, r.fallback.Special)
}

// Fumble returns the fumble band for chance.
func (r *RuleScript) Fumble(chance int) int {
	return r.band(FumbleHook, chance, r.fallback.Fumble)
}

// Close releases the Lua state.
func (r *RuleScript) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.L.Close()
}

func (r *RuleScript) band(hook string, chance int, fallback func(int) int) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	fn, ok := r.L.GetGlobal(hook).(*lua.LFunction)
	if !ok {
		return fallback(chance)
	}
	var ret lua.LValue
	err := Limited(r.L, r.limit, func() error {
		if err := r.L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, lua.LNumber(chance)); err != nil {
			return err
		}
		ret = r.L.Get(-1)
		r.L.Pop(1)
		return nil
	})
	if err != nil {
		r.logger.Warn("rule hook failed",
			zap.String("script", r.path),
			zap.String("hook", hook),
			zap.Int("chance", chance),
			zap.Error(err),
		)
		return fallback(chance)
	}
	n, ok := ret.(lua.LNumber)
	if !ok {
		r.logger.Warn("rule hook returned non-number",
			zap.String("script", r.path),
			zap.String("hook", hook),
			zap.String("type", ret.Type().String()),
		)
		return fallback(chance)
	}
	if n < 0 {
		return 0
	}
	return int(n)
}
