package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/rqgcombat/internal/game/dice"
)

// RegisterModules installs the engine table into L:
//
//	engine.log(msg)          logs msg at info level
//	engine.dice.max(expr)    highest total of a dice expression
//	engine.dice.min(expr)    lowest total of a dice expression
//
// Precondition: L must be from NewSandboxedState; logger must be non-nil.
func RegisterModules(L *lua.LState, logger *zap.Logger) {
	engine := L.NewTable()
	L.SetField(engine, "log", L.NewFunction(func(L *lua.LState) int {
		logger.Info("lua", zap.String("msg", L.CheckString(1)))
		return 0
	}))

	diceTbl := L.NewTable()
	bound := func(pick func(dice.Expression) int) lua.LGFunction {
		return func(L *lua.LState) int {
			expr, err := dice.Parse(L.CheckString(1))
			if err != nil {
				L.RaiseError("%s", err.Error())
				return 0
			}
			L.Push(lua.LNumber(pick(expr)))
			return 1
		}
	}
	L.SetField(diceTbl, "max", L.NewFunction(bound(dice.Expression.Max)))
	L.SetField(diceTbl, "min", L.NewFunction(bound(dice.Expression.Min)))
	L.SetField(engine, "dice", diceTbl)

	L.SetGlobal("engine", engine)
}
