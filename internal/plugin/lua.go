// Package plugin loads user-defined calculator operations from Lua.
//
// A plugin file registers binary operations by name:
//
//	register("mod", function(a, b) return a % b end)
//	register("avg", function(a, b) return (a + b) / 2 end)
//
// Registered operations join the calculator's operation set alongside the
// built-ins. Operands cross the bridge as Lua numbers (float64), so plugin
// operations trade exactness for flexibility; results are converted back to
// decimals.
package plugin

import (
	"errors"
	"fmt"
	"sync"

	"github.com/dshills/reckon/internal/engine/calc"
	"github.com/shopspring/decimal"
	lua "github.com/yuin/gopher-lua"
)

// Errors returned by plugin loading and execution.
var (
	// ErrLoadFailed indicates the plugin file could not be executed.
	ErrLoadFailed = errors.New("plugin load failed")

	// ErrBadRegistration indicates a register() call with invalid arguments.
	ErrBadRegistration = errors.New("bad plugin registration")

	// ErrExecFailed indicates a plugin operation failed at call time.
	ErrExecFailed = errors.New("plugin operation failed")
)

// Host owns a Lua state and the operations a plugin file registered in it.
// The Lua state is not safe for concurrent use; Host serializes all calls.
type Host struct {
	mu    sync.Mutex
	state *lua.LState
	ops   map[string]*lua.LFunction
}

// LoadFile executes the plugin file and collects its registered operations.
// The caller owns the returned Host and must Close it when done.
func LoadFile(path string) (*Host, error) {
	h := &Host{
		state: lua.NewState(),
		ops:   make(map[string]*lua.LFunction),
	}

	h.state.SetGlobal("register", h.state.NewFunction(h.register))

	if err := h.state.DoFile(path); err != nil {
		h.state.Close()
		return nil, fmt.Errorf("%w: %v", ErrLoadFailed, err)
	}
	return h, nil
}

// register is the Lua-side registration entry point.
func (h *Host) register(L *lua.LState) int {
	name := L.CheckString(1)
	fn := L.CheckFunction(2)
	if name == "" {
		L.RaiseError("register: operation name must not be empty")
		return 0
	}
	h.ops[name] = fn
	return 0
}

// Operations returns the registered operation names.
func (h *Host) Operations() []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	names := make([]string, 0, len(h.ops))
	for name := range h.ops {
		names = append(names, name)
	}
	return names
}

// RegisterInto adds every plugin operation to the registry.
func (h *Host) RegisterInto(reg *calc.Registry) error {
	for _, name := range h.Operations() {
		if err := reg.Register(name, h.opFunc(name)); err != nil {
			return fmt.Errorf("%w: %v", ErrBadRegistration, err)
		}
	}
	return nil
}

// opFunc wraps a registered Lua function as a calc.Func.
func (h *Host) opFunc(name string) calc.Func {
	return func(a, b decimal.Decimal) (decimal.Decimal, error) {
		h.mu.Lock()
		defer h.mu.Unlock()

		fn, ok := h.ops[name]
		if !ok {
			return decimal.Decimal{}, fmt.Errorf("%w: %q no longer registered", ErrExecFailed, name)
		}

		err := h.state.CallByParam(lua.P{
			Fn:      fn,
			NRet:    1,
			Protect: true,
		}, lua.LNumber(a.InexactFloat64()), lua.LNumber(b.InexactFloat64()))
		if err != nil {
			return decimal.Decimal{}, fmt.Errorf("%w: %s: %v", ErrExecFailed, name, err)
		}

		ret := h.state.Get(-1)
		h.state.Pop(1)

		num, ok := ret.(lua.LNumber)
		if !ok {
			return decimal.Decimal{}, fmt.Errorf("%w: %s returned %s, want number", ErrExecFailed, name, ret.Type())
		}
		return decimal.NewFromFloat(float64(num)), nil
	}
}

// Close releases the Lua state.
func (h *Host) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.state.Close()
}
