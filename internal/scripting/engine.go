package scripting

import (
	"fmt"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine wraps a single gopher-lua VM for movement rule hooks.
// Single-goroutine access only (game loop).
type Engine struct {
	vm           *lua.LState
	log          *zap.Logger
	maxAllowance int
	loaded       int
}

// NewEngine creates a Lua engine and loads all scripts from the given directory.
// A missing directory is not an error: the hooks then fall back to their defaults.
func NewEngine(scriptsDir string, maxAllowance int, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})

	vm.SetGlobal("API_VERSION", lua.LNumber(1))
	vm.SetGlobal("MAX_ALLOWANCE", lua.LNumber(maxAllowance))

	e := &Engine{vm: vm, log: log, maxAllowance: maxAllowance}

	// Core helpers first, then the rule scripts that use them.
	for _, sub := range []string{"core", "movement"} {
		if err := e.loadDir(filepath.Join(scriptsDir, sub)); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load %s scripts: %w", sub, err)
		}
	}

	return e, nil
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.loaded++
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// ScriptCount returns the number of script files loaded.
func (e *Engine) ScriptCount() int {
	return e.loaded
}

// MoveContext holds pre-packed data for a movement allowance calculation.
type MoveContext struct {
	UnitName   string
	BaseMove   int // the unit's own allowance
	X, Y       int
	MapID      int
	GroundCost int // cost of the ground the unit stands on
}

// CalcMoveAllowance calls the Lua calc_move_allowance function and returns the
// allowance to use for this range calculation, clamped to [0, max allowance].
// Without the hook, or when it fails, the base allowance is used.
func (e *Engine) CalcMoveAllowance(ctx MoveContext) int {
	fallback := e.clamp(ctx.BaseMove)

	fn := e.vm.GetGlobal("calc_move_allowance")
	if fn == lua.LNil {
		return fallback
	}

	t := e.vm.NewTable()
	t.RawSetString("name", lua.LString(ctx.UnitName))
	t.RawSetString("move", lua.LNumber(ctx.BaseMove))
	t.RawSetString("x", lua.LNumber(ctx.X))
	t.RawSetString("y", lua.LNumber(ctx.Y))
	t.RawSetString("map_id", lua.LNumber(ctx.MapID))
	t.RawSetString("ground_cost", lua.LNumber(ctx.GroundCost))

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, t); err != nil {
		e.log.Error("lua calc_move_allowance error",
			zap.String("unit", ctx.UnitName), zap.Error(err))
		return fallback
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)

	n, ok := result.(lua.LNumber)
	if !ok {
		e.log.Error("lua calc_move_allowance returned non-number",
			zap.String("unit", ctx.UnitName), zap.String("type", result.Type().String()))
		return fallback
	}
	return e.clamp(int(n))
}

func (e *Engine) clamp(v int) int {
	return min(max(v, 0), e.maxAllowance)
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}
