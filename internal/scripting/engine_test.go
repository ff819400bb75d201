package scripting

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
)

func writeScript(t *testing.T, root, sub, name, body string) {
	t.Helper()
	dir := filepath.Join(root, sub)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func newEngine(t *testing.T, dir string) *Engine {
	t.Helper()
	e, err := NewEngine(dir, 10, zap.NewNop())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	t.Cleanup(e.Close)
	return e
}

func TestCalcMoveAllowanceWithoutScripts(t *testing.T) {
	e := newEngine(t, t.TempDir())
	if e.ScriptCount() != 0 {
		t.Errorf("ScriptCount = %d", e.ScriptCount())
	}
	cases := []struct{ base, want int }{
		{3, 3},
		{0, 0},
		{-2, 0},
		{25, 10},
	}
	for _, c := range cases {
		if got := e.CalcMoveAllowance(MoveContext{UnitName: "hoge", BaseMove: c.base}); got != c.want {
			t.Errorf("base %d: got %d, want %d", c.base, got, c.want)
		}
	}
}

func TestCalcMoveAllowanceHook(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "core", "util.lua", `
function bonus_for(cost)
  if cost == 0 then return 1 end
  return 0
end
`)
	writeScript(t, dir, "movement", "allowance.lua", `
function calc_move_allowance(ctx)
  if ctx.name == "scout" then
    return ctx.move + 2 + bonus_for(ctx.ground_cost)
  end
  if ctx.map_id == 9 then
    return MAX_ALLOWANCE + 5
  end
  return ctx.move
end
`)
	e := newEngine(t, dir)
	if e.ScriptCount() != 2 {
		t.Errorf("ScriptCount = %d, want 2", e.ScriptCount())
	}

	cases := []struct {
		name string
		ctx  MoveContext
		want int
	}{
		{"scout on plain", MoveContext{UnitName: "scout", BaseMove: 3, GroundCost: 1}, 5},
		{"scout on road", MoveContext{UnitName: "scout", BaseMove: 3, GroundCost: 0}, 6},
		{"ordinary unit", MoveContext{UnitName: "hoge", BaseMove: 4, GroundCost: 1}, 4},
		{"clamped to max", MoveContext{UnitName: "hoge", BaseMove: 4, MapID: 9}, 10},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := e.CalcMoveAllowance(c.ctx); got != c.want {
				t.Errorf("got %d, want %d", got, c.want)
			}
		})
	}
}

func TestCalcMoveAllowanceFallsBack(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "movement", "broken.lua", `
function calc_move_allowance(ctx)
  if ctx.name == "boom" then
    error("boom")
  end
  return "fast"
end
`)
	e := newEngine(t, dir)
	if got := e.CalcMoveAllowance(MoveContext{UnitName: "boom", BaseMove: 3}); got != 3 {
		t.Errorf("runtime error: got %d, want base 3", got)
	}
	if got := e.CalcMoveAllowance(MoveContext{UnitName: "hoge", BaseMove: 2}); got != 2 {
		t.Errorf("non-number result: got %d, want base 2", got)
	}
	// The VM stays usable after a failed call.
	if got := e.CalcMoveAllowance(MoveContext{UnitName: "boom", BaseMove: 1}); got != 1 {
		t.Errorf("second call: got %d", got)
	}
}

func TestNewEngineSyntaxError(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "core", "bad.lua", "function (")
	if _, err := NewEngine(dir, 10, zap.NewNop()); err == nil {
		t.Error("syntax error should fail engine creation")
	}
}
