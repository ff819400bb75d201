package data

import (
	"errors"
	"testing"

	"github.com/l1jgo/slgmove/internal/world"
)

func TestLoadRoster(t *testing.T) {
	path := writeFile(t, t.TempDir(), "roster.yaml", `
units:
  - {name: hoge, map_id: 1, x: 3, y: 3, move: 3}
  - {name: fuga, map_id: 1, x: 0, y: 2}
`)
	entries, err := LoadRoster(path)
	if err != nil {
		t.Fatalf("LoadRoster: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d", len(entries))
	}

	hoge, err := entries[0].Unit(world.DefaultMove)
	if err != nil {
		t.Fatal(err)
	}
	if hoge.Move() != 3 || hoge.Position() != (world.Position{X: 3, Y: 3}) {
		t.Errorf("hoge = %s", hoge)
	}
	fuga, err := entries[1].Unit(world.DefaultMove)
	if err != nil {
		t.Fatal(err)
	}
	if fuga.Move() != world.DefaultMove {
		t.Errorf("fuga move = %d, want default %d", fuga.Move(), world.DefaultMove)
	}
}

func TestRosterEntryUnitErrors(t *testing.T) {
	neg := -1
	cases := []RosterEntry{
		{Name: "a", X: -1, Y: 0},
		{Name: "b", X: 0, Y: 0, Move: &neg},
	}
	for _, e := range cases {
		if _, err := e.Unit(4); !errors.Is(err, world.ErrInvalidArgument) {
			t.Errorf("%s: err=%v, want ErrInvalidArgument", e.Name, err)
		}
	}
}

func TestLoadRosterMissingName(t *testing.T) {
	path := writeFile(t, t.TempDir(), "roster.yaml", "units:\n  - {map_id: 1, x: 0, y: 0}\n")
	if _, err := LoadRoster(path); err == nil {
		t.Error("entry without a name should fail")
	}
}
