// rangedump prints a battlefield, one of its roster units and the unit's
// movement range as text grids.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"

	"github.com/l1jgo/slgmove/internal/data"
	"github.com/l1jgo/slgmove/internal/moverange"
	"github.com/l1jgo/slgmove/internal/world"
)

func main() {
	if len(os.Args) < 5 {
		fmt.Fprintln(os.Stderr, "Usage: rangedump <map_list.yaml> <tile_dir> <roster.yaml> <unit> [allowance]")
		os.Exit(1)
	}
	if err := run(os.Args[1], os.Args[2], os.Args[3], os.Args[4], os.Args[5:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(mapList, tileDir, rosterPath, unitName string, rest []string) error {
	fields, err := data.LoadBattlefields(mapList, tileDir)
	if err != nil {
		return err
	}
	roster, err := data.LoadRoster(rosterPath)
	if err != nil {
		return err
	}

	var target *data.RosterEntry
	for i := range roster {
		if roster[i].Name == unitName {
			target = &roster[i]
			break
		}
	}
	if target == nil {
		return fmt.Errorf("unit %q not in roster", unitName)
	}

	terrain, err := fields.NewTerrain(target.MapID)
	if err != nil {
		return err
	}

	// Every unit on the same map blocks movement.
	var unit *world.Unit
	for _, entry := range roster {
		if entry.MapID != target.MapID {
			continue
		}
		u, err := entry.Unit(world.DefaultMove)
		if err != nil {
			return err
		}
		terrain.AddUnit(u)
		if entry.Name == unitName {
			unit = u
		}
	}

	if len(rest) > 0 {
		allowance, err := strconv.Atoi(rest[0])
		if err != nil {
			return fmt.Errorf("bad allowance %q: %w", rest[0], err)
		}
		if err := unit.SetMove(allowance); err != nil {
			return err
		}
	}

	rm, err := moverange.New(terrain)
	if err != nil {
		return err
	}
	rm.Calc(unit)

	w := bufio.NewWriter(os.Stdout)
	defer w.Flush()

	fmt.Fprintf(w, "map %d (%s)\n", target.MapID, fields.Get(target.MapID).Name)
	if err := terrain.Dump(w); err != nil {
		return err
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, unit.String())
	if err := rm.Dump(w); err != nil {
		return err
	}
	fmt.Fprintf(w, "%d reachable cells\n", len(rm.Reachable()))
	return nil
}
