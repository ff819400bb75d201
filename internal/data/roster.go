package data

import (
	"fmt"
	"os"

	"github.com/l1jgo/slgmove/internal/world"
	"gopkg.in/yaml.v3"
)

// RosterEntry defines where a unit is deployed at startup.
type RosterEntry struct {
	Name  string `yaml:"name"`
	MapID int16  `yaml:"map_id"`
	X     int    `yaml:"x"`
	Y     int    `yaml:"y"`
	Move  *int   `yaml:"move"` // nil = default allowance
}

type rosterFile struct {
	Units []RosterEntry `yaml:"units"`
}

// LoadRoster loads unit deployments from a YAML file.
func LoadRoster(path string) ([]RosterEntry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read roster: %w", err)
	}
	var f rosterFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse roster: %w", err)
	}
	for i, e := range f.Units {
		if e.Name == "" {
			return nil, fmt.Errorf("roster entry %d: missing name", i)
		}
	}
	return f.Units, nil
}

// Unit builds the world unit for this entry, using defaultMove when the
// entry does not set its own allowance.
func (e RosterEntry) Unit(defaultMove int) (*world.Unit, error) {
	pos, err := world.NewPosition(e.X, e.Y)
	if err != nil {
		return nil, fmt.Errorf("roster %s: %w", e.Name, err)
	}
	move := defaultMove
	if e.Move != nil {
		move = *e.Move
	}
	u, err := world.NewUnit(pos, move, e.Name)
	if err != nil {
		return nil, fmt.Errorf("roster %s: %w", e.Name, err)
	}
	return u, nil
}
