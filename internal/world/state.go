package world

import (
	"fmt"
	"sort"
)

// Battlefield is one hosted terrain map and the units deployed on it.
// Accessed only from the game loop goroutine, no locks needed.
type Battlefield struct {
	ID      int16
	Name    string
	Terrain *TerrainMap

	units map[string]*Unit
	dirty map[string]bool // units moved since the last save
}

func newBattlefield(id int16, name string, terrain *TerrainMap) *Battlefield {
	return &Battlefield{
		ID:      id,
		Name:    name,
		Terrain: terrain,
		units:   make(map[string]*Unit),
		dirty:   make(map[string]bool),
	}
}

// Unit returns the deployed unit with the given name, or nil.
func (b *Battlefield) Unit(name string) *Unit {
	return b.units[name]
}

// UnitCount returns the number of deployed units.
func (b *Battlefield) UnitCount() int {
	return len(b.units)
}

// Units returns the deployed units ordered by name.
func (b *Battlefield) Units() []*Unit {
	return b.Terrain.Units()
}

// MoveUnit relocates u to pos and marks it for saving. Legality is the
// caller's concern (see moverange.RangeMap.CanMoveTo).
func (b *Battlefield) MoveUnit(u *Unit, pos Position) {
	u.SetPosition(pos)
	b.dirty[u.Name()] = true
}

// TakeDirty returns the units moved since the previous call, ordered by name,
// and clears the set.
func (b *Battlefield) TakeDirty() []*Unit {
	if len(b.dirty) == 0 {
		return nil
	}
	out := make([]*Unit, 0, len(b.dirty))
	for name := range b.dirty {
		if u := b.units[name]; u != nil {
			out = append(out, u)
		}
	}
	clear(b.dirty)
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// State holds every hosted battlefield, keyed by map ID.
type State struct {
	fields map[int16]*Battlefield
}

func NewState() *State {
	return &State{fields: make(map[int16]*Battlefield)}
}

// AddBattlefield hosts terrain under id. An existing battlefield with the
// same id is replaced.
func (s *State) AddBattlefield(id int16, name string, terrain *TerrainMap) *Battlefield {
	b := newBattlefield(id, name, terrain)
	s.fields[id] = b
	return b
}

// Battlefield returns the hosted battlefield for id, or nil.
func (s *State) Battlefield(id int16) *Battlefield {
	return s.fields[id]
}

// BattlefieldCount returns the number of hosted battlefields.
func (s *State) BattlefieldCount() int {
	return len(s.fields)
}

// AllBattlefields calls fn for every battlefield in ascending id order.
func (s *State) AllBattlefields(fn func(*Battlefield)) {
	ids := make([]int16, 0, len(s.fields))
	for id := range s.fields {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		fn(s.fields[id])
	}
}

// PlaceUnit deploys u on battlefield id. The starting cell must be inside the
// map, not forbidden and not occupied, and the unit name must be unique there.
func (s *State) PlaceUnit(id int16, u *Unit) error {
	b := s.fields[id]
	if b == nil {
		return fmt.Errorf("place %s: battlefield %d not hosted: %w", u.Name(), id, ErrInvalidArgument)
	}
	if _, exists := b.units[u.Name()]; exists {
		return fmt.Errorf("place %s: name already deployed on battlefield %d: %w", u.Name(), id, ErrInvalidArgument)
	}
	if err := b.checkCell(u, u.Position()); err != nil {
		return fmt.Errorf("place %s: %w", u.Name(), err)
	}
	b.units[u.Name()] = u
	b.Terrain.AddUnit(u)
	return nil
}

// RestorePosition puts a deployed unit back on a previously saved cell
// without marking it for saving.
func (b *Battlefield) RestorePosition(name string, pos Position) error {
	u := b.units[name]
	if u == nil {
		return fmt.Errorf("restore %s: not deployed on battlefield %d: %w", name, b.ID, ErrInvalidArgument)
	}
	if err := b.checkCell(u, pos); err != nil {
		return fmt.Errorf("restore %s: %w", name, err)
	}
	u.SetPosition(pos)
	return nil
}

// checkCell reports why u cannot stand on pos, if it cannot.
func (b *Battlefield) checkCell(u *Unit, pos Position) error {
	g, err := b.Terrain.GroundAt(pos)
	if err != nil {
		return err
	}
	if g.IsForbidden() {
		return fmt.Errorf("%s is forbidden terrain: %w", pos, ErrInvalidArgument)
	}
	if other := b.Terrain.FindUnitAt(pos); other != nil && other != u {
		return fmt.Errorf("%s occupied by %s: %w", pos, other.Name(), ErrInvalidArgument)
	}
	return nil
}
