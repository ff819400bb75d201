package world

import (
	"fmt"
	"io"
	"sort"
)

// TerrainMap is a rectangular grid of terrain types plus the units standing on it.
// The terrain is fixed after construction; only occupancy changes.
// Accessed only from the game loop goroutine, no locks.
type TerrainMap struct {
	types   [][]int // [y][x] terrain type
	grounds map[int]*Ground
	width   int
	height  int
	units   map[*Unit]struct{}
}

// NewTerrainMap builds a map from rows of terrain types (types[y][x]) and the
// terrain type -> Ground table. The rows are copied.
func NewTerrainMap(types [][]int, grounds map[int]*Ground) (*TerrainMap, error) {
	if len(types) == 0 || len(types[0]) == 0 {
		return nil, fmt.Errorf("terrain grid is empty: %w", ErrInvalidArgument)
	}
	width := len(types[0])
	rows := make([][]int, len(types))
	for y, row := range types {
		if len(row) != width {
			return nil, fmt.Errorf("terrain row %d has %d cells, want %d: %w", y, len(row), width, ErrInvalidArgument)
		}
		for x, t := range row {
			g, ok := grounds[t]
			if !ok || g == nil {
				return nil, fmt.Errorf("terrain type %d at (%d,%d) has no ground: %w", t, x, y, ErrInvalidArgument)
			}
		}
		rows[y] = append([]int(nil), row...)
	}
	table := make(map[int]*Ground, len(grounds))
	for t, g := range grounds {
		table[t] = g
	}
	return &TerrainMap{
		types:   rows,
		grounds: table,
		width:   width,
		height:  len(rows),
		units:   make(map[*Unit]struct{}),
	}, nil
}

func (m *TerrainMap) Width() int  { return m.width }
func (m *TerrainMap) Height() int { return m.height }

// InRange reports whether pos lies inside the grid.
func (m *TerrainMap) InRange(pos Position) bool {
	return pos.X >= 0 && pos.X < m.width && pos.Y >= 0 && pos.Y < m.height
}

// TypeAt returns the terrain type at pos.
func (m *TerrainMap) TypeAt(pos Position) (int, error) {
	if !m.InRange(pos) {
		return 0, fmt.Errorf("terrain at %s: %w", pos, ErrOutOfRange)
	}
	return m.types[pos.Y][pos.X], nil
}

// GroundAt returns the Ground of the cell at pos.
func (m *TerrainMap) GroundAt(pos Position) (*Ground, error) {
	t, err := m.TypeAt(pos)
	if err != nil {
		return nil, err
	}
	return m.grounds[t], nil
}

// CostAt returns the movement cost of the cell at pos (CostForbidden for walls).
func (m *TerrainMap) CostAt(pos Position) (int, error) {
	g, err := m.GroundAt(pos)
	if err != nil {
		return 0, err
	}
	return g.Cost(), nil
}

// cost is CostAt for positions already known to be in range.
func (m *TerrainMap) cost(pos Position) int {
	return m.grounds[m.types[pos.Y][pos.X]].cost
}

// AddUnit records u as standing on the map. Adding the same unit twice is a no-op.
func (m *TerrainMap) AddUnit(u *Unit) {
	m.units[u] = struct{}{}
}

// RemoveUnit takes u off the map. Unknown units are ignored.
func (m *TerrainMap) RemoveUnit(u *Unit) {
	delete(m.units, u)
}

// FindUnitAt returns the unit standing on pos, or nil.
func (m *TerrainMap) FindUnitAt(pos Position) *Unit {
	for u := range m.units {
		if u.Position() == pos {
			return u
		}
	}
	return nil
}

// Units returns the units on the map ordered by name.
func (m *TerrainMap) Units() []*Unit {
	out := make([]*Unit, 0, len(m.units))
	for u := range m.units {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name() != out[j].Name() {
			return out[i].Name() < out[j].Name()
		}
		pi, pj := out[i].Position(), out[j].Position()
		if pi.Y != pj.Y {
			return pi.Y < pj.Y
		}
		return pi.X < pj.X
	})
	return out
}

// CanEnter reports whether a unit holding remaining movement can step onto pos.
// Checks run cheapest first: bounds, forbidden terrain, cost, occupancy.
func (m *TerrainMap) CanEnter(pos Position, remaining int) bool {
	if !m.InRange(pos) {
		return false
	}
	cost := m.cost(pos)
	if cost == CostForbidden {
		return false
	}
	if remaining < cost {
		return false
	}
	return m.FindUnitAt(pos) == nil
}

// Dump writes the movement cost of every cell, one row per line.
func (m *TerrainMap) Dump(w io.Writer) error {
	for y := 0; y < m.height; y++ {
		for x := 0; x < m.width; x++ {
			if _, err := fmt.Fprintf(w, "%2d ", m.cost(Position{X: x, Y: y})); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	return nil
}
