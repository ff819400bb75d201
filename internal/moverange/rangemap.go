// Package moverange computes how far a unit can move in one turn.
//
// A RangeMap records, for every cell of a terrain map, the largest movement
// allowance a unit still holds after stepping onto that cell. Cells the unit
// cannot reach hold Unset. The fill starts at the unit's cell with its full
// allowance and relaxes orthogonal neighbours from a FIFO worklist; a cell is
// only re-queued when its recorded value strictly improves, so the result is
// independent of exploration order and the fill terminates even on zero-cost
// terrain.
package moverange

import (
	"fmt"
	"io"

	"github.com/l1jgo/slgmove/internal/world"
)

// Unset marks a cell the unit cannot reach. Real values are always >= 0.
const Unset = -1

type step struct {
	pos    world.Position
	remain int
}

// RangeMap holds the result of the last Calc against one terrain map.
// Not safe for concurrent use; keep one RangeMap per goroutine.
type RangeMap struct {
	terrain *world.TerrainMap
	steps   [][]int // [y][x] remaining allowance
	queue   []step
}

// New returns an empty RangeMap sized to terrain.
func New(terrain *world.TerrainMap) (*RangeMap, error) {
	if terrain == nil {
		return nil, fmt.Errorf("range map: nil terrain: %w", world.ErrInvalidArgument)
	}
	m := &RangeMap{terrain: terrain}
	m.steps = make([][]int, terrain.Height())
	for y := range m.steps {
		m.steps[y] = make([]int, terrain.Width())
	}
	m.reset()
	return m, nil
}

// Terrain returns the map this RangeMap was built against.
func (m *RangeMap) Terrain() *world.TerrainMap { return m.terrain }

func (m *RangeMap) reset() {
	for _, row := range m.steps {
		for x := range row {
			row[x] = Unset
		}
	}
	m.queue = m.queue[:0]
}

// Calc computes the movement range of u from its current position.
func (m *RangeMap) Calc(u *world.Unit) {
	m.CalcFrom(u.Position(), u.Move())
}

// CalcFrom computes the range of a unit standing on start with the given
// allowance. The start cell always records the full allowance, whatever its
// terrain or occupancy. A start outside the map leaves every cell Unset.
func (m *RangeMap) CalcFrom(start world.Position, allowance int) {
	m.reset()
	if !m.terrain.InRange(start) || allowance < 0 {
		return
	}
	m.steps[start.Y][start.X] = allowance
	m.queue = append(m.queue, step{pos: start, remain: allowance})

	for head := 0; head < len(m.queue); head++ {
		cur := m.queue[head]
		// A better value was recorded after this entry was queued.
		if m.steps[cur.pos.Y][cur.pos.X] > cur.remain {
			continue
		}
		if cur.remain == 0 {
			continue
		}
		for _, next := range cur.pos.Neighbours() {
			if !m.terrain.CanEnter(next, cur.remain) {
				continue
			}
			cost, err := m.terrain.CostAt(next)
			if err != nil {
				continue
			}
			remain := cur.remain - cost
			if remain <= m.steps[next.Y][next.X] {
				continue
			}
			m.steps[next.Y][next.X] = remain
			m.queue = append(m.queue, step{pos: next, remain: remain})
		}
	}
	m.queue = m.queue[:0]
}

// RemainingAt returns the allowance left after reaching pos, or Unset when
// pos is unreachable or outside the map.
func (m *RangeMap) RemainingAt(pos world.Position) int {
	if !m.terrain.InRange(pos) {
		return Unset
	}
	return m.steps[pos.Y][pos.X]
}

// CanMoveTo reports whether the last computed range includes pos.
func (m *RangeMap) CanMoveTo(pos world.Position) bool {
	return m.RemainingAt(pos) != Unset
}

// Cell is one reachable cell and the allowance left on it.
type Cell struct {
	Pos    world.Position
	Remain int
}

// Reachable lists every reachable cell in row-major order.
func (m *RangeMap) Reachable() []Cell {
	var out []Cell
	for y, row := range m.steps {
		for x, v := range row {
			if v != Unset {
				out = append(out, Cell{Pos: world.Position{X: x, Y: y}, Remain: v})
			}
		}
	}
	return out
}

// Dump writes the remaining-allowance grid, one row per line.
func (m *RangeMap) Dump(w io.Writer) error {
	for _, row := range m.steps {
		for _, v := range row {
			if _, err := fmt.Fprintf(w, "%2d ", v); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	return nil
}
