package world

import "fmt"

// Position is a cell coordinate on a battlefield grid. Both coordinates are
// non-negative; the neighbour helpers saturate at zero instead of going below it.
//
// Use NewPosition for untrusted input. A literal with a negative coordinate is
// not Valid: NewUnit rejects it, and TerrainMap treats it as out of range.
type Position struct {
	X int
	Y int
}

// NewPosition validates x and y and returns the position.
func NewPosition(x, y int) (Position, error) {
	if x < 0 || y < 0 {
		return Position{}, fmt.Errorf("position (%d,%d): negative coordinate: %w", x, y, ErrInvalidArgument)
	}
	return Position{X: x, Y: y}, nil
}

// Valid reports whether both coordinates are non-negative.
func (p Position) Valid() bool {
	return p.X >= 0 && p.Y >= 0
}

// Up returns the cell one row above. Row 0 stays at row 0.
func (p Position) Up() Position {
	return Position{X: p.X, Y: max(0, p.Y-1)}
}

// Down returns the cell one row below.
func (p Position) Down() Position {
	return Position{X: p.X, Y: p.Y + 1}
}

// Left returns the cell one column to the left. Column 0 stays at column 0.
func (p Position) Left() Position {
	return Position{X: max(0, p.X-1), Y: p.Y}
}

// Right returns the cell one column to the right.
func (p Position) Right() Position {
	return Position{X: p.X + 1, Y: p.Y}
}

// Shift applies both deltas at once, clamping each coordinate at zero.
func (p Position) Shift(dx, dy int) Position {
	return Position{X: max(0, p.X+dx), Y: max(0, p.Y+dy)}
}

// ShiftExact applies both deltas without clamping. It reports false and
// returns p unchanged when either coordinate would become negative.
func (p Position) ShiftExact(dx, dy int) (Position, bool) {
	x, y := p.X+dx, p.Y+dy
	if x < 0 || y < 0 {
		return p, false
	}
	return Position{X: x, Y: y}, true
}

// Neighbours returns the four orthogonal neighbours in down, up, left, right
// order. Clamped directions that collapse onto p are omitted.
func (p Position) Neighbours() []Position {
	out := make([]Position, 0, 4)
	for _, n := range [4]Position{p.Down(), p.Up(), p.Left(), p.Right()} {
		if n != p {
			out = append(out, n)
		}
	}
	return out
}

// DistanceTo returns the grid (Manhattan) distance to other. A diagonal
// neighbour is two steps away.
func (p Position) DistanceTo(other Position) int {
	return abs(other.X-p.X) + abs(other.Y-p.Y)
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
