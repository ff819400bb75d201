package world

import "fmt"

// DefaultMove is the movement allowance given to units that do not set one.
const DefaultMove = 4

// Unit is a piece on a battlefield. Only its position changes during play.
type Unit struct {
	pos  Position
	move int
	name string
}

// NewUnit creates a unit at pos with the given movement allowance.
func NewUnit(pos Position, move int, name string) (*Unit, error) {
	if move < 0 {
		return nil, fmt.Errorf("unit %q move %d: %w", name, move, ErrInvalidArgument)
	}
	if !pos.Valid() {
		return nil, fmt.Errorf("unit %q at %s: negative coordinate: %w", name, pos, ErrInvalidArgument)
	}
	return &Unit{pos: pos, move: move, name: name}, nil
}

func (u *Unit) Position() Position { return u.pos }
func (u *Unit) Move() int          { return u.move }
func (u *Unit) Name() string       { return u.name }

func (u *Unit) SetPosition(pos Position) {
	u.pos = pos
}

// SetMove changes the movement allowance.
func (u *Unit) SetMove(move int) error {
	if move < 0 {
		return fmt.Errorf("unit %q move %d: %w", u.name, move, ErrInvalidArgument)
	}
	u.move = move
	return nil
}

func (u *Unit) String() string {
	return fmt.Sprintf("%s: Pos=%s, Move=%d", u.name, u.pos, u.move)
}
