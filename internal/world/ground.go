package world

import "fmt"

// CostForbidden marks terrain no unit may enter.
const CostForbidden = -1

// Ground is the movement cost descriptor shared by every cell of one terrain type.
type Ground struct {
	cost int
}

// NewGround returns a Ground with the given cost. cost must be >= 0 or CostForbidden.
func NewGround(cost int) (*Ground, error) {
	if cost < 0 && cost != CostForbidden {
		return nil, fmt.Errorf("ground cost %d: %w", cost, ErrInvalidArgument)
	}
	return &Ground{cost: cost}, nil
}

// Cost returns the movement cost, or CostForbidden.
func (g *Ground) Cost() int { return g.cost }

func (g *Ground) IsForbidden() bool { return g.cost == CostForbidden }
