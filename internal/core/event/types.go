package event

// RangeCalculated is emitted after a unit's movement range was computed for a client.
type RangeCalculated struct {
	SessionID uint64
	FieldID   int16
	Unit      string
	Allowance int // effective allowance after the script hook
	Cells     int // number of reachable cells, start included
}

// UnitMoved is emitted after an accepted move.
type UnitMoved struct {
	SessionID    uint64
	Account      string
	FieldID      int16
	Unit         string
	FromX, FromY int
	ToX, ToY     int
	Remaining    int // allowance left on the destination cell
}
