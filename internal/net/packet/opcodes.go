package packet

// Client opcodes.
const (
	C_OPCODE_LOGIN        byte = 1 // S account, S password
	C_OPCODE_SELECT_FIELD byte = 2 // H map_id
	C_OPCODE_RANGE        byte = 3 // S unit
	C_OPCODE_MOVE         byte = 4 // S unit, H x, H y
	C_OPCODE_CELL         byte = 5 // H x, H y
	C_OPCODE_QUIT         byte = 6
)

// Server opcodes.
const (
	S_OPCODE_LOGIN_RESULT byte = 101 // C code
	S_OPCODE_FIELD        byte = 102 // H map_id, H width, H height, S name, D total, H count, {S name, H x, H y, C move}
	S_OPCODE_RANGE        byte = 103 // S unit, D total, H count, {H x, H y, C remaining}
	S_OPCODE_MOVE_RESULT  byte = 104 // C code, S unit, H x, H y
	S_OPCODE_CELL         byte = 105 // H x, H y, D cost, S occupant
	S_OPCODE_ERROR        byte = 106 // C code, S message
)

// S_LOGIN_RESULT codes.
const (
	LoginOK          byte = 0
	LoginBadPassword byte = 1
	LoginNoAccount   byte = 2
	LoginBanned      byte = 3
	LoginInternal    byte = 4
	LoginInUse       byte = 5
)

// S_MOVE_RESULT codes.
const (
	MoveOK          byte = 0
	MoveUnreachable byte = 1 // target outside the unit's range
	MoveSameCell    byte = 2
	MoveUnknownUnit byte = 3
)

// S_ERROR codes.
const (
	ErrCodeMalformed    byte = 1
	ErrCodeUnknownField byte = 2
	ErrCodeUnknownUnit  byte = 3
	ErrCodeOutOfRange   byte = 4
)
