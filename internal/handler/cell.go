package handler

import (
	"github.com/l1jgo/slgmove/internal/net"
	"github.com/l1jgo/slgmove/internal/net/packet"
	"github.com/l1jgo/slgmove/internal/world"
)

// HandleCell processes C_CELL: terrain cost and occupant of one cell.
// Format: [opcode][H x][H y]
func HandleCell(sess *net.Session, r *packet.Reader, deps *Deps) {
	pos := world.Position{X: int(r.ReadH()), Y: int(r.ReadH())}
	if r.Truncated() {
		sendError(sess, packet.ErrCodeMalformed, "malformed cell query")
		return
	}
	b := field(sess, deps)
	if b == nil {
		sendError(sess, packet.ErrCodeUnknownField, "no battlefield selected")
		return
	}
	cost, err := b.Terrain.CostAt(pos)
	if err != nil {
		sendError(sess, packet.ErrCodeOutOfRange, err.Error())
		return
	}
	occupant := ""
	if u := b.Terrain.FindUnitAt(pos); u != nil {
		occupant = u.Name()
	}

	w := packet.NewWriterWithOpcode(packet.S_OPCODE_CELL)
	w.WriteH(uint16(pos.X))
	w.WriteH(uint16(pos.Y))
	w.WriteD(int32(cost))
	w.WriteS(occupant)
	sess.Send(w.Bytes())
}
