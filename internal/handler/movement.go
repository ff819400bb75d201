package handler

import (
	"github.com/l1jgo/slgmove/internal/core/event"
	"github.com/l1jgo/slgmove/internal/net"
	"github.com/l1jgo/slgmove/internal/net/packet"
	"github.com/l1jgo/slgmove/internal/world"
	"go.uber.org/zap"
)

// HandleMove processes C_MOVE.
// Format: [opcode][unit\0][H x][H y]
// The range is recomputed from the unit's current cell; the move is accepted
// only when the target is reachable and differs from the current cell.
func HandleMove(sess *net.Session, r *packet.Reader, deps *Deps) {
	name := r.ReadS()
	target := world.Position{X: int(r.ReadH()), Y: int(r.ReadH())}
	if r.Truncated() {
		sendError(sess, packet.ErrCodeMalformed, "malformed move")
		return
	}
	b := field(sess, deps)
	if b == nil {
		sendError(sess, packet.ErrCodeUnknownField, "no battlefield selected")
		return
	}
	u := b.Unit(name)
	if u == nil {
		sendMoveResult(sess, packet.MoveUnknownUnit, name, target)
		return
	}
	from := u.Position()
	if target == from {
		sendMoveResult(sess, packet.MoveSameCell, name, target)
		return
	}

	rm, _, err := deps.calcRange(b, u)
	if err != nil {
		deps.Log.Error("range calc failed", zap.String("unit", name), zap.Error(err))
		return
	}
	if !rm.CanMoveTo(target) {
		sendMoveResult(sess, packet.MoveUnreachable, name, from)
		return
	}
	remaining := rm.RemainingAt(target)

	b.MoveUnit(u, target)

	// Everyone watching the battlefield learns the new position.
	data := moveResultPacket(packet.MoveOK, name, target)
	sess.Send(data)
	if deps.Sessions != nil {
		deps.Sessions.InField(b.ID, func(other *net.Session) {
			if other != sess {
				other.Send(data)
			}
		})
	}

	event.Emit(deps.Bus, event.UnitMoved{
		SessionID: sess.ID,
		Account:   sess.AccountName,
		FieldID:   b.ID,
		Unit:      name,
		FromX:     from.X,
		FromY:     from.Y,
		ToX:       target.X,
		ToY:       target.Y,
		Remaining: remaining,
	})
}

// sendMoveResult sends S_MOVE_RESULT. pos is the unit's position after the request.
func sendMoveResult(sess *net.Session, code byte, unit string, pos world.Position) {
	sess.Send(moveResultPacket(code, unit, pos))
}

func moveResultPacket(code byte, unit string, pos world.Position) []byte {
	w := packet.NewWriterWithOpcode(packet.S_OPCODE_MOVE_RESULT)
	w.WriteC(code)
	w.WriteS(unit)
	w.WriteH(uint16(pos.X))
	w.WriteH(uint16(pos.Y))
	return w.Bytes()
}
