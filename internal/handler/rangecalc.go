package handler

import (
	"github.com/l1jgo/slgmove/internal/core/event"
	"github.com/l1jgo/slgmove/internal/moverange"
	"github.com/l1jgo/slgmove/internal/net"
	"github.com/l1jgo/slgmove/internal/net/packet"
	"go.uber.org/zap"
)

// HandleRange processes C_RANGE.
// Format: [opcode][unit\0]
func HandleRange(sess *net.Session, r *packet.Reader, deps *Deps) {
	name := r.ReadS()
	if r.Truncated() {
		sendError(sess, packet.ErrCodeMalformed, "malformed range request")
		return
	}
	b := field(sess, deps)
	if b == nil {
		sendError(sess, packet.ErrCodeUnknownField, "no battlefield selected")
		return
	}
	u := b.Unit(name)
	if u == nil {
		sendError(sess, packet.ErrCodeUnknownUnit, "unknown unit "+name)
		return
	}

	rm, allowance, err := deps.calcRange(b, u)
	if err != nil {
		deps.Log.Error("range calc failed", zap.String("unit", name), zap.Error(err))
		return
	}
	cells := rm.Reachable()
	if !sendRange(sess, name, cells) {
		deps.Log.Warn("range reply does not fit a frame", zap.String("unit", name))
		sendError(sess, packet.ErrCodeMalformed, "unit name too long")
		return
	}

	event.Emit(deps.Bus, event.RangeCalculated{
		SessionID: sess.ID,
		FieldID:   b.ID,
		Unit:      name,
		Allowance: allowance,
		Cells:     len(cells),
	})
}

// sendRange sends every reachable cell and its remaining allowance as one or
// more S_RANGE packets.
func sendRange(sess *net.Session, unit string, cells []moverange.Cell) bool {
	entries := newEntryList(len(cells))
	for _, c := range cells {
		entries.add(func(w *packet.Writer) {
			w.WriteH(uint16(c.Pos.X))
			w.WriteH(uint16(c.Pos.Y))
			w.WriteC(clampByte(c.Remain))
		})
	}
	return sendChunked(sess, packet.S_OPCODE_RANGE, func(w *packet.Writer) {
		w.WriteS(unit)
	}, entries)
}
