package handler

import (
	"fmt"

	"github.com/l1jgo/slgmove/internal/net"
	"github.com/l1jgo/slgmove/internal/net/packet"
	"github.com/l1jgo/slgmove/internal/world"
	"go.uber.org/zap"
)

// HandleSelectField processes C_SELECT_FIELD.
// Format: [opcode][H map_id]
func HandleSelectField(sess *net.Session, r *packet.Reader, deps *Deps) {
	mapID := int16(r.ReadH())
	if r.Truncated() {
		sendError(sess, packet.ErrCodeMalformed, "malformed select field")
		return
	}
	b := deps.World.Battlefield(mapID)
	if b == nil {
		sendError(sess, packet.ErrCodeUnknownField, fmt.Sprintf("battlefield %d not hosted", mapID))
		return
	}

	sess.FieldID = b.ID
	sess.SetState(packet.StateInField)
	sendField(sess, b)

	deps.Log.Debug("field selected",
		zap.Uint64("session", sess.ID),
		zap.Int16("map", b.ID),
		zap.Int("units", b.UnitCount()),
	)
}

// sendField sends S_FIELD: the battlefield header and every deployed unit,
// split over several packets when the list outgrows one frame.
func sendField(sess *net.Session, b *world.Battlefield) {
	units := b.Units()
	entries := newEntryList(len(units))
	for _, u := range units {
		entries.add(func(w *packet.Writer) {
			w.WriteS(u.Name())
			w.WriteH(uint16(u.Position().X))
			w.WriteH(uint16(u.Position().Y))
			w.WriteC(clampByte(u.Move()))
		})
	}
	sendChunked(sess, packet.S_OPCODE_FIELD, func(w *packet.Writer) {
		w.WriteH(uint16(b.ID))
		w.WriteH(uint16(b.Terrain.Width()))
		w.WriteH(uint16(b.Terrain.Height()))
		w.WriteS(b.Name)
	}, entries)
}
