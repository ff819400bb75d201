package handler

import (
	"github.com/l1jgo/slgmove/internal/config"
	"github.com/l1jgo/slgmove/internal/core/event"
	"github.com/l1jgo/slgmove/internal/moverange"
	"github.com/l1jgo/slgmove/internal/net"
	"github.com/l1jgo/slgmove/internal/net/packet"
	"github.com/l1jgo/slgmove/internal/persist"
	"github.com/l1jgo/slgmove/internal/scripting"
	"github.com/l1jgo/slgmove/internal/world"
	"go.uber.org/zap"
)

// Deps holds shared dependencies injected into all packet handlers.
type Deps struct {
	AccountRepo *persist.AccountRepo // nil = no database, every login accepted
	Config      *config.Config
	Log         *zap.Logger
	World       *world.State
	Scripting   *scripting.Engine
	Bus         *event.Bus
	Sessions    *net.SessionStore

	ranges map[int16]*moverange.RangeMap // one scratch grid per battlefield
}

// RegisterAll registers all packet handlers into the registry.
func RegisterAll(reg *packet.Registry, deps *Deps) {
	reg.Register(packet.C_OPCODE_LOGIN,
		[]packet.SessionState{packet.StateHandshake},
		func(sess any, r *packet.Reader) {
			HandleLogin(sess.(*net.Session), r, deps)
		},
	)

	reg.Register(packet.C_OPCODE_SELECT_FIELD,
		[]packet.SessionState{packet.StateAuthenticated, packet.StateInField},
		func(sess any, r *packet.Reader) {
			HandleSelectField(sess.(*net.Session), r, deps)
		},
	)

	inFieldStates := []packet.SessionState{packet.StateInField}

	reg.Register(packet.C_OPCODE_RANGE, inFieldStates,
		func(sess any, r *packet.Reader) {
			HandleRange(sess.(*net.Session), r, deps)
		},
	)
	// A move sent just before the connection dropped still applies; its
	// reply is discarded with the session.
	reg.Register(packet.C_OPCODE_MOVE, []packet.SessionState{packet.StateInField, packet.StateDisconnecting},
		func(sess any, r *packet.Reader) {
			HandleMove(sess.(*net.Session), r, deps)
		},
	)
	reg.Register(packet.C_OPCODE_CELL, inFieldStates,
		func(sess any, r *packet.Reader) {
			HandleCell(sess.(*net.Session), r, deps)
		},
	)

	reg.Register(packet.C_OPCODE_QUIT,
		[]packet.SessionState{packet.StateHandshake, packet.StateAuthenticated, packet.StateInField, packet.StateDisconnecting},
		func(sess any, r *packet.Reader) {
			HandleQuit(sess.(*net.Session), r, deps)
		},
	)
}

// rangeMap returns the reusable range grid for battlefield b.
func (d *Deps) rangeMap(b *world.Battlefield) (*moverange.RangeMap, error) {
	if rm := d.ranges[b.ID]; rm != nil && rm.Terrain() == b.Terrain {
		return rm, nil
	}
	rm, err := moverange.New(b.Terrain)
	if err != nil {
		return nil, err
	}
	if d.ranges == nil {
		d.ranges = make(map[int16]*moverange.RangeMap)
	}
	d.ranges[b.ID] = rm
	return rm, nil
}

// calcRange computes u's range on b using the script-adjusted allowance and
// returns the grid together with the allowance used.
func (d *Deps) calcRange(b *world.Battlefield, u *world.Unit) (*moverange.RangeMap, int, error) {
	rm, err := d.rangeMap(b)
	if err != nil {
		return nil, 0, err
	}
	allowance := u.Move()
	if d.Scripting != nil {
		groundCost, _ := b.Terrain.CostAt(u.Position())
		allowance = d.Scripting.CalcMoveAllowance(scripting.MoveContext{
			UnitName:   u.Name(),
			BaseMove:   u.Move(),
			X:          u.Position().X,
			Y:          u.Position().Y,
			MapID:      int(b.ID),
			GroundCost: groundCost,
		})
	}
	rm.CalcFrom(u.Position(), allowance)
	return rm, allowance, nil
}

// sendError sends S_ERROR.
func sendError(sess *net.Session, code byte, msg string) {
	w := packet.NewWriterWithOpcode(packet.S_OPCODE_ERROR)
	w.WriteC(code)
	w.WriteS(msg)
	sess.Send(w.Bytes())
}

// field returns the battlefield the session selected, or nil.
func field(sess *net.Session, deps *Deps) *world.Battlefield {
	return deps.World.Battlefield(sess.FieldID)
}

func clampByte(v int) byte {
	return byte(min(max(v, 0), 0xFF))
}
