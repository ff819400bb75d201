package handler

import (
	gonet "net"
	"testing"

	"github.com/l1jgo/slgmove/internal/config"
	"github.com/l1jgo/slgmove/internal/core/event"
	"github.com/l1jgo/slgmove/internal/net"
	"github.com/l1jgo/slgmove/internal/net/packet"
	"github.com/l1jgo/slgmove/internal/scripting"
	"github.com/l1jgo/slgmove/internal/world"
	"go.uber.org/zap"
)

// 5x4 room: walls around a 3x2 floor of plain ground (cost 1).
var roomTypes = [][]int{
	{1, 1, 1, 1, 1},
	{1, 0, 0, 0, 1},
	{1, 0, 0, 0, 1},
	{1, 1, 1, 1, 1},
}

type fixture struct {
	deps     *Deps
	reg      *packet.Registry
	field    *world.Battlefield
	hoge     *world.Unit
	fuga     *world.Unit
	sessions *net.SessionStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	plain, _ := world.NewGround(1)
	wall, _ := world.NewGround(world.CostForbidden)
	terrain, err := world.NewTerrainMap(roomTypes, map[int]*world.Ground{0: plain, 1: wall})
	if err != nil {
		t.Fatal(err)
	}
	state := world.NewState()
	b := state.AddBattlefield(1, "room", terrain)

	hoge, _ := world.NewUnit(world.Position{X: 1, Y: 1}, 2, "hoge")
	fuga, _ := world.NewUnit(world.Position{X: 3, Y: 2}, 1, "fuga")
	for _, u := range []*world.Unit{hoge, fuga} {
		if err := state.PlaceUnit(1, u); err != nil {
			t.Fatal(err)
		}
	}

	engine, err := scripting.NewEngine(t.TempDir(), 99, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(engine.Close)

	deps := &Deps{
		Config:    config.Default(),
		Log:       zap.NewNop(),
		World:     state,
		Scripting: engine,
		Bus:       event.NewBus(),
		Sessions:  net.NewSessionStore(),
	}
	reg := packet.NewRegistry(zap.NewNop())
	RegisterAll(reg, deps)
	return &fixture{deps: deps, reg: reg, field: b, hoge: hoge, fuga: fuga, sessions: deps.Sessions}
}

var nextSessionID uint64

// newSession returns a session that is never started: replies stay on OutQueue.
func (f *fixture) newSession(t *testing.T, state packet.SessionState) *net.Session {
	t.Helper()
	server, client := gonet.Pipe()
	t.Cleanup(func() { server.Close(); client.Close() })
	nextSessionID++
	sess := net.NewSession(server, nextSessionID, net.SessionOptions{InQueueSize: 8, OutQueueSize: 32}, zap.NewNop())
	sess.SetState(state)
	if state == packet.StateInField {
		sess.FieldID = f.field.ID
	}
	f.sessions.Add(sess)
	return sess
}

func (f *fixture) dispatch(t *testing.T, sess *net.Session, w *packet.Writer) {
	t.Helper()
	if err := f.reg.Dispatch(sess, sess.State(), w.Bytes()); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
}

// replies flushes the session and returns every queued packet.
func replies(sess *net.Session) [][]byte {
	sess.FlushOutput()
	var out [][]byte
	for {
		select {
		case data := <-sess.OutQueue:
			out = append(out, data)
		default:
			return out
		}
	}
}

func onlyReply(t *testing.T, sess *net.Session, opcode byte) *packet.Reader {
	t.Helper()
	got := replies(sess)
	if len(got) != 1 {
		t.Fatalf("got %d replies, want 1", len(got))
	}
	r := packet.NewReader(got[0])
	if r.Opcode() != opcode {
		t.Fatalf("reply opcode = %d, want %d", r.Opcode(), opcode)
	}
	return r
}

func TestLoginWithoutDatabase(t *testing.T) {
	f := newFixture(t)
	sess := f.newSession(t, packet.StateHandshake)

	w := packet.NewWriterWithOpcode(packet.C_OPCODE_LOGIN)
	w.WriteS("Alice")
	w.WriteS("pw")
	f.dispatch(t, sess, w)

	r := onlyReply(t, sess, packet.S_OPCODE_LOGIN_RESULT)
	if code := r.ReadC(); code != packet.LoginOK {
		t.Errorf("code = %d", code)
	}
	if sess.State() != packet.StateAuthenticated || sess.AccountName != "alice" {
		t.Errorf("state=%s account=%q", sess.State(), sess.AccountName)
	}
}

func TestLoginRejectsEmptyAccount(t *testing.T) {
	f := newFixture(t)
	sess := f.newSession(t, packet.StateHandshake)
	w := packet.NewWriterWithOpcode(packet.C_OPCODE_LOGIN)
	w.WriteS("  ")
	w.WriteS("pw")
	f.dispatch(t, sess, w)

	r := onlyReply(t, sess, packet.S_OPCODE_LOGIN_RESULT)
	if code := r.ReadC(); code != packet.LoginNoAccount {
		t.Errorf("code = %d", code)
	}
	if sess.State() != packet.StateHandshake {
		t.Errorf("state = %s", sess.State())
	}
}

func TestSelectField(t *testing.T) {
	f := newFixture(t)
	sess := f.newSession(t, packet.StateAuthenticated)

	w := packet.NewWriterWithOpcode(packet.C_OPCODE_SELECT_FIELD)
	w.WriteH(1)
	f.dispatch(t, sess, w)

	r := onlyReply(t, sess, packet.S_OPCODE_FIELD)
	if id, width, height := r.ReadH(), r.ReadH(), r.ReadH(); id != 1 || width != 5 || height != 4 {
		t.Errorf("header = %d %dx%d", id, width, height)
	}
	if name := r.ReadS(); name != "room" {
		t.Errorf("name = %q", name)
	}
	if total := r.ReadD(); total != 2 {
		t.Fatalf("total = %d", total)
	}
	if n := r.ReadH(); n != 2 {
		t.Fatalf("unit count = %d", n)
	}
	// Units are listed by name.
	if name, x, y, move := r.ReadS(), r.ReadH(), r.ReadH(), r.ReadC(); name != "fuga" || x != 3 || y != 2 || move != 1 {
		t.Errorf("first unit = %s (%d,%d) %d", name, x, y, move)
	}
	if name := r.ReadS(); name != "hoge" {
		t.Errorf("second unit = %s", name)
	}
	if sess.State() != packet.StateInField || sess.FieldID != 1 {
		t.Errorf("state=%s field=%d", sess.State(), sess.FieldID)
	}
}

func TestSelectUnknownField(t *testing.T) {
	f := newFixture(t)
	sess := f.newSession(t, packet.StateAuthenticated)
	w := packet.NewWriterWithOpcode(packet.C_OPCODE_SELECT_FIELD)
	w.WriteH(42)
	f.dispatch(t, sess, w)

	r := onlyReply(t, sess, packet.S_OPCODE_ERROR)
	if code := r.ReadC(); code != packet.ErrCodeUnknownField {
		t.Errorf("code = %d", code)
	}
	if sess.State() != packet.StateAuthenticated {
		t.Errorf("state = %s", sess.State())
	}
}

func TestRangeRequest(t *testing.T) {
	f := newFixture(t)
	sess := f.newSession(t, packet.StateInField)
	var seen []event.RangeCalculated
	event.Subscribe(f.deps.Bus, func(e event.RangeCalculated) { seen = append(seen, e) })

	w := packet.NewWriterWithOpcode(packet.C_OPCODE_RANGE)
	w.WriteS("hoge")
	f.dispatch(t, sess, w)

	r := onlyReply(t, sess, packet.S_OPCODE_RANGE)
	if unit := r.ReadS(); unit != "hoge" {
		t.Errorf("unit = %q", unit)
	}
	// hoge at (1,1) with 2 moves; fuga blocks (3,2).
	want := []struct{ x, y, remain int }{
		{1, 1, 2}, {2, 1, 1}, {3, 1, 0},
		{1, 2, 1}, {2, 2, 0},
	}
	if total := int(r.ReadD()); total != len(want) {
		t.Fatalf("total = %d, want %d", total, len(want))
	}
	n := int(r.ReadH())
	if n != len(want) {
		t.Fatalf("cells = %d, want %d", n, len(want))
	}
	for i, c := range want {
		x, y, remain := int(r.ReadH()), int(r.ReadH()), int(r.ReadC())
		if x != c.x || y != c.y || remain != c.remain {
			t.Errorf("cell %d = (%d,%d) %d, want (%d,%d) %d", i, x, y, remain, c.x, c.y, c.remain)
		}
	}

	f.deps.Bus.SwapBuffers()
	f.deps.Bus.DispatchAll()
	if len(seen) != 1 || seen[0].Unit != "hoge" || seen[0].Cells != 5 || seen[0].Allowance != 2 {
		t.Errorf("events = %+v", seen)
	}
}

func TestRangeUnknownUnit(t *testing.T) {
	f := newFixture(t)
	sess := f.newSession(t, packet.StateInField)
	w := packet.NewWriterWithOpcode(packet.C_OPCODE_RANGE)
	w.WriteS("nobody")
	f.dispatch(t, sess, w)

	r := onlyReply(t, sess, packet.S_OPCODE_ERROR)
	if code := r.ReadC(); code != packet.ErrCodeUnknownUnit {
		t.Errorf("code = %d", code)
	}
}

func moveRequest(unit string, x, y uint16) *packet.Writer {
	w := packet.NewWriterWithOpcode(packet.C_OPCODE_MOVE)
	w.WriteS(unit)
	w.WriteH(x)
	w.WriteH(y)
	return w
}

func TestMoveAccepted(t *testing.T) {
	f := newFixture(t)
	sess := f.newSession(t, packet.StateInField)
	watcher := f.newSession(t, packet.StateInField)
	sess.AccountName = "alice"
	var moved []event.UnitMoved
	event.Subscribe(f.deps.Bus, func(e event.UnitMoved) { moved = append(moved, e) })

	f.dispatch(t, sess, moveRequest("hoge", 3, 1))

	r := onlyReply(t, sess, packet.S_OPCODE_MOVE_RESULT)
	if code, unit, x, y := r.ReadC(), r.ReadS(), r.ReadH(), r.ReadH(); code != packet.MoveOK || unit != "hoge" || x != 3 || y != 1 {
		t.Errorf("result = %d %s (%d,%d)", code, unit, x, y)
	}
	onlyReply(t, watcher, packet.S_OPCODE_MOVE_RESULT)

	if f.hoge.Position() != (world.Position{X: 3, Y: 1}) {
		t.Errorf("hoge at %s", f.hoge.Position())
	}
	if f.field.Terrain.FindUnitAt(world.Position{X: 3, Y: 1}) != f.hoge {
		t.Error("occupancy not updated")
	}
	if d := f.field.TakeDirty(); len(d) != 1 || d[0] != f.hoge {
		t.Errorf("dirty = %v", d)
	}

	f.deps.Bus.SwapBuffers()
	f.deps.Bus.DispatchAll()
	if len(moved) != 1 {
		t.Fatalf("events = %+v", moved)
	}
	e := moved[0]
	if e.Account != "alice" || e.FromX != 1 || e.FromY != 1 || e.ToX != 3 || e.ToY != 1 || e.Remaining != 0 {
		t.Errorf("event = %+v", e)
	}
}

func TestMoveRejected(t *testing.T) {
	cases := []struct {
		name   string
		unit   string
		x, y   uint16
		code   byte
		wantAt world.Position
	}{
		{"same cell", "hoge", 1, 1, packet.MoveSameCell, world.Position{X: 1, Y: 1}},
		{"too far", "fuga", 1, 1, packet.MoveUnreachable, world.Position{X: 3, Y: 2}},
		{"wall", "hoge", 0, 1, packet.MoveUnreachable, world.Position{X: 1, Y: 1}},
		{"occupied", "hoge", 3, 2, packet.MoveUnreachable, world.Position{X: 1, Y: 1}},
		{"outside map", "hoge", 40, 1, packet.MoveUnreachable, world.Position{X: 1, Y: 1}},
		{"unknown unit", "nobody", 2, 1, packet.MoveUnknownUnit, world.Position{X: 2, Y: 1}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			f := newFixture(t)
			sess := f.newSession(t, packet.StateInField)
			f.dispatch(t, sess, moveRequest(c.unit, c.x, c.y))

			r := onlyReply(t, sess, packet.S_OPCODE_MOVE_RESULT)
			code, unit, x, y := r.ReadC(), r.ReadS(), int(r.ReadH()), int(r.ReadH())
			if code != c.code || unit != c.unit || x != c.wantAt.X || y != c.wantAt.Y {
				t.Errorf("result = %d %s (%d,%d)", code, unit, x, y)
			}
			if d := f.field.TakeDirty(); d != nil {
				t.Errorf("rejected move marked %v dirty", d)
			}
			if f.deps.Bus.Pending() != 0 {
				t.Error("rejected move emitted an event")
			}
		})
	}
}

func TestMoveMalformed(t *testing.T) {
	f := newFixture(t)
	sess := f.newSession(t, packet.StateInField)
	w := packet.NewWriterWithOpcode(packet.C_OPCODE_MOVE)
	w.WriteS("hoge")
	w.WriteC(1)
	f.dispatch(t, sess, w)

	r := onlyReply(t, sess, packet.S_OPCODE_ERROR)
	if code := r.ReadC(); code != packet.ErrCodeMalformed {
		t.Errorf("code = %d", code)
	}
}

func TestCellQuery(t *testing.T) {
	cases := []struct {
		name     string
		x, y     uint16
		cost     int32
		occupant string
	}{
		{"plain", 2, 1, 1, ""},
		{"wall", 0, 0, -1, ""},
		{"occupied", 3, 2, 1, "fuga"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			f := newFixture(t)
			sess := f.newSession(t, packet.StateInField)
			w := packet.NewWriterWithOpcode(packet.C_OPCODE_CELL)
			w.WriteH(c.x)
			w.WriteH(c.y)
			f.dispatch(t, sess, w)

			r := onlyReply(t, sess, packet.S_OPCODE_CELL)
			x, y, cost, occupant := r.ReadH(), r.ReadH(), r.ReadD(), r.ReadS()
			if x != c.x || y != c.y || cost != c.cost || occupant != c.occupant {
				t.Errorf("cell = (%d,%d) cost %d occupant %q", x, y, cost, occupant)
			}
		})
	}
}

func TestCellOutOfRange(t *testing.T) {
	f := newFixture(t)
	sess := f.newSession(t, packet.StateInField)
	w := packet.NewWriterWithOpcode(packet.C_OPCODE_CELL)
	w.WriteH(5)
	w.WriteH(0)
	f.dispatch(t, sess, w)

	r := onlyReply(t, sess, packet.S_OPCODE_ERROR)
	if code := r.ReadC(); code != packet.ErrCodeOutOfRange {
		t.Errorf("code = %d", code)
	}
}

func TestStateGating(t *testing.T) {
	f := newFixture(t)
	sess := f.newSession(t, packet.StateAuthenticated)
	err := f.reg.Dispatch(sess, sess.State(), moveRequest("hoge", 2, 1).Bytes())
	if err == nil {
		t.Error("C_MOVE before selecting a field should be refused")
	}
	if f.hoge.Position() != (world.Position{X: 1, Y: 1}) {
		t.Error("refused move changed the unit")
	}
}

func TestMoveQueuedBeforeDisconnect(t *testing.T) {
	f := newFixture(t)
	sess := f.newSession(t, packet.StateInField)
	watcher := f.newSession(t, packet.StateInField)
	sess.Close()
	if sess.State() != packet.StateDisconnecting {
		t.Fatalf("state = %s", sess.State())
	}

	f.dispatch(t, sess, moveRequest("hoge", 3, 1))
	if f.hoge.Position() != (world.Position{X: 3, Y: 1}) {
		t.Errorf("hoge at %s, want the queued move applied", f.hoge.Position())
	}
	onlyReply(t, watcher, packet.S_OPCODE_MOVE_RESULT)
	if got := replies(sess); len(got) != 0 {
		t.Errorf("closed session got %d replies", len(got))
	}

	// Queries from a dropped session are not answered.
	w := packet.NewWriterWithOpcode(packet.C_OPCODE_RANGE)
	w.WriteS("hoge")
	if err := f.reg.Dispatch(sess, sess.State(), w.Bytes()); err == nil {
		t.Error("C_RANGE after disconnect should be refused")
	}
}

func TestQuit(t *testing.T) {
	f := newFixture(t)
	sess := f.newSession(t, packet.StateInField)
	f.dispatch(t, sess, packet.NewWriterWithOpcode(packet.C_OPCODE_QUIT))
	if !sess.IsClosed() {
		t.Error("quit should close the session")
	}
}
