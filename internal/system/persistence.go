package system

import (
	"context"
	"time"

	"github.com/l1jgo/slgmove/internal/core/event"
	coresys "github.com/l1jgo/slgmove/internal/core/system"
	"github.com/l1jgo/slgmove/internal/persist"
	"github.com/l1jgo/slgmove/internal/world"
	"go.uber.org/zap"
)

// PositionSaver stores unit positions.
type PositionSaver interface {
	SavePositions(ctx context.Context, positions []persist.UnitPosition) error
}

// MoveLogWriter stores accepted moves.
type MoveLogWriter interface {
	WriteBatch(ctx context.Context, records []persist.MoveRecord) error
}

// PersistenceSystem periodically writes queued moves to the move log and the
// positions of moved units. Phase 4 (Persist).
type PersistenceSystem struct {
	world     *world.State
	positions PositionSaver
	moves     MoveLogWriter
	log       *zap.Logger
	tickCount int
	interval  int // save every N ticks

	pendingMoves     []persist.MoveRecord
	pendingPositions map[positionKey]persist.UnitPosition
}

type positionKey struct {
	mapID int16
	name  string
}

func NewPersistenceSystem(ws *world.State, bus *event.Bus, positions PositionSaver, moves MoveLogWriter, log *zap.Logger, intervalTicks int) *PersistenceSystem {
	s := &PersistenceSystem{
		world:            ws,
		positions:        positions,
		moves:            moves,
		log:              log,
		interval:         intervalTicks,
		pendingPositions: make(map[positionKey]persist.UnitPosition),
	}
	event.Subscribe(bus, func(e event.UnitMoved) {
		s.pendingMoves = append(s.pendingMoves, persist.MoveRecord{
			MapID:     e.FieldID,
			Unit:      e.Unit,
			Account:   e.Account,
			FromX:     e.FromX,
			FromY:     e.FromY,
			ToX:       e.ToX,
			ToY:       e.ToY,
			Remaining: e.Remaining,
		})
	})
	return s
}

func (s *PersistenceSystem) Phase() coresys.Phase { return coresys.PhasePersist }

func (s *PersistenceSystem) Update(_ time.Duration) {
	s.tickCount++
	if s.tickCount < s.interval {
		return
	}
	s.tickCount = 0
	s.Flush()
}

// Flush writes everything queued so far. Called on the interval and once
// more on graceful shutdown. Failed batches stay queued for the next flush.
func (s *PersistenceSystem) Flush() {
	s.collectDirty()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if len(s.pendingMoves) > 0 {
		if err := s.moves.WriteBatch(ctx, s.pendingMoves); err != nil {
			s.log.Error("move log flush failed", zap.Int("moves", len(s.pendingMoves)), zap.Error(err))
		} else {
			s.log.Debug("move log flushed", zap.Int("moves", len(s.pendingMoves)))
			s.pendingMoves = s.pendingMoves[:0]
		}
	}

	if len(s.pendingPositions) > 0 {
		batch := make([]persist.UnitPosition, 0, len(s.pendingPositions))
		s.world.AllBattlefields(func(b *world.Battlefield) {
			for _, u := range b.Units() {
				if p, ok := s.pendingPositions[positionKey{b.ID, u.Name()}]; ok {
					batch = append(batch, p)
				}
			}
		})
		if err := s.positions.SavePositions(ctx, batch); err != nil {
			s.log.Error("position flush failed", zap.Int("units", len(batch)), zap.Error(err))
			return
		}
		clear(s.pendingPositions)
		s.log.Debug("positions flushed", zap.Int("units", len(batch)))
	}
}

// collectDirty snapshots the current cell of every unit moved since the
// last collection. A later move of the same unit overwrites the snapshot.
func (s *PersistenceSystem) collectDirty() {
	s.world.AllBattlefields(func(b *world.Battlefield) {
		for _, u := range b.TakeDirty() {
			s.pendingPositions[positionKey{b.ID, u.Name()}] = persist.UnitPosition{
				MapID: b.ID,
				Name:  u.Name(),
				X:     u.Position().X,
				Y:     u.Position().Y,
			}
		}
	})
}

// Pending returns the number of queued moves and unit positions.
func (s *PersistenceSystem) Pending() (moves, positions int) {
	return len(s.pendingMoves), len(s.pendingPositions)
}
