package system

import (
	"time"

	"github.com/l1jgo/slgmove/internal/core/event"
	coresys "github.com/l1jgo/slgmove/internal/core/system"
	"go.uber.org/zap"
)

// EventSystem delivers the events emitted during the previous tick. Phase 1 (Events).
type EventSystem struct {
	bus *event.Bus
	log *zap.Logger
}

func NewEventSystem(bus *event.Bus, log *zap.Logger) *EventSystem {
	s := &EventSystem{bus: bus, log: log}
	event.Subscribe(bus, func(e event.RangeCalculated) {
		s.log.Debug("range calculated",
			zap.Int16("map", e.FieldID),
			zap.String("unit", e.Unit),
			zap.Int("allowance", e.Allowance),
			zap.Int("cells", e.Cells),
		)
	})
	event.Subscribe(bus, func(e event.UnitMoved) {
		s.log.Info("unit moved",
			zap.Int16("map", e.FieldID),
			zap.String("unit", e.Unit),
			zap.String("account", e.Account),
			zap.Int("from_x", e.FromX), zap.Int("from_y", e.FromY),
			zap.Int("to_x", e.ToX), zap.Int("to_y", e.ToY),
		)
	})
	return s
}

func (s *EventSystem) Phase() coresys.Phase { return coresys.PhaseEvents }

func (s *EventSystem) Update(_ time.Duration) {
	s.bus.SwapBuffers()
	s.bus.DispatchAll()
}
