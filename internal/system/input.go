package system

import (
	"context"
	"time"

	coresys "github.com/l1jgo/slgmove/internal/core/system"
	"github.com/l1jgo/slgmove/internal/net"
	"github.com/l1jgo/slgmove/internal/net/packet"
	"go.uber.org/zap"
)

// SessionSource hands new and dead sessions to the game loop.
type SessionSource interface {
	NewSessions() <-chan *net.Session
	DeadSessions() <-chan uint64
	NotifyDead(sessionID uint64)
}

// OnlineMarker records account presence. Nil when running without a database.
type OnlineMarker interface {
	SetOnline(ctx context.Context, name string, online bool) error
}

// InputSystem drains packet queues from all sessions and dispatches them
// through the packet registry. Phase 0 (Input).
type InputSystem struct {
	source     SessionSource
	registry   *packet.Registry
	store      *net.SessionStore
	accounts   OnlineMarker
	maxPerTick int
	log        *zap.Logger
}

func NewInputSystem(
	source SessionSource,
	registry *packet.Registry,
	store *net.SessionStore,
	accounts OnlineMarker,
	maxPerTick int,
	log *zap.Logger,
) *InputSystem {
	return &InputSystem{
		source:     source,
		registry:   registry,
		store:      store,
		accounts:   accounts,
		maxPerTick: maxPerTick,
		log:        log,
	}
}

func (s *InputSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *InputSystem) Update(_ time.Duration) {
	s.acceptNew()
	s.dropDead()

	s.store.ForEach(func(sess *net.Session) {
		if sess.IsClosed() {
			// Packets queued before the disconnect still reach handlers that
			// accept the Disconnecting state (moves and quit); the rest are
			// refused by the registry.
			s.drain(sess)
			sess.FlushOutput()
			s.handleDisconnect(sess)
			s.source.NotifyDead(sess.ID)
			s.store.Remove(sess.ID)
			return
		}
		s.drain(sess)
	})
}

func (s *InputSystem) acceptNew() {
	for {
		select {
		case sess := <-s.source.NewSessions():
			s.store.Add(sess)
		default:
			return
		}
	}
}

func (s *InputSystem) dropDead() {
	for {
		select {
		case id := <-s.source.DeadSessions():
			s.store.Remove(id)
		default:
			return
		}
	}
}

// drain dispatches up to maxPerTick queued packets of one session.
func (s *InputSystem) drain(sess *net.Session) {
	for i := 0; i < s.maxPerTick; i++ {
		select {
		case data := <-sess.InQueue:
			if err := s.registry.Dispatch(sess, sess.State(), data); err != nil {
				s.log.Debug("packet dispatch error",
					zap.Uint64("session", sess.ID),
					zap.Error(err),
				)
			}
		default:
			return
		}
	}
}

// handleDisconnect marks the account offline. Units stay deployed: they
// belong to the battlefield, not the connection.
func (s *InputSystem) handleDisconnect(sess *net.Session) {
	s.log.Info("session closed",
		zap.Uint64("session", sess.ID),
		zap.String("account", sess.AccountName),
	)
	if sess.AccountName == "" || s.accounts == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.accounts.SetOnline(ctx, sess.AccountName, false); err != nil {
		s.log.Error("mark offline failed", zap.String("account", sess.AccountName), zap.Error(err))
	}
}

// SessionCount returns the current number of active sessions.
func (s *InputSystem) SessionCount() int {
	return s.store.Count()
}
