package net

import (
	"errors"
	"net"
	"sync/atomic"

	"go.uber.org/zap"
)

// Server accepts client connections for the game loop. Sessions are handed
// over on NewSessions; the loop reports finished ones back through NotifyDead.
type Server struct {
	listener    net.Listener
	opts        SessionOptions
	maxSessions int64 // 0 = unlimited
	log         *zap.Logger

	nextID atomic.Uint64
	live   atomic.Int64

	newConns chan *Session
	deadCh   chan uint64
	closing  atomic.Bool
}

// NewServer listens on bindAddr. maxSessions caps concurrent clients; extra
// connections are closed right after accept.
func NewServer(bindAddr string, opts SessionOptions, maxSessions int, log *zap.Logger) (*Server, error) {
	ln, err := net.Listen("tcp", bindAddr)
	if err != nil {
		return nil, err
	}
	return &Server{
		listener:    ln,
		opts:        opts,
		maxSessions: int64(max(maxSessions, 0)),
		log:         log,
		newConns:    make(chan *Session, 64),
		deadCh:      make(chan uint64, 64),
	}, nil
}

// AcceptLoop runs in its own goroutine until Shutdown.
func (s *Server) AcceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.closing.Load() || errors.Is(err, net.ErrClosed) {
				return
			}
			s.log.Error("accept failed", zap.Error(err))
			continue
		}

		if s.maxSessions > 0 && s.live.Load() >= s.maxSessions {
			s.log.Warn("session limit reached, rejecting client",
				zap.String("remote", conn.RemoteAddr().String()),
				zap.Int64("limit", s.maxSessions),
			)
			conn.Close()
			continue
		}

		id := s.nextID.Add(1)
		sess := NewSession(conn, id, s.opts, s.log)
		sess.Start()
		s.live.Add(1)

		select {
		case s.newConns <- sess:
			s.log.Info("client connected", zap.Uint64("session", id), zap.String("ip", sess.IP))
		default:
			s.log.Warn("connection queue full, rejecting client", zap.Uint64("session", id))
			sess.Close()
			s.live.Add(-1)
		}
	}
}

// NewSessions returns the channel of newly connected sessions.
func (s *Server) NewSessions() <-chan *Session {
	return s.newConns
}

// NotifyDead releases the slot held by a finished session.
func (s *Server) NotifyDead(sessionID uint64) {
	s.live.Add(-1)
	select {
	case s.deadCh <- sessionID:
	default:
	}
}

// DeadSessions returns the channel of finished session IDs.
func (s *Server) DeadSessions() <-chan uint64 {
	return s.deadCh
}

// Live returns the number of sessions holding a slot.
func (s *Server) Live() int {
	return int(s.live.Load())
}

// Shutdown stops accepting new connections. Existing sessions stay open.
func (s *Server) Shutdown() {
	if s.closing.Swap(true) {
		return
	}
	s.listener.Close()
}

func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}
