package handler

import (
	"github.com/l1jgo/slgmove/internal/net"
	"github.com/l1jgo/slgmove/internal/net/packet"
	"go.uber.org/zap"
)

// HandleQuit processes C_QUIT. InputSystem does the cleanup once the
// session is seen closed.
func HandleQuit(sess *net.Session, _ *packet.Reader, deps *Deps) {
	deps.Log.Info("client quit",
		zap.Uint64("session", sess.ID),
		zap.String("account", sess.AccountName),
	)
	sess.Close()
}
