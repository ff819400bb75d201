package handler

import (
	"context"
	"strings"
	"time"

	"github.com/l1jgo/slgmove/internal/net"
	"github.com/l1jgo/slgmove/internal/net/packet"
	"go.uber.org/zap"
)

// HandleLogin processes C_LOGIN.
// Format: [opcode][account\0][password\0]
func HandleLogin(sess *net.Session, r *packet.Reader, deps *Deps) {
	accountName := strings.ToLower(strings.TrimSpace(r.ReadS()))
	password := r.ReadS()
	if r.Truncated() || accountName == "" {
		sendLoginResult(sess, packet.LoginNoAccount)
		return
	}

	if deps.AccountRepo == nil {
		completeLogin(sess, accountName, deps)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	account, err := deps.AccountRepo.Load(ctx, accountName)
	if err != nil {
		deps.Log.Error("load account failed", zap.String("account", accountName), zap.Error(err))
		sendLoginResult(sess, packet.LoginInternal)
		return
	}

	if account == nil {
		if !deps.Config.Accounts.AutoCreate {
			sendLoginResult(sess, packet.LoginNoAccount)
			return
		}
		account, err = deps.AccountRepo.Create(ctx, accountName, password, sess.IP)
		if err != nil {
			deps.Log.Error("create account failed", zap.String("account", accountName), zap.Error(err))
			sendLoginResult(sess, packet.LoginInternal)
			return
		}
		deps.Log.Info("account created", zap.String("account", accountName))
	} else if !deps.AccountRepo.ValidatePassword(account.PasswordHash, password) {
		sendLoginResult(sess, packet.LoginBadPassword)
		return
	}

	if account.Banned {
		deps.Log.Info("banned account refused", zap.String("account", accountName))
		sendLoginResult(sess, packet.LoginBanned)
		return
	}
	if account.Online {
		sendLoginResult(sess, packet.LoginInUse)
		return
	}

	if err := deps.AccountRepo.SetOnline(ctx, accountName, true); err != nil {
		deps.Log.Error("set online failed", zap.String("account", accountName), zap.Error(err))
	}
	if err := deps.AccountRepo.UpdateLastActive(ctx, accountName, sess.IP); err != nil {
		deps.Log.Error("update last active failed", zap.String("account", accountName), zap.Error(err))
	}
	completeLogin(sess, accountName, deps)
}

func completeLogin(sess *net.Session, accountName string, deps *Deps) {
	sess.AccountName = accountName
	sess.SetState(packet.StateAuthenticated)
	sendLoginResult(sess, packet.LoginOK)
	deps.Log.Info("login ok",
		zap.Uint64("session", sess.ID),
		zap.String("account", accountName),
		zap.String("ip", sess.IP),
	)
}

// sendLoginResult sends S_LOGIN_RESULT.
func sendLoginResult(sess *net.Session, code byte) {
	w := packet.NewWriterWithOpcode(packet.S_OPCODE_LOGIN_RESULT)
	w.WriteC(code)
	sess.Send(w.Bytes())
}
