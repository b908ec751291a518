package handler

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ashvale/server/internal/net"
	"github.com/ashvale/server/internal/net/packet"
)

const (
	loginOK          byte = 0
	loginWrongPass   byte = 1
	loginNoAccount   byte = 2
	loginBanned      byte = 3
	loginAlreadyOn   byte = 4
	loginServerError byte = 5
)

const dbTimeout = 5 * time.Second

// HandleLogin processes the login packet: [account\0][password\0].
func HandleLogin(sess *net.Session, r *packet.Reader, deps *Deps) {
	accountName := strings.ToLower(strings.TrimSpace(r.ReadS()))
	password := r.ReadS()
	if accountName == "" || password == "" {
		sendLoginResult(sess, loginWrongPass)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	account, err := deps.AccountRepo.Load(ctx, accountName)
	if err != nil {
		deps.Log.Error("account load failed", zap.Error(err))
		sendLoginResult(sess, loginServerError)
		return
	}

	if account == nil {
		if !deps.Config.Game.AutoCreateAccounts {
			sendLoginResult(sess, loginNoAccount)
			return
		}
		account, err = deps.AccountRepo.Create(ctx, accountName, password, sess.IP)
		if err != nil {
			deps.Log.Error("account create failed", zap.Error(err))
			sendLoginResult(sess, loginServerError)
			return
		}
		deps.Log.Info("account auto-created", zap.String("account", accountName))
	} else {
		if account.Banned {
			sendLoginResult(sess, loginBanned)
			return
		}
		if account.Online {
			sendLoginResult(sess, loginAlreadyOn)
			return
		}
		if !deps.AccountRepo.ValidatePassword(account.PasswordHash, password) {
			sendLoginResult(sess, loginWrongPass)
			return
		}
	}

	if err := deps.AccountRepo.SetOnline(ctx, accountName, true); err != nil {
		deps.Log.Warn("online flag update failed", zap.Error(err))
	}
	if err := deps.AccountRepo.UpdateLastActive(ctx, accountName, sess.IP); err != nil {
		deps.Log.Warn("last-active update failed", zap.Error(err))
	}

	sess.AccountName = accountName
	sess.SetState(packet.StateAuthenticated)
	sendLoginResult(sess, loginOK)
	sendCharacterList(sess, deps)

	deps.Log.Info("login", zap.String("account", accountName), zap.String("ip", sess.IP))
}

func sendLoginResult(sess *net.Session, code byte) {
	w := packet.NewWriterWithOpcode(packet.S_OPCODE_LOGIN_RESULT)
	w.WriteC(code)
	sess.Send(w.Bytes())
}

// sendCharacterList appends the account's characters to the login result
// stream so the client can pick one for enter-world.
func sendCharacterList(sess *net.Session, deps *Deps) {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	chars, err := deps.CharRepo.LoadByAccount(ctx, sess.AccountName)
	if err != nil {
		deps.Log.Error("character list load failed", zap.Error(err))
		return
	}
	w := packet.NewWriterWithOpcode(packet.S_OPCODE_CHAR_LIST)
	w.WriteC(byte(len(chars)))
	for _, c := range chars {
		w.WriteS(c.Name)
		w.WriteD(c.HP)
		w.WriteD(c.MaxHP)
		w.WriteHS(c.MapID)
	}
	sess.Send(w.Bytes())
}
