package handler

import (
	"context"
	"strings"
	"unicode"

	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"github.com/ashvale/server/internal/net"
	"github.com/ashvale/server/internal/net/packet"
	"github.com/ashvale/server/internal/persist"
)

const (
	createOK          byte = 0
	createBadName     byte = 1
	createNameTaken   byte = 2
	createSlotsFull   byte = 3
	createServerError byte = 4
)

const maxNameLen = 16

// HandleCreateChar processes character creation: [name\0].
func HandleCreateChar(sess *net.Session, r *packet.Reader, deps *Deps) {
	name, ok := normalizeName(r.ReadS())
	if !ok {
		sendCreateResult(sess, createBadName)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	count, err := deps.CharRepo.CountByAccount(ctx, sess.AccountName)
	if err != nil {
		deps.Log.Error("character count failed", zap.Error(err))
		sendCreateResult(sess, createServerError)
		return
	}
	if count >= deps.Config.Game.MaxCharsPerAccount {
		sendCreateResult(sess, createSlotsFull)
		return
	}

	exists, err := deps.CharRepo.NameExists(ctx, name)
	if err != nil {
		deps.Log.Error("name lookup failed", zap.Error(err))
		sendCreateResult(sess, createServerError)
		return
	}
	if exists {
		sendCreateResult(sess, createNameTaken)
		return
	}

	id, err := deps.IDs.GetNext(ctx)
	if err != nil {
		deps.Log.Error("id allocation failed", zap.Error(err))
		sendCreateResult(sess, createServerError)
		return
	}

	g := deps.Config.Game
	row := &persist.CharacterRow{
		ID:          int32(id),
		AccountName: sess.AccountName,
		Name:        name,
		HP:          g.StartHP,
		MaxHP:       g.StartHP,
		MP:          g.StartMP,
		MaxMP:       g.StartMP,
		Attack:      g.StartAttack,
		Defense:     g.StartDefense,
		X:           float64(g.StartX),
		Y:           float64(g.StartY),
		MapID:       g.StartMapID,
		Gold:        g.StartGold,
	}
	if err := deps.CharRepo.Create(ctx, row); err != nil {
		deps.Log.Error("character insert failed", zap.Error(err))
		deps.IDs.FreeID(id)
		sendCreateResult(sess, createServerError)
		return
	}
	deps.IDs.MarkPersisted(id)

	sendCreateResult(sess, createOK)
	sendCharacterList(sess, deps)
	deps.Log.Info("character created",
		zap.String("account", sess.AccountName),
		zap.String("name", name),
		zap.Int32("id", int32(id)))
}

// normalizeName applies NFKC so visually identical names collide instead
// of coexisting, then validates length and charset.
func normalizeName(raw string) (string, bool) {
	name := norm.NFKC.String(strings.TrimSpace(raw))
	if n := len([]rune(name)); n < 2 || n > maxNameLen {
		return "", false
	}
	for _, r := range name {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return "", false
		}
	}
	return name, true
}

func sendCreateResult(sess *net.Session, code byte) {
	w := packet.NewWriterWithOpcode(packet.S_OPCODE_CREATE_RESULT)
	w.WriteC(code)
	sess.Send(w.Bytes())
}
