package handler

import (
	"go.uber.org/zap"

	"github.com/ashvale/server/internal/config"
	"github.com/ashvale/server/internal/core/event"
	"github.com/ashvale/server/internal/data"
	"github.com/ashvale/server/internal/dialog"
	"github.com/ashvale/server/internal/ident"
	"github.com/ashvale/server/internal/net"
	"github.com/ashvale/server/internal/net/packet"
	"github.com/ashvale/server/internal/persist"
	"github.com/ashvale/server/internal/scripting"
	"github.com/ashvale/server/internal/world"
)

// Deps holds shared dependencies injected into all packet handlers.
type Deps struct {
	AccountRepo *persist.AccountRepo
	CharRepo    *persist.CharacterRepo
	InvRepo     *persist.InventoryRepo
	ShopLog     *persist.ShopLogRepo

	IDs       *ident.Allocator
	Config    *config.Config
	Log       *zap.Logger
	World     *world.World
	Scripting *scripting.Engine
	Bus       *event.Bus

	NPCs    *data.NPCTable
	Shops   *data.ShopTable
	Dialogs *dialog.Store
}

// RegisterAll registers all packet handlers into the registry.
func RegisterAll(reg *packet.Registry, deps *Deps) {
	reg.Register(packet.C_OPCODE_LOGIN,
		[]packet.SessionState{packet.StateHandshake},
		func(sess any, r *packet.Reader) {
			HandleLogin(sess.(*net.Session), r, deps)
		},
	)

	authStates := []packet.SessionState{packet.StateAuthenticated}

	reg.Register(packet.C_OPCODE_CREATE_CHAR, authStates,
		func(sess any, r *packet.Reader) {
			HandleCreateChar(sess.(*net.Session), r, deps)
		},
	)
	reg.Register(packet.C_OPCODE_ENTER_WORLD, authStates,
		func(sess any, r *packet.Reader) {
			HandleEnterWorld(sess.(*net.Session), r, deps)
		},
	)

	inWorld := []packet.SessionState{packet.StateInWorld}

	reg.Register(packet.C_OPCODE_MOVE, inWorld,
		func(sess any, r *packet.Reader) {
			HandleMove(sess.(*net.Session), r, deps)
		},
	)
	reg.Register(packet.C_OPCODE_ATTACK, inWorld,
		func(sess any, r *packet.Reader) {
			HandleAttack(sess.(*net.Session), r, deps)
		},
	)
	reg.Register(packet.C_OPCODE_CHAT, inWorld,
		func(sess any, r *packet.Reader) {
			HandleChat(sess.(*net.Session), r, deps)
		},
	)
	reg.Register(packet.C_OPCODE_DIALOG_START, inWorld,
		func(sess any, r *packet.Reader) {
			HandleDialogStart(sess.(*net.Session), r, deps)
		},
	)
	reg.Register(packet.C_OPCODE_DIALOG_SELECT, inWorld,
		func(sess any, r *packet.Reader) {
			HandleDialogSelect(sess.(*net.Session), r, deps)
		},
	)
	reg.Register(packet.C_OPCODE_SHOP_LIST, inWorld,
		func(sess any, r *packet.Reader) {
			HandleShopList(sess.(*net.Session), r, deps)
		},
	)
	reg.Register(packet.C_OPCODE_SHOP_BUY, inWorld,
		func(sess any, r *packet.Reader) {
			HandleShopBuy(sess.(*net.Session), r, deps)
		},
	)
	reg.Register(packet.C_OPCODE_PICKUP, inWorld,
		func(sess any, r *packet.Reader) {
			HandlePickup(sess.(*net.Session), r, deps)
		},
	)
	reg.Register(packet.C_OPCODE_QUIT,
		[]packet.SessionState{packet.StateAuthenticated, packet.StateInWorld},
		func(sess any, r *packet.Reader) {
			HandleQuit(sess.(*net.Session), r, deps)
		},
	)
}
