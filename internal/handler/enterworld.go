package handler

import (
	"context"

	"go.uber.org/zap"

	"github.com/ashvale/server/internal/core/event"
	"github.com/ashvale/server/internal/ident"
	"github.com/ashvale/server/internal/net"
	"github.com/ashvale/server/internal/net/packet"
	"github.com/ashvale/server/internal/world"
)

// HandleEnterWorld loads the chosen character and places it in the world:
// [name\0].
func HandleEnterWorld(sess *net.Session, r *packet.Reader, deps *Deps) {
	name := r.ReadS()

	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	row, err := deps.CharRepo.LoadByName(ctx, name)
	if err != nil {
		deps.Log.Error("character load failed", zap.Error(err))
		sess.Close()
		return
	}
	if row == nil || row.AccountName != sess.AccountName {
		deps.Log.Warn("enter-world for foreign character",
			zap.String("account", sess.AccountName),
			zap.String("name", name))
		sess.Close()
		return
	}
	if deps.World.Character(ident.EntityID(row.ID)) != nil {
		deps.Log.Warn("character already in world", zap.String("name", name))
		sess.Close()
		return
	}

	m := deps.World.Map(world.MapID(row.MapID))
	if m == nil {
		// Saved on a map that no longer exists; fall back to start.
		m = deps.World.Map(world.MapID(deps.Config.Game.StartMapID))
		if m == nil {
			deps.Log.Error("start map missing")
			sess.Close()
			return
		}
		row.X = float64(deps.Config.Game.StartX)
		row.Y = float64(deps.Config.Game.StartY)
	}

	g := deps.Config.Game
	c := world.NewPlayer(ident.EntityID(row.ID), row.Name,
		world.Stats{
			HP: row.HP, MaxHP: row.MaxHP,
			MP: row.MP, MaxMP: row.MaxMP,
			Attack: row.Attack, Defense: row.Defense,
		},
		world.BodyInfo{
			Width:    g.PlayerBodyWidth,
			Height:   g.PlayerBodyHeight,
			HitReach: g.PlayerHitReach,
		},
		world.GameTime(g.AttackCooldownMS), sess)
	c.Heading = world.Heading(row.Heading)
	c.Gold = row.Gold

	items, err := deps.InvRepo.LoadByCharID(ctx, row.ID)
	if err != nil {
		deps.Log.Error("inventory load failed", zap.Error(err))
		sess.Close()
		return
	}
	for _, it := range items {
		c.Inventory = append(c.Inventory, &world.Item{
			ID:         ident.EntityID(it.ID),
			TemplateID: it.TemplateID,
			Name:       it.Name,
			Count:      it.Count,
			Value:      it.Value,
		})
	}

	deps.World.Register(c)
	deps.World.AttachSession(sess.ID, c)
	sess.CharName = c.Name
	sess.SetState(packet.StateInWorld)

	w := packet.NewWriterWithOpcode(packet.S_OPCODE_ENTER_WORLD)
	w.WriteD(int32(c.ID))
	w.WriteHS(int16(m.ID))
	w.WriteH(uint16(row.X))
	w.WriteH(uint16(row.Y))
	w.WriteD(c.Gold)
	sess.Send(w.Bytes())

	// Placement broadcasts the create packet and backfills everything the
	// player can already see.
	c.SetMap(deps.World, m, float32(row.X), float32(row.Y))

	event.Emit(deps.Bus, event.PlayerLoggedIn{
		EntityID:    c.ID,
		AccountName: sess.AccountName,
	})
	deps.Log.Info("enter world",
		zap.String("name", c.Name),
		zap.Int32("id", int32(c.ID)),
		zap.Int16("map", int16(m.ID)))
}
