package handler

import (
	"context"

	"go.uber.org/zap"

	"github.com/ashvale/server/internal/ident"
	"github.com/ashvale/server/internal/net"
	"github.com/ashvale/server/internal/net/packet"
	"github.com/ashvale/server/internal/persist"
	"github.com/ashvale/server/internal/world"
)

// HandleShopList sends a merchant's wares: [npcIndex:H].
func HandleShopList(sess *net.Session, r *packet.Reader, deps *Deps) {
	c := deps.World.PlayerBySession(sess.ID)
	if c == nil || c.State() != world.Alive || c.Map() == nil {
		return
	}
	npc := c.Map().EntityByIndex(r.ReadH())
	if npc == nil || npc.Shop == nil || npc.State() != world.Alive {
		return
	}
	if !withinTalkRange(c, npc, deps.Config.Game.TalkRange) {
		return
	}

	w := packet.NewWriterWithOpcode(packet.S_OPCODE_SHOP_LIST)
	w.WriteH(npc.Index())
	w.WriteS(npc.Shop.Name)
	w.WriteC(byte(len(npc.Shop.Wares)))
	for _, ware := range npc.Shop.Wares {
		w.WriteD(ware.TemplateID)
		w.WriteS(ware.Name)
		w.WriteD(ware.Price)
	}
	sess.Send(w.Bytes())
}

// HandleShopBuy purchases from a merchant:
// [npcIndex:H][templateID:D][count:D]. The trade is logged before gold or
// items move; a failed log cancels the purchase.
func HandleShopBuy(sess *net.Session, r *packet.Reader, deps *Deps) {
	c := deps.World.PlayerBySession(sess.ID)
	if c == nil || c.State() != world.Alive || c.Map() == nil {
		return
	}
	npc := c.Map().EntityByIndex(r.ReadH())
	templateID := r.ReadD()
	count := r.ReadD()

	if npc == nil || npc.Shop == nil || npc.State() != world.Alive {
		return
	}
	if !withinTalkRange(c, npc, deps.Config.Game.TalkRange) {
		return
	}
	if count < 1 || count > 1000 {
		return
	}

	var ware *world.ShopWare
	for i := range npc.Shop.Wares {
		if npc.Shop.Wares[i].TemplateID == templateID {
			ware = &npc.Shop.Wares[i]
			break
		}
	}
	if ware == nil {
		return
	}

	total := int64(ware.Price) * int64(count)
	if total > int64(c.Gold) {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	// Only a brand-new stack needs a world id; merging into an existing
	// stack must not burn one.
	var existing *world.Item
	for _, have := range c.Inventory {
		if have.TemplateID == templateID {
			existing = have
			break
		}
	}
	var itemID ident.EntityID
	if existing == nil {
		var err error
		itemID, err = deps.IDs.GetNext(ctx)
		if err != nil {
			deps.Log.Error("id allocation failed", zap.Error(err))
			return
		}
	}
	if err := deps.ShopLog.Write(ctx, []persist.ShopTx{{
		CharID:     int32(c.ID),
		NPCID:      int32(npc.ID),
		TemplateID: templateID,
		Count:      count,
		GoldDelta:  -total,
	}}); err != nil {
		deps.Log.Error("shop log write failed, purchase cancelled", zap.Error(err))
		if existing == nil {
			deps.IDs.FreeID(itemID)
		}
		return
	}

	c.Gold -= int32(total)
	if existing != nil {
		existing.Count += count
	} else {
		c.Inventory = append(c.Inventory, &world.Item{
			ID:         itemID,
			TemplateID: templateID,
			Name:       ware.Name,
			Count:      count,
			Value:      ware.Value,
		})
	}
	c.Dirty = true

	deps.Log.Info("shop purchase",
		zap.String("player", c.Name),
		zap.Int32("template", templateID),
		zap.Int32("count", count),
		zap.Int64("gold", total))
}
