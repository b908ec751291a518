package system

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ashvale/server/internal/data"
	"github.com/ashvale/server/internal/dialog"
	"github.com/ashvale/server/internal/scripting"
	"github.com/ashvale/server/internal/world"
)

// Spawner instantiates NPCs from the spawn list at boot. Respawning NPCs
// re-enter through the world's respawn queue afterwards, so this runs
// exactly once.
type Spawner struct {
	world   *world.World
	npcs    *data.NPCTable
	shops   *data.ShopTable
	dialogs *dialog.Store
	ai      *AIRegistry
	lua     *scripting.Engine
	log     *zap.Logger
}

func NewSpawner(w *world.World, npcs *data.NPCTable, shops *data.ShopTable, dialogs *dialog.Store, ai *AIRegistry, lua *scripting.Engine, log *zap.Logger) *Spawner {
	return &Spawner{
		world:   w,
		npcs:    npcs,
		shops:   shops,
		dialogs: dialogs,
		ai:      ai,
		lua:     lua,
		log:     log,
	}
}

// SpawnAll places every spawn list entry. Entries referencing unknown
// templates or maps fail the boot: a silently missing NPC is worse than a
// refused start.
func (s *Spawner) SpawnAll(ctx context.Context, entries []data.SpawnEntry) error {
	total := 0
	for _, entry := range entries {
		tmpl := s.npcs.Get(entry.TemplateID)
		if tmpl == nil {
			return fmt.Errorf("spawn entry references unknown template %d", entry.TemplateID)
		}
		m := s.world.Map(world.MapID(entry.MapID))
		if m == nil {
			return fmt.Errorf("spawn entry for template %d references unknown map %d", entry.TemplateID, entry.MapID)
		}
		count := entry.Count
		if count < 1 {
			count = 1
		}
		for i := 0; i < count; i++ {
			if err := s.spawnOne(ctx, tmpl, entry, m); err != nil {
				return err
			}
			total++
		}
	}
	s.log.Info("npcs spawned", zap.Int("count", total))
	return nil
}

func (s *Spawner) spawnOne(ctx context.Context, tmpl *data.NPCTemplate, entry data.SpawnEntry, m *world.GameMap) error {
	id, err := s.world.IDs.GetNext(ctx)
	if err != nil {
		return fmt.Errorf("allocate npc id: %w", err)
	}

	rng := s.world.Rand()
	x := entry.X + (rng.Float32()*2-1)*entry.JitterX
	y := entry.Y + (rng.Float32()*2-1)*entry.JitterY

	spec := world.NPCSpec{
		Name:       tmpl.Name,
		TemplateID: tmpl.TemplateID,
		Alliance:   world.ParseAlliance(tmpl.Alliance),
		Body: world.BodyInfo{
			Width:    tmpl.BodyWidth,
			Height:   tmpl.BodyHeight,
			HitReach: tmpl.HitReach,
			Gfx:      tmpl.GfxID,
		},
		Stats: world.Stats{
			HP: tmpl.HP, MaxHP: tmpl.HP,
			MP: tmpl.MP, MaxMP: tmpl.MP,
			Attack: tmpl.Attack, Defense: tmpl.Defense,
		},
		AttackCooldownMS: world.GameTime(tmpl.AttackCooldown),
		AI:               s.ai.Build(tmpl, rng),
		Inventory:        s.rollDrops(ctx, tmpl),
	}
	if tmpl.DialogID > 0 {
		tree := s.dialogs.Get(dialog.TreeID(tmpl.DialogID))
		if tree == nil {
			return fmt.Errorf("template %d references unknown dialog %d", tmpl.TemplateID, tmpl.DialogID)
		}
		spec.ChatTree = tree
	}
	if tmpl.ShopID > 0 {
		shop := s.shops.Get(tmpl.ShopID)
		if shop == nil {
			return fmt.Errorf("template %d references unknown shop %d", tmpl.TemplateID, tmpl.ShopID)
		}
		spec.Shop = convertShop(shop)
	}
	if entry.RespawnDelay > 0 {
		spec.Respawn = &world.RespawnInfo{
			DelayMS: world.GameTime(entry.RespawnDelay) * 1000,
			MapID:   m.ID,
			X:       x,
			Y:       y,
		}
	}

	c := world.NewNPC(id, spec)
	c.RollLoot = func() []*world.Item {
		return s.rollDrops(context.Background(), tmpl)
	}
	s.world.Register(c)
	c.SetMap(s.world, m, x, y)

	if err := s.lua.CallSpawnHook(tmpl.Name, map[string]any{
		"npc_id":   int32(id),
		"template": tmpl.TemplateID,
		"map":      int16(m.ID),
		"x":        x,
		"y":        y,
	}); err != nil {
		s.log.Warn("spawn hook failed",
			zap.String("npc", tmpl.Name),
			zap.Error(err))
	}
	return nil
}

// rollDrops pre-rolls the loot an NPC will shed on death.
func (s *Spawner) rollDrops(ctx context.Context, tmpl *data.NPCTemplate) []*world.Item {
	rng := s.world.Rand()
	var items []*world.Item
	for _, d := range tmpl.Drops {
		if rng.Float64() > d.Chance {
			continue
		}
		count := d.CountMin
		if d.CountMax > d.CountMin {
			count += rng.Int31n(d.CountMax - d.CountMin + 1)
		}
		if count < 1 {
			continue
		}
		id, err := s.world.IDs.GetNext(ctx)
		if err != nil {
			s.log.Warn("drop id allocation failed", zap.Error(err))
			return items
		}
		items = append(items, &world.Item{
			ID:         id,
			TemplateID: d.TemplateID,
			Name:       d.Name,
			Count:      count,
		})
	}
	return items
}

func convertShop(src *data.Shop) *world.Shop {
	shop := &world.Shop{Name: src.Name}
	for _, it := range src.Items {
		shop.Wares = append(shop.Wares, world.ShopWare{
			TemplateID: it.TemplateID,
			Name:       it.Name,
			Price:      it.Price,
			Value:      it.Value,
		})
	}
	return shop
}
