package system

import (
	"context"
	"time"

	"go.uber.org/zap"

	coresys "github.com/ashvale/server/internal/core/system"
	"github.com/ashvale/server/internal/persist"
	"github.com/ashvale/server/internal/world"
)

// PersistenceSystem batches dirty player state to the database every N
// ticks. Phase 5 (Persist).
type PersistenceSystem struct {
	world     *world.World
	charRepo  *persist.CharacterRepo
	invRepo   *persist.InventoryRepo
	log       *zap.Logger
	tickCount int
	interval  int
}

func NewPersistenceSystem(w *world.World, charRepo *persist.CharacterRepo, invRepo *persist.InventoryRepo, intervalTicks int, log *zap.Logger) *PersistenceSystem {
	if intervalTicks < 1 {
		intervalTicks = 1
	}
	return &PersistenceSystem{
		world:    w,
		charRepo: charRepo,
		invRepo:  invRepo,
		interval: intervalTicks,
		log:      log,
	}
}

func (s *PersistenceSystem) Phase() coresys.Phase { return coresys.PhasePersist }

func (s *PersistenceSystem) Update(_ time.Duration) {
	s.tickCount++
	if s.tickCount < s.interval {
		return
	}
	s.tickCount = 0
	s.savePlayers(true)
}

// SaveAllPlayers persists every online player regardless of dirty flags.
// Called on graceful shutdown.
func (s *PersistenceSystem) SaveAllPlayers() {
	s.savePlayers(false)
}

// SavePlayer persists one player immediately (logout path).
func (s *PersistenceSystem) SavePlayer(c *world.Character) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.saveOne(ctx, c)
}

func (s *PersistenceSystem) savePlayers(dirtyOnly bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var rows []persist.CharacterRow
	var saved []*world.Character
	for _, c := range s.world.Players() {
		if dirtyOnly && !c.Dirty {
			continue
		}
		rows = append(rows, playerRow(c))
		saved = append(saved, c)
	}
	if len(rows) == 0 {
		return
	}
	if err := s.charRepo.SaveBatch(ctx, rows); err != nil {
		// Dirty flags stay set; the whole batch retries next flush.
		s.log.Error("character batch save failed", zap.Error(err))
		return
	}
	for _, c := range saved {
		if err := s.invRepo.SaveInventory(ctx, int32(c.ID), itemRows(c)); err != nil {
			s.log.Error("inventory save failed",
				zap.Int32("char", int32(c.ID)),
				zap.Error(err))
			continue
		}
		s.markItemsPersisted(c)
		c.Dirty = false
	}
	s.log.Debug("players saved", zap.Int("count", len(saved)))
}

func (s *PersistenceSystem) saveOne(ctx context.Context, c *world.Character) {
	if err := s.charRepo.SaveBatch(ctx, []persist.CharacterRow{playerRow(c)}); err != nil {
		s.log.Error("character save failed",
			zap.Int32("char", int32(c.ID)),
			zap.Error(err))
		return
	}
	if err := s.invRepo.SaveInventory(ctx, int32(c.ID), itemRows(c)); err != nil {
		s.log.Error("inventory save failed",
			zap.Int32("char", int32(c.ID)),
			zap.Error(err))
		return
	}
	s.markItemsPersisted(c)
	c.Dirty = false
}

// markItemsPersisted tells the allocator these item ids are now reserved
// by rows, so the issued-set no longer needs to shield them from the scan.
func (s *PersistenceSystem) markItemsPersisted(c *world.Character) {
	for _, it := range c.Inventory {
		s.world.IDs.MarkPersisted(it.ID)
	}
}

func playerRow(c *world.Character) persist.CharacterRow {
	mapID := int16(0)
	if m := c.Map(); m != nil {
		mapID = int16(m.ID)
	}
	return persist.CharacterRow{
		ID:      int32(c.ID),
		Name:    c.Name,
		HP:      c.Stats.HP,
		MaxHP:   c.Stats.MaxHP,
		MP:      c.Stats.MP,
		MaxMP:   c.Stats.MaxMP,
		Attack:  c.Stats.Attack,
		Defense: c.Stats.Defense,
		X:       float64(c.X),
		Y:       float64(c.Y),
		MapID:   mapID,
		Heading: int16(c.Heading),
		Gold:    c.Gold,
	}
}

func itemRows(c *world.Character) []persist.ItemRow {
	rows := make([]persist.ItemRow, 0, len(c.Inventory))
	for _, it := range c.Inventory {
		rows = append(rows, persist.ItemRow{
			ID:         int32(it.ID),
			CharID:     int32(c.ID),
			TemplateID: it.TemplateID,
			Name:       it.Name,
			Count:      it.Count,
			Value:      it.Value,
		})
	}
	return rows
}
