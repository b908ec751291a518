package world

import (
	"go.uber.org/zap"

	"github.com/ashvale/server/internal/dialog"
	"github.com/ashvale/server/internal/ident"
	"github.com/ashvale/server/internal/net/packet"
)

// LifeState tracks an entity through its lifecycle. Transitions only move
// forward except for Alive <-> DeadPendingRespawn on respawning NPCs.
type LifeState byte

const (
	// Loading: identity assigned, not yet placed on a map. Excluded from
	// combat, AI and broadcast.
	Loading LifeState = iota
	// Alive: placed on a map and participating in the simulation.
	Alive
	// DeadPendingRespawn: killed, invisible, waiting for its respawn time.
	DeadPendingRespawn
	// Disposed: permanently removed. The identity may be recycled after
	// the cleanup pass runs.
	Disposed
)

func (s LifeState) String() string {
	switch s {
	case Loading:
		return "loading"
	case Alive:
		return "alive"
	case DeadPendingRespawn:
		return "dead"
	case Disposed:
		return "disposed"
	default:
		return "unknown"
	}
}

// BodyInfo is static per-template geometry used for collision and the
// attack rectangle.
type BodyInfo struct {
	Width    float32
	Height   float32
	HitReach float32
	Gfx      int32
}

// Stats are the integer combat attributes. HP/MP never exceed their max.
type Stats struct {
	HP      int32
	MaxHP   int32
	MP      int32
	MaxMP   int32
	Attack  int32
	Defense int32
}

// AIDriver is implemented by NPC behavior strategies. Update runs once per
// tick on the game loop.
type AIDriver interface {
	Name() string
	Update(w *World, c *Character)
}

// RespawnInfo makes a dead NPC come back instead of being disposed.
type RespawnInfo struct {
	DelayMS GameTime
	MapID   MapID
	X, Y    float32
}

// Shop is the stock an NPC merchant sells and buys.
type Shop struct {
	Name  string
	Wares []ShopWare
}

// ShopWare is one purchasable line in a shop.
type ShopWare struct {
	TemplateID int32
	Name       string
	Price      int32
	Value      int32 // resale value when the shop buys it back
}

// Character is any live entity in the world: players and NPCs share the
// same struct, NPCs differing only by which capability fields are set.
type Character struct {
	ID       ident.EntityID
	Name     string
	Alliance Alliance
	Body     BodyInfo
	Stats    Stats

	TemplateID int32 // NPC template; 0 for players and unique NPCs

	X, Y       float32
	VelX, VelY float32
	Heading    Heading

	// index is the per-map transmission index, valid only while placed.
	index uint16
	m     *GameMap

	state LifeState
	epoch uint32

	lastSent NetState
	hasSent  bool

	lastAttack GameTime
	hasSwung   bool
	// AttackCooldownMS gates Attack; a second swing inside the window is
	// ignored without error.
	AttackCooldownMS GameTime

	// Session is nil for NPCs.
	Session Sender

	// NPC capabilities. A nil field means the NPC lacks that behavior.
	AI       AIDriver
	ChatTree *dialog.Tree
	Shop     *Shop
	Respawn  *RespawnInfo

	// ActiveDialog is the dialog session a player is currently in, with
	// the NPC that owns it.
	ActiveDialog    *dialog.Session
	ActiveDialogNPC *Character

	respawnAt GameTime

	Inventory []*Item
	Gold      int32
	// RollLoot, when set, restocks the inventory on respawn.
	RollLoot func() []*Item

	// Dirty marks player state changed since the last persistence batch.
	Dirty bool
	// Persistent means the world id is backed by a database row and must
	// not be released to the allocator on disposal.
	Persistent bool
}

// Sender delivers an outbound packet to a client. Satisfied by
// net.Session; tests substitute a recorder.
type Sender interface {
	Send(data []byte)
	IsClosed() bool
}

// State returns the current lifecycle state.
func (c *Character) State() LifeState { return c.state }

// Epoch returns the validity generation. It is bumped on death and on
// disposal so stale dialog sessions stop acting on the entity.
func (c *Character) Epoch() uint32 { return c.epoch }

// Index returns the per-map transmission index, or 0 when not placed.
func (c *Character) Index() uint16 { return c.index }

// Map returns the map the character is placed on, or nil.
func (c *Character) Map() *GameMap { return c.m }

// IsPlayer reports whether the character is driven by a client session.
func (c *Character) IsPlayer() bool { return c.Session != nil }

// BodyRect returns the collision rectangle centered on the position.
func (c *Character) BodyRect() Rect {
	return Rect{
		X: c.X - c.Body.Width/2,
		Y: c.Y - c.Body.Height/2,
		W: c.Body.Width,
		H: c.Body.Height,
	}
}

// HitRect is the body rectangle extended by HitReach in the facing
// direction. Computed from static body metadata, never from animation.
func (c *Character) HitRect() Rect {
	r := c.BodyRect()
	dx, dy := c.Heading.Offset()
	reach := c.Body.HitReach
	if dx > 0 {
		r.W += reach
	} else if dx < 0 {
		r.X -= reach
		r.W += reach
	}
	if dy > 0 {
		r.H += reach
	} else if dy < 0 {
		r.Y -= reach
		r.H += reach
	}
	return r
}

// SetMap places the character on a map at (x, y), removing it from its
// current map first. Placing onto the map it is already on indicates a
// caller bug.
func (c *Character) SetMap(w *World, m *GameMap, x, y float32) {
	if c.m == m && m != nil {
		w.log.DPanic("entity placed on map it already occupies",
			zap.Int32("id", int32(c.ID)),
			zap.Int16("map", int16(m.ID)))
		return
	}
	if c.m != nil {
		c.m.RemoveEntity(c)
	}
	c.X, c.Y = x, y
	c.VelX, c.VelY = 0, 0
	if m != nil {
		m.AddEntity(c)
	}
	if c.state == Loading {
		c.state = Alive
	}
}

// Attack performs one melee swing: builds the hit rectangle, damages every
// hostile character overlapping it, and resets the cooldown. A swing
// inside the cooldown window does nothing.
func (c *Character) Attack(w *World) {
	if c.state != Alive || c.m == nil {
		return
	}
	now := w.Clock.Now()
	if c.hasSwung && now-c.lastAttack < c.AttackCooldownMS {
		return
	}
	c.lastAttack = now
	c.hasSwung = true

	hit := c.HitRect()
	// Snapshot first: Damage can kill targets and mutate the map list.
	targets := c.m.CharactersInRect(hit)
	for _, t := range targets {
		if t == c || t.state != Alive {
			continue
		}
		if !c.Alliance.Hostile(t.Alliance) {
			continue
		}
		t.Damage(w, c, c.Stats.Attack)
	}
}

// Damage applies raw attack damage reduced by half the defense, clamped to
// at least 1 and at most the target's max HP. Negative raw damage is a
// caller bug. Kills the target when HP reaches zero.
func (c *Character) Damage(w *World, source *Character, raw int32) {
	if c.state != Alive {
		return
	}
	if raw < 0 {
		w.log.DPanic("negative damage",
			zap.Int32("raw", raw),
			zap.Int32("target", int32(c.ID)))
		return
	}
	dmg := raw - c.Stats.Defense/2
	if dmg < 1 {
		dmg = 1
	}
	if dmg > c.Stats.MaxHP {
		dmg = c.Stats.MaxHP
	}
	c.Stats.HP -= dmg
	if c.IsPlayer() {
		c.Dirty = true
	}

	if c.m != nil {
		pkt := packet.NewWriterWithOpcode(packet.S_OPCODE_DAMAGE)
		pkt.WriteH(c.index)
		var srcIdx uint16
		// The hit flash is anchored on the attacker; cull around the
		// source when there is one on this map.
		ax, ay := c.X, c.Y
		if source != nil && source.m == c.m {
			srcIdx = source.index
			ax, ay = source.X, source.Y
		}
		pkt.WriteH(srcIdx)
		pkt.WriteD(dmg)
		c.m.SendToArea(ax, ay, pkt.Bytes())

		hp := packet.NewWriterWithOpcode(packet.S_OPCODE_HP_UPDATE)
		hp.WriteH(c.index)
		hp.WriteD(c.Stats.HP)
		hp.WriteD(c.Stats.MaxHP)
		c.m.SendToArea(c.X, c.Y, hp.Bytes())
	}

	if c.Stats.HP <= 0 {
		c.Stats.HP = 0
		c.Kill(w, source)
	}
}

// Heal restores HP up to the maximum and broadcasts the new value.
func (c *Character) Heal(w *World, amount int32) {
	if c.state != Alive || amount <= 0 {
		return
	}
	c.Stats.HP += amount
	if c.Stats.HP > c.Stats.MaxHP {
		c.Stats.HP = c.Stats.MaxHP
	}
	if c.IsPlayer() {
		c.Dirty = true
	}
	if c.m != nil {
		hp := packet.NewWriterWithOpcode(packet.S_OPCODE_HP_UPDATE)
		hp.WriteH(c.index)
		hp.WriteD(c.Stats.HP)
		hp.WriteD(c.Stats.MaxHP)
		c.m.SendToArea(c.X, c.Y, hp.Bytes())
	}
}

// Kill transitions the character to death: inventory drops onto the
// ground with jittered positions, respawning NPCs are queued for revival,
// everything else is queued for disposal. The epoch is bumped so any
// dialog against this entity goes stale.
func (c *Character) Kill(w *World, killer *Character) {
	if c.state != Alive {
		return
	}
	c.epoch++

	if c.m != nil {
		for _, it := range c.Inventory {
			dx := (w.rng.Float32() - 0.5) * dropJitter
			dy := (w.rng.Float32() - 0.5) * dropJitter
			c.m.DropItem(it, c.X+dx, c.Y+dy)
		}
	}
	c.Inventory = nil

	if c.Respawn != nil {
		c.state = DeadPendingRespawn
		c.respawnAt = w.Clock.Now() + c.Respawn.DelayMS
		if c.m != nil {
			c.m.RemoveEntity(c)
		}
		w.QueueRespawn(c)
	} else {
		c.Dispose(w)
	}

	if killer != nil && killer.IsPlayer() {
		killer.Dirty = true
	}
	if w.OnKill != nil {
		w.OnKill(c, killer)
	}
}

// Dispose marks the character for permanent removal at the end of the
// tick. Safe to call more than once.
func (c *Character) Dispose(w *World) {
	if c.state == Disposed {
		return
	}
	c.state = Disposed
	c.epoch++
	w.QueueDispose(c)
}

// Revive resets stats from max values and places the character back at its
// respawn point. Only valid for DeadPendingRespawn.
func (c *Character) Revive(w *World) {
	if c.state != DeadPendingRespawn || c.Respawn == nil {
		return
	}
	c.Stats.HP = c.Stats.MaxHP
	c.Stats.MP = c.Stats.MaxMP
	if c.RollLoot != nil {
		c.Inventory = c.RollLoot()
	}
	c.state = Loading
	m := w.Map(c.Respawn.MapID)
	if m == nil {
		w.log.Error("respawn map missing",
			zap.Int16("map", int16(c.Respawn.MapID)),
			zap.Int32("id", int32(c.ID)))
		c.state = Disposed
		w.QueueDispose(c)
		return
	}
	c.SetMap(w, m, c.Respawn.X, c.Respawn.Y)
}

// RespawnDue reports whether a dead character's respawn time has passed.
func (c *Character) RespawnDue(now GameTime) bool {
	return c.state == DeadPendingRespawn && now >= c.respawnAt
}

// SyncNet compares current position/velocity against the last broadcast
// snapshot and, when changed, sends the smallest update encoding to the
// surrounding area. Runs once per entity per tick.
func (c *Character) SyncNet() {
	if c.state != Alive || c.m == nil {
		return
	}
	st := CaptureNetState(c.X, c.Y, c.VelX, c.VelY)
	if c.hasSent && st == c.lastSent {
		return
	}
	c.lastSent = st
	c.hasSent = true
	c.m.SendToArea(c.X, c.Y, EncodeUpdate(c.index, st))
}

// ForceNetSync marks the snapshot stale so the next SyncNet broadcasts
// unconditionally.
func (c *Character) ForceNetSync() { c.hasSent = false }

// EndDialog tears down an active dialog session, if any, and tells the
// client.
func (c *Character) EndDialog() {
	if c.ActiveDialog == nil {
		return
	}
	c.ActiveDialog.End()
	c.ActiveDialog = nil
	c.ActiveDialogNPC = nil
	if c.Session != nil {
		c.Session.Send(packet.NewWriterWithOpcode(packet.S_OPCODE_DIALOG_END).Bytes())
	}
}
