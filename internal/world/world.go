package world

import (
	"math/rand"

	"go.uber.org/zap"

	"github.com/ashvale/server/internal/ident"
)

// World is the root of the authoritative game state: every map, every
// character, and the deferred respawn/dispose queues. All access happens
// on the game loop goroutine.
type World struct {
	Clock Clock
	IDs   *ident.Allocator

	// OnKill, when set, is invoked after a character dies. The world
	// package has no event bus dependency; the composition root bridges
	// this hook onto one. Killer is nil for environmental deaths.
	OnKill func(victim, killer *Character)

	maps    map[MapID]*GameMap
	chars   map[ident.EntityID]*Character
	players map[uint64]*Character // session id → in-world player

	respawnQ []*Character
	disposeQ []*Character

	rng *rand.Rand
	log *zap.Logger
}

// NewWorld builds an empty world. The rng seed is fixed by callers that
// need reproducible drops (tests); production passes a time-based seed.
func NewWorld(clock Clock, ids *ident.Allocator, seed int64, log *zap.Logger) *World {
	return &World{
		Clock:   clock,
		IDs:     ids,
		maps:    make(map[MapID]*GameMap),
		chars:   make(map[ident.EntityID]*Character),
		players: make(map[uint64]*Character),
		rng:     rand.New(rand.NewSource(seed)),
		log:     log,
	}
}

// AddMap registers a map. Duplicate ids indicate a data-load bug.
func (w *World) AddMap(m *GameMap) {
	if _, ok := w.maps[m.ID]; ok {
		w.log.DPanic("duplicate map id", zap.Int16("map", int16(m.ID)))
		return
	}
	w.maps[m.ID] = m
}

// Map resolves a map id, or nil.
func (w *World) Map(id MapID) *GameMap { return w.maps[id] }

// Maps returns all registered maps.
func (w *World) Maps() map[MapID]*GameMap { return w.maps }

// Register adds a character to the global index under its world id. The
// character starts in Loading; SetMap transitions it to Alive.
func (w *World) Register(c *Character) {
	if prev, ok := w.chars[c.ID]; ok && prev != c {
		w.log.DPanic("world id already registered",
			zap.Int32("id", int32(c.ID)))
		return
	}
	w.chars[c.ID] = c
}

// Character resolves a world id, or nil.
func (w *World) Character(id ident.EntityID) *Character { return w.chars[id] }

// CharacterCount returns how many characters are registered.
func (w *World) CharacterCount() int { return len(w.chars) }

// AttachSession links an in-world player to its session id.
func (w *World) AttachSession(sessionID uint64, c *Character) {
	w.players[sessionID] = c
}

// DetachSession unlinks a session, returning the player that was attached.
func (w *World) DetachSession(sessionID uint64) *Character {
	c := w.players[sessionID]
	delete(w.players, sessionID)
	return c
}

// PlayerBySession resolves the in-world player for a session id, or nil.
func (w *World) PlayerBySession(sessionID uint64) *Character {
	return w.players[sessionID]
}

// Players returns the session-indexed player map. Game loop only.
func (w *World) Players() map[uint64]*Character {
	return w.players
}

// QueueRespawn schedules a dead character for revival once its respawn
// time passes.
func (w *World) QueueRespawn(c *Character) {
	w.respawnQ = append(w.respawnQ, c)
}

// QueueDispose schedules a character for permanent removal at the end of
// the tick. Disposal is deferred so in-flight tick logic never observes a
// half-removed entity.
func (w *World) QueueDispose(c *Character) {
	w.disposeQ = append(w.disposeQ, c)
}

// RunRespawns revives every queued character whose time has come. Runs
// once per tick.
func (w *World) RunRespawns() {
	now := w.Clock.Now()
	kept := w.respawnQ[:0]
	for _, c := range w.respawnQ {
		if c.RespawnDue(now) {
			c.Revive(w)
		} else if c.state == DeadPendingRespawn {
			kept = append(kept, c)
		}
	}
	w.respawnQ = kept
}

// RunDisposals removes every queued character from its map and the global
// index and releases its world id back to the allocator. Runs at the end
// of the tick.
func (w *World) RunDisposals() {
	for _, c := range w.disposeQ {
		if c.m != nil {
			c.m.RemoveEntity(c)
		}
		c.EndDialog()
		c.epoch++
		delete(w.chars, c.ID)
		// Persisted ids stay reserved by their rows; the allocator's
		// store scan keeps skipping them.
		if !c.Persistent {
			w.IDs.FreeID(c.ID)
		}
	}
	w.disposeQ = w.disposeQ[:0]
}

// PendingRespawns returns how many characters await revival.
func (w *World) PendingRespawns() int { return len(w.respawnQ) }

// Rand exposes the world rng for spawn jitter and loot rolls.
func (w *World) Rand() *rand.Rand { return w.rng }
