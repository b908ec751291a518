package world

import (
	"github.com/ashvale/server/internal/ident"
	"github.com/ashvale/server/internal/net/packet"
)

// dropJitter is the side length in pixels of the square that dropped items
// scatter over, centered on the corpse.
const dropJitter = 32.0

// groundItemTTLTicks is how many ticks a dropped item lies on the map
// before it decays.
const groundItemTTLTicks = 300

// Item is an inventory stack. Items carry world identities so they can be
// referenced on the ground and persisted.
type Item struct {
	ID         ident.EntityID
	TemplateID int32
	Name       string
	Count      int32
	Value      int32
}

// GroundItem is an item lying on a map, visible to nearby players until it
// is picked up or decays.
type GroundItem struct {
	Item *Item
	X, Y float32
	// ttl counts down once per tick; the cleanup pass removes it at zero.
	ttl int
}

// DropItem places an item on the map at (x, y), clamped into bounds, and
// announces it to the surrounding area.
func (m *GameMap) DropItem(it *Item, x, y float32) {
	if x < 0 {
		x = 0
	}
	if y < 0 {
		y = 0
	}
	if x >= m.Width {
		x = m.Width - 1
	}
	if y >= m.Height {
		y = m.Height - 1
	}
	m.ground[it.ID] = &GroundItem{Item: it, X: x, Y: y, ttl: groundItemTTLTicks}

	pkt := packet.NewWriterWithOpcode(packet.S_OPCODE_ITEM_DROP)
	pkt.WriteD(int32(it.ID))
	pkt.WriteD(it.TemplateID)
	pkt.WriteD(it.Count)
	pkt.WriteH(uint16(x))
	pkt.WriteH(uint16(y))
	m.SendToArea(x, y, pkt.Bytes())
}

// TakeItem removes a ground item within reach of the character and returns
// it, or nil when the id is unknown or too far away.
func (m *GameMap) TakeItem(c *Character, id ident.EntityID, reach float32) *Item {
	gi, ok := m.ground[id]
	if !ok {
		return nil
	}
	dx := gi.X - c.X
	dy := gi.Y - c.Y
	if dx*dx+dy*dy > reach*reach {
		return nil
	}
	m.removeGround(id, gi)
	return gi.Item
}

// DecayGroundItems ages every ground item one tick and removes the expired
// ones. Called from the cleanup pass. A decayed item's id is unshielded
// rather than freed: a player-dropped item can still have a row until its
// owner's next save, so the gap scan decides when the id is reusable.
func (m *GameMap) DecayGroundItems(w *World) {
	for id, gi := range m.ground {
		gi.ttl--
		if gi.ttl <= 0 {
			m.removeGround(id, gi)
			w.IDs.MarkPersisted(id)
		}
	}
}

func (m *GameMap) removeGround(id ident.EntityID, gi *GroundItem) {
	delete(m.ground, id)
	pkt := packet.NewWriterWithOpcode(packet.S_OPCODE_ITEM_REMOVE)
	pkt.WriteD(int32(id))
	m.SendToArea(gi.X, gi.Y, pkt.Bytes())
}

// GroundItemCount returns how many items currently lie on the map.
func (m *GameMap) GroundItemCount() int { return len(m.ground) }
