package handler

import (
	"math"

	"github.com/ashvale/server/internal/net"
	"github.com/ashvale/server/internal/net/packet"
	"github.com/ashvale/server/internal/world"
)

// HandleMove applies movement input: [velX:HS][velY:HS][heading:C], with
// velocities in wire fixed point. The server clamps speed; integration
// happens in the movement system, so the packet only states intent.
func HandleMove(sess *net.Session, r *packet.Reader, deps *Deps) {
	c := deps.World.PlayerBySession(sess.ID)
	if c == nil || c.State() != world.Alive {
		return
	}

	st := world.NetState{VX: r.ReadHS(), VY: r.ReadHS()}
	heading := r.ReadC()

	vx, vy := st.VelX(), st.VelY()
	maxSpeed := deps.Config.Game.PlayerMoveSpeed
	if sq := vx*vx + vy*vy; sq > maxSpeed*maxSpeed {
		// Normalize to the speed cap rather than rejecting: a client with
		// a different diagonal normalization still moves, just slower.
		scale := maxSpeed / float32(math.Sqrt(float64(sq)))
		vx *= scale
		vy *= scale
	}

	c.VelX, c.VelY = vx, vy
	if heading < 8 {
		c.Heading = world.Heading(heading)
	}
	c.Dirty = true
}

// HandleAttack performs a melee swing: [heading:C].
func HandleAttack(sess *net.Session, r *packet.Reader, deps *Deps) {
	c := deps.World.PlayerBySession(sess.ID)
	if c == nil || c.State() != world.Alive {
		return
	}
	if heading := r.ReadC(); heading < 8 {
		c.Heading = world.Heading(heading)
	}
	c.Attack(deps.World)
}

// HandlePickup grabs a ground item: [itemID:D].
func HandlePickup(sess *net.Session, r *packet.Reader, deps *Deps) {
	c := deps.World.PlayerBySession(sess.ID)
	if c == nil || c.State() != world.Alive || c.Map() == nil {
		return
	}
	id := r.ReadD()
	it := c.Map().TakeItem(c, ident32(id), deps.Config.Game.PickupReach)
	if it == nil {
		return
	}
	if addToInventory(c, it) {
		// The merged item's id is unreferenced now, but it may still have a
		// row (a dead player's drop not yet re-saved). Unshield it and let
		// the gap scan reclaim it once no row backs it.
		deps.IDs.MarkPersisted(it.ID)
	}
	c.Dirty = true
}
