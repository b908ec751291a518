package system

import (
	"math/rand"

	"github.com/ashvale/server/internal/data"
	"github.com/ashvale/server/internal/world"
)

// wanderAI strolls: walk a random heading for a while, then idle. Used by
// ambient critters and townsfolk.
type wanderAI struct {
	rng   *rand.Rand
	speed float32
	ticks int // ticks remaining in the current leg
	idle  bool
}

func newWanderAI(tmpl *data.NPCTemplate, rng *rand.Rand) world.AIDriver {
	speed := tmpl.MoveSpeed
	if speed <= 0 {
		speed = 40
	}
	return &wanderAI{rng: rng, speed: speed, idle: true}
}

func (a *wanderAI) Name() string { return "wander" }

func (a *wanderAI) Update(w *world.World, c *world.Character) {
	a.ticks--
	if a.ticks > 0 {
		return
	}

	if a.idle {
		// start walking in a random 8-way heading
		a.idle = false
		a.ticks = 5 + a.rng.Intn(10)
		h := world.Heading(a.rng.Intn(8))
		dx, dy := h.Offset()
		c.Heading = h
		c.VelX = dx * a.speed
		c.VelY = dy * a.speed
	} else {
		a.idle = true
		a.ticks = 10 + a.rng.Intn(20)
		c.VelX, c.VelY = 0, 0
	}
}
