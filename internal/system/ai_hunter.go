package system

import (
	"math"
	"math/rand"

	"github.com/ashvale/server/internal/data"
	"github.com/ashvale/server/internal/world"
)

// hunterAI chases and attacks the nearest hostile player in aggro range.
// Pathfinding runs on the map's shared A* finder; repaths are spaced a few
// ticks apart so a packed map does not burn its tick budget on searches.
type hunterAI struct {
	rng        *rand.Rand
	speed      float32
	aggroRange float32

	target       *world.Character
	targetEpoch  uint32
	repathIn     int
	stepX, stepY float32
	hasStep      bool
}

const repathInterval = 4

func newHunterAI(tmpl *data.NPCTemplate, rng *rand.Rand) world.AIDriver {
	speed := tmpl.MoveSpeed
	if speed <= 0 {
		speed = 80
	}
	aggro := tmpl.AggroRange
	if aggro <= 0 {
		aggro = 320
	}
	return &hunterAI{rng: rng, speed: speed, aggroRange: aggro}
}

func (a *hunterAI) Name() string { return "hunter" }

func (a *hunterAI) Update(w *world.World, c *world.Character) {
	m := c.Map()
	if m == nil {
		return
	}

	if !a.targetValid(c) {
		a.acquireTarget(c)
	}
	if a.target == nil {
		c.VelX, c.VelY = 0, 0
		return
	}
	t := a.target

	dx := t.X - c.X
	dy := t.Y - c.Y
	dist := float32(math.Hypot(float64(dx), float64(dy)))

	// Drop targets that outran the leash.
	if dist > a.aggroRange*1.5 {
		a.clearTarget()
		c.VelX, c.VelY = 0, 0
		return
	}

	reach := c.Body.HitReach + (c.Body.Width+t.Body.Width)/2
	if dist <= reach {
		c.VelX, c.VelY = 0, 0
		c.Heading = world.HeadingToward(c.X, c.Y, t.X, t.Y)
		c.Attack(w)
		return
	}

	a.repathIn--
	if a.repathIn <= 0 || !a.hasStep {
		a.repathIn = repathInterval
		a.computeStep(c, t)
	}
	if !a.hasStep {
		// Unreachable this search; give up rather than hump the wall.
		a.clearTarget()
		c.VelX, c.VelY = 0, 0
		return
	}

	sx := a.stepX - c.X
	sy := a.stepY - c.Y
	sd := float32(math.Hypot(float64(sx), float64(sy)))
	if sd < 1 {
		a.hasStep = false
		return
	}
	c.VelX = sx / sd * a.speed
	c.VelY = sy / sd * a.speed
	c.Heading = world.HeadingToward(c.X, c.Y, t.X, t.Y)
}

func (a *hunterAI) targetValid(c *world.Character) bool {
	t := a.target
	return t != nil &&
		t.Epoch() == a.targetEpoch &&
		t.State() == world.Alive &&
		t.Map() == c.Map()
}

func (a *hunterAI) acquireTarget(c *world.Character) {
	a.clearTarget()
	m := c.Map()
	var best *world.Character
	var bestSq float32 = a.aggroRange * a.aggroRange
	for _, other := range m.Characters() {
		if other.State() != world.Alive || !c.Alliance.Hostile(other.Alliance) {
			continue
		}
		dx := other.X - c.X
		dy := other.Y - c.Y
		if sq := dx*dx + dy*dy; sq <= bestSq {
			bestSq = sq
			best = other
		}
	}
	if best != nil {
		a.target = best
		a.targetEpoch = best.Epoch()
	}
}

func (a *hunterAI) clearTarget() {
	a.target = nil
	a.hasStep = false
}

// computeStep runs A* toward the target and caches the next waypoint in
// pixel space.
func (a *hunterAI) computeStep(c, t *world.Character) {
	m := c.Map()
	res := m.FindPath(c.X, c.Y, t.X, t.Y)
	a.hasStep = false
	if len(res.Path) < 2 {
		// Same cell or no route. Same cell: walk straight at the target.
		if len(res.Path) == 1 {
			a.stepX, a.stepY = t.X, t.Y
			a.hasStep = true
		}
		return
	}
	next := res.Path[1]
	a.stepX, a.stepY = m.CellCenter(next.X, next.Y)
	a.hasStep = true
}
