package system

import (
	"time"

	coresys "github.com/ashvale/server/internal/core/system"
	"github.com/ashvale/server/internal/world"
)

// MovementSystem integrates velocities into positions with collision
// against the map's walkability grid. Phase 2 (Update), after AI.
type MovementSystem struct {
	world *world.World
}

func NewMovementSystem(w *world.World) *MovementSystem {
	return &MovementSystem{world: w}
}

func (s *MovementSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *MovementSystem) Update(dt time.Duration) {
	step := float32(dt.Seconds())
	for _, m := range s.world.Maps() {
		for _, c := range m.Characters() {
			if c.State() != world.Alive || (c.VelX == 0 && c.VelY == 0) {
				continue
			}
			oldX, oldY := c.X, c.Y
			nx := c.X + c.VelX*step
			ny := c.Y + c.VelY*step

			// Per-axis collision so sliding along a wall works.
			if m.WalkableAt(nx, c.Y) {
				c.X = nx
			} else {
				c.VelX = 0
			}
			if m.WalkableAt(c.X, ny) {
				c.Y = ny
			} else {
				c.VelY = 0
			}

			if c.X != oldX || c.Y != oldY {
				m.OnPlayerMoved(c, oldX, oldY)
				if c.IsPlayer() {
					c.Dirty = true
				}
			}
		}
	}
}
