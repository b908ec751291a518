package system

import (
	"time"

	coresys "github.com/ashvale/server/internal/core/system"
	"github.com/ashvale/server/internal/world"
)

// CleanupSystem runs deferred disposal and ground item decay at the very
// end of the tick, after every other system stopped looking at entities.
// Phase 6 (Cleanup).
type CleanupSystem struct {
	world *world.World
}

func NewCleanupSystem(w *world.World) *CleanupSystem {
	return &CleanupSystem{world: w}
}

func (s *CleanupSystem) Phase() coresys.Phase { return coresys.PhaseCleanup }

func (s *CleanupSystem) Update(_ time.Duration) {
	s.world.RunDisposals()
	for _, m := range s.world.Maps() {
		m.DecayGroundItems(s.world)
	}
}
