package system

import (
	"time"

	coresys "github.com/ashvale/server/internal/core/system"
	"github.com/ashvale/server/internal/world"
)

// RespawnSystem revives queued NPCs whose respawn time has come.
// Phase 3 (PostUpdate).
type RespawnSystem struct {
	world *world.World
}

func NewRespawnSystem(w *world.World) *RespawnSystem {
	return &RespawnSystem{world: w}
}

func (s *RespawnSystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

func (s *RespawnSystem) Update(_ time.Duration) {
	s.world.RunRespawns()
}
