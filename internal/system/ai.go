package system

import (
	"math/rand"
	"time"

	"go.uber.org/zap"

	coresys "github.com/ashvale/server/internal/core/system"
	"github.com/ashvale/server/internal/data"
	"github.com/ashvale/server/internal/world"
)

// AIFactory builds a fresh driver instance for one NPC. Drivers carry
// per-NPC state, so instances are never shared.
type AIFactory func(tmpl *data.NPCTemplate, rng *rand.Rand) world.AIDriver

// AIRegistry maps strategy names from NPC templates to factories.
type AIRegistry struct {
	factories map[string]AIFactory
	log       *zap.Logger
}

func NewAIRegistry(log *zap.Logger) *AIRegistry {
	r := &AIRegistry{
		factories: make(map[string]AIFactory),
		log:       log,
	}
	r.Register("wander", newWanderAI)
	r.Register("hunter", newHunterAI)
	return r
}

func (r *AIRegistry) Register(name string, f AIFactory) {
	r.factories[name] = f
}

// Build returns a driver for the template's ai name, or nil with a warning
// for unknown names: the NPC spawns without behavior instead of failing
// the whole spawn list.
func (r *AIRegistry) Build(tmpl *data.NPCTemplate, rng *rand.Rand) world.AIDriver {
	if tmpl.AI == "" {
		return nil
	}
	f, ok := r.factories[tmpl.AI]
	if !ok {
		r.log.Warn("unknown ai strategy, npc will stand still",
			zap.String("ai", tmpl.AI),
			zap.Int32("template", tmpl.TemplateID))
		return nil
	}
	return f(tmpl, rng)
}

// AISystem ticks every NPC driver. Phase 2 (Update), registered before the
// movement system so decisions this tick move this tick.
type AISystem struct {
	world *world.World
}

func NewAISystem(w *world.World) *AISystem {
	return &AISystem{world: w}
}

func (s *AISystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *AISystem) Update(_ time.Duration) {
	for _, m := range s.world.Maps() {
		for _, c := range m.Characters() {
			if c.AI != nil && c.State() == world.Alive {
				c.AI.Update(s.world, c)
			}
		}
	}
}
