package system

import "time"

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhaseInput      Phase = iota // 0: drain packet queues
	PhasePreUpdate               // 1: process last tick's events
	PhaseUpdate                  // 2: game logic
	PhasePostUpdate              // 3: respawn, regen, spawning
	PhaseOutput                  // 4: movement deltas + queue flush
	PhasePersist                 // 5: dirty character batch save
	PhaseCleanup                 // 6: dispose queued entities, decay items
)

// System is one per-tick unit of game logic, ordered by phase.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
