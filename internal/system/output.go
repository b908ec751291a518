package system

import (
	"time"

	coresys "github.com/ashvale/server/internal/core/system"
	"github.com/ashvale/server/internal/net"
	"github.com/ashvale/server/internal/world"
)

// OutputSystem broadcasts movement deltas for every entity whose quantized
// state changed, then flushes each session's buffered packets to its write
// queue. Phase 4 (Output) — exactly one flush per session per tick.
type OutputSystem struct {
	world *world.World
	store *net.SessionStore
}

func NewOutputSystem(w *world.World, store *net.SessionStore) *OutputSystem {
	return &OutputSystem{world: w, store: store}
}

func (s *OutputSystem) Phase() coresys.Phase { return coresys.PhaseOutput }

func (s *OutputSystem) Update(_ time.Duration) {
	for _, m := range s.world.Maps() {
		for _, c := range m.Characters() {
			c.SyncNet()
		}
	}
	for _, sess := range s.store.Raw() {
		if !sess.IsClosed() {
			sess.FlushOutput()
		}
	}
}
