package system

import (
	"context"
	"time"

	"go.uber.org/zap"

	coresys "github.com/ashvale/server/internal/core/system"
	"github.com/ashvale/server/internal/core/event"
	"github.com/ashvale/server/internal/handler"
	"github.com/ashvale/server/internal/net"
	"github.com/ashvale/server/internal/net/packet"
)

// InputSystem accepts new sessions, reaps dead ones, and drains packet
// queues through the registry. Phase 0 (Input).
type InputSystem struct {
	netServer  *net.Server
	registry   *packet.Registry
	store      *net.SessionStore
	deps       *handler.Deps
	saver      *PersistenceSystem
	maxPerTick int
	log        *zap.Logger
}

func NewInputSystem(
	netServer *net.Server,
	registry *packet.Registry,
	store *net.SessionStore,
	deps *handler.Deps,
	saver *PersistenceSystem,
	maxPerTick int,
	log *zap.Logger,
) *InputSystem {
	return &InputSystem{
		netServer:  netServer,
		registry:   registry,
		store:      store,
		deps:       deps,
		saver:      saver,
		maxPerTick: maxPerTick,
		log:        log,
	}
}

func (s *InputSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *InputSystem) Update(_ time.Duration) {
	for {
		select {
		case sess := <-s.netServer.NewSessions():
			s.store.Add(sess)
		default:
			goto doneNew
		}
	}
doneNew:

	for {
		select {
		case id := <-s.netServer.DeadSessions():
			s.reapSession(id)
		default:
			goto doneDead
		}
	}
doneDead:

	// Drain packets, bounded per session per tick so one chatty client
	// cannot starve the rest.
	for _, sess := range s.store.Raw() {
	drain:
		for i := 0; i < s.maxPerTick; i++ {
			select {
			case data := <-sess.InQueue:
				if err := s.registry.Dispatch(sess, sess.State(), data); err != nil {
					s.log.Debug("dispatch failed",
						zap.Uint64("session", sess.ID),
						zap.Error(err))
				}
			default:
				break drain
			}
		}
	}
}

// reapSession tears down a closed session: final save, world removal,
// account offline. Shared by clean quits and dropped connections.
func (s *InputSystem) reapSession(id uint64) {
	sess := s.store.Get(id)
	if sess == nil {
		return
	}

	if c := s.deps.World.DetachSession(id); c != nil {
		c.EndDialog()
		s.saver.SavePlayer(c)
		c.Dispose(s.deps.World)
		event.Emit(s.deps.Bus, event.PlayerDisconnected{
			EntityID:  c.ID,
			SessionID: id,
		})
	}

	if sess.AccountName != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := s.deps.AccountRepo.SetOnline(ctx, sess.AccountName, false); err != nil {
			s.log.Warn("offline flag update failed", zap.Error(err))
		}
		cancel()
	}

	s.store.Remove(id)
	s.log.Info("session closed",
		zap.Uint64("session", id),
		zap.String("account", sess.AccountName))
}
