package handler

import (
	"context"
	stdnet "net"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/ashvale/server/internal/ident"
	"github.com/ashvale/server/internal/net"
	"github.com/ashvale/server/internal/net/packet"
	"github.com/ashvale/server/internal/pathfind"
	"github.com/ashvale/server/internal/world"
)

type emptyStore struct{}

func (emptyStore) UsedIDs(ctx context.Context) ([]ident.EntityID, error) { return nil, nil }

// recorder collects outbound packets in place of a client connection.
type recorder struct {
	packets [][]byte
}

func (r *recorder) Send(data []byte) { r.packets = append(r.packets, data) }
func (r *recorder) IsClosed() bool   { return false }

func (r *recorder) countOpcode(op byte) int {
	n := 0
	for _, p := range r.packets {
		if len(p) > 0 && p[0] == op {
			n++
		}
	}
	return n
}

func newInWorldSession(t *testing.T, id uint64) *net.Session {
	t.Helper()
	client, server := stdnet.Pipe()
	t.Cleanup(func() { client.Close() })
	sess := net.NewSession(server, id, 8, 8, 0, time.Second, zap.NewNop())
	t.Cleanup(sess.Close)
	sess.SetState(packet.StateInWorld)
	return sess
}

func newChatWorld() (*world.World, *world.GameMap) {
	ids := ident.NewAllocator(emptyStore{}, 8, 64, zap.NewNop())
	w := world.NewWorld(&world.ManualClock{Time: 1}, ids, 1, zap.NewNop())
	// 64x64 cells at 32px: plenty of room to stand outside view range.
	m := world.NewGameMap(1, "test", pathfind.NewGrid(64, 64, 1), 32, 200, zap.NewNop())
	w.AddMap(m)
	return w, m
}

func placePlayer(w *world.World, m *world.GameMap, id ident.EntityID, name string, sender world.Sender, x, y float32) *world.Character {
	c := world.NewPlayer(id, name,
		world.Stats{HP: 100, MaxHP: 100, Attack: 10, Defense: 2},
		world.BodyInfo{Width: 16, Height: 16, HitReach: 24},
		500, sender)
	w.Register(c)
	c.SetMap(w, m, x, y)
	return c
}

func TestChatReachesWholeMap(t *testing.T) {
	w, m := newChatWorld()
	deps := &Deps{World: w}

	speaker := placePlayer(w, m, 1, "speaker", &recorder{}, 100, 100)
	// The listener stands far outside the 200px view range but on the
	// same map; chat must still reach them.
	far := &recorder{}
	placePlayer(w, m, 2, "listener", far, 1900, 100)

	sess := newInWorldSession(t, 42)
	w.AttachSession(sess.ID, speaker)

	in := packet.NewWriterWithOpcode(packet.C_OPCODE_CHAT)
	in.WriteS("anyone selling rope?")
	HandleChat(sess, packet.NewReader(in.Bytes()), deps)

	if got := far.countOpcode(packet.S_OPCODE_CHAT); got != 1 {
		t.Fatalf("same-map out-of-view listener got %d chat packets, want 1", got)
	}
}

func TestChatIgnoresBlankText(t *testing.T) {
	w, m := newChatWorld()
	deps := &Deps{World: w}

	speaker := placePlayer(w, m, 1, "speaker", &recorder{}, 100, 100)
	other := &recorder{}
	placePlayer(w, m, 2, "other", other, 120, 100)

	sess := newInWorldSession(t, 7)
	w.AttachSession(sess.ID, speaker)

	in := packet.NewWriterWithOpcode(packet.C_OPCODE_CHAT)
	in.WriteS("   ")
	HandleChat(sess, packet.NewReader(in.Bytes()), deps)

	if got := other.countOpcode(packet.S_OPCODE_CHAT); got != 0 {
		t.Fatalf("blank chat broadcast %d packets, want 0", got)
	}
}
