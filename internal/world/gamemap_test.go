package world

import (
	"testing"

	"github.com/ashvale/server/internal/ident"
	"github.com/ashvale/server/internal/net/packet"
)

func TestTransmissionIndexReuse(t *testing.T) {
	clock := &ManualClock{}
	w := newTestWorld(clock)
	m := newTestMap(1)
	w.AddMap(m)

	chars := make([]*Character, 4)
	for i := range chars {
		c := newMonster(ident.EntityID(10+i), 10, 0, 0)
		w.Register(c)
		c.SetMap(w, m, float32(50+i*10), 50)
		chars[i] = c
	}
	for i, c := range chars {
		if got := c.Index(); got != uint16(i+1) {
			t.Fatalf("entity %d index = %d, want %d", i, got, i+1)
		}
	}

	m.RemoveEntity(chars[2]) // held index 3
	if chars[2].Index() != 0 {
		t.Fatal("removed entity retains an index")
	}

	late := newMonster(99, 10, 0, 0)
	w.Register(late)
	late.SetMap(w, m, 90, 50)
	if got := late.Index(); got != 3 {
		t.Fatalf("reused index = %d, want 3", got)
	}
	if m.EntityByIndex(3) != late {
		t.Fatal("index lookup does not resolve to the new holder")
	}
}

func TestRemoveEntityBroadcastsIndex(t *testing.T) {
	clock := &ManualClock{}
	w := newTestWorld(clock)
	m := newTestMap(1)
	w.AddMap(m)

	sess := &fakeSession{}
	observer := newTestPlayer(1, sess)
	w.Register(observer)
	observer.SetMap(w, m, 100, 100)

	mob := newMonster(2, 10, 0, 0)
	w.Register(mob)
	mob.SetMap(w, m, 110, 100)
	idx := mob.Index()

	m.RemoveEntity(mob)

	var found bool
	for _, p := range sess.packets {
		if len(p) >= 3 && p[0] == packet.S_OPCODE_REMOVE_ENTITY {
			r := packet.NewReader(p)
			if r.ReadH() == idx {
				found = true
			}
		}
	}
	if !found {
		t.Fatalf("observer never saw removal of index %d", idx)
	}
}

func TestSendToAreaCullsByViewRange(t *testing.T) {
	clock := &ManualClock{}
	w := newTestWorld(clock)
	m := newTestMap(1) // view range 200
	w.AddMap(m)

	nearSess := &fakeSession{}
	near := newTestPlayer(1, nearSess)
	w.Register(near)
	near.SetMap(w, m, 150, 100)

	farSess := &fakeSession{}
	far := newTestPlayer(2, farSess)
	w.Register(far)
	far.SetMap(w, m, 900, 900)

	nearBase := len(nearSess.packets)
	farBase := len(farSess.packets)

	pkt := packet.NewWriterWithOpcode(packet.S_OPCODE_CHAT)
	pkt.WriteS("psst")
	m.SendToArea(100, 100, pkt.Bytes())

	if len(nearSess.packets) != nearBase+1 {
		t.Fatal("player inside view range missed the broadcast")
	}
	if len(farSess.packets) != farBase {
		t.Fatal("player outside view range received the broadcast")
	}
}

func TestJoiningPlayerReceivesExistingEntities(t *testing.T) {
	clock := &ManualClock{}
	w := newTestWorld(clock)
	m := newTestMap(1)
	w.AddMap(m)

	mobNear := newMonster(1, 10, 0, 0)
	w.Register(mobNear)
	mobNear.SetMap(w, m, 120, 120)

	mobFar := newMonster(2, 10, 0, 0)
	w.Register(mobFar)
	mobFar.SetMap(w, m, 950, 950)

	sess := &fakeSession{}
	hero := newTestPlayer(3, sess)
	w.Register(hero)
	hero.SetMap(w, m, 100, 100)

	// own create plus the nearby mob; the far one is outside view range
	if got := sess.countOpcode(packet.S_OPCODE_CREATE_ENTITY); got != 2 {
		t.Fatalf("create packets on join = %d, want 2", got)
	}
}

func TestGroundItemPickupAndDecay(t *testing.T) {
	clock := &ManualClock{}
	w := newTestWorld(clock)
	m := newTestMap(1)
	w.AddMap(m)

	hero := newTestPlayer(1, &fakeSession{})
	w.Register(hero)
	hero.SetMap(w, m, 100, 100)

	m.DropItem(&Item{ID: 50, TemplateID: 9, Name: "sword", Count: 1}, 110, 100)
	m.DropItem(&Item{ID: 51, TemplateID: 9, Name: "sword", Count: 1}, 800, 800)

	if it := m.TakeItem(hero, 51, 48); it != nil {
		t.Fatal("picked up an item out of reach")
	}
	it := m.TakeItem(hero, 50, 48)
	if it == nil || it.ID != 50 {
		t.Fatalf("pickup failed: %+v", it)
	}
	if m.GroundItemCount() != 1 {
		t.Fatalf("ground items after pickup = %d, want 1", m.GroundItemCount())
	}

	for i := 0; i < groundItemTTLTicks; i++ {
		m.DecayGroundItems(w)
	}
	if m.GroundItemCount() != 0 {
		t.Fatal("ground item survived its ttl")
	}
}

func TestSyncNetSuppressesUnchangedState(t *testing.T) {
	clock := &ManualClock{}
	w := newTestWorld(clock)
	m := newTestMap(1)
	w.AddMap(m)

	sess := &fakeSession{}
	observer := newTestPlayer(1, sess)
	w.Register(observer)
	observer.SetMap(w, m, 100, 100)

	mob := newMonster(2, 10, 0, 0)
	w.Register(mob)
	mob.SetMap(w, m, 120, 100)

	mob.SyncNet()
	base := updateCount(sess)
	mob.SyncNet() // nothing changed
	if updateCount(sess) != base {
		t.Fatal("unchanged state was re-broadcast")
	}

	mob.X += 0.2 // below one pixel quantum
	mob.SyncNet()
	if updateCount(sess) != base {
		t.Fatal("sub-quantum movement was re-broadcast")
	}

	mob.X += 2
	mob.SyncNet()
	if updateCount(sess) != base+1 {
		t.Fatal("real movement was not broadcast")
	}
}

func updateCount(s *fakeSession) int {
	return s.countOpcode(packet.S_OPCODE_UPDATE_FULL) +
		s.countOpcode(packet.S_OPCODE_UPDATE_VELX) +
		s.countOpcode(packet.S_OPCODE_UPDATE_VELY) +
		s.countOpcode(packet.S_OPCODE_UPDATE_POS_ONLY)
}
