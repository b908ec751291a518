package world

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/ashvale/server/internal/ident"
	"github.com/ashvale/server/internal/net/packet"
	"github.com/ashvale/server/internal/pathfind"
)

// fakeSession records outbound packets in place of a network session.
type fakeSession struct {
	packets [][]byte
	closed  bool
}

func (s *fakeSession) Send(data []byte) { s.packets = append(s.packets, data) }
func (s *fakeSession) IsClosed() bool   { return s.closed }

func (s *fakeSession) countOpcode(op byte) int {
	n := 0
	for _, p := range s.packets {
		if len(p) > 0 && p[0] == op {
			n++
		}
	}
	return n
}

type emptyStore struct{}

func (emptyStore) UsedIDs(ctx context.Context) ([]ident.EntityID, error) { return nil, nil }

func newTestWorld(clock Clock) *World {
	ids := ident.NewAllocator(emptyStore{}, 8, 64, zap.NewNop())
	return NewWorld(clock, ids, 1, zap.NewNop())
}

func newTestMap(id MapID) *GameMap {
	grid := pathfind.NewGrid(32, 32, 1)
	return NewGameMap(id, "test", grid, 32, 200, zap.NewNop())
}

func newMonster(id ident.EntityID, hp, atk, def int32) *Character {
	return NewNPC(id, NPCSpec{
		Name:     "mob",
		Alliance: AllianceMonsters,
		Body:     BodyInfo{Width: 16, Height: 16, HitReach: 24},
		Stats: Stats{
			HP: hp, MaxHP: hp,
			Attack: atk, Defense: def,
		},
		AttackCooldownMS: 1000,
	})
}

func newTestPlayer(id ident.EntityID, sess Sender) *Character {
	return NewPlayer(id, "hero",
		Stats{HP: 100, MaxHP: 100, Attack: 20, Defense: 4},
		BodyInfo{Width: 16, Height: 16, HitReach: 24},
		500, sess)
}

func TestDamageClamp(t *testing.T) {
	cases := []struct {
		name    string
		raw     int32
		defense int32
		maxHP   int32
		want    int32
	}{
		{"floor of one on zero raw", 0, 0, 100, 1},
		{"floor of one when defense swallows it", 5, 50, 100, 1},
		{"normal reduction", 20, 8, 100, 16},
		{"capped at max hp", 100000, 0, 100, 100},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			clock := &ManualClock{}
			w := newTestWorld(clock)
			m := newTestMap(1)
			w.AddMap(m)

			target := newMonster(10, tc.maxHP, 0, tc.defense)
			target.Stats.HP = tc.maxHP
			w.Register(target)
			target.SetMap(w, m, 100, 100)

			before := target.Stats.HP
			target.Damage(w, nil, tc.raw)
			got := before - target.Stats.HP
			if target.State() != Alive {
				// killed: the full remaining HP was removed
				got = before
			}
			if got != tc.want {
				t.Fatalf("damage = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestAttackCooldownGatesSwings(t *testing.T) {
	clock := &ManualClock{Time: 1}
	w := newTestWorld(clock)
	m := newTestMap(1)
	w.AddMap(m)

	observer := &fakeSession{}
	watcher := newTestPlayer(1, observer)
	w.Register(watcher)
	watcher.SetMap(w, m, 120, 100)

	attacker := newTestPlayer(2, &fakeSession{})
	w.Register(attacker)
	attacker.SetMap(w, m, 100, 100)
	attacker.Heading = 2 // east

	target := newMonster(3, 1000, 0, 0)
	w.Register(target)
	target.SetMap(w, m, 120, 100)

	attacker.Attack(w)
	attacker.Attack(w) // same tick, inside cooldown
	if got := observer.countOpcode(packet.S_OPCODE_DAMAGE); got != 1 {
		t.Fatalf("damage broadcasts after double swing = %d, want 1", got)
	}

	clock.Time += GameTime(attacker.AttackCooldownMS)
	attacker.Attack(w)
	if got := observer.countOpcode(packet.S_OPCODE_DAMAGE); got != 2 {
		t.Fatalf("damage broadcasts after cooldown = %d, want 2", got)
	}
}

func TestAttackCooldownAppliesAtTimeZero(t *testing.T) {
	// Game time 0 is a real instant: input can arrive before the first
	// tick advances the clock. Two swings there are still one swing.
	clock := &ManualClock{}
	w := newTestWorld(clock)
	m := newTestMap(1)
	w.AddMap(m)

	observer := &fakeSession{}
	watcher := newTestPlayer(1, observer)
	w.Register(watcher)
	watcher.SetMap(w, m, 120, 100)

	attacker := newTestPlayer(2, &fakeSession{})
	w.Register(attacker)
	attacker.SetMap(w, m, 100, 100)
	attacker.Heading = 2 // east

	target := newMonster(3, 1000, 0, 0)
	w.Register(target)
	target.SetMap(w, m, 120, 100)

	attacker.Attack(w)
	attacker.Attack(w)
	if got := observer.countOpcode(packet.S_OPCODE_DAMAGE); got != 1 {
		t.Fatalf("damage broadcasts at time zero = %d, want 1", got)
	}
}

func TestDamageBroadcastCentersOnSource(t *testing.T) {
	clock := &ManualClock{Time: 1}
	w := newTestWorld(clock)
	m := newTestMap(1)
	w.AddMap(m)

	// Watcher stands next to the source and far from the target: the hit
	// flash must reach them, the target's HP update must not.
	nearSource := &fakeSession{}
	watcher := newTestPlayer(1, nearSource)
	w.Register(watcher)
	watcher.SetMap(w, m, 100, 100)

	source := newTestPlayer(2, &fakeSession{})
	w.Register(source)
	source.SetMap(w, m, 120, 100)

	target := newMonster(3, 100, 0, 0)
	w.Register(target)
	target.SetMap(w, m, 900, 900)

	target.Damage(w, source, 10)

	if got := nearSource.countOpcode(packet.S_OPCODE_DAMAGE); got != 1 {
		t.Fatalf("damage broadcasts near source = %d, want 1", got)
	}
	if got := nearSource.countOpcode(packet.S_OPCODE_HP_UPDATE); got != 0 {
		t.Fatalf("hp updates near source = %d, want 0", got)
	}
}

func TestAttackSkipsNonHostileTargets(t *testing.T) {
	clock := &ManualClock{Time: 1}
	w := newTestWorld(clock)
	m := newTestMap(1)
	w.AddMap(m)

	attacker := newTestPlayer(1, &fakeSession{})
	w.Register(attacker)
	attacker.SetMap(w, m, 100, 100)
	attacker.Heading = 2

	merchant := NewNPC(2, NPCSpec{
		Name:     "shopkeep",
		Alliance: AllianceTownsfolk,
		Body:     BodyInfo{Width: 16, Height: 16},
		Stats:    Stats{HP: 50, MaxHP: 50},
	})
	w.Register(merchant)
	merchant.SetMap(w, m, 115, 100)

	attacker.Attack(w)
	if merchant.Stats.HP != 50 {
		t.Fatalf("townsfolk took damage: hp = %d", merchant.Stats.HP)
	}
}

func TestKillDropsInventoryAndBumpsEpoch(t *testing.T) {
	clock := &ManualClock{Time: 1}
	w := newTestWorld(clock)
	m := newTestMap(1)
	w.AddMap(m)

	mob := newMonster(5, 10, 0, 0)
	mob.Inventory = []*Item{
		{ID: 100, TemplateID: 7, Name: "coin", Count: 3},
		{ID: 101, TemplateID: 8, Name: "hide", Count: 1},
	}
	w.Register(mob)
	mob.SetMap(w, m, 100, 100)
	epoch := mob.Epoch()

	mob.Damage(w, nil, 10000)

	if mob.State() != Disposed {
		t.Fatalf("state = %v, want disposed", mob.State())
	}
	if mob.Epoch() == epoch {
		t.Fatal("epoch did not change on death")
	}
	if got := m.GroundItemCount(); got != 2 {
		t.Fatalf("ground items = %d, want 2", got)
	}
	if len(mob.Inventory) != 0 {
		t.Fatal("inventory not emptied on death")
	}
}

func TestRespawnTiming(t *testing.T) {
	clock := &ManualClock{Time: 1000}
	w := newTestWorld(clock)
	m := newTestMap(1)
	w.AddMap(m)

	mob := newMonster(6, 10, 0, 0)
	mob.Respawn = &RespawnInfo{DelayMS: 10000, MapID: 1, X: 64, Y: 64}
	w.Register(mob)
	mob.SetMap(w, m, 100, 100)

	mob.Damage(w, nil, 10000)
	if mob.State() != DeadPendingRespawn {
		t.Fatalf("state = %v, want dead pending respawn", mob.State())
	}
	if mob.Map() != nil {
		t.Fatal("dead character still placed on map")
	}

	clock.Time = 1000 + 9999
	w.RunRespawns()
	if mob.State() != DeadPendingRespawn {
		t.Fatal("respawned one millisecond early")
	}

	clock.Time = 1000 + 10000
	w.RunRespawns()
	if mob.State() != Alive {
		t.Fatalf("state after respawn window = %v, want alive", mob.State())
	}
	if mob.Map() != m || mob.X != 64 || mob.Y != 64 {
		t.Fatalf("respawned at (%v,%v) on %v, want (64,64)", mob.X, mob.Y, mob.Map())
	}
	if mob.Stats.HP != mob.Stats.MaxHP {
		t.Fatalf("hp after respawn = %d, want %d", mob.Stats.HP, mob.Stats.MaxHP)
	}
	if w.PendingRespawns() != 0 {
		t.Fatal("respawn queue not drained")
	}
}

func TestDisposalReleasesTransientIDsOnly(t *testing.T) {
	clock := &ManualClock{}
	w := newTestWorld(clock)
	m := newTestMap(1)
	w.AddMap(m)

	mob := newMonster(7, 10, 0, 0)
	w.Register(mob)
	mob.SetMap(w, m, 100, 100)

	hero := newTestPlayer(8, &fakeSession{})
	w.Register(hero)
	hero.SetMap(w, m, 200, 200)

	mob.Dispose(w)
	hero.Dispose(w)
	w.RunDisposals()

	if w.Character(7) != nil || w.Character(8) != nil {
		t.Fatal("disposed characters still registered")
	}
	if len(m.Characters()) != 0 {
		t.Fatal("disposed characters still on map")
	}

	ctx := context.Background()
	// The transient id went back to the pool, so with an empty store and
	// an unused low range the freed id comes out before any fresh scan
	// result.
	id, err := w.IDs.GetNext(ctx)
	if err != nil {
		t.Fatalf("GetNext: %v", err)
	}
	if id != 7 {
		t.Fatalf("first recycled id = %d, want 7", id)
	}
}
