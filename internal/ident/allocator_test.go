package ident

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go.uber.org/zap"
)

// fakeStore serves a fixed set of used IDs.
type fakeStore struct {
	mu   sync.Mutex
	used []EntityID
	err  error
}

func (f *fakeStore) UsedIDs(_ context.Context) ([]EntityID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([]EntityID, len(f.used))
	copy(out, f.used)
	return out, nil
}

func (f *fakeStore) markUsed(id EntityID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	// keep ascending order
	i := 0
	for i < len(f.used) && f.used[i] < id {
		i++
	}
	f.used = append(f.used, 0)
	copy(f.used[i+1:], f.used[i:])
	f.used[i] = id
}

func TestScanFreeFillsGapsBeforeExtending(t *testing.T) {
	store := &fakeStore{used: []EntityID{0, 1, 3, 4, 7}}
	a := NewAllocator(store, 1, 3, zap.NewNop())

	got, err := a.scanFree(context.Background(), 3, nil)
	if err != nil {
		t.Fatalf("scanFree: %v", err)
	}
	want := []EntityID{2, 5, 6}
	if len(got) != len(want) {
		t.Fatalf("scanFree = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("scanFree = %v, want %v", got, want)
		}
	}
}

func TestScanFreeExtendsPastMax(t *testing.T) {
	store := &fakeStore{used: []EntityID{0, 1, 2}}
	a := NewAllocator(store, 1, 4, zap.NewNop())

	got, err := a.scanFree(context.Background(), 4, nil)
	if err != nil {
		t.Fatalf("scanFree: %v", err)
	}
	want := []EntityID{3, 4, 5, 6}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("scanFree = %v, want %v", got, want)
		}
	}
}

func TestScanFreeSkipsPooledIDs(t *testing.T) {
	store := &fakeStore{used: []EntityID{0, 3}}
	a := NewAllocator(store, 1, 2, zap.NewNop())

	skip := map[EntityID]struct{}{1: {}}
	got, err := a.scanFree(context.Background(), 2, skip)
	if err != nil {
		t.Fatalf("scanFree: %v", err)
	}
	want := []EntityID{2, 4}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("scanFree = %v, want %v", got, want)
		}
	}
}

func TestGetNextNeverIssuesDuplicatesWhileLive(t *testing.T) {
	store := &fakeStore{}
	a := NewAllocator(store, 4, 16, zap.NewNop())
	ctx := context.Background()

	const workers = 8
	const perWorker = 50

	var mu sync.Mutex
	seen := make(map[EntityID]int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				id, err := a.GetNext(ctx)
				if err != nil {
					t.Errorf("GetNext: %v", err)
					return
				}
				mu.Lock()
				seen[id]++
				mu.Unlock()
				store.markUsed(id)
			}
		}()
	}
	wg.Wait()

	for id, n := range seen {
		if n > 1 {
			t.Fatalf("id %d issued %d times", id, n)
		}
	}
	if len(seen) != workers*perWorker {
		t.Fatalf("issued %d unique ids, want %d", len(seen), workers*perWorker)
	}
}

func TestFreeIDIsReused(t *testing.T) {
	store := &fakeStore{used: []EntityID{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}}
	a := NewAllocator(store, 1, 1, zap.NewNop())
	ctx := context.Background()

	a.FreeID(3)
	id, err := a.GetNext(ctx)
	if err != nil {
		t.Fatalf("GetNext: %v", err)
	}
	if id != 3 {
		t.Fatalf("GetNext = %d, want freed id 3", id)
	}
}

func TestGetNextSurfacesStoreFailure(t *testing.T) {
	boom := errors.New("store unreachable")
	store := &fakeStore{err: boom}
	a := NewAllocator(store, 1, 4, zap.NewNop())

	_, err := a.GetNext(context.Background())
	if err == nil || !errors.Is(err, boom) {
		t.Fatalf("GetNext err = %v, want wrapped %v", err, boom)
	}
}

func TestGetNextHonorsContextCancel(t *testing.T) {
	store := &fakeStore{}
	a := NewAllocator(store, 1, 1, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := a.GetNext(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("GetNext err = %v, want context.Canceled", err)
	}
}
