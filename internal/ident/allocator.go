// Package ident allocates process-unique, store-backed entity IDs.
//
// An Allocator hands out IDs from an in-memory free stack. The stack is
// replenished by a gap-scan over the backing store's key column: unused
// values between existing rows are collected first, then the range is
// extended past the current maximum. This keeps the live ID space compact
// instead of purely incrementing.
package ident

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// EntityID is a process-unique, persistent-store-backed identity.
// Never issued twice while live; reclaimed into the free pool only after
// the owning row is deleted.
type EntityID int32

// IDStore is the persistent backing for an Allocator. UsedIDs must return
// every currently-used key value in ascending order.
type IDStore interface {
	UsedIDs(ctx context.Context) ([]EntityID, error)
}

// Allocator is a thread-safe pool of free IDs. GetNext blocks until an ID is
// available; a background refill keeps the pool topped up whenever it drops
// below the critical size.
type Allocator struct {
	mu        sync.Mutex
	cond      *sync.Cond // signaled when free gains entries or refill fails
	free      []EntityID // LIFO stack of reusable IDs
	refilling bool       // at most one refill in flight; guarded by mu
	refillErr error      // last refill failure, cleared on success

	// issued holds IDs handed out but whose rows may not be persisted yet.
	// The gap scan treats them as used, otherwise an ID issued moments
	// before a refill could be collected a second time.
	issued map[EntityID]struct{}

	store        IDStore
	criticalSize int // refill when len(free) drops below this
	batchSize    int // IDs collected per refill

	log *zap.Logger
}

// NewAllocator creates an allocator over the given store. criticalSize is the
// low-water mark that triggers a background refill; batchSize is how many IDs
// each refill collects.
func NewAllocator(store IDStore, criticalSize, batchSize int, log *zap.Logger) *Allocator {
	if criticalSize < 1 {
		criticalSize = 1
	}
	if batchSize < criticalSize {
		batchSize = criticalSize
	}
	a := &Allocator{
		store:        store,
		criticalSize: criticalSize,
		batchSize:    batchSize,
		issued:       make(map[EntityID]struct{}),
		log:          log,
	}
	a.cond = sync.NewCond(&a.mu)
	return a
}

// GetNext returns a free ID, blocking until one is available. An empty pool
// triggers an asynchronous refill; the caller waits on the allocator's
// condition variable until the refill lands. If the backing store is
// unreachable the refill error is returned and the pool stays empty.
func (a *Allocator) GetNext(ctx context.Context) (EntityID, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for {
		if n := len(a.free); n > 0 {
			id := a.free[n-1]
			a.free = a.free[:n-1]
			a.issued[id] = struct{}{}
			if len(a.free) < a.criticalSize && !a.refilling {
				a.startRefillLocked()
			}
			return id, nil
		}

		if err := ctx.Err(); err != nil {
			return 0, err
		}
		if a.refillErr != nil {
			err := a.refillErr
			a.refillErr = nil
			return 0, fmt.Errorf("id pool refill: %w", err)
		}
		if !a.refilling {
			a.startRefillLocked()
		}
		a.cond.Wait()
	}
}

// FreeID pushes an ID back onto the pool for reuse. The caller guarantees the
// ID is genuinely unused (its backing row deleted); freeing a live ID or
// double-freeing is undefined behavior by contract and is not defended
// against here.
func (a *Allocator) FreeID(id EntityID) {
	a.mu.Lock()
	delete(a.issued, id)
	a.free = append(a.free, id)
	a.mu.Unlock()
	a.cond.Signal()
}

// MarkPersisted records that the row for an issued ID now exists in the
// backing store, so the allocator no longer needs to shield it from the gap
// scan. Optional; calling it keeps the issued set from growing with the
// number of live entities.
func (a *Allocator) MarkPersisted(id EntityID) {
	a.mu.Lock()
	delete(a.issued, id)
	a.mu.Unlock()
}

// FreeCount reports the current pool size.
func (a *Allocator) FreeCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.free)
}

// startRefillLocked launches the refill worker. Caller holds mu.
// The refilling flag and the free stack are only mutated together under mu,
// guaranteeing at most one refill in flight.
// The refill is deliberately detached from any caller's context: it serves
// every future GetNext, not just the one that tripped the low-water mark.
func (a *Allocator) startRefillLocked() {
	a.refilling = true
	// Snapshot pooled and issued IDs: both are absent from the store, so the
	// gap scan would collect them a second time without this exclusion.
	pooled := make(map[EntityID]struct{}, len(a.free)+len(a.issued))
	for _, id := range a.free {
		pooled[id] = struct{}{}
	}
	for id := range a.issued {
		pooled[id] = struct{}{}
	}
	go func() {
		ids, err := a.scanFree(context.Background(), a.batchSize, pooled)

		a.mu.Lock()
		a.refilling = false
		if err != nil {
			a.refillErr = err
			a.log.Error("id pool refill failed", zap.Error(err))
		} else {
			// Push in reverse so the lowest collected ID is used first.
			for i := len(ids) - 1; i >= 0; i-- {
				a.free = append(a.free, ids[i])
			}
		}
		a.mu.Unlock()
		a.cond.Broadcast()
	}()
}

// scanFree collects up to amount free IDs by gap-scanning the store's key
// column: every gap between consecutive used values contributes values until
// the amount is met; if the store is exhausted first, counting continues
// upward past the highest used value. IDs in skip are treated as used.
// Returns IDs in ascending order.
func (a *Allocator) scanFree(ctx context.Context, amount int, skip map[EntityID]struct{}) ([]EntityID, error) {
	used, err := a.store.UsedIDs(ctx)
	if err != nil {
		return nil, err
	}

	free := make([]EntityID, 0, amount)
	take := func(id EntityID) {
		if _, held := skip[id]; !held {
			free = append(free, id)
		}
	}

	next := EntityID(0)
	for _, u := range used {
		for next < u && len(free) < amount {
			take(next)
			next++
		}
		if next == u {
			next++
		}
		if len(free) >= amount {
			return free, nil
		}
	}
	for len(free) < amount {
		take(next)
		next++
	}
	return free, nil
}
