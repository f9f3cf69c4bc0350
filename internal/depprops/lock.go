package depprops

import (
	"context"
	"sync"
)

// UpdateLock freezes the valid/invalid state of a graph level (and the chain
// of ancestors above it) so a batch of property reads observes one
// consistently computed snapshot while state-change notifications keep
// arriving. Invalidations hitting a locked level are suppressed; releasing
// the lock unconditionally invalidates the level again, so nothing that
// happened while locked is ever lost.
//
// Release is idempotent and must be called on every exit path, typically via
// defer.
type UpdateLock struct {
	mu       sync.Mutex
	released bool

	// chain holds the locked engines from the root down to the locked level.
	chain []*Engine
	level *Engine
}

// AcquireUpdateLock locks the chain from the root down to this level and
// forces a fresh recomputation of the level, so every read inside the lock
// scope sees the values computed at acquisition time. Acquiring a lock while
// an ancestor is already locked is legal; the ancestor is simply locked once
// more and unlocked on release.
func (e *Engine) AcquireUpdateLock(ctx context.Context) (*UpdateLock, error) {
	var chain []*Engine
	for lvl := e; lvl != nil; lvl = lvl.parent {
		chain = append(chain, lvl)
	}
	// Reverse so the chain runs root -> level.
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}

	for _, lvl := range chain {
		lvl.lockLevel()
	}

	// Locking first closes the gap between recomputation and freeze: any
	// invalidation arriving from here on is suppressed.
	if err := e.Update(ctx); err != nil {
		for i := len(chain) - 1; i >= 0; i-- {
			chain[i].unlockLevel()
		}
		return nil, err
	}

	return &UpdateLock{chain: chain, level: e}, nil
}

// Release unlocks the chain and unconditionally invalidates the level,
// cascading the invalidation up the parent chain. The next read recomputes
// from scratch; this conservative policy avoids tracking what changed while
// the lock was held. Calling Release more than once is a no-op.
func (l *UpdateLock) Release() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.released {
		return
	}
	l.released = true

	// Unlock leaf first, back up to the root.
	for i := len(l.chain) - 1; i >= 0; i-- {
		l.chain[i].unlockLevel()
	}

	// InvalidateAll respects locks still held by an enclosing scope: with
	// nested locks the level stays frozen until the outermost release.
	l.level.InvalidateAll()
}

func (e *Engine) lockLevel() {
	e.mu.Lock()
	e.lockCount++
	e.mu.Unlock()
}

func (e *Engine) unlockLevel() {
	e.mu.Lock()
	if e.lockCount > 0 {
		e.lockCount--
	}
	e.mu.Unlock()
}
