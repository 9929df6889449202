package application

import (
	"context"
	"sync"
)

// fundingLocks serializes channel fundings per payer so that the same
// settled amount is never pushed twice. An entry lives as long as someone
// holds or waits for it.
type fundingLocks struct {
	lock  sync.Mutex
	locks map[string]*fundingLock
}

type fundingLock struct {
	ch   chan struct{}
	refs int
}

func newFundingLocks() *fundingLocks {
	return &fundingLocks{locks: make(map[string]*fundingLock)}
}

func (l *fundingLocks) ref(pubkey string) chan struct{} {
	l.lock.Lock()
	defer l.lock.Unlock()

	fl, ok := l.locks[pubkey]
	if !ok {
		fl = &fundingLock{ch: make(chan struct{}, 1)}
		l.locks[pubkey] = fl
	}
	fl.refs++
	return fl.ch
}

func (l *fundingLocks) unref(pubkey string) {
	l.lock.Lock()
	defer l.lock.Unlock()
	l.unrefLocked(pubkey)
}

func (l *fundingLocks) unrefLocked(pubkey string) {
	fl, ok := l.locks[pubkey]
	if !ok {
		return
	}
	fl.refs--
	if fl.refs <= 0 {
		delete(l.locks, pubkey)
	}
}

func (l *fundingLocks) acquire(ctx context.Context, pubkey string) error {
	ch := l.ref(pubkey)
	select {
	case ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		l.unref(pubkey)
		return ctx.Err()
	}
}

func (l *fundingLocks) tryAcquire(pubkey string) bool {
	ch := l.ref(pubkey)
	select {
	case ch <- struct{}{}:
		return true
	default:
		l.unref(pubkey)
		return false
	}
}

// release is a no-op when the lock is not held.
func (l *fundingLocks) release(pubkey string) {
	l.lock.Lock()
	defer l.lock.Unlock()

	fl, ok := l.locks[pubkey]
	if !ok {
		return
	}
	select {
	case <-fl.ch:
		l.unrefLocked(pubkey)
	default:
	}
}

func (l *fundingLocks) size() int {
	l.lock.Lock()
	defer l.lock.Unlock()
	return len(l.locks)
}
