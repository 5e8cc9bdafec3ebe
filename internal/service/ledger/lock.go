package ledger

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// walletLocks serializes mutations per wallet. Entries are reference counted
// and dropped once no caller holds or waits on them.
type walletLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*walletLock
}

type walletLock struct {
	sem  chan struct{}
	refs int
}

func newWalletLocks() *walletLocks {
	return &walletLocks{locks: make(map[uuid.UUID]*walletLock)}
}

// acquire blocks until the wallet is free or ctx is done. The returned
// release func must be called exactly once.
func (l *walletLocks) acquire(ctx context.Context, walletID uuid.UUID) (func(), error) {
	l.mu.Lock()
	wl, ok := l.locks[walletID]
	if !ok {
		wl = &walletLock{sem: make(chan struct{}, 1)}
		l.locks[walletID] = wl
	}
	wl.refs++
	l.mu.Unlock()

	select {
	case wl.sem <- struct{}{}:
	case <-ctx.Done():
		l.unref(walletID, wl)
		return nil, ctx.Err()
	}

	return func() {
		<-wl.sem
		l.unref(walletID, wl)
	}, nil
}

func (l *walletLocks) unref(walletID uuid.UUID, wl *walletLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	wl.refs--
	if wl.refs == 0 {
		delete(l.locks, walletID)
	}
}
