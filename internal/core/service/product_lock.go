package service

import (
	"context"
	"sync"
)

// productLocks hands out one lock per product id. Waiters give up when their
// context is done, so a hung lookup only blocks operations on the same product.
type productLocks struct {
	mu    sync.Mutex
	slots map[int64]*lockSlot
}

type lockSlot struct {
	ch   chan struct{}
	refs int
}

func newProductLocks() *productLocks {
	return &productLocks{slots: make(map[int64]*lockSlot)}
}

func (l *productLocks) lock(ctx context.Context, productID int64) (func(), error) {
	l.mu.Lock()
	slot, ok := l.slots[productID]
	if !ok {
		slot = &lockSlot{ch: make(chan struct{}, 1)}
		l.slots[productID] = slot
	}
	slot.refs++
	l.mu.Unlock()

	select {
	case slot.ch <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-slot.ch
				l.release(productID, slot)
			})
		}, nil
	case <-ctx.Done():
		l.release(productID, slot)
		return nil, ctx.Err()
	}
}

func (l *productLocks) release(productID int64, slot *lockSlot) {
	l.mu.Lock()
	defer l.mu.Unlock()

	slot.refs--
	if slot.refs == 0 {
		delete(l.slots, productID)
	}
}
