package usecase

import "sync"

// indexLocks выдает мьютекс на позицию коллекции; запись удаляется,
// когда ее больше никто не держит.
type indexLocks struct {
	mu    sync.Mutex
	locks map[int]*indexLock
}

type indexLock struct {
	mu   sync.Mutex
	refs int
}

func newIndexLocks() *indexLocks {
	return &indexLocks{locks: make(map[int]*indexLock)}
}

// Lock blocks until the caller owns index and returns the unlock func.
// Waiters are admitted in arrival order as far as sync.Mutex allows.
func (l *indexLocks) Lock(index int) func() {
	l.mu.Lock()
	lock, ok := l.locks[index]
	if !ok {
		lock = &indexLock{}
		l.locks[index] = lock
	}
	lock.refs++
	l.mu.Unlock()

	lock.mu.Lock()
	return func() {
		lock.mu.Unlock()

		l.mu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(l.locks, index)
		}
		l.mu.Unlock()
	}
}
