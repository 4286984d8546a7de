package student

import "sync"

// locker serializes work per key; entries are dropped once nobody holds or waits on them.
type locker struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	sync.Mutex
	refs int
}

func newLocker() *locker {
	return &locker{locks: make(map[string]*keyLock)}
}

// Lock blocks until `key` is free and returns its unlock func.
func (l *locker) Lock(key string) (unlock func()) {
	l.mu.Lock()
	kl, ok := l.locks[key]
	if !ok {
		kl = new(keyLock)
		l.locks[key] = kl
	}
	kl.refs++
	l.mu.Unlock()

	kl.Lock()
	return func() {
		kl.Unlock()

		l.mu.Lock()
		kl.refs--
		if kl.refs == 0 {
			delete(l.locks, key)
		}
		l.mu.Unlock()
	}
}
