package catalog

import "context"

// Locker serialises catalog mutations and the ticket writes that name a
// venue. Lock blocks until the lock is held or ctx is done.
type Locker interface {
	Lock(ctx context.Context) (unlock func(), err error)
}

// LocalLocker is a Locker for a single process.
type LocalLocker struct {
	sem chan struct{}
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{sem: make(chan struct{}, 1)}
}

func (l *LocalLocker) Lock(ctx context.Context) (func(), error) {
	select {
	case l.sem <- struct{}{}:
		return func() { <-l.sem }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
