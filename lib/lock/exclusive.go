package lock

// exclusiveRW promotes an exclusive-only Locker to an RWLocker by mapping
// every shared request onto the exclusive capability.
type exclusiveRW struct {
	Locker
}

// Exclusive wraps l so it can be used wherever an RWLocker is required.
// Shared holders then exclude each other, which is always correct but gives
// up reader parallelism. If l already is an RWLocker it is returned as is.
func Exclusive(l Locker) RWLocker {
	if rw, ok := l.(RWLocker); ok {
		return rw
	}
	return exclusiveRW{Locker: l}
}

func (e exclusiveRW) RLock()         { e.Lock() }
func (e exclusiveRW) RUnlock()       { e.Unlock() }
func (e exclusiveRW) TryRLock() bool { return e.TryLock() }
