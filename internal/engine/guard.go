package engine

// runGuard is a single-slot semaphore that keeps at most one run in a
// non-terminal state process-wide. Acquire never blocks; callers that
// lose the race get an explicit busy error instead of queueing, and
// release happens on every exit path via defer.
type runGuard struct {
	slot chan struct{}
}

func newRunGuard() *runGuard {
	g := &runGuard{slot: make(chan struct{}, 1)}
	g.slot <- struct{}{}
	return g
}

// tryAcquire claims the slot, returning false if a run is in flight.
func (g *runGuard) tryAcquire() bool {
	select {
	case <-g.slot:
		return true
	default:
		return false
	}
}

// release returns the slot. Releasing an unheld guard is a programming
// error and would block; the single deferred call site prevents it.
func (g *runGuard) release() {
	g.slot <- struct{}{}
}
