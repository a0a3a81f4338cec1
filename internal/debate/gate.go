package debate

import "sync"

// waitGate is a single-slot wait handle: one waiter blocks on Done until
// Release is called. Release is idempotent, so a paused turn loop can be
// woken by whichever of resume or stop arrives first without either caller
// needing to know about the other.
type waitGate struct {
	mu       sync.Mutex
	ch       chan struct{}
	released bool
}

func newWaitGate() *waitGate {
	return &waitGate{ch: make(chan struct{})}
}

// Done returns a channel that is closed when the gate is released.
func (g *waitGate) Done() <-chan struct{} {
	return g.ch
}

// Release opens the gate. Subsequent calls are no-ops.
func (g *waitGate) Release() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.released {
		g.released = true
		close(g.ch)
	}
}
