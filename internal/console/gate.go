package console

import (
	"sync"
)

// Gate guards the submit control: it is held from the moment a query is sent
// until its response (success or failure) arrives.
type Gate struct {
	mu       sync.Mutex
	busy     bool
	onChange func(busy bool)
}

// NewGate returns a gate that reports every transition to onChange.
func NewGate(onChange func(busy bool)) *Gate {
	return &Gate{onChange: onChange}
}

// Acquire takes the gate. The returned release is idempotent: only its first
// call frees the gate, so a stale release can never free a later holder.
func (g *Gate) Acquire() (release func(), ok bool) {
	g.mu.Lock()
	if g.busy {
		g.mu.Unlock()
		return nil, false
	}
	g.busy = true
	g.mu.Unlock()
	g.notify(true)

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			g.busy = false
			g.mu.Unlock()
			g.notify(false)
		})
	}, true
}

// Busy reports whether a submission is in flight.
func (g *Gate) Busy() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.busy
}

func (g *Gate) notify(busy bool) {
	if g.onChange != nil {
		g.onChange(busy)
	}
}
