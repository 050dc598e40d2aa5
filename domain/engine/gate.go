package engine

import "sync"

// Category indexes one admission group of a Gate. Participants of the
// same category run fully in parallel; a different category blocks
// until the current one drains.
type Category int

const (
	MatchBuy Category = iota
	MatchSell
	CancelOrders
	Inspect

	numCategories
)

// Gate is a counting admission gate over one shared structural mutex.
// The first participant entering an idle category takes the structural
// lock on behalf of the whole group; the last one out runs the
// category's deferred cleanup and releases it. This is the
// readers-admitted-in-groups pattern with N mutually exclusive groups
// instead of a reader/writer split.
//
// A draining category can be starved by late joiners of the active
// one; accepted as a liveness trade-off, no fairness is attempted.
type Gate struct {
	structural sync.Mutex
	cats       [numCategories]admission
}

type admission struct {
	mu      sync.Mutex
	active  int
	cleanup func()
}

// NewGate builds a gate with an optional deferred cleanup closure per
// category, run exactly once per group drain while the structural lock
// is still held.
func NewGate(cleanups map[Category]func()) *Gate {
	g := &Gate{}
	for c, fn := range cleanups {
		g.cats[c].cleanup = fn
	}
	return g
}

func (g *Gate) Enter(c Category) {
	a := &g.cats[c]
	a.mu.Lock()
	a.active++
	if a.active == 1 {
		g.structural.Lock()
	}
	a.mu.Unlock()
}

func (g *Gate) Leave(c Category) {
	a := &g.cats[c]
	a.mu.Lock()
	a.active--
	if a.active == 0 {
		if a.cleanup != nil {
			a.cleanup()
		}
		g.structural.Unlock()
	}
	a.mu.Unlock()
}
