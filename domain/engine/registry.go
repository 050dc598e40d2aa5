package engine

import "sync"

// resting locates a live order for cancellation: the instrument that
// holds it, the side it rests on, and the order itself.
type resting struct {
	symbol string
	side   Side
	order  *Order
}

// Registry maps order id to its resting location. Entries appear only
// when a residual actually rests (a fully matched incoming order has
// nothing left to cancel) and disappear on full fill or cancel.
// Disjoint ids never block each other; sync.Map gives that directly
// for this insert-lookup-erase workload.
type Registry struct {
	m sync.Map
}

func (r *Registry) put(id uint64, symbol string, side Side, o *Order) {
	r.m.Store(id, resting{symbol: symbol, side: side, order: o})
}

func (r *Registry) get(id uint64) (resting, bool) {
	v, ok := r.m.Load(id)
	if !ok {
		return resting{}, false
	}
	return v.(resting), true
}

func (r *Registry) drop(id uint64) {
	r.m.Delete(id)
}
