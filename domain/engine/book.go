package engine

import (
	"sync"

	"github.com/emirpasic/gods/sets/treeset"
)

// Book is one side of one instrument: resting orders kept in strict
// price-time priority. Sells sort by ascending price, buys by
// descending price; ties break on arrival timestamp, then id, so the
// ordering stays total even when two arrivals share a nanosecond.
//
// Structural mutation (Insert, Remove, RemoveFilled) takes the write
// lock; Walk takes the read lock, so any number of matchers can
// traverse concurrently. The instrument gate keeps walkers and
// structural writers in disjoint admission groups, the RWMutex only
// serializes writers inside one group.
type Book struct {
	mu  sync.RWMutex
	set *treeset.Set
}

// Level is an aggregated (price, quantity) rung of the book ladder.
type Level struct {
	Price int64 `json:"price"`
	Qty   int64 `json:"qty"`
}

func NewBook(side Side) *Book {
	cmp := sellCompare
	if side == Buy {
		cmp = buyCompare
	}
	return &Book{set: treeset.NewWith(cmp)}
}

func sellCompare(a, b interface{}) int {
	x, y := a.(*Order), b.(*Order)
	if x.Price != y.Price {
		if x.Price < y.Price {
			return -1
		}
		return 1
	}
	return timeIDCompare(x, y)
}

func buyCompare(a, b interface{}) int {
	x, y := a.(*Order), b.(*Order)
	if x.Price != y.Price {
		if x.Price > y.Price {
			return -1
		}
		return 1
	}
	return timeIDCompare(x, y)
}

func timeIDCompare(x, y *Order) int {
	if x.Timestamp != y.Timestamp {
		if x.Timestamp < y.Timestamp {
			return -1
		}
		return 1
	}
	switch {
	case x.ID < y.ID:
		return -1
	case x.ID > y.ID:
		return 1
	default:
		return 0
	}
}

// Insert adds a resting order preserving the side's total order.
func (b *Book) Insert(o *Order) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.set.Add(o)
}

// Walk visits resting orders from best to worst priority until fn
// returns false. Safe against concurrent walkers; callers that intend
// structural changes must hold the instrument gate.
func (b *Book) Walk(fn func(*Order) bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	it := b.set.Iterator()
	for it.Next() {
		if !fn(it.Value().(*Order)) {
			return
		}
	}
}

// RemoveFilled drops the contiguous best-priority prefix of dead
// orders. Matching always drains the best order before touching the
// next one, so a zero-quantity order deeper in the book implies every
// better order is zero too; stopping at the first live order is exact.
// Returns the number of orders dropped.
func (b *Book) RemoveFilled() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	var dead []interface{}
	it := b.set.Iterator()
	for it.Next() {
		o := it.Value().(*Order)
		if o.Remaining() != 0 {
			break
		}
		dead = append(dead, o)
	}
	b.set.Remove(dead...)
	return len(dead)
}

// Remove drops one specific order regardless of position. A no-op if
// the order is not in the book.
func (b *Book) Remove(o *Order) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.set.Remove(o)
}

// Size reports the number of resting orders, dead prefix included.
func (b *Book) Size() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.set.Size()
}

// Levels aggregates live quantity per price, best rung first.
func (b *Book) Levels() []Level {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var out []Level
	it := b.set.Iterator()
	for it.Next() {
		o := it.Value().(*Order)
		qty := o.Remaining()
		if qty == 0 {
			continue
		}
		if n := len(out); n > 0 && out[n-1].Price == o.Price {
			out[n-1].Qty += qty
			continue
		}
		out = append(out, Level{Price: o.Price, Qty: qty})
	}
	return out
}
