package engine

import "sync"

// Side of the book an order rests on.
type Side uint8

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	if s == Sell {
		return "sell"
	}
	return "buy"
}

// Order is one unit of resting liquidity. Price, Timestamp and ID are
// fixed at admission and form the book's sort key; the remaining
// quantity and the execution counter mutate in place under the order's
// own lock, so concurrent matchers only contend when they hit the same
// resting order.
type Order struct {
	ID        uint64
	Price     int64
	Timestamp int64

	mu     sync.Mutex
	qty    int64
	execID uint64
}

func newOrder(id uint64, price, qty, ts int64) *Order {
	return &Order{
		ID:        id,
		Price:     price,
		Timestamp: ts,
		qty:       qty,
		execID:    1,
	}
}

// Remaining reports the unfilled quantity. Zero means the order is dead
// and must never match again.
func (o *Order) Remaining() int64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.qty
}
