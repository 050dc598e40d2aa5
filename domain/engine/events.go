package engine

// Sink receives every observable book mutation, one call per
// occurrence, timestamp taken at emission. Implementations are invoked
// on the caller's goroutine, sometimes under an order lock; they should
// hand off anything slow.
type Sink interface {
	// OrderAdded fires when a residual rests in a book; qty is the
	// unmatched remainder, ts the order's arrival timestamp.
	OrderAdded(id uint64, symbol string, price, qty int64, sell bool, ts int64)
	// OrderExecuted fires once per resting order touched by a match.
	// Price is always the resting order's price; execID distinguishes
	// successive partial fills of the same resting order.
	OrderExecuted(restingID, takerID, execID uint64, price, qty int64, ts int64)
	// OrderDeleted reports a cancel attempt; ok is false when the id is
	// unknown or the order was already gone.
	OrderDeleted(id uint64, ok bool, ts int64)
}

// Event kinds as they appear on the wire.
const (
	EventAdd  = "add"
	EventExec = "exec"
	EventDel  = "del"
)

// Event is the flat serializable form of one sink call, versioned so
// downstream consumers can evolve. Seq is assigned by the venue when
// the event is staged for delivery.
type Event struct {
	V       int    `json:"v"`
	Type    string `json:"type"`
	Seq     uint64 `json:"seq,omitempty"`
	OrderID uint64 `json:"order_id"`
	TakerID uint64 `json:"taker_id,omitempty"`
	ExecID  uint64 `json:"exec_id,omitempty"`
	Symbol  string `json:"symbol,omitempty"`
	Price   int64  `json:"price,omitempty"`
	Qty     int64  `json:"qty,omitempty"`
	Sell    bool   `json:"sell,omitempty"`
	OK      bool   `json:"ok,omitempty"`
	Time    int64  `json:"time"`
}

// EventVersion is the current wire version of Event.
const EventVersion = 1
