package engine

import "time"

// Engine is the matching core: one entry point per decoded client
// command. Commands for different instruments never contend; commands
// of the same kind on one instrument run in parallel and serialize only
// on individual resting orders; structural cleanup happens exactly once
// per admission group, on behalf of the whole batch.
type Engine struct {
	dir  Directory
	reg  Registry
	sink Sink
	now  func() int64
}

// New builds an engine emitting into sink. now supplies timestamps
// (nanoseconds); nil defaults to the wall clock.
func New(sink Sink, now func() int64) *Engine {
	if now == nil {
		now = func() int64 { return time.Now().UnixNano() }
	}
	return &Engine{sink: sink, now: now}
}

// Buy matches an incoming buy against the sell book and rests any
// remainder on the buy side. Preconditions (qty > 0, id not live) are
// the transport's problem.
func (e *Engine) Buy(id uint64, symbol string, price, qty int64) {
	ins := e.dir.Get(symbol)
	ins.Gate.Enter(MatchBuy)
	defer ins.Gate.Leave(MatchBuy)

	remaining := qty
	ins.Sells.Walk(func(rest *Order) bool {
		if rest.Price > price {
			return false
		}
		e.fill(rest, id, &remaining)
		return remaining > 0
	})

	if remaining > 0 {
		e.rest(ins, Buy, id, price, remaining)
	}
}

// Sell is the mirror image of Buy against the buy book.
func (e *Engine) Sell(id uint64, symbol string, price, qty int64) {
	ins := e.dir.Get(symbol)
	ins.Gate.Enter(MatchSell)
	defer ins.Gate.Leave(MatchSell)

	remaining := qty
	ins.Buys.Walk(func(rest *Order) bool {
		if rest.Price < price {
			return false
		}
		e.fill(rest, id, &remaining)
		return remaining > 0
	})

	if remaining > 0 {
		e.rest(ins, Sell, id, price, remaining)
	}
}

// fill atomically trades the incoming remainder against one resting
// order. A resting order already drained by a concurrent matcher is
// skipped without an event; whichever matcher takes the order lock
// first wins, so the read-decide-mutate sequence is race-free.
func (e *Engine) fill(rest *Order, takerID uint64, remaining *int64) {
	rest.mu.Lock()
	defer rest.mu.Unlock()

	if rest.qty == 0 {
		return
	}

	traded := rest.qty
	if *remaining < traded {
		traded = *remaining
	}
	// Price improvement accrues to the incoming side: trades print at
	// the resting price.
	e.sink.OrderExecuted(rest.ID, takerID, rest.execID, rest.Price, traded, e.now())
	rest.qty -= traded
	*remaining -= traded

	if rest.qty == 0 {
		// Fully drained: nothing left to cancel. Structural removal
		// from the book is deferred to the group's last leaver.
		e.reg.drop(rest.ID)
	} else {
		rest.execID++
	}
}

// rest admits the unmatched remainder as a resting order.
func (e *Engine) rest(ins *Instrument, side Side, id uint64, price, qty int64) {
	ts := e.now()
	o := newOrder(id, price, qty, ts)
	book := ins.Buys
	if side == Sell {
		book = ins.Sells
	}
	book.Insert(o)
	e.reg.put(id, ins.Symbol, side, o)
	e.sink.OrderAdded(id, ins.Symbol, price, qty, side == Sell, ts)
}

// Cancel withdraws a resting order by id. Reports ok=false for unknown
// ids and for orders a racing fill (or earlier cancel) already killed;
// at most one cancel of a given id ever reports ok=true.
func (e *Engine) Cancel(id uint64) {
	ent, ok := e.reg.get(id)
	if !ok {
		e.sink.OrderDeleted(id, false, e.now())
		return
	}

	ins := e.dir.Get(ent.symbol)
	ins.Gate.Enter(CancelOrders)
	defer ins.Gate.Leave(CancelOrders)

	o := ent.order
	o.mu.Lock()
	if o.qty == 0 {
		o.mu.Unlock()
		e.sink.OrderDeleted(id, false, e.now())
		return
	}
	// Zeroing first makes a racing second cancel observe already-gone
	// even before the structural removal below lands.
	o.qty = 0
	o.mu.Unlock()

	book := ins.Buys
	if ent.side == Sell {
		book = ins.Sells
	}
	book.Remove(o)
	e.reg.drop(id)
	e.sink.OrderDeleted(id, true, e.now())
}

// Levels snapshots both ladders of an instrument under the inspect
// group, so no matcher or cancel is mid-mutation while reading.
func (e *Engine) Levels(symbol string) (bids, asks []Level) {
	ins := e.dir.Get(symbol)
	ins.Gate.Enter(Inspect)
	defer ins.Gate.Leave(Inspect)
	return ins.Buys.Levels(), ins.Sells.Levels()
}
