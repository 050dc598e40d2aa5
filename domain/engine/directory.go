package engine

import "sync"

// Instrument bundles the two books and the gate coordinating access to
// them. Created on first reference to its symbol, never evicted.
type Instrument struct {
	Symbol string
	Buys   *Book
	Sells  *Book
	Gate   *Gate
}

func newInstrument(symbol string) *Instrument {
	ins := &Instrument{
		Symbol: symbol,
		Buys:   NewBook(Buy),
		Sells:  NewBook(Sell),
	}
	// Matching consumes the contra book; the last matcher out sweeps
	// the dead prefix it left behind.
	ins.Gate = NewGate(map[Category]func(){
		MatchBuy:  func() { ins.Sells.RemoveFilled() },
		MatchSell: func() { ins.Buys.RemoveFilled() },
	})
	return ins
}

// Directory resolves a symbol to its instrument, creating it lazily.
// Concurrent first-touchers race through LoadOrStore; exactly one entry
// wins and everyone observes it.
type Directory struct {
	m sync.Map
}

func (d *Directory) Get(symbol string) *Instrument {
	if v, ok := d.m.Load(symbol); ok {
		return v.(*Instrument)
	}
	v, _ := d.m.LoadOrStore(symbol, newInstrument(symbol))
	return v.(*Instrument)
}
