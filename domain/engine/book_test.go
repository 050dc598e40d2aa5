package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(b *Book) []uint64 {
	var ids []uint64
	b.Walk(func(o *Order) bool {
		ids = append(ids, o.ID)
		return true
	})
	return ids
}

func TestSellBookOrdersByAscendingPriceThenTime(t *testing.T) {
	b := NewBook(Sell)
	b.Insert(newOrder(1, 105, 1, 10))
	b.Insert(newOrder(2, 100, 1, 20))
	b.Insert(newOrder(3, 100, 1, 15))
	b.Insert(newOrder(4, 110, 1, 5))

	assert.Equal(t, []uint64{3, 2, 1, 4}, collect(b))
}

func TestBuyBookOrdersByDescendingPriceThenTime(t *testing.T) {
	b := NewBook(Buy)
	b.Insert(newOrder(1, 95, 1, 10))
	b.Insert(newOrder(2, 100, 1, 20))
	b.Insert(newOrder(3, 100, 1, 15))
	b.Insert(newOrder(4, 90, 1, 5))

	assert.Equal(t, []uint64{3, 2, 1, 4}, collect(b))
}

func TestEqualPriceAndTimeFallsBackToID(t *testing.T) {
	b := NewBook(Sell)
	b.Insert(newOrder(7, 100, 1, 10))
	b.Insert(newOrder(3, 100, 1, 10))

	assert.Equal(t, []uint64{3, 7}, collect(b))
}

func TestWalkStopsWhenCallbackReturnsFalse(t *testing.T) {
	b := NewBook(Sell)
	b.Insert(newOrder(1, 100, 1, 1))
	b.Insert(newOrder(2, 101, 1, 2))
	b.Insert(newOrder(3, 102, 1, 3))

	var seen int
	b.Walk(func(o *Order) bool {
		seen++
		return o.Price < 101
	})
	assert.Equal(t, 2, seen)
}

func TestRemoveFilledDropsOnlyTheDeadPrefix(t *testing.T) {
	b := NewBook(Sell)
	dead1 := newOrder(1, 100, 0, 1)
	dead2 := newOrder(2, 100, 0, 2)
	live := newOrder(3, 101, 5, 3)
	deeperDead := newOrder(4, 102, 0, 4)
	b.Insert(dead1)
	b.Insert(dead2)
	b.Insert(live)
	b.Insert(deeperDead)

	assert.Equal(t, 2, b.RemoveFilled())
	// The dead order behind a live one stays; matching never produces
	// that shape, but RemoveFilled must not scan past the first live
	// order.
	assert.Equal(t, []uint64{3, 4}, collect(b))
}

func TestRemoveFilledOnEmptyBook(t *testing.T) {
	b := NewBook(Buy)
	assert.Equal(t, 0, b.RemoveFilled())
}

func TestRemoveSpecificOrder(t *testing.T) {
	b := NewBook(Sell)
	o1 := newOrder(1, 100, 5, 1)
	o2 := newOrder(2, 101, 5, 2)
	b.Insert(o1)
	b.Insert(o2)

	b.Remove(o2)
	assert.Equal(t, []uint64{1}, collect(b))

	// Removing an order that is already gone is a no-op.
	b.Remove(o2)
	assert.Equal(t, 1, b.Size())
}

func TestLevelsAggregatesByPriceSkippingDead(t *testing.T) {
	b := NewBook(Sell)
	b.Insert(newOrder(1, 100, 5, 1))
	b.Insert(newOrder(2, 100, 3, 2))
	b.Insert(newOrder(3, 105, 0, 3))
	b.Insert(newOrder(4, 110, 7, 4))

	levels := b.Levels()
	require.Len(t, levels, 2)
	assert.Equal(t, Level{Price: 100, Qty: 8}, levels[0])
	assert.Equal(t, Level{Price: 110, Qty: 7}, levels[1])
}
