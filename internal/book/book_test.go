package book

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lightsgoout/lobcore/internal/wire"
)

func add(id uint64, side wire.Side, price, qty int64) wire.MarketUpdate {
	return wire.MarketUpdate{Kind: wire.Add, OrderID: id, Side: side, Price: price, Qty: qty}
}

func modify(id uint64, price, qty int64) wire.MarketUpdate {
	return wire.MarketUpdate{Kind: wire.Modify, OrderID: id, Price: price, Qty: qty}
}

func cancel(id uint64) wire.MarketUpdate {
	return wire.MarketUpdate{Kind: wire.Cancel, OrderID: id}
}

func TestInsertAndQueryBestBidAsk(t *testing.T) {
	b, err := New(90, 110, 16)
	require.NoError(t, err)

	b.ApplyUpdate(add(1, wire.Bid, 99, 10))
	b.ApplyUpdate(add(2, wire.Bid, 100, 5))
	b.ApplyUpdate(add(3, wire.Ask, 101, 7))
	b.ApplyUpdate(add(4, wire.Ask, 102, 3))

	var lvl Level
	require.True(t, b.BestBid(&lvl))
	assert.Equal(t, Level{Price: 100, TotalQty: 5}, lvl)

	require.True(t, b.BestAsk(&lvl))
	assert.Equal(t, Level{Price: 101, TotalQty: 7}, lvl)
}

func TestModifyQuantityOnlyKeepsPriceLevel(t *testing.T) {
	b, err := New(90, 110, 16)
	require.NoError(t, err)

	b.ApplyUpdate(add(1, wire.Bid, 100, 10))
	b.ApplyUpdate(modify(1, 100, 4))

	var lvl Level
	require.True(t, b.BestBid(&lvl))
	assert.Equal(t, Level{Price: 100, TotalQty: 4}, lvl)
}

func TestModifyPriceChangeMovesLevels(t *testing.T) {
	b, err := New(90, 110, 16)
	require.NoError(t, err)

	b.ApplyUpdate(add(1, wire.Bid, 100, 10))
	b.ApplyUpdate(modify(1, 105, 10))

	var lvl Level
	require.True(t, b.BestBid(&lvl))
	assert.Equal(t, Level{Price: 105, TotalQty: 10}, lvl)

	// old level must be empty now
	assert.Equal(t, invalid, b.bidLevels[b.levelIndex(100)].head)
}

func TestCancelEmptiesBookSide(t *testing.T) {
	b, err := New(90, 110, 16)
	require.NoError(t, err)

	b.ApplyUpdate(add(1, wire.Bid, 100, 10))
	b.ApplyUpdate(cancel(1))

	var lvl Level
	assert.False(t, b.BestBid(&lvl))
}

func TestFIFOAggregationAtSamePriceLevel(t *testing.T) {
	b, err := New(90, 110, 16)
	require.NoError(t, err)

	b.ApplyUpdate(add(1, wire.Ask, 101, 5))
	b.ApplyUpdate(add(2, wire.Ask, 101, 3))
	b.ApplyUpdate(add(3, wire.Ask, 101, 2))

	var lvl Level
	require.True(t, b.BestAsk(&lvl))
	assert.Equal(t, int64(10), lvl.TotalQty)

	b.ApplyUpdate(cancel(1))
	require.True(t, b.BestAsk(&lvl))
	assert.Equal(t, int64(5), lvl.TotalQty)
}

func TestNodeRecyclingUnderTightPool(t *testing.T) {
	b, err := New(90, 110, 3)
	require.NoError(t, err)

	b.ApplyUpdate(add(0, wire.Bid, 100, 1))
	b.ApplyUpdate(add(1, wire.Bid, 100, 1))
	b.ApplyUpdate(add(2, wire.Bid, 100, 1))
	assert.Equal(t, 0, b.FreeNodes())

	// pool exhausted: a fourth insert is silently dropped
	b.ApplyUpdate(add(0, wire.Ask, 101, 1))
	assert.Equal(t, 3, b.nodes.Live())

	b.ApplyUpdate(cancel(1))
	assert.Equal(t, 1, b.FreeNodes())

	b.ApplyUpdate(add(1, wire.Ask, 102, 4))
	assert.Equal(t, 0, b.FreeNodes())

	var lvl Level
	require.True(t, b.BestAsk(&lvl))
	assert.Equal(t, Level{Price: 102, TotalQty: 4}, lvl)
}

func TestOutOfRangePriceIsDropped(t *testing.T) {
	b, err := New(90, 110, 16)
	require.NoError(t, err)

	rec := &countingRecorder{}
	b2, err := New(90, 110, 16, WithDropRecorder(rec))
	require.NoError(t, err)

	b.ApplyUpdate(add(1, wire.Bid, 1000, 10))
	var lvl Level
	assert.False(t, b.BestBid(&lvl))

	b2.ApplyUpdate(add(1, wire.Bid, 1000, 10))
	assert.Equal(t, 1, rec.counts[ReasonOutOfRangePrice])
}

func TestOutOfRangeOrderIDIsDropped(t *testing.T) {
	rec := &countingRecorder{}
	b, err := New(90, 110, 4, WithDropRecorder(rec))
	require.NoError(t, err)

	b.ApplyUpdate(add(999, wire.Bid, 100, 10))
	assert.Equal(t, 1, rec.counts[ReasonOutOfRangeID])
}

func TestModifyUnknownIDIsDropped(t *testing.T) {
	rec := &countingRecorder{}
	b, err := New(90, 110, 4, WithDropRecorder(rec))
	require.NoError(t, err)

	b.ApplyUpdate(modify(7, 100, 5))
	assert.Equal(t, 1, rec.counts[ReasonUnknownID])
}

func TestCancelUnknownIDIsDropped(t *testing.T) {
	rec := &countingRecorder{}
	b, err := New(90, 110, 4, WithDropRecorder(rec))
	require.NoError(t, err)

	b.ApplyUpdate(cancel(2))
	assert.Equal(t, 1, rec.counts[ReasonUnknownID])
}

func TestCancelIgnoresAdvisoryFields(t *testing.T) {
	b, err := New(90, 110, 16)
	require.NoError(t, err)

	b.ApplyUpdate(add(1, wire.Bid, 100, 10))
	// advisory side/price/qty on the cancel update are wrong on purpose;
	// the stored node is authoritative.
	b.ApplyUpdate(wire.MarketUpdate{Kind: wire.Cancel, OrderID: 1, Side: wire.Ask, Price: 999, Qty: 999})

	var lvl Level
	assert.False(t, b.BestBid(&lvl))
}

func TestAddCancelRoundTripIsIdentity(t *testing.T) {
	b, err := New(90, 110, 16)
	require.NoError(t, err)

	free0 := b.FreeNodes()
	b.ApplyUpdate(add(5, wire.Ask, 105, 20))
	b.ApplyUpdate(cancel(5))

	assert.Equal(t, free0, b.FreeNodes())
	var lvl Level
	assert.False(t, b.BestAsk(&lvl))
}

func TestModifyThenModifyBackIsIdentity(t *testing.T) {
	b, err := New(90, 110, 16)
	require.NoError(t, err)

	b.ApplyUpdate(add(9, wire.Bid, 100, 10))
	b.ApplyUpdate(modify(9, 104, 7))
	b.ApplyUpdate(modify(9, 100, 10))

	var lvl Level
	require.True(t, b.BestBid(&lvl))
	assert.Equal(t, Level{Price: 100, TotalQty: 10}, lvl)
	assert.Equal(t, invalid, b.bidLevels[b.levelIndex(104)].head)
}

type countingRecorder struct {
	counts map[string]int
}

func (r *countingRecorder) RecordDrop(reason string) {
	if r.counts == nil {
		r.counts = make(map[string]int)
	}
	r.counts[reason]++
}

// TestRandomSequenceMaintainsAggregateAndIndexInvariants drives a book
// through a long random sequence of add/modify/cancel over a small id and
// price space, checking after every step that:
//   - each level's totalQty equals the sum of its live nodes' qty
//   - every non-empty idIndex entry points to a node whose orderID and
//     side/price agree with the level it's linked into
func TestRandomSequenceMaintainsAggregateAndIndexInvariants(t *testing.T) {
	const numIDs = 20
	const minPrice, maxPrice = 95, 105

	b, err := New(minPrice, maxPrice, numIDs)
	require.NoError(t, err)

	live := make(map[uint64]bool)
	rng := rand.New(rand.NewSource(42))

	for step := 0; step < 5000; step++ {
		id := uint64(rng.Intn(numIDs))
		price := minPrice + rng.Int63n(maxPrice-minPrice+1)
		qty := 1 + rng.Int63n(50)
		side := wire.Side(rng.Intn(2))

		switch {
		case !live[id] || rng.Intn(3) == 0:
			b.ApplyUpdate(add(id, side, price, qty))
			live[id] = true
		case rng.Intn(2) == 0:
			b.ApplyUpdate(modify(id, price, qty))
		default:
			b.ApplyUpdate(cancel(id))
			live[id] = false
		}

		checkLevelAggregatesConsistent(t, b.bidLevels, b.nodes)
		checkLevelAggregatesConsistent(t, b.askLevels, b.nodes)
		checkIDIndexConsistent(t, b)
	}
}

func checkLevelAggregatesConsistent(t *testing.T, levels []priceLevel, nodes interface {
	At(uint32) *orderNode
}) {
	t.Helper()
	for i := range levels {
		level := &levels[i]
		var sum int64
		cur := level.head
		for cur != invalid {
			n := nodes.At(cur)
			sum += int64(n.qty)
			cur = n.next
		}
		assert.Equal(t, sum, level.totalQty, "level totalQty must equal sum of live node quantities")
	}
}

func checkIDIndexConsistent(t *testing.T, b *OrderBook) {
	t.Helper()
	for id, handle := range b.idIndex {
		if handle == invalid {
			continue
		}
		node := b.nodes.At(handle)
		assert.Equal(t, uint64(id), node.orderID, "idIndex must map id to the node carrying that same id")

		levels := b.levelsFor(node.side)
		level := &levels[b.levelIndex(node.price)]
		found := false
		for cur := level.head; cur != invalid; cur = b.nodes.At(cur).next {
			if cur == handle {
				found = true
				break
			}
		}
		assert.True(t, found, "every live node reachable via idIndex must also be linked into its price level's FIFO")
	}
}
