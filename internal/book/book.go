// Package book implements the per-instrument limit order book: a bounded
// price-range, fixed-capacity-pool engine that applies add/modify/cancel
// updates and maintains O(1)-amortized best bid/ask.
//
// Grounded on _examples/lightsgoout-go-quantcup/engine.go (pricePoints
// dense array, askMin/bidMax cursors, arena-allocated entries), generalized
// away from matching:
// this book never crosses bid against ask — it only maintains resting
// orders, per spec's explicit non-goal. The add/modify/cancel semantics
// themselves follow original_source/src/core/order_book.cpp.
package book

import (
	"fmt"

	"github.com/lightsgoout/lobcore/internal/pool"
	"github.com/lightsgoout/lobcore/internal/wire"
)

// OrderBook is a single-instrument book over a bounded, dense price window
// [minPrice, maxPrice] and a fixed-capacity node pool of maxOrders.
//
// Not safe for concurrent use — per spec, it is single-owner on the
// consumer thread, same as the pool, the price-level table, and the id
// index.
type OrderBook struct {
	minPrice, maxPrice int64
	maxOrders          uint64

	bidLevels []priceLevel
	askLevels []priceLevel

	nodes   *pool.Pool[orderNode]
	idIndex []uint32

	bestBidPrice int64 // hint: true best bid is <= this
	bestAskPrice int64 // hint: true best ask is >= this

	drops DropRecorder
}

// Option configures an OrderBook at construction time.
type Option func(*OrderBook)

// WithDropRecorder wires a counter that's incremented by reason whenever
// applyUpdate silently drops an update (spec §7's drop-and-continue
// policy). Purely observational: it never changes book behavior.
func WithDropRecorder(r DropRecorder) Option {
	return func(b *OrderBook) {
		b.drops = r
	}
}

// New constructs a book over the inclusive price window [minPrice,
// maxPrice] with a node pool sized for maxOrders resident orders (also the
// bound on order_id: ids must satisfy 0 <= order_id < maxOrders).
func New(minPrice, maxPrice int64, maxOrders uint64, opts ...Option) (*OrderBook, error) {
	if maxPrice < minPrice {
		return nil, fmt.Errorf("book: max_price %d < min_price %d", maxPrice, minPrice)
	}

	numLevels := int(maxPrice-minPrice) + 1
	b := &OrderBook{
		minPrice:     minPrice,
		maxPrice:     maxPrice,
		maxOrders:    maxOrders,
		bidLevels:    make([]priceLevel, numLevels),
		askLevels:    make([]priceLevel, numLevels),
		nodes:        pool.New[orderNode](int(maxOrders)),
		idIndex:      make([]uint32, maxOrders),
		bestBidPrice: minPrice,
		bestAskPrice: maxPrice,
		drops:        noopDropRecorder{},
	}
	for i := range opts {
		opts[i](b)
	}
	for i := range b.bidLevels {
		b.bidLevels[i] = newPriceLevel()
	}
	for i := range b.askLevels {
		b.askLevels[i] = newPriceLevel()
	}
	for i := range b.idIndex {
		b.idIndex[i] = invalid
	}
	return b, nil
}

func (b *OrderBook) levelIndex(price int64) int {
	return int(price - b.minPrice)
}

func (b *OrderBook) levelsFor(side wire.Side) []priceLevel {
	if side == wire.Bid {
		return b.bidLevels
	}
	return b.askLevels
}

// ApplyUpdate is the book's single entry point: validates, then dispatches
// to insert/modify/cancel. Out-of-window prices and out-of-range order ids
// are silently dropped, per spec — no error is ever returned.
func (b *OrderBook) ApplyUpdate(u wire.MarketUpdate) {
	if u.Price < b.minPrice || u.Price > b.maxPrice {
		b.drops.RecordDrop(ReasonOutOfRangePrice)
		return
	}
	if u.OrderID >= b.maxOrders {
		b.drops.RecordDrop(ReasonOutOfRangeID)
		return
	}

	switch u.Kind {
	case wire.Add:
		b.insert(u)
	case wire.Modify:
		b.modify(u)
	case wire.Cancel:
		b.cancel(u)
	}
}

// insert implements spec §4.3 "Insert (Add)".
func (b *OrderBook) insert(u wire.MarketUpdate) {
	handle, ok := b.nodes.Alloc()
	if !ok {
		b.drops.RecordDrop(ReasonPoolExhausted)
		return
	}

	node := b.nodes.At(handle)
	node.orderID = u.OrderID
	node.price = u.Price
	node.qty = int32(u.Qty)
	node.side = u.Side
	node.next = invalid

	levels := b.levelsFor(u.Side)
	idx := b.levelIndex(u.Price)
	level := &levels[idx]

	if level.head == invalid {
		level.head = handle
		level.tail = handle
		level.price = u.Price
	} else {
		b.nodes.At(level.tail).next = handle
		level.tail = handle
	}
	level.totalQty += u.Qty

	if u.Side == wire.Bid {
		if u.Price > b.bestBidPrice {
			b.bestBidPrice = u.Price
		}
	} else {
		if u.Price < b.bestAskPrice {
			b.bestAskPrice = u.Price
		}
	}

	b.idIndex[u.OrderID] = handle
}

// modify implements spec §4.3 "Modify", including the quantity-only and
// price-change sub-cases.
func (b *OrderBook) modify(u wire.MarketUpdate) {
	handle := b.idIndex[u.OrderID]
	if handle == invalid {
		b.drops.RecordDrop(ReasonUnknownID)
		return
	}
	node := b.nodes.At(handle)

	if u.Price == node.price {
		levels := b.levelsFor(node.side)
		level := &levels[b.levelIndex(node.price)]
		level.totalQty += u.Qty - int64(node.qty)
		node.qty = int32(u.Qty)
		return
	}

	side := node.side
	oldPrice := node.price
	if !b.unlinkFromLevel(side, oldPrice, handle) {
		b.drops.RecordDrop(ReasonUnknownID)
		return
	}
	oldLevels := b.levelsFor(side)
	oldLevels[b.levelIndex(oldPrice)].totalQty -= int64(node.qty)
	b.refreshBestIfEmptied(side, oldPrice)

	node.price = u.Price
	node.qty = int32(u.Qty)
	node.next = invalid

	levels := b.levelsFor(side)
	newLevel := &levels[b.levelIndex(u.Price)]
	if newLevel.head == invalid {
		newLevel.head = handle
		newLevel.tail = handle
		newLevel.price = u.Price
	} else {
		b.nodes.At(newLevel.tail).next = handle
		newLevel.tail = handle
	}
	newLevel.totalQty += int64(node.qty)

	if side == wire.Bid {
		if u.Price > b.bestBidPrice {
			b.bestBidPrice = u.Price
		}
	} else {
		if u.Price < b.bestAskPrice {
			b.bestAskPrice = u.Price
		}
	}
}

// cancel implements spec §4.3 "Cancel". The update's price/qty/side are
// advisory and ignored; the stored node is authoritative.
func (b *OrderBook) cancel(u wire.MarketUpdate) {
	handle := b.idIndex[u.OrderID]
	if handle == invalid {
		b.drops.RecordDrop(ReasonUnknownID)
		return
	}
	node := b.nodes.At(handle)
	side := node.side
	price := node.price
	qty := int64(node.qty)

	if !b.unlinkFromLevel(side, price, handle) {
		b.drops.RecordDrop(ReasonUnknownID)
		return
	}
	levels := b.levelsFor(side)
	levels[b.levelIndex(price)].totalQty -= qty

	b.refreshBestIfEmptied(side, price)

	b.nodes.Free(handle)
	b.idIndex[u.OrderID] = invalid
}

// unlinkFromLevel removes handle from the FIFO at (side, price) via a
// linear scan from head, fixing up head/tail. Returns false if handle is
// not found (should not occur under correct callers, per spec).
func (b *OrderBook) unlinkFromLevel(side wire.Side, price int64, handle uint32) bool {
	levels := b.levelsFor(side)
	level := &levels[b.levelIndex(price)]

	prev := invalid
	cur := level.head
	for cur != invalid {
		if cur == handle {
			break
		}
		prev = cur
		cur = b.nodes.At(cur).next
	}
	if cur == invalid {
		return false
	}

	if prev == invalid {
		level.head = b.nodes.At(cur).next
	} else {
		b.nodes.At(prev).next = b.nodes.At(cur).next
	}
	if level.tail == handle {
		level.tail = prev
	}
	return true
}

// refreshBestIfEmptied rescans toward the worsening side when an edit to
// the current best level may have emptied it. Called after unlinking a
// node from (side, price); a no-op if price wasn't the cached best.
func (b *OrderBook) refreshBestIfEmptied(side wire.Side, price int64) {
	if side == wire.Bid && price == b.bestBidPrice {
		for p := b.bestBidPrice; p >= b.minPrice; p-- {
			if b.bidLevels[b.levelIndex(p)].head != invalid {
				b.bestBidPrice = p
				return
			}
		}
		b.bestBidPrice = b.minPrice - 1
	}
	if side == wire.Ask && price == b.bestAskPrice {
		for p := b.bestAskPrice; p <= b.maxPrice; p++ {
			if b.askLevels[b.levelIndex(p)].head != invalid {
				b.bestAskPrice = p
				return
			}
		}
		b.bestAskPrice = b.maxPrice + 1
	}
}

// BestBid scans from the best-bid hint downward to minPrice, returns the
// first non-empty level by value, and updates the hint to that price.
// Returns false if no bid exists.
func (b *OrderBook) BestBid(out *Level) bool {
	if b.bestBidPrice < b.minPrice {
		return false
	}
	for p := b.bestBidPrice; p >= b.minPrice; p-- {
		level := &b.bidLevels[b.levelIndex(p)]
		if level.head != invalid {
			b.bestBidPrice = p
			out.Price = p
			out.TotalQty = level.totalQty
			return true
		}
	}
	return false
}

// BestAsk scans from the best-ask hint upward to maxPrice, symmetric to
// BestBid.
func (b *OrderBook) BestAsk(out *Level) bool {
	if b.bestAskPrice > b.maxPrice {
		return false
	}
	for p := b.bestAskPrice; p <= b.maxPrice; p++ {
		level := &b.askLevels[b.levelIndex(p)]
		if level.head != invalid {
			b.bestAskPrice = p
			out.Price = p
			out.TotalQty = level.totalQty
			return true
		}
	}
	return false
}

// FreeNodes returns how many pool slots remain available — exposed for
// tests and observability, not part of the spec's hot-path contract.
func (b *OrderBook) FreeNodes() int {
	return b.nodes.Cap() - b.nodes.Live()
}
