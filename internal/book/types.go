package book

import (
	"github.com/lightsgoout/lobcore/internal/pool"
	"github.com/lightsgoout/lobcore/internal/wire"
)

// invalid marks an absent handle: no next node, no level occupant, no live
// order for a given id. Shared with the pool's own free-list sentinel so a
// freshly allocated node's "next" and a level's empty head/tail all read
// the same way.
const invalid = pool.Invalid

// orderNode is a resident order. Cache-line aligned to 64 bytes to match
// the layout original_source/src/core/order_book.hpp describes — Go has no
// alignas, so the padding only guarantees the struct's SIZE is a cache
// line; the runtime is free to place it anywhere, but a slice of these
// still gets dense, predictable stride during FIFO scans.
type orderNode struct {
	orderID uint64
	price   int64
	qty     int32
	next    uint32
	side    wire.Side
	_pad    [39]byte
}

// priceLevel is one slot in a side's dense array: a singly linked FIFO of
// orderNode handles plus the aggregated quantity resting at that price.
type priceLevel struct {
	head     uint32
	tail     uint32
	price    int64
	totalQty int64
	_pad     [40]byte
}

func newPriceLevel() priceLevel {
	return priceLevel{head: invalid, tail: invalid}
}

// Level is the public, copied-out view of a price level returned by
// BestBid/BestAsk — just enough for a caller to act on, without exposing
// the book's internal node handles.
type Level struct {
	Price    int64
	TotalQty int64
}

// DropRecorder receives a reason label whenever applyUpdate silently drops
// an update. It is satisfied by internal/metrics.Collector but declared
// here so this package stays independent of the metrics package (accept
// interfaces, return structs).
type DropRecorder interface {
	RecordDrop(reason string)
}

const (
	ReasonOutOfRangePrice = "out_of_range_price"
	ReasonOutOfRangeID    = "out_of_range_order_id"
	ReasonUnknownID       = "unknown_order_id"
	ReasonPoolExhausted   = "pool_exhausted"
)

type noopDropRecorder struct{}

func (noopDropRecorder) RecordDrop(string) {}
