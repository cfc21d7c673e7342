// Package wire defines the on-disk market-update record format and the
// pure functions that translate between it and the in-memory MarketUpdate
// used by the rest of the core.
package wire

import "encoding/binary"

// RecordSize is the fixed size, in bytes, of one market-update record.
const RecordSize = 48

// UpdateKind distinguishes the three mutations the book engine understands.
type UpdateKind uint8

const (
	Add UpdateKind = iota
	Modify
	Cancel
)

func (k UpdateKind) String() string {
	switch k {
	case Add:
		return "Add"
	case Modify:
		return "Modify"
	case Cancel:
		return "Cancel"
	default:
		return "Unknown"
	}
}

// Side is which side of the book an order rests on.
type Side uint8

const (
	Bid Side = iota
	Ask
)

func (s Side) String() string {
	if s == Bid {
		return "Bid"
	}
	return "Ask"
}

// MarketUpdate is the in-memory representation of one feed message. It is
// NOT byte-identical to the wire record (Decode/Encode do the translation);
// it is trivially copyable and carries no pointers so it can cross the
// SPSC ring by value.
type MarketUpdate struct {
	Timestamp uint64
	Kind      UpdateKind
	OrderID   uint64
	Price     int64
	Qty       int64
	Side      Side
}

// Decode consumes exactly RecordSize bytes from buf and emits one
// MarketUpdate. It returns (MarketUpdate{}, 0) when fewer than RecordSize
// bytes remain, signaling end of stream to the caller (a short tail).
//
// Wire layout (little-endian, 48 bytes total):
//
//	offset  size  field
//	0       8     timestamp (u64)
//	8       4     kind      (u32: 0=Add, 1=Modify, 2=Cancel)
//	12      4     side      (u32: 0=Bid, 1=Ask)
//	16      8     order_id  (u64)
//	24      8     price     (i64, ticks)
//	32      8     qty       (i64)
//	40      8     reserved, zero
func Decode(buf []byte) (MarketUpdate, int) {
	if len(buf) < RecordSize {
		return MarketUpdate{}, 0
	}

	u := MarketUpdate{
		Timestamp: binary.LittleEndian.Uint64(buf[0:8]),
		Kind:      UpdateKind(binary.LittleEndian.Uint32(buf[8:12])),
		Side:      Side(binary.LittleEndian.Uint32(buf[12:16])),
		OrderID:   binary.LittleEndian.Uint64(buf[16:24]),
		Price:     int64(binary.LittleEndian.Uint64(buf[24:32])),
		Qty:       int64(binary.LittleEndian.Uint64(buf[32:40])),
	}
	return u, RecordSize
}

// Encode serializes u into the 48-byte wire format described on Decode.
func Encode(u MarketUpdate, out []byte) {
	_ = out[RecordSize-1] // bounds check hint, eliding per-field bounds checks below
	binary.LittleEndian.PutUint64(out[0:8], u.Timestamp)
	binary.LittleEndian.PutUint32(out[8:12], uint32(u.Kind))
	binary.LittleEndian.PutUint32(out[12:16], uint32(u.Side))
	binary.LittleEndian.PutUint64(out[16:24], u.OrderID)
	binary.LittleEndian.PutUint64(out[24:32], uint64(u.Price))
	binary.LittleEndian.PutUint64(out[32:40], uint64(u.Qty))
	binary.LittleEndian.PutUint64(out[40:48], 0)
}
