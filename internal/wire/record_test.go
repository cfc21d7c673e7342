package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	u := MarketUpdate{
		Timestamp: 123456789,
		Kind:      Modify,
		OrderID:   42,
		Price:     -17,
		Qty:       1000,
		Side:      Ask,
	}

	buf := make([]byte, RecordSize)
	Encode(u, buf)

	got, n := Decode(buf)
	assert.Equal(t, RecordSize, n)
	assert.Equal(t, u, got)
}

func TestDecodeShortTailSignalsStop(t *testing.T) {
	_, n := Decode(make([]byte, RecordSize-1))
	assert.Equal(t, 0, n)
}

func TestDecodeConsumesExactlyRecordSize(t *testing.T) {
	buf := make([]byte, RecordSize*2)
	a := MarketUpdate{Timestamp: 1, Kind: Add, OrderID: 1, Price: 100, Qty: 5, Side: Bid}
	b := MarketUpdate{Timestamp: 2, Kind: Cancel, OrderID: 2, Price: 101, Qty: 6, Side: Ask}
	Encode(a, buf[:RecordSize])
	Encode(b, buf[RecordSize:])

	got1, n1 := Decode(buf)
	assert.Equal(t, RecordSize, n1)
	assert.Equal(t, a, got1)

	got2, n2 := Decode(buf[n1:])
	assert.Equal(t, RecordSize, n2)
	assert.Equal(t, b, got2)
}

func TestUpdateKindAndSideStrings(t *testing.T) {
	assert.Equal(t, "Add", Add.String())
	assert.Equal(t, "Modify", Modify.String())
	assert.Equal(t, "Cancel", Cancel.String())
	assert.Equal(t, "Bid", Bid.String())
	assert.Equal(t, "Ask", Ask.String())
}
