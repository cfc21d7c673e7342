// Package feed turns a byte stream of wire records into market updates
// pushed onto the inbound SPSC ring.
//
// Grounded on original_source/src/feed/feed_handler.{hpp,cpp} (onUpdate
// pushes one record, onBatch spins until the queue accepts it) and
// binary_parser.{hpp,cpp} (parse consumes a fixed record and reports bytes
// read, 0 meaning "not enough bytes"). The original's parser is an
// explicit stub memcpy-ing a C struct; internal/wire.Decode is the real
// decoder this port needed, so FileSource calls that directly instead of
// carrying its own parser type.
package feed

import (
	"bufio"
	"io"

	"github.com/lightsgoout/lobcore/internal/wire"
)

// InQueue is the minimal producer side of the inbound SPSC ring a Handler
// pushes decoded updates onto.
type InQueue interface {
	Push(u wire.MarketUpdate) bool
}

// RecordSource yields raw wire records one at a time. Next returns
// io.EOF once the source is exhausted. Implementations choose their own
// buffering; Handler adds none.
type RecordSource interface {
	Next() (wire.MarketUpdate, error)
}

// FileSource reads fixed-size wire records sequentially from an
// io.Reader. It is a plain buffered-read reference implementation —
// memory-mapped replay is out of scope; any io.Reader (a file, a pipe, an
// in-memory buffer) works here.
type FileSource struct {
	r   *bufio.Reader
	buf [wire.RecordSize]byte
}

// NewFileSource wraps r for sequential record-at-a-time decoding.
func NewFileSource(r io.Reader) *FileSource {
	return &FileSource{r: bufio.NewReaderSize(r, 64*1024)}
}

// Next reads and decodes the next record, returning io.EOF when the
// source is exhausted exactly on a record boundary, and io.ErrUnexpectedEOF
// on a short trailing tail.
func (s *FileSource) Next() (wire.MarketUpdate, error) {
	n, err := io.ReadFull(s.r, s.buf[:])
	if err == io.EOF {
		return wire.MarketUpdate{}, io.EOF
	}
	if err == io.ErrUnexpectedEOF {
		return wire.MarketUpdate{}, io.ErrUnexpectedEOF
	}
	if err != nil {
		return wire.MarketUpdate{}, err
	}
	u, consumed := wire.Decode(s.buf[:n])
	if consumed == 0 {
		return wire.MarketUpdate{}, io.ErrUnexpectedEOF
	}
	return u, nil
}

// Handler pushes decoded updates onto an inbound ring.
type Handler struct {
	queue InQueue
}

// NewHandler builds a Handler over the given inbound queue.
func NewHandler(queue InQueue) *Handler {
	return &Handler{queue: queue}
}

// OnUpdate pushes one update, returning false if the queue is full — the
// caller decides whether to drop, retry, or spin.
func (h *Handler) OnUpdate(u wire.MarketUpdate) bool {
	return h.queue.Push(u)
}

// Drain reads every record from src and spin-pushes it onto the queue
// until src is exhausted, matching the original's onBatch busy-wait
// policy. Returns the count of updates pushed.
func (h *Handler) Drain(src RecordSource) (int, error) {
	n := 0
	for {
		u, err := src.Next()
		if err == io.EOF {
			return n, nil
		}
		if err != nil {
			return n, err
		}
		for !h.queue.Push(u) {
			// spin-retry until the consumer makes room
		}
		n++
	}
}
