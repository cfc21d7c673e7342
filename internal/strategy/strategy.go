// Package strategy defines the pluggable decision interface the event loop
// drives, and a small reference implementation.
//
// Grounded on original_source/src/engine/strategy_interface.hpp and
// strategy_example.cpp's DummyStrategy. The original mixes two delivery
// models for outbound signals: on_market_update/on_timer push straight to
// an externally-owned ring, while poll_signal drains a separate pending_
// field that nothing ever fills. Signals here are surfaced exclusively
// through PollSignal — OnMarketUpdate and OnTimer only ever update
// strategy-local state and stage a pending signal for the next poll.
package strategy

import "github.com/lightsgoout/lobcore/internal/wire"

// Signal is a strategy's trade intent: a price and quantity the risk gate
// will check before it reaches the output ring.
type Signal struct {
	Price int64
	Qty   int64
}

// Strategy is driven by the event loop on its single consumer thread. No
// method may block or allocate on the hot path.
type Strategy interface {
	// OnMarketUpdate is called after the book has applied mu.
	OnMarketUpdate(mu wire.MarketUpdate)

	// OnTimer is called on the event loop's periodic tick.
	OnTimer(timestampNS uint64)

	// PollSignal reports whether a signal is pending and, if so, writes it
	// into out and clears the pending state.
	PollSignal(out *Signal) bool
}

// Example counts updates (market updates and timer ticks both count) and
// emits a one-lot signal at the last seen price every N counts.
type Example struct {
	everyN  uint64
	count   uint64
	lastPx  int64
	pending Signal
	hasOne  bool
}

// NewExample builds an Example strategy that emits every everyN counted
// events. everyN == 0 means never emit.
func NewExample(everyN uint64) *Example {
	return &Example{everyN: everyN}
}

func (e *Example) OnMarketUpdate(mu wire.MarketUpdate) {
	e.lastPx = mu.Price
	e.tick()
}

func (e *Example) OnTimer(uint64) {
	e.tick()
}

func (e *Example) tick() {
	e.count++
	if e.everyN == 0 || e.count%e.everyN != 0 {
		return
	}
	e.pending = Signal{Price: e.lastPx, Qty: 1}
	e.hasOne = true
}

func (e *Example) PollSignal(out *Signal) bool {
	if !e.hasOne {
		return false
	}
	*out = e.pending
	e.hasOne = false
	return true
}
