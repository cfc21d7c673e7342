// Package engine drives the order book and strategy from the two SPSC
// rings: one carrying inbound market updates, one carrying outbound
// risk-checked signals.
//
// Grounded on original_source/src/engine/event_loop.{hpp,cpp}. The
// original only implements the continuous busy-poll policy (run() loops
// on an atomic running_ flag); RunToQuiescence is this port's addition to
// satisfy the spec's second, backtest-oriented policy (loop while any
// component did work, stop on a full no-op pass), expressed as a second
// method on the same type rather than a flag, since the two never need to
// run concurrently against the same loop instance.
package engine

import (
	"runtime"
	"sync/atomic"

	"github.com/lightsgoout/lobcore/internal/book"
	"github.com/lightsgoout/lobcore/internal/clock"
	"github.com/lightsgoout/lobcore/internal/risk"
	"github.com/lightsgoout/lobcore/internal/strategy"
	"github.com/lightsgoout/lobcore/internal/wire"
)

// MDQueue is the minimal consumer side of an inbound SPSC ring of market
// updates that the loop needs — satisfied by *ring.Ring[wire.MarketUpdate].
type MDQueue interface {
	Pop(out *wire.MarketUpdate) bool
}

// OutQueue is the minimal producer side of an outbound SPSC ring of
// risk-checked signals — satisfied by *ring.Ring[strategy.Signal].
type OutQueue interface {
	Push(v strategy.Signal) bool
}

// SignalDropRecorder is notified when a risk-checked signal can't be
// pushed because the output ring is full. Optional; nil means silent.
type SignalDropRecorder interface {
	RecordSignalDrop()
}

type noopSignalDropRecorder struct{}

func (noopSignalDropRecorder) RecordSignalDrop() {}

// UpdateRecorder is notified once for every market update consumed from
// md. Optional; nil means silent.
type UpdateRecorder interface {
	RecordUpdateApplied()
}

type noopUpdateRecorder struct{}

func (noopUpdateRecorder) RecordUpdateApplied() {}

// EventLoop wires the rings, the book, a strategy and the risk gate
// together. Not safe for concurrent use by more than the single goroutine
// driving Run/RunToQuiescence.
type EventLoop struct {
	md  MDQueue
	out OutQueue

	book  *book.OrderBook
	strat strategy.Strategy
	gate  risk.Gate
	clk   clock.Source

	timerIntervalNS uint64
	lastTimerNS     uint64

	drops   SignalDropRecorder
	updates UpdateRecorder

	// updatesProcessed counts every market update popped from md across
	// the life of the loop, independent of whether book.ApplyUpdate kept
	// or dropped it.
	updatesProcessed uint64

	running atomic.Bool
}

// Option configures an EventLoop at construction time.
type Option func(*EventLoop)

// WithSignalDropRecorder wires an observer for signals dropped because the
// output ring was full.
func WithSignalDropRecorder(r SignalDropRecorder) Option {
	return func(l *EventLoop) {
		l.drops = r
	}
}

// WithUpdateRecorder wires an observer notified once per market update
// consumed from md, in addition to the loop's own updatesProcessed counter.
func WithUpdateRecorder(r UpdateRecorder) Option {
	return func(l *EventLoop) {
		l.updates = r
	}
}

// New builds an EventLoop. timerIntervalNS of zero disables the timer
// callback entirely.
func New(md MDQueue, out OutQueue, b *book.OrderBook, strat strategy.Strategy, gate risk.Gate, clk clock.Source, timerIntervalNS uint64, opts ...Option) *EventLoop {
	l := &EventLoop{
		md:              md,
		out:             out,
		book:            b,
		strat:           strat,
		gate:            gate,
		clk:             clk,
		timerIntervalNS: timerIntervalNS,
		lastTimerNS:     clk.NowNS(),
		drops:           noopSignalDropRecorder{},
		updates:         noopUpdateRecorder{},
	}
	for i := range opts {
		opts[i](l)
	}
	l.running.Store(true)
	return l
}

// Stop requests that Run return after its current iteration. Safe to call
// from another goroutine.
func (l *EventLoop) Stop() {
	l.running.Store(false)
}

// Run implements the continuous policy: busy-poll until Stop is called.
// Pins the calling goroutine to its OS thread for the duration, matching
// the two-dedicated-threads model the SPSC ring is designed for; this is
// a portability stand-in for the original's pinned producer/consumer
// threads, not a CPU-affinity subsystem.
func (l *EventLoop) Run() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	for l.running.Load() {
		now := l.clk.NowNS()
		l.handleMarketData()
		l.handleStrategyOutput()
		l.maybeFireTimer(now)
	}
}

// RunToQuiescence implements the backtest policy: loop while any of
// market-data draining, strategy-output draining, or a timer fire did
// work, and return as soon as a full pass does nothing.
func (l *EventLoop) RunToQuiescence() {
	for {
		didMD := l.handleMarketData()
		didOut := l.handleStrategyOutput()
		didTimer := l.maybeFireTimer(l.clk.NowNS())
		if !didMD && !didOut && !didTimer {
			return
		}
	}
}

// handleMarketData drains every update currently available in md into the
// book and the strategy, reporting whether it did any work.
func (l *EventLoop) handleMarketData() bool {
	did := false
	var mu wire.MarketUpdate
	for l.md.Pop(&mu) {
		did = true
		l.book.ApplyUpdate(mu)
		l.strat.OnMarketUpdate(mu)
		l.updatesProcessed++
		l.updates.RecordUpdateApplied()
	}
	return did
}

// UpdatesProcessed returns the number of market updates popped from md over
// the life of the loop.
func (l *EventLoop) UpdatesProcessed() uint64 {
	return l.updatesProcessed
}

// handleStrategyOutput drains every pending strategy signal, risk-checks
// each, and pushes the ones that pass into out.
func (l *EventLoop) handleStrategyOutput() bool {
	did := false
	var sig strategy.Signal
	for l.strat.PollSignal(&sig) {
		did = true
		if !l.gate.Check(sig) {
			continue
		}
		if !l.out.Push(sig) {
			l.drops.RecordSignalDrop()
		}
	}
	return did
}

// maybeFireTimer calls the strategy's timer callback once timerIntervalNS
// has elapsed since the last fire, reporting whether it fired.
func (l *EventLoop) maybeFireTimer(nowNS uint64) bool {
	if l.timerIntervalNS == 0 {
		return false
	}
	if nowNS-l.lastTimerNS < l.timerIntervalNS {
		return false
	}
	l.strat.OnTimer(nowNS)
	l.lastTimerNS = nowNS
	return true
}
