// Package risk implements the engine's pre-trade risk check: a stateless
// bounds test applied to every outbound strategy signal before it reaches
// the output ring.
//
// Grounded on original_source/src/risk/risk_manager.hpp, which is already
// exactly this — no position tracking, no per-symbol limits, just absolute
// price/qty bounds. Week 7 is the commit tag the original's own comment
// uses for it; nothing here depends on that history.
package risk

import "github.com/lightsgoout/lobcore/internal/strategy"

// Gate holds the two absolute bounds a signal must clear.
type Gate struct {
	MaxAbsPrice int64
	MaxAbsQty   int64
}

// New builds a Gate with the given bounds.
func New(maxAbsPrice, maxAbsQty int64) Gate {
	return Gate{MaxAbsPrice: maxAbsPrice, MaxAbsQty: maxAbsQty}
}

// Check reports whether sig clears both bounds. Negative price/qty are
// measured by absolute value, matching the original's use of llabs.
func (g Gate) Check(sig strategy.Signal) bool {
	if abs64(sig.Qty) > g.MaxAbsQty {
		return false
	}
	if abs64(sig.Price) > g.MaxAbsPrice {
		return false
	}
	return true
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
