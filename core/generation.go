package orchestration

import "sync/atomic"

// generationCounter tags response cycles. The counter increases on every new
// cycle and on every confirmed interruption, so anything produced under an
// older tag can be recognized as stale and suppressed.
type generationCounter struct {
	value atomic.Uint64
}

func (g *generationCounter) Current() uint64 {
	if g == nil {
		return 0
	}
	return g.value.Load()
}

func (g *generationCounter) Bump() uint64 {
	if g == nil {
		return 0
	}
	return g.value.Add(1)
}

// IsCurrent reports whether the given tag still identifies the active
// generation.
func (g *generationCounter) IsCurrent(generation uint64) bool {
	return g != nil && g.value.Load() == generation
}
