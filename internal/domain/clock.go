package domain

import "github.com/jonboulle/clockwork"

// clock is the package-level time source for window cutoffs and generation
// timestamps. Production uses the real clock; tests freeze time via SetClock.
var clock = clockwork.NewRealClock()

// SetClock swaps the domain time source. Pass nil to reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}
