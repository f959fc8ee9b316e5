package vector

import (
	"sync"
	"time"
)

// healthState tracks the service availability state machine:
// Unknown -> Checking -> {Available, Unavailable}.
type healthState int

const (
	stateUnknown healthState = iota
	stateChecking
	stateAvailable
	stateUnavailable
)

// healthTracker is the shared, race-tolerant availability scalar. A cached
// verdict is served until its TTL lapses; the worst outcome of a race is a
// redundant probe.
type healthTracker struct {
	mu        sync.Mutex
	state     healthState
	checkedAt time.Time
	ttl       time.Duration
}

func newHealthTracker(ttl time.Duration) *healthTracker {
	return &healthTracker{ttl: ttl}
}

// cached returns the remembered verdict and whether it is still fresh.
func (h *healthTracker) cached(now time.Time) (available, fresh bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	switch h.state {
	case stateAvailable, stateUnavailable:
		if now.Sub(h.checkedAt) < h.ttl {
			return h.state == stateAvailable, true
		}
	case stateUnknown, stateChecking:
	}
	return false, false
}

// begin marks a probe in flight.
func (h *healthTracker) begin() {
	h.mu.Lock()
	h.state = stateChecking
	h.mu.Unlock()
}

// record stores a probe verdict with its timestamp.
func (h *healthTracker) record(available bool, now time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if available {
		h.state = stateAvailable
	} else {
		h.state = stateUnavailable
	}
	h.checkedAt = now
}
