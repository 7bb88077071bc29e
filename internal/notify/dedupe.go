package notify

import (
	"sync"
	"time"
)

// Deduper suppresses repeats of an identical (kind, message) pair while a
// previous one is still considered active, so a double-clicked checkout does
// not alert the operator twice.
type Deduper struct {
	mu     sync.Mutex
	window time.Duration
	active map[string]time.Time
	now    func() time.Time
}

func NewDeduper(window time.Duration) *Deduper {
	return &Deduper{
		window: window,
		active: make(map[string]time.Time),
		now:    time.Now,
	}
}

// ShouldSend reports whether this (kind, message) pair may be sent now, and
// marks it active when it may.
func (d *Deduper) ShouldSend(kind, message string) bool {
	key := kind + ":" + message

	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	if sent, ok := d.active[key]; ok && now.Sub(sent) < d.window {
		return false
	}

	// Opportunistic cleanup keeps the map from growing without bound.
	for k, sent := range d.active {
		if now.Sub(sent) >= d.window {
			delete(d.active, k)
		}
	}

	d.active[key] = now
	return true
}
