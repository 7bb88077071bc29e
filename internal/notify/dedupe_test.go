package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDeduperSuppressesWithinWindow(t *testing.T) {
	now := time.Now()
	d := NewDeduper(2 * time.Minute)
	d.now = func() time.Time { return now }

	assert.True(t, d.ShouldSend("order", "pedido 1"))
	assert.False(t, d.ShouldSend("order", "pedido 1"))

	// A different message is not suppressed.
	assert.True(t, d.ShouldSend("order", "pedido 2"))
	// Nor is the same message under another kind.
	assert.True(t, d.ShouldSend("stock", "pedido 1"))
}

func TestDeduperAllowsAfterWindow(t *testing.T) {
	now := time.Now()
	d := NewDeduper(2 * time.Minute)
	d.now = func() time.Time { return now }

	assert.True(t, d.ShouldSend("order", "pedido 1"))

	now = now.Add(2 * time.Minute)
	assert.True(t, d.ShouldSend("order", "pedido 1"))
}

func TestDeduperCleansExpiredEntries(t *testing.T) {
	now := time.Now()
	d := NewDeduper(time.Minute)
	d.now = func() time.Time { return now }

	d.ShouldSend("order", "a")
	d.ShouldSend("order", "b")

	now = now.Add(2 * time.Minute)
	d.ShouldSend("order", "c")

	d.mu.Lock()
	defer d.mu.Unlock()
	assert.Len(t, d.active, 1)
}
