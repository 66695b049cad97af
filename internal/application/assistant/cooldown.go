package assistant

import (
	"sync"
	"time"

	"github.com/healthylife/server/internal/domain/assistant"
)

// DefaultCooldown is how long a capability stays suppressed after a rate limit
const DefaultCooldown = 30 * time.Second

// CooldownState holds one "do not call before" instant per capability.
// It lives for the life of the process and is never persisted.
type CooldownState struct {
	mu     sync.Mutex
	until  map[assistant.Capability]time.Time
	window time.Duration
	now    func() time.Time
}

// NewCooldownState creates an empty state. A nil clock uses time.Now.
func NewCooldownState(window time.Duration, now func() time.Time) *CooldownState {
	if window <= 0 {
		window = DefaultCooldown
	}
	if now == nil {
		now = time.Now
	}
	return &CooldownState{
		until:  make(map[assistant.Capability]time.Time),
		window: window,
		now:    now,
	}
}

// Active reports whether remote calls for capability are suppressed
func (c *CooldownState) Active(capability assistant.Capability) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now().Before(c.until[capability])
}

// Trip suppresses capability for one window starting now and returns the end
func (c *CooldownState) Trip(capability assistant.Capability) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	end := c.now().Add(c.window)
	c.until[capability] = end
	return end
}

// Until returns the end of the current window, zero if never tripped
func (c *CooldownState) Until(capability assistant.Capability) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.until[capability]
}
