package strategy

import (
	"sync"
	"time"

	"github.com/Belloabraham121/privbatch/internal/common"
)

// CooldownTracker is per-(strategy instance, pool), backed by one
// common.Debouncer per pool id — the same time-gate the reference bot
// uses to rate-limit trade submission, keyed here by pool instead of by
// a single global gate since one Strategy instance can serve more than
// one pool's Agent.
type CooldownTracker struct {
	mu   sync.Mutex
	gate map[[32]byte]*common.Debouncer
}

func NewCooldownTracker() *CooldownTracker {
	return &CooldownTracker{gate: make(map[[32]byte]*common.Debouncer)}
}

func (c *CooldownTracker) debouncer(poolID [32]byte, cooldown time.Duration) *common.Debouncer {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.gate[poolID]
	if !ok {
		d = common.NewDebouncer(cooldown)
		c.gate[poolID] = d
	} else {
		d.SetInterval(cooldown)
	}
	return d
}

// IsCooldownActive reports whether now-lastTrade < cooldown for poolID.
func (c *CooldownTracker) IsCooldownActive(poolID [32]byte, cooldown time.Duration, now time.Time) bool {
	ready, _ := c.debouncer(poolID, cooldown).Ready(now)
	return !ready
}

// RecordTrade sets the last-trade timestamp for poolID to now.
func (c *CooldownTracker) RecordTrade(poolID [32]byte, now time.Time) {
	c.debouncer(poolID, cooldown(c, poolID)).Mark(now)
}

func cooldown(c *CooldownTracker, poolID [32]byte) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if d, ok := c.gate[poolID]; ok {
		return d.Interval()
	}
	return 0
}
