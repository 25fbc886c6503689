package meanreversion

import (
	"sync"
	"time"

	"github.com/Belloabraham121/privbatch/internal/strategy"
)

// poolState is the EMA/variance/ring-buffer state spec §3/§4.5.4 keeps
// per (strategy instance, pool_id).
type poolState struct {
	ring       *strategy.PriceRing
	ema        float64
	emaSq      float64
	initialized bool
}

type stateStore struct {
	mu    sync.Mutex
	pools map[[32]byte]*poolState
}

func newStateStore() *stateStore {
	return &stateStore{pools: make(map[[32]byte]*poolState)}
}

// update appends price, advances the EMAs, and returns the updated
// state snapshot (copied fields, safe to read without holding the lock).
func (s *stateStore) update(poolID [32]byte, price float64, at time.Time, k float64) (dataPoints int, ema, emaSq float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ps, ok := s.pools[poolID]
	if !ok {
		ps = &poolState{ring: strategy.NewPriceRing(1000)}
		s.pools[poolID] = ps
	}
	ps.ring.Append(strategy.PricePoint{Price: price, At: at})

	if !ps.initialized {
		ps.ema = price
		ps.emaSq = price * price
		ps.initialized = true
	} else {
		ps.ema = price*k + ps.ema*(1-k)
		ps.emaSq = price*price*k + ps.emaSq*(1-k)
	}

	return ps.ring.Len(), ps.ema, ps.emaSq
}
