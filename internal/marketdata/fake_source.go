package marketdata

import (
	"context"
	"sync"

	"github.com/Belloabraham121/privbatch/internal/domain"
)

// FakeSource is an in-memory PoolDataSource for tests and for running
// the agent loop without a live chain, mirroring hookclient.FakeClient's
// role on the transport side.
type FakeSource struct {
	mu     sync.Mutex
	states map[[32]byte]PoolState
	Err    error
}

func NewFakeSource() *FakeSource {
	return &FakeSource{states: make(map[[32]byte]PoolState)}
}

func (f *FakeSource) SetState(poolID [32]byte, state PoolState) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.states[poolID] = state
}

func (f *FakeSource) FetchPoolState(ctx context.Context, poolKey domain.PoolKey) (PoolState, error) {
	if f.Err != nil {
		return PoolState{}, f.Err
	}
	poolID, err := poolKey.PoolID()
	if err != nil {
		return PoolState{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	state, ok := f.states[poolID]
	if !ok {
		return PoolState{}, domain.NewError(domain.ErrInvalidMarketData, "no fake state registered for pool")
	}
	return state, nil
}
