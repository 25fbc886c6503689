package agent

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Belloabraham121/privbatch/internal/common"
	"github.com/Belloabraham121/privbatch/internal/coordinator"
	"github.com/Belloabraham121/privbatch/internal/domain"
	"github.com/Belloabraham121/privbatch/internal/executor"
	"github.com/Belloabraham121/privbatch/internal/hookclient"
	"github.com/Belloabraham121/privbatch/internal/marketdata"
	"github.com/Belloabraham121/privbatch/internal/reveal"
	"github.com/Belloabraham121/privbatch/internal/strategy"
	"github.com/Belloabraham121/privbatch/internal/wallet"
	"github.com/Belloabraham121/privbatch/pkg/syncgroup"
)

var managerLog = logrus.WithField("component", "agent_manager")

// RevealHookAdapter narrows hookclient.Client to reveal.HookClient,
// translating hookclient.TxResult into the manager-local reveal.TxResult
// shape the Reveal Manager was built against. Exported so main() can
// build the shared *reveal.Manager before the Executor and Coordinator
// that also depend on it.
type RevealHookAdapter struct {
	Hook hookclient.Client
}

func (a RevealHookAdapter) SubmitReveal(ctx context.Context, poolKey domain.PoolKey, intent domain.SwapIntent) (reveal.TxResult, error) {
	r, err := a.Hook.SubmitReveal(ctx, poolKey, intent)
	return reveal.TxResult{TxHash: r.TxHash, Success: r.Success, Err: r.Err}, err
}

func (a RevealHookAdapter) SubmitRevealForZK(ctx context.Context, poolKey domain.PoolKey, hash domain.CommitmentHash, intent domain.SwapIntent) (reveal.TxResult, error) {
	r, err := a.Hook.SubmitRevealForZK(ctx, poolKey, hash, intent)
	return reveal.TxResult{TxHash: r.TxHash, Success: r.Success, Err: r.Err}, err
}

// Manager fans out N Agents over one shared Coordinator, Executor, and
// Reveal Manager, mirroring the reference's pkg/bbgo.Trader wiring of
// multiple strategy sessions into one running process.
type Manager struct {
	hook    hookclient.Client
	reveals *reveal.Manager
	coord   *coordinator.Coordinator
	exec    *executor.Executor

	pollInterval time.Duration

	mu     sync.Mutex
	agents []*Agent
	pools  map[[32]byte]domain.PoolKey

	loopOnce sync.Once
	cancel   context.CancelFunc
}

// NewManager builds a Manager. The caller constructs the shared Reveal
// Manager, Coordinator, and Executor (so it can wire its own
// OnBatchReady callback and history store) and hands them in already
// configured; all three must share the same *reveal.Manager instance.
func NewManager(hook hookclient.Client, reveals *reveal.Manager, coord *coordinator.Coordinator, exec *executor.Executor, pollInterval time.Duration) *Manager {
	return &Manager{
		hook:         hook,
		reveals:      reveals,
		coord:        coord,
		exec:         exec,
		pollInterval: pollInterval,
		pools:        make(map[[32]byte]domain.PoolKey),
	}
}

// Reveals exposes the shared Reveal Manager, e.g. for the control-plane
// server's read-only endpoints.
func (m *Manager) Reveals() *reveal.Manager { return m.reveals }

// AddAgent builds an Agent from strat/signer/cfg, shares this Manager's
// hook client, reveal manager, coordinator, and fetcher, registers it
// with the coordinator, and tracks its pool with the executor.
func (m *Manager) AddAgent(cfg Config, strat strategy.Strategy, signer wallet.Signer, fetcher *marketdata.Fetcher) (*Agent, error) {
	a, err := New(cfg, strat, signer, m.hook, m.reveals, fetcher, m.coord)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.agents = append(m.agents, a)
	if _, ok := m.pools[a.poolID]; !ok {
		m.pools[a.poolID] = cfg.PoolKey
	}
	m.mu.Unlock()

	m.coord.RegisterAgent(cfg.ID)
	m.exec.AddPool(cfg.PoolKey, a.poolID)
	managerLog.WithFields(logrus.Fields{"agent": cfg.ID, "pool_id": a.poolID}).Info("agent registered")
	return a, nil
}

// PoolIDs implements controlplane.PoolRegistry.
func (m *Manager) PoolIDs() [][32]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([][32]byte, 0, len(m.pools))
	for id := range m.pools {
		ids = append(ids, id)
	}
	return ids
}

// StartPolling starts the manager's agent-tick loop exactly once; each
// tick runs every registered agent's Tick.
func (m *Manager) StartPolling(ctx context.Context) {
	common.StartLoopOnce(ctx, &m.loopOnce, func(cancel context.CancelFunc) { m.cancel = cancel }, m.pollInterval, m.runLoop)
}

func (m *Manager) StopPolling() {
	m.mu.Lock()
	cancel := m.cancel
	m.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (m *Manager) runLoop(ctx context.Context, tickC <-chan time.Time) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-tickC:
			m.tickAll(ctx)
		}
	}
}

// tickAll runs every agent's Tick concurrently — each agent owns a
// distinct pool, so the ticks share no mutable state beyond the
// Coordinator/Executor/Reveal Manager, which are already safe for
// concurrent use.
func (m *Manager) tickAll(ctx context.Context) {
	m.mu.Lock()
	agents := append([]*Agent(nil), m.agents...)
	m.mu.Unlock()

	now := time.Now()
	group := syncgroup.New()
	for _, a := range agents {
		a := a
		group.Add(func() { a.Tick(ctx, now) })
	}
	group.Run()
	group.Wait()
}
