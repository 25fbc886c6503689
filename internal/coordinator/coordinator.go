// Package coordinator implements the Batch Coordinator, spec §4.3: a
// per-pool readiness/quorum state machine that decides when a pool's
// batch window fires and reconciles divergent agent preferences into a
// single BatchParameters set. The countdown is a time.AfterFunc timer
// held on each pool's entry; logging is logrus-structured throughout.
package coordinator

import (
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Belloabraham121/privbatch/internal/domain"
)

var log = logrus.WithField("component", "batch_coordinator")

// Config is the per-coordinator tuning surface, spec §4.3.
type Config struct {
	Quorum              int
	MinTotalCommitments uint32
	CountdownMs         int64
	ConflictResolution  domain.ConflictResolutionStrategy
}

// OnBatchReady is invoked with (pool_id, params) when a pool fires.
type OnBatchReady func(poolID [32]byte, params domain.BatchParameters)

type readySignal struct {
	agentID              string
	pendingCommitments   uint32
	preferredSlippageBps *uint32
	order                int // insertion sequence, for participating_agents ordering
}

type poolState struct {
	state      domain.PoolState
	ready      map[string]*readySignal
	seq        int
	timer      *time.Timer
	deadlineMs int64
}

func newPoolState() *poolState {
	return &poolState{state: domain.PoolIdle, ready: make(map[string]*readySignal)}
}

// Coordinator owns all per-pool state machines for a single agent
// process. One Coordinator typically serves every pool an agent trades.
type Coordinator struct {
	mu        sync.Mutex
	cfg       Config
	onReady   OnBatchReady
	agents    map[string]struct{} // registered agent ids
	pools     map[[32]byte]*poolState
	destroyed bool
}

func New(cfg Config, onReady OnBatchReady) *Coordinator {
	return &Coordinator{
		cfg:     cfg,
		onReady: onReady,
		agents:  make(map[string]struct{}),
		pools:   make(map[[32]byte]*poolState),
	}
}

func (c *Coordinator) RegisterAgent(agentID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.agents[agentID] = struct{}{}
}

// UnregisterAgent removes agentID from the registered set and clears its
// ready-signal in every pool, re-evaluating each pool's armed condition.
func (c *Coordinator) UnregisterAgent(agentID string) {
	c.mu.Lock()
	delete(c.agents, agentID)
	var fires []domain.BatchParameters
	for poolID, ps := range c.pools {
		if _, ok := ps.ready[agentID]; ok {
			delete(ps.ready, agentID)
			if p := c.reevaluateLocked(poolID, ps); p != nil {
				fires = append(fires, *p)
			}
		}
	}
	c.mu.Unlock()
	c.announce(fires)
}

// ObservableState is a read-only snapshot of a pool's coordinator state.
type ObservableState struct {
	State                   domain.PoolState
	TotalReady              int
	ReadyAgents             []string
	QuorumMet               bool
	CountdownActive         bool
	TotalPendingCommitments uint32
	CountdownDeadlineMs     *int64
}

func (c *Coordinator) GetState(poolID [32]byte) ObservableState {
	c.mu.Lock()
	defer c.mu.Unlock()
	ps, ok := c.pools[poolID]
	if !ok {
		return ObservableState{State: domain.PoolIdle}
	}
	return c.snapshotLocked(ps)
}

func (c *Coordinator) snapshotLocked(ps *poolState) ObservableState {
	agents, total := readySetLocked(ps)
	var deadline *int64
	if ps.timer != nil {
		d := ps.deadlineMs
		deadline = &d
	}
	return ObservableState{
		State:                   ps.state,
		TotalReady:              len(ps.ready),
		ReadyAgents:             agents,
		QuorumMet:               c.quorumMetLocked(ps),
		CountdownActive:         ps.timer != nil,
		TotalPendingCommitments: total,
		CountdownDeadlineMs:     deadline,
	}
}

func readySetLocked(ps *poolState) ([]string, uint32) {
	type kv struct {
		id  string
		sig *readySignal
	}
	all := make([]kv, 0, len(ps.ready))
	for id, sig := range ps.ready {
		all = append(all, kv{id, sig})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].sig.order < all[j].sig.order })

	agents := make([]string, 0, len(all))
	var total uint32
	for _, e := range all {
		agents = append(agents, e.id)
		total += e.sig.pendingCommitments
	}
	return agents, total
}

func (c *Coordinator) quorumMetLocked(ps *poolState) bool {
	_, total := readySetLocked(ps)
	return len(ps.ready) >= c.cfg.Quorum && total >= c.cfg.MinTotalCommitments
}

// SignalReady registers a ready=true signal for an agent/pool pair.
// Rejected (logged, no state change) if the agent is not registered.
func (c *Coordinator) SignalReady(agentID string, poolID [32]byte, pendingCommitments uint32, preferredSlippageBps *uint32) {
	c.mu.Lock()
	if c.destroyed {
		c.mu.Unlock()
		return
	}
	if _, ok := c.agents[agentID]; !ok {
		c.mu.Unlock()
		log.WithFields(logrus.Fields{"agent": agentID}).Warn("signal_ready from unregistered agent rejected")
		return
	}
	ps, ok := c.pools[poolID]
	if !ok {
		ps = newPoolState()
		c.pools[poolID] = ps
	}
	ps.seq++
	ps.ready[agentID] = &readySignal{
		agentID:              agentID,
		pendingCommitments:   pendingCommitments,
		preferredSlippageBps: preferredSlippageBps,
		order:                ps.seq,
	}
	fired := c.reevaluateLocked(poolID, ps)
	c.mu.Unlock()
	c.announceOne(fired)
}

// SignalNotReady is a ready=false signal; equivalent to WithdrawReady.
func (c *Coordinator) SignalNotReady(agentID string, poolID [32]byte) {
	c.WithdrawReady(agentID, poolID)
}

func (c *Coordinator) WithdrawReady(agentID string, poolID [32]byte) {
	c.mu.Lock()
	if c.destroyed {
		c.mu.Unlock()
		return
	}
	ps, ok := c.pools[poolID]
	if !ok {
		c.mu.Unlock()
		return
	}
	var fired *domain.BatchParameters
	if _, ok := ps.ready[agentID]; ok {
		delete(ps.ready, agentID)
		fired = c.reevaluateLocked(poolID, ps)
	}
	c.mu.Unlock()
	c.announceOne(fired)
}

// announce invokes onReady for each fired batch, outside the lock.
func (c *Coordinator) announce(fires []domain.BatchParameters) {
	for _, p := range fires {
		c.logAndNotify(p)
	}
}

func (c *Coordinator) announceOne(fired *domain.BatchParameters) {
	if fired == nil {
		return
	}
	c.logAndNotify(*fired)
}

func (c *Coordinator) logAndNotify(params domain.BatchParameters) {
	log.WithField("pool_id", hexPool(params.PoolID)).Infof("pool fired: %d participating agents, total_commitments=%d", len(params.ParticipatingAgents), params.TotalCommitments)
	if c.onReady != nil {
		c.onReady(params.PoolID, params)
	}
}

// reevaluateLocked re-derives Idle/Armed transitions and fires
// immediately when every registered agent is ready, returning the fired
// BatchParameters (nil if no fire occurred). Must be called with c.mu
// held; the caller is responsible for invoking the on-fire callback
// after releasing the lock.
func (c *Coordinator) reevaluateLocked(poolID [32]byte, ps *poolState) *domain.BatchParameters {
	armedCondition := c.quorumMetLocked(ps)

	switch ps.state {
	case domain.PoolIdle:
		if armedCondition {
			c.armLocked(poolID, ps)
			if c.allRegisteredReadyLocked(ps) {
				params := c.fireLocked(poolID, ps)
				return &params
			}
		}
	case domain.PoolArmed:
		if !armedCondition {
			c.disarmLocked(ps)
			return nil
		}
		if c.allRegisteredReadyLocked(ps) {
			params := c.fireLocked(poolID, ps)
			return &params
		}
	}
	return nil
}

func (c *Coordinator) armLocked(poolID [32]byte, ps *poolState) {
	ps.state = domain.PoolArmed
	if ps.timer != nil {
		ps.timer.Stop()
	}
	ps.deadlineMs = time.Now().UnixMilli() + c.cfg.CountdownMs
	ps.timer = time.AfterFunc(time.Duration(c.cfg.CountdownMs)*time.Millisecond, func() {
		c.onCountdownExpired(poolID)
	})
	log.WithField("pool_id", hexPool(poolID)).Info("pool armed, countdown started")
}

func (c *Coordinator) disarmLocked(ps *poolState) {
	if ps.timer != nil {
		ps.timer.Stop()
		ps.timer = nil
	}
	ps.state = domain.PoolIdle
	ps.deadlineMs = 0
}

func (c *Coordinator) allRegisteredReadyLocked(ps *poolState) bool {
	for id := range c.agents {
		if _, ok := ps.ready[id]; !ok {
			return false
		}
	}
	return len(c.agents) > 0
}

func (c *Coordinator) onCountdownExpired(poolID [32]byte) {
	c.mu.Lock()
	ps, ok := c.pools[poolID]
	if !ok || c.destroyed || ps.state != domain.PoolArmed {
		c.mu.Unlock()
		return
	}
	params := c.fireLocked(poolID, ps)
	c.mu.Unlock()
	c.logAndNotify(params)
}

// fireLocked must be called with c.mu held; it resolves BatchParameters
// and resets the pool to Idle. The caller invokes the on-fire callback
// after releasing the lock.
func (c *Coordinator) fireLocked(poolID [32]byte, ps *poolState) domain.BatchParameters {
	ps.state = domain.PoolFired
	if ps.timer != nil {
		ps.timer.Stop()
		ps.timer = nil
	}
	params := c.resolveParamsLocked(poolID, ps)

	ps.state = domain.PoolIdle
	ps.ready = make(map[string]*readySignal)
	ps.deadlineMs = 0
	return params
}

func (c *Coordinator) resolveParamsLocked(poolID [32]byte, ps *poolState) domain.BatchParameters {
	agents, total := readySetLocked(ps)

	var slips []uint32
	for _, id := range agents {
		if sig, ok := ps.ready[id]; ok && sig.preferredSlippageBps != nil {
			slips = append(slips, *sig.preferredSlippageBps)
		}
	}

	return domain.BatchParameters{
		PoolID:              poolID,
		ParticipatingAgents: agents,
		TotalCommitments:    total,
		SlippageBps:         aggregateSlippage(slips, c.cfg.ConflictResolution),
		FireTimestampMs:     time.Now().UnixMilli(),
	}
}

// aggregateSlippage implements spec §4.3's four aggregation strategies.
// median of an even-length sorted set returns the lower-middle element.
func aggregateSlippage(values []uint32, strategy domain.ConflictResolutionStrategy) uint32 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]uint32(nil), values...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	switch strategy {
	case domain.ResolveMin:
		return sorted[0]
	case domain.ResolveMax:
		return sorted[len(sorted)-1]
	case domain.ResolveMean:
		var sum uint64
		for _, v := range sorted {
			sum += uint64(v)
		}
		return uint32(sum / uint64(len(sorted)))
	case domain.ResolveMedian:
		fallthrough
	default:
		n := len(sorted)
		if n%2 == 1 {
			return sorted[(n-1)/2]
		}
		return sorted[n/2-1]
	}
}

// ResolveBatchParameters exposes resolution for a pool's current ready
// set without firing it, for diagnostics/tests.
func (c *Coordinator) ResolveBatchParameters(poolID [32]byte) domain.BatchParameters {
	c.mu.Lock()
	defer c.mu.Unlock()
	ps, ok := c.pools[poolID]
	if !ok {
		return domain.BatchParameters{PoolID: poolID}
	}
	return c.resolveParamsLocked(poolID, ps)
}

// ResetPool clears signals, ready-set, and countdown timer unconditionally.
func (c *Coordinator) ResetPool(poolID [32]byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ps, ok := c.pools[poolID]
	if !ok {
		return
	}
	if ps.timer != nil {
		ps.timer.Stop()
	}
	c.pools[poolID] = newPoolState()
}

// AllAgentsReady returns true iff every registered agent has ready=true
// for poolID.
func (c *Coordinator) AllAgentsReady(poolID [32]byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	ps, ok := c.pools[poolID]
	if !ok {
		return false
	}
	return c.allRegisteredReadyLocked(ps)
}

// Destroy cancels all pending countdown timers synchronously; no
// callbacks fire after it returns.
func (c *Coordinator) Destroy() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.destroyed = true
	for _, ps := range c.pools {
		if ps.timer != nil {
			ps.timer.Stop()
			ps.timer = nil
		}
	}
}

func hexPool(poolID [32]byte) string {
	const hextable = "0123456789abcdef"
	out := make([]byte, 2+len(poolID)*2)
	out[0], out[1] = '0', 'x'
	for i, b := range poolID {
		out[2+i*2] = hextable[b>>4]
		out[2+i*2+1] = hextable[b&0x0f]
	}
	return string(out)
}
