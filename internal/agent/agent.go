// Package agent wires one Strategy to the shared hook client, reveal
// manager, market-data fetcher, and batch coordinator, turning a
// MarketData snapshot into a commitment on-chain and a readiness signal.
// Grounded on the reference's pkg/bbgo.Trader session/strategy fan-out:
// each Agent here plays the role of one of the reference's strategy
// sessions, driven by a shared poll loop instead of per-session
// goroutines.
package agent

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"github.com/Belloabraham121/privbatch/internal/coordinator"
	"github.com/Belloabraham121/privbatch/internal/domain"
	"github.com/Belloabraham121/privbatch/internal/hookclient"
	"github.com/Belloabraham121/privbatch/internal/marketdata"
	"github.com/Belloabraham121/privbatch/internal/reveal"
	"github.com/Belloabraham121/privbatch/internal/strategy"
	"github.com/Belloabraham121/privbatch/internal/wallet"
)

// Config is the per-agent wiring surface: which pool it trades, under
// which identity, with how much deadline slack on submitted intents.
type Config struct {
	ID             string
	PoolKey        domain.PoolKey
	Recipient      common.Address
	DeadlineWindow time.Duration
}

// Agent ties one Strategy instance to its pool and shared collaborators.
type Agent struct {
	cfg      Config
	poolID   [32]byte
	strategy strategy.Strategy
	signer   wallet.Signer
	hook     hookclient.Client
	reveals  *reveal.Manager
	fetcher  *marketdata.Fetcher
	coord    *coordinator.Coordinator

	log *logrus.Entry

	myHashes map[domain.CommitmentHash]struct{}
}

func New(cfg Config, strat strategy.Strategy, signer wallet.Signer, hook hookclient.Client, reveals *reveal.Manager, fetcher *marketdata.Fetcher, coord *coordinator.Coordinator) (*Agent, error) {
	poolID, err := cfg.PoolKey.PoolID()
	if err != nil {
		return nil, err
	}
	if cfg.DeadlineWindow <= 0 {
		cfg.DeadlineWindow = 2 * time.Minute
	}
	return &Agent{
		cfg:      cfg,
		poolID:   poolID,
		strategy: strat,
		signer:   signer,
		hook:     hook,
		reveals:  reveals,
		fetcher:  fetcher,
		coord:    coord,
		log:      logrus.WithFields(logrus.Fields{"component": "agent", "agent": cfg.ID, "strategy": strat.ID()}),
		myHashes: make(map[domain.CommitmentHash]struct{}),
	}, nil
}

func (a *Agent) PoolID() [32]byte { return a.poolID }

// Tick runs one decision cycle: fetch market data, ask the strategy,
// and either commit a new intent or withdraw readiness. It never
// blocks on the batch window itself — that is the Coordinator's job.
func (a *Agent) Tick(ctx context.Context, now time.Time) {
	market, err := a.fetcher.FetchMarketData(ctx, a.cfg.PoolKey, now.UnixMilli())
	if err != nil {
		a.log.WithError(err).Warn("fetch market data failed")
		return
	}

	decision := a.strategy.ShouldTrade(market, now)
	if !decision.ShouldTrade {
		a.coord.SignalNotReady(a.cfg.ID, a.poolID)
		return
	}

	intent, err := a.buildIntent(decision, now)
	if err != nil {
		a.log.WithError(err).Warn("build intent failed")
		return
	}

	hash, err := domain.ComputeCommitmentHash(intent)
	if err != nil {
		a.log.WithError(err).Warn("compute commitment hash failed")
		return
	}

	result, err := a.hook.SubmitCommitment(ctx, a.cfg.PoolKey, hash)
	if err != nil {
		a.log.WithError(err).Warn("submit commitment failed")
		return
	}
	if !result.Success {
		a.log.Warn("submit commitment rejected on-chain")
		return
	}

	a.reveals.AddReveal(hash, intent, a.cfg.PoolKey, a.poolID, false)
	a.myHashes[hash] = struct{}{}

	a.coord.SignalReady(a.cfg.ID, a.poolID, a.pendingMine(), nil)
	a.log.WithField("commitment_hash", hash.String()).Info("commitment submitted")
}

// pendingMine counts this agent's own un-cleared reveals for its pool,
// intersecting its submitted-hash set against the manager's current
// pool bucket (a hash disappears from there once the executor clears
// it, so no separate bookkeeping is needed on the clear path).
func (a *Agent) pendingMine() uint32 {
	live := a.reveals.GetRevealsForPool(a.poolID)
	liveSet := make(map[domain.CommitmentHash]struct{}, len(live))
	for _, r := range live {
		liveSet[r.CommitmentHash] = struct{}{}
	}
	var n uint32
	for h := range a.myHashes {
		if _, ok := liveSet[h]; ok {
			n++
		} else {
			delete(a.myHashes, h)
		}
	}
	return n
}

func (a *Agent) buildIntent(decision domain.TradeDecision, now time.Time) (domain.SwapIntent, error) {
	tokenIn, tokenOut := a.cfg.PoolKey.Currency0, a.cfg.PoolKey.Currency1
	if decision.Direction == domain.OneForZero {
		tokenIn, tokenOut = tokenOut, tokenIn
	}

	nonce := new(big.Int).SetUint64(a.signer.NextNonce())
	return domain.SwapIntent{
		User:         a.signer.Address(),
		TokenIn:      tokenIn,
		TokenOut:     tokenOut,
		AmountIn:     decision.AmountIn,
		MinAmountOut: decision.MinAmountOut,
		Recipient:    a.cfg.Recipient,
		Nonce:        nonce,
		DeadlineUnix: now.Add(a.cfg.DeadlineWindow).Unix(),
	}, nil
}
