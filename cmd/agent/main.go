// Command agent is the process entrypoint: it wires config -> logger ->
// signer -> hook client -> market-data fetcher -> history store ->
// reveal manager -> executor -> coordinator -> agent manager (one
// strategy instance built per configured pool) -> optional
// control-plane server.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"github.com/Belloabraham121/privbatch/internal/agent"
	"github.com/Belloabraham121/privbatch/internal/controlplane"
	"github.com/Belloabraham121/privbatch/internal/coordinator"
	"github.com/Belloabraham121/privbatch/internal/domain"
	"github.com/Belloabraham121/privbatch/internal/executor"
	"github.com/Belloabraham121/privbatch/internal/historystore"
	"github.com/Belloabraham121/privbatch/internal/hookclient"
	"github.com/Belloabraham121/privbatch/internal/marketdata"
	"github.com/Belloabraham121/privbatch/internal/reveal"
	"github.com/Belloabraham121/privbatch/internal/strategy"
	"github.com/Belloabraham121/privbatch/internal/strategy/arbitrage"
	"github.com/Belloabraham121/privbatch/internal/strategy/liquidity"
	"github.com/Belloabraham121/privbatch/internal/strategy/meanreversion"
	"github.com/Belloabraham121/privbatch/internal/strategy/momentum"
	"github.com/Belloabraham121/privbatch/internal/wallet"
	"github.com/Belloabraham121/privbatch/pkg/config"
	"github.com/Belloabraham121/privbatch/pkg/logger"
	"github.com/Belloabraham121/privbatch/pkg/shutdown"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config load failed:", err)
		os.Exit(1)
	}

	if err := logger.Init(logger.Config{
		Level:      cfg.Log.Level,
		OutputFile: cfg.Log.OutputFile,
		MaxSize:    cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAgeDays,
		Compress:   true,
	}); err != nil {
		fmt.Fprintln(os.Stderr, "logger init failed:", err)
		os.Exit(1)
	}
	log := logrus.WithField("component", "main")

	signer, err := buildSigner(cfg.Wallet)
	if err != nil {
		log.WithError(err).Fatal("wallet setup failed")
	}
	log.WithField("address", signer.Address().Hex()).Info("signing identity ready")

	hook := buildHookClient(*cfg)
	source := buildMarketSource(*cfg)
	fetcher := marketdata.NewFetcher(source, domain.StaleAfter)
	swapFeed := buildSwapFeed(*cfg, fetcher)

	history, err := historystore.Open(cfg.Executor.HistoryDBPath)
	if err != nil {
		log.WithError(err).Fatal("history store open failed")
	}
	defer history.Close()

	reveals := reveal.NewManager(agent.RevealHookAdapter{Hook: hook})

	execCfg := executor.Config{
		PollInterval:           config.Duration(cfg.Executor.PollInterval, 5*time.Second),
		PostRevealDelay:        config.Duration(cfg.Executor.PostRevealDelay, 2*time.Second),
		MaxRetries:             cfg.Executor.MaxRetries,
		RetryBaseDelay:         config.Duration(cfg.Executor.RetryBaseDelay, 500*time.Millisecond),
		ZKMode:                 cfg.Executor.ZKMode,
		MaxConsecutiveFailures: cfg.Executor.MaxConsecutiveFailures,
	}
	exec := executor.New(execCfg, hook, reveals, history)

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if swapFeed != nil {
		go swapFeed.Run(rootCtx)
	}

	coord := coordinator.New(coordinator.Config{
		Quorum:              cfg.Coordinator.Quorum,
		MinTotalCommitments: cfg.Coordinator.MinTotalCommitments,
		CountdownMs:         cfg.Coordinator.CountdownMs,
		ConflictResolution:  domain.ConflictResolutionStrategy(cfg.Coordinator.ConflictResolution),
	}, func(poolID [32]byte, params domain.BatchParameters) {
		go func() {
			if err := exec.ExecuteBatch(rootCtx, poolID); err != nil {
				log.WithError(err).WithField("pool_id", poolID).Warn("batch execution failed")
			}
		}()
	})
	defer coord.Destroy()

	mgr := agent.NewManager(hook, reveals, coord, exec, config.Duration(cfg.PollInterval, 3*time.Second))

	for i, poolCfg := range cfg.Pools {
		agentCfg, strat, err := buildAgent(i, poolCfg)
		if err != nil {
			log.WithError(err).WithField("pool_index", i).Fatal("agent config invalid")
		}
		if _, err := mgr.AddAgent(agentCfg, strat, signer, fetcher); err != nil {
			log.WithError(err).WithField("pool_index", i).Fatal("agent registration failed")
		}
	}

	exec.StartPolling(rootCtx)
	mgr.StartPolling(rootCtx)

	var srv *http.Server
	if cfg.ControlPlane.Enabled {
		cp := controlplane.New(coord, reveals, exec, mgr)
		srv = &http.Server{Addr: cfg.ControlPlane.Addr, Handler: cp.Router()}
		go func() {
			log.WithField("addr", cfg.ControlPlane.Addr).Info("control plane listening")
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.WithError(err).Error("control plane server stopped")
			}
		}()
	}

	shutdownMgr := shutdown.NewManager()
	shutdownMgr.OnShutdown(func(ctx context.Context, wg *sync.WaitGroup) {
		exec.StopPolling()
	})
	shutdownMgr.OnShutdown(func(ctx context.Context, wg *sync.WaitGroup) {
		mgr.StopPolling()
	})
	if srv != nil {
		shutdownMgr.OnShutdown(func(ctx context.Context, wg *sync.WaitGroup) {
			_ = srv.Shutdown(ctx)
		})
	}

	log.Info("agent process started")
	<-rootCtx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	shutdownMgr.Shutdown(shutdownCtx)
}

func buildSigner(cfg config.WalletConfig) (wallet.Signer, error) {
	if cfg.EncryptedMnemonicFile != "" {
		masterKey := os.Getenv("PRIVBATCH_MASTER_KEY")
		if masterKey == "" {
			return nil, fmt.Errorf("wallet.encrypted_mnemonic_file is set but PRIVBATCH_MASTER_KEY is empty")
		}
		return wallet.NewHDWalletFromEncryptedFile(cfg.EncryptedMnemonicFile, cfg.DerivationPath, masterKey)
	}
	if cfg.PrivateKeyHex != "" {
		return wallet.NewHDWalletFromPrivateKeyHex(cfg.PrivateKeyHex)
	}
	return wallet.NewHDWallet(cfg.Mnemonic, cfg.DerivationPath)
}

func buildHookClient(cfg config.Config) hookclient.Client {
	if cfg.FakeMode {
		return hookclient.NewFakeClient()
	}
	return hookclient.NewRPCClient(cfg.Chain.RPCURL, cfg.Chain.HookAddress, cfg.Chain.ChainID)
}

func buildMarketSource(cfg config.Config) marketdata.PoolDataSource {
	if cfg.FakeMode {
		fake := marketdata.NewFakeSource()
		for _, p := range cfg.Pools {
			key, err := poolKeyFromConfig(p)
			if err != nil {
				continue
			}
			poolID, err := key.PoolID()
			if err != nil {
				continue
			}
			fake.SetState(poolID, marketdata.PoolState{
				CurrentPrice:   1.0,
				TotalLiquidity: big.NewInt(1_000_000),
				Liquidity0:     big.NewInt(500_000),
				Liquidity1:     big.NewInt(500_000),
				Volume1h:       big.NewInt(10_000),
				Volume24h:      big.NewInt(100_000),
			})
		}
		return fake
	}
	return marketdata.NewRPCSource(cfg.Chain.RPCURL, cfg.Chain.PoolReaderAddress)
}

// buildSwapFeed wires a live swap-event stream into fetcher when a relay
// URL is configured. fake_mode never needs it: FakeSource's states are
// set once at startup and don't benefit from live swap ingestion.
func buildSwapFeed(cfg config.Config, fetcher *marketdata.Fetcher) *marketdata.SwapFeed {
	if cfg.FakeMode || cfg.Chain.SwapFeedWSURL == "" {
		return nil
	}
	feed := marketdata.NewSwapFeed(cfg.Chain.SwapFeedWSURL)
	feed.OnSwap(func(poolID [32]byte, swap domain.Swap) {
		fetcher.IngestSwap(poolID, swap)
	})
	return feed
}

func poolKeyFromConfig(p config.PoolConfig) (domain.PoolKey, error) {
	if !common.IsHexAddress(p.Currency0) || !common.IsHexAddress(p.Currency1) || !common.IsHexAddress(p.Hooks) {
		return domain.PoolKey{}, fmt.Errorf("pool config has an invalid address")
	}
	return domain.PoolKey{
		Currency0:   common.HexToAddress(p.Currency0),
		Currency1:   common.HexToAddress(p.Currency1),
		FeeBps:      p.FeeBps,
		TickSpacing: p.TickSpacing,
		Hooks:       common.HexToAddress(p.Hooks),
	}, nil
}

func buildAgent(index int, p config.PoolConfig) (agent.Config, strategy.Strategy, error) {
	poolKey, err := poolKeyFromConfig(p)
	if err != nil {
		return agent.Config{}, nil, err
	}

	minAmount, ok := new(big.Int).SetString(defaultString(p.MinAmountIn, "1000000000000000"), 10)
	if !ok {
		return agent.Config{}, nil, fmt.Errorf("pool %d: invalid min_amount_in", index)
	}
	maxAmount, ok := new(big.Int).SetString(defaultString(p.MaxAmountIn, "1000000000000000000"), 10)
	if !ok {
		return agent.Config{}, nil, fmt.Errorf("pool %d: invalid max_amount_in", index)
	}
	bounds := strategy.AmountBounds{MinAmountIn: minAmount, MaxAmountIn: maxAmount}
	slippage := p.SlippageBps
	if slippage == 0 {
		slippage = 50
	}

	recipient := common.HexToAddress(p.Recipient)

	var strat strategy.Strategy
	switch strings.ToLower(p.Strategy) {
	case momentum.ID:
		strat = momentum.New(momentum.Config{
			Threshold1hPct:     0.5,
			Threshold24hPct:    2.0,
			ShortWeight:        0.4,
			LongWeight:         0.6,
			MinVolumeThreshold: big.NewInt(0),
			CooldownSecs:       60,
			MaxVolatilityPct:   20,
			SlippageBps:        slippage,
			Bounds:             bounds,
		})
	case arbitrage.ID:
		strat = arbitrage.New(arbitrage.Config{
			MinSpreadPct:     0.3,
			MaxSpreadPct:     10,
			EstimatedGasCost: big.NewInt(0),
			MinNetProfit:     big.NewInt(0),
			CooldownSecs:     60,
			MinLiquidity:     big.NewInt(0),
			MaxSlippageBps:   slippage,
			Bounds:           bounds,
		})
	case liquidity.ID:
		strat = liquidity.New(liquidity.Config{
			ImbalanceThreshold:         1.5,
			MinTotalLiquidity:          big.NewInt(0),
			VolumeToLiquidityThreshold: 0.05,
			CooldownSecs:               60,
			TradeIntoImbalance:         true,
			MinConfidence:              0.1,
			PositionSizeFraction:       0.01,
			SlippageBps:                slippage,
			Bounds:                     bounds,
		})
	case meanreversion.ID, "meanreversion":
		strat = meanreversion.New(meanreversion.Config{
			EMAPeriod:            20,
			ModerateDevThreshold: 1.0,
			StrongDevThreshold:   2.0,
			ExtremeDevThreshold:  3.0,
			MaxDevThreshold:      6.0,
			CooldownSecs:         60,
			MinConfidence:        0.1,
			MinDataPoints:        20,
			SlippageBps:          slippage,
			Bounds:               bounds,
		})
	default:
		return agent.Config{}, nil, fmt.Errorf("pool %d: unknown strategy %q", index, p.Strategy)
	}

	return agent.Config{
		ID:             fmt.Sprintf("agent-%d-%s", index, p.Strategy),
		PoolKey:        poolKey,
		Recipient:      recipient,
		DeadlineWindow: config.Duration(p.DeadlineWindow, 2*time.Minute),
	}, strat, nil
}

func defaultString(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
