// Package config loads process configuration from a YAML file with
// environment-variable overrides, grounded on the reference's
// pkg/config (file-then-env merge via getEnv/getValueFromSources)
// trimmed to this domain's fields: chain/hook wiring, pool/strategy
// assignment, coordinator/executor tuning, and the control-plane
// surface. The reference's CLOB-account/grid/threshold strategy config
// sections have no home here and are not carried over.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// PoolConfig assigns one strategy instance to one pool under one
// signing identity.
type PoolConfig struct {
	Currency0      string `yaml:"currency0"`
	Currency1      string `yaml:"currency1"`
	FeeBps         uint32 `yaml:"fee_bps"`
	TickSpacing    int32  `yaml:"tick_spacing"`
	Hooks          string `yaml:"hooks"`
	Strategy       string `yaml:"strategy"` // momentum | arbitrage | liquidity | meanreversion
	Recipient      string `yaml:"recipient"`
	DeadlineWindow string `yaml:"deadline_window"` // e.g. "2m"
	MinAmountIn    string `yaml:"min_amount_in"`    // base-10 integer string
	MaxAmountIn    string `yaml:"max_amount_in"`    // base-10 integer string
	SlippageBps    uint32 `yaml:"slippage_bps"`
}

// ChainConfig is the RPC/hook-contract wiring.
type ChainConfig struct {
	RPCURL            string `yaml:"rpc_url"`
	HookAddress       string `yaml:"hook_address"`
	PoolReaderAddress string `yaml:"pool_reader_address"`
	ChainID           int64  `yaml:"chain_id"`
	// SwapFeedWSURL is optional: when set and fake_mode is false, the
	// agent subscribes to a live swap-event relay over this websocket
	// URL to keep RecentSwaps warm between RPC polls.
	SwapFeedWSURL string `yaml:"swap_feed_ws_url"`
}

// WalletConfig is the dev-only signing identity, grounded on the
// reference's user.json / WalletConfig private-key loading.
type WalletConfig struct {
	Mnemonic              string `yaml:"mnemonic"`
	DerivationPath        string `yaml:"derivation_path"`
	PrivateKeyHex         string `yaml:"private_key_hex"`          // alternative to mnemonic
	EncryptedMnemonicFile string `yaml:"encrypted_mnemonic_file"`  // alternative produced by cmd/mnemonic-init; requires PRIVBATCH_MASTER_KEY
}

// CoordinatorConfig is the Batch Coordinator's tuning surface, spec §4.3.
type CoordinatorConfig struct {
	Quorum              int    `yaml:"quorum"`
	MinTotalCommitments uint32 `yaml:"min_total_commitments"`
	CountdownMs         int64  `yaml:"countdown_ms"`
	ConflictResolution  string `yaml:"conflict_resolution"` // median|mean|min|max
}

// ExecutorConfig is the Batch Executor's tuning surface, spec §4.4.
type ExecutorConfig struct {
	PollInterval           string `yaml:"poll_interval"`
	PostRevealDelay        string `yaml:"post_reveal_delay"`
	MaxRetries             int    `yaml:"max_retries"`
	RetryBaseDelay         string `yaml:"retry_base_delay"`
	ZKMode                 bool   `yaml:"zk_mode"`
	HistoryDBPath          string `yaml:"history_db_path"`
	MaxConsecutiveFailures int64  `yaml:"max_consecutive_failures"`
}

// ControlPlaneConfig is the read-only observability HTTP surface.
type ControlPlaneConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// LogConfig mirrors pkg/logger.Config.
type LogConfig struct {
	Level      string `yaml:"level"`
	OutputFile string `yaml:"output_file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// Config is the full process configuration tree.
type Config struct {
	Chain        ChainConfig        `yaml:"chain"`
	Wallet       WalletConfig       `yaml:"wallet"`
	Coordinator  CoordinatorConfig  `yaml:"coordinator"`
	Executor     ExecutorConfig     `yaml:"executor"`
	ControlPlane ControlPlaneConfig `yaml:"control_plane"`
	Log          LogConfig          `yaml:"log"`
	Pools        []PoolConfig       `yaml:"pools"`
	PollInterval string             `yaml:"poll_interval"` // agent tick interval
	FakeMode     bool               `yaml:"fake_mode"`     // use hookclient.FakeClient + marketdata.FakeSource
}

func defaults() Config {
	return Config{
		Coordinator: CoordinatorConfig{
			Quorum:              2,
			MinTotalCommitments: 1,
			CountdownMs:         30_000,
			ConflictResolution:  "median",
		},
		Executor: ExecutorConfig{
			PollInterval:           "5s",
			PostRevealDelay:        "2s",
			MaxRetries:             3,
			RetryBaseDelay:         "500ms",
			HistoryDBPath:          "data/history",
			MaxConsecutiveFailures: 5,
		},
		ControlPlane: ControlPlaneConfig{Enabled: true, Addr: ":8090"},
		Log:          LogConfig{Level: "info", OutputFile: "logs/agent.log", MaxSizeMB: 100, MaxBackups: 3, MaxAgeDays: 7},
		PollInterval: "3s",
	}
}

// Load reads path (if non-empty and present) over the defaults, then
// applies PRIVBATCH_-prefixed environment overrides for the fields an
// operator most commonly needs to override per-deployment (RPC URL,
// wallet secret, fake mode) without editing the file.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	applyEnvOverrides(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	cfg.Chain.RPCURL = getEnv("PRIVBATCH_RPC_URL", cfg.Chain.RPCURL)
	cfg.Chain.HookAddress = getEnv("PRIVBATCH_HOOK_ADDRESS", cfg.Chain.HookAddress)
	cfg.Chain.SwapFeedWSURL = getEnv("PRIVBATCH_SWAP_FEED_WS_URL", cfg.Chain.SwapFeedWSURL)
	cfg.Wallet.Mnemonic = getEnv("PRIVBATCH_MNEMONIC", cfg.Wallet.Mnemonic)
	cfg.Wallet.PrivateKeyHex = getEnv("PRIVBATCH_PRIVATE_KEY", cfg.Wallet.PrivateKeyHex)
	cfg.FakeMode = getBoolEnv("PRIVBATCH_FAKE_MODE", cfg.FakeMode)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getBoolEnv(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

// Validate checks the invariants main() relies on before wiring
// collaborators: either fake mode (no chain required) or a fully
// specified chain + at least one pool. In both modes every pool must
// name a strategy.
func (c *Config) Validate() error {
	for i, p := range c.Pools {
		if p.Strategy == "" {
			return fmt.Errorf("config: pools[%d].strategy is required", i)
		}
	}
	if c.FakeMode {
		if len(c.Pools) == 0 {
			return fmt.Errorf("config: fake_mode still requires at least one pool")
		}
		return nil
	}
	if strings.TrimSpace(c.Chain.RPCURL) == "" {
		return fmt.Errorf("config: chain.rpc_url is required outside fake_mode")
	}
	if strings.TrimSpace(c.Chain.HookAddress) == "" {
		return fmt.Errorf("config: chain.hook_address is required outside fake_mode")
	}
	if c.Wallet.Mnemonic == "" && c.Wallet.PrivateKeyHex == "" && c.Wallet.EncryptedMnemonicFile == "" {
		return fmt.Errorf("config: wallet.mnemonic, wallet.private_key_hex, or wallet.encrypted_mnemonic_file is required outside fake_mode")
	}
	if len(c.Pools) == 0 {
		return fmt.Errorf("config: at least one pool must be configured")
	}
	return nil
}

// Duration parses a Go duration string, falling back to fallback on an
// empty or invalid value.
func Duration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
