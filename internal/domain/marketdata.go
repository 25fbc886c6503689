package domain

import (
	"math/big"
	"time"

	"github.com/shopspring/decimal"
)

// Swap is a single recent swap observed in a pool, used for volume
// calculation and trend-confirmation windows.
type Swap struct {
	ZeroForOne bool
	Amount0    *big.Int
	Amount1    *big.Int
	Timestamp  time.Time
}

// MarketData is an immutable value type: no field is mutated after
// construction. A stale snapshot is discarded by the caller, never
// patched in place.
type MarketData struct {
	PoolID            [32]byte
	PoolKey           PoolKey
	CurrentPrice      decimal.Decimal
	PriceChange1hPct  float64
	PriceChange24hPct float64
	TotalLiquidity    *big.Int
	Liquidity0        *big.Int
	Liquidity1        *big.Int
	Volume1h          *big.Int
	Volume24h         *big.Int
	RecentSwaps       []Swap
	CapturedAtMs      int64
}

// StaleAfter is the freshness window spec §3 defines: a snapshot older
// than this relative to "now" is stale.
const StaleAfter = 5 * time.Minute

// IsStale reports whether the snapshot is older than StaleAfter relative
// to nowMs (caller-supplied so the check is deterministic in tests).
func (m MarketData) IsStale(nowMs int64) bool {
	return time.Duration(nowMs-m.CapturedAtMs)*time.Millisecond > StaleAfter
}
