package marketdata

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/gorilla/websocket"

	"github.com/Belloabraham121/privbatch/internal/domain"
	"github.com/Belloabraham121/privbatch/pkg/ratelimit"
)

// RPCSource reads pool state through the same JSON-RPC-shaped eth_call
// transport hookclient.RPCClient uses, grounded on the reference's
// pkg/sdk/http.Client wrapper (resty, base URL + timeout, no built-in
// retry — callers decide retry policy). Calls are throttled by a token
// bucket so a fleet of agents polling the same RPC endpoint doesn't
// trip the upstream provider's own rate limit.
type RPCSource struct {
	http    *resty.Client
	poolABI string // pool reader contract address, eth_call target
	limiter *ratelimit.TokenBucket
}

// defaultRPCCallsPerSecond bounds eth_call throughput against a public
// RPC endpoint's typical free-tier budget.
const defaultRPCCallsPerSecond = 20

func NewRPCSource(rpcURL, poolReaderAddress string) *RPCSource {
	return &RPCSource{
		http:    resty.New().SetBaseURL(rpcURL).SetTimeout(10 * time.Second),
		poolABI: poolReaderAddress,
		limiter: ratelimit.NewTokenBucket(defaultRPCCallsPerSecond, defaultRPCCallsPerSecond),
	}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// poolReadPayload is the decoded shape returned by the pool-reader
// eth_call, a companion view contract that aggregates price/liquidity/
// recent-swap data for one pool in a single round trip.
type poolReadPayload struct {
	CurrentPrice      float64 `json:"currentPrice"`
	PriceChange1hPct  float64 `json:"priceChange1hPct"`
	PriceChange24hPct float64 `json:"priceChange24hPct"`
	TotalLiquidity    string  `json:"totalLiquidity"`
	Liquidity0        string  `json:"liquidity0"`
	Liquidity1        string  `json:"liquidity1"`
	Volume1h          string  `json:"volume1h"`
	Volume24h         string  `json:"volume24h"`
	Swaps             []struct {
		ZeroForOne bool   `json:"zeroForOne"`
		Amount0    string `json:"amount0"`
		Amount1    string `json:"amount1"`
		Timestamp  int64  `json:"timestamp"`
	} `json:"recentSwaps"`
}

func (s *RPCSource) FetchPoolState(ctx context.Context, poolKey domain.PoolKey) (PoolState, error) {
	poolID, err := poolKey.PoolID()
	if err != nil {
		return PoolState{}, err
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return PoolState{}, err
	}

	req := rpcRequest{JSONRPC: "2.0", ID: 1, Method: "eth_call", Params: []any{
		map[string]string{"to": s.poolABI, "data": encodeGetPoolStateCall(poolID)},
		"latest",
	}}

	var resp rpcResponse
	httpResp, err := s.http.R().SetContext(ctx).SetBody(req).SetResult(&resp).Post("/")
	if err != nil {
		return PoolState{}, domain.NewError(domain.ErrNetworkTimeout, "pool state rpc call failed: "+err.Error())
	}
	if httpResp.IsError() || resp.Error != nil {
		msg := fmt.Sprintf("status=%d", httpResp.StatusCode())
		if resp.Error != nil {
			msg = resp.Error.Message
		}
		return PoolState{}, domain.NewError(domain.ErrRPCError, "pool state rpc error: "+msg)
	}

	var payload poolReadPayload
	if err := json.Unmarshal(resp.Result, &payload); err != nil {
		return PoolState{}, domain.NewError(domain.ErrInvalidMarketData, "decode pool state failed: "+err.Error())
	}

	swaps := make([]domain.Swap, 0, len(payload.Swaps))
	for _, raw := range payload.Swaps {
		swaps = append(swaps, domain.Swap{
			ZeroForOne: raw.ZeroForOne,
			Amount0:    bigIntOrZero(raw.Amount0),
			Amount1:    bigIntOrZero(raw.Amount1),
			Timestamp:  time.UnixMilli(raw.Timestamp),
		})
	}

	return PoolState{
		CurrentPrice:      payload.CurrentPrice,
		PriceChange1hPct:  payload.PriceChange1hPct,
		PriceChange24hPct: payload.PriceChange24hPct,
		TotalLiquidity:    bigIntOrZero(payload.TotalLiquidity),
		Liquidity0:        bigIntOrZero(payload.Liquidity0),
		Liquidity1:        bigIntOrZero(payload.Liquidity1),
		Volume1h:          bigIntOrZero(payload.Volume1h),
		Volume24h:         bigIntOrZero(payload.Volume24h),
		RecentSwaps:       swaps,
	}, nil
}

func bigIntOrZero(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return big.NewInt(0)
	}
	return v
}

// encodeGetPoolStateCall is a placeholder selector encode for the
// aggregator view call; real deployments fill this in with the
// reader contract's ABI-packed calldata.
func encodeGetPoolStateCall(poolID [32]byte) string {
	return "0x" + fmt.Sprintf("%x", poolID)
}

// SwapFeed is a live swap-event stream shared across every pool an
// agent tracks: a push-based complement to RPCSource's poll-based
// reads, used to keep Fetcher's cached RecentSwaps warm between
// fetches (read by the momentum strategy's trend confirmation).
// Grounded on the reference's infrastructure/websocket.MarketWebSocket:
// signal-driven reconnect channel, a registered callback list,
// context-scoped lifecycle. One connection multiplexes every pool's
// swap events, discriminated by pool id on the wire.
type SwapFeed struct {
	url    string
	mu     sync.Mutex
	conn   *websocket.Conn
	closed bool

	handlersMu sync.Mutex
	handlers   []func([32]byte, domain.Swap)

	reconnectDelay time.Duration
}

func NewSwapFeed(wsURL string) *SwapFeed {
	return &SwapFeed{url: wsURL, reconnectDelay: 5 * time.Second}
}

// OnSwap registers a callback invoked for every swap event the feed
// decodes, along with the pool id it belongs to. Safe to call while Run
// is active: each event is dispatched to a snapshot of the handlers
// registered at the time it is decoded.
func (f *SwapFeed) OnSwap(handler func(poolID [32]byte, swap domain.Swap)) {
	f.handlersMu.Lock()
	defer f.handlersMu.Unlock()
	f.handlers = append(f.handlers, handler)
}

// Run connects and reconnects until ctx is cancelled, per the
// reference's signal-driven reconnect loop.
func (f *SwapFeed) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			f.close()
			return
		default:
		}

		if err := f.connectAndRead(ctx); err != nil {
			log.WithError(err).Warn("swap feed disconnected, reconnecting")
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(f.reconnectDelay):
		}
	}
}

func (f *SwapFeed) connectAndRead(ctx context.Context) error {
	u, err := url.Parse(f.url)
	if err != nil {
		return err
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return err
	}
	f.mu.Lock()
	f.conn = conn
	f.mu.Unlock()

	defer conn.Close()
	for {
		var msg struct {
			PoolID     string `json:"poolId"`
			ZeroForOne bool   `json:"zeroForOne"`
			Amount0    string `json:"amount0"`
			Amount1    string `json:"amount1"`
			Timestamp  int64  `json:"timestamp"`
		}
		if err := conn.ReadJSON(&msg); err != nil {
			return err
		}
		poolID, err := poolIDFromHex(msg.PoolID)
		if err != nil {
			log.WithError(err).WithField("pool_id", msg.PoolID).Warn("swap feed: dropping event with unparseable pool id")
			continue
		}
		swap := domain.Swap{
			ZeroForOne: msg.ZeroForOne,
			Amount0:    bigIntOrZero(msg.Amount0),
			Amount1:    bigIntOrZero(msg.Amount1),
			Timestamp:  time.UnixMilli(msg.Timestamp),
		}
		f.handlersMu.Lock()
		handlers := append([]func([32]byte, domain.Swap){}, f.handlers...)
		f.handlersMu.Unlock()
		for _, h := range handlers {
			h(poolID, swap)
		}
	}
}

// poolIDFromHex parses a 0x-prefixed 32-byte pool id as sent over the
// wire by the swap-event relay.
func poolIDFromHex(s string) ([32]byte, error) {
	var id [32]byte
	s = strings.TrimPrefix(s, "0x")
	raw, err := hex.DecodeString(s)
	if err != nil {
		return id, err
	}
	if len(raw) != len(id) {
		return id, fmt.Errorf("pool id must be %d bytes, got %d", len(id), len(raw))
	}
	copy(id[:], raw)
	return id, nil
}

func (f *SwapFeed) close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	if f.conn != nil {
		_ = f.conn.Close()
	}
}
