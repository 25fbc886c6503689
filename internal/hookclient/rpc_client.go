package hookclient

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/Belloabraham121/privbatch/internal/domain"
)

var log = logrus.WithField("component", "hookclient")

// RPCClient is the reference transport implementation: JSON-RPC-shaped
// POSTs to an execution node over resty, the same pairing (resty +
// pkg/errors for wrapped transport failures) the reference's
// pkg/sdk/http.Client uses. A revert is decoded via DecodeError; a
// transport-layer failure is always distinguishable as
// domain.ErrNetworkTimeout/domain.ErrRPCError, never confused with one.
type RPCClient struct {
	http          *resty.Client
	hookAddress   string
	chainID       int64
}

func NewRPCClient(rpcURL, hookAddress string, chainID int64) *RPCClient {
	client := resty.New().
		SetBaseURL(rpcURL).
		SetTimeout(30 * time.Second).
		SetRetryCount(0) // retries are the Batch Executor's job (spec §4.4), not the transport's

	return &RPCClient{http: client, hookAddress: hookAddress, chainID: chainID}
}

type jsonRPCRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      string        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type jsonRPCResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Data    string `json:"data"` // revert selector payload, when present
	} `json:"error"`
}

func (c *RPCClient) call(ctx context.Context, method string, params ...interface{}) (json.RawMessage, error) {
	req := jsonRPCRequest{JSONRPC: "2.0", ID: uuid.NewString(), Method: method, Params: params}
	var out jsonRPCResponse

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		Post("/")
	if err != nil {
		return nil, domain.WrapError(domain.ErrNetworkTimeout, "rpc transport failure", errors.Wrap(err, method))
	}
	if resp.IsError() {
		return nil, domain.WrapError(domain.ErrRPCError, fmt.Sprintf("rpc http status %d", resp.StatusCode()), nil)
	}
	if out.Error != nil {
		if sel, ok := parseSelector(out.Error.Data); ok {
			return nil, DecodeError(sel)
		}
		return nil, domain.NewError(domain.ErrRPCError, out.Error.Message)
	}
	return out.Result, nil
}

func parseSelector(data string) ([4]byte, bool) {
	var sel [4]byte
	raw := []byte(data)
	if len(raw) < 10 { // "0x" + 8 hex chars
		return sel, false
	}
	n, err := fmt.Sscanf(string(raw[:10]), "0x%08x", new(uint32))
	if err != nil || n != 1 {
		return sel, false
	}
	var v uint32
	if _, err := fmt.Sscanf(string(raw[:10]), "0x%08x", &v); err != nil {
		return sel, false
	}
	sel[0] = byte(v >> 24)
	sel[1] = byte(v >> 16)
	sel[2] = byte(v >> 8)
	sel[3] = byte(v)
	return sel, true
}

func (c *RPCClient) SubmitCommitment(ctx context.Context, poolKey domain.PoolKey, hash domain.CommitmentHash) (TxResult, error) {
	return c.sendTx(ctx, "hook_submitCommitment", poolKey, hash)
}

func (c *RPCClient) SubmitCommitmentWithProof(ctx context.Context, poolKey domain.PoolKey, hash domain.CommitmentHash, proof ZkProof) (TxResult, error) {
	return c.sendTx(ctx, "hook_submitCommitmentWithProof", poolKey, hash, proof)
}

func (c *RPCClient) SubmitReveal(ctx context.Context, poolKey domain.PoolKey, intent domain.SwapIntent) (TxResult, error) {
	return c.sendTx(ctx, "hook_submitReveal", poolKey, intent)
}

func (c *RPCClient) SubmitRevealForZK(ctx context.Context, poolKey domain.PoolKey, hash domain.CommitmentHash, intent domain.SwapIntent) (TxResult, error) {
	return c.sendTx(ctx, "hook_submitRevealForZK", poolKey, hash, intent)
}

func (c *RPCClient) RevealAndBatchExecute(ctx context.Context, poolKey domain.PoolKey, hashes []domain.CommitmentHash) (TxResult, error) {
	return c.sendTx(ctx, "hook_revealAndBatchExecute", poolKey, hashes)
}

func (c *RPCClient) RevealAndBatchExecuteWithProofs(ctx context.Context, poolKey domain.PoolKey, hashes []domain.CommitmentHash, proofs []ZkProof) (TxResult, error) {
	return c.sendTx(ctx, "hook_revealAndBatchExecuteWithProofs", poolKey, hashes, proofs)
}

func (c *RPCClient) sendTx(ctx context.Context, method string, params ...interface{}) (TxResult, error) {
	raw, err := c.call(ctx, method, params...)
	if err != nil {
		return TxResult{Success: false, Err: err}, err
	}
	var out struct {
		TxHash      string `json:"txHash"`
		BlockNumber uint64 `json:"blockNumber"`
		GasUsed     uint64 `json:"gasUsed"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return TxResult{Success: false}, domain.WrapError(domain.ErrRPCError, "malformed rpc result", err)
	}
	log.WithField("tx_hash", out.TxHash).Debugf("%s confirmed", method)
	return TxResult{TxHash: out.TxHash, Success: true, BlockNumber: out.BlockNumber, GasUsed: out.GasUsed}, nil
}

func (c *RPCClient) Checker(ctx context.Context, poolID [32]byte) (CheckerResult, error) {
	raw, err := c.call(ctx, "hook_checker", poolID)
	if err != nil {
		return CheckerResult{}, err
	}
	var out struct {
		CanExec     bool   `json:"canExec"`
		ExecPayload string `json:"execPayload"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return CheckerResult{}, domain.WrapError(domain.ErrRPCError, "malformed checker result", err)
	}
	return CheckerResult{CanExec: out.CanExec, ExecPayload: []byte(out.ExecPayload)}, nil
}

func (c *RPCClient) GetPendingCommitmentCount(ctx context.Context, poolID [32]byte) (uint32, error) {
	raw, err := c.call(ctx, "hook_getPendingCommitmentCount", poolID)
	if err != nil {
		return 0, err
	}
	var count uint32
	if err := json.Unmarshal(raw, &count); err != nil {
		return 0, domain.WrapError(domain.ErrRPCError, "malformed count result", err)
	}
	return count, nil
}

func (c *RPCClient) IsCommitmentVerified(ctx context.Context, hash domain.CommitmentHash) (bool, error) {
	raw, err := c.call(ctx, "hook_isCommitmentVerified", hash)
	if err != nil {
		return false, err
	}
	var verified bool
	if err := json.Unmarshal(raw, &verified); err != nil {
		return false, domain.WrapError(domain.ErrRPCError, "malformed verified result", err)
	}
	return verified, nil
}

func (c *RPCClient) GetMinCommitments(ctx context.Context) (uint32, error) {
	raw, err := c.call(ctx, "hook_getMinCommitments")
	if err != nil {
		return 0, err
	}
	var n uint32
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, domain.WrapError(domain.ErrRPCError, "malformed min commitments result", err)
	}
	return n, nil
}
