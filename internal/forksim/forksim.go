// Package forksim implements the fork-simulator path (A5): out of scope per
// spec.md §1, kept minimal and output-schema-compatible with the trace
// path. It impersonates the sender on a forked node (e.g. Anvil), submits
// the call as a real transaction, and classifies the resulting receipt's
// logs through the same C5/C6 used by the trace path — grounded on
// fork_simulator.rs, skipping C3/C4 entirely since a mined receipt already
// carries final logs.
package forksim

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/amadimichael/evmsim/internal/classifier"
	"github.com/amadimichael/evmsim/internal/rpcclient"
	"github.com/amadimichael/evmsim/internal/signatures"
	"github.com/amadimichael/evmsim/internal/simerrors"
	"github.com/amadimichael/evmsim/internal/simtypes"
	"github.com/amadimichael/evmsim/internal/tokenmeta"
)

// rpcCaller is the single method forksim needs from *rpc.Client: issuing a
// method with no typed ethclient binding (anvil_impersonateAccount,
// eth_sendTransaction). Narrowed to an interface so tests can substitute a
// fake node without a real RPC connection.
type rpcCaller interface {
	CallContext(ctx context.Context, result interface{}, method string, args ...interface{}) error
}

// receiptFetcher is the single method forksim needs from *ethclient.Client.
type receiptFetcher interface {
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// Simulator submits the call as a real, mined transaction against an
// impersonation-capable node and classifies the receipt's logs.
type Simulator struct {
	rpc      rpcCaller
	eth      receiptFetcher
	resolver *tokenmeta.Resolver

	// PollInterval controls how often the receipt is polled for; defaults
	// to 500ms when zero.
	PollInterval time.Duration
}

// New builds a fork-mode Simulator over client, reusing the same metadata
// resolver the trace path uses so results converge on identical TokenInfo.
func New(client *rpcclient.Client, resolver *tokenmeta.Resolver) *Simulator {
	return NewWithBackend(client.RPC(), client.Eth(), resolver)
}

// NewWithBackend builds a fork-mode Simulator over narrower rpc/receipt
// interfaces, letting tests substitute a fake impersonation-capable node.
func NewWithBackend(rpc rpcCaller, eth receiptFetcher, resolver *tokenmeta.Resolver) *Simulator {
	return &Simulator{rpc: rpc, eth: eth, resolver: resolver}
}

// Simulate impersonates params.From, sends the call as a transaction, waits
// for the receipt, and classifies its logs (§1's "alternative fork
// simulator", §4.11). Fatal on RPC/transaction failure.
func (s *Simulator) Simulate(ctx context.Context, params *simtypes.SimulationParams) ([]simtypes.SimulationResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if params == nil {
		return nil, fmt.Errorf("%w: nil simulation params", simerrors.ErrInputMalformed)
	}

	if err := s.rpc.CallContext(ctx, nil, "anvil_impersonateAccount", params.From); err != nil {
		return nil, fmt.Errorf("%w: anvil_impersonateAccount: %v", simerrors.ErrRPCFailure, err)
	}

	callObj := map[string]interface{}{
		"from": params.From,
		"to":   params.To,
		"data": hexutil.Bytes(params.Data),
	}
	if params.Value != nil && !params.Value.IsZero() {
		callObj["value"] = (*hexutil.Big)(params.Value.ToBig())
	}

	var txHash common.Hash
	if err := s.rpc.CallContext(ctx, &txHash, "eth_sendTransaction", callObj); err != nil {
		return nil, fmt.Errorf("%w: eth_sendTransaction: %v", simerrors.ErrRPCFailure, err)
	}

	receipt, err := s.awaitReceipt(ctx, txHash)
	if err != nil {
		return nil, err
	}

	results := make([]simtypes.SimulationResult, 0, len(receipt.Logs))
	for _, l := range receipt.Logs {
		raw := simtypes.RawLog{Address: l.Address, Topics: l.Topics, Data: l.Data}

		if len(raw.Topics) == 0 || !signatures.IsChecked(raw.Topics[0]) {
			continue
		}

		decoded, err := classifier.Phase1(raw)
		if err != nil {
			return nil, fmt.Errorf("classify (phase 1): %w", err)
		}

		info := s.resolver.Resolve(ctx, raw.Address, decoded.Standard)

		mapped, err := classifier.Phase2(raw, info, decoded)
		if err != nil {
			return nil, fmt.Errorf("classify (phase 2): %w", err)
		}

		results = append(results, mapped...)
	}

	if err := s.rpc.CallContext(ctx, nil, "anvil_stopImpersonatingAccount", params.From); err != nil {
		return nil, fmt.Errorf("%w: anvil_stopImpersonatingAccount: %v", simerrors.ErrRPCFailure, err)
	}

	return results, nil
}

func (s *Simulator) awaitReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	interval := s.PollInterval
	if interval == 0 {
		interval = 500 * time.Millisecond
	}

	for {
		receipt, err := s.eth.TransactionReceipt(ctx, txHash)
		if err == nil {
			return receipt, nil
		}
		if err != ethereum.NotFound {
			return nil, fmt.Errorf("%w: transaction receipt: %v", simerrors.ErrRPCFailure, err)
		}

		select {
		case <-time.After(interval):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}
