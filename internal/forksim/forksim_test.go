package forksim

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/amadimichael/evmsim/internal/signatures"
	"github.com/amadimichael/evmsim/internal/simtypes"
	"github.com/amadimichael/evmsim/internal/tokenmeta"
)

var fakeTxHash = common.HexToHash("0xbeef")

type fakeRPC struct {
	impersonateErr     error
	sendErr            error
	stopImpersonateErr error

	stopImpersonateCalls int
}

func (f *fakeRPC) CallContext(ctx context.Context, result interface{}, method string, args ...interface{}) error {
	switch method {
	case "anvil_impersonateAccount":
		return f.impersonateErr
	case "eth_sendTransaction":
		if f.sendErr != nil {
			return f.sendErr
		}
		if hashPtr, ok := result.(*common.Hash); ok {
			*hashPtr = fakeTxHash
		}
		return nil
	case "anvil_stopImpersonatingAccount":
		f.stopImpersonateCalls++
		return f.stopImpersonateErr
	default:
		return errors.New("unexpected method " + method)
	}
}

type fakeReceiptFetcher struct {
	notFoundCount int
	calls         int
	receipt       *types.Receipt
	err           error
}

func (f *fakeReceiptFetcher) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	f.calls++
	if f.calls <= f.notFoundCount {
		return nil, ethereum.NotFound
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.receipt, nil
}

// failingCaller always fails contract reads, degrading resolved metadata to
// its documented defaults (§4.5) without a real ABI-encoded fixture.
type failingCaller struct{}

func (failingCaller) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	return nil, errors.New("no node available")
}

func (failingCaller) CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error) {
	return nil, errors.New("no node available")
}

func validParams(t *testing.T) *simtypes.SimulationParams {
	t.Helper()
	p, err := simtypes.NewSimulationParams(
		"0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
		"0x1111111111111111111111111111111111111111",
		"", "0", "", "http://localhost:8545", true,
	)
	if err != nil {
		t.Fatalf("NewSimulationParams: %v", err)
	}
	return p
}

func TestSimulateClassifiesReceiptLogs(t *testing.T) {
	token := common.HexToAddress("0x1111111111111111111111111111111111111111")
	from := common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	to := common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")

	var fromTopic, toTopic common.Hash
	copy(fromTopic[12:], from[:])
	copy(toTopic[12:], to[:])

	var amount common.Hash
	amount[31] = 42

	log := &types.Log{
		Address: token,
		Topics:  []common.Hash{signatures.Transfer, fromTopic, toTopic},
		Data:    amount[:],
	}

	rpc := &fakeRPC{}
	eth := &fakeReceiptFetcher{receipt: &types.Receipt{Logs: []*types.Log{log}}}
	resolver := tokenmeta.New(failingCaller{})
	sim := NewWithBackend(rpc, eth, resolver)
	sim.PollInterval = 0

	results, err := sim.Simulate(context.Background(), validParams(t))
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Operation != simtypes.OperationTransfer {
		t.Errorf("operation = %v, want Transfer", results[0].Operation)
	}
	if results[0].From != from || results[0].To != to {
		t.Errorf("from/to = %s/%s, want %s/%s", results[0].From, results[0].To, from, to)
	}
	if results[0].Amount.Uint64() != 42 {
		t.Errorf("amount = %v, want 42", results[0].Amount)
	}
	if rpc.stopImpersonateCalls != 1 {
		t.Errorf("stopImpersonateCalls = %d, want 1", rpc.stopImpersonateCalls)
	}
}

func TestSimulatePollsUntilReceiptFound(t *testing.T) {
	rpc := &fakeRPC{}
	eth := &fakeReceiptFetcher{notFoundCount: 2, receipt: &types.Receipt{}}
	resolver := tokenmeta.New(failingCaller{})
	sim := NewWithBackend(rpc, eth, resolver)
	sim.PollInterval = 1

	results, err := sim.Simulate(context.Background(), validParams(t))
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected no logs, got %d", len(results))
	}
	if eth.calls != 3 {
		t.Fatalf("calls = %d, want 3 (2 not-found + 1 success)", eth.calls)
	}
}

func TestSimulatePropagatesImpersonationFailure(t *testing.T) {
	rpc := &fakeRPC{impersonateErr: errors.New("impersonation disabled")}
	eth := &fakeReceiptFetcher{}
	resolver := tokenmeta.New(failingCaller{})
	sim := NewWithBackend(rpc, eth, resolver)

	if _, err := sim.Simulate(context.Background(), validParams(t)); err == nil {
		t.Fatal("expected impersonation failure to propagate")
	}
}

func TestSimulatePropagatesStopImpersonationFailure(t *testing.T) {
	rpc := &fakeRPC{stopImpersonateErr: errors.New("stop-impersonate disabled")}
	eth := &fakeReceiptFetcher{receipt: &types.Receipt{}}
	resolver := tokenmeta.New(failingCaller{})
	sim := NewWithBackend(rpc, eth, resolver)

	if _, err := sim.Simulate(context.Background(), validParams(t)); err == nil {
		t.Fatal("expected stop-impersonate failure to propagate")
	}
}

func TestSimulateRejectsNilParams(t *testing.T) {
	sim := NewWithBackend(&fakeRPC{}, &fakeReceiptFetcher{}, tokenmeta.New(failingCaller{}))
	if _, err := sim.Simulate(context.Background(), nil); err == nil {
		t.Fatal("expected nil params to be rejected before issuing any RPC call")
	}
}
