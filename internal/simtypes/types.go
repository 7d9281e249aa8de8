// Package simtypes holds the data model shared across the simulator's
// components: the input execution trace, the address stack, reconstructed
// logs, resolved token metadata, and the classified simulation results.
package simtypes

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/amadimichael/evmsim/internal/simerrors"
	"github.com/amadimichael/evmsim/internal/wordcodec"
)

// StructStep is one executed opcode within a debug_traceCall-style trace.
// Stack is ordered with the top of stack last; Memory is the ordered
// sequence of already-decoded 32-byte words backing the step's memory view.
type StructStep struct {
	PC     uint64
	Op     string
	Depth  int
	Stack  []wordcodec.Word
	Memory []wordcodec.Word
}

// Standard is one of the token interface conventions this engine recognizes.
type Standard int

const (
	StandardNone Standard = iota
	StandardEip20
	StandardEip721
	StandardEip1155
)

func (s Standard) String() string {
	switch s {
	case StandardEip20:
		return "EIP-20"
	case StandardEip721:
		return "EIP-721"
	case StandardEip1155:
		return "EIP-1155"
	default:
		return "none"
	}
}

// Operation is the typed event variant the classifier assigns to a log.
type Operation int

const (
	OperationApproval Operation = iota
	OperationTransfer
	OperationApprovalForAll
	OperationTransferSingle
	OperationTransferBatch
)

func (o Operation) String() string {
	switch o {
	case OperationApproval:
		return "Approval"
	case OperationTransfer:
		return "Transfer"
	case OperationApprovalForAll:
		return "ApprovalForAll"
	case OperationTransferSingle:
		return "TransferSingle"
	case OperationTransferBatch:
		return "TransferBatch"
	default:
		return "Unknown"
	}
}

// RawLog is the {address, topics, data} tuple reconstructed from a LOG3/LOG4
// step's stack and memory, before classification. Immutable after creation.
type RawLog struct {
	Address common.Address
	Topics  []common.Hash
	Data    []byte
}

// TokenInfo describes the on-chain metadata resolved for the contract that
// emitted a log, defaulted to empty/zero whenever the on-chain read fails.
type TokenInfo struct {
	Standard Standard
	Address  common.Address
	Name     string
	Symbol   string
	Decimals *uint256.Int
}

// SimulationResult is one classified, metadata-enriched log entry. ID is nil
// unless the operation is TransferSingle/TransferBatch or the log was
// classified as an ERC-721 single transfer.
type SimulationResult struct {
	Operation Operation
	TokenInfo TokenInfo
	From      common.Address
	To        common.Address
	ID        *uint256.Int
	Amount    *uint256.Int
}

// BlockRef selects the block a simulation is evaluated against.
type BlockRef struct {
	latest bool
	number uint64
}

// LatestBlock requests the chain's current head.
var LatestBlock = BlockRef{latest: true}

// PastBlock requests a specific historical block height.
func PastBlock(height uint64) BlockRef {
	return BlockRef{number: height}
}

// IsLatest reports whether the reference is to the chain head.
func (b BlockRef) IsLatest() bool { return b.latest }

// Number returns the requested height; only meaningful when !IsLatest().
func (b BlockRef) Number() uint64 { return b.number }

// SimulationParams is the validated, read-only input to the orchestrator.
// It is constructed once from CLI-layer arguments and never mutated.
type SimulationParams struct {
	From    common.Address
	To      common.Address
	Data    []byte
	Value   *uint256.Int
	Block   BlockRef
	RPCURL  string
	Persist bool
}

// NewSimulationParams validates raw CLI-layer strings into a SimulationParams.
// Any malformed field returns an ErrInputMalformed-wrapped error and performs
// no RPC call (S6). rpcURL may be empty, in which case the caller is expected
// to fall back to the RPC_URL environment variable.
func NewSimulationParams(fromHex, toHex, dataHex, valueEther, blockStr, rpcURL string, persist bool) (*SimulationParams, error) {
	if !common.IsHexAddress(fromHex) {
		return nil, fmt.Errorf("%w: invalid 'from' address %q", simerrors.ErrInputMalformed, fromHex)
	}
	if !common.IsHexAddress(toHex) {
		return nil, fmt.Errorf("%w: invalid 'to' address %q", simerrors.ErrInputMalformed, toHex)
	}

	data, err := decodeData(dataHex)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid input data %q: %v", simerrors.ErrInputMalformed, dataHex, err)
	}

	value, err := parseEther(valueEther)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid ether value %q: %v", simerrors.ErrInputMalformed, valueEther, err)
	}

	block, err := parseBlock(blockStr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", simerrors.ErrInputMalformed, err)
	}

	return &SimulationParams{
		From:    common.HexToAddress(fromHex),
		To:      common.HexToAddress(toHex),
		Data:    data,
		Value:   value,
		Block:   block,
		RPCURL:  rpcURL,
		Persist: persist,
	}, nil
}

func decodeData(s string) ([]byte, error) {
	if s == "" {
		return []byte{}, nil
	}
	h := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(h)%2 == 1 {
		h = "0" + h
	}
	return hex.DecodeString(h)
}

func parseEther(s string) (*uint256.Int, error) {
	if s == "" {
		return uint256.NewInt(0), nil
	}
	wei, err := etherStringToWei(s)
	if err != nil {
		return nil, err
	}
	u, overflow := uint256.FromBig(wei)
	if overflow {
		return nil, fmt.Errorf("ether value %q overflows uint256", s)
	}
	return u, nil
}

// etherStringToWei converts a decimal ether amount (e.g. "1.5") to wei,
// matching ethers.js/ethers-rs's parse_ether semantics without pulling in a
// floating-point intermediate (which would lose precision on large values).
func etherStringToWei(s string) (*big.Int, error) {
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	parts := strings.SplitN(s, ".", 2)
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	if len(fracPart) > 18 {
		return nil, fmt.Errorf("at most 18 decimal places are supported")
	}
	fracPart += strings.Repeat("0", 18-len(fracPart))

	wei, ok := new(big.Int).SetString(intPart+fracPart, 10)
	if !ok {
		return nil, fmt.Errorf("not a valid decimal number")
	}
	if neg {
		wei.Neg(wei)
	}
	return wei, nil
}

func parseBlock(s string) (BlockRef, error) {
	if s == "" {
		return LatestBlock, nil
	}
	var height uint64
	if _, err := fmt.Sscanf(s, "%d", &height); err != nil {
		return BlockRef{}, fmt.Errorf("block number %q is not a valid number: %w", s, err)
	}
	return PastBlock(height), nil
}
