// Package classifier implements the log classifier (C6): a two-phase
// rule-based decoder that infers a token standard and decodes amounts from
// topic-0/data shape alone (phase 1), then — once the caller has resolved
// token metadata for the suspected standard — maps topics to typed
// SimulationResult fields (phase 2).
package classifier

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/amadimichael/evmsim/internal/signatures"
	"github.com/amadimichael/evmsim/internal/simerrors"
	"github.com/amadimichael/evmsim/internal/simtypes"
	"github.com/amadimichael/evmsim/internal/wordcodec"
)

// Decoded is phase 1's output: enough to pick a metadata-resolution strategy
// (C5) and, after that, to finish field mapping in Phase2.
type Decoded struct {
	Operation simtypes.Operation
	Standard  simtypes.Standard

	// ID/Amount hold the single-pair case (everything except TransferBatch).
	ID     *uint256.Int
	Amount *uint256.Int

	// BatchIDs/BatchAmounts hold the TransferBatch case: one SimulationResult
	// is produced per index, per §9's resolution of the fan-out question.
	BatchIDs     []*uint256.Int
	BatchAmounts []*uint256.Int
}

// Phase1 infers the suspected standard and decodes the log's unindexed data
// from topic-0 and data-length shape alone (§4.6 phase 1). An unrecognized
// topic-0 is the caller's responsibility to filter before calling Phase1
// (signatures.IsChecked) — Phase1 assumes topic-0 is one of the five known
// signatures and treats any other shape mismatch as a fatal ABI decode error,
// since it indicates a signature collision with a non-standard layout.
func Phase1(log simtypes.RawLog) (Decoded, error) {
	if len(log.Topics) == 0 {
		return Decoded{}, fmt.Errorf("%w: log at %s has no topics", simerrors.ErrTraceMalformed, log.Address)
	}
	topic0 := log.Topics[0]

	switch topic0 {
	case signatures.TransferSingle:
		return decodeTransferSingle(log)
	case signatures.TransferBatch:
		return decodeTransferBatch(log)
	case signatures.ApprovalForAll:
		return decodeApprovalForAll(log)
	case signatures.Approval:
		return decodeApprovalOrTransfer(log, simtypes.OperationApproval)
	case signatures.Transfer:
		return decodeApprovalOrTransfer(log, simtypes.OperationTransfer)
	default:
		return Decoded{}, fmt.Errorf("%w: topic0 %s is not a recognized event signature", simerrors.ErrABIDecode, topic0)
	}
}

func decodeApprovalOrTransfer(log simtypes.RawLog, op simtypes.Operation) (Decoded, error) {
	switch {
	case len(log.Data) == 32:
		amount, err := wordcodec.DecodeUint256(log.Data, 0)
		if err != nil {
			return Decoded{}, err
		}
		return Decoded{Operation: op, Standard: simtypes.StandardEip20, Amount: amount}, nil

	case len(log.Data) == 0 && len(log.Topics) == 4:
		id := new(uint256.Int).SetBytes(log.Topics[3][:])
		return Decoded{Operation: op, Standard: simtypes.StandardEip721, ID: id, Amount: uint256.NewInt(1)}, nil

	default:
		return Decoded{}, fmt.Errorf("%w: %s log has data length %d with %d topics, expected a 32-byte amount (LOG3) or empty data with 4 topics (LOG4)",
			simerrors.ErrABIDecode, op, len(log.Data), len(log.Topics))
	}
}

func decodeApprovalForAll(log simtypes.RawLog) (Decoded, error) {
	if len(log.Data) != 32 {
		return Decoded{}, fmt.Errorf("%w: ApprovalForAll log has data length %d, expected 32", simerrors.ErrABIDecode, len(log.Data))
	}
	amount, err := wordcodec.DecodeUint256(log.Data, 0)
	if err != nil {
		return Decoded{}, err
	}
	return Decoded{Operation: simtypes.OperationApprovalForAll, Standard: simtypes.StandardEip721, Amount: amount}, nil
}

func decodeTransferSingle(log simtypes.RawLog) (Decoded, error) {
	if len(log.Data) != 64 {
		return Decoded{}, fmt.Errorf("%w: TransferSingle log has data length %d, expected 64", simerrors.ErrABIDecode, len(log.Data))
	}
	id, err := wordcodec.DecodeUint256(log.Data, 0)
	if err != nil {
		return Decoded{}, err
	}
	amount, err := wordcodec.DecodeUint256(log.Data, 32)
	if err != nil {
		return Decoded{}, err
	}
	return Decoded{Operation: simtypes.OperationTransferSingle, Standard: simtypes.StandardEip1155, ID: id, Amount: amount}, nil
}

func decodeTransferBatch(log simtypes.RawLog) (Decoded, error) {
	if len(log.Data) <= 64 {
		return Decoded{}, fmt.Errorf("%w: TransferBatch log has data length %d, expected more than 64 (two dynamic arrays)", simerrors.ErrABIDecode, len(log.Data))
	}

	idsOffset, err := wordcodec.DecodeUint256(log.Data, 0)
	if err != nil {
		return Decoded{}, err
	}
	amountsOffset, err := wordcodec.DecodeUint256(log.Data, 32)
	if err != nil {
		return Decoded{}, err
	}
	if !idsOffset.IsUint64() || !amountsOffset.IsUint64() {
		return Decoded{}, fmt.Errorf("%w: TransferBatch array offsets too large", simerrors.ErrABIDecode)
	}

	ids, err := decodeUint256Array(log.Data, int(idsOffset.Uint64()))
	if err != nil {
		return Decoded{}, fmt.Errorf("%w: decoding TransferBatch ids: %v", simerrors.ErrABIDecode, err)
	}
	amounts, err := decodeUint256Array(log.Data, int(amountsOffset.Uint64()))
	if err != nil {
		return Decoded{}, fmt.Errorf("%w: decoding TransferBatch values: %v", simerrors.ErrABIDecode, err)
	}
	if len(ids) != len(amounts) {
		return Decoded{}, fmt.Errorf("%w: TransferBatch ids/values length mismatch (%d vs %d)", simerrors.ErrABIDecode, len(ids), len(amounts))
	}

	return Decoded{
		Operation:    simtypes.OperationTransferBatch,
		Standard:     simtypes.StandardEip1155,
		BatchIDs:     ids,
		BatchAmounts: amounts,
	}, nil
}

// decodeUint256Array reads a standard ABI-encoded dynamic uint256[] located
// at byte offset `at` within data: a 32-byte length word followed by that
// many 32-byte elements.
func decodeUint256Array(data []byte, at int) ([]*uint256.Int, error) {
	length, err := wordcodec.DecodeUint256(data, at)
	if err != nil {
		return nil, err
	}
	if !length.IsUint64() {
		return nil, fmt.Errorf("array length too large")
	}
	n := int(length.Uint64())

	out := make([]*uint256.Int, 0, n)
	for i := 0; i < n; i++ {
		elem, err := wordcodec.DecodeUint256(data, at+32+i*32)
		if err != nil {
			return nil, err
		}
		out = append(out, elem)
	}
	return out, nil
}

// Phase2 maps topics to the final {from, to} fields now that the suspected
// standard has been confirmed and metadata resolved (§4.6 phase 2), and
// assembles the final SimulationResult(s). TransferBatch yields one result
// per (id, amount) pair; every other operation yields exactly one.
func Phase2(log simtypes.RawLog, info simtypes.TokenInfo, d Decoded) ([]simtypes.SimulationResult, error) {
	switch d.Operation {
	case simtypes.OperationApproval, simtypes.OperationTransfer:
		if len(log.Topics) < 3 {
			return nil, fmt.Errorf("%w: %s log has %d topics, expected at least 3", simerrors.ErrTraceMalformed, d.Operation, len(log.Topics))
		}
		return []simtypes.SimulationResult{{
			Operation: d.Operation,
			TokenInfo: info,
			From:      topicAddress(log.Topics[1]),
			To:        topicAddress(log.Topics[2]),
			ID:        d.ID,
			Amount:    d.Amount,
		}}, nil

	case simtypes.OperationApprovalForAll:
		if len(log.Topics) < 3 {
			return nil, fmt.Errorf("%w: ApprovalForAll log has %d topics, expected at least 3", simerrors.ErrTraceMalformed, len(log.Topics))
		}
		return []simtypes.SimulationResult{{
			Operation: d.Operation,
			TokenInfo: info,
			From:      topicAddress(log.Topics[1]), // owner
			To:        topicAddress(log.Topics[2]), // operator
			Amount:    d.Amount,
		}}, nil

	case simtypes.OperationTransferSingle:
		if len(log.Topics) < 4 {
			return nil, fmt.Errorf("%w: TransferSingle log has %d topics, expected at least 4", simerrors.ErrTraceMalformed, len(log.Topics))
		}
		return []simtypes.SimulationResult{{
			Operation: d.Operation,
			TokenInfo: info,
			From:      topicAddress(log.Topics[2]),
			To:        topicAddress(log.Topics[3]),
			ID:        d.ID,
			Amount:    d.Amount,
		}}, nil

	case simtypes.OperationTransferBatch:
		if len(log.Topics) < 4 {
			return nil, fmt.Errorf("%w: TransferBatch log has %d topics, expected at least 4", simerrors.ErrTraceMalformed, len(log.Topics))
		}
		from := topicAddress(log.Topics[2])
		to := topicAddress(log.Topics[3])
		results := make([]simtypes.SimulationResult, len(d.BatchIDs))
		for i := range d.BatchIDs {
			results[i] = simtypes.SimulationResult{
				Operation: d.Operation,
				TokenInfo: info,
				From:      from,
				To:        to,
				ID:        d.BatchIDs[i],
				Amount:    d.BatchAmounts[i],
			}
		}
		return results, nil

	default:
		return nil, fmt.Errorf("%w: unhandled operation %v", simerrors.ErrABIDecode, d.Operation)
	}
}

func topicAddress(h common.Hash) common.Address {
	var a common.Address
	copy(a[:], h[12:])
	return a
}
