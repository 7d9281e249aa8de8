// Package logextract implements the log-record extractor (C4): given a
// LOG3/LOG4 step and the address-stack snapshot captured for it, it
// reconstructs the {address, topics, data} RawLog by reading the step's
// stack and memory exactly as the EVM would have at that instruction.
package logextract

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/amadimichael/evmsim/internal/callstack"
	"github.com/amadimichael/evmsim/internal/simerrors"
	"github.com/amadimichael/evmsim/internal/simtypes"
	"github.com/amadimichael/evmsim/internal/wordcodec"
)

// Extract converts every Emitted LOG3/LOG4 step into a RawLog, in trace
// order (§4.4). It fails fast on the first malformed step: a LOG opcode
// whose declared data range falls outside the captured memory, or whose
// attributed depth exceeds the snapshotted address stack.
func Extract(emitted []callstack.Emitted) ([]simtypes.RawLog, error) {
	logs := make([]simtypes.RawLog, 0, len(emitted))
	for _, e := range emitted {
		log, err := extractOne(e)
		if err != nil {
			return nil, err
		}
		logs = append(logs, log)
	}
	return logs, nil
}

func extractOne(e callstack.Emitted) (simtypes.RawLog, error) {
	step := e.Step
	stack := step.Stack
	n := len(stack)

	if step.Depth < 1 || step.Depth > len(e.Stack) {
		return simtypes.RawLog{}, fmt.Errorf("%w: %s at pc %d has depth %d but address stack has %d frames",
			simerrors.ErrTraceMalformed, step.Op, step.PC, step.Depth, len(e.Stack))
	}
	address := e.Stack[step.Depth-1]

	memOffset := stack[n-1].Uint256()
	dataLen := stack[n-2].Uint256()
	if !memOffset.IsUint64() || !dataLen.IsUint64() {
		return simtypes.RawLog{}, fmt.Errorf("%w: %s at pc %d has a memory offset/length too large to address",
			simerrors.ErrTraceMalformed, step.Op, step.PC)
	}

	data, err := readMemory(step.Memory, memOffset.Uint64(), dataLen.Uint64())
	if err != nil {
		return simtypes.RawLog{}, fmt.Errorf("%w: %s at pc %d: %v", simerrors.ErrTraceMalformed, step.Op, step.PC, err)
	}

	numTopics := 3
	if step.Op == "LOG4" {
		numTopics = 4
	}
	topics := make([]common.Hash, numTopics)
	// topic-0 is stack[n-3], topic-1 is stack[n-4], ... (§4.4).
	for i := 0; i < numTopics; i++ {
		topics[i] = stack[n-3-i].Hash()
	}

	return simtypes.RawLog{
		Address: address,
		Topics:  topics,
		Data:    data,
	}, nil
}

// readMemory reads dataLen bytes starting at byte offset memOffset from the
// flattened memory word sequence (§4.4). A zero length yields an empty
// slice; otherwise the covering words are concatenated and sliced, one path
// for aligned and unaligned offsets and lengths alike.
func readMemory(mem []wordcodec.Word, memOffset, dataLen uint64) ([]byte, error) {
	if dataLen == 0 {
		return []byte{}, nil
	}

	wordIndex := memOffset / 32
	byteOffset := memOffset % 32
	wordsNeeded := (byteOffset + dataLen + 31) / 32

	if wordIndex+wordsNeeded > uint64(len(mem)) {
		return nil, fmt.Errorf("memory access [%d:%d) exceeds captured memory of %d words",
			memOffset, memOffset+dataLen, len(mem))
	}

	flat := make([]byte, 0, wordsNeeded*32)
	for i := uint64(0); i < wordsNeeded; i++ {
		flat = append(flat, mem[wordIndex+i].Bytes()...)
	}

	return flat[byteOffset : byteOffset+dataLen], nil
}
