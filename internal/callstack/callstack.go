// Package callstack implements the call-stack reducer (C3): a single
// streaming pass over a struct-log trace that maintains the logical address
// stack and snapshots it for every LOG3/LOG4 step so the log extractor can
// attribute each log to the contract that was actually executing.
package callstack

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/amadimichael/evmsim/internal/signatures"
	"github.com/amadimichael/evmsim/internal/simerrors"
	"github.com/amadimichael/evmsim/internal/simtypes"
)

// Stack is an ordered sequence of addresses; the bottom is the transaction's
// immediate "to" and the top is whichever contract is currently executing.
// It is a value-typed sequence: Snapshot returns an independent copy so a
// later push/pop on the live stack cannot retroactively change a log's
// attributed address.
type Stack []common.Address

// Snapshot returns an independent copy of s.
func (s Stack) Snapshot() Stack {
	out := make(Stack, len(s))
	copy(out, s)
	return out
}

// Emitted is a LOG3/LOG4 step paired with the address-stack snapshot taken
// at the moment it executed.
type Emitted struct {
	Step  simtypes.StructStep
	Stack Stack
}

// Reduce folds steps through the address-stack state machine and returns,
// in trace order, every LOG3/LOG4 step along with the stack snapshot needed
// to attribute it (§4.3). to is the transaction's immediate callee and seeds
// the stack.
func Reduce(steps []simtypes.StructStep, to common.Address) ([]Emitted, error) {
	stack := Stack{to}
	var emitted []Emitted

	for _, step := range steps {
		switch step.Op {
		case "CALL", "STATICCALL":
			if len(step.Stack) < 2 {
				return nil, fmt.Errorf("%w: %s at pc %d has fewer than 2 stack items", simerrors.ErrTraceMalformed, step.Op, step.PC)
			}
			callee := step.Stack[len(step.Stack)-2].Address()
			if !signatures.IsPrecompile(callee) {
				stack = append(stack, callee)
			}

		case "DELEGATECALL", "CALLCODE":
			// Executing address is unchanged: the callee runs with the
			// caller's storage/identity, so no new frame is pushed (§4.3,
			// §9 resolves this explicitly rather than leaving it ambiguous).

		case "CREATE", "CREATE2":
			stack = append(stack, syntheticContractAddress(step.PC, step.Depth))

		case "RETURN", "REVERT", "STOP":
			if len(stack) == 0 {
				return nil, fmt.Errorf("%w: %s at pc %d with empty address stack", simerrors.ErrTraceMalformed, step.Op, step.PC)
			}
			stack = stack[:len(stack)-1]

		case "LOG3":
			if len(step.Stack) < 5 {
				return nil, fmt.Errorf("%w: LOG3 at pc %d has fewer than 5 stack items", simerrors.ErrTraceMalformed, step.PC)
			}
			emitted = append(emitted, Emitted{Step: step, Stack: stack.Snapshot()})

		case "LOG4":
			if len(step.Stack) < 6 {
				return nil, fmt.Errorf("%w: LOG4 at pc %d has fewer than 6 stack items", simerrors.ErrTraceMalformed, step.PC)
			}
			emitted = append(emitted, Emitted{Step: step, Stack: stack.Snapshot()})
		}
	}

	return emitted, nil
}

// syntheticContractAddress derives a deterministic placeholder for a
// CREATE/CREATE2 frame. A struct-log trace carries neither the creator's
// nonce nor the init-code hash at the point CREATE executes, so the real
// EIP-161/EIP-1014 contract address cannot be derived here. The placeholder
// is derived from pc and depth only, so two CREATEs at the same pc and depth
// get the same address; depth accounting only needs a frame pushed (§9 open
// question).
func syntheticContractAddress(pc uint64, depth int) common.Address {
	var seed [16]byte
	binary.BigEndian.PutUint64(seed[:8], pc)
	binary.BigEndian.PutUint64(seed[8:], uint64(depth))
	sum := sha256.Sum256(seed[:])
	var addr common.Address
	copy(addr[:], sum[:20])
	return addr
}
