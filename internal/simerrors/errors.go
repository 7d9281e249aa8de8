// Package simerrors holds the sentinel errors the simulator's components
// wrap with context as they propagate up to the orchestrator.
package simerrors

import "errors"

var (
	// ErrInputMalformed marks a SimulationParams or RPC-interface input that
	// failed validation before any network call was made.
	ErrInputMalformed = errors.New("input malformed")

	// ErrTraceMalformed marks a struct-log trace missing fields this engine
	// requires (stack, memory, or enough stack depth for the opcode).
	ErrTraceMalformed = errors.New("trace malformed")

	// ErrRPCFailure marks a failure from the trace or transaction-submission RPC.
	ErrRPCFailure = errors.New("rpc failure")

	// ErrABIDecode marks a fixed-shape log payload that did not decode as expected.
	ErrABIDecode = errors.New("abi decode failed")
)
