// Package signatures holds the static topic-0 event-signature table and the
// precompile-address exclusion set the call-stack reducer and classifier
// consult (C2 in the design).
package signatures

import "github.com/ethereum/go-ethereum/common"

// Recognized topic-0 hashes. These are the keccak256 hashes of the event
// signatures this engine understands; anything else is silently dropped by
// the orchestrator before it reaches the classifier (§4.6, §7 "Unknown
// topic-0").
var (
	Approval       = common.HexToHash("0x8c5be1e5ebec7d5bd14f71427d1e84f3dd0314c0f7b2291e5b200ac8c7c3b925")
	Transfer       = common.HexToHash("0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef")
	ApprovalForAll = common.HexToHash("0x17307eab39ab6107e8899845ad3d59bd9653f200f220920489ca2b5937696c31")
	TransferSingle = common.HexToHash("0xc3d58168c5ae7397731d063d5bbf3d657854427343f4c083240f7aacaa2d0f62")
	TransferBatch  = common.HexToHash("0x4a39dc06d4c0dbc64b70af90fd698a233a518aa5d07e595d983b8c0526c8f7fb")
)

var checkedTopics = map[common.Hash]bool{
	Approval:       true,
	Transfer:       true,
	ApprovalForAll: true,
	TransferSingle: true,
	TransferBatch:  true,
}

// IsChecked reports whether topic0 is one of the five event signatures this
// engine classifies. Anything else must be dropped before a metadata lookup
// is attempted (S3).
func IsChecked(topic0 common.Hash) bool {
	return checkedTopics[topic0]
}

// Precompiles are the addresses whose CALL/STATICCALL frames must not be
// pushed onto the address stack — they have no distinct EVM call frame for
// log-attribution purposes.
var Precompiles = map[common.Address]bool{
	common.HexToAddress("0x0000000000000000000000000000000000000001"): true, // ecrecover
	common.HexToAddress("0x0000000000000000000000000000000000000002"): true, // sha256
	common.HexToAddress("0x0000000000000000000000000000000000000003"): true, // ripemd160
	common.HexToAddress("0x0000000000000000000000000000000000000004"): true, // identity
	common.HexToAddress("0x0000000000000000000000000000000000000005"): true, // modexp
	common.HexToAddress("0x0000000000000000000000000000000000000006"): true, // ecAdd
	common.HexToAddress("0x0000000000000000000000000000000000000007"): true, // ecMul
	common.HexToAddress("0x0000000000000000000000000000000000000008"): true, // ecPairing
	common.HexToAddress("0x0000000000000000000000000000000000000009"): true, // blake2f
}

// IsPrecompile reports whether addr is in the precompile exclusion set.
func IsPrecompile(addr common.Address) bool {
	return Precompiles[addr]
}
