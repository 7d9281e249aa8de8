package callstack

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/amadimichael/evmsim/internal/simtypes"
	"github.com/amadimichael/evmsim/internal/wordcodec"
)

func addrWord(t *testing.T, addr common.Address) wordcodec.Word {
	t.Helper()
	w, err := wordcodec.FromHex(addr.Hex())
	if err != nil {
		t.Fatalf("FromHex: %v", err)
	}
	return w
}

func TestReduceTracksCallPushAndPop(t *testing.T) {
	to := common.HexToAddress("0x1111111111111111111111111111111111111111")
	callee := common.HexToAddress("0x2222222222222222222222222222222222222222")

	steps := []simtypes.StructStep{
		{
			Op:    "CALL",
			Depth: 1,
			Stack: []wordcodec.Word{addrWord(t, callee), {}}, // top (last) is gas; addr is second-from-top
		},
		{Op: "LOG3", Depth: 2, Stack: make([]wordcodec.Word, 5)},
		{Op: "RETURN", Depth: 2, Stack: []wordcodec.Word{{}, {}}},
	}

	emitted, err := Reduce(steps, to)
	if err != nil {
		t.Fatalf("Reduce: %v", err)
	}
	if len(emitted) != 1 {
		t.Fatalf("expected 1 emitted log, got %d", len(emitted))
	}
	if len(emitted[0].Stack) != 2 || emitted[0].Stack[1] != callee {
		t.Fatalf("expected address stack [to, callee], got %v", emitted[0].Stack)
	}
}

func TestReduceSkipsPrecompileFrame(t *testing.T) {
	to := common.HexToAddress("0x1111111111111111111111111111111111111111")
	precompile := common.HexToAddress("0x0000000000000000000000000000000000000001")

	steps := []simtypes.StructStep{
		{Op: "STATICCALL", Depth: 1, Stack: []wordcodec.Word{addrWord(t, precompile), {}}},
		{Op: "LOG3", Depth: 1, Stack: make([]wordcodec.Word, 5)},
	}

	emitted, err := Reduce(steps, to)
	if err != nil {
		t.Fatalf("Reduce: %v", err)
	}
	if len(emitted[0].Stack) != 1 {
		t.Fatalf("precompile call should not push a frame, got stack %v", emitted[0].Stack)
	}
}

func TestReduceDelegateCallLeavesStackUnchanged(t *testing.T) {
	to := common.HexToAddress("0x1111111111111111111111111111111111111111")

	steps := []simtypes.StructStep{
		{Op: "DELEGATECALL", Depth: 1, Stack: []wordcodec.Word{{}, {}}},
		{Op: "LOG3", Depth: 1, Stack: make([]wordcodec.Word, 5)},
	}

	emitted, err := Reduce(steps, to)
	if err != nil {
		t.Fatalf("Reduce: %v", err)
	}
	if len(emitted[0].Stack) != 1 || emitted[0].Stack[0] != to {
		t.Fatalf("expected stack to stay [to], got %v", emitted[0].Stack)
	}
}

func TestReduceCreatePushesSyntheticFrame(t *testing.T) {
	to := common.HexToAddress("0x1111111111111111111111111111111111111111")

	steps := []simtypes.StructStep{
		{Op: "CREATE", PC: 10, Depth: 1, Stack: nil},
		{Op: "LOG3", Depth: 2, Stack: make([]wordcodec.Word, 5)},
	}

	emitted, err := Reduce(steps, to)
	if err != nil {
		t.Fatalf("Reduce: %v", err)
	}
	if len(emitted[0].Stack) != 2 {
		t.Fatalf("expected CREATE to push a frame, got %v", emitted[0].Stack)
	}
	if emitted[0].Stack[1] == (common.Address{}) {
		t.Fatal("expected a non-zero synthetic address")
	}
}

func TestReduceRejectsMalformedCall(t *testing.T) {
	to := common.HexToAddress("0x1111111111111111111111111111111111111111")
	steps := []simtypes.StructStep{
		{Op: "CALL", Depth: 1, Stack: []wordcodec.Word{{}}}, // only 1 item, need 2
	}
	if _, err := Reduce(steps, to); err == nil {
		t.Fatal("expected error for malformed CALL frame")
	}
}

func TestReduceRejectsPopOnEmptyStack(t *testing.T) {
	to := common.HexToAddress("0x1111111111111111111111111111111111111111")
	steps := []simtypes.StructStep{
		{Op: "RETURN", Depth: 1, Stack: []wordcodec.Word{{}, {}}},
		{Op: "RETURN", Depth: 0, Stack: []wordcodec.Word{{}, {}}},
	}
	if _, err := Reduce(steps, to); err == nil {
		t.Fatal("expected error popping an already-empty stack")
	}
}

func TestSnapshotIsIndependent(t *testing.T) {
	s := Stack{common.HexToAddress("0x1")}
	snap := s.Snapshot()
	s[0] = common.HexToAddress("0x2")
	if snap[0] == s[0] {
		t.Fatal("snapshot should not observe later mutation of the live stack")
	}
}
