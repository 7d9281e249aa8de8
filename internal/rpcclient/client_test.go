package rpcclient

import (
	"testing"

	"github.com/amadimichael/evmsim/internal/simtypes"
)

func TestBlockTagLatest(t *testing.T) {
	if got := blockTag(simtypes.LatestBlock); got != "latest" {
		t.Fatalf("got %q, want latest", got)
	}
}

func TestBlockTagPastBlock(t *testing.T) {
	if got := blockTag(simtypes.PastBlock(18000000)); got != "0x112a880" {
		t.Fatalf("got %q, want 0x112a880", got)
	}
}

func TestDecodeWords(t *testing.T) {
	words, err := decodeWords([]string{"0x1", "0xff"})
	if err != nil {
		t.Fatalf("decodeWords: %v", err)
	}
	if len(words) != 2 {
		t.Fatalf("len(words) = %d, want 2", len(words))
	}
	if words[0].Uint256().Uint64() != 1 {
		t.Errorf("words[0] = %v, want 1", words[0])
	}
	if words[1].Uint256().Uint64() != 0xff {
		t.Errorf("words[1] = %v, want 255", words[1])
	}
}

func TestDecodeWordsRejectsMalformedHex(t *testing.T) {
	if _, err := decodeWords([]string{"not-hex"}); err == nil {
		t.Fatal("expected error for malformed hex word")
	}
}

func TestDecodeSteps(t *testing.T) {
	raw := []rawStructLog{
		{Pc: 10, Op: "PUSH1", Depth: 1, Stack: []string{"0x1"}, Memory: nil},
		{Pc: 11, Op: "LOG3", Depth: 1, Stack: []string{"0x1", "0x2", "0x3", "0x4", "0x5"}, Memory: []string{"0x0"}},
	}
	steps, err := decodeSteps(raw)
	if err != nil {
		t.Fatalf("decodeSteps: %v", err)
	}
	if len(steps) != 2 {
		t.Fatalf("len(steps) = %d, want 2", len(steps))
	}
	if steps[1].Op != "LOG3" || len(steps[1].Stack) != 5 {
		t.Fatalf("got %+v", steps[1])
	}
}

func TestDecodeStepsRejectsMalformedStack(t *testing.T) {
	raw := []rawStructLog{
		{Pc: 1, Op: "PUSH1", Depth: 1, Stack: []string{"zzzz"}},
	}
	if _, err := decodeSteps(raw); err == nil {
		t.Fatal("expected error for malformed stack hex")
	}
}
