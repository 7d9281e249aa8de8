package present

import (
	"bytes"
	"strings"
	"testing"

	"github.com/holiman/uint256"
)

func TestPrintNoResults(t *testing.T) {
	var buf bytes.Buffer
	Print(&buf, nil)
	if !strings.Contains(buf.String(), "no watched events") {
		t.Fatalf("got %q", buf.String())
	}
}

func TestFormatUnitsWholeAndFractional(t *testing.T) {
	cases := []struct {
		amount   uint64
		decimals uint64
		want     string
	}{
		{1_500_000_000_000_000_000, 18, "1.5"},
		{1_000_000_000_000_000_000, 18, "1"},
		{0, 18, "0"},
		{42, 0, "42"},
	}

	for _, c := range cases {
		got := formatUnits(uint256.NewInt(c.amount), uint256.NewInt(c.decimals))
		if got != c.want {
			t.Errorf("formatUnits(%d, %d) = %q, want %q", c.amount, c.decimals, got, c.want)
		}
	}
}
