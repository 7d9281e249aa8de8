// Package present formats simulation results for terminal output (A6),
// mirroring the original's print_result.rs: a colorized banner, one
// numbered block per result, and decimal-aware amount formatting.
package present

import (
	"fmt"
	"io"
	"strings"

	"github.com/holiman/uint256"

	"github.com/amadimichael/evmsim/internal/simtypes"
)

const (
	colorGreen = "\x1b[92m"
	colorBlue  = "\x1b[94m"
	colorReset = "\x1b[0m"
)

// Print writes a human-readable report of results to w. An empty result set
// prints a single "no events" line rather than an empty banner.
func Print(w io.Writer, results []simtypes.SimulationResult) {
	if len(results) == 0 {
		fmt.Fprintln(w, "no watched events detected")
		return
	}

	fmt.Fprintf(w, "\n%sSIMULATION RESULTS%s\n", colorGreen, colorReset)
	for i, r := range results {
		id := ""
		if r.ID != nil {
			id = r.ID.String()
		}

		fmt.Fprintf(w, "\n  %s%d. %s%s%s\n", colorBlue, i+1, colorReset, r.Operation, colorReset)
		fmt.Fprintf(w, "    token:     %s (%s)\n", r.TokenInfo.Address, r.TokenInfo.Standard)
		fmt.Fprintf(w, "    name:      %q\n", r.TokenInfo.Name)
		fmt.Fprintf(w, "    symbol:    %q\n", r.TokenInfo.Symbol)
		fmt.Fprintf(w, "    decimals:  %s\n", r.TokenInfo.Decimals)
		fmt.Fprintf(w, "    from:      %s\n", r.From)
		fmt.Fprintf(w, "    to:        %s\n", r.To)
		fmt.Fprintf(w, "    id:        %s\n", id)
		fmt.Fprintf(w, "    amount:    %s\n", formatUnits(r.Amount, r.TokenInfo.Decimals))
	}
	fmt.Fprintf(w, "\n%s%s%s\n", colorGreen, strings.Repeat("_", 72), colorReset)
}

// formatUnits renders amount as a fixed-point decimal string with `decimals`
// fractional digits, the uint256 equivalent of ethers' format_units.
func formatUnits(amount, decimals *uint256.Int) string {
	if amount == nil {
		return "0"
	}
	if decimals == nil || decimals.IsZero() {
		return amount.String()
	}

	d := decimals.Uint64()
	divisor := new(uint256.Int).Exp(uint256.NewInt(10), uint256.NewInt(d))

	whole := new(uint256.Int).Div(amount, divisor)
	remainder := new(uint256.Int).Mod(amount, divisor)

	fracStr := remainder.String()
	fracStr = strings.Repeat("0", int(d)-len(fracStr)) + fracStr
	fracStr = strings.TrimRight(fracStr, "0")
	if fracStr == "" {
		return whole.String()
	}
	return whole.String() + "." + fracStr
}
