// Command evmsim simulates an Ethereum transaction without broadcasting it,
// reconstructing its emitted ERC-20/721/1155 events from an opcode-level
// trace (or, with --persist, by actually mining it against an
// impersonation-capable fork) and printing the typed results (A7).
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/amadimichael/evmsim/internal/config"
	"github.com/amadimichael/evmsim/internal/forksim"
	"github.com/amadimichael/evmsim/internal/logging"
	"github.com/amadimichael/evmsim/internal/present"
	"github.com/amadimichael/evmsim/internal/rpcclient"
	"github.com/amadimichael/evmsim/internal/simtypes"
	"github.com/amadimichael/evmsim/internal/simulator"
	"github.com/amadimichael/evmsim/internal/tokenmeta"
)

const defaultRetryBaseDelay = 200 * time.Millisecond

func main() {
	app := &cli.App{
		Name:  "evmsim",
		Usage: "simulate a transaction and reconstruct its token events",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Value: "evmsim.yaml", Usage: "path to an optional YAML config file"},
			&cli.StringFlag{Name: "rpc-url", Usage: "JSON-RPC endpoint (overrides config/RPC_URL)"},
			&cli.StringFlag{Name: "from", Required: true, Usage: "sender address"},
			&cli.StringFlag{Name: "to", Required: true, Usage: "recipient/contract address"},
			&cli.StringFlag{Name: "data", Value: "", Usage: "calldata, hex-encoded"},
			&cli.StringFlag{Name: "value", Value: "0", Usage: "value to send, in ether"},
			&cli.StringFlag{Name: "block", Value: "", Usage: "block number to simulate at; empty means latest"},
			&cli.BoolFlag{Name: "persist", Usage: "broadcast for real against an impersonation-capable fork instead of tracing"},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	logging.Configure(cfg.Log.Level)

	rpcURL := c.String("rpc-url")
	if rpcURL == "" {
		rpcURL = cfg.RPCURL
	}

	params, err := simtypes.NewSimulationParams(
		c.String("from"),
		c.String("to"),
		c.String("data"),
		c.String("value"),
		c.String("block"),
		rpcURL,
		c.Bool("persist"),
	)
	if err != nil {
		return err
	}
	if params.RPCURL == "" {
		return fmt.Errorf("no RPC URL: pass --rpc-url, set RPC_URL, or set rpc_url in %s", c.String("config"))
	}

	ctx := context.Background()
	client, err := rpcclient.Dial(ctx, params.RPCURL)
	if err != nil {
		return err
	}

	resolver := tokenmeta.NewWithCache(client, cfg.Resolver.CacheSize, cfg.Resolver.CacheTTL)

	var results []simtypes.SimulationResult
	if params.Persist {
		results, err = forksim.New(client, resolver).Simulate(ctx, params)
	} else {
		tracer := rpcclient.NewRetryingTraceCaller(client, cfg.Resolver.Retries, defaultRetryBaseDelay)
		results, err = simulator.New(tracer, resolver).Simulate(ctx, params)
	}
	if err != nil {
		return err
	}

	present.Print(os.Stdout, results)
	return nil
}
