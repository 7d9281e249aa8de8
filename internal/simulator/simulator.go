// Package simulator implements the orchestrator (C7): it drives a trace
// through the call-stack reducer, log extractor, and two-phase classifier,
// resolving token metadata between the classifier's phases, and assembles
// the ordered simulation result list (§4.7).
package simulator

import (
	"context"
	"fmt"

	"github.com/amadimichael/evmsim/internal/callstack"
	"github.com/amadimichael/evmsim/internal/classifier"
	"github.com/amadimichael/evmsim/internal/logextract"
	"github.com/amadimichael/evmsim/internal/logging"
	"github.com/amadimichael/evmsim/internal/rpcclient"
	"github.com/amadimichael/evmsim/internal/signatures"
	"github.com/amadimichael/evmsim/internal/simerrors"
	"github.com/amadimichael/evmsim/internal/simtypes"
	"github.com/amadimichael/evmsim/internal/tokenmeta"
)

// Simulator runs trace-mode simulations end to end.
type Simulator struct {
	tracer   rpcclient.TraceCaller
	resolver *tokenmeta.Resolver
	log      logging.Logger
}

// New builds a Simulator over the given trace caller and metadata resolver.
func New(tracer rpcclient.TraceCaller, resolver *tokenmeta.Resolver) *Simulator {
	return &Simulator{tracer: tracer, resolver: resolver, log: logging.New("simulator")}
}

// Simulate requests a trace for params and reconstructs its emitted logs as
// typed SimulationResults, in the order their source LOG3/LOG4 opcodes
// occurred (§4.7). Trace RPC failure and malformed-trace errors are fatal;
// metadata resolution failure never is (it degrades to defaults inside
// tokenmeta.Resolver).
func (s *Simulator) Simulate(ctx context.Context, params *simtypes.SimulationParams) ([]simtypes.SimulationResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if params == nil {
		return nil, fmt.Errorf("%w: nil simulation params", simerrors.ErrInputMalformed)
	}

	s.log.Debug("requesting trace", "to", params.To, "block", params.Block)

	trace, err := s.tracer.TraceCall(ctx, rpcclient.NewCallArgs(params), params.Block)
	if err != nil {
		return nil, fmt.Errorf("trace call: %w", err)
	}

	emitted, err := callstack.Reduce(trace.Steps, params.To)
	if err != nil {
		return nil, fmt.Errorf("reduce call stack: %w", err)
	}

	rawLogs, err := logextract.Extract(emitted)
	if err != nil {
		return nil, fmt.Errorf("extract logs: %w", err)
	}

	s.log.Debug("extracted raw logs", "count", len(rawLogs))

	results := make([]simtypes.SimulationResult, 0, len(rawLogs))
	for _, raw := range rawLogs {
		// An unrecognized topic-0 is filtered out here, before Phase1, so
		// that any error Phase1 does return means a recognized signature
		// with an unexpected shape — a fatal ABI-decode failure rather than
		// the ordinary "not a token event" case (§4.6).
		if len(raw.Topics) == 0 || !signatures.IsChecked(raw.Topics[0]) {
			continue
		}

		decoded, err := classifier.Phase1(raw)
		if err != nil {
			return nil, fmt.Errorf("classify (phase 1): %w", err)
		}

		info := s.resolver.Resolve(ctx, raw.Address, decoded.Standard)

		mapped, err := classifier.Phase2(raw, info, decoded)
		if err != nil {
			return nil, fmt.Errorf("classify (phase 2): %w", err)
		}

		results = append(results, mapped...)
	}

	return results, nil
}
