package rpcclient

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/amadimichael/evmsim/internal/simtypes"
)

type countingTracer struct {
	failures int
	calls    int
	result   *StructLogResult
}

func (c *countingTracer) TraceCall(ctx context.Context, tx CallArgs, block simtypes.BlockRef) (*StructLogResult, error) {
	c.calls++
	if c.calls <= c.failures {
		return nil, errors.New("transient failure")
	}
	return c.result, nil
}

func TestRetryingTraceCallerSucceedsAfterTransientFailures(t *testing.T) {
	inner := &countingTracer{failures: 2, result: &StructLogResult{}}
	r := NewRetryingTraceCaller(inner, 3, time.Microsecond)

	result, err := r.TraceCall(context.Background(), CallArgs{}, simtypes.LatestBlock)
	if err != nil {
		t.Fatalf("TraceCall: %v", err)
	}
	if result != inner.result {
		t.Fatal("expected the eventual successful result to be returned")
	}
	if inner.calls != 3 {
		t.Fatalf("calls = %d, want 3", inner.calls)
	}
}

func TestRetryingTraceCallerExhaustsRetries(t *testing.T) {
	inner := &countingTracer{failures: 100}
	r := NewRetryingTraceCaller(inner, 2, time.Microsecond)

	_, err := r.TraceCall(context.Background(), CallArgs{}, simtypes.LatestBlock)
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if inner.calls != 3 {
		t.Fatalf("calls = %d, want 3 (1 initial + 2 retries)", inner.calls)
	}
}

func TestRetryingTraceCallerDisabledWithZeroRetries(t *testing.T) {
	inner := &countingTracer{failures: 1}
	r := NewRetryingTraceCaller(inner, 0, time.Microsecond)

	_, err := r.TraceCall(context.Background(), CallArgs{}, simtypes.LatestBlock)
	if err == nil {
		t.Fatal("expected immediate failure with retries disabled")
	}
	if inner.calls != 1 {
		t.Fatalf("calls = %d, want 1", inner.calls)
	}
}

func TestRetryingTraceCallerRespectsContextCancellation(t *testing.T) {
	inner := &countingTracer{failures: 100}
	r := NewRetryingTraceCaller(inner, 5, 50*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := r.TraceCall(ctx, CallArgs{}, simtypes.LatestBlock)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
