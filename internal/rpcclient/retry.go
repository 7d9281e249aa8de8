package rpcclient

import (
	"context"
	"time"

	"github.com/amadimichael/evmsim/internal/simtypes"
)

// RetryingTraceCaller wraps a TraceCaller with a configurable number of
// retries with exponential backoff; every error is retried, with no
// distinction between transient and permanent failures. Grounded on the
// teacher's HTTP-client-retries mini
// translated from net/http to a JSON-RPC call: the trace RPC is the one
// call in this system expensive and flaky enough to warrant it (§4.10).
type RetryingTraceCaller struct {
	next      TraceCaller
	retries   int
	baseDelay time.Duration
}

// NewRetryingTraceCaller wraps next with up to retries extra attempts,
// waiting baseDelay*2^attempt between them. retries <= 0 disables retrying.
func NewRetryingTraceCaller(next TraceCaller, retries int, baseDelay time.Duration) *RetryingTraceCaller {
	return &RetryingTraceCaller{next: next, retries: retries, baseDelay: baseDelay}
}

func (r *RetryingTraceCaller) TraceCall(ctx context.Context, tx CallArgs, block simtypes.BlockRef) (*StructLogResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	var lastErr error
	for attempt := 0; attempt <= r.retries; attempt++ {
		result, err := r.next.TraceCall(ctx, tx, block)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if attempt == r.retries {
			break
		}

		delay := r.baseDelay * time.Duration(1<<uint(attempt))
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, lastErr
}
