package indexer

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const maxRetryDelay = 30 * time.Second

// retryPolicy retries RPC calls with exponential backoff.
type retryPolicy struct {
	maxRetries int
	baseDelay  time.Duration
	logger     *zap.Logger
}

func newRetryPolicy(maxRetries int, baseDelay time.Duration, logger *zap.Logger) retryPolicy {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if baseDelay <= 0 {
		baseDelay = 100 * time.Millisecond
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return retryPolicy{maxRetries: maxRetries, baseDelay: baseDelay, logger: logger}
}

// do runs fn until it succeeds, the retries are exhausted or ctx is done.
func (p retryPolicy) do(ctx context.Context, op string, fn func(context.Context) error) error {
	delay := p.baseDelay
	for attempt := 0; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if attempt >= p.maxRetries {
			return err
		}
		p.logger.Warn("rpc call failed, retrying",
			zap.String("op", op),
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", delay),
			zap.Error(err),
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		delay *= 2
		if delay > maxRetryDelay {
			delay = maxRetryDelay
		}
	}
}
