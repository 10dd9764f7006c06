package usecase

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"postgate/internal/entity"
	"postgate/pkg/logger"
)

// RetryOptions bound one dispatch: the retry loop, the outer request budget
// and the optional per-attempt provider budget.
type RetryOptions struct {
	MaxAttempts     int
	BaseDelay       time.Duration
	RequestTimeout  time.Duration // 0 disables the outer bound
	ProviderTimeout time.Duration // 0 disables the per-attempt bound
}

type retrier struct {
	opts   RetryOptions
	logger *logger.Logger

	// jitter returns a multiplier in [0.8, 1.2]; injectable for tests.
	jitter func() float64
}

func newRetrier(opts RetryOptions, log *logger.Logger) *retrier {
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	return &retrier{
		opts:   opts,
		logger: log,
		jitter: func() float64 { return 0.8 + rand.Float64()*0.4 },
	}
}

// Do runs fn under the retry/timeout/cancellation policy. At most one
// attempt is in flight at a time. The backoff before attempt n+1 is
// baseDelay * jitter * n (linear with jitter), a documented external
// contract; do not change the formula.
func (r *retrier) Do(ctx context.Context, fn func(ctx context.Context) (*entity.PublishResult, error)) (*entity.PublishResult, error) {
	if r.opts.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.RequestTimeout)
		defer cancel()
	}

	var lastErr error
	for attempt := 1; attempt <= r.opts.MaxAttempts; attempt++ {
		// Cancellation/deadline must win before any dispatch.
		if err := ctx.Err(); err != nil {
			return nil, deadlineError(err, lastErr)
		}

		attemptCtx := ctx
		cancelAttempt := func() {}
		if r.opts.ProviderTimeout > 0 {
			attemptCtx, cancelAttempt = context.WithTimeout(ctx, r.opts.ProviderTimeout)
		}
		result, err := fn(attemptCtx)
		cancelAttempt()

		if err == nil {
			return result, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, deadlineError(ctx.Err(), lastErr)
		}

		// A provider-timeout expiry is itself retryable; the outer deadline
		// was checked above.
		retryable := entity.IsRetryable(err) || errors.Is(err, context.DeadlineExceeded)
		if !retryable || attempt == r.opts.MaxAttempts {
			return nil, err
		}

		delay := time.Duration(float64(r.opts.BaseDelay) * r.jitter() * float64(attempt))
		r.logger.Warn("attempt %d/%d failed (%v), retrying in %s", attempt, r.opts.MaxAttempts, err, delay)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, deadlineError(ctx.Err(), lastErr)
		case <-timer.C:
		}
	}

	return nil, lastErr
}

func deadlineError(ctxErr, lastErr error) error {
	if errors.Is(ctxErr, context.DeadlineExceeded) {
		timeoutErr := entity.NewTimeoutError("request timed out")
		if lastErr != nil {
			timeoutErr.Details = lastErr.Error()
		}
		return timeoutErr
	}
	return &entity.AppError{Code: entity.CodeInternal, Message: "request cancelled"}
}
