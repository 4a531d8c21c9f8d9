package processor

import (
	"errors"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"

	"github.com/angelospk/plexsubs/internal/httpclient"
	apperrors "github.com/angelospk/plexsubs/pkg/core/errors"
)

// newRetryPolicy builds the bounded retry policy applied to rate-limited
// OpenSubtitles calls: exponential backoff from baseDelay capped at maxDelay,
// with the server's Retry-After hint taking precedence when present. Only
// ErrRateLimited is retried; every other failure surfaces immediately.
func newRetryPolicy[R any](maxRetries int, baseDelay, maxDelay time.Duration) retrypolicy.RetryPolicy[R] {
	return retrypolicy.Builder[R]().
		HandleIf(func(_ R, err error) bool {
			return errors.Is(err, apperrors.ErrRateLimited)
		}).
		WithMaxRetries(maxRetries).
		WithDelayFunc(func(exec failsafe.ExecutionAttempt[R]) time.Duration {
			var apiErr *httpclient.APIError
			if errors.As(exec.LastError(), &apiErr) && apiErr.RetryAfter > 0 {
				return apiErr.RetryAfter
			}
			delay := baseDelay << (exec.Attempts() - 1)
			if delay > maxDelay {
				delay = maxDelay
			}
			return delay
		}).
		ReturnLastFailure().
		Build()
}
