package pipeline

import (
	"errors"
	"math/rand/v2"
	"time"

	"github.com/afumchris/edu-flashcard-app/internal/extract"
)

// MaxAttempts bounds the model calls made for one piece of a document,
// the first call included.
const MaxAttempts = 3

const maxBackoff = 30 * time.Second

// IsRetryable reports whether err is a transient model failure: HTTP 429,
// a 5xx status or a transport error.
func IsRetryable(err error) bool {
	var retryErr *extract.RetryableError
	return errors.As(err, &retryErr)
}

// Backoff returns the wait before retry n (0-indexed): 1s doubling up to
// 30s, plus up to half of that again as jitter.
func Backoff(attempt int) time.Duration {
	attempt = max(attempt, 0)
	base := min(time.Second<<min(attempt, 5), maxBackoff)
	jitter := time.Duration(rand.Int64N(int64(base)/2 + 1))
	return base + jitter
}
