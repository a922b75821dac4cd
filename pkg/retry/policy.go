package retry

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"net"
	"time"
)

// DefaultRetryableStatusCodes is the default set of HTTP statuses treated as
// transient. Everything else non-2xx is terminal.
var DefaultRetryableStatusCodes = []int{408, 429, 500, 502, 503, 504}

// Policy decides which errors are worth retrying and how long to wait
// between attempts. The zero value is not useful; construct with
// DefaultPolicy and adjust fields as needed. Policies are value objects and
// safe to copy.
type Policy struct {
	// MaxRetries is the number of additional attempts after the first,
	// so total attempts = MaxRetries + 1.
	MaxRetries int
	// BaseDelay is the backoff for attempt 0.
	BaseDelay time.Duration
	// Multiplier grows the delay per attempt: BaseDelay * Multiplier^attempt.
	Multiplier float64
	// MinDelay floors every computed delay.
	MinDelay time.Duration
	// RetryableStatusCodes lists the HTTP statuses classified as transient.
	RetryableStatusCodes []int
}

// DefaultPolicy returns the stock policy: 3 retries, 1s base delay doubling
// per attempt, a 100ms floor, and the default retryable status set.
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries:           3,
		BaseDelay:            time.Second,
		Multiplier:           2,
		MinDelay:             100 * time.Millisecond,
		RetryableStatusCodes: DefaultRetryableStatusCodes,
	}
}

// MaxAttempts returns the total attempt budget, first try included.
func (p Policy) MaxAttempts() int {
	if p.MaxRetries < 0 {
		return 1
	}
	return p.MaxRetries + 1
}

// IsRetryable classifies an error as transient (worth retrying) or terminal.
//
// Retryable: connection-level transport failures, timeouts and
// cancellation-by-deadline, and HTTP statuses in the configured set.
// Terminal: decode failures, every other HTTP status, and anything
// unrecognised.
func (p Policy) IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	// Decode failures are terminal even when they wrap a transport error.
	var decodeErr *DecodeError
	if errors.As(err, &decodeErr) {
		return false
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		for _, code := range p.RetryableStatusCodes {
			if httpErr.StatusCode == code {
				return true
			}
		}
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var transientErr *TransientError
	if errors.As(err, &transientErr) {
		return true
	}

	// url.Error and net.OpError both satisfy net.Error, which covers the
	// usual connection-level failures from an HTTP client.
	var netErr net.Error
	return errors.As(err, &netErr)
}

// Delay computes the backoff before retrying after the given attempt
// (attempt 0 is the first try): BaseDelay * Multiplier^attempt, jittered by
// ±25% uniform random so concurrent resources do not retry in lockstep,
// floored at MinDelay.
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	base := float64(p.BaseDelay) * math.Pow(p.Multiplier, float64(attempt))

	// Uniform in [0.75, 1.25).
	jittered := base * (0.75 + rand.Float64()*0.5)

	d := time.Duration(jittered)
	if d < p.MinDelay {
		d = p.MinDelay
	}
	return d
}
