// Package retry classifies fetch failures and computes jittered exponential
// backoff delays.
package retry

import "fmt"

// HTTPError is a non-2xx HTTP response surfaced as an error. Whether it is
// retryable depends on the policy's configured status set.
type HTTPError struct {
	StatusCode int
	Status     string
}

// Error returns the status line, e.g. "http error: 503 Service Unavailable".
func (e *HTTPError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("http error: %s", e.Status)
	}
	return fmt.Sprintf("http error: status %d", e.StatusCode)
}

// TransientError marks a connection-level failure as retryable. Transport
// errors that already satisfy net.Error do not need this wrapper.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient network error: %v", e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// DecodeError marks a response body that could not be parsed. Decode
// failures are terminal: retrying the same malformed payload cannot help.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode response: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
