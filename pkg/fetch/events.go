package fetch

import "time"

// EventType labels a fetch lifecycle event.
type EventType string

const (
	// EventLoadingStart is emitted once when a fetch sequence goes to the
	// network (never on a cache hit).
	EventLoadingStart EventType = "loading-start"
	// EventRetry is emitted before each backoff delay.
	EventRetry EventType = "retry"
	// EventSuccess is emitted when the network returns data.
	EventSuccess EventType = "success"
	// EventError is emitted when the sequence fails for good.
	EventError EventType = "error"
)

// Event pairs a lifecycle event type with its payload. The payload's
// concrete type is determined by the event type.
type Event struct {
	Type    EventType
	Payload any
}

// LoadingStart is the payload for EventLoadingStart.
type LoadingStart struct {
	ResourceID string
	RequestID  string
}

// Retrying is the payload for EventRetry. Attempt counts from 0 (the first
// try); MaxAttempts is the total attempt budget.
type Retrying struct {
	Attempt     int
	MaxAttempts int
	Err         error
	RetryIn     time.Duration
}

// Succeeded is the payload for EventSuccess.
type Succeeded[V any] struct {
	Data V
}

// Failed is the payload for EventError. Attempts is the number of attempts
// actually made.
type Failed struct {
	Err         error
	Attempts    int
	MaxAttempts int
}
