// Package notify provides a minimal observer registry for broadcasting
// fetch lifecycle events.
package notify

import "sync"

// Observer receives lifecycle events. The payload's concrete type depends on
// the event type; see the fetch package's event payloads.
type Observer interface {
	Update(eventType string, payload any)
}

// Notifier is an observer registry. Subscription is a multiset with
// reference identity: the same observer may subscribe multiple times and
// must be unsubscribed that many times to fully detach. Observers must be
// of comparable dynamic types.
type Notifier struct {
	mu        sync.Mutex
	observers []Observer
}

// NewNotifier creates an empty notifier.
func NewNotifier() *Notifier {
	return &Notifier{}
}

// Subscribe registers an observer. Later notifications reach observers in
// subscription order.
func (n *Notifier) Subscribe(observer Observer) {
	if observer == nil {
		return
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.observers = append(n.observers, observer)
}

// Unsubscribe removes one occurrence of the observer (the most recently
// subscribed), leaving any earlier subscriptions in place.
func (n *Notifier) Unsubscribe(observer Observer) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i := len(n.observers) - 1; i >= 0; i-- {
		if n.observers[i] == observer {
			n.observers = append(n.observers[:i], n.observers[i+1:]...)
			return
		}
	}
}

// Notify invokes each observer's Update in subscription order. A panicking
// observer propagates to the caller (first-fault semantics); later observers
// are not reached.
func (n *Notifier) Notify(eventType string, payload any) {
	n.mu.Lock()
	observers := make([]Observer, len(n.observers))
	copy(observers, n.observers)
	n.mu.Unlock()

	for _, observer := range observers {
		observer.Update(eventType, payload)
	}
}

// Clear removes all observers.
func (n *Notifier) Clear() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.observers = nil
}

// SubscriberCount returns the number of registrations, counting duplicates.
func (n *Notifier) SubscriberCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.observers)
}
