package notify_test

import (
	"testing"

	"github.com/illmade-knight/go-fetch/pkg/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingObserver captures every event it receives.
type recordingObserver struct {
	name   string
	events []string
}

func (o *recordingObserver) Update(eventType string, _ any) {
	o.events = append(o.events, o.name+":"+eventType)
}

// panickingObserver aborts notification.
type panickingObserver struct{}

func (panickingObserver) Update(string, any) { panic("observer failure") }

func TestNotifier_SubscriptionOrder(t *testing.T) {
	notifier := notify.NewNotifier()
	first := &recordingObserver{name: "first"}
	second := &recordingObserver{name: "second"}

	notifier.Subscribe(first)
	notifier.Subscribe(second)
	notifier.Notify("success", nil)

	require.Len(t, first.events, 1)
	require.Len(t, second.events, 1)
	assert.Equal(t, "first:success", first.events[0])
}

func TestNotifier_MultisetSemantics(t *testing.T) {
	notifier := notify.NewNotifier()
	observer := &recordingObserver{name: "o"}

	// Subscribing twice means two deliveries per notification.
	notifier.Subscribe(observer)
	notifier.Subscribe(observer)
	assert.Equal(t, 2, notifier.SubscriberCount())

	notifier.Notify("retry", nil)
	assert.Len(t, observer.events, 2)

	// One unsubscribe detaches one registration, not both.
	notifier.Unsubscribe(observer)
	assert.Equal(t, 1, notifier.SubscriberCount())

	notifier.Notify("retry", nil)
	assert.Len(t, observer.events, 3)

	notifier.Unsubscribe(observer)
	assert.Equal(t, 0, notifier.SubscriberCount())

	// Unsubscribing an absent observer is a no-op.
	notifier.Unsubscribe(observer)
	assert.Equal(t, 0, notifier.SubscriberCount())
}

func TestNotifier_FirstFault(t *testing.T) {
	notifier := notify.NewNotifier()
	before := &recordingObserver{name: "before"}
	after := &recordingObserver{name: "after"}

	notifier.Subscribe(before)
	notifier.Subscribe(panickingObserver{})
	notifier.Subscribe(after)

	// The panic propagates out of Notify; observers after the fault are
	// not reached.
	assert.Panics(t, func() { notifier.Notify("error", nil) })
	assert.Len(t, before.events, 1)
	assert.Empty(t, after.events)
}

func TestNotifier_Clear(t *testing.T) {
	notifier := notify.NewNotifier()
	observer := &recordingObserver{name: "o"}

	notifier.Subscribe(observer)
	notifier.Subscribe(observer)
	notifier.Clear()

	assert.Equal(t, 0, notifier.SubscriberCount())
	notifier.Notify("success", nil)
	assert.Empty(t, observer.events)
}

func TestNotifier_NilObserverIgnored(t *testing.T) {
	notifier := notify.NewNotifier()
	notifier.Subscribe(nil)
	assert.Equal(t, 0, notifier.SubscriberCount())
}
