package fetch

import (
	"github.com/illmade-knight/go-fetch/pkg/cache"
	"github.com/illmade-knight/go-fetch/pkg/notify"
)

// Apply carries out a computed result's effects: cache ops against the live
// store, then events through the notifier, each in order. It is the only
// place a single-resource fetch mutates shared state, and it is intentionally
// trivial so the hard logic stays in Compute.
//
// A panicking observer propagates out of Apply with the remaining events
// undelivered; cache ops have already been applied by then.
func Apply[V any](result Result[V], store cache.Store[V], notifier *notify.Notifier) {
	for _, op := range result.Ops {
		switch op.Kind {
		case cache.OpSet, cache.OpUpdate:
			store.Set(op.Key, op.Entry)
		case cache.OpDelete:
			store.Delete(op.Key)
		}
	}

	if notifier == nil {
		return
	}
	for _, event := range result.Events {
		notifier.Notify(string(event.Type), event.Payload)
	}
}
