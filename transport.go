package nwc

import (
	"context"

	"github.com/nbd-wtf/go-nostr"
)

// Transport is the relay access the session needs: publishing signed events
// and subscribing to a stream of matching events. The default implementation
// wraps a nostr.SimplePool; tests plug in their own.
type Transport interface {
	// Publish delivers a signed event to a single relay, connecting first
	// if needed. It returns once the relay acknowledges (or rejects) it.
	Publish(ctx context.Context, url string, evt nostr.Event) error

	// Subscribe opens a subscription with the given filter on all the
	// given relays and streams matching events, deduplicated by event id,
	// until ctx is canceled.
	Subscribe(ctx context.Context, urls []string, filter nostr.Filter) <-chan nostr.RelayEvent
}

type poolTransport struct {
	pool *nostr.SimplePool
}

func (t poolTransport) Publish(ctx context.Context, url string, evt nostr.Event) error {
	relay, err := t.pool.EnsureRelay(url)
	if err != nil {
		return err
	}
	return relay.Publish(ctx, evt)
}

func (t poolTransport) Subscribe(ctx context.Context, urls []string, filter nostr.Filter) <-chan nostr.RelayEvent {
	return t.pool.SubscribeMany(ctx, urls, filter)
}
