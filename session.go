package nwc

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nbd-wtf/go-nostr"
	"github.com/puzpuzpuz/xsync/v3"
)

// DefaultTimeout is how long a call waits for a wallet response when neither
// a per-call timeout nor a context deadline says otherwise.
const DefaultTimeout = 60 * time.Second

// pendingRequest correlates an in-flight request event to its waiting caller.
// At most one entry per event id lives in the table at any time.
type pendingRequest struct {
	resp     chan *nostr.Event // buffered so the demux loop never blocks
	created  time.Time
	deadline time.Time
}

// session owns the connection descriptor, the derived encryption keys, the
// pending-request table and the response subscription. All of a client's
// concurrent calls share one session and are distinguished only by the id of
// the request event they published.
type session struct {
	ctx          context.Context
	transport    Transport
	uri          *ConnectionURI
	clientPubKey string
	timeout      time.Duration

	mu  sync.RWMutex
	enc cipher

	pending *xsync.MapOf[string, *pendingRequest]
	subOnce sync.Once
}

func newSession(
	ctx context.Context,
	uri *ConnectionURI,
	transport Transport,
	scheme EncryptionScheme,
	timeout time.Duration,
) (*session, error) {
	enc, err := newCipher(scheme, uri.WalletPubKey, uri.Secret)
	if err != nil {
		return nil, err
	}

	clientPubKey, err := nostr.GetPublicKey(uri.Secret)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidKey, err)
	}

	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &session{
		ctx:          ctx,
		transport:    transport,
		uri:          uri,
		clientPubKey: clientPubKey,
		timeout:      timeout,
		enc:          enc,
		pending:      xsync.NewMapOf[string, *pendingRequest](),
	}, nil
}

func (s *session) cipher() cipher {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.enc
}

func (s *session) setCipher(enc cipher) {
	s.mu.Lock()
	s.enc = enc
	s.mu.Unlock()
}

// ensureSubscription opens the session-wide response subscription on first
// use. One subscription covers every in-flight request: responses are
// p-tagged to us and e-tagged to the request event they answer, so the demux
// loop only has to route by e tag.
func (s *session) ensureSubscription() {
	s.subOnce.Do(func() {
		since := nostr.Now()
		events := s.transport.Subscribe(s.ctx, s.uri.Relays, nostr.Filter{
			Kinds:   []int{KindResponse},
			Authors: []string{s.uri.WalletPubKey},
			Tags:    nostr.TagMap{"p": []string{s.clientPubKey}},
			Since:   &since,
		})
		go s.listen(events)
	})
}

func (s *session) listen(events <-chan nostr.RelayEvent) {
	for ev := range events {
		tag := ev.Tags.GetFirst([]string{"e"})
		if tag == nil {
			continue
		}

		// LoadAndDelete makes resolution at-most-once: the first response
		// for an event id wins, duplicates from other relays and anything
		// arriving after a timeout find no entry and are dropped.
		pr, ok := s.pending.LoadAndDelete(tag.Value())
		if !ok {
			debugLogf("dropping response %s for settled or unknown request %s", ev.ID, tag.Value())
			continue
		}
		pr.resp <- ev.Event
	}
}

// roundTrip publishes a signed request event to every configured relay and
// waits for the correlated response. It proceeds as soon as one relay
// accepts the publish; if every relay rejects it the call fails with
// ErrNoRelay, and if the deadline passes first it fails with ErrTimeout. The
// pending entry is gone by the time roundTrip returns, whichever way it
// resolves.
func (s *session) roundTrip(ctx context.Context, evt nostr.Event, timeout time.Duration) (*nostr.Event, error) {
	if timeout <= 0 {
		timeout = s.timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	s.ensureSubscription()

	pr := &pendingRequest{
		resp:     make(chan *nostr.Event, 1),
		created:  time.Now(),
		deadline: time.Now().Add(timeout),
	}
	s.pending.Store(evt.ID, pr)
	defer s.pending.Delete(evt.ID)

	accepted := make(chan struct{})
	allFailed := make(chan struct{})
	var failures atomic.Int64
	for _, url := range s.uri.Relays {
		go func(url string) {
			if err := s.transport.Publish(ctx, url, evt); err != nil {
				debugLogf("publish of %s to %s failed: %s", evt.ID, url, err)
				if failures.Add(1) == int64(len(s.uri.Relays)) {
					close(allFailed)
				}
				return
			}
			select {
			case accepted <- struct{}{}:
			default:
			}
		}(url)
	}

	select {
	case <-accepted:
	case <-allFailed:
		return nil, fmt.Errorf("%w: all %d relays rejected the request", ErrNoRelay, len(s.uri.Relays))
	case <-ctx.Done():
		return nil, roundTripError(ctx)
	}

	select {
	case resp := <-pr.resp:
		return resp, nil
	case <-ctx.Done():
		return nil, roundTripError(ctx)
	}
}

func roundTripError(ctx context.Context) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: no response before deadline", ErrTimeout)
	}
	return ctx.Err()
}
