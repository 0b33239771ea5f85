package nwc

import (
	"context"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/nbd-wtf/go-nostr"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

// fakeTransport is an in-memory Transport. Published events are handed to
// the onPublish hook; events passed to deliver are fanned out to every open
// subscription whose kind filter matches.
type fakeTransport struct {
	mu   sync.Mutex
	subs []*fakeSub

	onPublish   func(evt nostr.Event)
	onSubscribe func(filter nostr.Filter)
	publishErr  error
}

type fakeSub struct {
	filter nostr.Filter
	ch     chan nostr.RelayEvent
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{}
}

func (t *fakeTransport) Publish(ctx context.Context, url string, evt nostr.Event) error {
	t.mu.Lock()
	onPublish := t.onPublish
	err := t.publishErr
	t.mu.Unlock()

	if err != nil {
		return err
	}
	if onPublish != nil {
		onPublish(evt)
	}
	return nil
}

func (t *fakeTransport) Subscribe(ctx context.Context, urls []string, filter nostr.Filter) <-chan nostr.RelayEvent {
	sub := &fakeSub{filter: filter, ch: make(chan nostr.RelayEvent, 16)}

	t.mu.Lock()
	t.subs = append(t.subs, sub)
	onSubscribe := t.onSubscribe
	t.mu.Unlock()

	context.AfterFunc(ctx, func() { close(sub.ch) })

	if onSubscribe != nil {
		onSubscribe(filter)
	}
	return sub.ch
}

func (t *fakeTransport) setOnPublish(fn func(evt nostr.Event)) {
	t.mu.Lock()
	t.onPublish = fn
	t.mu.Unlock()
}

func (t *fakeTransport) deliver(evt *nostr.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, sub := range t.subs {
		if len(sub.filter.Kinds) > 0 && !slices.Contains(sub.filter.Kinds, evt.Kind) {
			continue
		}
		select {
		case sub.ch <- nostr.RelayEvent{Event: evt}:
		default:
		}
	}
}

// fakeWallet plays the wallet service side over a fakeTransport.
type fakeWallet struct {
	t         *testing.T
	secret    string
	pubkey    string
	transport *fakeTransport
	enc       cipher
}

func newFakeWallet(t *testing.T, transport *fakeTransport, walletSecret string, clientPubKey string, scheme EncryptionScheme) *fakeWallet {
	pub, err := nostr.GetPublicKey(walletSecret)
	require.NoError(t, err)

	// key agreement is symmetric, so the wallet derives the same key from
	// its own secret and the client's public key
	enc, err := newCipher(scheme, clientPubKey, walletSecret)
	require.NoError(t, err)

	return &fakeWallet{
		t:         t,
		secret:    walletSecret,
		pubkey:    pub,
		transport: transport,
		enc:       enc,
	}
}

// serve installs an auto-responder: every published request is decrypted and
// answered with whatever handler returns.
func (w *fakeWallet) serve(handler func(method string, params gjson.Result) (any, *ResponseError)) {
	w.transport.setOnPublish(func(evt nostr.Event) {
		if evt.Kind != KindRequest {
			return
		}
		plain, err := w.enc.decrypt(evt.Content)
		if err != nil {
			return
		}
		method := gjson.Get(plain, "method").Str
		result, rerr := handler(method, gjson.Get(plain, "params"))
		w.respond(evt, method, result, rerr)
	})
}

func (w *fakeWallet) respond(req nostr.Event, resultType string, result any, rerr *ResponseError) {
	envelope := map[string]any{"result_type": resultType}
	if rerr != nil {
		envelope["error"] = rerr
	} else {
		envelope["result"] = result
	}
	payload, err := json.Marshal(envelope)
	require.NoError(w.t, err)
	w.respondRaw(req, string(payload))
}

// respondRaw encrypts an arbitrary plaintext envelope and delivers it as a
// response event correlated to req.
func (w *fakeWallet) respondRaw(req nostr.Event, plaintext string) {
	content, err := w.enc.encrypt(plaintext)
	require.NoError(w.t, err)
	w.deliverResponseContent(req, content)
}

func (w *fakeWallet) deliverResponseContent(req nostr.Event, content string) {
	evt := nostr.Event{
		Kind:      KindResponse,
		CreatedAt: nostr.Now(),
		Content:   content,
		Tags:      nostr.Tags{{"e", req.ID}, {"p", req.PubKey}},
	}
	require.NoError(w.t, evt.Sign(w.secret))
	w.transport.deliver(&evt)
}

func (w *fakeWallet) publishInfoEvent(capabilities string, encryption string, notifications string) {
	tags := nostr.Tags{}
	if encryption != "" {
		tags = append(tags, nostr.Tag{"encryption", encryption})
	}
	if notifications != "" {
		tags = append(tags, nostr.Tag{"notifications", notifications})
	}
	evt := nostr.Event{
		Kind:      KindWalletServiceInfo,
		CreatedAt: nostr.Now(),
		Content:   capabilities,
		Tags:      tags,
	}
	require.NoError(w.t, evt.Sign(w.secret))
	w.transport.deliver(&evt)
}

// newTestClient wires a client and a fake wallet over an in-memory transport.
func newTestClient(t *testing.T, opts ...Option) (*Client, *fakeTransport, *fakeWallet) {
	clientSecret := nostr.GeneratePrivateKey()
	clientPub, err := nostr.GetPublicKey(clientSecret)
	require.NoError(t, err)
	walletSecret := nostr.GeneratePrivateKey()
	walletPub, err := nostr.GetPublicKey(walletSecret)
	require.NoError(t, err)

	transport := newFakeTransport()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	uri := &ConnectionURI{
		WalletPubKey: walletPub,
		Relays:       []string{"wss://relay.test"},
		Secret:       clientSecret,
	}
	opts = append([]Option{
		WithTransport(transport),
		WithDefaultTimeout(3 * time.Second),
	}, opts...)
	client, err := NewClientFromURI(ctx, uri, opts...)
	require.NoError(t, err)

	scheme := client.session.cipher().scheme()
	wallet := newFakeWallet(t, transport, walletSecret, clientPub, scheme)
	return client, transport, wallet
}
