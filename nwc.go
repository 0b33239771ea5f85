// Package nwc implements the client side of NIP-47 (Nostr Wallet Connect):
// it lets an application ask a remote lightning wallet service for balance,
// payments, invoices and transaction history, using nostr relays as the
// transport and end-to-end encryption between the client key from the
// connection URI and the wallet service key.
package nwc

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nbd-wtf/go-nostr"
)

// Client talks to one wallet service over one session. All methods are safe
// for concurrent use; independent calls on the same Client are in flight at
// the same time and never block each other.
type Client struct {
	session *session
	uri     *ConnectionURI
}

type options struct {
	pool      *nostr.SimplePool
	transport Transport
	scheme    EncryptionScheme
	timeout   time.Duration
}

// Option configures a Client at construction time.
type Option func(*options)

// WithPool reuses an existing relay pool instead of creating a new one.
func WithPool(pool *nostr.SimplePool) Option {
	return func(o *options) { o.pool = pool }
}

// WithTransport replaces the relay transport entirely. Meant for tests and
// for callers that already manage their own relay connections.
func WithTransport(transport Transport) Option {
	return func(o *options) { o.transport = transport }
}

// WithEncryption selects the content encryption scheme. The default is
// nip44_v2; see also (*Client).NegotiateEncryption.
func WithEncryption(scheme EncryptionScheme) Option {
	return func(o *options) { o.scheme = scheme }
}

// WithDefaultTimeout changes the per-call timeout applied when a call has no
// WithTimeout option and no sooner context deadline.
func WithDefaultTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

type callOptions struct {
	timeout time.Duration
}

// CallOption configures a single call.
type CallOption func(*callOptions)

// WithTimeout overrides the client's default timeout for one call.
func WithTimeout(d time.Duration) CallOption {
	return func(o *callOptions) { o.timeout = d }
}

// NewClient creates a client from a nostr+walletconnect:// connection string.
// ctx bounds the life of the session's relay subscription.
func NewClient(ctx context.Context, uri string, opts ...Option) (*Client, error) {
	parsed, err := ParseConnectionURI(uri)
	if err != nil {
		return nil, err
	}
	return NewClientFromURI(ctx, parsed, opts...)
}

// NewClientFromURI creates a client from an already-parsed connection URI.
func NewClientFromURI(ctx context.Context, uri *ConnectionURI, opts ...Option) (*Client, error) {
	o := options{
		scheme:  SchemeNIP44v2,
		timeout: DefaultTimeout,
	}
	for _, apply := range opts {
		apply(&o)
	}

	transport := o.transport
	if transport == nil {
		pool := o.pool
		if pool == nil {
			pool = nostr.NewSimplePool(ctx)
		}
		transport = poolTransport{pool: pool}
	}

	session, err := newSession(ctx, uri, transport, o.scheme, o.timeout)
	if err != nil {
		return nil, err
	}

	return &Client{session: session, uri: uri}, nil
}

// ConnectionURI returns the descriptor this client was created from. Treat
// it as read-only.
func (c *Client) ConnectionURI() *ConnectionURI { return c.uri }

// GetInfo executes the NIP-47 get_info request method.
func (c *Client) GetInfo(ctx context.Context, opts ...CallOption) (*GetInfoResult, error) {
	var res GetInfoResult
	if err := c.RPC(ctx, MethodGetInfo, nil, &res, opts...); err != nil {
		return nil, err
	}
	return &res, nil
}

// GetBalance executes the NIP-47 get_balance request method. The balance is
// in millisatoshis.
func (c *Client) GetBalance(ctx context.Context, opts ...CallOption) (*GetBalanceResult, error) {
	var res GetBalanceResult
	if err := c.RPC(ctx, MethodGetBalance, nil, &res, opts...); err != nil {
		return nil, err
	}
	return &res, nil
}

// PayInvoice executes the NIP-47 pay_invoice request method.
func (c *Client) PayInvoice(ctx context.Context, params *PayInvoiceParams, opts ...CallOption) (*PayInvoiceResult, error) {
	if params == nil {
		params = &PayInvoiceParams{}
	}
	var res PayInvoiceResult
	if err := c.RPC(ctx, params.Method(), params, &res, opts...); err != nil {
		return nil, err
	}
	return &res, nil
}

// MakeInvoice executes the NIP-47 make_invoice request method.
func (c *Client) MakeInvoice(ctx context.Context, params *MakeInvoiceParams, opts ...CallOption) (*MakeInvoiceResult, error) {
	if params == nil {
		params = &MakeInvoiceParams{}
	}
	var res MakeInvoiceResult
	if err := c.RPC(ctx, params.Method(), params, &res, opts...); err != nil {
		return nil, err
	}
	return &res, nil
}

// LookupInvoice executes the NIP-47 lookup_invoice request method.
func (c *Client) LookupInvoice(ctx context.Context, params *LookupInvoiceParams, opts ...CallOption) (*LookupInvoiceResult, error) {
	if params == nil {
		params = &LookupInvoiceParams{}
	}
	var res LookupInvoiceResult
	if err := c.RPC(ctx, params.Method(), params, &res, opts...); err != nil {
		return nil, err
	}
	return &res, nil
}

// ListTransactions executes the NIP-47 list_transactions request method.
func (c *Client) ListTransactions(ctx context.Context, params *ListTransactionsParams, opts ...CallOption) (*ListTransactionsResult, error) {
	if params == nil {
		params = &ListTransactionsParams{}
	}
	var res ListTransactionsResult
	if err := c.RPC(ctx, params.Method(), params, &res, opts...); err != nil {
		return nil, err
	}
	return &res, nil
}

// PayKeysend executes the NIP-47 pay_keysend request method.
func (c *Client) PayKeysend(ctx context.Context, params *PayKeysendParams, opts ...CallOption) (*PayKeysendResult, error) {
	if params == nil {
		params = &PayKeysendParams{}
	}
	var res PayKeysendResult
	if err := c.RPC(ctx, params.Method(), params, &res, opts...); err != nil {
		return nil, err
	}
	return &res, nil
}

// RPC executes an arbitrary NIP-47 request method and waits for the
// response, unmarshaling its result into result when it is non-nil. The
// typed methods on Client are thin wrappers over this; it stays public as
// the escape hatch for methods this package doesn't know about.
func (c *Client) RPC(ctx context.Context, method string, params any, result any, opts ...CallOption) error {
	var co callOptions
	for _, apply := range opts {
		apply(&co)
	}

	plain, err := encodeRequest(method, params)
	if err != nil {
		return err
	}

	// hold onto one cipher for the whole exchange so a concurrent
	// renegotiation can't split a request and its response across schemes
	enc := c.session.cipher()

	content, err := enc.encrypt(string(plain))
	if err != nil {
		return fmt.Errorf("error encrypting request: %w", err)
	}

	tags := nostr.Tags{{"p", c.uri.WalletPubKey}}
	if enc.scheme() == SchemeNIP44v2 {
		tags = append(tags, nostr.Tag{"encryption", string(SchemeNIP44v2)})
	}

	evt := nostr.Event{
		Content:   content,
		CreatedAt: nostr.Now(),
		Kind:      KindRequest,
		Tags:      tags,
	}
	if err := evt.Sign(c.uri.Secret); err != nil {
		return fmt.Errorf("failed to sign request event: %w", err)
	}

	resp, err := c.session.roundTrip(ctx, evt, co.timeout)
	if err != nil {
		return err
	}

	plainResp, err := enc.decrypt(resp.Content)
	if err != nil {
		return err
	}

	return decodeResponse(plainResp, method, result)
}

// WalletServiceInfo is what a wallet service announces about itself in its
// replaceable kind-13194 event.
type WalletServiceInfo struct {
	EncryptionTypes   []string
	Capabilities      []string
	NotificationTypes []string
}

// GetWalletServiceInfo fetches the wallet service's kind-13194 info event.
func (c *Client) GetWalletServiceInfo(ctx context.Context) (*WalletServiceInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	events := c.session.transport.Subscribe(ctx, c.uri.Relays, nostr.Filter{
		Limit:   1,
		Kinds:   []int{KindWalletServiceInfo},
		Authors: []string{c.uri.WalletPubKey},
	})

	select {
	case <-ctx.Done():
		return nil, roundTripError(ctx)
	case event, ok := <-events:
		if !ok {
			return nil, fmt.Errorf("%w: info subscription closed", ErrNoRelay)
		}

		encryptionTypes := []string{}
		notificationTypes := []string{}
		if tag := event.Tags.GetFirst([]string{"encryption"}); tag != nil {
			encryptionTypes = strings.Split((*tag).Value(), " ")
		}
		if tag := event.Tags.GetFirst([]string{"notifications"}); tag != nil {
			notificationTypes = strings.Split((*tag).Value(), " ")
		}
		return &WalletServiceInfo{
			EncryptionTypes:   encryptionTypes,
			NotificationTypes: notificationTypes,
			Capabilities:      strings.Split(event.Content, " "),
		}, nil
	}
}

// NegotiateEncryption fetches the wallet service info event and switches the
// session to the best scheme both sides support: nip44_v2 when advertised,
// nip04 otherwise (wallets that predate the encryption tag only speak
// nip04). It returns the scheme the session ends up on.
func (c *Client) NegotiateEncryption(ctx context.Context) (EncryptionScheme, error) {
	info, err := c.GetWalletServiceInfo(ctx)
	if err != nil {
		return "", err
	}

	scheme := SchemeNIP04
	for _, enc := range info.EncryptionTypes {
		if EncryptionScheme(enc) == SchemeNIP44v2 {
			scheme = SchemeNIP44v2
		}
	}

	if c.session.cipher().scheme() == scheme {
		return scheme, nil
	}

	enc, err := newCipher(scheme, c.uri.WalletPubKey, c.uri.Secret)
	if err != nil {
		return "", err
	}
	c.session.setCipher(enc)
	InfoLogger.Printf("switched encryption to %s", scheme)
	return scheme, nil
}
