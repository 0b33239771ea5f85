package nwc

import (
	"fmt"
	"net/url"

	"github.com/nbd-wtf/go-nostr"
)

// ConnectionURI is the parsed form of a nostr+walletconnect:// connection
// string. It is built by ParseConnectionURI and must be treated as read-only
// afterwards: the session keeps a reference to it for its whole lifetime.
type ConnectionURI struct {
	// WalletPubKey is the hex public key of the wallet service.
	WalletPubKey string

	// Relays are the relay URLs in declaration order, which is also the
	// priority order the session uses.
	Relays []string

	// Secret is the hex secret key this client signs and encrypts with.
	Secret string

	// Lud16 is an optional lightning address associated with the wallet.
	Lud16 string
}

// ParseConnectionURI parses a connection string of the form
//
//	nostr+walletconnect://<pubkey>?relay=<url>&relay=<url>&secret=<hex>&lud16=<addr>
//
// Query values are percent-decoded before validation. All failures wrap
// ErrMalformedURI.
func ParseConnectionURI(uri string) (*ConnectionURI, error) {
	p, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformedURI, err)
	}
	if p.Scheme != "nostr+walletconnect" {
		return nil, fmt.Errorf("%w: incorrect scheme '%s'", ErrMalformedURI, p.Scheme)
	}
	if !nostr.IsValid32ByteHex(p.Host) {
		return nil, fmt.Errorf("%w: invalid wallet public key", ErrMalformedURI)
	}

	query := p.Query()

	relays := query["relay"]
	if len(relays) == 0 {
		return nil, fmt.Errorf("%w: no relays", ErrMalformedURI)
	}
	for _, relay := range relays {
		ru, err := url.Parse(relay)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid relay URL '%s'", ErrMalformedURI, relay)
		}
		if (ru.Scheme != "ws" && ru.Scheme != "wss") || ru.Host == "" {
			return nil, fmt.Errorf("%w: relay URL '%s' is not a websocket URL", ErrMalformedURI, relay)
		}
	}

	secret := query.Get("secret")
	if !nostr.IsValid32ByteHex(secret) {
		return nil, fmt.Errorf("%w: invalid secret", ErrMalformedURI)
	}

	return &ConnectionURI{
		WalletPubKey: p.Host,
		Relays:       relays,
		Secret:       secret,
		Lud16:        query.Get("lud16"),
	}, nil
}

// String reassembles the canonical connection string. Parsing the output
// yields the same public key, secret, lud16 and relay order.
func (uri *ConnectionURI) String() string {
	qs := url.Values{}
	qs["relay"] = uri.Relays
	qs.Set("secret", uri.Secret)
	if uri.Lud16 != "" {
		qs.Set("lud16", uri.Lud16)
	}
	return "nostr+walletconnect://" + uri.WalletPubKey + "?" + qs.Encode()
}
