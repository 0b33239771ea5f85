package nwc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testWalletPub    = "739b65aa39cd4318708b5ae5ea85d52b758aa1f5502d32cb033eff9115f95f8d"
	testClientSecret = "a5aa9fc79d90271f217c599191ce8479a0404d0c2417f85bc5bee18a89c0cb47"
)

func TestParseConnectionURI(t *testing.T) {
	uri, err := ParseConnectionURI(
		"nostr+walletconnect://" + testWalletPub +
			"?relay=wss://relay.getalby.com/v1&relay=wss%3A%2F%2Fnos.lol&secret=" + testClientSecret +
			"&lud16=pleb%40getalby.com")
	require.NoError(t, err)
	assert.Equal(t, testWalletPub, uri.WalletPubKey)
	assert.Equal(t, testClientSecret, uri.Secret)
	assert.Equal(t, []string{"wss://relay.getalby.com/v1", "wss://nos.lol"}, uri.Relays)
	assert.Equal(t, "pleb@getalby.com", uri.Lud16)
}

func TestParseConnectionURIMalformed(t *testing.T) {
	for name, raw := range map[string]string{
		"wrong scheme":       "nostrwalletconnect://" + testWalletPub + "?relay=wss://nos.lol&secret=" + testClientSecret,
		"invalid pubkey":     "nostr+walletconnect://nonsense?relay=wss://nos.lol&secret=" + testClientSecret,
		"short pubkey":       "nostr+walletconnect://739b65aa?relay=wss://nos.lol&secret=" + testClientSecret,
		"no relays":          "nostr+walletconnect://" + testWalletPub + "?secret=" + testClientSecret,
		"non-websocket url":  "nostr+walletconnect://" + testWalletPub + "?relay=https://nos.lol&secret=" + testClientSecret,
		"relay without host": "nostr+walletconnect://" + testWalletPub + "?relay=wss://&secret=" + testClientSecret,
		"missing secret":     "nostr+walletconnect://" + testWalletPub + "?relay=wss://nos.lol",
		"non-hex secret":     "nostr+walletconnect://" + testWalletPub + "?relay=wss://nos.lol&secret=zzz",
		"not a url":          "://",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseConnectionURI(raw)
			assert.ErrorIs(t, err, ErrMalformedURI)
		})
	}
}

func TestConnectionURIRoundTrip(t *testing.T) {
	original := &ConnectionURI{
		WalletPubKey: testWalletPub,
		Relays:       []string{"wss://relay.getalby.com/v1", "wss://nos.lol", "ws://localhost:7777"},
		Secret:       testClientSecret,
		Lud16:        "pleb@getalby.com",
	}

	reparsed, err := ParseConnectionURI(original.String())
	require.NoError(t, err)
	assert.Equal(t, original.WalletPubKey, reparsed.WalletPubKey)
	assert.Equal(t, original.Secret, reparsed.Secret)
	assert.Equal(t, original.Relays, reparsed.Relays)
	assert.Equal(t, original.Lud16, reparsed.Lud16)
}
