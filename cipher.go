package nwc

import (
	"fmt"

	"github.com/nbd-wtf/go-nostr/nip04"
	"github.com/nbd-wtf/go-nostr/nip44"
)

// EncryptionScheme identifies the content encryption used on the wire, as
// advertised by the wallet service in its info event "encryption" tag.
type EncryptionScheme string

const (
	// SchemeNIP44v2 is the default scheme.
	SchemeNIP44v2 EncryptionScheme = "nip44_v2"

	// SchemeNIP04 is the legacy scheme, kept for wallet services that
	// predate nip44 support.
	SchemeNIP04 EncryptionScheme = "nip04"
)

// cipher encrypts request payloads and decrypts response payloads with keys
// derived once from the client secret key and the wallet public key. The
// derived keys never leave the cipher.
type cipher interface {
	scheme() EncryptionScheme
	encrypt(plaintext string) (string, error)
	decrypt(content string) (string, error)
}

// newCipher derives the shared key for the given scheme. Fails with
// ErrInvalidKey when either key is not valid on the curve.
func newCipher(scheme EncryptionScheme, walletPubKey string, clientSecretKey string) (cipher, error) {
	switch scheme {
	case SchemeNIP44v2:
		ck, err := nip44.GenerateConversationKey(walletPubKey, clientSecretKey)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidKey, err)
		}
		return nip44Cipher{conversationKey: ck}, nil
	case SchemeNIP04:
		shared, err := nip04.ComputeSharedSecret(walletPubKey, clientSecretKey)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidKey, err)
		}
		return nip04Cipher{sharedSecret: shared}, nil
	default:
		return nil, fmt.Errorf("%w: unsupported encryption scheme '%s'", ErrInvalidKey, scheme)
	}
}

type nip44Cipher struct {
	conversationKey [32]byte
}

func (c nip44Cipher) scheme() EncryptionScheme { return SchemeNIP44v2 }

func (c nip44Cipher) encrypt(plaintext string) (string, error) {
	return nip44.Encrypt(plaintext, c.conversationKey)
}

func (c nip44Cipher) decrypt(content string) (string, error) {
	plain, err := nip44.Decrypt(content, c.conversationKey)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrDecryptionFailed, err)
	}
	return plain, nil
}

type nip04Cipher struct {
	sharedSecret []byte
}

func (c nip04Cipher) scheme() EncryptionScheme { return SchemeNIP04 }

func (c nip04Cipher) encrypt(plaintext string) (string, error) {
	return nip04.Encrypt(plaintext, c.sharedSecret)
}

func (c nip04Cipher) decrypt(content string) (string, error) {
	plain, err := nip04.Decrypt(content, c.sharedSecret)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrDecryptionFailed, err)
	}
	return plain, nil
}
