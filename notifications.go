package nwc

import (
	"context"

	jsoniter "github.com/json-iterator/go"
	"github.com/nbd-wtf/go-nostr"
)

// Notification types a wallet service may announce in its info event.
const (
	NotificationPaymentReceived = "payment_received"
	NotificationPaymentSent     = "payment_sent"
)

// Notification is a payment event pushed by the wallet service without a
// preceding request.
type Notification struct {
	Type        string
	Transaction Transaction
}

type notificationEnvelope struct {
	NotificationType string              `json:"notification_type"`
	Notification     jsoniter.RawMessage `json:"notification"`
}

// SubscribeNotifications streams payment notifications from the wallet
// service until ctx is canceled, at which point the channel is closed. The
// event kind follows the session's encryption scheme (23196 for nip44_v2,
// 23197 for legacy nip04). Notifications that fail to decrypt or decode are
// skipped, not fatal: they are unsolicited input from the network.
func (c *Client) SubscribeNotifications(ctx context.Context) (<-chan Notification, error) {
	enc := c.session.cipher()

	kind := KindNotification
	if enc.scheme() == SchemeNIP04 {
		kind = KindNotificationLegacy
	}

	since := nostr.Now()
	events := c.session.transport.Subscribe(ctx, c.uri.Relays, nostr.Filter{
		Kinds:   []int{kind},
		Authors: []string{c.uri.WalletPubKey},
		Tags:    nostr.TagMap{"p": []string{c.session.clientPubKey}},
		Since:   &since,
	})

	out := make(chan Notification)
	go func() {
		defer close(out)
		for ev := range events {
			plain, err := enc.decrypt(ev.Content)
			if err != nil {
				debugLogf("skipping undecryptable notification %s: %s", ev.ID, err)
				continue
			}

			var env notificationEnvelope
			if err := json.UnmarshalFromString(plain, &env); err != nil || env.NotificationType == "" {
				debugLogf("skipping malformed notification %s", ev.ID)
				continue
			}

			var tx Transaction
			if err := json.Unmarshal(env.Notification, &tx); err != nil {
				debugLogf("skipping malformed notification payload %s", ev.ID)
				continue
			}

			select {
			case out <- Notification{Type: env.NotificationType, Transaction: tx}:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}
