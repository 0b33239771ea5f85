package nwc

// Event kinds defined by NIP-47.
const (
	KindWalletServiceInfo  = 13194
	KindRequest            = 23194
	KindResponse           = 23195
	KindNotification       = 23196
	KindNotificationLegacy = 23197 // nip04-encrypted notifications
)
