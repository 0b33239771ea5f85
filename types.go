package nwc

// NIP-47 request methods.
const (
	MethodGetInfo          = "get_info"
	MethodGetBalance       = "get_balance"
	MethodPayInvoice       = "pay_invoice"
	MethodMakeInvoice      = "make_invoice"
	MethodLookupInvoice    = "lookup_invoice"
	MethodListTransactions = "list_transactions"
	MethodPayKeysend       = "pay_keysend"
)

// RequestParams is implemented by every typed params struct so a request can
// only ever carry the one method it belongs to. All amounts are integer
// millisatoshis unless a field says otherwise.
type RequestParams interface {
	Method() string
}

type PayInvoiceParams struct {
	Invoice  string  `json:"invoice"`
	ID       string  `json:"id,omitempty"`
	Amount   *uint64 `json:"amount,omitempty"` // msat, only for zero-amount invoices
	Metadata any     `json:"metadata,omitempty"`
}

func (PayInvoiceParams) Method() string { return MethodPayInvoice }

type MakeInvoiceParams struct {
	Amount          uint64  `json:"amount"` // msat
	Description     string  `json:"description,omitempty"`
	DescriptionHash string  `json:"description_hash,omitempty"`
	Expiry          *uint32 `json:"expiry,omitempty"` // seconds
	Metadata        any     `json:"metadata,omitempty"`
}

func (MakeInvoiceParams) Method() string { return MethodMakeInvoice }

type LookupInvoiceParams struct {
	PaymentHash string `json:"payment_hash,omitempty"`
	Invoice     string `json:"invoice,omitempty"`
}

func (LookupInvoiceParams) Method() string { return MethodLookupInvoice }

type ListTransactionsParams struct {
	From           uint64 `json:"from,omitempty"` // unix seconds
	Until          uint64 `json:"until,omitempty"`
	Limit          uint16 `json:"limit,omitempty"`
	Offset         uint32 `json:"offset,omitempty"`
	Unpaid         bool   `json:"unpaid,omitempty"`
	UnpaidOutgoing bool   `json:"unpaid_outgoing,omitempty"`
	UnpaidIncoming bool   `json:"unpaid_incoming,omitempty"`
	Type           string `json:"type,omitempty"` // "incoming" or "outgoing"
}

func (ListTransactionsParams) Method() string { return MethodListTransactions }

// TLVRecord is a custom keysend TLV, value hex-encoded.
type TLVRecord struct {
	Type  uint64 `json:"type"`
	Value string `json:"value"`
}

type PayKeysendParams struct {
	Amount     uint64      `json:"amount"` // msat
	Pubkey     string      `json:"pubkey"`
	ID         string      `json:"id,omitempty"`
	Preimage   string      `json:"preimage,omitempty"`
	TLVRecords []TLVRecord `json:"tlv_records,omitempty"`
}

func (PayKeysendParams) Method() string { return MethodPayKeysend }

type GetInfoResult struct {
	Alias         string   `json:"alias"`
	Color         string   `json:"color"`
	Pubkey        string   `json:"pubkey"`
	Network       string   `json:"network"`
	BlockHeight   uint     `json:"block_height"`
	BlockHash     string   `json:"block_hash"`
	Methods       []string `json:"methods"`
	Notifications []string `json:"notifications"`
}

type GetBalanceResult struct {
	Balance uint64 `json:"balance"` // msat
}

type PayInvoiceResult struct {
	Preimage string `json:"preimage"`
	FeesPaid uint64 `json:"fees_paid"` // msat
}

type PayKeysendResult = PayInvoiceResult

type Transaction struct {
	Type            string  `json:"type"`
	State           string  `json:"state"`
	Invoice         string  `json:"invoice"`
	Description     string  `json:"description"`
	DescriptionHash string  `json:"description_hash"`
	Preimage        string  `json:"preimage"`
	PaymentHash     string  `json:"payment_hash"`
	Amount          uint64  `json:"amount"`    // msat
	FeesPaid        uint64  `json:"fees_paid"` // msat
	CreatedAt       uint64  `json:"created_at"`
	ExpiresAt       uint64  `json:"expires_at"`
	SettledAt       *uint64 `json:"settled_at"`
	Metadata        any     `json:"metadata"`
}

type MakeInvoiceResult = Transaction
type LookupInvoiceResult = Transaction

type ListTransactionsResult struct {
	Transactions []Transaction `json:"transactions"`
	TotalCount   uint32        `json:"total_count"`
}
