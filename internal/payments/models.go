package payments

import "time"

type Method string

const (
	MethodJazzCash  Method = "jazzcash"
	MethodEasyPaisa Method = "easypaisa"
)

func ParseMethod(s string) (Method, bool) {
	switch Method(s) {
	case MethodJazzCash, MethodEasyPaisa:
		return Method(s), true
	}
	return "", false
}

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Checkout is one wallet top-up attempt. It leaves pending exactly once.
type Checkout struct {
	ID          string `json:"id"`
	AccountID   string `json:"account_id"`
	AmountMinor int64  `json:"amount_minor"`
	Method      Method `json:"method"`
	Status      Status `json:"status"`

	// ProviderRef is the reference the gateway echoes back (pp_TxnRefNo for JazzCash).
	ProviderRef string `json:"provider_ref,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Redirect is what the client posts to the gateway to continue a checkout.
type Redirect struct {
	URL    string            `json:"url"`
	Fields map[string]string `json:"fields"`
}
