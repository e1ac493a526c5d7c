package audit

import "time"

// Event is an append-only audit record of a privileged action.
//
// Invariants:
// - Events are never updated or deleted.
// - Actor and IP capture are best-effort; audit failures never block the action.
type Event struct {
	ID   string    `json:"id"`
	Type EventType `json:"type"`

	ActorID   string `json:"actor_id,omitempty"`
	ActorRole string `json:"actor_role,omitempty"`
	IPAddress string `json:"ip_address,omitempty"`

	// AccountID is the account the action was applied to.
	AccountID string `json:"account_id,omitempty"`
	// Ref points at the affected record (transaction id, phone number, message id).
	Ref string `json:"ref,omitempty"`

	Message string `json:"message,omitempty"`

	// Metadata is a JSON object with full details.
	Metadata string `json:"metadata,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

type EventType string

const (
	EventWalletAdjust  EventType = "wallet_adjust"
	EventNumberChange  EventType = "number_change"
	EventAccountDelete EventType = "account_delete"
	EventAdminSend     EventType = "admin_send"
)

// Actor is who performed an action.
type Actor struct {
	ID   string
	Role string
	IP   string
}
