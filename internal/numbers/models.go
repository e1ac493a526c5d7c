package numbers

import "time"

// PhoneNumber is a rented number. OwnerID is a main or admin account; AssignedTo,
// when set, is a sub-account of the owner.
type PhoneNumber struct {
	ID          string    `json:"id"`
	PhoneNumber string    `json:"phone_number"`
	Country     string    `json:"country"`
	OwnerID     string    `json:"owner_id"`
	AssignedTo  string    `json:"assigned_to,omitempty"`
	ProviderID  string    `json:"provider_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// UsableBy reports whether accountID may send from or read this number.
func (n PhoneNumber) UsableBy(accountID string) bool {
	return accountID != "" && (n.OwnerID == accountID || n.AssignedTo == accountID)
}
