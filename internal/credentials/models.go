package credentials

import "time"

// Credentials are an account's own provider login. Only main and admin
// accounts hold them; sub-accounts borrow their parent's.
type Credentials struct {
	AccountID   string
	AccountSID  string
	AuthToken   string
	PhoneNumber string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Status is what clients see. The auth token never leaves the server.
type Status struct {
	Connected   bool       `json:"connected"`
	AccountSID  string     `json:"account_sid,omitempty"`
	PhoneNumber string     `json:"phone_number,omitempty"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

func (c Credentials) Status() Status {
	updated := c.UpdatedAt
	return Status{Connected: true, AccountSID: c.AccountSID, PhoneNumber: c.PhoneNumber, UpdatedAt: &updated}
}

type Input struct {
	AccountSID  string
	AuthToken   string
	PhoneNumber string
}
