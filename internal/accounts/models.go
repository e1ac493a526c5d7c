package accounts

import (
	"time"

	"sms-platform/internal/pricing"
)

type Role string

const (
	RoleMain  Role = "main"
	RoleSub   Role = "sub"
	RoleAdmin Role = "admin"
)

// Account is a tenant (main), a delegated sub-account (sub) or an operator (admin).
// Money lives in the wallet keyed by the same id.
type Account struct {
	ID           string       `json:"id"`
	Email        string       `json:"email"`
	PasswordHash string       `json:"-"`
	FirstName    string       `json:"first_name,omitempty"`
	LastName     string       `json:"last_name,omitempty"`
	Phone        string       `json:"phone,omitempty"`
	Role         Role         `json:"role"`
	ParentID     string       `json:"parent_id,omitempty"`
	Plan         pricing.Plan `json:"plan"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// Kind is the closed set of account variants. Callers branch on capabilities,
// not on role strings.
type Kind interface {
	Role() Role
	// OwnsNumbers is true when numbers are held by ownership rather than assignment.
	OwnsNumbers() bool
	// CanManageSubs covers creating sub-accounts, funding them and assigning numbers to them.
	CanManageSubs() bool
	// CanPurchase covers buying numbers, selecting plans and topping up the wallet.
	CanPurchase() bool

	sealed()
}

type Main struct{}

type Sub struct{ Parent string }

type Admin struct{}

func (Main) Role() Role          { return RoleMain }
func (Main) OwnsNumbers() bool   { return true }
func (Main) CanManageSubs() bool { return true }
func (Main) CanPurchase() bool   { return true }
func (Main) sealed()             {}

func (Sub) Role() Role          { return RoleSub }
func (Sub) OwnsNumbers() bool   { return false }
func (Sub) CanManageSubs() bool { return false }
func (Sub) CanPurchase() bool   { return false }
func (Sub) sealed()             {}

func (Admin) Role() Role          { return RoleAdmin }
func (Admin) OwnsNumbers() bool   { return true }
func (Admin) CanManageSubs() bool { return false }
func (Admin) CanPurchase() bool   { return false }
func (Admin) sealed()             {}

// Kind returns the variant for a. Unknown roles are treated as Main, the default role at signup.
func (a Account) Kind() Kind {
	switch a.Role {
	case RoleSub:
		return Sub{Parent: a.ParentID}
	case RoleAdmin:
		return Admin{}
	default:
		return Main{}
	}
}

// IsSubOf reports whether a is a direct sub-account of parentID.
func (a Account) IsSubOf(parentID string) bool {
	s, ok := a.Kind().(Sub)
	return ok && parentID != "" && s.Parent == parentID
}

// Profile is the user-editable part of an account.
type Profile struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}
