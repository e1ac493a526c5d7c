package auth

import "github.com/golang-jwt/jwt/v5"

type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Claims are the only supported JWT claims shape for this service.
// ParentID is carried for sub-accounts so handlers can scope without a lookup.
type Claims struct {
	jwt.RegisteredClaims

	AccountID string    `json:"account_id"`
	ParentID  string    `json:"parent_id,omitempty"`
	Role      string    `json:"role"`
	TokenType TokenType `json:"token_type"`
}
