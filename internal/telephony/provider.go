package telephony

import (
	"context"
	"errors"
	"fmt"
)

// Provider is the provider-agnostic SMS surface used by business logic.
//
// Rules:
// - No provider REST calls outside telephony adapters.
// - Numbers crossing this boundary are E.164.
type Provider interface {
	Name() string
	HealthCheck(ctx context.Context) error

	SendSMS(ctx context.Context, req SendRequest) (SendResult, error)

	SearchNumbers(ctx context.Context, req SearchRequest) ([]string, error)
	BuyNumber(ctx context.Context, phoneNumber string) (BuyResult, error)
	ReleaseNumber(ctx context.Context, providerID string) error
}

type SendRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
	Body string `json:"body"`

	// StatusCallback is optional; when set the provider posts delivery receipts there.
	StatusCallback string `json:"status_callback,omitempty"`
}

type SendResult struct {
	// SID is the provider's message identifier, used to match status callbacks.
	SID    string `json:"sid"`
	Status string `json:"status"`
}

type SearchRequest struct {
	// Country is ISO-3166 alpha-2, upper case. Defaults to US.
	Country string `json:"country"`
	// Region narrows the search to a state/province code.
	Region string `json:"region,omitempty"`
	Limit  int    `json:"limit"`
}

type BuyResult struct {
	PhoneNumber string `json:"phone_number"`
	ProviderID  string `json:"provider_id"`
}

var (
	ErrNotConfigured = errors.New("telephony: provider credentials not configured")
	ErrUnavailable   = errors.New("telephony: provider temporarily unavailable")
)

// ProviderError carries the upstream HTTP status and body.
type ProviderError struct {
	Provider string
	Status   int
	Body     string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s error %d: %s", e.Provider, e.Status, e.Body)
}

// Unauthorized reports whether the provider rejected our credentials.
func (e *ProviderError) Unauthorized() bool { return e.Status == 401 }
