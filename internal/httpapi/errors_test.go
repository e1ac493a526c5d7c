package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"sms-platform/internal/accounts"
	"sms-platform/internal/credentials"
	"sms-platform/internal/numbers"
	"sms-platform/internal/telephony"
	"sms-platform/internal/wallet"
)

func TestStatusFor(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"invalid amount", wallet.ErrInvalidAmount, http.StatusBadRequest},
		{"insufficient funds", wallet.ErrInsufficientFunds, http.StatusPaymentRequired},
		{"limit", wallet.ErrLimitExceeded, http.StatusConflict},
		{"not a sub", wallet.ErrNotASubAccount, http.StatusForbidden},
		{"wrapped not found", fmt.Errorf("load: %w", wallet.ErrAccountNotFound), http.StatusNotFound},
		{"number exists", numbers.ErrNumberExists, http.StatusConflict},
		{"provider 401", &telephony.ProviderError{Status: 401}, http.StatusUnauthorized},
		{"provider 500", fmt.Errorf("send: %w", &telephony.ProviderError{Status: 500}), http.StatusBadGateway},
		{"breaker open", telephony.ErrUnavailable, http.StatusServiceUnavailable},
		{"admin promotion refused", accounts.ErrCannotPromote, http.StatusConflict},
		{"no own credentials", credentials.ErrNotFound, http.StatusBadRequest},
		{"sub manages credentials", credentials.ErrForbidden, http.StatusForbidden},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := statusFor(tc.err); got != tc.want {
			t.Errorf("%s: got %d want %d", tc.name, got, tc.want)
		}
	}
}
