package httpapi

import (
	"errors"
	"net/http"

	"sms-platform/internal/accounts"
	"sms-platform/internal/admin"
	"sms-platform/internal/auth"
	"sms-platform/internal/credentials"
	"sms-platform/internal/messaging"
	"sms-platform/internal/numbers"
	"sms-platform/internal/payments"
	"sms-platform/internal/pricing"
	"sms-platform/internal/reporting"
	"sms-platform/internal/telephony"
	"sms-platform/internal/wallet"
	"sms-platform/pkg/logger"

	"github.com/gin-gonic/gin"
)

var errorStatus = []struct {
	err    error
	status int
}{
	{wallet.ErrInvalidAmount, http.StatusBadRequest},
	{wallet.ErrInsufficientFunds, http.StatusPaymentRequired},
	{wallet.ErrLimitExceeded, http.StatusConflict},
	{wallet.ErrNotASubAccount, http.StatusForbidden},
	{wallet.ErrAccountNotFound, http.StatusNotFound},

	{auth.ErrInvalidCredentials, http.StatusUnauthorized},
	{auth.ErrPasswordTooShort, http.StatusBadRequest},
	{pricing.ErrUnknownPlan, http.StatusBadRequest},

	{accounts.ErrNotFound, http.StatusNotFound},
	{accounts.ErrEmailTaken, http.StatusConflict},
	{accounts.ErrInvalidArgument, http.StatusBadRequest},
	{accounts.ErrForbidden, http.StatusForbidden},
	{accounts.ErrSubQuotaReached, http.StatusForbidden},
	{accounts.ErrNotYourSub, http.StatusForbidden},
	{accounts.ErrOwnsNumbers, http.StatusBadRequest},
	{accounts.ErrHasSubAccounts, http.StatusConflict},
	{accounts.ErrBalanceRemaining, http.StatusConflict},
	{accounts.ErrCannotPromote, http.StatusConflict},

	{numbers.ErrNotFound, http.StatusNotFound},
	{numbers.ErrNumberExists, http.StatusConflict},
	{numbers.ErrInvalidNumber, http.StatusBadRequest},
	{numbers.ErrForbidden, http.StatusForbidden},
	{numbers.ErrNotOwner, http.StatusForbidden},
	{numbers.ErrInvalidSubAccount, http.StatusBadRequest},
	{numbers.ErrInvalidOwner, http.StatusBadRequest},

	{messaging.ErrInvalidArgument, http.StatusBadRequest},
	{messaging.ErrNoSendingNumber, http.StatusBadRequest},
	{messaging.ErrNumberNotAllowed, http.StatusForbidden},

	{payments.ErrNotFound, http.StatusNotFound},
	{payments.ErrUnknownMethod, http.StatusBadRequest},
	{payments.ErrMethodNotConfigured, http.StatusNotImplemented},
	{payments.ErrBadSignature, http.StatusBadRequest},
	{payments.ErrAmountMismatch, http.StatusBadRequest},
	{payments.ErrForbidden, http.StatusForbidden},

	{admin.ErrZeroDelta, http.StatusBadRequest},
	{admin.ErrDeleteSelf, http.StatusBadRequest},
	{admin.ErrMissingFields, http.StatusBadRequest},
	{reporting.ErrInvalidRequest, http.StatusBadRequest},

	{credentials.ErrNotFound, http.StatusBadRequest},
	{credentials.ErrInvalidArgument, http.StatusBadRequest},
	{credentials.ErrForbidden, http.StatusForbidden},

	{telephony.ErrNotConfigured, http.StatusServiceUnavailable},
	{telephony.ErrUnavailable, http.StatusServiceUnavailable},
}

// statusFor maps a domain error to an HTTP status. Unknown errors are 500.
func statusFor(err error) int {
	var pe *telephony.ProviderError
	if errors.As(err, &pe) {
		if pe.Unauthorized() {
			return http.StatusUnauthorized
		}
		return http.StatusBadGateway
	}
	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			return e.status
		}
	}
	return http.StatusInternalServerError
}

// writeError aborts with the mapped status. Internal errors are logged and
// never echoed to the client.
func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.FromGin(c).Error("request failed", "err", err)
		c.AbortWithStatusJSON(status, gin.H{"error": "internal error"})
		return
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}
