package wallet

import (
	"context"
	"net/http"

	"sms-platform/internal/auth"
	"sms-platform/internal/rbac"

	"github.com/gin-gonic/gin"
)

// BalanceReader is the minimal ledger interface needed by middleware.
type BalanceReader interface {
	Balance(ctx context.Context, accountID string) (Wallet, error)
}

// RequireSufficientBalance rejects a request early with 402 when the caller's
// balance is below costMinor. It is an early exit only; the ledger still
// re-checks atomically when the charge is applied.
//
// admin bypasses. A zero cost disables the check.
func RequireSufficientBalance(svc BalanceReader, costMinor int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if costMinor <= 0 {
			c.Next()
			return
		}
		id, ok := auth.IdentityFrom(c.Request.Context())
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "account required"})
			return
		}
		if rbac.IsAdmin(id.Role) {
			c.Next()
			return
		}

		w, err := svc.Balance(c.Request.Context(), id.AccountID)
		if err != nil {
			if err == ErrAccountNotFound {
				c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": err.Error()})
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "balance lookup failed"})
			return
		}
		if w.BalanceMinor < costMinor {
			c.AbortWithStatusJSON(http.StatusPaymentRequired, gin.H{"error": ErrInsufficientFunds.Error()})
			return
		}

		c.Next()
	}
}
