package wallet

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"sms-platform/internal/auth"
	"sms-platform/internal/rbac"

	"github.com/gin-gonic/gin"
)

type fakeBalanceReader struct {
	w   Wallet
	err error
}

func (f fakeBalanceReader) Balance(ctx context.Context, accountID string) (Wallet, error) {
	return f.w, f.err
}

func serveWithBalance(t *testing.T, role string, bal int64, cost int64) int {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	svc := fakeBalanceReader{w: Wallet{AccountID: "a1", BalanceMinor: bal}}
	r.POST("/send", func(c *gin.Context) {
		ctx := auth.WithIdentity(c.Request.Context(), auth.Identity{AccountID: "a1", Role: role})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}, RequireSufficientBalance(svc, cost), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/send", nil))
	return w.Code
}

func TestRequireSufficientBalance_BlocksWhenInsufficient(t *testing.T) {
	if code := serveWithBalance(t, rbac.RoleMain, 4, 5); code != http.StatusPaymentRequired {
		t.Fatalf("expected 402, got %d", code)
	}
}

func TestRequireSufficientBalance_AllowsExactBalance(t *testing.T) {
	if code := serveWithBalance(t, rbac.RoleSub, 5, 5); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
}

func TestRequireSufficientBalance_AdminBypasses(t *testing.T) {
	if code := serveWithBalance(t, rbac.RoleAdmin, 0, 5); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
}

func TestRequireSufficientBalance_FreeMessagesSkipCheck(t *testing.T) {
	if code := serveWithBalance(t, rbac.RoleMain, 0, 0); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
}
