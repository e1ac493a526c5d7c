package httpapi

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"sms-platform/internal/accounts"
	"sms-platform/internal/admin"
	"sms-platform/internal/audit"
	"sms-platform/internal/auth"
	"sms-platform/internal/credentials"
	"sms-platform/internal/messaging"
	"sms-platform/internal/numbers"
	"sms-platform/internal/payments"
	"sms-platform/internal/pricing"
	"sms-platform/internal/reporting"
	"sms-platform/internal/wallet"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.
type Handlers struct {
	Auth        *auth.Manager
	Accounts    *accounts.Service
	Ledger      *wallet.Ledger
	Numbers     *numbers.Service
	Messages    *messaging.Service
	Payments    *payments.Service
	Prices      *pricing.Service
	Reports     *reporting.Service
	Admin       *admin.Service
	Credentials *credentials.Service
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report JSON names so messages match what the client sent.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// bind decodes the JSON body into dst and validates it. It writes the 400 itself.
func bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return false
	}
	if err := validate.Struct(dst); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": validationMessage(err)})
		return false
	}
	return true
}

func validationMessage(err error) string {
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) || len(ves) == 0 {
		return "invalid request"
	}
	parts := make([]string, 0, len(ves))
	for _, fe := range ves {
		switch fe.Tag() {
		case "required":
			parts = append(parts, fe.Field()+" is required")
		case "email":
			parts = append(parts, fe.Field()+" must be an email address")
		case "min":
			parts = append(parts, fe.Field()+" must be at least "+fe.Param()+" characters")
		case "oneof":
			parts = append(parts, fe.Field()+" must be one of "+fe.Param())
		default:
			parts = append(parts, fe.Field()+" is invalid")
		}
	}
	return strings.Join(parts, "; ")
}

// caller returns the authenticated identity or writes a 401.
func caller(c *gin.Context) (auth.Identity, bool) {
	id, ok := auth.IdentityFrom(c.Request.Context())
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "account required"})
		return auth.Identity{}, false
	}
	return id, true
}

func actor(c *gin.Context, id auth.Identity) audit.Actor {
	return audit.Actor{ID: id.AccountID, Role: id.Role, IP: c.ClientIP()}
}

// ClientIP puts the resolved client IP on the request context for audit records.
func ClientIP() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(audit.WithClientIP(c.Request.Context(), c.ClientIP()))
		c.Next()
	}
}
