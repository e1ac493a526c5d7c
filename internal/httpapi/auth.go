package httpapi

import (
	"net/http"
	"time"

	"sms-platform/internal/accounts"
	"sms-platform/internal/auth"

	"github.com/gin-gonic/gin"
)

type signupRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type sessionResponse struct {
	auth.TokenPair
	Account accounts.Account `json:"account"`
}

// POST /v1/auth/signup
func (h *Handlers) Signup(c *gin.Context) {
	var req signupRequest
	if !bind(c, &req) {
		return
	}
	a, err := h.Accounts.Signup(c.Request.Context(), accounts.NewAccount{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	h.issue(c, http.StatusCreated, a)
}

// POST /v1/auth/login
func (h *Handlers) Login(c *gin.Context) {
	var req loginRequest
	if !bind(c, &req) {
		return
	}
	a, err := h.Accounts.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	h.issue(c, http.StatusOK, a)
}

// POST /v1/auth/refresh
// Role and parent are re-read from the account, so a deleted account cannot refresh.
func (h *Handlers) Refresh(c *gin.Context) {
	var req refreshRequest
	if !bind(c, &req) {
		return
	}
	claims, err := h.Auth.Verify(req.RefreshToken, auth.TokenTypeRefresh, time.Now())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
		return
	}
	a, err := h.Accounts.Get(c.Request.Context(), claims.AccountID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
		return
	}
	h.issue(c, http.StatusOK, a)
}

func (h *Handlers) issue(c *gin.Context, status int, a accounts.Account) {
	pair, err := h.Auth.IssuePair(time.Now(), auth.Identity{
		AccountID: a.ID,
		ParentID:  a.ParentID,
		Role:      string(a.Role),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(status, sessionResponse{TokenPair: pair, Account: a})
}

// GET /v1/me
func (h *Handlers) Me(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}
	a, err := h.Accounts.Get(c.Request.Context(), id.AccountID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}
