package httpapi

import (
	"net/http"

	"sms-platform/internal/accounts"
	"sms-platform/internal/pricing"
	"sms-platform/internal/wallet"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type profileRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

type subAccountRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	// WalletLimit is a major-unit amount; omitted means no limit.
	WalletLimit *decimal.Decimal `json:"wallet_limit"`
}

type walletLimitRequest struct {
	// Null clears the limit.
	WalletLimit *decimal.Decimal `json:"wallet_limit"`
}

type planRequest struct {
	Plan string `json:"plan" validate:"required"`
}

func limitMinor(d *decimal.Decimal) (*int64, error) {
	if d == nil {
		return nil, nil
	}
	m, err := wallet.MinorFromDecimal(*d)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// GET /v1/profile
func (h *Handlers) GetProfile(c *gin.Context) {
	h.Me(c)
}

// POST /v1/profile
func (h *Handlers) UpdateProfile(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}
	var req profileRequest
	if !bind(c, &req) {
		return
	}
	a, err := h.Accounts.UpdateProfile(c.Request.Context(), id.AccountID, accounts.Profile{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

// GET /v1/sub-accounts
func (h *Handlers) ListSubAccounts(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}
	subs, err := h.Accounts.ListSubs(c.Request.Context(), id.AccountID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sub_accounts": subs})
}

// POST /v1/sub-accounts
func (h *Handlers) CreateSubAccount(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}
	var req subAccountRequest
	if !bind(c, &req) {
		return
	}
	limit, err := limitMinor(req.WalletLimit)
	if err != nil {
		writeError(c, err)
		return
	}
	sub, err := h.Accounts.CreateSub(c.Request.Context(), id.AccountID, accounts.NewAccount{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
	}, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sub)
}

// POST /v1/sub-accounts/:id/limit
func (h *Handlers) SetSubAccountLimit(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}
	var req walletLimitRequest
	if !bind(c, &req) {
		return
	}
	limit, err := limitMinor(req.WalletLimit)
	if err != nil {
		writeError(c, err)
		return
	}
	subID := c.Param("id")
	if err := h.Accounts.SetWalletLimit(c.Request.Context(), id.AccountID, subID, limit); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"account_id": subID, "limit_minor": limit})
}

// GET /v1/plans
func (h *Handlers) Plans(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"plans":                h.Prices.Catalog(),
		"number_monthly_minor": h.Prices.NumberRent(),
		"sms_price_minor":      h.Prices.SMSPrice(),
	})
}

// POST /v1/plan
func (h *Handlers) SelectPlan(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}
	var req planRequest
	if !bind(c, &req) {
		return
	}
	plan, ok := pricing.ParsePlan(req.Plan)
	if !ok {
		writeError(c, pricing.ErrUnknownPlan)
		return
	}
	a, tx, err := h.Accounts.SetPlan(c.Request.Context(), id.AccountID, plan)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"account": a, "transaction": tx})
}
