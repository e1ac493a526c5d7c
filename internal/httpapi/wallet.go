package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"sms-platform/internal/payments"
	"sms-platform/internal/wallet"
	"sms-platform/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

const (
	defaultTxLimit = 100
	maxTxLimit     = 500
)

type transferRequest struct {
	SubAccountID string          `json:"sub_account_id" validate:"required"`
	Amount       decimal.Decimal `json:"amount"`
}

type checkoutRequest struct {
	Method string          `json:"method" validate:"required,oneof=jazzcash easypaisa"`
	Amount decimal.Decimal `json:"amount"`
}

// GET /v1/wallet/summary
func (h *Handlers) WalletSummary(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}
	s, err := h.Ledger.Summary(c.Request.Context(), id.AccountID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"summary": s,
		"balance": wallet.FormatMinor(s.BalanceMinor),
		"total":   wallet.FormatMinor(s.TotalMinor),
	})
}

// GET /v1/wallet/transactions?limit=
func (h *Handlers) WalletTransactions(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}
	limit := queryLimit(c, defaultTxLimit, maxTxLimit)
	txs, err := h.Ledger.Transactions(c.Request.Context(), id.AccountID, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": txs})
}

// POST /v1/wallet/transfer
func (h *Handlers) WalletTransfer(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}
	var req transferRequest
	if !bind(c, &req) {
		return
	}
	amount, err := wallet.MinorFromDecimal(req.Amount)
	if err != nil {
		writeError(c, err)
		return
	}
	tr, err := h.Ledger.TransferToSub(c.Request.Context(), id.AccountID, req.SubAccountID, amount)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tr)
}

// POST /v1/wallet/checkout
// An unconfigured method answers 501 but still returns the recorded checkout id.
func (h *Handlers) WalletCheckout(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}
	var req checkoutRequest
	if !bind(c, &req) {
		return
	}
	amount, err := wallet.MinorFromDecimal(req.Amount)
	if err != nil {
		writeError(c, err)
		return
	}
	co, redirect, err := h.Payments.Start(c.Request.Context(), id.AccountID, payments.Method(req.Method), amount)
	if errors.Is(err, payments.ErrMethodNotConfigured) {
		c.AbortWithStatusJSON(http.StatusNotImplemented, gin.H{"error": err.Error(), "checkoutId": co.ID})
		return
	}
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"checkout": co, "redirect": redirect})
}

// GET /v1/wallet/checkouts
func (h *Handlers) ListCheckouts(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}
	list, err := h.Payments.List(c.Request.Context(), id.AccountID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"checkouts": list})
}

// GET /v1/wallet/checkouts/:id
func (h *Handlers) GetCheckout(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}
	co, err := h.Payments.Get(c.Request.Context(), id.AccountID, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, co)
}

// POST /webhooks/jazzcash/return
// The gateway posts its result form here. The signature is the only authentication.
func (h *Handlers) JazzCashReturn(c *gin.Context) {
	if err := c.Request.ParseForm(); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid form"})
		return
	}
	fields := make(map[string]string, len(c.Request.PostForm))
	for k := range c.Request.PostForm {
		fields[k] = c.Request.PostForm.Get(k)
	}
	co, err := h.Payments.CompleteJazzCash(c.Request.Context(), fields)
	if err != nil {
		logger.FromGin(c).Warn("jazzcash return rejected", "ref", fields["pp_TxnRefNo"], "err", err)
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"checkoutId": co.ID, "status": co.Status})
}

func queryLimit(c *gin.Context, def, ceiling int) int {
	n, err := strconv.Atoi(c.Query("limit"))
	if err != nil || n <= 0 {
		return def
	}
	if n > ceiling {
		return ceiling
	}
	return n
}
