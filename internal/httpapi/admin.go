package httpapi

import (
	"net/http"

	"sms-platform/internal/wallet"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type walletAdjustRequest struct {
	// Delta is a signed major-unit amount.
	Delta  decimal.Decimal `json:"delta"`
	Reason string          `json:"reason"`
}

type adminNumberRequest struct {
	PhoneNumber string `json:"phone_number" validate:"required"`
}

type adminAddNumberRequest struct {
	OwnerID     string `json:"owner_id" validate:"required"`
	PhoneNumber string `json:"phone_number" validate:"required"`
	Country     string `json:"country"`
}

type adminAssignRequest struct {
	PhoneNumber  string `json:"phone_number" validate:"required"`
	SubAccountID string `json:"sub_account_id" validate:"required"`
}

type adminTransferRequest struct {
	PhoneNumber string `json:"phone_number" validate:"required"`
	NewOwnerID  string `json:"new_owner_id" validate:"required"`
}

type adminSendRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
	Body string `json:"body"`
}

// GET /v1/admin/users
func (h *Handlers) AdminUsers(c *gin.Context) {
	rows, err := h.Admin.Users(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": rows})
}

// GET /v1/admin/users/:id
func (h *Handlers) AdminUser(c *gin.Context) {
	d, err := h.Admin.User(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// DELETE /v1/admin/users/:id
func (h *Handlers) AdminDeleteUser(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}
	if err := h.Admin.DeleteUser(c.Request.Context(), actor(c, id), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /v1/admin/users/:id/wallet-adjust
func (h *Handlers) AdminWalletAdjust(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}
	var req walletAdjustRequest
	if !bind(c, &req) {
		return
	}
	var delta int64
	if !req.Delta.IsZero() {
		var err error
		if delta, err = wallet.SignedMinorFromDecimal(req.Delta); err != nil {
			writeError(c, err)
			return
		}
	}
	tx, err := h.Admin.WalletAdjust(c.Request.Context(), actor(c, id), c.Param("id"), delta, req.Reason)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tx)
}

// GET /v1/admin/users/:id/audit
func (h *Handlers) AdminAuditLog(c *gin.Context) {
	events, err := h.Admin.AuditLog(c.Request.Context(), c.Param("id"), queryLimit(c, 100, 500))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

// GET /v1/admin/numbers
func (h *Handlers) AdminNumbers(c *gin.Context) {
	rows, err := h.Admin.Numbers(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"numbers": rows})
}

// POST /v1/admin/numbers
func (h *Handlers) AdminAddNumber(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}
	var req adminAddNumberRequest
	if !bind(c, &req) {
		return
	}
	n, err := h.Admin.AddNumber(c.Request.Context(), actor(c, id), req.OwnerID, req.PhoneNumber, req.Country)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, n)
}

// POST /v1/admin/numbers/assign
func (h *Handlers) AdminAssignNumber(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}
	var req adminAssignRequest
	if !bind(c, &req) {
		return
	}
	n, err := h.Admin.AssignNumber(c.Request.Context(), actor(c, id), req.PhoneNumber, req.SubAccountID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, n)
}

// POST /v1/admin/numbers/unassign
func (h *Handlers) AdminUnassignNumber(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}
	var req adminNumberRequest
	if !bind(c, &req) {
		return
	}
	n, err := h.Admin.UnassignNumber(c.Request.Context(), actor(c, id), req.PhoneNumber)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, n)
}

// POST /v1/admin/numbers/transfer
func (h *Handlers) AdminTransferNumber(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}
	var req adminTransferRequest
	if !bind(c, &req) {
		return
	}
	n, err := h.Admin.TransferNumber(c.Request.Context(), actor(c, id), req.PhoneNumber, req.NewOwnerID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, n)
}

// POST /v1/admin/messages/send
// Field presence is checked by the service so the error names all three.
func (h *Handlers) AdminSendMessage(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}
	var req adminSendRequest
	if !bind(c, &req) {
		return
	}
	m, err := h.Admin.SendMessage(c.Request.Context(), actor(c, id), req.From, req.To, req.Body)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, m)
}
