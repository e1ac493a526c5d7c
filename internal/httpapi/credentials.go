package httpapi

import (
	"net/http"

	"sms-platform/internal/credentials"

	"github.com/gin-gonic/gin"
)

type credentialsRequest struct {
	AccountSID  string `json:"account_sid" validate:"required"`
	AuthToken   string `json:"auth_token" validate:"required"`
	PhoneNumber string `json:"phone_number"`
}

// GET /v1/provider/credentials
func (h *Handlers) GetProviderCredentials(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}
	st, err := h.Credentials.Status(c.Request.Context(), id.AccountID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// POST /v1/provider/credentials
func (h *Handlers) SaveProviderCredentials(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}
	var req credentialsRequest
	if !bind(c, &req) {
		return
	}
	st, err := h.Credentials.Save(c.Request.Context(), id.AccountID, credentials.Input{
		AccountSID:  req.AccountSID,
		AuthToken:   req.AuthToken,
		PhoneNumber: req.PhoneNumber,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// DELETE /v1/provider/credentials
func (h *Handlers) DisconnectProvider(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}
	if err := h.Credentials.Disconnect(c.Request.Context(), id.AccountID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"connected": false})
}

// POST /v1/provider/credentials/test
func (h *Handlers) TestProviderCredentials(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}
	if err := h.Credentials.Test(c.Request.Context(), id.AccountID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
