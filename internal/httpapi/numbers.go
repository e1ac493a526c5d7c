package httpapi

import (
	"net/http"
	"strings"

	"sms-platform/internal/telephony"

	"github.com/gin-gonic/gin"
)

type purchaseRequest struct {
	PhoneNumber string `json:"phone_number" validate:"required"`
}

type addExistingRequest struct {
	PhoneNumber string `json:"phone_number" validate:"required"`
	Country     string `json:"country"`
}

type assignRequest struct {
	NumberID     string `json:"number_id" validate:"required"`
	SubAccountID string `json:"sub_account_id" validate:"required"`
}

type unassignRequest struct {
	NumberID string `json:"number_id" validate:"required"`
}

// GET /v1/numbers
func (h *Handlers) ListNumbers(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}
	list, err := h.Numbers.ListFor(c.Request.Context(), id.AccountID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"numbers": list})
}

// GET /v1/numbers/search?country=&region=&limit=
func (h *Handlers) SearchNumbers(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}
	country := strings.ToUpper(strings.TrimSpace(c.DefaultQuery("country", "US")))
	found, err := h.Numbers.Search(c.Request.Context(), id.AccountID, telephony.SearchRequest{
		Country: country,
		Region:  strings.TrimSpace(c.Query("region")),
		Limit:   queryLimit(c, 20, 50),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"numbers": found})
}

// POST /v1/numbers/purchase
func (h *Handlers) PurchaseNumber(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}
	var req purchaseRequest
	if !bind(c, &req) {
		return
	}
	n, tx, err := h.Numbers.Purchase(c.Request.Context(), id.AccountID, req.PhoneNumber)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"number": n, "transaction": tx})
}

// POST /v1/numbers/add-existing
func (h *Handlers) AddExistingNumber(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}
	var req addExistingRequest
	if !bind(c, &req) {
		return
	}
	n, err := h.Numbers.AddExisting(c.Request.Context(), id.AccountID, req.PhoneNumber, req.Country)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, n)
}

// POST /v1/numbers/assign
func (h *Handlers) AssignNumber(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}
	var req assignRequest
	if !bind(c, &req) {
		return
	}
	n, err := h.Numbers.Assign(c.Request.Context(), id.AccountID, req.NumberID, req.SubAccountID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, n)
}

// POST /v1/numbers/unassign
func (h *Handlers) UnassignNumber(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}
	var req unassignRequest
	if !bind(c, &req) {
		return
	}
	n, err := h.Numbers.Unassign(c.Request.Context(), id.AccountID, req.NumberID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, n)
}
