package httpapi

import (
	"net/http"
	"time"

	"sms-platform/internal/messaging"
	"sms-platform/internal/reporting"

	"github.com/gin-gonic/gin"
)

type sendRequest struct {
	From string `json:"from"`
	To   string `json:"to" validate:"required"`
	Body string `json:"body" validate:"required"`
}

// POST /v1/messages/send
func (h *Handlers) SendMessage(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}
	var req sendRequest
	if !bind(c, &req) {
		return
	}
	m, err := h.Messages.Send(c.Request.Context(), id.AccountID, messaging.SendInput{
		From: req.From,
		To:   req.To,
		Body: req.Body,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, m)
}

// GET /v1/messages/history?number=&with=
func (h *Handlers) MessageHistory(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}
	number, with := c.Query("number"), c.Query("with")
	if number == "" || with == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "number and with required"})
		return
	}
	msgs, err := h.Messages.History(c.Request.Context(), id.AccountID, number, with)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// GET /v1/messages/recent?limit=
func (h *Handlers) RecentMessages(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}
	msgs, err := h.Messages.Recent(c.Request.Context(), id.AccountID, queryLimit(c, 20, 100))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// GET /v1/analytics/overview
func (h *Handlers) AnalyticsOverview(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}
	o, err := h.Reports.Overview(c.Request.Context(), id.AccountID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

// GET /v1/analytics/spend?from=&to=  (RFC 3339; defaults to the last 30 days)
func (h *Handlers) AnalyticsSpend(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}
	var r reporting.TimeRange
	for _, q := range []struct {
		name string
		dst  *time.Time
	}{{"from", &r.From}, {"to", &r.To}} {
		v := c.Query(q.name)
		if v == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": q.name + " must be RFC 3339"})
			return
		}
		*q.dst = t
	}
	s, err := h.Reports.SpendSummary(c.Request.Context(), id.AccountID, r)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}
