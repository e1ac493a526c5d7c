package telephony

import (
	"context"
	"errors"
	"net/http"

	"sms-platform/pkg/logger"

	"github.com/gin-gonic/gin"
)

// MessageSink receives parsed webhook events. Implemented by the messaging service.
type MessageSink interface {
	Receive(ctx context.Context, in InboundSMS) error
	UpdateStatus(ctx context.Context, providerSID, status, errorCode string) error
}

// WebhookHandler converts provider webhooks to internal types, delegates to the
// sink and acknowledges with TwiML.
//
// No business logic here.
type WebhookHandler struct {
	Sink MessageSink
}

func (h WebhookHandler) HandleInboundSMS(c *gin.Context) {
	log := logger.FromGin(c)

	if h.Sink == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "message sink not configured"})
		return
	}

	in, err := ParseInboundSMS(c.Request)
	if err != nil {
		log.Warn("inbound sms parse failed", "err", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid form"})
		return
	}

	// Providers retry on non-2xx; incomplete or unstorable events are acknowledged and logged.
	if !in.Complete() {
		log.Warn("inbound sms missing fields", "message_sid", in.MessageSID)
	} else if err := h.Sink.Receive(c.Request.Context(), in); err != nil {
		log.Error("inbound sms store failed", "message_sid", in.MessageSID, "err", err)
	}
	writeTwiML(c)
}

func (h WebhookHandler) HandleStatus(c *gin.Context) {
	log := logger.FromGin(c)

	if h.Sink == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "message sink not configured"})
		return
	}

	st, err := ParseStatusCallback(c.Request)
	if err != nil {
		if errors.Is(err, ErrMissingMessageSID) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "MessageSid required"})
			return
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid form"})
		return
	}

	if err := h.Sink.UpdateStatus(c.Request.Context(), st.MessageSID, st.Status, st.ErrorCode); err != nil {
		log.Error("status update failed", "message_sid", st.MessageSID, "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "status update failed"})
		return
	}
	writeTwiML(c)
}

// RequireSignature rejects webhook requests whose X-Twilio-Signature does not match.
// publicBaseURL, when set, replaces scheme and host since the app usually sits behind a proxy.
func RequireSignature(authToken, publicBaseURL string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := c.Request.ParseForm(); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid form"})
			return
		}

		fullURL := publicBaseURL + c.Request.URL.RequestURI()
		if publicBaseURL == "" {
			scheme := "https"
			if c.Request.TLS == nil && c.GetHeader("X-Forwarded-Proto") != "https" {
				scheme = "http"
			}
			fullURL = scheme + "://" + c.Request.Host + c.Request.URL.RequestURI()
		}

		if !ValidSignature(authToken, fullURL, c.Request.PostForm, c.GetHeader("X-Twilio-Signature")) {
			logger.FromGin(c).Warn("webhook signature rejected", "path", c.Request.URL.Path)
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "invalid signature"})
			return
		}
		c.Next()
	}
}

func writeTwiML(c *gin.Context) {
	c.Header("Content-Type", "application/xml")
	c.String(http.StatusOK, EmptyResponse)
}
