package stream

import (
	"context"
	"io"
	"net/http"
	"time"

	"sms-platform/internal/auth"
	"sms-platform/pkg/logger"

	"github.com/gin-gonic/gin"
)

const defaultHeartbeat = 30 * time.Second

// Handler serves the live message stream as text/event-stream with the
// events hello, message and ping.
type Handler struct {
	Hub *Hub
	// Slots is optional; nil means no per-account cap.
	Slots     SlotLimiter
	Heartbeat time.Duration
}

func (h Handler) Serve(c *gin.Context) {
	log := logger.FromGin(c)
	ctx := c.Request.Context()

	acct, err := auth.AccountID(ctx)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	if h.Slots != nil {
		ok, err := h.Slots.Acquire(ctx, acct)
		switch {
		case err != nil:
			// Redis trouble should not take live updates down with it.
			log.Warn("stream slot acquire failed", "err", err)
		case !ok:
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many open streams"})
			return
		default:
			defer func() {
				if err := h.Slots.Release(context.WithoutCancel(ctx), acct); err != nil {
					log.Warn("stream slot release failed", "err", err)
				}
			}()
		}
	}

	heartbeat := h.Heartbeat
	if heartbeat <= 0 {
		heartbeat = defaultHeartbeat
	}

	sub := h.Hub.Subscribe(acct)
	defer h.Hub.Unsubscribe(sub)
	log.Debug("stream opened")

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.SSEvent("hello", gin.H{"ok": true})
	c.Writer.Flush()

	ticker := time.NewTicker(heartbeat)
	defer ticker.Stop()

	gone := c.Stream(func(io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case m, ok := <-sub.Events():
			if !ok {
				return false
			}
			c.SSEvent("message", m)
			return true
		case <-ticker.C:
			c.SSEvent("ping", gin.H{})
			if h.Slots != nil {
				if err := h.Slots.Refresh(ctx, acct); err != nil {
					log.Warn("stream slot refresh failed", "err", err)
				}
			}
			return true
		}
	})
	log.Debug("stream closed", "client_gone", gone, "state", h.Hub.State(sub).String())
}
