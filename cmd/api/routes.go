package main

import (
	"context"
	"net/http"

	"sms-platform/internal/httpapi"
	"sms-platform/internal/rbac"
	"sms-platform/internal/stream"
	"sms-platform/internal/telephony"
	"sms-platform/internal/wallet"
	"sms-platform/pkg/logger"
	"sms-platform/pkg/metrics"

	"github.com/gin-gonic/gin"
)

type routeDeps struct {
	handlers  *httpapi.Handlers
	authMW    gin.HandlerFunc
	streamMW  gin.HandlerFunc
	webhooks  telephony.WebhookHandler
	stream    stream.Handler
	limiter   *httpapi.SendLimiter
	health    func(ctx context.Context) error
	signature gin.HandlerFunc
}

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, d routeDeps) {
	h := d.handlers

	// public
	r.GET("/healthz", func(c *gin.Context) {
		if err := d.health(c.Request.Context()); err != nil {
			logger.FromGin(c).Warn("health check failed", "err", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	// Provider webhooks (public, optionally signature checked).
	hooks := r.Group("/webhooks")
	{
		sms := hooks.Group("/sms", d.signature)
		sms.POST("/inbound", d.webhooks.HandleInboundSMS)
		sms.POST("/status", d.webhooks.HandleStatus)

		hooks.POST("/jazzcash/return", h.JazzCashReturn)
	}

	authGroup := r.Group("/v1/auth")
	{
		authGroup.POST("/signup", h.Signup)
		authGroup.POST("/login", h.Login)
		authGroup.POST("/refresh", h.Refresh)
	}
	r.GET("/v1/plans", h.Plans)

	// The event stream is the only route that takes ?token=.
	r.GET("/v1/messages/stream", d.streamMW, rbac.RequireAccount(), d.stream.Serve)

	// protected API group
	v1 := r.Group("/v1")
	v1.Use(d.authMW, rbac.RequireAccount())
	{
		v1.GET("/me", h.Me)
		v1.GET("/profile", h.GetProfile)
		v1.POST("/profile", h.UpdateProfile)

		subs := v1.Group("/sub-accounts", rbac.RequireAnyRole(rbac.RoleMain))
		{
			subs.GET("", h.ListSubAccounts)
			subs.POST("", h.CreateSubAccount)
			subs.POST("/:id/limit", h.SetSubAccountLimit)
		}
		v1.POST("/plan", h.SelectPlan)

		// WALLET routes
		wallets := v1.Group("/wallet")
		{
			wallets.GET("/summary", h.WalletSummary)
			wallets.GET("/transactions", h.WalletTransactions)
			wallets.POST("/transfer", h.WalletTransfer)
			wallets.POST("/checkout", h.WalletCheckout)
			wallets.GET("/checkouts", h.ListCheckouts)
			wallets.GET("/checkouts/:id", h.GetCheckout)
		}

		nums := v1.Group("/numbers")
		{
			nums.GET("", h.ListNumbers)
			nums.GET("/search", h.SearchNumbers)
			nums.POST("/purchase", h.PurchaseNumber)
			nums.POST("/add-existing", h.AddExistingNumber)
			nums.POST("/assign", h.AssignNumber)
			nums.POST("/unassign", h.UnassignNumber)
		}

		// Own provider login, used for number search and purchase.
		provider := v1.Group("/provider/credentials")
		{
			provider.GET("", h.GetProviderCredentials)
			provider.POST("", h.SaveProviderCredentials)
			provider.DELETE("", h.DisconnectProvider)
			provider.POST("/test", h.TestProviderCredentials)
		}

		msgs := v1.Group("/messages")
		{
			msgs.POST("/send",
				d.limiter.Middleware(),
				wallet.RequireSufficientBalance(h.Ledger, h.Prices.SMSPrice()),
				h.SendMessage,
			)
			msgs.GET("/history", h.MessageHistory)
			msgs.GET("/recent", h.RecentMessages)
		}

		v1.GET("/analytics/overview", h.AnalyticsOverview)
		v1.GET("/analytics/spend", h.AnalyticsSpend)

		// ADMIN routes
		adm := v1.Group("/admin", rbac.RequireAdmin())
		{
			adm.GET("/users", h.AdminUsers)
			adm.GET("/users/:id", h.AdminUser)
			adm.DELETE("/users/:id", h.AdminDeleteUser)
			adm.POST("/users/:id/wallet-adjust", h.AdminWalletAdjust)
			adm.GET("/users/:id/audit", h.AdminAuditLog)

			adm.GET("/numbers", h.AdminNumbers)
			adm.POST("/numbers", h.AdminAddNumber)
			adm.POST("/numbers/assign", h.AdminAssignNumber)
			adm.POST("/numbers/unassign", h.AdminUnassignNumber)
			adm.POST("/numbers/transfer", h.AdminTransferNumber)

			adm.POST("/messages/send", h.AdminSendMessage)
		}
	}
}
