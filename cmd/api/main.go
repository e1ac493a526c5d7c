package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"sms-platform/internal/accounts"
	"sms-platform/internal/admin"
	"sms-platform/internal/audit"
	"sms-platform/internal/auth"
	"sms-platform/internal/config"
	"sms-platform/internal/credentials"
	"sms-platform/internal/httpapi"
	"sms-platform/internal/messaging"
	"sms-platform/internal/numbers"
	"sms-platform/internal/payments"
	"sms-platform/internal/pricing"
	"sms-platform/internal/reporting"
	"sms-platform/internal/storage/migrations"
	"sms-platform/internal/stream"
	"sms-platform/internal/telephony"
	"sms-platform/internal/wallet"
	"sms-platform/pkg/logger"
	"sms-platform/pkg/metrics"
	"sms-platform/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// holdings resolves the plan and rented numbers behind a wallet summary.
// It is filled in after the services that depend on the ledger exist.
type holdings struct {
	accts *accounts.Service
	nums  *numbers.Service
}

func (h *holdings) PlanOf(ctx context.Context, id string) (pricing.Plan, error) {
	return h.accts.PlanOf(ctx, id)
}

func (h *holdings) RentedNumbers(ctx context.Context, id string) ([]string, error) {
	return h.nums.RentedNumbers(ctx, id)
}

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := migrations.Apply(rootCtx, db); err != nil {
		log.Error("migrations failed", "err", err)
		os.Exit(1)
	}

	rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
	if err != nil {
		log.Error("redis init failed", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	// Live fan-out. With the relay every instance publishes through Redis and
	// delivers what it receives to its local hub.
	hub := stream.NewHub(0, log)
	var publisher stream.Publisher = hub
	if cfg.Stream.RedisRelay {
		relay := stream.NewRedisRelay(rdb, "", hub, log)
		publisher = relay
		go func() {
			if err := relay.Run(rootCtx); err != nil {
				log.Error("stream relay stopped", "err", err)
			}
		}()
	}
	var slots stream.SlotLimiter
	if cfg.Stream.MaxPerAccount > 0 {
		slots = stream.NewRedisSlots(rdb, cfg.Stream.MaxPerAccount, 3*cfg.Stream.HeartbeatInterval)
	}

	provider := telephony.NewBreakerProvider(telephony.NewLaMLClient(cfg.Telephony), telephony.BreakerSettings{}, log)

	p := cfg.Pricing
	prices := pricing.NewService(pricing.NewRates(p.StarterPlanMinor, p.ProfessionalPlanMinor, p.EnterprisePlanMinor, p.NumberMonthlyMinor, p.SMSPriceMinor))

	held := &holdings{}
	ledger := wallet.NewLedger(wallet.NewPostgresStore(db), prices, held)
	accts := accounts.NewService(accounts.NewPostgresRepo(db), ledger, prices)
	creds := credentials.NewService(credentials.NewPostgresRepo(db), accts, func(sid, token string) telephony.Provider {
		own := cfg.Telephony
		own.AccountSID, own.AuthToken = sid, token
		return telephony.NewBreakerProvider(telephony.NewLaMLClient(own), telephony.BreakerSettings{}, log)
	}, log)
	nums := numbers.NewService(numbers.NewPostgresRepo(db), accts, ledger, provider, prices, log).WithProviders(creds)
	held.accts, held.nums = accts, nums

	baseURL := strings.TrimRight(cfg.App.PublicBaseURL, "/")
	msgs := messaging.NewService(messaging.NewPostgresRepo(db), nums, ledger, provider, publisher, prices, log)
	pays := payments.NewService(payments.NewPostgresRepo(db), accts, ledger, cfg.Payments, log)
	if baseURL != "" {
		msgs.StatusCallback = baseURL + "/webhooks/sms/status"
		pays.ReturnURL = baseURL + "/webhooks/jazzcash/return"
	}
	auditor := audit.NewService(audit.NewPostgresRepo(db), log)

	if cfg.App.AdminEmail != "" {
		if _, err := accts.EnsureAdmin(rootCtx, cfg.App.AdminEmail, cfg.App.AdminPassword); err != nil {
			log.Error("admin bootstrap failed", "err", err)
			os.Exit(1)
		}
	}

	h := &httpapi.Handlers{
		Auth:        authManager,
		Accounts:    accts,
		Ledger:      ledger,
		Numbers:     nums,
		Messages:    msgs,
		Payments:    pays,
		Prices:      prices,
		Reports:     reporting.NewService(ledger, msgs),
		Admin:       admin.NewService(accts, ledger, nums, msgs, auditor, log),
		Credentials: creds,
	}

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))
	r.Use(metrics.Middleware())
	r.Use(httpapi.ClientIP())

	registerRoutes(r, routeDeps{
		handlers: h,
		authMW:   auth.RequireAccessToken(authManager),
		streamMW: auth.RequireAccessTokenOrQuery(authManager),
		webhooks: telephony.WebhookHandler{Sink: msgs},
		stream:   stream.Handler{Hub: hub, Slots: slots, Heartbeat: cfg.Stream.HeartbeatInterval},
		limiter:  httpapi.NewSendLimiter(cfg.RateLimit.SendsPerMinute),
		health: func(ctx context.Context) error {
			return utils.HealthCheck(ctx, db, 2*time.Second)
		},
		signature: signatureMiddleware(cfg),
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
		// No WriteTimeout: it would cut live streams off.
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env, "provider", cfg.Telephony.Provider)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	// Closing the hub ends open streams so Shutdown does not wait on them.
	hub.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
}

func signatureMiddleware(cfg config.Config) gin.HandlerFunc {
	if !cfg.Telephony.ValidateSignatures {
		return func(c *gin.Context) { c.Next() }
	}
	return telephony.RequireSignature(cfg.Telephony.AuthToken, strings.TrimRight(cfg.App.PublicBaseURL, "/"))
}
