package config

import (
	"strings"
	"testing"
	"time"
)

func localConfig() Config {
	return Config{
		App:   AppConfig{Env: "local", Port: 8080},
		DB:    DBConfig{Host: "localhost", Port: 5432, User: "postgres", Password: "x", Name: "sms"},
		Redis: RedisConfig{Host: "localhost", Port: 6379},
		Auth:  AuthConfig{JWTSecret: "secret"},
	}
}

func TestValidate_ReportsMissingRequired(t *testing.T) {
	c := Config{}
	err := c.Validate()
	if err == nil {
		t.Fatalf("expected validation error")
	}
	if !strings.Contains(err.Error(), "APP_ENV is required") || !strings.Contains(err.Error(), "JWT_SECRET is required") {
		t.Fatalf("expected aggregated errors, got %v", err)
	}
}

func TestValidate_ProductionRequiresSSLMode(t *testing.T) {
	c := localConfig()
	c.App.Env = "production"
	c.Auth.JWTIssuer = "sms"
	c.Auth.JWTAudience = "sms-api"
	c.Telephony = TelephonyConfig{AccountSID: "AC1", AuthToken: "tok"}
	if err := c.Validate(); err == nil || !strings.Contains(err.Error(), "DB_SSLMODE") {
		t.Fatalf("expected error for production without DB_SSLMODE, got %v", err)
	}
}

func TestValidate_LocalDefaults(t *testing.T) {
	c := localConfig()
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.DB.SSLMode != "disable" {
		t.Fatalf("expected sslmode disable default, got %q", c.DB.SSLMode)
	}
	if c.Telephony.Provider != "twilio" {
		t.Fatalf("expected twilio default provider, got %q", c.Telephony.Provider)
	}
	if c.Stream.HeartbeatInterval != 30*time.Second {
		t.Fatalf("expected 30s heartbeat, got %s", c.Stream.HeartbeatInterval)
	}
	if c.Auth.AccessTokenTTL != 15*time.Minute {
		t.Fatalf("expected 15m access ttl, got %s", c.Auth.AccessTokenTTL)
	}
}

func TestValidate_SignalWireNeedsSpace(t *testing.T) {
	c := localConfig()
	c.Telephony.Provider = "signalwire"
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error without SIGNALWIRE_SPACE_URL")
	}
	c.Telephony.SpaceURL = "example.signalwire.com"
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestValidate_RejectsNegativePrices(t *testing.T) {
	c := localConfig()
	c.Pricing.SMSPriceMinor = -1
	if err := c.Validate(); err == nil || !strings.Contains(err.Error(), "SMS_PRICE_MINOR") {
		t.Fatalf("expected SMS_PRICE_MINOR error, got %v", err)
	}
}

func TestValidate_AdminCredentialsTogether(t *testing.T) {
	c := localConfig()
	c.App.AdminEmail = "root@example.com"
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error when only ADMIN_EMAIL is set")
	}
}

func TestLoad_ReadsEnvironment(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	t.Setenv("APP_PORT", "9090")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_PORT", "5432")
	t.Setenv("DB_USER", "u")
	t.Setenv("DB_NAME", "sms")
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("REDIS_PORT", "6379")
	t.Setenv("JWT_SECRET", "s")
	t.Setenv("SMS_PRICE_MINOR", "5")
	t.Setenv("STREAM_HEARTBEAT", "10s")

	c, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.HTTPAddr() != ":9090" || c.RedisAddr() != "cache:6379" {
		t.Fatalf("unexpected addrs %q %q", c.HTTPAddr(), c.RedisAddr())
	}
	if c.Pricing.SMSPriceMinor != 5 || c.Pricing.NumberMonthlyMinor != 250 {
		t.Fatalf("unexpected pricing %+v", c.Pricing)
	}
	if c.Stream.HeartbeatInterval != 10*time.Second {
		t.Fatalf("unexpected heartbeat %s", c.Stream.HeartbeatInterval)
	}
}

func TestLoad_BadPort(t *testing.T) {
	t.Setenv("APP_PORT", "eighty")
	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "APP_PORT must be an integer") {
		t.Fatalf("expected port parse error, got %v", err)
	}
}
