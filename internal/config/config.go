package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration required by the API process.
// Values come from env; a local .env file is loaded first when present.
// No business logic should depend on raw environment variables.
type Config struct {
	App       AppConfig
	DB        DBConfig
	Redis     RedisConfig
	Auth      AuthConfig
	Telephony TelephonyConfig
	Pricing   PricingConfig
	Stream    StreamConfig
	Payments  PaymentsConfig
	RateLimit RateLimitConfig
}

type AppConfig struct {
	Env  string
	Port int

	// PublicBaseURL is used to rebuild webhook URLs for signature validation.
	PublicBaseURL string

	AdminEmail    string
	AdminPassword string
}

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string

	// Accepts: disable, require, verify-ca, verify-full
	SSLMode string
}

type RedisConfig struct {
	Host string
	Port int
}

type AuthConfig struct {
	JWTSecret       string
	JWTIssuer       string
	JWTAudience     string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

// TelephonyConfig selects the LaML-compatible SMS provider.
type TelephonyConfig struct {
	// Provider is "twilio" or "signalwire".
	Provider string

	// AccountSID is the Twilio account SID or the SignalWire project id.
	AccountSID string
	AuthToken  string

	// SpaceURL is required for SignalWire (e.g. example.signalwire.com).
	SpaceURL string

	ValidateSignatures bool
	HTTPTimeout        time.Duration
}

// PricingConfig amounts are minor units (cents).
type PricingConfig struct {
	StarterPlanMinor      int64
	ProfessionalPlanMinor int64
	EnterprisePlanMinor   int64
	NumberMonthlyMinor    int64
	SMSPriceMinor         int64
}

type StreamConfig struct {
	HeartbeatInterval time.Duration
	// MaxPerAccount caps concurrent streams per account across instances. 0 disables the cap.
	MaxPerAccount int
	// RedisRelay fans events out through Redis pub/sub so every API instance sees them.
	RedisRelay bool
}

type PaymentsConfig struct {
	JazzCashMerchantID    string
	JazzCashPassword      string
	JazzCashIntegritySalt string
	EasyPaisaMerchantID   string
}

type RateLimitConfig struct {
	SendsPerMinute int
}

func Load() (Config, error) {
	// .env is optional; real deployments inject env directly.
	_ = godotenv.Load()

	c := Config{}
	var parseErrs []error

	c.App.Env = strings.TrimSpace(os.Getenv("APP_ENV"))
	{
		n, err := mustInt("APP_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.App.Port = n
	}
	c.App.PublicBaseURL = strings.TrimRight(strings.TrimSpace(os.Getenv("PUBLIC_BASE_URL")), "/")
	c.App.AdminEmail = strings.ToLower(strings.TrimSpace(os.Getenv("ADMIN_EMAIL")))
	c.App.AdminPassword = strings.TrimSpace(os.Getenv("ADMIN_PASSWORD"))

	c.DB.Host = strings.TrimSpace(os.Getenv("DB_HOST"))
	{
		n, err := mustInt("DB_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.DB.Port = n
	}
	c.DB.User = strings.TrimSpace(os.Getenv("DB_USER"))
	c.DB.Password = os.Getenv("DB_PASSWORD")
	c.DB.Name = strings.TrimSpace(os.Getenv("DB_NAME"))
	c.DB.SSLMode = strings.TrimSpace(os.Getenv("DB_SSLMODE"))

	c.Redis.Host = strings.TrimSpace(os.Getenv("REDIS_HOST"))
	{
		n, err := mustInt("REDIS_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.Redis.Port = n
	}

	c.Auth.JWTSecret = os.Getenv("JWT_SECRET")
	c.Auth.JWTIssuer = strings.TrimSpace(os.Getenv("JWT_ISSUER"))
	c.Auth.JWTAudience = strings.TrimSpace(os.Getenv("JWT_AUDIENCE"))
	c.Auth.AccessTokenTTL = mustDuration("JWT_ACCESS_TTL")
	c.Auth.RefreshTokenTTL = mustDuration("JWT_REFRESH_TTL")

	c.Telephony.Provider = strings.ToLower(strings.TrimSpace(os.Getenv("SMS_PROVIDER")))
	c.Telephony.AccountSID = strings.TrimSpace(os.Getenv("SMS_ACCOUNT_SID"))
	c.Telephony.AuthToken = os.Getenv("SMS_AUTH_TOKEN")
	c.Telephony.SpaceURL = strings.TrimSpace(os.Getenv("SIGNALWIRE_SPACE_URL"))
	c.Telephony.ValidateSignatures = optionalBool("SMS_VALIDATE_SIGNATURES", true)
	c.Telephony.HTTPTimeout = mustDuration("SMS_HTTP_TIMEOUT")

	c.Pricing.StarterPlanMinor = optionalInt64("PLAN_STARTER_MINOR", 900)
	c.Pricing.ProfessionalPlanMinor = optionalInt64("PLAN_PROFESSIONAL_MINOR", 1900)
	c.Pricing.EnterprisePlanMinor = optionalInt64("PLAN_ENTERPRISE_MINOR", 4900)
	c.Pricing.NumberMonthlyMinor = optionalInt64("NUMBER_MONTHLY_MINOR", 250)
	c.Pricing.SMSPriceMinor = optionalInt64("SMS_PRICE_MINOR", 0)

	c.Stream.HeartbeatInterval = mustDuration("STREAM_HEARTBEAT")
	c.Stream.MaxPerAccount = int(optionalInt64("STREAM_MAX_PER_ACCOUNT", 10))
	c.Stream.RedisRelay = optionalBool("STREAM_REDIS_RELAY", false)

	c.Payments.JazzCashMerchantID = strings.TrimSpace(os.Getenv("JAZZCASH_MERCHANT_ID"))
	c.Payments.JazzCashPassword = os.Getenv("JAZZCASH_PASSWORD")
	c.Payments.JazzCashIntegritySalt = os.Getenv("JAZZCASH_INTEGRITY_SALT")
	c.Payments.EasyPaisaMerchantID = strings.TrimSpace(os.Getenv("EASYPAY_MERCHANT_ID"))

	c.RateLimit.SendsPerMinute = int(optionalInt64("SEND_RATE_PER_MINUTE", 60))

	if err := joinErrors(parseErrs); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks the config and fills env-dependent defaults in place.
func (c *Config) Validate() error {
	var errs []error

	if c.App.Env == "" {
		errs = append(errs, errors.New("APP_ENV is required"))
	} else if !isValidEnv(c.App.Env) {
		errs = append(errs, fmt.Errorf("APP_ENV must be one of local, dev, staging, production, got %q", c.App.Env))
	}
	if c.App.Port <= 0 || c.App.Port > 65535 {
		errs = append(errs, fmt.Errorf("APP_PORT must be a valid port, got %d", c.App.Port))
	}

	if c.DB.Host == "" {
		errs = append(errs, errors.New("DB_HOST is required"))
	}
	if c.DB.Port <= 0 || c.DB.Port > 65535 {
		errs = append(errs, fmt.Errorf("DB_PORT must be a valid port, got %d", c.DB.Port))
	}
	if c.DB.User == "" {
		errs = append(errs, errors.New("DB_USER is required"))
	}
	if c.DB.Name == "" {
		errs = append(errs, errors.New("DB_NAME is required"))
	}
	if strings.TrimSpace(c.DB.SSLMode) == "" {
		if c.IsProduction() {
			errs = append(errs, errors.New("DB_SSLMODE is required in production"))
		} else {
			c.DB.SSLMode = "disable"
		}
	}
	if c.DB.SSLMode != "" && !isValidSSLMode(c.DB.SSLMode) {
		errs = append(errs, fmt.Errorf("DB_SSLMODE must be one of disable, require, verify-ca, verify-full, got %q", c.DB.SSLMode))
	}

	if c.Redis.Host == "" {
		errs = append(errs, errors.New("REDIS_HOST is required"))
	}
	if c.Redis.Port <= 0 || c.Redis.Port > 65535 {
		errs = append(errs, fmt.Errorf("REDIS_PORT must be a valid port, got %d", c.Redis.Port))
	}

	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.IsProduction() {
		if c.Auth.JWTIssuer == "" {
			errs = append(errs, errors.New("JWT_ISSUER is required in production"))
		}
		if c.Auth.JWTAudience == "" {
			errs = append(errs, errors.New("JWT_AUDIENCE is required in production"))
		}
	}
	if c.Auth.AccessTokenTTL <= 0 {
		c.Auth.AccessTokenTTL = 15 * time.Minute
	}
	if c.Auth.RefreshTokenTTL <= 0 {
		c.Auth.RefreshTokenTTL = 7 * 24 * time.Hour
	}
	if c.Auth.RefreshTokenTTL <= c.Auth.AccessTokenTTL {
		errs = append(errs, errors.New("JWT_REFRESH_TTL must be greater than JWT_ACCESS_TTL"))
	}

	switch c.Telephony.Provider {
	case "":
		c.Telephony.Provider = "twilio"
	case "twilio", "signalwire":
	default:
		errs = append(errs, fmt.Errorf("SMS_PROVIDER must be one of twilio, signalwire, got %q", c.Telephony.Provider))
	}
	if c.Telephony.Provider == "signalwire" && c.Telephony.SpaceURL == "" {
		errs = append(errs, errors.New("SIGNALWIRE_SPACE_URL is required for signalwire"))
	}
	if c.IsProduction() && (c.Telephony.AccountSID == "" || c.Telephony.AuthToken == "") {
		errs = append(errs, errors.New("SMS_ACCOUNT_SID and SMS_AUTH_TOKEN are required in production"))
	}
	if c.Telephony.HTTPTimeout <= 0 {
		c.Telephony.HTTPTimeout = 15 * time.Second
	}

	for name, v := range map[string]int64{
		"PLAN_STARTER_MINOR":      c.Pricing.StarterPlanMinor,
		"PLAN_PROFESSIONAL_MINOR": c.Pricing.ProfessionalPlanMinor,
		"PLAN_ENTERPRISE_MINOR":   c.Pricing.EnterprisePlanMinor,
		"NUMBER_MONTHLY_MINOR":    c.Pricing.NumberMonthlyMinor,
		"SMS_PRICE_MINOR":         c.Pricing.SMSPriceMinor,
	} {
		if v < 0 {
			errs = append(errs, fmt.Errorf("%s must not be negative, got %d", name, v))
		}
	}

	if c.Stream.HeartbeatInterval <= 0 {
		c.Stream.HeartbeatInterval = 30 * time.Second
	}
	if c.Stream.MaxPerAccount < 0 {
		errs = append(errs, fmt.Errorf("STREAM_MAX_PER_ACCOUNT must not be negative, got %d", c.Stream.MaxPerAccount))
	}
	if c.RateLimit.SendsPerMinute < 0 {
		errs = append(errs, fmt.Errorf("SEND_RATE_PER_MINUTE must not be negative, got %d", c.RateLimit.SendsPerMinute))
	}

	if (c.App.AdminEmail == "") != (c.App.AdminPassword == "") {
		errs = append(errs, errors.New("ADMIN_EMAIL and ADMIN_PASSWORD must be set together"))
	}

	return joinErrors(errs)
}

func (c Config) IsProduction() bool {
	return c.App.Env == "production"
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.App.Port)
}

func (c Config) PostgresDSN() string {
	// Avoid logging this string; it contains secrets.
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host,
		c.DB.Port,
		c.DB.User,
		c.DB.Password,
		c.DB.Name,
		c.DB.SSLMode,
	)
}

func (c Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

func mustInt(key string) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	return n, nil
}

func mustDuration(key string) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0
	}
	return d
}

func optionalInt64(key string, def int64) int64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return def
	}
	return n
}

func optionalBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func appendParseErr(errs []error, n int, err error) (int, []error) {
	if err != nil {
		errs = append(errs, err)
	}
	return n, errs
}

func isValidEnv(v string) bool {
	switch v {
	case "local", "dev", "staging", "production":
		return true
	default:
		return false
	}
}

func isValidSSLMode(v string) bool {
	switch v {
	case "disable", "require", "verify-ca", "verify-full":
		return true
	default:
		return false
	}
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	var b strings.Builder
	b.WriteString("config errors:\n")
	for _, e := range errs {
		b.WriteString("- ")
		b.WriteString(e.Error())
		b.WriteString("\n")
	}
	return errors.New(strings.TrimSpace(b.String()))
}
