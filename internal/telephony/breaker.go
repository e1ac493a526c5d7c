package telephony

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"sms-platform/pkg/metrics"

	"github.com/sony/gobreaker"
)

// BreakerSettings tunes the circuit breaker around a provider.
type BreakerSettings struct {
	// ConsecutiveFailures trips the breaker. Default 5.
	ConsecutiveFailures uint32
	// OpenTimeout is how long the breaker stays open before probing. Default 30s.
	OpenTimeout time.Duration
	// HalfOpenRequests is the probe budget while half open. Default 1.
	HalfOpenRequests uint32
}

// BreakerProvider guards a Provider with a circuit breaker and records call metrics.
// Caller mistakes (4xx other than 429) never trip the breaker.
type BreakerProvider struct {
	inner Provider
	cb    *gobreaker.CircuitBreaker
	log   *slog.Logger
}

func NewBreakerProvider(inner Provider, s BreakerSettings, log *slog.Logger) *BreakerProvider {
	if s.ConsecutiveFailures == 0 {
		s.ConsecutiveFailures = 5
	}
	if s.OpenTimeout <= 0 {
		s.OpenTimeout = 30 * time.Second
	}
	if s.HalfOpenRequests == 0 {
		s.HalfOpenRequests = 1
	}
	if log == nil {
		log = slog.Default()
	}

	bp := &BreakerProvider{inner: inner, log: log}
	bp.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        inner.Name(),
		MaxRequests: s.HalfOpenRequests,
		Timeout:     s.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= s.ConsecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("provider circuit state changed", "provider", name, "from", from.String(), "to", to.String())
		},
		IsSuccessful: countsAsSuccess,
	})
	return bp
}

func countsAsSuccess(err error) bool {
	if err == nil || errors.Is(err, ErrNotConfigured) || errors.Is(err, context.Canceled) {
		return true
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Status >= 400 && pe.Status < 500 && pe.Status != 429
	}
	return false
}

func (b *BreakerProvider) Name() string { return b.inner.Name() }

func (b *BreakerProvider) HealthCheck(ctx context.Context) error {
	_, err := b.call("health", func() (any, error) { return nil, b.inner.HealthCheck(ctx) })
	return err
}

func (b *BreakerProvider) SendSMS(ctx context.Context, req SendRequest) (SendResult, error) {
	v, err := b.call("send_sms", func() (any, error) { return b.inner.SendSMS(ctx, req) })
	if err != nil {
		return SendResult{}, err
	}
	return v.(SendResult), nil
}

func (b *BreakerProvider) SearchNumbers(ctx context.Context, req SearchRequest) ([]string, error) {
	v, err := b.call("search_numbers", func() (any, error) { return b.inner.SearchNumbers(ctx, req) })
	if err != nil {
		return nil, err
	}
	return v.([]string), nil
}

func (b *BreakerProvider) BuyNumber(ctx context.Context, phoneNumber string) (BuyResult, error) {
	v, err := b.call("buy_number", func() (any, error) { return b.inner.BuyNumber(ctx, phoneNumber) })
	if err != nil {
		return BuyResult{}, err
	}
	return v.(BuyResult), nil
}

func (b *BreakerProvider) ReleaseNumber(ctx context.Context, providerID string) error {
	_, err := b.call("release_number", func() (any, error) { return nil, b.inner.ReleaseNumber(ctx, providerID) })
	return err
}

func (b *BreakerProvider) call(op string, fn func() (any, error)) (any, error) {
	v, err := b.cb.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		err = ErrUnavailable
	}
	metrics.RecordProviderCall(op, err)
	if err != nil {
		b.log.Warn("provider call failed", "provider", b.inner.Name(), "op", op, "err", err)
	}
	return v, err
}
