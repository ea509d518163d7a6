package sms

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/will-chou/capstone-community/pkg/logger"
	"github.com/will-chou/capstone-community/pkg/metrics"
	"golang.org/x/time/rate"
)

var ErrUnavailable = errors.New("sms provider unavailable")

// GuardConfig tunes the throttle and breaker around a provider.
type GuardConfig struct {
	RatePerSecond float64
	Burst         int
	// MinRequests and FailureRatio decide when the breaker opens.
	MinRequests  uint32
	FailureRatio float64
	Interval     time.Duration
	Timeout      time.Duration
}

func DefaultGuardConfig() GuardConfig {
	return GuardConfig{
		RatePerSecond: 5,
		Burst:         10,
		MinRequests:   5,
		FailureRatio:  0.6,
		Interval:      time.Minute,
		Timeout:       30 * time.Second,
	}
}

// Guarded throttles sends process-wide and stops calling a failing provider
// until its breaker half-opens.
type Guarded struct {
	name    string
	next    Sender
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[string]
}

func NewGuarded(name string, next Sender, cfg GuardConfig) *Guarded {
	g := &Guarded{
		name:    name,
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.Burst),
	}
	g.breaker = gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        "sms-" + name,
		MaxRequests: 1,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warnf("circuit breaker %s: %s -> %s", name, from, to)
			metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
		},
	})
	metrics.CircuitBreakerState.WithLabelValues("sms-" + name).Set(float64(gobreaker.StateClosed))
	return g
}

func (g *Guarded) Send(ctx context.Context, to, body string) (string, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		metrics.SMSDeliveries.WithLabelValues(g.name, "throttled").Inc()
		return "", fmt.Errorf("sms throttle: %w", err)
	}
	id, err := g.breaker.Execute(func() (string, error) {
		return g.next.Send(ctx, to, body)
	})
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.SMSDeliveries.WithLabelValues(g.name, "rejected").Inc()
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	case err != nil:
		metrics.SMSDeliveries.WithLabelValues(g.name, "failed").Inc()
		return "", err
	}
	metrics.SMSDeliveries.WithLabelValues(g.name, "sent").Inc()
	return id, nil
}
