package feed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avast/retry-go/v5"
	"github.com/sony/gobreaker"
	"github.com/xela07ax/ztna-soc-console/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ThrottleError - брокер попросил подождать (например, NATS slow consumer).
type ThrottleError struct {
	RetryAfter time.Duration
	Err        error
}

func (e *ThrottleError) Error() string { return fmt.Sprintf("throttled for %s: %v", e.RetryAfter, e.Err) }
func (e *ThrottleError) Unwrap() error { return e.Err }

type ReliabilityConfig struct {
	Name          string
	MaxRequests   uint32
	Interval      time.Duration
	Timeout       time.Duration // Время, через которое CB попробует "закрыться"
	FailThreshold uint32        // Подряд идущих ошибок до размыкания
	RateLimit     float64       // Пачек в секунду
	Burst         int
	Attempts      uint
	WriteTimeout  time.Duration
}

func (c *ReliabilityConfig) withDefaults() {
	if c.Name == "" {
		c.Name = "soc-feed"
	}
	if c.MaxRequests == 0 {
		c.MaxRequests = 3
	}
	if c.Interval <= 0 {
		c.Interval = 5 * time.Second
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.FailThreshold == 0 {
		c.FailThreshold = 5
	}
	if c.RateLimit <= 0 {
		c.RateLimit = 50
	}
	if c.Burst <= 0 {
		c.Burst = 10
	}
	if c.Attempts == 0 {
		c.Attempts = 3
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 5 * time.Second
	}
}

// ReliabilityWrapper - лимитер, предохранитель и ретраи вокруг внешней ленты.
// Состояние предохранителя отражается в индикаторе связи дашборда.
type ReliabilityWrapper struct {
	next    BatchWriter
	cb      *gobreaker.CircuitBreaker
	limiter *rate.Limiter
	cfg     ReliabilityConfig
	logger  *zap.Logger

	onLink  func(domain.LinkState)
	onState func(name string, value float64)
}

func NewReliabilityWrapper(next BatchWriter, cfg ReliabilityConfig, logger *zap.Logger) *ReliabilityWrapper {
	cfg.withDefaults()
	w := &ReliabilityWrapper{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.Burst),
		cfg:     cfg,
		logger:  logger.With(zap.String("mod", "feed-reliability")),
	}

	w.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailThreshold
		},
		OnStateChange: w.stateChanged,
	})
	return w
}

// OnLinkChange - индикатор связи: Open -> DOWN, Closed -> UP.
func (w *ReliabilityWrapper) OnLinkChange(f func(domain.LinkState)) { w.onLink = f }

// OnStateGauge - значение для gauge метрик (0 closed, 0.5 half-open, 1 open).
func (w *ReliabilityWrapper) OnStateGauge(f func(name string, value float64)) { w.onState = f }

// State - текущее состояние предохранителя.
func (w *ReliabilityWrapper) State() gobreaker.State { return w.cb.State() }

func (w *ReliabilityWrapper) stateChanged(name string, from, to gobreaker.State) {
	w.logger.Warn("feed breaker state changed",
		zap.String("breaker", name),
		zap.String("from", from.String()),
		zap.String("to", to.String()))

	if w.onState != nil {
		w.onState(name, breakerGauge(to))
	}
	if w.onLink == nil {
		return
	}
	switch to {
	case gobreaker.StateOpen:
		w.onLink(domain.LinkDown)
	case gobreaker.StateClosed:
		w.onLink(domain.LinkUp)
	}
}

func breakerGauge(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateOpen:
		return 1
	case gobreaker.StateHalfOpen:
		return 0.5
	default:
		return 0
	}
}

func (w *ReliabilityWrapper) WriteBatch(ctx context.Context, events []domain.ScoredEvent) error {
	// 1. Rate Limiter
	if err := w.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit exceeded: %w", err)
	}

	// 2. Circuit Breaker
	_, err := w.cb.Execute(func() (interface{}, error) {
		r := retry.New(
			retry.Context(ctx),
			retry.Attempts(w.cfg.Attempts),
			retry.DelayType(func(n uint, err error, config retry.DelayContext) time.Duration {
				// Брокер сам сказал, сколько ждать
				var tErr *ThrottleError
				if errors.As(err, &tErr) {
					return tErr.RetryAfter
				}
				return retry.BackOffDelay(n, err, config)
			}),
		)

		return nil, r.Do(func() error {
			tCtx, cancel := context.WithTimeout(ctx, w.cfg.WriteTimeout)
			defer cancel()
			return w.next.WriteBatch(tCtx, events)
		})
	})
	return err
}
