package circuitbreaker

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

var (
	ErrCircuitOpen     = gobreaker.ErrOpenState
	ErrTooManyRequests = gobreaker.ErrTooManyRequests
)

type State = gobreaker.State

const (
	StateClosed   = gobreaker.StateClosed
	StateHalfOpen = gobreaker.StateHalfOpen
	StateOpen     = gobreaker.StateOpen
)

type Config struct {
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold uint32
	OnStateChange    func(name string, from State, to State)
	// IsSuccessful classifies an error returned by the protected call. Errors
	// it accepts do not count towards tripping the breaker.
	IsSuccessful func(err error) bool
	Logger       *zap.Logger
}

type CircuitBreaker struct {
	cb *gobreaker.CircuitBreaker[struct{}]
}

func NewCircuitBreaker(name string, cfg Config) *CircuitBreaker {
	if cfg.MaxRequests == 0 {
		cfg.MaxRequests = 1
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			cfg.Logger.Info("Circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			if cfg.OnStateChange != nil {
				cfg.OnStateChange(name, from, to)
			}
		},
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			// caller cancellations say nothing about the upstream's health
			if errors.Is(err, context.Canceled) {
				return true
			}
			if cfg.IsSuccessful != nil {
				return cfg.IsSuccessful(err)
			}
			return false
		},
	}

	return &CircuitBreaker{cb: gobreaker.NewCircuitBreaker[struct{}](settings)}
}

func (cb *CircuitBreaker) Execute(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	_, err := cb.cb.Execute(func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

func (cb *CircuitBreaker) Name() string {
	return cb.cb.Name()
}

func (cb *CircuitBreaker) State() State {
	return cb.cb.State()
}

func (cb *CircuitBreaker) Counts() gobreaker.Counts {
	return cb.cb.Counts()
}
