package provider

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// CircuitState is one of the three circuit breaker states.
type CircuitState string

const (
	CircuitClosed   CircuitState = "closed"
	CircuitOpen     CircuitState = "open"
	CircuitHalfOpen CircuitState = "half_open"
)

// ErrCircuitOpen is returned when the circuit is open and rejecting calls.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// ErrCircuitHalfOpenRejected is returned when a half-open circuit has
// already let through its probe budget for this window.
var ErrCircuitHalfOpenRejected = errors.New("circuit breaker in half-open state, request rejected")

// CircuitBreakerConfig configures failure/recovery thresholds.
type CircuitBreakerConfig struct {
	FailureThreshold    int
	SuccessThreshold    int
	Timeout             time.Duration
	HalfOpenMaxRequests int
}

// DefaultCircuitBreakerConfig matches the provider call volume a single
// debate turn generates: a handful of deep-research and verification
// calls, not a high-throughput service.
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		FailureThreshold:    5,
		SuccessThreshold:    2,
		Timeout:             30 * time.Second,
		HalfOpenMaxRequests: 3,
	}
}

// CircuitBreaker wraps a Client, rejecting calls once the provider has
// failed enough times in a row, then admitting a handful of probes before
// fully closing again.
type CircuitBreaker struct {
	mu                   sync.Mutex
	inner                Client
	config               CircuitBreakerConfig
	state                CircuitState
	consecutiveFailures  int
	consecutiveSuccesses int
	lastFailure          time.Time
	halfOpenRequests     int
	log                  *logrus.Logger
}

// NewCircuitBreaker wraps inner with circuit-breaking behavior.
func NewCircuitBreaker(inner Client, config CircuitBreakerConfig, log *logrus.Logger) *CircuitBreaker {
	if log == nil {
		log = logrus.New()
	}
	return &CircuitBreaker{inner: inner, config: config, state: CircuitClosed, log: log}
}

func (cb *CircuitBreaker) Invoke(ctx context.Context, req Request) (Response, error) {
	if err := cb.beforeRequest(); err != nil {
		return Response{}, err
	}
	resp, err := cb.inner.Invoke(ctx, req)
	cb.afterRequest(err)
	return resp, err
}

func (cb *CircuitBreaker) InvokeBatch(ctx context.Context, reqs []Request) ([]Response, error) {
	if err := cb.beforeRequest(); err != nil {
		return nil, err
	}
	resp, err := cb.inner.InvokeBatch(ctx, reqs)
	cb.afterRequest(err)
	return resp, err
}

func (cb *CircuitBreaker) beforeRequest() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case CircuitOpen:
		if time.Since(cb.lastFailure) > cb.config.Timeout {
			cb.transitionTo(CircuitHalfOpen)
			cb.halfOpenRequests = 1
			return nil
		}
		return ErrCircuitOpen
	case CircuitHalfOpen:
		if cb.halfOpenRequests >= cb.config.HalfOpenMaxRequests {
			return ErrCircuitHalfOpenRejected
		}
		cb.halfOpenRequests++
		return nil
	default:
		return nil
	}
}

func (cb *CircuitBreaker) afterRequest(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err != nil {
		cb.consecutiveFailures++
		cb.consecutiveSuccesses = 0
		cb.lastFailure = time.Now()
		switch cb.state {
		case CircuitClosed:
			if cb.consecutiveFailures >= cb.config.FailureThreshold {
				cb.transitionTo(CircuitOpen)
			}
		case CircuitHalfOpen:
			cb.transitionTo(CircuitOpen)
		}
		return
	}

	cb.consecutiveSuccesses++
	cb.consecutiveFailures = 0
	if cb.state == CircuitHalfOpen && cb.consecutiveSuccesses >= cb.config.SuccessThreshold {
		cb.transitionTo(CircuitClosed)
	}
}

func (cb *CircuitBreaker) transitionTo(newState CircuitState) {
	oldState := cb.state
	cb.state = newState
	if newState == CircuitClosed {
		cb.consecutiveFailures = 0
	} else if newState == CircuitHalfOpen {
		cb.halfOpenRequests = 0
		cb.consecutiveSuccesses = 0
	}
	cb.log.WithFields(logrus.Fields{"from": oldState, "to": newState}).Warn("provider circuit breaker state change")
}

// State returns the current circuit state.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}
