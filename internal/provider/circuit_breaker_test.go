package provider_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Plswearpants/AI-debate/internal/provider"
)

type toggleClient struct {
	fail bool
}

func (c *toggleClient) Invoke(context.Context, provider.Request) (provider.Response, error) {
	if c.fail {
		return provider.Response{}, errors.New("downstream failure")
	}
	return provider.Response{Content: "ok"}, nil
}

func (c *toggleClient) InvokeBatch(ctx context.Context, reqs []provider.Request) ([]provider.Response, error) {
	out := make([]provider.Response, len(reqs))
	for i := range reqs {
		resp, err := c.Invoke(ctx, reqs[i])
		if err != nil {
			return nil, err
		}
		out[i] = resp
	}
	return out, nil
}

func TestCircuitBreakerOpensAfterFailureThreshold(t *testing.T) {
	inner := &toggleClient{fail: true}
	cfg := provider.DefaultCircuitBreakerConfig()
	cfg.FailureThreshold = 3
	cb := provider.NewCircuitBreaker(inner, cfg, nil)

	for i := 0; i < 3; i++ {
		_, err := cb.Invoke(context.Background(), provider.Request{})
		require.Error(t, err)
	}
	assert.Equal(t, provider.CircuitOpen, cb.State())

	_, err := cb.Invoke(context.Background(), provider.Request{})
	assert.ErrorIs(t, err, provider.ErrCircuitOpen)
}

func TestCircuitBreakerRecoversThroughHalfOpen(t *testing.T) {
	inner := &toggleClient{fail: true}
	cfg := provider.DefaultCircuitBreakerConfig()
	cfg.FailureThreshold = 1
	cfg.SuccessThreshold = 2
	cfg.Timeout = 10 * time.Millisecond
	cb := provider.NewCircuitBreaker(inner, cfg, nil)

	_, err := cb.Invoke(context.Background(), provider.Request{})
	require.Error(t, err)
	assert.Equal(t, provider.CircuitOpen, cb.State())

	time.Sleep(20 * time.Millisecond)
	inner.fail = false

	_, err = cb.Invoke(context.Background(), provider.Request{})
	require.NoError(t, err)
	assert.Equal(t, provider.CircuitHalfOpen, cb.State())

	_, err = cb.Invoke(context.Background(), provider.Request{})
	require.NoError(t, err)
	assert.Equal(t, provider.CircuitClosed, cb.State())
}

func TestCircuitBreakerReopensOnHalfOpenFailure(t *testing.T) {
	inner := &toggleClient{fail: true}
	cfg := provider.DefaultCircuitBreakerConfig()
	cfg.FailureThreshold = 1
	cfg.Timeout = 10 * time.Millisecond
	cb := provider.NewCircuitBreaker(inner, cfg, nil)

	_, err := cb.Invoke(context.Background(), provider.Request{})
	require.Error(t, err)

	time.Sleep(20 * time.Millisecond)
	_, err = cb.Invoke(context.Background(), provider.Request{}) // half-open probe, still failing
	require.Error(t, err)
	assert.Equal(t, provider.CircuitOpen, cb.State())
}
