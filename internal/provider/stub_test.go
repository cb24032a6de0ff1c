package provider_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Plswearpants/AI-debate/internal/provider"
)

func TestStubClientInvokeUsesRenderWhenSet(t *testing.T) {
	c := &provider.StubClient{Render: func(req provider.Request) string {
		return fmt.Sprintf("rendered for %s", req.AgentName)
	}}
	resp, err := c.Invoke(context.Background(), provider.Request{AgentName: "debator_a"})
	require.NoError(t, err)
	assert.Equal(t, "rendered for debator_a", resp.Content)
}

func TestStubClientInvokeFallsBackToCannedResponse(t *testing.T) {
	c := &provider.StubClient{}
	resp, err := c.Invoke(context.Background(), provider.Request{AgentName: "crowd"})
	require.NoError(t, err)
	assert.Contains(t, resp.Content, "crowd")
}

func TestStubClientInvokeBatchPreservesOrder(t *testing.T) {
	c := &provider.StubClient{Render: func(req provider.Request) string {
		return req.AgentName
	}}
	reqs := make([]provider.Request, 20)
	for i := range reqs {
		reqs[i] = provider.Request{AgentName: fmt.Sprintf("persona-%d", i)}
	}
	resps, err := c.InvokeBatch(context.Background(), reqs)
	require.NoError(t, err)
	require.Len(t, resps, 20)
	for i, r := range resps {
		assert.Equal(t, fmt.Sprintf("persona-%d", i), r.Content)
	}
}
