package batch_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Plswearpants/AI-debate/internal/batch"
	"github.com/Plswearpants/AI-debate/internal/crowd"
	"github.com/Plswearpants/AI-debate/internal/provider"
)

type recordingClient struct {
	calls int
	resps []provider.Response
	err   error
}

func (c *recordingClient) Invoke(context.Context, provider.Request) (provider.Response, error) {
	return provider.Response{}, errors.New("not used by Fanout")
}

func (c *recordingClient) InvokeBatch(ctx context.Context, reqs []provider.Request) ([]provider.Response, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return c.resps, nil
}

func personas(n int) []crowd.Persona {
	out := make([]crowd.Persona, n)
	for i := range out {
		out[i] = crowd.Persona{VoterID: fmt.Sprintf("v_%03d", i+1), Name: fmt.Sprintf("persona-%d", i), Archetype: "political"}
	}
	return out
}

func TestFanoutIssuesExactlyOneInvokeBatchCall(t *testing.T) {
	ps := personas(15)
	resps := make([]provider.Response, 15)
	for i := range resps {
		resps[i] = provider.Response{Content: `{"score":70,"reasoning":"good"}`}
	}
	client := &recordingClient{resps: resps}

	votes := batch.Fanout(context.Background(), client, ps, func(p crowd.Persona) provider.Request {
		return provider.Request{AgentName: p.VoterID}
	})

	assert.Equal(t, 1, client.calls)
	require.Len(t, votes, 15)
	for _, v := range votes {
		assert.Equal(t, 70, v.Score)
	}
}

func TestFanoutDefaultsToAbstainingScoreOnBatchError(t *testing.T) {
	ps := personas(5)
	client := &recordingClient{err: errors.New("provider unavailable")}

	votes := batch.Fanout(context.Background(), client, ps, func(p crowd.Persona) provider.Request {
		return provider.Request{AgentName: p.VoterID}
	})

	require.Len(t, votes, 5)
	for _, v := range votes {
		assert.Equal(t, 50, v.Score)
	}
}

func TestFanoutDefaultsMissingResponsesWithinAPartialBatch(t *testing.T) {
	ps := personas(3)
	client := &recordingClient{resps: []provider.Response{
		{Content: `{"score":90,"reasoning":"r"}`},
	}}

	votes := batch.Fanout(context.Background(), client, ps, func(p crowd.Persona) provider.Request {
		return provider.Request{AgentName: p.VoterID}
	})

	require.Len(t, votes, 3)
	assert.Equal(t, 90, votes[0].Score)
	assert.Equal(t, 50, votes[1].Score)
	assert.Equal(t, 50, votes[2].Score)
}

func TestFanoutPreservesVoterIdentity(t *testing.T) {
	ps := personas(2)
	client := &recordingClient{resps: []provider.Response{
		{Content: `{"score":60}`}, {Content: `{"score":40}`},
	}}

	votes := batch.Fanout(context.Background(), client, ps, func(p crowd.Persona) provider.Request {
		return provider.Request{AgentName: p.VoterID}
	})

	assert.Equal(t, ps[0].VoterID, votes[0].VoterID)
	assert.Equal(t, ps[1].VoterID, votes[1].VoterID)
}
