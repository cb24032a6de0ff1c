package provider

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"
)

// StubClient is a deterministic, template-substituting Client used for
// dry runs and tests. It never makes a network call: Invoke renders a
// caller-supplied template function against the request, or echoes a
// canned response if no template was set.
type StubClient struct {
	// Render, if set, produces the response content for a request. Tests
	// set this to hand back fixture JSON per agent.
	Render func(req Request) string
}

func (c *StubClient) Invoke(_ context.Context, req Request) (Response, error) {
	content := fmt.Sprintf("stub response for %s", req.AgentName)
	if c.Render != nil {
		content = c.Render(req)
	}
	return Response{
		Content:      content,
		Model:        "stub",
		TokensUsed:   len(strings.Fields(req.SystemPrompt)) + len(strings.Fields(req.UserPrompt)),
		EstimatedUSD: 0,
	}, nil
}

// batchConcurrency bounds how many persona calls a single InvokeBatch runs
// at once, scoped to a practical per-provider rate limit rather than
// unlimited goroutine fan-out.
const batchConcurrency = 10

func (c *StubClient) InvokeBatch(ctx context.Context, reqs []Request) ([]Response, error) {
	out := make([]Response, len(reqs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(batchConcurrency)
	for i, req := range reqs {
		i, req := i, req
		g.Go(func() error {
			resp, err := c.Invoke(ctx, req)
			if err != nil {
				return err
			}
			out[i] = resp
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
