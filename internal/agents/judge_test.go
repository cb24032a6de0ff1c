package agents_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Plswearpants/AI-debate/internal/agents"
	"github.com/Plswearpants/AI-debate/internal/state"
)

func TestJudgeExecuteProducesLatentRound(t *testing.T) {
	j := agents.NewJudge()
	client := statementStub(`{"consensus":["both value economic growth"],"disagreement_frontier":[{"core_issue":"pace of change","a_stance":"fast","b_stance":"slow"}]}`)

	tc := agents.TurnContext{
		Topic:       "Carbon tax",
		RoundNumber: 2,
		View: state.AgentView{
			History: &state.History{PublicTranscript: []state.Turn{
				{Speaker: "a", RoundNumber: 1, RoundLabel: "opening", Statement: "a's opening"},
				{Speaker: "b", RoundNumber: 1, RoundLabel: "opening", Statement: "b's opening"},
			}},
		},
		Client: client,
	}

	result, err := j.Execute(context.Background(), tc)
	require.NoError(t, err)
	require.Len(t, result.Intents, 1)
	in := result.Intents[0]
	assert.Equal(t, agents.AppendLatent, in.Kind)
	assert.Equal(t, 2, in.LatentRound.RoundNumber)
	assert.Equal(t, []string{"both value economic growth"}, in.LatentRound.Consensus)
	require.Len(t, in.LatentRound.DisagreementFrontier, 1)
	assert.Equal(t, "pace of change", in.LatentRound.DisagreementFrontier[0].CoreIssue)
}

func TestJudgeHandlesEmptyTranscript(t *testing.T) {
	j := agents.NewJudge()
	client := statementStub(`{"consensus":[],"disagreement_frontier":[]}`)

	tc := agents.TurnContext{
		Topic:       "Carbon tax",
		RoundNumber: 0,
		View:        state.AgentView{History: &state.History{}},
		Client:      client,
	}
	result, err := j.Execute(context.Background(), tc)
	require.NoError(t, err)
	assert.Empty(t, result.Intents[0].LatentRound.Consensus)
}

func TestJudgePropagatesProviderError(t *testing.T) {
	j := agents.NewJudge()
	tc := agents.TurnContext{Client: failingClient{}, View: state.AgentView{History: &state.History{}}}
	_, err := j.Execute(context.Background(), tc)
	require.Error(t, err)
}
