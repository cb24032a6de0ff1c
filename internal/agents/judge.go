package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/Plswearpants/AI-debate/internal/parsing"
	"github.com/Plswearpants/AI-debate/internal/provider"
	"github.com/Plswearpants/AI-debate/internal/state"
)

// Judge maps the argument space neutrally each round: what both sides
// agree on (consensus, which only ever grows) and what remains contested
// (the disagreement frontier). It never declares a winner.
type Judge struct{}

func NewJudge() *Judge { return &Judge{} }

func (j *Judge) Name() string { return "judge" }

const judgeSystemPrompt = `You are a neutral debate judge and argument cartographer.
Your role is NOT to decide who is winning. Map the logical structure of the debate:
(1) what both sides agree on (consensus), (2) what is still contested (disagreement frontier),
(3) each side's stance on each contested issue.
Use only the provided transcript. Do not introduce outside facts or repair weak arguments.
Keep issues separate unless the transcript explicitly links them.
Consensus should grow over time: include prior consensus plus any new agreement found this round.
Aim for 2-4 frontier issues. If a side did not address an issue, write "Not addressed in provided transcript."
Return JSON only: {"consensus": [string...], "disagreement_frontier": [{"core_issue","a_stance","b_stance"}...]}`

func (j *Judge) Execute(ctx context.Context, tc TurnContext) (Result, error) {
	resp, err := tc.Client.Invoke(ctx, provider.Request{
		AgentName:    j.Name(),
		SystemPrompt: judgeSystemPrompt,
		UserPrompt:   j.buildPrompt(tc),
		Temperature:  0.2,
		MaxTokens:    1500,
	})
	if err != nil {
		return Result{}, fmt.Errorf("judge analysis call: %w", err)
	}

	analysis := parsing.ParseJudgeAnalysis(resp.Content)

	frontier := make([]state.FrontierIssue, len(analysis.DisagreementFrontier))
	for i, f := range analysis.DisagreementFrontier {
		frontier[i] = state.FrontierIssue{CoreIssue: f.CoreIssue, AStance: f.AStance, BStance: f.BStance}
	}

	round := state.LatentRound{
		RoundNumber:          tc.RoundNumber,
		Consensus:            analysis.Consensus,
		DisagreementFrontier: frontier,
	}

	return Result{
		Intents: []Intent{{Kind: AppendLatent, LatentRound: round}},
		Cost:    resp.EstimatedUSD,
		Metadata: map[string]any{
			"consensus_count": len(analysis.Consensus),
			"frontier_count":  len(frontier),
		},
	}, nil
}

func (j *Judge) buildPrompt(tc TurnContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "TOPIC: %s\n\n", tc.Topic)

	if tc.View.History == nil || len(tc.View.History.PublicTranscript) == 0 {
		b.WriteString("No statements yet. This is the initial analysis.\n")
	} else {
		fmt.Fprintf(&b, "DEBATE TRANSCRIPT (current round: %d):\n\n", tc.RoundNumber)
		for _, t := range tc.View.History.PublicTranscript {
			marker := ""
			if t.RoundNumber == tc.RoundNumber {
				marker = " (CURRENT ROUND)"
			}
			fmt.Fprintf(&b, "[%s]%s Team %s:\n%s\n\n", t.RoundLabel, marker, t.Speaker, t.Statement)
		}
	}

	if tc.View.DebateLatent != nil && len(tc.View.DebateLatent.RoundHistory) > 0 {
		latest := tc.View.DebateLatent.RoundHistory[len(tc.View.DebateLatent.RoundHistory)-1]
		if len(latest.Consensus) > 0 {
			b.WriteString("\nPrevious consensus (for reference):\n")
			for _, c := range latest.Consensus {
				fmt.Fprintf(&b, "- %s\n", c)
			}
		}
		if len(latest.DisagreementFrontier) > 0 {
			b.WriteString("\nPrevious disagreement frontier (for reference):\n")
			for _, f := range latest.DisagreementFrontier {
				fmt.Fprintf(&b, "- %s\n", f.CoreIssue)
			}
		}
	}

	b.WriteString("\nReturn an updated JSON analysis reflecting the entire transcript above.")
	return b.String()
}
