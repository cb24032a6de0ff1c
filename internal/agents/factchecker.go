package agents

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/Plswearpants/AI-debate/internal/parsing"
	"github.com/Plswearpants/AI-debate/internal/provider"
	"github.com/Plswearpants/AI-debate/internal/state"
)

// FactChecker performs two jobs each turn: offense (scrutinize the
// opponent's citations added this round) and defense (respond to adversary
// comments already left on its own team's citations that have not yet
// received a reply).
type FactChecker struct {
	team         string
	opponentTeam string
}

// NewFactChecker returns the fact-checker for team ("a" or "b").
func NewFactChecker(team string) *FactChecker {
	opponent := "b"
	if team == "b" {
		opponent = "a"
	}
	return &FactChecker{team: team, opponentTeam: opponent}
}

func (f *FactChecker) Name() string { return "factchecker_" + f.team }

func (f *FactChecker) Execute(ctx context.Context, tc TurnContext) (Result, error) {
	var intents []Intent
	var totalCost float64

	if tc.View.CitationPool != nil {
		offenseIntents, offenseCost, err := f.verifyOpponentCitations(ctx, tc)
		if err != nil {
			return Result{}, err
		}
		intents = append(intents, offenseIntents...)
		totalCost += offenseCost

		defenseIntents, defenseCost, err := f.defendOwnCitations(ctx, tc)
		if err != nil {
			return Result{}, err
		}
		intents = append(intents, defenseIntents...)
		totalCost += defenseCost
	}

	return Result{Intents: intents, Cost: totalCost}, nil
}

func (f *FactChecker) verifyOpponentCitations(ctx context.Context, tc TurnContext) ([]Intent, float64, error) {
	opponentLabel := "team " + f.opponentTeam
	citations := tc.View.CitationPool.Citations[opponentLabel]

	type job struct {
		key string
		url string
	}
	var jobs []job
	for key, c := range citations {
		if c.AddedInRound != tc.RoundNumber {
			continue
		}
		if c.Verification.VerifiedBy == f.Name() {
			continue
		}
		jobs = append(jobs, job{key: key, url: c.SourceURL})
	}
	if len(jobs) == 0 {
		return nil, 0, nil
	}

	intents := make([]Intent, len(jobs))
	var totalCost float64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	costs := make([]float64, len(jobs))

	for i, j := range jobs {
		i, j := i, j
		g.Go(func() error {
			resp, err := tc.Client.Invoke(gctx, provider.Request{
				AgentName:    f.Name(),
				SystemPrompt: "You are a rigorous but fair fact-checker evaluating a citation's credibility and correspondence to the claim it supports.",
				UserPrompt:   fmt.Sprintf("Source URL: %s\nCitation Key: [%s]\n\nRate source credibility (1-10) and content correspondence (1-10), and give a brief adversary comment.", j.url, j.key),
				Temperature:  0.3,
				MaxTokens:    400,
			})
			if err != nil {
				return fmt.Errorf("verifying citation %s: %w", j.key, err)
			}
			v := parsing.ParseFactCheckerVerification(resp.Content)
			cred, corr := v.SourceCredibilityScore, v.ContentCorrespondenceScore
			intents[i] = Intent{
				Kind:        SetVerification,
				Team:        f.opponentTeam,
				CitationKey: j.key,
				Verification: verificationFrom(cred, corr, v.AdversaryComment, f.Name()),
			}
			costs[i] = resp.EstimatedUSD
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	for _, c := range costs {
		totalCost += c
	}
	return intents, totalCost, nil
}

func (f *FactChecker) defendOwnCitations(ctx context.Context, tc TurnContext) ([]Intent, float64, error) {
	ownLabel := "team " + f.team
	citations := tc.View.CitationPool.Citations[ownLabel]

	type job struct {
		key     string
		url     string
		comment string
	}
	var jobs []job
	for key, c := range citations {
		if c.Verification.AdversaryComment != "" && c.Verification.ProponentResponse == "" {
			jobs = append(jobs, job{key: key, url: c.SourceURL, comment: c.Verification.AdversaryComment})
		}
	}
	if len(jobs) == 0 {
		return nil, 0, nil
	}

	intents := make([]Intent, len(jobs))
	costs := make([]float64, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	for i, j := range jobs {
		i, j := i, j
		g.Go(func() error {
			resp, err := tc.Client.Invoke(gctx, provider.Request{
				AgentName:    f.Name(),
				SystemPrompt: "You are defending your team's citation against a rival fact-checker's criticism. Be concise, professional, not defensive.",
				UserPrompt:   fmt.Sprintf("Citation [%s], source %s.\nCriticism received:\n%s\n\nWrite a brief (2-3 sentence) response.", j.key, j.url, j.comment),
				Temperature:  0.3,
				MaxTokens:    200,
			})
			if err != nil {
				return fmt.Errorf("defending citation %s: %w", j.key, err)
			}
			intents[i] = Intent{Kind: SetProponentResponse, Team: f.team, CitationKey: j.key, Response: resp.Content}
			costs[i] = resp.EstimatedUSD
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	var total float64
	for _, c := range costs {
		total += c
	}
	return intents, total, nil
}

func verificationFrom(credibility, correspondence int, comment, verifiedBy string) state.Verification {
	return state.Verification{
		SourceCredibilityScore:     &credibility,
		ContentCorrespondenceScore: &correspondence,
		AdversaryComment:           comment,
		VerifiedBy:                 verifiedBy,
	}
}
