// Package batch implements BatchFanout: the bounded-concurrency execution
// of N independent persona calls that must still be logged as a single
// provider call.
package batch

import (
	"context"

	"github.com/Plswearpants/AI-debate/internal/crowd"
	"github.com/Plswearpants/AI-debate/internal/provider"
	"github.com/Plswearpants/AI-debate/internal/state"
)

// DefaultConcurrency is the suggested number of persona calls to run at
// once. Nothing in this package applies it: Fanout hands over the whole
// persona request list in one call so it logs as a single batch entry,
// and any bound on in-flight calls is the Client's InvokeBatch
// implementation's own (StubClient uses its own limit of 10).
const DefaultConcurrency = 10

// ParseVote parses a crowd vote response: JSON first, then a "score: NN"
// regex fallback, defaulting to an abstaining 50 and clamping to [1,100].
// Reasoning is truncated to 200 characters, matching the source's cap on
// how much persona commentary survives into crowd_opinion.json.
func ParseVote(content string) (score int, reasoning string) {
	return parseVote(content)
}

// Fanout builds one request per persona and hands the whole slice to a
// single client.InvokeBatch call, so N persona calls produce exactly one
// raw-call log entry. A persona whose response is missing or whose call
// failed (a short responses slice, or a non-nil err covering the whole
// batch) falls back to an abstaining score of 50 rather than failing the
// whole turn.
func Fanout(
	ctx context.Context,
	client provider.Client,
	personas []crowd.Persona,
	buildRequest func(crowd.Persona) provider.Request,
) []state.PersonaVote {
	reqs := make([]provider.Request, len(personas))
	for i, p := range personas {
		reqs[i] = buildRequest(p)
	}

	resps, err := client.InvokeBatch(ctx, reqs)

	votes := make([]state.PersonaVote, len(personas))
	for i, persona := range personas {
		score, reasoning := 50, ""
		if err == nil && i < len(resps) {
			score, reasoning = parseVote(resps[i].Content)
		}
		votes[i] = state.PersonaVote{
			VoterID:   persona.VoterID,
			Name:      persona.Name,
			Archetype: persona.Archetype,
			Score:     score,
			Reasoning: reasoning,
		}
	}
	return votes
}
