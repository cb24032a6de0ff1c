package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/Plswearpants/AI-debate/internal/batch"
	"github.com/Plswearpants/AI-debate/internal/crowd"
	"github.com/Plswearpants/AI-debate/internal/provider"
)

// Crowd runs a single batched vote across every persona in the catalog.
// At round 0 (the vote-0 initializer) it asks personas for an initial
// for/against stance used to assign team sides; every later round it asks
// for a 0-100 score reflecting which side the persona currently favors.
type Crowd struct {
	Personas []crowd.Persona
}

// NewCrowd builds a Crowd agent with n generated personas from the catalog.
func NewCrowd(catalog []crowd.Persona, n int) *Crowd {
	return &Crowd{Personas: crowd.Generate(catalog, n)}
}

func (c *Crowd) Name() string { return "crowd" }

func (c *Crowd) Execute(ctx context.Context, tc TurnContext) (Result, error) {
	build := c.buildRequest(tc)
	votes := batch.Fanout(ctx, tc.Client, c.Personas, build)

	forCount, againstCount := 0, 0
	if tc.RoundNumber == 0 {
		for _, v := range votes {
			if v.Score > 50 {
				forCount++
			} else {
				againstCount++
			}
		}
	}

	return Result{
		Intents: []Intent{{Kind: RecordCrowdVote, Round: tc.RoundNumber, Votes: votes}},
		Metadata: map[string]any{
			"vote_count":    len(votes),
			"for_count":     forCount,
			"against_count": againstCount,
		},
	}, nil
}

func (c *Crowd) buildRequest(tc TurnContext) func(crowd.Persona) provider.Request {
	if tc.RoundNumber == 0 {
		return func(p crowd.Persona) provider.Request {
			return provider.Request{
				AgentName:    c.Name(),
				SystemPrompt: fmt.Sprintf("You are %s, a %s. Give your initial gut reaction to a debate topic before any arguments are presented.", p.Name, p.Archetype),
				UserPrompt:   fmt.Sprintf("Topic: %s\n\nOn a scale of 0-100, how much do you initially support this position? (0=strongly against, 100=strongly for)\nThe side with more support will speak first as Team a.\nRespond with JSON: {\"score\": int, \"reasoning\": string}", tc.Topic),
				Temperature:  0.8,
				MaxTokens:    150,
			}
		}
	}

	var lastA, lastB string
	if tc.View.History != nil {
		for i := len(tc.View.History.PublicTranscript) - 1; i >= 0 && (lastA == "" || lastB == ""); i-- {
			t := tc.View.History.PublicTranscript[i]
			if t.Speaker == "a" && lastA == "" {
				lastA = truncate(t.Statement, 400)
			}
			if t.Speaker == "b" && lastB == "" {
				lastB = truncate(t.Statement, 400)
			}
		}
	}

	return func(p crowd.Persona) provider.Request {
		return provider.Request{
			AgentName:    c.Name(),
			SystemPrompt: fmt.Sprintf("You are %s, a %s, watching a live debate.", p.Name, p.Archetype),
			UserPrompt: fmt.Sprintf(
				"Topic: %s\n\nTeam a's latest statement:\n%s\n\nTeam b's latest statement:\n%s\n\n"+
					"Score 0-100: 0 means strongly favor Team b, 100 means strongly favor Team a.\n"+
					"Respond with JSON: {\"score\": int, \"reasoning\": string}",
				tc.Topic, lastA, lastB),
			Temperature: 0.7,
			MaxTokens:   150,
		}
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return strings.TrimSpace(s[:n])
}
