package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/Plswearpants/AI-debate/internal/cost"
	"github.com/Plswearpants/AI-debate/internal/parsing"
	"github.com/Plswearpants/AI-debate/internal/provider"
	"github.com/Plswearpants/AI-debate/internal/state"
)

// Debator generates opening, rebuttal and closing statements for one team,
// researching new sources at a depth the cost governor's current tier
// allows, then registering whatever citations the statement introduces.
type Debator struct {
	team string // "a" | "b"
}

// NewDebator returns the debator for team ("a" or "b").
func NewDebator(team string) *Debator { return &Debator{team: team} }

func (d *Debator) Name() string { return "debator_" + d.team }

func (d *Debator) Execute(ctx context.Context, tc TurnContext) (Result, error) {
	tier := cost.TierNone
	if tc.Governor != nil {
		tier = tc.Governor.TierForBudget()
	}

	research := ""
	researchCost := 0.0
	if tc.Phase != "closing" && tier != cost.TierNone {
		resp, err := tc.Client.Invoke(ctx, provider.Request{
			AgentName:    d.Name(),
			SystemPrompt: d.researchSystemPrompt(tier),
			UserPrompt:   d.researchUserPrompt(tc),
			Temperature:  0.4,
			MaxTokens:    d.researchTokenBudget(tier),
		})
		if err == nil {
			research = resp.Content
			researchCost = resp.EstimatedUSD
		}
	}

	statementResp, err := tc.Client.Invoke(ctx, provider.Request{
		AgentName:    d.Name(),
		SystemPrompt: d.systemPrompt(tc.Phase),
		UserPrompt:   d.statementUserPrompt(tc, research),
		Temperature:  0.6,
		MaxTokens:    1200,
	})
	if err != nil {
		return Result{}, fmt.Errorf("debator %s statement call: %w", d.team, err)
	}

	parsed := parsing.ParseDebatorStatement(statementResp.Content)

	turn := state.Turn{
		Speaker:     d.team,
		RoundNumber: tc.RoundNumber,
		RoundLabel:  tc.Phase,
		Phase:       tc.Phase,
		Statement:   parsed.MainStatement,
		WordCount:   len(strings.Fields(parsed.MainStatement)),
	}

	// turn_id is allocated by the Store when APPEND_PUBLIC_TURN is applied;
	// the team note and any citation below leave TurnID blank and the
	// runner binds them to that allocated id.
	intents := []Intent{{Kind: AppendPublicTurn, Turn: turn}}

	if parsed.SupplementaryMaterial != "" {
		intents = append(intents, Intent{Kind: AppendTeamNote, Team: d.team, Note: parsed.SupplementaryMaterial})
	}

	if tc.Phase != "closing" {
		for _, c := range parsed.Citations {
			if c.SourceURL == "" {
				continue // referenced an already-known key, nothing new to register
			}
			intents = append(intents, Intent{
				Kind:        AddCitation,
				Team:        d.team,
				RoundNumber: tc.RoundNumber,
				Citation: state.Citation{
					SourceURL: c.SourceURL,
					Title:     c.SourceTitle,
					Snippet:   c.RelevantQuote,
					AddedBy:   d.Name(),
				},
			})
		}
	}

	return Result{
		Intents: intents,
		Cost:    researchCost + statementResp.EstimatedUSD,
		Metadata: map[string]any{
			"research_tier": tier,
			"citations":     len(parsed.Citations),
		},
	}, nil
}

func (d *Debator) systemPrompt(phase string) string {
	base := fmt.Sprintf("You are the Debator for Team %s in a structured, adversarial debate.\n", strings.ToUpper(d.team))
	switch phase {
	case "opening":
		return base + "Open with a clear thesis and 2-3 supporting arguments. Cite every factual claim inline as [" + d.team + "_N]."
	case "rebuttal":
		return base + "Address the current disagreement frontier directly. Introduce new evidence only where it advances your position. Cite inline as [" + d.team + "_N]."
	case "closing":
		return base + "Summarize your strongest arguments and respond to the opponent's strongest points. Do NOT introduce new citations: closing statements argue from evidence already on the record."
	default:
		return base
	}
}

func (d *Debator) statementUserPrompt(tc TurnContext, research string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Topic: %s\n\n", tc.Topic)
	if research != "" {
		fmt.Fprintf(&b, "Research findings:\n%s\n\n", research)
	}
	if tc.View.History != nil && len(tc.View.History.PublicTranscript) > 0 {
		b.WriteString("Recent statements:\n")
		transcript := tc.View.History.PublicTranscript
		start := 0
		if len(transcript) > 3 {
			start = len(transcript) - 3
		}
		for _, t := range transcript[start:] {
			fmt.Fprintf(&b, "[%s] Team %s: %s\n", t.RoundLabel, t.Speaker, t.Statement)
		}
		b.WriteString("\n")
	}
	if tc.View.DebateLatent != nil && len(tc.View.DebateLatent.RoundHistory) > 0 {
		latest := tc.View.DebateLatent.RoundHistory[len(tc.View.DebateLatent.RoundHistory)-1]
		if len(latest.DisagreementFrontier) > 0 {
			b.WriteString("Disagreement frontier to address:\n")
			for _, f := range latest.DisagreementFrontier {
				fmt.Fprintf(&b, "- %s\n", f.CoreIssue)
			}
			b.WriteString("\n")
		}
	}
	b.WriteString("Respond with JSON: {\"main_statement\": string, \"supplementary_material\": string, \"citations\": [{\"citation_key\": string, \"source_url\": string, \"source_title\": string, \"relevant_quote\": string}]}")
	return b.String()
}

func (d *Debator) researchSystemPrompt(tier cost.Tier) string {
	return fmt.Sprintf("You are a research assistant for a debate. Research depth: %s.", tier)
}

func (d *Debator) researchUserPrompt(tc TurnContext) string {
	return fmt.Sprintf("Find supporting evidence for Team %s's position on: %s", strings.ToUpper(d.team), tc.Topic)
}

func (d *Debator) researchTokenBudget(tier cost.Tier) int {
	switch tier {
	case cost.TierDeep:
		return 8000
	case cost.TierStandard:
		return 3000
	case cost.TierQuick:
		return 800
	default:
		return 0
	}
}
