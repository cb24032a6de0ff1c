package runner

import (
	"fmt"

	"github.com/Plswearpants/AI-debate/internal/agents"
	"github.com/Plswearpants/AI-debate/internal/kernelerr"
	"github.com/Plswearpants/AI-debate/internal/state"
)

// ValidateIntents enforces cross-cutting rules no single Store method can
// check on its own, before any intent in the turn is applied. A closing
// statement may not introduce a citation: closing arguments draw only on
// evidence already on the record.
func ValidateIntents(intents []agents.Intent) error {
	for _, intent := range intents {
		if intent.Kind == agents.AddCitation && intent.Phase == "closing" {
			return kernelerr.New(kernelerr.CitationRuleViolation, "closing phase may not introduce new citations")
		}
	}
	return nil
}

// ApplyAll applies every intent from one agent turn, in order. An
// APPEND_PUBLIC_TURN intent's turn_id is allocated by the Store; any later
// intent in the same turn that carries no TurnID of its own (a team note or
// citation describing that same turn) binds to the id the Store just
// assigned, so agents never invent turn ids themselves.
func ApplyAll(store *state.Store, intents []agents.Intent) error {
	var turnID string
	for _, intent := range intents {
		if intent.Kind == agents.AppendPublicTurn {
			id, err := store.AppendPublicTurn(intent.Turn)
			if err != nil {
				return err
			}
			turnID = id
			continue
		}
		if intent.TurnID == "" {
			intent.TurnID = turnID
		}
		if err := Apply(store, intent); err != nil {
			return err
		}
	}
	return nil
}

// Apply dispatches one agent intent to the matching Store write operation.
// This is the only place agent output ever reaches the canonical
// documents — agents never call Store methods directly. Exposed on its own
// for intents outside the turn-id correlation ApplyAll provides.
func Apply(store *state.Store, intent agents.Intent) error {
	switch intent.Kind {
	case agents.AppendPublicTurn:
		_, err := store.AppendPublicTurn(intent.Turn)
		return err
	case agents.AppendTeamNote:
		return store.AppendTeamNote(intent.Team, intent.TurnID, intent.Note)
	case agents.AddCitation:
		_, err := store.AddCitation(intent.Team, intent.Citation.AddedBy, intent.TurnID, intent.RoundNumber, intent.Citation)
		return err
	case agents.SetVerification:
		return store.SetVerification(intent.Team, intent.CitationKey, intent.Verification)
	case agents.SetProponentResponse:
		return store.SetProponentResponse(intent.Team, intent.CitationKey, intent.Response)
	case agents.AppendLatent:
		return store.AppendLatentRound(intent.LatentRound)
	case agents.RecordCrowdVote:
		return store.RecordCrowdVote(intent.Round, intent.Votes)
	default:
		return fmt.Errorf("unknown intent kind %q", intent.Kind)
	}
}
