// Package agents implements the five agent contracts (Debator, FactChecker,
// Judge, Crowd, and the Crowd's vote-0 initializer mode) as a single
// polymorphic Agent interface producing a tagged-union Intent list the
// AgentRunner applies against the StateStore.
package agents

import (
	"context"

	"github.com/Plswearpants/AI-debate/internal/cost"
	"github.com/Plswearpants/AI-debate/internal/provider"
	"github.com/Plswearpants/AI-debate/internal/state"
)

// IntentKind names one of the seven state-mutating operations an agent may
// request. The vocabulary matches the kernel's write-operation contract
// exactly: agents never write state directly, they only describe intents.
type IntentKind string

const (
	AppendPublicTurn     IntentKind = "APPEND_PUBLIC_TURN"
	AppendTeamNote       IntentKind = "APPEND_TEAM_NOTE"
	AddCitation          IntentKind = "ADD_CITATION"
	SetVerification      IntentKind = "SET_VERIFICATION"
	SetProponentResponse IntentKind = "SET_PROPONENT_RESPONSE"
	AppendLatent         IntentKind = "APPEND_LATENT"
	RecordCrowdVote      IntentKind = "RECORD_CROWD_VOTE"
)

// Intent is one requested state mutation. Only the fields relevant to Kind
// are populated; the runner's dispatcher reads exactly those. Phase is the
// phase the turn that produced this intent was running in; the runner
// stamps it before validating, agents never set it themselves.
type Intent struct {
	Kind  IntentKind
	Phase string

	Team string

	Turn         state.Turn
	TurnID       string
	RoundNumber  int
	Note         string
	Citation     state.Citation
	CitationKey  string
	Verification state.Verification
	Response     string
	LatentRound  state.LatentRound
	Votes        []state.PersonaVote
	Round        int
}

// TurnContext is everything an agent needs to produce its intents for one
// turn: identifying information, the permission-filtered state view, and
// its provider/cost collaborators.
type TurnContext struct {
	DebateID    string
	Topic       string
	Phase       string // "vote0" | "opening" | "rebuttal" | "closing"
	RoundNumber int
	View        state.AgentView
	Governor    *cost.Governor
	Client      provider.Client
}

// Result is what executing a turn produced: the intents to apply, the
// actual cost incurred, and free-form metadata for the raw call log.
type Result struct {
	Intents  []Intent
	Cost     float64
	Metadata map[string]any
}

// Agent is the common interface all five contracts satisfy.
type Agent interface {
	Name() string
	Execute(ctx context.Context, tc TurnContext) (Result, error)
}
