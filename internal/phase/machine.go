// Package phase implements the debate's phase/turn state machine: one-way
// validated transitions between phases, and the fixed per-phase turn order
// each phase hands out one speaker at a time.
package phase

import (
	"fmt"
	"time"

	"github.com/Plswearpants/AI-debate/internal/kernelerr"
)

// Phase is one of the five debate phases, visited in order exactly once
// each (ROUNDS repeats its own turn order once per configured round).
type Phase string

const (
	Init    Phase = "INIT"
	Opening Phase = "OPENING"
	Rounds  Phase = "ROUNDS"
	Closing Phase = "CLOSING"
	Done    Phase = "DONE"
)

// validTransitions lists the only phase changes Advance will accept.
var validTransitions = map[Phase]Phase{
	Init:    Opening,
	Opening: Rounds,
	Rounds:  Closing,
	Closing: Done,
}

// turnOrders gives the fixed agent sequence for each phase, following the
// opening/rebuttal/closing schedules: opening speaks debator-first then its
// opponent's check, rebuttal rounds lead with fact-checking before the
// debators restate, and closing leads with both fact-checkers before either
// side's closing statement.
var turnOrders = map[Phase][]string{
	Opening: {"debator_a", "factchecker_b", "debator_b", "factchecker_a", "judge", "crowd"},
	Rounds:  {"factchecker_a", "debator_a", "factchecker_b", "debator_b", "judge", "crowd"},
	Closing: {"factchecker_a", "factchecker_b", "debator_a", "debator_b", "judge", "crowd"},
}

// Machine tracks the debate's current phase, round and turn position.
type Machine struct {
	Phase              Phase     `json:"phase"`
	RoundNumber        int       `json:"round_number"`
	TurnIndex          int       `json:"turn_index"`
	TotalRounds        int       `json:"total_rounds"`
	TeamA              string    `json:"team_a"` // original side label assigned to "a"
	TeamB              string    `json:"team_b"`
	UnderdogTeam       string    `json:"underdog_team,omitempty"`
	ResourceMultiplier float64   `json:"resource_multiplier"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// New creates a machine at INIT for a debate configured to run totalRounds
// rebuttal rounds after the opening.
func New(totalRounds int) *Machine {
	return &Machine{Phase: Init, TotalRounds: totalRounds, ResourceMultiplier: 1.0, UpdatedAt: time.Now()}
}

// CurrentSpeaker returns the agent name whose turn it is, or "" if the
// current phase has exhausted its turn order (time to Advance).
func (m *Machine) CurrentSpeaker() string {
	order, ok := turnOrders[m.Phase]
	if !ok || m.TurnIndex >= len(order) {
		return ""
	}
	return order[m.TurnIndex]
}

// RoundLabel returns the transcript label for the current phase/round.
func (m *Machine) RoundLabel() string {
	switch m.Phase {
	case Opening:
		return "opening"
	case Rounds:
		return "rebuttal"
	case Closing:
		return "closing"
	default:
		return ""
	}
}

// NextTurn advances the turn pointer within the current phase.
func (m *Machine) NextTurn() {
	m.TurnIndex++
	m.UpdatedAt = time.Now()
}

// NextRound resets the turn pointer and advances round_number, used between
// ROUNDS iterations (round_number starts at 2, since opening is round 1).
func (m *Machine) NextRound() {
	m.RoundNumber++
	m.TurnIndex = 0
	m.UpdatedAt = time.Now()
}

// PhaseComplete reports whether every turn in the current phase's order has
// been taken.
func (m *Machine) PhaseComplete() bool {
	order, ok := turnOrders[m.Phase]
	if !ok {
		return true
	}
	return m.TurnIndex >= len(order)
}

// RoundsComplete reports whether the ROUNDS phase has run its configured
// number of rebuttal rounds.
func (m *Machine) RoundsComplete() bool {
	return m.RoundNumber-1 >= m.TotalRounds // round_number 2 is rebuttal round 1
}

// Advance transitions to the next phase. It rejects any transition not in
// validTransitions, and resets the turn pointer (and, entering OPENING,
// sets round_number to 1) for the new phase.
func (m *Machine) Advance() error {
	next, ok := validTransitions[m.Phase]
	if !ok {
		return kernelerr.New(kernelerr.InvalidTransition, "phase %s has no valid successor", m.Phase)
	}
	m.Phase = next
	m.TurnIndex = 0
	switch next {
	case Opening:
		m.RoundNumber = 1
	case Rounds:
		m.RoundNumber = 2
	case Closing:
		m.RoundNumber++
	}
	m.UpdatedAt = time.Now()
	return nil
}

// AssignTeams maps the vote-0 for/against split onto team labels "a"/"b":
// the side with more initial support speaks first as Team a, matching the
// convention that Team a always opens. A tied split is broken by a
// deterministic coin flip seeded by debateID, so a tie always resolves the
// same way for a given debate but is not hard-coded to either side.
func (m *Machine) AssignTeams(debateID string, forCount, againstCount int) {
	forWins := forCount > againstCount
	if forCount == againstCount {
		forWins = tieBreakFavorsFor(debateID)
	}
	if forWins {
		m.TeamA, m.TeamB = "for", "against"
	} else {
		m.TeamA, m.TeamB = "against", "for"
	}
}

// tieBreakFavorsFor derives a stable coin flip from debateID: the parity of
// the sum of its bytes. Two debates with the same id always flip the same
// way; different ids are not biased toward either side.
func tieBreakFavorsFor(debateID string) bool {
	var sum byte
	for i := 0; i < len(debateID); i++ {
		sum += debateID[i]
	}
	return sum%2 == 0
}

// CalculateResourceMultiplier records a research-budget boost for the
// underdog team when the initial vote-0 split is lopsided past threshold.
// The multiplier is advisory only: it is stored on the Machine, nothing in
// the cost governor or the agents reads it, and research depth is
// unchanged by it.
func (m *Machine) CalculateResourceMultiplier(forCount, againstCount int, threshold float64) {
	total := forCount + againstCount
	if total == 0 {
		m.ResourceMultiplier = 1.0
		m.UnderdogTeam = ""
		return
	}
	maxVotes := forCount
	if againstCount > maxVotes {
		maxVotes = againstCount
	}
	bias := float64(maxVotes) / float64(total)
	if bias <= threshold {
		m.ResourceMultiplier = 1.0
		m.UnderdogTeam = ""
		return
	}
	m.ResourceMultiplier = 1.25
	if forCount < againstCount {
		m.UnderdogTeam = m.teamLabelFor("for")
	} else {
		m.UnderdogTeam = m.teamLabelFor("against")
	}
}

func (m *Machine) teamLabelFor(side string) string {
	if m.TeamA == side {
		return "a"
	}
	return "b"
}

func (m *Machine) String() string {
	return fmt.Sprintf("%s round=%d turn=%d", m.Phase, m.RoundNumber, m.TurnIndex)
}
