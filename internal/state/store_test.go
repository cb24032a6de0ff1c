package state_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Plswearpants/AI-debate/internal/kernelerr"
	"github.com/Plswearpants/AI-debate/internal/state"
)

func newInitializedStore(t *testing.T) *state.Store {
	t.Helper()
	s := state.New(t.TempDir(), nil)
	require.NoError(t, s.Initialize("debate-1"))
	return s
}

func TestInitializeCreatesEmptyDocuments(t *testing.T) {
	s := newInitializedStore(t)

	view, err := s.ReadForAgent("judge")
	require.NoError(t, err)
	assert.Empty(t, view.History.PublicTranscript)
	assert.Equal(t, "debate-1", view.History.DebateID)
}

func TestReadForAgentRejectsUnknownAgent(t *testing.T) {
	s := newInitializedStore(t)
	_, err := s.ReadForAgent("intruder")
	require.Error(t, err)
	assert.ErrorIs(t, err, kernelerr.ErrPermissionDenied)
}

func TestJudgeNeverSeesTeamNotes(t *testing.T) {
	s := newInitializedStore(t)
	require.NoError(t, s.AppendTeamNote("a", "turn-1", "secret strategy"))
	require.NoError(t, s.AppendTeamNote("b", "turn-2", "opponent strategy"))

	view, err := s.ReadForAgent("judge")
	require.NoError(t, err)
	assert.Empty(t, view.History.TeamNotes)
}

func TestDebatorOnlySeesOwnTeamNotes(t *testing.T) {
	s := newInitializedStore(t)
	require.NoError(t, s.AppendTeamNote("a", "turn-1", "team a's note"))
	require.NoError(t, s.AppendTeamNote("b", "turn-2", "team b's note"))

	view, err := s.ReadForAgent("debator_a")
	require.NoError(t, err)
	assert.Len(t, view.History.TeamNotes["a"], 1)
	assert.Empty(t, view.History.TeamNotes["b"])
}

func TestCrowdNeverSeesCitationPoolButSeesOwnCrowdOpinion(t *testing.T) {
	s := newInitializedStore(t)
	_, err := s.AddCitation("a", "debator_a", "turn-1", 1, state.Citation{SourceURL: "https://example.com"})
	require.NoError(t, err)

	view, err := s.ReadForAgent("crowd")
	require.NoError(t, err)
	assert.Empty(t, view.CitationPool.Citations)
	assert.NotNil(t, view.CrowdOpinion)
}

func TestAddCitationKeysAreMonotonicPerTeamAndNeverRecycled(t *testing.T) {
	s := newInitializedStore(t)

	k1, err := s.AddCitation("a", "debator_a", "turn-1", 1, state.Citation{SourceURL: "https://a.example/1"})
	require.NoError(t, err)
	k2, err := s.AddCitation("a", "debator_a", "turn-2", 2, state.Citation{SourceURL: "https://a.example/2"})
	require.NoError(t, err)
	kb1, err := s.AddCitation("b", "debator_b", "turn-3", 1, state.Citation{SourceURL: "https://b.example/1"})
	require.NoError(t, err)

	assert.Equal(t, "a_1", k1)
	assert.Equal(t, "a_2", k2)
	assert.Equal(t, "b_1", kb1)
}

func TestAppendPublicTurnAllocatesSequentialTurnIDs(t *testing.T) {
	s := newInitializedStore(t)

	id1, err := s.AppendPublicTurn(state.Turn{Speaker: "a", Statement: "opening"})
	require.NoError(t, err)
	id2, err := s.AppendPublicTurn(state.Turn{Speaker: "b", Statement: "response"})
	require.NoError(t, err)

	assert.Equal(t, "turn_001", id1)
	assert.Equal(t, "turn_002", id2)

	view, err := s.ReadForAgent("judge")
	require.NoError(t, err)
	require.Len(t, view.History.PublicTranscript, 2)
	assert.Equal(t, id1, view.History.PublicTranscript[0].TurnID)
	assert.Equal(t, id2, view.History.PublicTranscript[1].TurnID)
}

func TestAddCitationRejectsInvalidTeam(t *testing.T) {
	s := newInitializedStore(t)
	_, err := s.AddCitation("c", "debator_a", "turn-1", 1, state.Citation{SourceURL: "https://example.com"})
	require.Error(t, err)
	assert.ErrorIs(t, err, kernelerr.ErrSchemaViolation)
}

func TestSetVerificationMergesFieldsWithoutClobbering(t *testing.T) {
	s := newInitializedStore(t)
	key, err := s.AddCitation("a", "debator_a", "turn-1", 1, state.Citation{SourceURL: "https://example.com"})
	require.NoError(t, err)

	credibility := 80
	require.NoError(t, s.SetVerification("a", key, state.Verification{
		SourceCredibilityScore: &credibility,
		VerifiedBy:             "factchecker_b",
	}))

	correspondence := 60
	require.NoError(t, s.SetVerification("a", key, state.Verification{
		ContentCorrespondenceScore: &correspondence,
		AdversaryComment:           "source doesn't support the claim",
	}))

	view, err := s.ReadForAgent("judge")
	require.NoError(t, err)
	citation := view.CitationPool.Citations["team a"][key]
	require.NotNil(t, citation)
	assert.Equal(t, 80, *citation.Verification.SourceCredibilityScore)
	assert.Equal(t, 60, *citation.Verification.ContentCorrespondenceScore)
	assert.Equal(t, "factchecker_b", citation.Verification.VerifiedBy)
	assert.Equal(t, "source doesn't support the claim", citation.Verification.AdversaryComment)
}

func TestSetProponentResponseRequiresExistingCitation(t *testing.T) {
	s := newInitializedStore(t)
	err := s.SetProponentResponse("a", "a_99", "nice try")
	require.Error(t, err)
	assert.ErrorIs(t, err, kernelerr.ErrSchemaViolation)
}

func TestRecordCrowdVoteCreatesVotersAndAveragesScores(t *testing.T) {
	s := newInitializedStore(t)
	require.NoError(t, s.RecordCrowdVote(1, []state.PersonaVote{
		{VoterID: "v1", Name: "Alex", Archetype: "skeptic", Score: 40},
		{VoterID: "v2", Name: "Sam", Archetype: "optimist", Score: 60},
	}))

	view, err := s.ReadForAgent("crowd")
	require.NoError(t, err)
	require.Len(t, view.CrowdOpinion.Voters, 2)
	require.Len(t, view.CrowdOpinion.VoteRounds, 1)
	assert.Equal(t, 50.0, view.CrowdOpinion.VoteRounds[0].AverageScore)
}

func TestLoadResumesWithoutReinitializing(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "debate")
	first := state.New(dir, nil)
	require.NoError(t, first.Initialize("debate-resume"))
	turnID, err := first.AppendPublicTurn(state.Turn{Speaker: "a", Statement: "opening"})
	require.NoError(t, err)
	_, err = first.AddCitation("a", "debator_a", turnID, 1, state.Citation{SourceURL: "https://example.com/1"})
	require.NoError(t, err)

	second := state.New(dir, nil)
	require.NoError(t, second.Load())

	view, err := second.ReadForAgent("judge")
	require.NoError(t, err)
	assert.Len(t, view.History.PublicTranscript, 1)

	// citation sequence must continue from where it left off, not restart at 1.
	key, err := second.AddCitation("a", "debator_a", "t2", 2, state.Citation{SourceURL: "https://example.com/2"})
	require.NoError(t, err)
	assert.Equal(t, "a_2", key)

	// turn_id sequence must continue too, not restart at turn_001.
	turnID2, err := second.AppendPublicTurn(state.Turn{Speaker: "b", Statement: "rebuttal"})
	require.NoError(t, err)
	assert.Equal(t, "turn_002", turnID2)
}

func TestSnapshotReturnsIndependentCopies(t *testing.T) {
	s := newInitializedStore(t)
	_, err := s.AppendPublicTurn(state.Turn{Speaker: "a", Statement: "hello"})
	require.NoError(t, err)

	hist, _, _, _ := s.Snapshot()
	hist.PublicTranscript[0].Statement = "mutated"

	view, err := s.ReadForAgent("judge")
	require.NoError(t, err)
	assert.Equal(t, "hello", view.History.PublicTranscript[0].Statement)
}
