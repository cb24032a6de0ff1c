package parsing_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Plswearpants/AI-debate/internal/parsing"
)

func TestParseDebatorStatementFromJSON(t *testing.T) {
	raw := `{"main_statement":"we should act now","supplementary_material":"extra context","citations":[{"citation_key":"a_1","source_url":"https://x.example"}]}`
	out := parsing.ParseDebatorStatement(raw)
	assert.Equal(t, "we should act now", out.MainStatement)
	assert.Equal(t, "extra context", out.SupplementaryMaterial)
	require.Len(t, out.Citations, 1)
	assert.Equal(t, "a_1", out.Citations[0].CitationKey)
}

func TestParseDebatorStatementFromCodeFencedJSON(t *testing.T) {
	raw := "```json\n{\"main_statement\":\"fenced\",\"supplementary_material\":\"\",\"citations\":[]}\n```"
	out := parsing.ParseDebatorStatement(raw)
	assert.Equal(t, "fenced", out.MainStatement)
}

func TestParseDebatorStatementFallsBackToPlainText(t *testing.T) {
	raw := "The policy works well [a_1] and also [b_2].\nSUPPLEMENTARY: more detail here"
	out := parsing.ParseDebatorStatement(raw)
	assert.Contains(t, out.MainStatement, "The policy works well")
	assert.Equal(t, "more detail here", out.SupplementaryMaterial)
	require.Len(t, out.Citations, 2)
	keys := []string{out.Citations[0].CitationKey, out.Citations[1].CitationKey}
	assert.ElementsMatch(t, []string{"a_1", "b_2"}, keys)
}

func TestParseFactCheckerVerificationFromJSON(t *testing.T) {
	raw := `{"source_credibility_score":8,"content_correspondence_score":7,"adversary_comment":"solid source"}`
	out := parsing.ParseFactCheckerVerification(raw)
	assert.Equal(t, 8, out.SourceCredibilityScore)
	assert.Equal(t, 7, out.ContentCorrespondenceScore)
	assert.Equal(t, "solid source", out.AdversaryComment)
}

func TestParseFactCheckerVerificationFallsBackToRegexAndClamps(t *testing.T) {
	raw := "Credibility score is 15 out of 10, correspondence rating: 3."
	out := parsing.ParseFactCheckerVerification(raw)
	assert.Equal(t, 10, out.SourceCredibilityScore) // clamped from 15
	assert.Equal(t, 3, out.ContentCorrespondenceScore)
}

func TestParseFactCheckerVerificationDefaultsWhenNoScoresFound(t *testing.T) {
	raw := "I have no idea how credible this is."
	out := parsing.ParseFactCheckerVerification(raw)
	assert.Equal(t, 1, out.SourceCredibilityScore)
	assert.Equal(t, 1, out.ContentCorrespondenceScore)
}

func TestParseFactCheckerVerificationTruncatesLongComment(t *testing.T) {
	raw := strings.Repeat("x", 500)
	out := parsing.ParseFactCheckerVerification(raw)
	assert.Len(t, out.AdversaryComment, 300)
}

func TestParseJudgeAnalysisFromJSONTrimsFields(t *testing.T) {
	raw := `{"consensus":["  both sides agree taxes matter  ", ""],"disagreement_frontier":[{"core_issue":" rate ","a_stance":" raise ","b_stance":" lower "}]}`
	out := parsing.ParseJudgeAnalysis(raw)
	assert.Equal(t, []string{"both sides agree taxes matter"}, out.Consensus)
	assert.Equal(t, "rate", out.DisagreementFrontier[0].CoreIssue)
	assert.Equal(t, "raise", out.DisagreementFrontier[0].AStance)
	assert.Equal(t, "lower", out.DisagreementFrontier[0].BStance)
}

func TestParseJudgeAnalysisFallsBackToBulletExtraction(t *testing.T) {
	raw := "Points of agreement:\n- growth matters\n* fairness matters\n"
	out := parsing.ParseJudgeAnalysis(raw)
	assert.ElementsMatch(t, []string{"growth matters", "fairness matters"}, out.Consensus)
}

func TestParseVoteOutputFromJSON(t *testing.T) {
	raw := `{"score":73,"reasoning":"persuasive argument"}`
	out := parsing.ParseVoteOutput(raw)
	assert.Equal(t, 73, out.Score)
	assert.Equal(t, "persuasive argument", out.Reasoning)
}

func TestParseVoteOutputFallsBackToRegexScore(t *testing.T) {
	raw := "My score: 82 because of the evidence presented."
	out := parsing.ParseVoteOutput(raw)
	assert.Equal(t, 82, out.Score)
}

func TestParseVoteOutputDefaultsToAbstainingFifty(t *testing.T) {
	raw := "I genuinely cannot decide on this one."
	out := parsing.ParseVoteOutput(raw)
	assert.Equal(t, 50, out.Score)
}

func TestParseVoteOutputClampsAboveOneHundred(t *testing.T) {
	raw := `{"score":500,"reasoning":""}`
	out := parsing.ParseVoteOutput(raw)
	assert.Equal(t, 100, out.Score)
}

func TestParseVoteOutputTreatsZeroScoreAsAbstaining(t *testing.T) {
	raw := `{"score":0,"reasoning":"no opinion"}`
	out := parsing.ParseVoteOutput(raw)
	assert.Equal(t, 50, out.Score)
}
