// Package state implements the four canonical debate documents and the
// permission-filtered, copy-on-read StateStore that mediates all access to
// them. There is exactly one writer (the Moderator kernel, via the methods
// below); agents never touch these documents directly.
package state

import "time"

// Turn is one public statement in the debate transcript.
type Turn struct {
	TurnID      string    `json:"turn_id"`
	Speaker     string    `json:"speaker"` // "a" or "b"
	RoundNumber int       `json:"round_number"`
	RoundLabel  string    `json:"round_label"` // "opening" | "rebuttal" | "closing"
	Phase       string    `json:"phase"`
	Statement   string    `json:"statement"`
	WordCount   int       `json:"word_count"`
	DurationMS  int64     `json:"duration_ms"`
	Timestamp   time.Time `json:"timestamp"`
}

// TeamNote is a team-private annex to a public turn, visible only to that
// team's own Debator and FactChecker, never to the judge or the opponent.
type TeamNote struct {
	TurnID    string    `json:"turn_id"`
	Note      string    `json:"note"`
	Timestamp time.Time `json:"timestamp"`
}

// History is history_chat.json.
type History struct {
	DebateID         string                `json:"debate_id"`
	CreatedAt        time.Time             `json:"created_at"`
	PublicTranscript []Turn                `json:"public_transcript"`
	TeamNotes        map[string][]TeamNote `json:"team_notes"` // key: "a" | "b"
}

// Verification is the FactChecker's assessment of one citation, filled in
// two passes: the opponent's offense (scores + adversary_comment) and the
// citing team's own defense (proponent_response).
type Verification struct {
	SourceCredibilityScore     *int       `json:"source_credibility_score"`
	ContentCorrespondenceScore *int       `json:"content_correspondence_score"`
	AdversaryComment           string     `json:"adversary_comment"`
	VerifiedBy                 string     `json:"verified_by"`
	VerifiedAt                 *time.Time `json:"verified_at"`
	ProponentResponse          string     `json:"proponent_response"`
}

// Citation is one entry in a team's citation namespace, keyed "<team>_<n>".
type Citation struct {
	SourceURL    string       `json:"source_url"`
	Snippet      string       `json:"snippet,omitempty"`
	Title        string       `json:"title,omitempty"`
	AddedBy      string       `json:"added_by"`
	AddedInTurn  string       `json:"added_in_turn"`
	AddedInRound int          `json:"added_in_round"`
	AddedAt      time.Time    `json:"added_at"`
	Verification Verification `json:"verification"`
}

// CitationPool is citation_pool.json. Keys of Citations are "team a"/"team b"
// (the transcript's speakers are plain "a"/"b"), each holding a map of
// citation-key to Citation.
type CitationPool struct {
	Citations map[string]map[string]*Citation `json:"citations"`
}

// FrontierIssue is one contested point in a judge's disagreement frontier.
type FrontierIssue struct {
	CoreIssue string `json:"core_issue"`
	AStance   string `json:"a_stance"`
	BStance   string `json:"b_stance"`
}

// LatentRound is one judge analysis entry in debate_latent.json.
type LatentRound struct {
	RoundNumber          int             `json:"round_number"`
	Consensus            []string        `json:"consensus"`
	DisagreementFrontier []FrontierIssue `json:"disagreement_frontier"`
	Summary              string          `json:"summary,omitempty"`
	AnalyzedAt           time.Time       `json:"analyzed_at"`
}

// DebateLatent is debate_latent.json.
type DebateLatent struct {
	RoundHistory []LatentRound `json:"round_history"`
}

// VoteEntry is one persona's single vote within a round.
type VoteEntry struct {
	Round     int       `json:"round"`
	Score     int       `json:"score"`
	Reasoning string    `json:"reasoning,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Voter is one persistent crowd persona and its voting history.
type Voter struct {
	VoterID       string      `json:"voter_id"`
	Name          string      `json:"name"`
	Archetype     string      `json:"archetype"`
	VotingHistory []VoteEntry `json:"voting_history"`
}

// VoteRound summarizes one batched crowd vote across all personas.
type VoteRound struct {
	Round        int       `json:"round"`
	AverageScore float64   `json:"average_score"`
	VoteCount    int       `json:"vote_count"`
	Timestamp    time.Time `json:"timestamp"`
}

// CrowdOpinion is crowd_opinion.json.
type CrowdOpinion struct {
	Voters     []*Voter    `json:"voters"`
	VoteRounds []VoteRound `json:"vote_rounds"`
}
