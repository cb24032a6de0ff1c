package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Plswearpants/AI-debate/internal/kernelerr"
)

const (
	historyFile  = "history_chat.json"
	citationFile = "citation_pool.json"
	latentFile   = "debate_latent.json"
	crowdFile    = "crowd_opinion.json"
)

// Store owns the four canonical debate documents on disk. It is the single
// writer: every mutation goes through one of its methods, which serialize
// the full document and atomically replace the file. Reads return deep
// copies filtered to what the requesting agent is permitted to see.
type Store struct {
	mu   sync.Mutex
	dir  string
	log  *logrus.Logger
	hist *History
	cite *CitationPool
	lat  *DebateLatent
	crow *CrowdOpinion

	citationSeq map[string]int // team -> next citation index
	turnSeq     int            // next turn_id index
}

// New constructs a Store rooted at dir. It does not touch disk; call
// Initialize for a fresh debate or Load to resume one already on disk.
func New(dir string, log *logrus.Logger) *Store {
	if log == nil {
		log = logrus.New()
	}
	return &Store{dir: dir, log: log, citationSeq: map[string]int{"a": 1, "b": 1}, turnSeq: 1}
}

// Initialize creates the four canonical documents with their empty initial
// shapes and writes them to disk. Must never be called on resume: calling it
// on an existing debate would discard everything already recorded.
func (s *Store) Initialize(debateID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating debate directory: %w", err)
	}

	now := time.Now()
	s.hist = &History{
		DebateID:  debateID,
		CreatedAt: now,
		TeamNotes: map[string][]TeamNote{"a": {}, "b": {}},
	}
	s.cite = &CitationPool{Citations: map[string]map[string]*Citation{
		"team a": {},
		"team b": {},
	}}
	s.lat = &DebateLatent{RoundHistory: []LatentRound{}}
	s.crow = &CrowdOpinion{Voters: []*Voter{}, VoteRounds: []VoteRound{}}
	s.turnSeq = 1

	return s.flushAll()
}

// Load reads all four documents from disk for a resumed debate.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := readJSON(filepath.Join(s.dir, historyFile), &s.hist); err != nil {
		return fmt.Errorf("loading history: %w", err)
	}
	if err := readJSON(filepath.Join(s.dir, citationFile), &s.cite); err != nil {
		return fmt.Errorf("loading citation pool: %w", err)
	}
	if err := readJSON(filepath.Join(s.dir, latentFile), &s.lat); err != nil {
		return fmt.Errorf("loading debate latent: %w", err)
	}
	if err := readJSON(filepath.Join(s.dir, crowdFile), &s.crow); err != nil {
		return fmt.Errorf("loading crowd opinion: %w", err)
	}

	for team, citations := range s.cite.Citations {
		key := teamKey(team)
		for k := range citations {
			var idx int
			if n, err := fmt.Sscanf(k, key+"_%d", &idx); err == nil && n == 1 {
				if idx >= s.citationSeq[key] {
					s.citationSeq[key] = idx + 1
				}
			}
		}
	}
	for _, t := range s.hist.PublicTranscript {
		var idx int
		if n, err := fmt.Sscanf(t.TurnID, "turn_%d", &idx); err == nil && n == 1 {
			if idx >= s.turnSeq {
				s.turnSeq = idx + 1
			}
		}
	}
	return nil
}

func teamKey(teamLabel string) string {
	// teamLabel is "team a" or "team b"; citation keys use the bare letter.
	if len(teamLabel) > 0 {
		return teamLabel[len(teamLabel)-1:]
	}
	return teamLabel
}

// ReadForAgent returns a permission-filtered, deep-copied view of state
// suitable for handing to agentName as its TurnContext.View.
func (s *Store) ReadForAgent(agentName string) (AgentView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	perm, ok := permissions[agentName]
	if !ok {
		return AgentView{}, kernelerr.New(kernelerr.PermissionDenied, "unknown agent %q", agentName)
	}

	view := AgentView{}
	if perm.History {
		h := cloneHistory(s.hist)
		if !perm.OwnTeamNotes {
			h.TeamNotes = map[string][]TeamNote{}
		} else if perm.TeamFilter != "" {
			filtered := map[string][]TeamNote{perm.TeamFilter: h.TeamNotes[perm.TeamFilter]}
			h.TeamNotes = filtered
		}
		view.History = h
	}
	if perm.CitationPool {
		view.CitationPool = cloneCitationPool(s.cite)
	} else {
		view.CitationPool = &CitationPool{Citations: map[string]map[string]*Citation{}}
	}
	if perm.DebateLatent {
		view.DebateLatent = cloneLatent(s.lat)
	}
	if perm.CrowdOpinion {
		view.CrowdOpinion = cloneCrowd(s.crow)
	}
	return view, nil
}

// AgentView is the permission-filtered snapshot handed to an agent.
type AgentView struct {
	History      *History
	CitationPool *CitationPool
	DebateLatent *DebateLatent
	CrowdOpinion *CrowdOpinion
}

type accessRule struct {
	History      bool
	OwnTeamNotes bool
	TeamFilter   string // "" means no filtering beyond OwnTeamNotes gate
	CitationPool bool
	DebateLatent bool
	CrowdOpinion bool
}

// permissions is the exact read-access matrix: who may see team notes
// (never the judge, never the opponent), who sees the citation pool (not
// the crowd), and who sees crowd_opinion (only the crowd agent).
var permissions = map[string]accessRule{
	"debator_a":     {History: true, OwnTeamNotes: true, TeamFilter: "a", CitationPool: true, DebateLatent: true},
	"debator_b":     {History: true, OwnTeamNotes: true, TeamFilter: "b", CitationPool: true, DebateLatent: true},
	"factchecker_a": {History: true, OwnTeamNotes: true, TeamFilter: "a", CitationPool: true, DebateLatent: true},
	"factchecker_b": {History: true, OwnTeamNotes: true, TeamFilter: "b", CitationPool: true, DebateLatent: true},
	"judge":         {History: true, OwnTeamNotes: false, CitationPool: true, DebateLatent: true},
	"crowd":         {History: true, OwnTeamNotes: false, CitationPool: false, DebateLatent: true, CrowdOpinion: true},
}

// --- write operations -------------------------------------------------

// AppendPublicTurn allocates the next turn_id and appends the statement to
// the public transcript, returning the id it assigned. Callers pass a Turn
// with TurnID left blank; the Store is the sole allocator, the same way it
// is for citation keys.
func (s *Store) AppendPublicTurn(t Turn) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	turnID := fmt.Sprintf("turn_%03d", s.turnSeq)
	s.turnSeq++
	t.TurnID = turnID
	t.Timestamp = time.Now()
	s.hist.PublicTranscript = append(s.hist.PublicTranscript, t)
	if err := s.flush(historyFile, s.hist); err != nil {
		return "", err
	}
	return turnID, nil
}

// AppendTeamNote appends a private annex visible only to team.
func (s *Store) AppendTeamNote(team, turnID, note string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if team != "a" && team != "b" {
		return kernelerr.New(kernelerr.SchemaViolation, "invalid team %q", team)
	}
	s.hist.TeamNotes[team] = append(s.hist.TeamNotes[team], TeamNote{TurnID: turnID, Note: note, Timestamp: time.Now()})
	return s.flush(historyFile, s.hist)
}

// AddCitation allocates the next monotonic key for team and records the
// citation. Keys are never recycled even if later removed (they never are).
func (s *Store) AddCitation(team, addedBy, addedInTurn string, round int, c Citation) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if team != "a" && team != "b" {
		return "", kernelerr.New(kernelerr.SchemaViolation, "invalid team %q", team)
	}
	idx := s.citationSeq[team]
	s.citationSeq[team] = idx + 1
	key := fmt.Sprintf("%s_%d", team, idx)

	teamLabel := "team " + team
	if s.cite.Citations[teamLabel] == nil {
		s.cite.Citations[teamLabel] = map[string]*Citation{}
	}
	if _, exists := s.cite.Citations[teamLabel][key]; exists {
		return "", kernelerr.New(kernelerr.KeyCollision, "citation key %q already exists", key)
	}
	c.AddedBy = addedBy
	c.AddedInTurn = addedInTurn
	c.AddedInRound = round
	c.AddedAt = time.Now()
	s.cite.Citations[teamLabel][key] = &c
	return key, s.flush(citationFile, s.cite)
}

// SetVerification merges the opponent FactChecker's offense scores onto an
// existing citation. It errors if the citation key does not exist.
func (s *Store) SetVerification(team, key string, v Verification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	teamLabel := "team " + team
	citation, ok := s.cite.Citations[teamLabel][key]
	if !ok {
		return kernelerr.New(kernelerr.SchemaViolation, "unknown citation %q for %s", key, teamLabel)
	}
	if v.SourceCredibilityScore != nil {
		citation.Verification.SourceCredibilityScore = v.SourceCredibilityScore
	}
	if v.ContentCorrespondenceScore != nil {
		citation.Verification.ContentCorrespondenceScore = v.ContentCorrespondenceScore
	}
	if v.AdversaryComment != "" {
		citation.Verification.AdversaryComment = v.AdversaryComment
	}
	if v.VerifiedBy != "" {
		citation.Verification.VerifiedBy = v.VerifiedBy
	}
	now := time.Now()
	citation.Verification.VerifiedAt = &now
	return s.flush(citationFile, s.cite)
}

// SetProponentResponse records the citing team's own FactChecker's defense
// of a citation that drew an adversary comment. Only the citing team's
// FactChecker may call this for a given citation.
func (s *Store) SetProponentResponse(team, key, response string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	teamLabel := "team " + team
	citation, ok := s.cite.Citations[teamLabel][key]
	if !ok {
		return kernelerr.New(kernelerr.SchemaViolation, "unknown citation %q for %s", key, teamLabel)
	}
	citation.Verification.ProponentResponse = response
	return s.flush(citationFile, s.cite)
}

// AppendLatentRound records one judge analysis pass.
func (s *Store) AppendLatentRound(r LatentRound) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.AnalyzedAt = time.Now()
	s.lat.RoundHistory = append(s.lat.RoundHistory, r)
	return s.flush(latentFile, s.lat)
}

// RecordCrowdVote folds one batched crowd vote into voter histories and
// appends the round summary, creating any new voter records on first sight.
func (s *Store) RecordCrowdVote(round int, votes []PersonaVote) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	byID := make(map[string]*Voter, len(s.crow.Voters))
	for _, v := range s.crow.Voters {
		byID[v.VoterID] = v
	}

	var sum int
	for _, pv := range votes {
		v, ok := byID[pv.VoterID]
		if !ok {
			v = &Voter{VoterID: pv.VoterID, Name: pv.Name, Archetype: pv.Archetype}
			s.crow.Voters = append(s.crow.Voters, v)
			byID[pv.VoterID] = v
		}
		v.VotingHistory = append(v.VotingHistory, VoteEntry{Round: round, Score: pv.Score, Reasoning: pv.Reasoning, Timestamp: time.Now()})
		sum += pv.Score
	}

	avg := 0.0
	if len(votes) > 0 {
		avg = float64(sum) / float64(len(votes))
	}
	s.crow.VoteRounds = append(s.crow.VoteRounds, VoteRound{Round: round, AverageScore: avg, VoteCount: len(votes), Timestamp: time.Now()})
	return s.flush(crowdFile, s.crow)
}

// PersonaVote is one persona's contribution to a batched crowd vote.
type PersonaVote struct {
	VoterID   string
	Name      string
	Archetype string
	Score     int
	Reasoning string
}

// Snapshot returns deep copies of all four documents, used by output
// rendering at the end of a debate.
func (s *Store) Snapshot() (*History, *CitationPool, *DebateLatent, *CrowdOpinion) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneHistory(s.hist), cloneCitationPool(s.cite), cloneLatent(s.lat), cloneCrowd(s.crow)
}

func (s *Store) flushAll() error {
	if err := s.flush(historyFile, s.hist); err != nil {
		return err
	}
	if err := s.flush(citationFile, s.cite); err != nil {
		return err
	}
	if err := s.flush(latentFile, s.lat); err != nil {
		return err
	}
	return s.flush(crowdFile, s.crow)
}

func (s *Store) flush(name string, v any) error {
	return writeJSON(filepath.Join(s.dir, name), v)
}

// writeJSON serializes v and atomically replaces path: write to a temp
// file in the same directory, then rename over the target, so a crash
// mid-write never leaves a truncated document behind.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", path, err)
	}
	data = append(data, '\n')
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("opening %s: %w", tmp, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", tmp, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("syncing %s: %w", tmp, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("renaming %s to %s: %w", tmp, path, err)
	}
	return nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func cloneHistory(h *History) *History {
	if h == nil {
		return nil
	}
	out := *h
	out.PublicTranscript = append([]Turn(nil), h.PublicTranscript...)
	out.TeamNotes = map[string][]TeamNote{}
	for k, v := range h.TeamNotes {
		out.TeamNotes[k] = append([]TeamNote(nil), v...)
	}
	return &out
}

func cloneCitationPool(c *CitationPool) *CitationPool {
	if c == nil {
		return nil
	}
	out := &CitationPool{Citations: map[string]map[string]*Citation{}}
	for team, citations := range c.Citations {
		m := map[string]*Citation{}
		for k, v := range citations {
			cc := *v
			m[k] = &cc
		}
		out.Citations[team] = m
	}
	return out
}

func cloneLatent(l *DebateLatent) *DebateLatent {
	if l == nil {
		return nil
	}
	return &DebateLatent{RoundHistory: append([]LatentRound(nil), l.RoundHistory...)}
}

func cloneCrowd(c *CrowdOpinion) *CrowdOpinion {
	if c == nil {
		return nil
	}
	out := &CrowdOpinion{VoteRounds: append([]VoteRound(nil), c.VoteRounds...)}
	for _, v := range c.Voters {
		vv := *v
		vv.VotingHistory = append([]VoteEntry(nil), v.VotingHistory...)
		out.Voters = append(out.Voters, &vv)
	}
	return out
}
