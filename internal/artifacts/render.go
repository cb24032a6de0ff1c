// Package artifacts renders the four debate outputs — transcript, citation
// ledger, logic map, and voter sentiment graph — as pure functions over a
// state snapshot. Nothing here touches the filesystem except the Write
// helpers at the bottom; the render functions themselves are side-effect
// free and straightforward to test.
package artifacts

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Plswearpants/AI-debate/internal/state"
)

// RenderTranscript produces a Markdown transcript: one section per public
// turn, with any team notes attached to that turn folded into a collapsed
// details block so the main reading flow stays uncluttered.
func RenderTranscript(topic string, h *state.History) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Debate Transcript\n\n**Topic:** %s\n\n", topic)

	notesByTurn := map[string][]state.TeamNote{}
	for _, notes := range h.TeamNotes {
		for _, n := range notes {
			notesByTurn[n.TurnID] = append(notesByTurn[n.TurnID], n)
		}
	}

	for _, t := range h.PublicTranscript {
		fmt.Fprintf(&b, "## Round %d - Team %s (%s)\n\n%s\n\n", t.RoundNumber, strings.ToUpper(t.Speaker), t.RoundLabel, t.Statement)
		if notes, ok := notesByTurn[t.TurnID]; ok {
			b.WriteString("<details><summary>Team notes</summary>\n\n")
			for _, n := range notes {
				fmt.Fprintf(&b, "%s\n\n", n.Note)
			}
			b.WriteString("</details>\n\n")
		}
	}
	return b.String()
}

// citationLedgerEntry flattens a Citation with its key and team for the
// ledger's JSON array representation.
type citationLedgerEntry struct {
	Key          string             `json:"key"`
	Team         string             `json:"team"`
	SourceURL    string             `json:"source_url"`
	Title        string             `json:"title,omitempty"`
	Snippet      string             `json:"snippet,omitempty"`
	AddedBy      string             `json:"added_by"`
	AddedInRound int                `json:"added_in_round"`
	Verification state.Verification `json:"verification"`
}

// RenderCitationLedger flattens the citation pool into a sorted-by-key
// JSON array, one entry per citation across both teams.
func RenderCitationLedger(pool *state.CitationPool) ([]byte, error) {
	var entries []citationLedgerEntry
	for team, citations := range pool.Citations {
		for key, c := range citations {
			entries = append(entries, citationLedgerEntry{
				Key: key, Team: team, SourceURL: c.SourceURL, Title: c.Title,
				Snippet: c.Snippet, AddedBy: c.AddedBy, AddedInRound: c.AddedInRound,
				Verification: c.Verification,
			})
		}
	}
	sortCitations(entries)
	return json.MarshalIndent(entries, "", "  ")
}

func sortCitations(entries []citationLedgerEntry) {
	for i := 1; i < len(entries); i++ {
		for j := i; j > 0 && entries[j].Key < entries[j-1].Key; j-- {
			entries[j], entries[j-1] = entries[j-1], entries[j]
		}
	}
}

// RenderLogicMap serializes the judge's round-by-round analysis directly.
func RenderLogicMap(latent *state.DebateLatent) ([]byte, error) {
	return json.MarshalIndent(latent, "", "  ")
}

// RenderSentimentGraph produces the CSV time series of every persona's vote
// across every round, one row per (round, voter) pair in voter order, with
// an archetype column so downstream analysis can slice by persona category.
func RenderSentimentGraph(crowdOpinion *state.CrowdOpinion) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"round", "voter_id", "score", "archetype"}); err != nil {
		return nil, err
	}
	for _, voter := range crowdOpinion.Voters {
		for _, v := range voter.VotingHistory {
			if err := w.Write([]string{
				strconv.Itoa(v.Round), voter.VoterID, strconv.Itoa(v.Score), voter.Archetype,
			}); err != nil {
				return nil, err
			}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteAll renders and writes every output artifact into
// <dir>/outputs/{transcript_full.md, citation_ledger.json,
// debate_logic_map.json, voter_sentiment_graph.csv}.
func WriteAll(dir, topic string, h *state.History, pool *state.CitationPool, latent *state.DebateLatent, crowdOpinion *state.CrowdOpinion) error {
	outDir := filepath.Join(dir, "outputs")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("creating outputs directory: %w", err)
	}

	if err := os.WriteFile(filepath.Join(outDir, "transcript_full.md"), []byte(RenderTranscript(topic, h)), 0o644); err != nil {
		return fmt.Errorf("writing transcript: %w", err)
	}

	ledger, err := RenderCitationLedger(pool)
	if err != nil {
		return fmt.Errorf("rendering citation ledger: %w", err)
	}
	if err := os.WriteFile(filepath.Join(outDir, "citation_ledger.json"), ledger, 0o644); err != nil {
		return fmt.Errorf("writing citation ledger: %w", err)
	}

	logicMap, err := RenderLogicMap(latent)
	if err != nil {
		return fmt.Errorf("rendering logic map: %w", err)
	}
	if err := os.WriteFile(filepath.Join(outDir, "debate_logic_map.json"), logicMap, 0o644); err != nil {
		return fmt.Errorf("writing logic map: %w", err)
	}

	sentiment, err := RenderSentimentGraph(crowdOpinion)
	if err != nil {
		return fmt.Errorf("rendering sentiment graph: %w", err)
	}
	if err := os.WriteFile(filepath.Join(outDir, "voter_sentiment_graph.csv"), sentiment, 0o644); err != nil {
		return fmt.Errorf("writing sentiment graph: %w", err)
	}

	return nil
}
