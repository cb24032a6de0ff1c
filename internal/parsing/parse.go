// Package parsing implements the structured-output parsers every agent
// uses to turn a model's raw text into a typed result: JSON first, against
// the shape the system prompt requested, then a targeted regex fallback,
// then safe defaults.
package parsing

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// stripCodeFence removes a leading/trailing ```json or ``` wrapper, the
// most common way models fail to return bare JSON.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = fenceOpen.ReplaceAllString(s, "")
	s = fenceClose.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

var (
	fenceOpen  = regexp.MustCompile("^```(?:json|JSON)?\\s*\n?")
	fenceClose = regexp.MustCompile("\n?```\\s*$")
)

// DebatorStatement is a debator turn's structured output.
type DebatorStatement struct {
	MainStatement        string            `json:"main_statement"`
	SupplementaryMaterial string           `json:"supplementary_material"`
	Citations            []DebatorCitation `json:"citations"`
}

// DebatorCitation is one citation a debator's statement introduces.
type DebatorCitation struct {
	CitationKey   string `json:"citation_key"`
	SourceURL     string `json:"source_url"`
	SourceTitle   string `json:"source_title"`
	RelevantQuote string `json:"relevant_quote"`
}

var citationRefPattern = regexp.MustCompile(`\[([ab]_\d+)\]`)

// ParseDebatorStatement parses a debator's structured output, falling back
// to treating the whole response as the main statement (with inline
// citation references extracted by regex) if JSON parsing fails.
func ParseDebatorStatement(raw string) DebatorStatement {
	cleaned := stripCodeFence(raw)
	var out DebatorStatement
	if err := json.Unmarshal([]byte(cleaned), &out); err == nil && out.MainStatement != "" {
		return out
	}

	main, supplementary := raw, ""
	if idx := strings.Index(raw, "SUPPLEMENTARY:"); idx >= 0 {
		main = raw[:idx]
		supplementary = strings.TrimSpace(raw[idx+len("SUPPLEMENTARY:"):])
	}
	main = strings.TrimSpace(main)

	seen := map[string]bool{}
	var citations []DebatorCitation
	for _, m := range citationRefPattern.FindAllStringSubmatch(main, -1) {
		key := m[1]
		if seen[key] {
			continue
		}
		seen[key] = true
		citations = append(citations, DebatorCitation{CitationKey: key})
	}

	return DebatorStatement{MainStatement: main, SupplementaryMaterial: supplementary, Citations: citations}
}

// FactCheckerVerification is a factchecker verification's structured output.
type FactCheckerVerification struct {
	SourceCredibilityScore     int    `json:"source_credibility_score"`
	ContentCorrespondenceScore int    `json:"content_correspondence_score"`
	AdversaryComment           string `json:"adversary_comment"`
}

var (
	credibilityPattern    = regexp.MustCompile(`(?i)credibility.*?(\d+)`)
	correspondencePattern = regexp.MustCompile(`(?i)correspondence.*?(\d+)`)
)

// ParseFactCheckerVerification parses a factchecker's JSON output, falling
// back to regex-extracted scores clamped to [1,10] with default 1, and the
// raw response (truncated to 300 characters) as the comment.
func ParseFactCheckerVerification(raw string) FactCheckerVerification {
	cleaned := stripCodeFence(raw)
	var out FactCheckerVerification
	if err := json.Unmarshal([]byte(cleaned), &out); err == nil &&
		out.SourceCredibilityScore > 0 && out.ContentCorrespondenceScore > 0 {
		return out
	}

	credibility := clamp(extractInt(credibilityPattern, raw, 1), 1, 10)
	correspondence := clamp(extractInt(correspondencePattern, raw, 1), 1, 10)
	comment := raw
	if len(comment) > 300 {
		comment = comment[:300]
	}
	return FactCheckerVerification{
		SourceCredibilityScore:     credibility,
		ContentCorrespondenceScore: correspondence,
		AdversaryComment:           comment,
	}
}

// JudgeAnalysis is the judge's structured output.
type JudgeAnalysis struct {
	Consensus            []string        `json:"consensus"`
	DisagreementFrontier []FrontierIssue `json:"disagreement_frontier"`
}

// FrontierIssue mirrors state.FrontierIssue for the parsing layer so this
// package has no dependency on state.
type FrontierIssue struct {
	CoreIssue string `json:"core_issue"`
	AStance   string `json:"a_stance"`
	BStance   string `json:"b_stance"`
}

var bulletPattern = regexp.MustCompile(`[-*•]\s*(.+)`)

// ParseJudgeAnalysis parses the judge's JSON output, trimming each
// consensus string and frontier field, falling back to a best-effort
// bullet-list extraction when JSON parsing fails.
func ParseJudgeAnalysis(raw string) JudgeAnalysis {
	cleaned := stripCodeFence(raw)
	var out JudgeAnalysis
	if err := json.Unmarshal([]byte(cleaned), &out); err == nil {
		trimmed := make([]string, 0, len(out.Consensus))
		for _, c := range out.Consensus {
			if t := strings.TrimSpace(c); t != "" {
				trimmed = append(trimmed, t)
			}
		}
		out.Consensus = trimmed
		for i := range out.DisagreementFrontier {
			out.DisagreementFrontier[i].CoreIssue = strings.TrimSpace(out.DisagreementFrontier[i].CoreIssue)
			out.DisagreementFrontier[i].AStance = strings.TrimSpace(out.DisagreementFrontier[i].AStance)
			out.DisagreementFrontier[i].BStance = strings.TrimSpace(out.DisagreementFrontier[i].BStance)
		}
		return out
	}

	for _, m := range bulletPattern.FindAllStringSubmatch(raw, -1) {
		out.Consensus = append(out.Consensus, strings.TrimSpace(m[1]))
	}
	return out
}

// VoteOutput is the crowd's structured vote output.
type VoteOutput struct {
	Score     int    `json:"score"`
	Reasoning string `json:"reasoning"`
}

var scorePattern = regexp.MustCompile(`(?i)score[:\s]+(\d+)`)

// ParseVoteOutput parses a crowd vote's JSON output, falling back to a
// "score: NN" regex extraction, defaulting to an abstaining 50, and
// clamping to [1,100]. A parsed score of exactly 0 is treated the same as
// an unparseable score, since 0 is outside the valid vote range. Reasoning
// is truncated to 200 characters.
func ParseVoteOutput(raw string) VoteOutput {
	cleaned := stripCodeFence(raw)
	var out VoteOutput
	if err := json.Unmarshal([]byte(cleaned), &out); err != nil {
		out.Score = extractInt(scorePattern, raw, 50)
		out.Reasoning = raw
	}
	if out.Score == 0 {
		out.Score = 50
	}
	out.Score = clamp(out.Score, 1, 100)
	if len(out.Reasoning) > 200 {
		out.Reasoning = out.Reasoning[:200]
	}
	return out
}

func extractInt(pattern *regexp.Regexp, s string, def int) int {
	m := pattern.FindStringSubmatch(s)
	if m == nil {
		return def
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return def
	}
	return n
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
