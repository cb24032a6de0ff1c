package batch

import "github.com/Plswearpants/AI-debate/internal/parsing"

func parseVote(content string) (int, string) {
	out := parsing.ParseVoteOutput(content)
	return out.Score, out.Reasoning
}
