package generation

import (
	"context"
	"log/slog"
	"sort"
	"strings"
)

// Candidate identifies a generation target together with its heuristic
// suitability score (higher is better).
type Candidate struct {
	ID    string
	Score int
}

const maxCandidates = 5

// DefaultCandidates is the fixed shortlist used whenever catalog discovery
// fails or yields nothing usable.
func DefaultCandidates() []Candidate {
	return []Candidate{
		{ID: "google/gemini-2.0-flash-exp:free"},
		{ID: "meta-llama/llama-3.3-70b-instruct:free"},
	}
}

// scoreKeyword pairs an identifier substring with its ranking weight.
// Rewards favor families with strong creative writing, instruction
// following, and reasoning; penalties push tiny models to the bottom.
type scoreKeyword struct {
	token  string
	weight int
}

var scoreKeywords = []scoreKeyword{
	{"gemini", 10},
	{"llama-3", 8},
	{"deepseek", 7},
	{"phi-4", 6},
	{"flash", 3},
	{"exp", 2},
	{"70b", 2},
	{"nano", -20},
	{"1b", -20},
	{"3b", -20},
}

// ScoreCandidate computes the heuristic score for a backend identifier.
func ScoreCandidate(id string) int {
	lowered := strings.ToLower(id)
	score := 0
	for _, kw := range scoreKeywords {
		if strings.Contains(lowered, kw.token) {
			score += kw.weight
		}
	}
	return score
}

// Rank queries the catalog and returns up to five free backends ordered by
// descending score. Discovery failure is not an error condition: any problem
// reaching or reading the catalog degrades to DefaultCandidates. Callers
// should cache the result for the process lifetime.
func Rank(ctx context.Context, catalog CatalogProvider, logger *slog.Logger) []Candidate {
	if catalog == nil {
		return DefaultCandidates()
	}
	entries, err := catalog.ListBackends(ctx)
	if err != nil {
		logger.Warn("backend discovery failed, using defaults", slog.Any("error", err))
		return DefaultCandidates()
	}

	candidates := make([]Candidate, 0, len(entries))
	for _, entry := range entries {
		if strings.TrimSpace(entry.PromptPrice) != "0" || strings.TrimSpace(entry.CompletionPrice) != "0" {
			continue
		}
		id := strings.TrimSpace(entry.ID)
		if id == "" {
			continue
		}
		candidates = append(candidates, Candidate{ID: id, Score: ScoreCandidate(id)})
	}
	if len(candidates) == 0 {
		logger.Warn("no free backends in catalog, using defaults")
		return DefaultCandidates()
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	if len(candidates) > maxCandidates {
		candidates = candidates[:maxCandidates]
	}

	ids := make([]string, len(candidates))
	for i, c := range candidates {
		ids[i] = c.ID
	}
	logger.Info("ranked free backends", slog.Any("candidates", ids))
	return candidates
}
