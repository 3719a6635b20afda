package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kirillkom/selfcheck-rag/internal/core/domain"
	"github.com/kirillkom/selfcheck-rag/internal/core/ports"
)

// RelevanceGuard prunes retrieved candidates to the k judged most
// relevant. The judgment response must be a JSON object of the form
// {"keep": ["C0", "C2", ...]} where tags refer to candidate ranks; any
// response that does not parse to a non-empty valid tag set falls back
// to plain top-k truncation by similarity rank.
type RelevanceGuard struct {
	judge ports.RelevanceJudge
	log   *slog.Logger
}

func NewRelevanceGuard(judge ports.RelevanceJudge, log *slog.Logger) *RelevanceGuard {
	if log == nil {
		log = slog.Default()
	}
	return &RelevanceGuard{judge: judge, log: log}
}

type keepPayload struct {
	Keep []string `json:"keep"`
}

// Filter returns up to k chunks in their original similarity order. The
// second return value reports whether the deterministic fallback was
// taken instead of the judgment's selection.
func (g *RelevanceGuard) Filter(
	ctx context.Context,
	question string,
	candidates []domain.ScoredChunk,
	k int,
) ([]domain.Chunk, bool, error) {
	if len(candidates) == 0 || k < 1 {
		return nil, false, nil
	}

	raw, err := g.judge.SelectRelevant(ctx, question, candidates, k)
	if err != nil {
		return nil, false, fmt.Errorf("relevance judgment: %w", err)
	}

	selected, ok := parseKeepTags(raw, len(candidates))
	if !ok || len(selected) == 0 {
		g.log.Warn("relevance_guard_fallback",
			"reason", "malformed_or_empty_selection",
			"candidates", len(candidates),
			"k", k,
		)
		return topK(candidates, k), true, nil
	}

	kept := make([]domain.Chunk, 0, k)
	for i, candidate := range candidates {
		if _, keep := selected[i]; keep {
			kept = append(kept, candidate.Chunk)
			if len(kept) == k {
				break
			}
		}
	}
	if len(kept) == 0 {
		return topK(candidates, k), true, nil
	}
	return kept, false, nil
}

// parseKeepTags extracts the set of candidate ranks from a raw judgment
// payload. Tags outside [0, n) are ignored; a payload with nothing but
// invalid tags counts as malformed.
func parseKeepTags(raw string, n int) (map[int]struct{}, bool) {
	var payload keepPayload
	if err := json.Unmarshal([]byte(extractJSONObject(raw)), &payload); err != nil {
		return nil, false
	}

	selected := make(map[int]struct{}, len(payload.Keep))
	for _, tag := range payload.Keep {
		tag = strings.TrimSpace(tag)
		if len(tag) < 2 || (tag[0] != 'C' && tag[0] != 'c') {
			continue
		}
		var rank int
		if _, err := fmt.Sscanf(tag[1:], "%d", &rank); err != nil {
			continue
		}
		if rank >= 0 && rank < n {
			selected[rank] = struct{}{}
		}
	}
	return selected, true
}

func topK(candidates []domain.ScoredChunk, k int) []domain.Chunk {
	if k > len(candidates) {
		k = len(candidates)
	}
	out := make([]domain.Chunk, 0, k)
	for _, candidate := range candidates[:k] {
		out = append(out, candidate.Chunk)
	}
	return out
}

// extractJSONObject trims any prose around the first JSON object in a
// model response.
func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}
