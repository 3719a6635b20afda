package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/kirillkom/selfcheck-rag/internal/core/domain"
	"github.com/kirillkom/selfcheck-rag/internal/core/ports"
)

// Heuristic fallback for malformed grounding judgments. The marker scan
// is a lexical guess, not a judgment: a response that claims support
// gets a fixed mid-range score, anything else gets zero, so the loop
// always has a comparable score to work with.
const (
	fallbackSupportedScore   = 0.6
	fallbackUnsupportedScore = 0.0
	fallbackRationaleLimit   = 240
	fallbackImprovements     = "Restate the question with more specific terms and name the facts the answer must cover."
)

var supportMarkers = []string{
	"is supported",
	"supported by the context",
}

// GroundingEvaluator scores an answer's factual support against the
// context it was generated from. The judgment response must parse into
// {score, rationale, improvements} with score coercible to a float in
// [0, 1]; anything else resolves through the heuristic fallback so the
// refinement loop never stalls on a malformed response.
type GroundingEvaluator struct {
	judge ports.GroundingJudge
	log   *slog.Logger
}

func NewGroundingEvaluator(judge ports.GroundingJudge, log *slog.Logger) *GroundingEvaluator {
	if log == nil {
		log = slog.Default()
	}
	return &GroundingEvaluator{judge: judge, log: log}
}

// Score returns the evaluation and whether the fallback path produced
// it. The returned score is always within [0, 1].
func (e *GroundingEvaluator) Score(
	ctx context.Context,
	question, answer string,
	chunks []domain.Chunk,
) (domain.Evaluation, bool, error) {
	raw, err := e.judge.EvaluateGrounding(ctx, question, answer, chunks)
	if err != nil {
		return domain.Evaluation{}, false, fmt.Errorf("grounding judgment: %w", err)
	}

	if eval, ok := parseEvaluation(raw); ok {
		return eval, false, nil
	}

	e.log.Warn("grounding_evaluator_fallback", "raw_prefix", prefixString(raw, 80))
	return fallbackEvaluation(raw), true, nil
}

func parseEvaluation(raw string) (domain.Evaluation, bool) {
	var payload struct {
		Score        any     `json:"score"`
		Rationale    *string `json:"rationale"`
		Improvements *string `json:"improvements"`
	}
	if err := json.Unmarshal([]byte(extractJSONObject(raw)), &payload); err != nil {
		return domain.Evaluation{}, false
	}
	if payload.Rationale == nil || payload.Improvements == nil {
		return domain.Evaluation{}, false
	}

	score, ok := coerceScore(payload.Score)
	if !ok || score < 0 || score > 1 {
		return domain.Evaluation{}, false
	}

	return domain.Evaluation{
		Score:        score,
		Rationale:    strings.TrimSpace(*payload.Rationale),
		Improvements: strings.TrimSpace(*payload.Improvements),
	}, true
}

func coerceScore(v any) (float64, bool) {
	switch value := v.(type) {
	case float64:
		return value, true
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}

func fallbackEvaluation(raw string) domain.Evaluation {
	score := fallbackUnsupportedScore
	lowered := strings.ToLower(raw)
	for _, marker := range supportMarkers {
		if strings.Contains(lowered, marker) {
			score = fallbackSupportedScore
			break
		}
	}
	return domain.Evaluation{
		Score:        score,
		Rationale:    prefixString(strings.TrimSpace(raw), fallbackRationaleLimit),
		Improvements: fallbackImprovements,
	}
}

func prefixString(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
