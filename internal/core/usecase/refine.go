package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/selfcheck-rag/internal/core/domain"
	"github.com/kirillkom/selfcheck-rag/internal/core/ports"
)

// maxRewriteWords caps refined queries locally; the rewriting judgment
// is asked for the same bound but not trusted to honor it.
const maxRewriteWords = 20

// Config holds the loop's tunables.
type Config struct {
	TargetScore float64 // acceptance threshold
	MaxRounds   int     // hard round cap
	TopK        int     // retrieval width
	GuardK      int     // post-filter width
}

func DefaultConfig() Config {
	return Config{
		TargetScore: 0.75,
		MaxRounds:   3,
		TopK:        5,
		GuardK:      3,
	}
}

func (c Config) normalize() Config {
	out := c
	def := DefaultConfig()
	if out.TargetScore <= 0 || out.TargetScore > 1 {
		out.TargetScore = def.TargetScore
	}
	if out.MaxRounds < 1 {
		out.MaxRounds = def.MaxRounds
	}
	if out.TopK < 1 {
		out.TopK = def.TopK
	}
	if out.GuardK < 1 {
		out.GuardK = def.GuardK
	}
	return out
}

// RefineUseCase drives rounds of retrieve→filter→answer→evaluate and
// rewrites the query while the grounding score misses the target. It
// terminates after at most MaxRounds rounds no matter what the
// evaluator does.
type RefineUseCase struct {
	embedder  ports.Embedder
	index     ports.VectorIndex
	guard     *RelevanceGuard
	generator ports.AnswerGenerator
	evaluator *GroundingEvaluator
	rewriter  ports.QueryRewriter
	cfg       Config
	log       *slog.Logger
}

func NewRefineUseCase(
	embedder ports.Embedder,
	index ports.VectorIndex,
	guard *RelevanceGuard,
	generator ports.AnswerGenerator,
	evaluator *GroundingEvaluator,
	rewriter ports.QueryRewriter,
	cfg Config,
	log *slog.Logger,
) *RefineUseCase {
	if log == nil {
		log = slog.Default()
	}
	return &RefineUseCase{
		embedder:  embedder,
		index:     index,
		guard:     guard,
		generator: generator,
		evaluator: evaluator,
		rewriter:  rewriter,
		cfg:       cfg.normalize(),
		log:       log,
	}
}

// Answer runs the refinement loop for one question and returns the full
// transcript. External call failures abort the run; malformed judgments
// never do.
func (uc *RefineUseCase) Answer(ctx context.Context, question string) (*domain.Report, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "refine", errors.New("empty question"))
	}

	report := &domain.Report{
		RunID:    uuid.NewString(),
		Question: question,
		Rounds:   make([]domain.RoundRecord, 0, uc.cfg.MaxRounds),
	}

	query := question
	for round := 1; round <= uc.cfg.MaxRounds; round++ {
		if err := ctx.Err(); err != nil {
			return nil, domain.WrapError(domain.ErrExternalCall, "refine", err)
		}

		record, err := uc.runRound(ctx, round, query)
		if err != nil {
			return nil, fmt.Errorf("round %d: %w", round, err)
		}
		report.Rounds = append(report.Rounds, record)

		uc.log.Info("round_finished",
			"run_id", report.RunID,
			"round", round,
			"score", record.Evaluation.Score,
			"used_chunks", len(record.UsedChunks),
			"latency_sec", record.ElapsedSec,
		)

		if record.Evaluation.Score >= uc.cfg.TargetScore {
			report.Termination = domain.TerminatedByThreshold
			break
		}
		if round == uc.cfg.MaxRounds {
			report.Termination = domain.TerminatedByExhaustion
			break
		}

		refined, err := uc.rewriter.Rewrite(ctx, query, record.Evaluation.Improvements)
		if err != nil {
			return nil, fmt.Errorf("round %d: rewrite query: %w", round, err)
		}
		refined = truncateWords(strings.TrimSpace(refined), maxRewriteWords)
		if refined != "" {
			query = refined
		}
	}

	last := report.Rounds[len(report.Rounds)-1]
	report.FinalAnswer = last.Answer
	report.FinalScore = last.Evaluation
	return report, nil
}

func (uc *RefineUseCase) runRound(ctx context.Context, round int, query string) (domain.RoundRecord, error) {
	start := time.Now()

	queryVector, err := uc.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return domain.RoundRecord{}, fmt.Errorf("embed query: %w", err)
	}
	queryVector = normalizeVector(queryVector)

	var candidates []domain.ScoredChunk
	if uc.index.Size() > 0 {
		candidates, err = uc.index.Search(queryVector, uc.cfg.TopK)
		if err != nil {
			return domain.RoundRecord{}, fmt.Errorf("search index: %w", err)
		}
	}

	kept, guardFellBack, err := uc.guard.Filter(ctx, query, candidates, uc.cfg.GuardK)
	if err != nil {
		return domain.RoundRecord{}, err
	}

	answer, err := uc.generator.GenerateAnswer(ctx, query, kept)
	if err != nil {
		return domain.RoundRecord{}, fmt.Errorf("generate answer: %w", err)
	}

	eval, evalFellBack, err := uc.evaluator.Score(ctx, query, answer, kept)
	if err != nil {
		return domain.RoundRecord{}, err
	}

	used := make([]string, 0, len(kept))
	for _, chunk := range kept {
		used = append(used, chunk.ID)
	}

	return domain.RoundRecord{
		Round:         round,
		Question:      query,
		Answer:        answer,
		Evaluation:    eval,
		UsedChunks:    used,
		ElapsedSec:    time.Since(start).Seconds(),
		GuardFallback: guardFellBack,
		EvalFallback:  evalFellBack,
	}, nil
}

func truncateWords(s string, limit int) string {
	words := strings.Fields(s)
	if len(words) <= limit {
		return s
	}
	return strings.Join(words[:limit], " ")
}
