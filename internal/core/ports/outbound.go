package ports

import (
	"context"

	"github.com/kirillkom/selfcheck-rag/internal/core/domain"
)

// CorpusLoader produces the raw documents to index.
type CorpusLoader interface {
	Load(ctx context.Context) ([]domain.SourceDocument, error)
}

// Chunker splits document text into ordered fragments.
type Chunker interface {
	Split(text string) []string
}

// Embedder builds vectors for chunk and query text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// VectorIndex stores chunk vectors and performs nearest-neighbor search.
// Implementations must keep Search safe for concurrent readers once the
// index is built.
type VectorIndex interface {
	Insert(vectors [][]float32, chunks []domain.Chunk) error
	Search(queryVector []float32, k int) ([]domain.ScoredChunk, error)
	Size() int
}

// AnswerGenerator creates the answer from the question and the filtered
// context, in the order given.
type AnswerGenerator interface {
	GenerateAnswer(ctx context.Context, question string, chunks []domain.Chunk) (string, error)
}

// RelevanceJudge asks the judgment service which candidates matter for
// the question. It returns the raw response payload; parsing and the
// fallback policy live in the guard.
type RelevanceJudge interface {
	SelectRelevant(ctx context.Context, question string, candidates []domain.ScoredChunk, k int) (string, error)
}

// GroundingJudge scores an answer's factual support against its context.
// It returns the raw response payload; parsing and the fallback policy
// live in the evaluator.
type GroundingJudge interface {
	EvaluateGrounding(ctx context.Context, question, answer string, chunks []domain.Chunk) (string, error)
}

// QueryRewriter produces a sharper query from evaluator feedback.
type QueryRewriter interface {
	Rewrite(ctx context.Context, question, feedback string) (string, error)
}
