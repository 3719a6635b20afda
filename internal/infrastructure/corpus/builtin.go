// Package corpus provides the document sources the index is built
// from: a small built-in knowledge base for demos and tests, and a
// filesystem loader driven by a manifest.
package corpus

import (
	"context"

	"github.com/kirillkom/selfcheck-rag/internal/core/domain"
)

// BuiltinLoader serves a fixed six-document knowledge base about
// retrieval-augmented answering. It keeps the pipeline runnable with no
// corpus directory configured.
type BuiltinLoader struct{}

func NewBuiltinLoader() *BuiltinLoader { return &BuiltinLoader{} }

func (l *BuiltinLoader) Load(context.Context) ([]domain.SourceDocument, error) {
	docs := make([]domain.SourceDocument, len(builtinDocs))
	copy(docs, builtinDocs)
	return docs, nil
}

var builtinDocs = []domain.SourceDocument{
	{
		ID: "doc_1",
		Text: `Retrieval-Augmented Generation (RAG) augments an LLM with a retriever to fetch
relevant context at query time. This reduces hallucination and improves factual
accuracy. The core components are:
- Retriever: finds candidate chunks.
- Generator: produces the answer using retrieved context.
- (Optional) Evaluator: scores the answer and triggers self-correction.`,
	},
	{
		ID: "doc_2",
		Text: `A self-correcting RAG can evaluate the answer against sources and iterate if weak.
Typical roles: Retriever, Guardrail (filter), Answer Agent, Evaluator.
The evaluator returns a score (0-1), rationale, and improvement suggestions.`,
	},
	{
		ID: "doc_3",
		Text: `FAISS is a library for efficient similarity search on dense vectors. It supports
various indexes; IndexFlatL2 is a simple inner-product index. For production,
use IndexIVFFlat or HNSW for speed on large corpora.`,
	},
	{
		ID: "doc_4",
		Text: `Chunking strategy matters. Fixed-size chunks (e.g., 600 tokens) with overlap
(80 tokens) preserve context across boundaries. Metadata like doc_id and page
number help traceability.`,
	},
	{
		ID: "doc_5",
		Text: `Guardrails filter low-relevance chunks before generation. A common threshold
is cosine similarity > 0.7. This reduces noise and prevents the model from
being distracted by irrelevant text.`,
	},
	{
		ID: "doc_6",
		Text: `Self-correction loop: generate, evaluate, and if the score is below target,
refine the prompt with evaluator feedback and retry (max 3 rounds). This boosts
answer quality with minimal extra latency.`,
	},
}
