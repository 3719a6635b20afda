// Package prompts builds the system/user message pairs for the four
// judgment shapes. Providers that take a single prompt string join the
// two parts themselves.
package prompts

import (
	"fmt"
	"strings"

	"github.com/kirillkom/selfcheck-rag/internal/core/domain"
)

// Answer asks for an answer grounded strictly in the given context, in
// its given order.
func Answer(question string, chunks []domain.Chunk) (system, user string) {
	system = "You are a careful assistant. Answer the question using only the provided context. If the context is insufficient, say so directly."
	var b strings.Builder
	b.WriteString("Question:\n")
	b.WriteString(question)
	b.WriteString("\n\nContext:\n")
	for i, chunk := range chunks {
		fmt.Fprintf(&b, "[%d] source=%s\n%s\n\n", i+1, chunk.DocID, chunk.Text)
	}
	return system, b.String()
}

// Relevance asks the judgment to pick the k candidates that matter for
// the question. Candidates are tagged C0..Cn by similarity rank.
func Relevance(question string, candidates []domain.ScoredChunk, k int) (system, user string) {
	system = "You are a retrieval guardrail. Pick the K most relevant chunks."
	var b strings.Builder
	fmt.Fprintf(&b, "Q: %s\nK: %d\nChunks:\n", question, k)
	for i, candidate := range candidates {
		fmt.Fprintf(&b, "[C%d] score=%.3f source=%s\n%s\n\n", i, candidate.Score, candidate.Chunk.DocID, candidate.Chunk.Text)
	}
	b.WriteString(`Return JSON: {"keep": [chunk_ids...]} where chunk_ids are C0, C1, ...`)
	return system, b.String()
}

// Grounding asks for a structured factual-support verdict.
func Grounding(question, answer string, chunks []domain.Chunk) (system, user string) {
	system = "You are a strict grounding evaluator. Score how well the answer is supported by the context."
	var b strings.Builder
	fmt.Fprintf(&b, "Question:\n%s\n\nAnswer:\n%s\n\nContext:\n", question, answer)
	for _, chunk := range chunks {
		b.WriteString(chunk.Text)
		b.WriteString("\n\n")
	}
	b.WriteString(`Return JSON: {"score": <float 0..1>, "rationale": <string>, "improvements": <string>}. No markdown, no extra keys.`)
	return system, b.String()
}

// Rewrite asks for a sharper query built from evaluator feedback.
func Rewrite(question, feedback string) (system, user string) {
	system = "You are a query refinement agent."
	user = fmt.Sprintf(
		"The original query was:\n%s\nFeedback from evaluator:\n%s\nRewrite a sharper query (max 20 words). Return only the query text.",
		question, feedback,
	)
	return system, user
}
