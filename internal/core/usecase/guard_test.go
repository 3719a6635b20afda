package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/kirillkom/selfcheck-rag/internal/core/domain"
)

type relevanceJudgeFake struct {
	raw      string
	err      error
	question string
	k        int
	calls    int
}

func (f *relevanceJudgeFake) SelectRelevant(_ context.Context, question string, _ []domain.ScoredChunk, k int) (string, error) {
	f.calls++
	f.question = question
	f.k = k
	return f.raw, f.err
}

func scoredFixture(n int) []domain.ScoredChunk {
	out := make([]domain.ScoredChunk, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, domain.ScoredChunk{
			Chunk: domain.Chunk{ID: fmt.Sprintf("doc#p%d", i), DocID: "doc", Text: fmt.Sprintf("chunk %d", i)},
			Score: 1.0 - float64(i)*0.1,
		})
	}
	return out
}

func TestFilterKeepsJudgedChunksInSimilarityOrder(t *testing.T) {
	judge := &relevanceJudgeFake{raw: `{"keep": ["C3", "C0"]}`}
	guard := NewRelevanceGuard(judge, nil)

	kept, fellBack, err := guard.Filter(context.Background(), "q", scoredFixture(5), 3)
	if err != nil {
		t.Fatalf("Filter() error = %v", err)
	}
	if fellBack {
		t.Fatalf("did not expect fallback")
	}
	if len(kept) != 2 {
		t.Fatalf("expected 2 kept chunks, got %d", len(kept))
	}
	if kept[0].ID != "doc#p0" || kept[1].ID != "doc#p3" {
		t.Fatalf("similarity order not preserved: %s, %s", kept[0].ID, kept[1].ID)
	}
}

func TestFilterCapsSelectionAtK(t *testing.T) {
	judge := &relevanceJudgeFake{raw: `{"keep": ["C0", "C1", "C2", "C3", "C4"]}`}
	guard := NewRelevanceGuard(judge, nil)

	kept, _, err := guard.Filter(context.Background(), "q", scoredFixture(5), 2)
	if err != nil {
		t.Fatalf("Filter() error = %v", err)
	}
	if len(kept) != 2 {
		t.Fatalf("expected output capped at k=2, got %d", len(kept))
	}
}

func TestFilterFallsBackOnUnparsablePayload(t *testing.T) {
	for _, candidateCount := range []int{0, 1, 5} {
		t.Run(fmt.Sprintf("candidates_%d", candidateCount), func(t *testing.T) {
			judge := &relevanceJudgeFake{raw: "sorry, I cannot answer in JSON"}
			guard := NewRelevanceGuard(judge, nil)

			kept, fellBack, err := guard.Filter(context.Background(), "q", scoredFixture(candidateCount), 3)
			if err != nil {
				t.Fatalf("Filter() error = %v", err)
			}

			want := candidateCount
			if want > 3 {
				want = 3
			}
			if len(kept) != want {
				t.Fatalf("expected first %d by rank, got %d", want, len(kept))
			}
			if candidateCount > 0 && !fellBack {
				t.Fatalf("expected fallback flag")
			}
			for i, chunk := range kept {
				if chunk.ID != fmt.Sprintf("doc#p%d", i) {
					t.Fatalf("fallback order wrong at %d: %s", i, chunk.ID)
				}
			}
		})
	}
}

func TestFilterFallsBackOnEmptySelection(t *testing.T) {
	judge := &relevanceJudgeFake{raw: `{"keep": []}`}
	guard := NewRelevanceGuard(judge, nil)

	kept, fellBack, err := guard.Filter(context.Background(), "q", scoredFixture(4), 2)
	if err != nil {
		t.Fatalf("Filter() error = %v", err)
	}
	if !fellBack {
		t.Fatalf("expected fallback on empty selection")
	}
	if len(kept) != 2 || kept[0].ID != "doc#p0" || kept[1].ID != "doc#p1" {
		t.Fatalf("expected top-2 fallback, got %v", kept)
	}
}

func TestFilterIgnoresUnknownTags(t *testing.T) {
	judge := &relevanceJudgeFake{raw: `{"keep": ["C1", "C99", "banana"]}`}
	guard := NewRelevanceGuard(judge, nil)

	kept, fellBack, err := guard.Filter(context.Background(), "q", scoredFixture(3), 3)
	if err != nil {
		t.Fatalf("Filter() error = %v", err)
	}
	if fellBack {
		t.Fatalf("valid tag present, fallback not expected")
	}
	if len(kept) != 1 || kept[0].ID != "doc#p1" {
		t.Fatalf("expected only C1 kept, got %v", kept)
	}
}

func TestFilterSkipsJudgeWithoutCandidates(t *testing.T) {
	judge := &relevanceJudgeFake{raw: `{"keep": ["C0"]}`}
	guard := NewRelevanceGuard(judge, nil)

	kept, _, err := guard.Filter(context.Background(), "q", nil, 3)
	if err != nil {
		t.Fatalf("Filter() error = %v", err)
	}
	if len(kept) != 0 {
		t.Fatalf("expected empty result, got %v", kept)
	}
	if judge.calls != 0 {
		t.Fatalf("judge should not be called without candidates")
	}
}

func TestFilterPropagatesJudgeError(t *testing.T) {
	judge := &relevanceJudgeFake{err: errors.New("connection refused")}
	guard := NewRelevanceGuard(judge, nil)

	_, _, err := guard.Filter(context.Background(), "q", scoredFixture(3), 2)
	if err == nil {
		t.Fatalf("expected error from judge failure")
	}
}
