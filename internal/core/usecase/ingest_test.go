package usecase

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/kirillkom/selfcheck-rag/internal/core/domain"
)

type loaderFake struct {
	docs []domain.SourceDocument
	err  error
}

func (f *loaderFake) Load(context.Context) ([]domain.SourceDocument, error) {
	return f.docs, f.err
}

type chunkerFake struct{}

// Split cuts on blank lines, enough structure for ingestion tests.
func (chunkerFake) Split(text string) []string {
	var out []string
	for _, part := range strings.Split(text, "\n\n") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

type recordingIndex struct {
	vectors [][]float32
	chunks  []domain.Chunk
	err     error
}

func (f *recordingIndex) Insert(vectors [][]float32, chunks []domain.Chunk) error {
	if f.err != nil {
		return f.err
	}
	f.vectors = append(f.vectors, vectors...)
	f.chunks = append(f.chunks, chunks...)
	return nil
}
func (f *recordingIndex) Search([]float32, int) ([]domain.ScoredChunk, error) { return nil, nil }
func (f *recordingIndex) Size() int                                           { return len(f.chunks) }

type ingestEmbedderFake struct {
	mismatch bool
}

func (f *ingestEmbedderFake) Embed(_ context.Context, texts []string) ([][]float32, error) {
	n := len(texts)
	if f.mismatch {
		n--
	}
	out := make([][]float32, n)
	for i := range out {
		out[i] = []float32{2, 0}
	}
	return out, nil
}

func (f *ingestEmbedderFake) EmbedQuery(context.Context, string) ([]float32, error) {
	return []float32{1, 0}, nil
}

func TestBuildAssignsCompositeChunkIDs(t *testing.T) {
	loader := &loaderFake{docs: []domain.SourceDocument{
		{ID: "doc_1", Text: "first part\n\nsecond part", Meta: map[string]any{"lang": "en"}},
		{ID: "doc_2", Text: "only part"},
	}}
	index := &recordingIndex{}
	uc := NewIngestUseCase(loader, chunkerFake{}, &ingestEmbedderFake{}, index, nil)

	count, err := uc.Build(context.Background())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 chunks, got %d", count)
	}

	wantIDs := []string{"doc_1#p0", "doc_1#p1", "doc_2#p0"}
	for i, want := range wantIDs {
		if index.chunks[i].ID != want {
			t.Fatalf("chunk %d: expected id %s, got %s", i, want, index.chunks[i].ID)
		}
	}
	if index.chunks[0].Meta["source"] != "doc_1" {
		t.Fatalf("expected source meta, got %v", index.chunks[0].Meta)
	}
	if index.chunks[0].Meta["lang"] != "en" {
		t.Fatalf("expected document meta carried over, got %v", index.chunks[0].Meta)
	}
}

func TestBuildNormalizesVectors(t *testing.T) {
	loader := &loaderFake{docs: []domain.SourceDocument{{ID: "d", Text: "text"}}}
	index := &recordingIndex{}
	uc := NewIngestUseCase(loader, chunkerFake{}, &ingestEmbedderFake{}, index, nil)

	if _, err := uc.Build(context.Background()); err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	var norm float64
	for _, v := range index.vectors[0] {
		norm += float64(v) * float64(v)
	}
	if math.Abs(norm-1.0) > 1e-6 {
		t.Fatalf("vector not unit length: %v", index.vectors[0])
	}
}

func TestBuildRejectsEmptyCorpus(t *testing.T) {
	uc := NewIngestUseCase(&loaderFake{}, chunkerFake{}, &ingestEmbedderFake{}, &recordingIndex{}, nil)
	if _, err := uc.Build(context.Background()); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestBuildRejectsVectorCountMismatch(t *testing.T) {
	loader := &loaderFake{docs: []domain.SourceDocument{{ID: "d", Text: "a\n\nb"}}}
	uc := NewIngestUseCase(loader, chunkerFake{}, &ingestEmbedderFake{mismatch: true}, &recordingIndex{}, nil)
	if _, err := uc.Build(context.Background()); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestBuildPropagatesLoaderError(t *testing.T) {
	uc := NewIngestUseCase(&loaderFake{err: errors.New("io failure")}, chunkerFake{}, &ingestEmbedderFake{}, &recordingIndex{}, nil)
	if _, err := uc.Build(context.Background()); err == nil {
		t.Fatalf("expected loader error")
	}
}
