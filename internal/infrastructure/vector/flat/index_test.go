package flat

import (
	"reflect"
	"testing"

	"github.com/kirillkom/selfcheck-rag/internal/core/domain"
)

func chunkFixture(id string) domain.Chunk {
	return domain.Chunk{ID: id, DocID: "doc", Text: "text " + id}
}

func TestInsertLengthMismatch(t *testing.T) {
	ix := New(0)
	err := ix.Insert([][]float32{{1, 0}}, nil)
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input error, got %v", err)
	}
}

func TestInsertDimensionMismatchIsAtomic(t *testing.T) {
	ix := New(0)
	if err := ix.Insert([][]float32{{1, 0}}, []domain.Chunk{chunkFixture("a#p0")}); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	err := ix.Insert(
		[][]float32{{0, 1}, {1, 0, 0}},
		[]domain.Chunk{chunkFixture("b#p0"), chunkFixture("b#p1")},
	)
	if !domain.IsKind(err, domain.ErrDimensionMismatch) {
		t.Fatalf("expected dimension mismatch, got %v", err)
	}
	if ix.Size() != 1 {
		t.Fatalf("expected index unchanged with size 1, got %d", ix.Size())
	}
}

func TestInsertHonorsConstructedDimension(t *testing.T) {
	ix := New(3)
	err := ix.Insert([][]float32{{1, 0}}, []domain.Chunk{chunkFixture("a#p0")})
	if !domain.IsKind(err, domain.ErrDimensionMismatch) {
		t.Fatalf("expected dimension mismatch, got %v", err)
	}
}

func TestSearchOrdersByDescendingScore(t *testing.T) {
	ix := New(0)
	vectors := [][]float32{
		{1, 0},
		{0, 1},
		{0.7071, 0.7071},
	}
	chunks := []domain.Chunk{chunkFixture("a#p0"), chunkFixture("a#p1"), chunkFixture("a#p2")}
	if err := ix.Insert(vectors, chunks); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	got, err := ix.Search([]float32{1, 0}, 3)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 results, got %d", len(got))
	}
	wantOrder := []string{"a#p0", "a#p2", "a#p1"}
	for i, want := range wantOrder {
		if got[i].Chunk.ID != want {
			t.Fatalf("result %d: expected %s, got %s", i, want, got[i].Chunk.ID)
		}
	}
	for i := 1; i < len(got); i++ {
		if got[i].Score > got[i-1].Score {
			t.Fatalf("scores not non-increasing at %d: %f > %f", i, got[i].Score, got[i-1].Score)
		}
	}
}

func TestSearchTiesKeepInsertionOrder(t *testing.T) {
	ix := New(0)
	vectors := [][]float32{{0, 1}, {0, 1}, {0, 1}}
	chunks := []domain.Chunk{chunkFixture("t#p0"), chunkFixture("t#p1"), chunkFixture("t#p2")}
	if err := ix.Insert(vectors, chunks); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	got, err := ix.Search([]float32{0, 1}, 3)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	for i, want := range []string{"t#p0", "t#p1", "t#p2"} {
		if got[i].Chunk.ID != want {
			t.Fatalf("tie order broken at %d: expected %s, got %s", i, want, got[i].Chunk.ID)
		}
	}
}

func TestSearchCapsAtIndexSize(t *testing.T) {
	ix := New(0)
	if err := ix.Insert([][]float32{{1, 0}, {0, 1}}, []domain.Chunk{chunkFixture("a#p0"), chunkFixture("a#p1")}); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	got, err := ix.Search([]float32{1, 0}, 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected indexSize results, got %d", len(got))
	}
}

func TestSearchEmptyIndexReturnsNoResults(t *testing.T) {
	ix := New(0)
	got, err := ix.Search([]float32{1, 0}, 5)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no results from empty index, got %d", len(got))
	}
}

func TestSearchRejectsInvalidK(t *testing.T) {
	ix := New(0)
	if err := ix.Insert([][]float32{{1, 0}}, []domain.Chunk{chunkFixture("a#p0")}); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if _, err := ix.Search([]float32{1, 0}, 0); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input for k=0, got %v", err)
	}
}

func TestSearchQueryDimensionMismatch(t *testing.T) {
	ix := New(0)
	if err := ix.Insert([][]float32{{1, 0}}, []domain.Chunk{chunkFixture("a#p0")}); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if _, err := ix.Search([]float32{1, 0, 0}, 1); !domain.IsKind(err, domain.ErrDimensionMismatch) {
		t.Fatalf("expected dimension mismatch, got %v", err)
	}
}

func TestSearchIsIdempotent(t *testing.T) {
	ix := New(0)
	vectors := [][]float32{{0.6, 0.8}, {0.8, 0.6}, {1, 0}}
	chunks := []domain.Chunk{chunkFixture("a#p0"), chunkFixture("a#p1"), chunkFixture("a#p2")}
	if err := ix.Insert(vectors, chunks); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	first, err := ix.Search([]float32{0.6, 0.8}, 2)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	second, err := ix.Search([]float32{0.6, 0.8}, 2)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("repeated search differs: %v vs %v", first, second)
	}
}
