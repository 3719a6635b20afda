package flat

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/kirillkom/selfcheck-rag/internal/core/domain"
)

// Index is an exact nearest-neighbor store: a full inner-product scan
// over L2-normalized vectors, so scores are cosine similarities. Exact
// scan is fine at the corpus sizes this pipeline handles; the
// ports.VectorIndex contract leaves room to swap in an ANN structure.
type Index struct {
	mu      sync.RWMutex
	dim     int
	vectors [][]float32
	chunks  []domain.Chunk
}

// New creates an index. dim == 0 leaves the dimension to be established
// by the first insertion.
func New(dim int) *Index {
	if dim < 0 {
		dim = 0
	}
	return &Index{dim: dim}
}

// Insert appends vectors with their chunks. The whole batch is validated
// before anything is stored, so a dimension mismatch leaves the index
// unchanged.
func (ix *Index) Insert(vectors [][]float32, chunks []domain.Chunk) error {
	if len(vectors) != len(chunks) {
		return domain.WrapError(
			domain.ErrInvalidInput,
			"index insert",
			fmt.Errorf("vectors/chunks mismatch: %d/%d", len(vectors), len(chunks)),
		)
	}
	if len(vectors) == 0 {
		return nil
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	dim := ix.dim
	if dim == 0 {
		dim = len(vectors[0])
		if dim == 0 {
			return domain.WrapError(domain.ErrInvalidInput, "index insert", errors.New("zero-dimension vector"))
		}
	}
	for i, vec := range vectors {
		if len(vec) != dim {
			return domain.WrapError(
				domain.ErrDimensionMismatch,
				"index insert",
				fmt.Errorf("vector %d has dimension %d, index expects %d", i, len(vec), dim),
			)
		}
	}

	ix.dim = dim
	ix.vectors = append(ix.vectors, vectors...)
	ix.chunks = append(ix.chunks, chunks...)
	return nil
}

// Search returns at most k chunks ordered by descending similarity.
// Ties keep insertion order so results stay deterministic. An empty
// index yields an empty result rather than an error.
func (ix *Index) Search(queryVector []float32, k int) ([]domain.ScoredChunk, error) {
	if k < 1 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "index search", fmt.Errorf("k must be >= 1, got %d", k))
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if len(ix.vectors) == 0 {
		return nil, nil
	}
	if len(queryVector) != ix.dim {
		return nil, domain.WrapError(
			domain.ErrDimensionMismatch,
			"index search",
			fmt.Errorf("query has dimension %d, index expects %d", len(queryVector), ix.dim),
		)
	}

	scored := make([]domain.ScoredChunk, len(ix.vectors))
	for i, vec := range ix.vectors {
		scored[i] = domain.ScoredChunk{
			Chunk: ix.chunks[i],
			Score: dotProduct(queryVector, vec),
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if k < len(scored) {
		scored = scored[:k]
	}
	return scored, nil
}

// Size reports the number of stored chunks.
func (ix *Index) Size() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.chunks)
}

func dotProduct(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
