package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/kirillkom/selfcheck-rag/internal/core/domain"
	"github.com/kirillkom/selfcheck-rag/internal/core/ports"
)

// IngestUseCase builds the similarity index: load the corpus, split
// each document into chunks, embed and normalize the chunk texts, and
// insert everything in one batch.
type IngestUseCase struct {
	loader   ports.CorpusLoader
	chunker  ports.Chunker
	embedder ports.Embedder
	index    ports.VectorIndex
	log      *slog.Logger
}

func NewIngestUseCase(
	loader ports.CorpusLoader,
	chunker ports.Chunker,
	embedder ports.Embedder,
	index ports.VectorIndex,
	log *slog.Logger,
) *IngestUseCase {
	if log == nil {
		log = slog.Default()
	}
	return &IngestUseCase{
		loader:   loader,
		chunker:  chunker,
		embedder: embedder,
		index:    index,
		log:      log,
	}
}

// Build populates the index and returns the number of indexed chunks.
func (uc *IngestUseCase) Build(ctx context.Context) (int, error) {
	docs, err := uc.loader.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("load corpus: %w", err)
	}
	if len(docs) == 0 {
		return 0, domain.WrapError(domain.ErrInvalidInput, "build index", errors.New("empty corpus"))
	}

	chunks := uc.splitDocuments(docs)
	if len(chunks) == 0 {
		return 0, domain.WrapError(domain.ErrInvalidInput, "build index", errors.New("chunking produced zero chunks"))
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	vectors, err := uc.embedder.Embed(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return 0, domain.WrapError(
			domain.ErrInvalidInput,
			"embed chunks",
			fmt.Errorf("vectors/chunks mismatch: %d/%d", len(vectors), len(chunks)),
		)
	}
	for i, vec := range vectors {
		vectors[i] = normalizeVector(vec)
	}

	if err := uc.index.Insert(vectors, chunks); err != nil {
		return 0, fmt.Errorf("insert into index: %w", err)
	}

	uc.log.Info("index_built", "documents", len(docs), "chunks", len(chunks))
	return len(chunks), nil
}

func (uc *IngestUseCase) splitDocuments(docs []domain.SourceDocument) []domain.Chunk {
	chunks := make([]domain.Chunk, 0, len(docs))
	for _, doc := range docs {
		for ordinal, piece := range uc.chunker.Split(doc.Text) {
			meta := make(map[string]any, len(doc.Meta)+1)
			for k, v := range doc.Meta {
				meta[k] = v
			}
			meta["source"] = doc.ID

			chunks = append(chunks, domain.Chunk{
				ID:    domain.ChunkID(doc.ID, ordinal),
				DocID: doc.ID,
				Text:  piece,
				Meta:  meta,
			})
		}
	}
	return chunks
}
