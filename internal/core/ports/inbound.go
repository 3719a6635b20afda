package ports

import (
	"context"

	"github.com/kirillkom/selfcheck-rag/internal/core/domain"
)

// IndexBuilder is the inbound contract for corpus ingestion.
type IndexBuilder interface {
	Build(ctx context.Context) (int, error)
}

// QuestionAnswerer is the inbound contract for the refinement loop.
type QuestionAnswerer interface {
	Answer(ctx context.Context, question string) (*domain.Report, error)
}
