package domain

import "fmt"

// SourceDocument is a raw corpus document before splitting.
type SourceDocument struct {
	ID   string         `json:"id"`
	Text string         `json:"text"`
	Meta map[string]any `json:"meta,omitempty"`
}

// Chunk is one retrievable fragment of a source document. The ID is
// assigned once at ingestion ("<docID>#p<ordinal>") and never changes.
type Chunk struct {
	ID    string         `json:"id"`
	DocID string         `json:"doc_id"`
	Text  string         `json:"text"`
	Meta  map[string]any `json:"meta,omitempty"`
}

// ChunkID builds the composite identifier for the ordinal-th fragment
// of a document.
func ChunkID(docID string, ordinal int) string {
	return fmt.Sprintf("%s#p%d", docID, ordinal)
}

// ScoredChunk pairs a chunk with its similarity score against a query
// vector. Scores are cosine similarities of normalized vectors.
type ScoredChunk struct {
	Chunk Chunk   `json:"chunk"`
	Score float64 `json:"score"`
}
