package core

import "context"

// EmbedService turns texts into fixed-length vectors via a single
// batched call. Implementations are all-or-nothing: a transport error,
// API error or count mismatch fails the whole batch.
type EmbedService interface {
	// Encode embeds every text in one call. Input must be a non-empty
	// list of non-blank strings.
	Encode(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the vector dimensionality of the model.
	Dimension() int
}

// ChatService is the completion collaborator: role-tagged messages in,
// plain text out.
type ChatService interface {
	ChatCompletion(ctx context.Context, messages []Message) (string, error)
}

// VectorStore persists (id, vector, document, metadata) tuples in one
// named collection and answers nearest-neighbor queries.
type VectorStore interface {
	// Add upserts all tuples in one call. The four slices must have
	// equal length; ids are unique within the collection and re-adding
	// an id overwrites the previous tuple.
	Add(ctx context.Context, ids []string, vectors [][]float32, documents []string, metadatas []map[string]any) error

	// Query returns up to k neighbors ranked by ascending distance.
	// k must be positive.
	Query(ctx context.Context, vector []float32, k int) ([]Neighbor, error)

	// Reset drops and recreates the collection. Bootstrap only; must
	// not run concurrently with Add or Query.
	Reset(ctx context.Context) error
}

// Knowledge composes chunking, embedding and the vector store behind
// ingest and search operations over a single collection.
type Knowledge interface {
	IngestTexts(ctx context.Context, ids []string, documents []string, metadatas []map[string]any) error
	IngestFile(ctx context.Context, path string) error
	Search(ctx context.Context, query string, k int) ([]SearchResult, error)
}
