package rag

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/meilian-ai/advisor/internal/core"
	"github.com/meilian-ai/advisor/internal/logger"
)

// ErrEmptyQuery is returned by Search when the query is blank.
var ErrEmptyQuery = errors.New("rag: empty query")

// KnowledgeBase glues together the store, the embedder and the file
// extractor. It implements core.Knowledge.
type KnowledgeBase struct {
	store     core.VectorStore
	embedder  core.EmbedService
	extractor *FileExtractor
	chunkSize int
}

// KnowledgeOption customizes a KnowledgeBase.
type KnowledgeOption func(*KnowledgeBase)

// WithChunkSize overrides the chunk size used by IngestFile.
func WithChunkSize(size int) KnowledgeOption {
	return func(kb *KnowledgeBase) {
		if size > 0 {
			kb.chunkSize = size
		}
	}
}

// WithExtractor overrides the file extractor, mainly for tests.
func WithExtractor(e *FileExtractor) KnowledgeOption {
	return func(kb *KnowledgeBase) {
		if e != nil {
			kb.extractor = e
		}
	}
}

// NewKnowledgeBase wires a knowledge base over the given store and
// embedder.
func NewKnowledgeBase(store core.VectorStore, embedder core.EmbedService, opts ...KnowledgeOption) *KnowledgeBase {
	kb := &KnowledgeBase{
		store:     store,
		embedder:  embedder,
		extractor: NewFileExtractor(),
		chunkSize: DefaultChunkSize,
	}
	for _, opt := range opts {
		opt(kb)
	}
	return kb
}

// IngestTexts embeds the given documents and stores them under the
// given ids. All slices must have equal length. The embedding batch
// runs before any write, so an embedding failure leaves the store
// untouched.
func (kb *KnowledgeBase) IngestTexts(ctx context.Context, ids []string, documents []string, metadatas []map[string]any) error {
	if len(ids) != len(documents) || len(ids) != len(metadatas) {
		return fmt.Errorf("rag: ids, documents and metadatas must have equal length (%d, %d, %d)",
			len(ids), len(documents), len(metadatas))
	}
	if len(ids) == 0 {
		return fmt.Errorf("rag: nothing to ingest")
	}

	vectors, err := kb.embedder.Encode(ctx, documents)
	if err != nil {
		return fmt.Errorf("rag: embed %d documents: %w", len(documents), err)
	}

	if err := kb.store.Add(ctx, ids, vectors, documents, metadatas); err != nil {
		return err
	}
	logger.Info("Ingested %d documents", len(ids))
	return nil
}

// IngestFile extracts text from a PDF or DOCX file, chunks it and
// ingests the chunks. Chunk ids take the form "<filename>_<index>" so
// re-ingesting the same file overwrites instead of duplicating.
func (kb *KnowledgeBase) IngestFile(ctx context.Context, path string) error {
	text, err := kb.extractor.Extract(ctx, path)
	if err != nil {
		return err
	}

	chunks := SplitText(text, kb.chunkSize)
	if len(chunks) == 0 {
		return fmt.Errorf("rag: no text extracted from %s", path)
	}

	name := filepath.Base(path)
	ids := make([]string, len(chunks))
	metadatas := make([]map[string]any, len(chunks))
	for i := range chunks {
		ids[i] = fmt.Sprintf("%s_%d", name, i)
		metadatas[i] = map[string]any{
			"file_name": name,
			"file_path": path,
		}
	}

	logger.Info("Ingesting %s as %d chunks", name, len(chunks))
	return kb.IngestTexts(ctx, ids, chunks, metadatas)
}

// Search embeds the query and returns up to k results ranked by
// descending similarity. Similarity is 1 - cosine distance.
func (kb *KnowledgeBase) Search(ctx context.Context, query string, k int) ([]core.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}

	vectors, err := kb.embedder.Encode(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("rag: embed query: %w", err)
	}

	neighbors, err := kb.store.Query(ctx, vectors[0], k)
	if err != nil {
		return nil, err
	}

	results := make([]core.SearchResult, len(neighbors))
	for i, n := range neighbors {
		results[i] = core.SearchResult{
			Content:         n.Text,
			Metadata:        n.Metadata,
			SimilarityScore: 1 - n.Distance,
		}
	}
	return results, nil
}
