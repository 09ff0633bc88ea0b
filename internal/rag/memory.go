package rag

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/meilian-ai/advisor/internal/core"
)

// MemoryStore is an in-process core.VectorStore holding everything in
// a map and ranking by brute-force cosine distance. It backs tests and
// the -mock mode of the binaries, where no Milvus instance exists.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	vector   []float32
	document string
	metadata map[string]any
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry)}
}

func (s *MemoryStore) Add(_ context.Context, ids []string, vectors [][]float32, documents []string, metadatas []map[string]any) error {
	if len(ids) != len(vectors) || len(ids) != len(documents) || len(ids) != len(metadatas) {
		return fmt.Errorf("rag: ids, vectors, documents and metadatas must have equal length (%d, %d, %d, %d)",
			len(ids), len(vectors), len(documents), len(metadatas))
	}
	if len(ids) == 0 {
		return fmt.Errorf("rag: nothing to add")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, id := range ids {
		meta := metadatas[i]
		if meta == nil {
			meta = map[string]any{}
		}
		s.entries[id] = memoryEntry{
			vector:   vectors[i],
			document: documents[i],
			metadata: meta,
		}
	}
	return nil
}

func (s *MemoryStore) Query(_ context.Context, vector []float32, k int) ([]core.Neighbor, error) {
	if k <= 0 {
		return nil, fmt.Errorf("rag: query k must be positive, got %d", k)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	neighbors := make([]core.Neighbor, 0, len(s.entries))
	for id, e := range s.entries {
		neighbors = append(neighbors, core.Neighbor{
			ID:       id,
			Text:     e.document,
			Metadata: e.metadata,
			Distance: 1 - cosineSimilarity(vector, e.vector),
		})
	}

	sort.Slice(neighbors, func(i, j int) bool {
		return neighbors[i].Distance < neighbors[j].Distance
	})
	if len(neighbors) > k {
		neighbors = neighbors[:k]
	}
	return neighbors, nil
}

func (s *MemoryStore) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]memoryEntry)
	return nil
}

// Len reports how many tuples the store holds.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
