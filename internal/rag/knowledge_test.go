package rag

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubEmbedder maps known texts to fixed vectors so similarity
// ordering in tests is deterministic.
type stubEmbedder struct {
	vectors map[string][]float32
	fail    error
	calls   int
}

func (s *stubEmbedder) Encode(_ context.Context, texts []string) ([][]float32, error) {
	s.calls++
	if s.fail != nil {
		return nil, s.fail
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if v, ok := s.vectors[t]; ok {
			out[i] = v
		} else {
			out[i] = []float32{0, 0, 1}
		}
	}
	return out, nil
}

func (s *stubEmbedder) Dimension() int { return 3 }

func TestKnowledgeBaseSearchOrdersBySimilarity(t *testing.T) {
	embedder := &stubEmbedder{vectors: map[string][]float32{
		"玻尿酸填充":  {1, 0, 0},
		"热玛吉紧致":  {0, 1, 0},
		"光子嫩肤":   {0.2, 0.9, 0},
		"想要紧致皮肤": {0, 1, 0},
	}}
	kb := NewKnowledgeBase(NewMemoryStore(), embedder)
	ctx := context.Background()

	err := kb.IngestTexts(ctx,
		[]string{"p1", "p2", "p3"},
		[]string{"玻尿酸填充", "热玛吉紧致", "光子嫩肤"},
		[]map[string]any{{"name": "玻尿酸"}, {"name": "热玛吉"}, {"name": "光子"}},
	)
	require.NoError(t, err)

	results, err := kb.Search(ctx, "想要紧致皮肤", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "热玛吉紧致", results[0].Content)
	assert.Equal(t, "热玛吉", results[0].Metadata["name"])
	assert.Greater(t, results[0].SimilarityScore, results[1].SimilarityScore)
	assert.InDelta(t, 1.0, results[0].SimilarityScore, 1e-6)
}

func TestKnowledgeBaseSearchEmptyQuery(t *testing.T) {
	embedder := &stubEmbedder{}
	kb := NewKnowledgeBase(NewMemoryStore(), embedder)

	for _, q := range []string{"", "   ", "\n\t"} {
		_, err := kb.Search(context.Background(), q, 2)
		assert.ErrorIs(t, err, ErrEmptyQuery)
	}
	assert.Zero(t, embedder.calls, "blank query must not reach the embedder")
}

func TestKnowledgeBaseIngestLengthMismatch(t *testing.T) {
	embedder := &stubEmbedder{}
	kb := NewKnowledgeBase(NewMemoryStore(), embedder)

	err := kb.IngestTexts(context.Background(),
		[]string{"a", "b"},
		[]string{"only one"},
		[]map[string]any{{}, {}},
	)
	require.Error(t, err)
	assert.Zero(t, embedder.calls, "validation must run before embedding")
}

func TestKnowledgeBaseIngestEmbedFailureLeavesStoreUntouched(t *testing.T) {
	store := NewMemoryStore()
	kb := NewKnowledgeBase(store, &stubEmbedder{fail: errors.New("quota exceeded")})

	err := kb.IngestTexts(context.Background(),
		[]string{"a"}, []string{"文档"}, []map[string]any{{}},
	)
	require.Error(t, err)
	assert.Zero(t, store.Len())
}

func TestKnowledgeBaseReingestOverwrites(t *testing.T) {
	store := NewMemoryStore()
	kb := NewKnowledgeBase(store, &stubEmbedder{vectors: map[string][]float32{}})
	ctx := context.Background()

	require.NoError(t, kb.IngestTexts(ctx, []string{"p1"}, []string{"旧文案"}, []map[string]any{{}}))
	require.NoError(t, kb.IngestTexts(ctx, []string{"p1"}, []string{"新文案"}, []map[string]any{{}}))

	assert.Equal(t, 1, store.Len())

	results, err := kb.Search(ctx, "任意查询", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "新文案", results[0].Content)
}

func TestMemoryStoreRejectsNonPositiveK(t *testing.T) {
	store := NewMemoryStore()

	for _, k := range []int{0, -1} {
		_, err := store.Query(context.Background(), []float32{1, 0, 0}, k)
		assert.Error(t, err)
	}
}

func TestMemoryStoreCapsAtK(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	ids := []string{"a", "b", "c", "d"}
	vecs := [][]float32{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}, {1, 1, 0}}
	docs := []string{"一", "二", "三", "四"}
	metas := []map[string]any{nil, nil, nil, nil}
	require.NoError(t, store.Add(ctx, ids, vecs, docs, metas))

	neighbors, err := store.Query(ctx, []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, neighbors, 2)
	assert.Equal(t, "a", neighbors[0].ID)
	assert.LessOrEqual(t, neighbors[0].Distance, neighbors[1].Distance)
	assert.NotNil(t, neighbors[0].Metadata)
}
