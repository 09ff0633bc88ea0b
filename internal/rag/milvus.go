// Package rag implements the retrieval side of the assistant: the
// vector store wrapper, the sentence chunker, file text extraction and
// the knowledge base composing them.
package rag

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/milvus-io/milvus/client/v2/column"
	"github.com/milvus-io/milvus/client/v2/entity"
	"github.com/milvus-io/milvus/client/v2/index"
	"github.com/milvus-io/milvus/client/v2/milvusclient"

	"github.com/meilian-ai/advisor/internal/core"
	"github.com/meilian-ai/advisor/internal/logger"
)

// Field names for the product collection.
const (
	FieldID         = "id"
	FieldText       = "text"
	FieldMetadata   = "metadata"
	FieldCreateTime = "create_time"
	FieldVector     = "vector"
)

// DefaultCollection is the product knowledge collection name.
const DefaultCollection = "medical_products_kb"

// VarChar limits for the collection schema.
const (
	maxIDLength   = "255"
	maxTextLength = "65535"
)

// MilvusStore is a named-collection wrapper around the Milvus client,
// using cosine distance. It implements core.VectorStore.
type MilvusStore struct {
	client     *milvusclient.Client
	collection string
	dim        int
}

// NewMilvusStore connects to Milvus and ensures the named collection
// exists with the expected schema.
func NewMilvusStore(ctx context.Context, addr, collection string, dim int) (*MilvusStore, error) {
	if collection == "" {
		collection = DefaultCollection
	}
	if dim <= 0 {
		return nil, fmt.Errorf("rag: invalid embedding dimension %d", dim)
	}

	logger.Info("Connecting to Milvus at %s (collection %s, dim %d)", addr, collection, dim)
	c, err := milvusclient.New(ctx, &milvusclient.ClientConfig{Address: addr})
	if err != nil {
		return nil, fmt.Errorf("rag: connect to Milvus: %w", err)
	}

	s := &MilvusStore{client: c, collection: collection, dim: dim}
	if err := s.ensureCollection(ctx); err != nil {
		c.Close(ctx)
		return nil, err
	}
	return s, nil
}

// ensureCollection creates the collection, its vector index, and loads
// it into memory if it does not exist yet.
func (s *MilvusStore) ensureCollection(ctx context.Context) error {
	exists, err := s.client.HasCollection(ctx, milvusclient.NewHasCollectionOption(s.collection))
	if err != nil {
		return fmt.Errorf("rag: check collection: %w", err)
	}

	if !exists {
		schema := &entity.Schema{
			CollectionName: s.collection,
			Description:    "Product document vectors for retrieval",
			Fields: []*entity.Field{
				{
					Name:       FieldID,
					DataType:   entity.FieldTypeVarChar,
					PrimaryKey: true,
					AutoID:     false,
					TypeParams: map[string]string{"max_length": maxIDLength},
				},
				{
					Name:       FieldText,
					DataType:   entity.FieldTypeVarChar,
					TypeParams: map[string]string{"max_length": maxTextLength},
				},
				{
					Name:     FieldMetadata,
					DataType: entity.FieldTypeJSON,
				},
				{
					Name:     FieldCreateTime,
					DataType: entity.FieldTypeInt64,
				},
				{
					Name:       FieldVector,
					DataType:   entity.FieldTypeFloatVector,
					TypeParams: map[string]string{"dim": fmt.Sprintf("%d", s.dim)},
				},
			},
		}

		createOpt := milvusclient.NewCreateCollectionOption(s.collection, schema)
		if err := s.client.CreateCollection(ctx, createOpt); err != nil {
			return fmt.Errorf("rag: create collection: %w", err)
		}

		idx := index.NewHNSWIndex(entity.COSINE, 16, 200)
		indexOpt := milvusclient.NewCreateIndexOption(s.collection, FieldVector, idx)
		if _, err := s.client.CreateIndex(ctx, indexOpt); err != nil {
			return fmt.Errorf("rag: create vector index: %w", err)
		}

		logger.Info("Created collection %s", s.collection)
	}

	loadOpt := milvusclient.NewLoadCollectionOption(s.collection)
	if _, err := s.client.LoadCollection(ctx, loadOpt); err != nil {
		return fmt.Errorf("rag: load collection %s: %w", s.collection, err)
	}
	return nil
}

// Add upserts all tuples in one call. The four slices must have equal
// length.
func (s *MilvusStore) Add(ctx context.Context, ids []string, vectors [][]float32, documents []string, metadatas []map[string]any) error {
	if len(ids) != len(vectors) || len(ids) != len(documents) || len(ids) != len(metadatas) {
		return fmt.Errorf("rag: ids, vectors, documents and metadatas must have equal length (%d, %d, %d, %d)",
			len(ids), len(vectors), len(documents), len(metadatas))
	}
	if len(ids) == 0 {
		return fmt.Errorf("rag: nothing to add")
	}

	metaBytes := make([][]byte, len(metadatas))
	for i, m := range metadatas {
		if m == nil {
			m = map[string]any{}
		}
		b, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("rag: marshal metadata for %s: %w", ids[i], err)
		}
		metaBytes[i] = b
	}

	now := time.Now().Unix()
	times := make([]int64, len(ids))
	for i := range times {
		times[i] = now
	}

	upsertOpt := milvusclient.NewColumnBasedInsertOption(s.collection,
		column.NewColumnVarChar(FieldID, ids),
		column.NewColumnVarChar(FieldText, documents),
		column.NewColumnJSONBytes(FieldMetadata, metaBytes),
		column.NewColumnInt64(FieldCreateTime, times),
		column.NewColumnFloatVector(FieldVector, s.dim, vectors),
	)
	if _, err := s.client.Upsert(ctx, upsertOpt); err != nil {
		return fmt.Errorf("rag: upsert %d tuples: %w", len(ids), err)
	}

	logger.Debug("Upserted %d tuples into %s", len(ids), s.collection)
	return nil
}

// Query returns up to k neighbors ranked by ascending cosine distance.
// Milvus reports cosine similarity as the score; distance is 1 - score.
func (s *MilvusStore) Query(ctx context.Context, vector []float32, k int) ([]core.Neighbor, error) {
	if k <= 0 {
		return nil, fmt.Errorf("rag: query k must be positive, got %d", k)
	}

	searchOpt := milvusclient.NewSearchOption(s.collection, k, []entity.Vector{entity.FloatVector(vector)}).
		WithANNSField(FieldVector).
		WithOutputFields(FieldText, FieldMetadata)

	results, err := s.client.Search(ctx, searchOpt)
	if err != nil {
		return nil, fmt.Errorf("rag: search: %w", err)
	}

	var neighbors []core.Neighbor
	for _, rs := range results {
		textCol := rs.GetColumn(FieldText)
		metaCol, _ := rs.GetColumn(FieldMetadata).(*column.ColumnJSONBytes)

		for i := 0; i < rs.ResultCount; i++ {
			n := core.Neighbor{Metadata: map[string]any{}}

			if rs.IDs != nil {
				if id, err := rs.IDs.GetAsString(i); err == nil {
					n.ID = id
				}
			}
			if textCol != nil {
				if text, err := textCol.GetAsString(i); err == nil {
					n.Text = text
				}
			}
			if metaCol != nil && i < len(metaCol.Data()) {
				if err := json.Unmarshal(metaCol.Data()[i], &n.Metadata); err != nil {
					logger.Warn("Unparseable metadata for %s: %v", n.ID, err)
				}
			}
			if i < len(rs.Scores) {
				n.Distance = 1 - float64(rs.Scores[i])
			}

			neighbors = append(neighbors, n)
		}
	}

	return neighbors, nil
}

// Reset drops and recreates the collection. Only the ingestion
// bootstrap calls this; it must never race a live query.
func (s *MilvusStore) Reset(ctx context.Context) error {
	exists, err := s.client.HasCollection(ctx, milvusclient.NewHasCollectionOption(s.collection))
	if err != nil {
		return fmt.Errorf("rag: check collection: %w", err)
	}
	if exists {
		logger.Info("Dropping collection %s", s.collection)
		if err := s.client.DropCollection(ctx, milvusclient.NewDropCollectionOption(s.collection)); err != nil {
			return fmt.Errorf("rag: drop collection: %w", err)
		}
	}
	return s.ensureCollection(ctx)
}

// Close closes the connection to Milvus.
func (s *MilvusStore) Close(ctx context.Context) error {
	return s.client.Close(ctx)
}
