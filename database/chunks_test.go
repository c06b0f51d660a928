package database

import (
	"context"
	"fmt"
	"testing"

	"github.com/siherrmann/fuser/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func insertTestDocument(t *testing.T, documents *DocumentsDBHandler, title string) *model.Document {
	doc := &model.Document{
		Title:    title,
		Source:   "test.txt",
		Metadata: map[string]interface{}{},
	}
	err := documents.InsertDocument(doc)
	require.NoError(t, err)
	t.Cleanup(func() { documents.DeleteDocument(doc.RID) })
	return doc
}

func insertTestChunk(t *testing.T, chunks *ChunksDBHandler, doc *model.Document, content string, index int) *model.Chunk {
	embedding, err := chunks.embed(content)
	require.NoError(t, err)

	chunk := &model.Chunk{
		DocumentID: doc.ID,
		Content:    content,
		Embedding:  embedding,
		ChunkIndex: index,
		Metadata:   map[string]interface{}{},
	}
	err = chunks.InsertChunk(chunk)
	require.NoError(t, err)
	return chunk
}

func TestChunksNewChunksDBHandler(t *testing.T) {
	database := initDB(t)

	t.Run("Valid call NewChunksDBHandler", func(t *testing.T) {
		_, err := NewDocumentsDBHandler(database, true)
		require.NoError(t, err)

		chunksDbHandler, err := NewChunksDBHandler(database, testEmbedder(), testEmbeddingDim, true)
		assert.NoError(t, err, "Expected NewChunksDBHandler to not return an error")
		require.NotNil(t, chunksDbHandler, "Expected NewChunksDBHandler to return a non-nil instance")
	})

	t.Run("Invalid call NewChunksDBHandler with nil database", func(t *testing.T) {
		_, err := NewChunksDBHandler(nil, testEmbedder(), testEmbeddingDim, false)
		assert.Error(t, err, "Expected error when creating ChunksDBHandler with nil database")
		assert.Contains(t, err.Error(), "database connection is nil")
	})

	t.Run("Invalid call NewChunksDBHandler with nil embedder", func(t *testing.T) {
		_, err := NewChunksDBHandler(database, nil, testEmbeddingDim, false)
		assert.Error(t, err, "Expected error when creating ChunksDBHandler with nil embedder")
		assert.Contains(t, err.Error(), "embedder is nil")
	})
}

func TestChunksInsertAndSelect(t *testing.T) {
	documents, chunks, _ := initHandlers(t)
	doc := insertTestDocument(t, documents, "Chunk Test Document")

	t.Run("Insert chunk", func(t *testing.T) {
		chunk := insertTestChunk(t, chunks, doc, "some chunk content", 0)
		assert.NotZero(t, chunk.ID, "Expected inserted chunk to have an ID")
		assert.Equal(t, doc.RID, chunk.DocumentRID, "Expected document RID filled from the document")
		assert.NotZero(t, chunk.CreatedAt, "Expected CreatedAt to be set")
	})

	t.Run("Select chunk by ID", func(t *testing.T) {
		chunk := insertTestChunk(t, chunks, doc, "another chunk", 1)

		retrieved, err := chunks.SelectChunk(chunk.ID)
		assert.NoError(t, err)
		assert.Equal(t, chunk.Content, retrieved.Content)
		assert.Equal(t, chunk.ChunkIndex, retrieved.ChunkIndex)
		assert.Equal(t, doc.RID, retrieved.DocumentRID)
	})

	t.Run("Select chunks by document", func(t *testing.T) {
		retrieved, err := chunks.SelectChunksByDocument(doc.RID)
		assert.NoError(t, err)
		assert.GreaterOrEqual(t, len(retrieved), 2, "Expected both inserted chunks")
	})

	t.Run("Delete chunk", func(t *testing.T) {
		chunk := insertTestChunk(t, chunks, doc, "chunk to delete", 2)

		err := chunks.DeleteChunk(chunk.ID)
		assert.NoError(t, err)

		_, err = chunks.SelectChunk(chunk.ID)
		assert.Error(t, err, "Expected error selecting deleted chunk")
	})
}

func TestChunksVectorSearch(t *testing.T) {
	documents, chunks, _ := initHandlers(t)
	doc := insertTestDocument(t, documents, "Search Test Document")

	contents := []string{
		"the quick brown fox jumps over the lazy dog",
		"vector similarity search in postgres",
		"entity graphs connect related concepts",
	}
	for i, content := range contents {
		insertTestChunk(t, chunks, doc, content, i)
	}

	t.Run("VectorSearch returns hits with content refs", func(t *testing.T) {
		hits, err := chunks.VectorSearch(context.Background(), "vector similarity search in postgres", 10, 0.0)
		assert.NoError(t, err)
		require.NotEmpty(t, hits, "Expected at least one hit")

		for _, hit := range hits {
			assert.Equal(t, model.SourceTypeVector, hit.SourceType, "Expected vector source type")
			assert.Contains(t, hit.ContentRef, doc.RID.String(), "Expected content ref to carry the document RID")
			assert.Contains(t, hit.ContentRef, "#chunk", "Expected content ref in document#chunkN format")
			assert.NotEmpty(t, hit.Payload, "Expected chunk content as payload")
		}
	})

	t.Run("VectorSearch respects the limit", func(t *testing.T) {
		hits, err := chunks.VectorSearch(context.Background(), "postgres", 1, 0.0)
		assert.NoError(t, err)
		assert.LessOrEqual(t, len(hits), 1, "Expected at most one hit")
	})

	t.Run("VectorSearch hits carry bounded similarities", func(t *testing.T) {
		hits, err := chunks.VectorSearch(context.Background(), "quick brown fox", 10, 0.0)
		assert.NoError(t, err)
		for _, hit := range hits {
			assert.GreaterOrEqual(t, hit.RawScore, 0.0, fmt.Sprintf("Expected non-negative similarity for %s", hit.ContentRef))
			assert.LessOrEqual(t, hit.RawScore, 1.0, fmt.Sprintf("Expected similarity bounded by 1.0 for %s", hit.ContentRef))
		}
	})
}
