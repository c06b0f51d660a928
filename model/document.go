package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Document represents a source document backing the reference collaborators.
// Chunks of a document are addressed as "<rid>#chunk<index>", which is the
// content ref format shared by the vector and graph collaborators.
type Document struct {
	ID        int64     `json:"id"`
	RID       uuid.UUID `json:"rid"`
	Title     string    `json:"title"`
	Source    string    `json:"source,omitempty"`
	Metadata  Metadata  `json:"metadata,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Chunk represents a document chunk stored with its embedding
type Chunk struct {
	ID          int64     `json:"id"`
	DocumentID  int64     `json:"document_id"`
	DocumentRID uuid.UUID `json:"document_rid"`
	Content     string    `json:"content"`
	Embedding   []float32 `json:"embedding,omitempty"`
	ChunkIndex  int       `json:"chunk_index"`
	Metadata    Metadata  `json:"metadata,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	// Results
	Similarity float64 `json:"similarity,omitempty"`
}

// ContentRef returns the cross-source content reference of the chunk
func (c *Chunk) ContentRef() string {
	return ChunkContentRef(c.DocumentRID, c.ChunkIndex)
}

// ChunkContentRef builds the content reference for a chunk of a document
func ChunkContentRef(documentRID uuid.UUID, chunkIndex int) string {
	return fmt.Sprintf("%s#chunk%d", documentRID, chunkIndex)
}
