package model

import (
	"time"

	"github.com/google/uuid"
)

// Entity represents a named entity (person, place, concept, etc.) in the
// knowledge graph backing the graph collaborator
type Entity struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Type      string    `json:"entity_type"`
	Metadata  Metadata  `json:"metadata,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// EntityEdge represents a relationship between two entities
type EntityEdge struct {
	ID             uuid.UUID `json:"id"`
	SourceEntityID uuid.UUID `json:"source_entity_id"`
	TargetEntityID uuid.UUID `json:"target_entity_id"`
	Relation       string    `json:"relation"`
	Weight         float64   `json:"weight"`
	Metadata       Metadata  `json:"metadata,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// EntityMention links an entity to the document chunk it was extracted from.
// Mentions let graph hits share content refs with vector hits, so the
// deduplicator can recognize the same chunk found by both collaborators.
type EntityMention struct {
	EntityID    uuid.UUID `json:"entity_id"`
	DocumentRID uuid.UUID `json:"document_rid"`
	ChunkIndex  int       `json:"chunk_index"`
	CreatedAt   time.Time `json:"created_at"`
}

// ContentRef returns the content reference of the mentioned chunk
func (m *EntityMention) ContentRef() string {
	return ChunkContentRef(m.DocumentRID, m.ChunkIndex)
}
