package model

import "strings"

// SourceType identifies which search collaborator produced a hit
type SourceType string

const (
	SourceTypeVector SourceType = "vector"
	SourceTypeGraph  SourceType = "graph"
)

// Valid reports whether the source type is one of the known collaborators
func (s SourceType) Valid() bool {
	return s == SourceTypeVector || s == SourceTypeGraph
}

// Hit represents one raw result from a single search collaborator.
// Hits are immutable once received from a collaborator.
type Hit struct {
	SourceID   string     `json:"source_id"`
	SourceType SourceType `json:"source_type"`
	RawScore   float64    `json:"raw_score"`
	ContentRef string     `json:"content_ref"` // Chunk or entity identifier
	Payload    string     `json:"payload,omitempty"`
	Metadata   Metadata   `json:"metadata,omitempty"`
}

// NormalizedHit is a Hit with its score rescaled onto [0, 1]
type NormalizedHit struct {
	Hit
	NormalizedScore float64 `json:"normalized_score"`
}

// CanonicalID derives the identifier used to recognize the same underlying
// content across sources. Two hits are duplicates iff their content refs are
// equal after normalization (trim and lowercase).
// Returns an empty string for empty or whitespace-only refs.
func CanonicalID(contentRef string) string {
	return strings.ToLower(strings.TrimSpace(contentRef))
}
