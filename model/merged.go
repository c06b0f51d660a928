package model

// MergedHit groups all hits referring to the same underlying content.
// ContributingHits is never empty and is ordered by normalized score
// descending. CombinedScore starts as the peak normalized score of the group
// and is adjusted by the ranker (source weights, corroboration, boosts).
type MergedHit struct {
	CanonicalID      string          `json:"canonical_id"`
	ContributingHits []NormalizedHit `json:"contributing_hits"`
	CombinedScore    float64         `json:"combined_score"`
}

// SourceTypes returns the distinct source types among the contributing hits,
// vector before graph for determinism
func (m *MergedHit) SourceTypes() []SourceType {
	var types []SourceType
	if m.HasSourceType(SourceTypeVector) {
		types = append(types, SourceTypeVector)
	}
	if m.HasSourceType(SourceTypeGraph) {
		types = append(types, SourceTypeGraph)
	}
	return types
}

// HasSourceType reports whether any contributing hit came from the given source
func (m *MergedHit) HasSourceType(t SourceType) bool {
	for _, hit := range m.ContributingHits {
		if hit.SourceType == t {
			return true
		}
	}
	return false
}

// Corroborated reports whether independent retrieval strategies agree on this
// content, i.e. the contributing hits span both source types
func (m *MergedHit) Corroborated() bool {
	return m.HasSourceType(SourceTypeVector) && m.HasSourceType(SourceTypeGraph)
}

// Evidence is a ranked list of merged hits, strictly non-increasing by
// combined score with deterministic tie-breaks
type Evidence []*MergedHit
