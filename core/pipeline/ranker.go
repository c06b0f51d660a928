package pipeline

import (
	"fmt"
	"sort"

	"github.com/siherrmann/fuser/model"
)

// BoostFunc supplies an optional recency/centrality boost factor for a
// canonical ID. Returning ok=false means no boost data is available, which
// is equivalent to a factor of 1.0.
type BoostFunc func(canonicalID string) (float64, bool)

// Ranker combines normalized scores with source-type weighting, a
// corroboration bonus and optional per-item boost factors into a single
// deterministic ordering. The ranker never removes items; truncation is the
// assembler's job.
type Ranker struct {
	weights            map[model.SourceType]float64
	corroborationBonus float64
}

// NewRanker creates a ranker from a weight map and corroboration bonus.
// A nil weight map means weight 1.0 for every source type. Negative weights,
// weights for unknown source types and a negative bonus are rejected.
func NewRanker(weights map[model.SourceType]float64, corroborationBonus float64) (*Ranker, error) {
	for sourceType, weight := range weights {
		if !sourceType.Valid() {
			return nil, fmt.Errorf("%w: weight for unknown source type %q", model.ErrInvalidWeightConfig, sourceType)
		}
		if weight < 0 {
			return nil, fmt.Errorf("%w: negative weight %f for source type %q", model.ErrInvalidWeightConfig, weight, sourceType)
		}
	}
	if corroborationBonus < 0 {
		return nil, fmt.Errorf("%w: negative corroboration bonus %f", model.ErrInvalidWeightConfig, corroborationBonus)
	}

	return &Ranker{
		weights:            weights,
		corroborationBonus: corroborationBonus,
	}, nil
}

// Rank adjusts the combined score of every merged hit and sorts them.
// The adjusted score is the peak weighted contribution, raised by the
// corroboration bonus (capped at 1.0, never decreasing) when the hit is
// confirmed by both source types, then multiplied by the boost factor.
// Ties break by more contributing source types first, then canonical ID
// ascending, so identical inputs always rank identically.
func (r *Ranker) Rank(merged []*model.MergedHit, boost BoostFunc) (model.Evidence, error) {
	evidence := make(model.Evidence, 0, len(merged))

	for _, hit := range merged {
		score := 0.0
		for _, contribution := range hit.ContributingHits {
			weighted := contribution.NormalizedScore * r.weight(contribution.SourceType)
			if weighted > score {
				score = weighted
			}
		}

		// Agreement between independent retrieval strategies is stronger
		// evidence than either alone.
		if hit.Corroborated() {
			boosted := score + r.corroborationBonus
			if boosted > 1.0 {
				boosted = 1.0
			}
			if boosted > score {
				score = boosted
			}
		}

		if boost != nil {
			if factor, ok := boost(hit.CanonicalID); ok {
				score *= factor
			}
		}

		hit.CombinedScore = score
		evidence = append(evidence, hit)
	}

	sort.SliceStable(evidence, func(i, j int) bool {
		a, b := evidence[i], evidence[j]
		if a.CombinedScore != b.CombinedScore {
			return a.CombinedScore > b.CombinedScore
		}
		if len(a.SourceTypes()) != len(b.SourceTypes()) {
			return len(a.SourceTypes()) > len(b.SourceTypes())
		}
		return a.CanonicalID < b.CanonicalID
	})

	return evidence, nil
}

// weight returns the configured weight for a source type, defaulting to 1.0
func (r *Ranker) weight(t model.SourceType) float64 {
	if r.weights == nil {
		return 1.0
	}
	weight, ok := r.weights[t]
	if !ok {
		return 1.0
	}
	return weight
}
