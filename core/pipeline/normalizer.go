package pipeline

import (
	"fmt"

	"github.com/siherrmann/fuser/model"
)

// DefaultGraphDepthLimit is the divisor for graph match-count normalization
// when no depth limit is configured
const DefaultGraphDepthLimit = 5

// Normalizer rescales heterogeneous raw scores from different collaborators
// onto a common [0, 1] scale. Normalization is a pure function of the input
// batch; a Normalizer holds only configuration.
type Normalizer struct {
	depthLimit int
}

// NewNormalizer creates a normalizer. depthLimit is the graph traversal depth
// limit used as divisor for match-count scores; values <= 0 fall back to the
// default.
func NewNormalizer(depthLimit int) *Normalizer {
	if depthLimit <= 0 {
		depthLimit = DefaultGraphDepthLimit
	}
	return &Normalizer{depthLimit: depthLimit}
}

// Normalize returns one normalized hit per input hit, in input order.
// Vector scores are passed through when the whole vector sub-batch already
// lies in [0, 1] and min-max rescaled within the batch otherwise. Graph
// scores are treated as traversal match counts and mapped with
// min(1, count/depthLimit). An empty input yields an empty output without
// error; a hit with an unknown source type fails the whole batch.
func (n *Normalizer) Normalize(hits []model.Hit) ([]model.NormalizedHit, error) {
	normalized := make([]model.NormalizedHit, 0, len(hits))
	if len(hits) == 0 {
		return normalized, nil
	}

	for _, hit := range hits {
		if !hit.SourceType.Valid() {
			return nil, fmt.Errorf("%w: %q", model.ErrUnknownSourceType, hit.SourceType)
		}
	}

	vectorScale := vectorBatchScale(hits)

	for _, hit := range hits {
		var score float64
		switch hit.SourceType {
		case model.SourceTypeVector:
			score = vectorScale(hit.RawScore)
		case model.SourceTypeGraph:
			score = n.graphScore(hit.RawScore)
		}

		normalized = append(normalized, model.NormalizedHit{
			Hit:             hit,
			NormalizedScore: score,
		})
	}

	return normalized, nil
}

// graphScore maps a traversal match count onto [0, 1]
func (n *Normalizer) graphScore(matchCount float64) float64 {
	if matchCount <= 0 {
		return 0.0
	}
	score := matchCount / float64(n.depthLimit)
	if score > 1.0 {
		return 1.0
	}
	return score
}

// vectorBatchScale returns the scaling function for the vector hits of a
// batch: identity when all vector scores are already bounded in [0, 1],
// otherwise linear min-max within the batch. A degenerate batch where all
// scores are equal maps to 1.0.
func vectorBatchScale(hits []model.Hit) func(float64) float64 {
	minScore, maxScore := 0.0, 0.0
	bounded := true
	first := true

	for _, hit := range hits {
		if hit.SourceType != model.SourceTypeVector {
			continue
		}
		if first {
			minScore, maxScore = hit.RawScore, hit.RawScore
			first = false
		} else {
			if hit.RawScore < minScore {
				minScore = hit.RawScore
			}
			if hit.RawScore > maxScore {
				maxScore = hit.RawScore
			}
		}
		if hit.RawScore < 0.0 || hit.RawScore > 1.0 {
			bounded = false
		}
	}

	if bounded {
		return func(raw float64) float64 { return raw }
	}

	if maxScore == minScore {
		return func(raw float64) float64 { return 1.0 }
	}

	scoreRange := maxScore - minScore
	return func(raw float64) float64 {
		return (raw - minScore) / scoreRange
	}
}
