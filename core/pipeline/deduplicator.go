package pipeline

import (
	"fmt"
	"sort"

	"github.com/siherrmann/fuser/model"
)

// Deduplicator merges hits referring to the same underlying content across
// sources. A hit found by both the vector and the graph collaborator
// collapses into one merged hit carrying both contributions.
type Deduplicator struct{}

// NewDeduplicator creates a new deduplicator
func NewDeduplicator() *Deduplicator {
	return &Deduplicator{}
}

// Merge groups normalized hits by canonical ID. Groups keep the first-seen
// order of their canonical IDs so repeated runs on identical input produce
// identical output. Within a group the contributing hits are ordered by
// normalized score descending (source ID ascending on ties) and the combined
// score starts as the peak normalized score: content confirmed by multiple
// sources is never penalized for duplication, only rewarded later by the
// ranker's corroboration bonus.
func (d *Deduplicator) Merge(hits []model.NormalizedHit) ([]*model.MergedHit, error) {
	merged := make([]*model.MergedHit, 0, len(hits))
	groups := make(map[string]*model.MergedHit, len(hits))

	for _, hit := range hits {
		canonicalID := model.CanonicalID(hit.ContentRef)
		if canonicalID == "" {
			return nil, fmt.Errorf("%w: empty content ref from %s hit %q", model.ErrInvalidContentRef, hit.SourceType, hit.SourceID)
		}

		group, exists := groups[canonicalID]
		if !exists {
			group = &model.MergedHit{CanonicalID: canonicalID}
			groups[canonicalID] = group
			merged = append(merged, group)
		}
		group.ContributingHits = append(group.ContributingHits, hit)
	}

	for _, group := range merged {
		sort.SliceStable(group.ContributingHits, func(i, j int) bool {
			a, b := group.ContributingHits[i], group.ContributingHits[j]
			if a.NormalizedScore != b.NormalizedScore {
				return a.NormalizedScore > b.NormalizedScore
			}
			return a.SourceID < b.SourceID
		})
		group.CombinedScore = group.ContributingHits[0].NormalizedScore
	}

	return merged, nil
}
