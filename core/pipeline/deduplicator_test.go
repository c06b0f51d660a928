package pipeline

import (
	"testing"

	"github.com/siherrmann/fuser/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func normalizedHit(id string, sourceType model.SourceType, ref string, score float64) model.NormalizedHit {
	return model.NormalizedHit{
		Hit: model.Hit{
			SourceID:   id,
			SourceType: sourceType,
			ContentRef: ref,
		},
		NormalizedScore: score,
	}
}

func TestDeduplicatorMerge(t *testing.T) {
	deduplicator := NewDeduplicator()

	t.Run("Same chunk from both sources collapses into one merged hit", func(t *testing.T) {
		hits := []model.NormalizedHit{
			normalizedHit("v1", model.SourceTypeVector, "doc42#chunk3", 0.9),
			normalizedHit("g1", model.SourceTypeGraph, "doc42#chunk3", 0.6),
		}

		merged, err := deduplicator.Merge(hits)
		require.NoError(t, err)
		require.Len(t, merged, 1, "Expected duplicates across sources to merge into one hit")

		hit := merged[0]
		assert.Equal(t, "doc42#chunk3", hit.CanonicalID, "Expected canonical ID from content ref")
		assert.Len(t, hit.ContributingHits, 2, "Expected both contributions preserved")
		assert.True(t, hit.Corroborated(), "Expected merged hit to be corroborated")
		assert.Equal(t, 0.9, hit.CombinedScore, "Expected combined score to be the peak contribution")
	})

	t.Run("Canonical ID ignores case and surrounding whitespace", func(t *testing.T) {
		hits := []model.NormalizedHit{
			normalizedHit("v1", model.SourceTypeVector, "Doc42#Chunk3", 0.9),
			normalizedHit("g1", model.SourceTypeGraph, "  doc42#chunk3 ", 0.6),
		}

		merged, err := deduplicator.Merge(hits)
		require.NoError(t, err)
		require.Len(t, merged, 1, "Expected refs differing only in case and whitespace to merge")
		assert.Equal(t, "doc42#chunk3", merged[0].CanonicalID)
	})

	t.Run("Distinct refs stay separate in first-seen order", func(t *testing.T) {
		hits := []model.NormalizedHit{
			normalizedHit("v1", model.SourceTypeVector, "doc1#chunk0", 0.5),
			normalizedHit("v2", model.SourceTypeVector, "doc2#chunk0", 0.9),
			normalizedHit("g1", model.SourceTypeGraph, "doc3#chunk0", 0.4),
		}

		merged, err := deduplicator.Merge(hits)
		require.NoError(t, err)
		require.Len(t, merged, 3)
		assert.Equal(t, "doc1#chunk0", merged[0].CanonicalID, "Expected first-seen order")
		assert.Equal(t, "doc2#chunk0", merged[1].CanonicalID, "Expected first-seen order")
		assert.Equal(t, "doc3#chunk0", merged[2].CanonicalID, "Expected first-seen order")
	})

	t.Run("Contributing hits are ordered by score descending", func(t *testing.T) {
		hits := []model.NormalizedHit{
			normalizedHit("g1", model.SourceTypeGraph, "doc1#chunk0", 0.4),
			normalizedHit("v1", model.SourceTypeVector, "doc1#chunk0", 0.9),
			normalizedHit("g2", model.SourceTypeGraph, "doc1#chunk0", 0.6),
		}

		merged, err := deduplicator.Merge(hits)
		require.NoError(t, err)
		require.Len(t, merged, 1)
		require.Len(t, merged[0].ContributingHits, 3)
		assert.Equal(t, "v1", merged[0].ContributingHits[0].SourceID)
		assert.Equal(t, "g2", merged[0].ContributingHits[1].SourceID)
		assert.Equal(t, "g1", merged[0].ContributingHits[2].SourceID)
	})

	t.Run("Empty content ref fails the batch", func(t *testing.T) {
		hits := []model.NormalizedHit{
			normalizedHit("v1", model.SourceTypeVector, "   ", 0.9),
		}

		_, err := deduplicator.Merge(hits)
		assert.Error(t, err, "Expected Merge to return an error for empty content ref")
		assert.ErrorIs(t, err, model.ErrInvalidContentRef, "Expected ErrInvalidContentRef")
	})

	t.Run("Merging twice gives identical output", func(t *testing.T) {
		hits := []model.NormalizedHit{
			normalizedHit("v1", model.SourceTypeVector, "doc1#chunk0", 0.9),
			normalizedHit("g1", model.SourceTypeGraph, "doc1#chunk0", 0.6),
			normalizedHit("v2", model.SourceTypeVector, "doc2#chunk0", 0.5),
		}

		first, err := deduplicator.Merge(hits)
		require.NoError(t, err)
		second, err := deduplicator.Merge(hits)
		require.NoError(t, err)
		assert.Equal(t, first, second, "Expected identical output for identical input")
	})
}
