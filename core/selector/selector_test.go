package selector

import (
	"testing"

	"github.com/siherrmann/fuser/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectorDecide(t *testing.T) {
	t.Run("Hybrid mode invokes both tools", func(t *testing.T) {
		config := model.DefaultQueryConfig()
		sel := NewSelector(nil, nil, config, nil)

		decision := sel.Decide("what is vector search")
		assert.True(t, decision.UseVector, "Expected vector search in hybrid mode")
		assert.True(t, decision.UseGraph, "Expected graph search in hybrid mode")
		assert.Empty(t, decision.CuesMatched)
	})

	t.Run("Hybrid mode records matched cues", func(t *testing.T) {
		config := model.DefaultQueryConfig()
		sel := NewSelector(nil, nil, config, nil)

		decision := sel.Decide("How is Ada related to Babbage?")
		assert.True(t, decision.UseVector)
		assert.True(t, decision.UseGraph)
		assert.Contains(t, decision.CuesMatched, "related to", "Expected cue match recorded")
		assert.Contains(t, decision.GraphReason, "related to")
	})

	t.Run("Graph cues route to graph search when hybrid mode is off", func(t *testing.T) {
		config := model.DefaultQueryConfig()
		config.HybridModeEnabled = false
		sel := NewSelector(nil, nil, config, nil)

		decision := sel.Decide("What is the relationship between Ada and Babbage?")
		assert.False(t, decision.UseVector, "Expected vector search skipped")
		assert.True(t, decision.UseGraph, "Expected graph search for cue query")
		require.NotEmpty(t, decision.CuesMatched)
		assert.Contains(t, decision.CuesMatched, "relationship")
		assert.Contains(t, decision.CuesMatched, "between")
	})

	t.Run("No cues route to vector search when hybrid mode is off", func(t *testing.T) {
		config := model.DefaultQueryConfig()
		config.HybridModeEnabled = false
		sel := NewSelector(nil, nil, config, nil)

		decision := sel.Decide("summarize the architecture document")
		assert.True(t, decision.UseVector, "Expected vector search as default")
		assert.False(t, decision.UseGraph, "Expected graph search skipped without cues")
		assert.Empty(t, decision.CuesMatched)
	})

	t.Run("Cue matching is case insensitive", func(t *testing.T) {
		config := model.DefaultQueryConfig()
		config.HybridModeEnabled = false
		sel := NewSelector(nil, nil, config, nil)

		decision := sel.Decide("WHO IS Charles Babbage?")
		assert.True(t, decision.UseGraph, "Expected case-insensitive cue match")
		assert.Contains(t, decision.CuesMatched, "who is")
	})

	t.Run("New selector starts in the initial state", func(t *testing.T) {
		sel := NewSelector(nil, nil, model.DefaultQueryConfig(), nil)
		assert.Equal(t, StateInitial, sel.State())
	})
}
