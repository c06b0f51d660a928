package selector

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/siherrmann/fuser/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type vectorFunc func(ctx context.Context, query string, limit int, threshold float64) ([]model.Hit, error)

func (f vectorFunc) VectorSearch(ctx context.Context, query string, limit int, threshold float64) ([]model.Hit, error) {
	return f(ctx, query, limit, threshold)
}

type graphFunc func(ctx context.Context, query string, depth int, limit int) ([]model.Hit, error)

func (f graphFunc) GraphSearch(ctx context.Context, query string, depth int, limit int) ([]model.Hit, error) {
	return f(ctx, query, depth, limit)
}

func staticVector(hits ...model.Hit) vectorFunc {
	return func(ctx context.Context, query string, limit int, threshold float64) ([]model.Hit, error) {
		return hits, nil
	}
}

func staticGraph(hits ...model.Hit) graphFunc {
	return func(ctx context.Context, query string, depth int, limit int) ([]model.Hit, error) {
		return hits, nil
	}
}

func testHit(sourceType model.SourceType, ref string, score float64) model.Hit {
	return model.Hit{
		SourceID:   fmt.Sprintf("%s:%s", sourceType, ref),
		SourceType: sourceType,
		RawScore:   score,
		ContentRef: ref,
	}
}

// fastConfig keeps timeouts and retry intervals short for tests
func fastConfig() model.QueryConfig {
	config := model.DefaultQueryConfig()
	config.PerToolTimeout = 100 * time.Millisecond
	config.RetryInterval = 5 * time.Millisecond
	return config
}

func TestSelectorInvoke(t *testing.T) {
	t.Run("Both tools succeed", func(t *testing.T) {
		vector := staticVector(testHit(model.SourceTypeVector, "doc1#chunk0", 0.9))
		graph := staticGraph(testHit(model.SourceTypeGraph, "doc2#chunk0", 3))
		sel := NewSelector(vector, graph, fastConfig(), nil)

		hits, trace, err := sel.Invoke(context.Background(), "what links ada and babbage")
		require.NoError(t, err)
		assert.Equal(t, StateCompleted, sel.State())
		assert.Len(t, hits, 2, "Expected hits from both tools combined")

		require.Len(t, trace, 2, "Expected one trace entry per tool")
		assert.Equal(t, model.ToolVectorSearch, trace[0].ToolName, "Expected vector entry first")
		assert.Equal(t, model.ToolGraphSearch, trace[1].ToolName)
		for _, entry := range trace {
			assert.False(t, entry.Skipped)
			assert.Equal(t, 1, entry.Attempts, "Expected a single attempt on success")
			assert.Equal(t, 1, entry.ResultCount)
			assert.Empty(t, entry.Error)
		}
	})

	t.Run("Skipped tool gets a trace entry with a reason", func(t *testing.T) {
		config := fastConfig()
		config.HybridModeEnabled = false
		vector := staticVector(testHit(model.SourceTypeVector, "doc1#chunk0", 0.9))
		sel := NewSelector(vector, staticGraph(), config, nil)

		hits, trace, err := sel.Invoke(context.Background(), "summarize the report")
		require.NoError(t, err)
		assert.Equal(t, StateCompleted, sel.State())
		assert.Len(t, hits, 1)

		require.Len(t, trace, 2)
		graphEntry := trace.Entry(model.ToolGraphSearch)
		require.NotNil(t, graphEntry)
		assert.True(t, graphEntry.Skipped, "Expected graph entry marked skipped")
		assert.NotEmpty(t, graphEntry.Reason, "Expected skip reason")
		assert.Len(t, trace.Invoked(), 1, "Expected only the vector tool invoked")
	})

	t.Run("One failing tool yields partial results", func(t *testing.T) {
		config := fastConfig()
		config.MaxRetries = 0
		vector := staticVector(testHit(model.SourceTypeVector, "doc1#chunk0", 0.9))
		graph := graphFunc(func(ctx context.Context, query string, depth int, limit int) ([]model.Hit, error) {
			return nil, fmt.Errorf("connection refused")
		})
		sel := NewSelector(vector, graph, config, nil)

		hits, trace, err := sel.Invoke(context.Background(), "query")
		require.NoError(t, err, "Expected partial results without error")
		assert.Equal(t, StatePartialResults, sel.State())
		assert.Len(t, hits, 1, "Expected only the successful tool's hits")

		graphEntry := trace.Entry(model.ToolGraphSearch)
		require.NotNil(t, graphEntry)
		assert.Contains(t, graphEntry.Error, model.ErrCollaboratorUnavailable.Error(),
			"Expected failure classified as unavailability")
	})

	t.Run("Per-tool timeout yields partial results with a timeout error", func(t *testing.T) {
		config := fastConfig()
		config.MaxRetries = 0
		vector := staticVector(testHit(model.SourceTypeVector, "doc1#chunk0", 0.9))
		graph := graphFunc(func(ctx context.Context, query string, depth int, limit int) ([]model.Hit, error) {
			select {
			case <-time.After(time.Second):
				return nil, nil
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		})
		sel := NewSelector(vector, graph, config, nil)

		hits, trace, err := sel.Invoke(context.Background(), "query")
		require.NoError(t, err)
		assert.Equal(t, StatePartialResults, sel.State())
		assert.Len(t, hits, 1, "Expected vector hits despite graph timeout")

		graphEntry := trace.Entry(model.ToolGraphSearch)
		require.NotNil(t, graphEntry)
		assert.Contains(t, graphEntry.Error, model.ErrCollaboratorTimeout.Error(),
			"Expected failure classified as timeout")
	})

	t.Run("Transient failure is retried once", func(t *testing.T) {
		var calls atomic.Int32
		vector := vectorFunc(func(ctx context.Context, query string, limit int, threshold float64) ([]model.Hit, error) {
			if calls.Add(1) == 1 {
				return nil, fmt.Errorf("connection reset")
			}
			return []model.Hit{testHit(model.SourceTypeVector, "doc1#chunk0", 0.9)}, nil
		})
		sel := NewSelector(vector, staticGraph(), fastConfig(), nil)

		hits, trace, err := sel.Invoke(context.Background(), "query")
		require.NoError(t, err)
		assert.Equal(t, StateCompleted, sel.State())
		assert.Len(t, hits, 1)

		vectorEntry := trace.Entry(model.ToolVectorSearch)
		require.NotNil(t, vectorEntry)
		assert.Equal(t, 2, vectorEntry.Attempts, "Expected a retry after the transient failure")
		assert.Empty(t, vectorEntry.Error, "Expected no error after successful retry")
	})

	t.Run("Retries are bounded", func(t *testing.T) {
		var calls atomic.Int32
		vector := vectorFunc(func(ctx context.Context, query string, limit int, threshold float64) ([]model.Hit, error) {
			calls.Add(1)
			return nil, fmt.Errorf("connection reset")
		})
		graph := staticGraph(testHit(model.SourceTypeGraph, "doc2#chunk0", 2))
		sel := NewSelector(vector, graph, fastConfig(), nil)

		_, trace, err := sel.Invoke(context.Background(), "query")
		require.NoError(t, err)
		assert.Equal(t, StatePartialResults, sel.State())
		assert.Equal(t, int32(2), calls.Load(), "Expected initial attempt plus one retry")

		vectorEntry := trace.Entry(model.ToolVectorSearch)
		require.NotNil(t, vectorEntry)
		assert.Equal(t, 2, vectorEntry.Attempts)
	})

	t.Run("Negative retry count behaves like zero retries", func(t *testing.T) {
		config := fastConfig()
		config.MaxRetries = -1
		var calls atomic.Int32
		vector := vectorFunc(func(ctx context.Context, query string, limit int, threshold float64) ([]model.Hit, error) {
			calls.Add(1)
			return nil, fmt.Errorf("connection reset")
		})
		graph := staticGraph(testHit(model.SourceTypeGraph, "doc2#chunk0", 2))
		sel := NewSelector(vector, graph, config, nil)

		_, trace, err := sel.Invoke(context.Background(), "query")
		require.NoError(t, err)
		assert.Equal(t, StatePartialResults, sel.State())
		assert.Equal(t, int32(1), calls.Load(), "Expected a single attempt without retries")

		vectorEntry := trace.Entry(model.ToolVectorSearch)
		require.NotNil(t, vectorEntry)
		assert.Equal(t, 1, vectorEntry.Attempts)
	})

	t.Run("All tools failing surfaces ErrNoEvidenceAvailable with the trace", func(t *testing.T) {
		config := fastConfig()
		config.MaxRetries = 0
		vector := vectorFunc(func(ctx context.Context, query string, limit int, threshold float64) ([]model.Hit, error) {
			return nil, fmt.Errorf("connection refused")
		})
		graph := graphFunc(func(ctx context.Context, query string, depth int, limit int) ([]model.Hit, error) {
			return nil, fmt.Errorf("connection refused")
		})
		sel := NewSelector(vector, graph, config, nil)

		hits, trace, err := sel.Invoke(context.Background(), "query")
		assert.ErrorIs(t, err, model.ErrNoEvidenceAvailable, "Expected ErrNoEvidenceAvailable when every tool fails")
		assert.Equal(t, StateFailed, sel.State())
		assert.Empty(t, hits)
		require.Len(t, trace, 2, "Expected failure trace preserved for diagnosis")
		assert.NotEmpty(t, trace[0].Error)
		assert.NotEmpty(t, trace[1].Error)
	})

	t.Run("Cancellation discards the trace", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		vector := vectorFunc(func(ctx context.Context, query string, limit int, threshold float64) ([]model.Hit, error) {
			cancel()
			<-ctx.Done()
			return nil, ctx.Err()
		})
		graph := staticGraph(testHit(model.SourceTypeGraph, "doc2#chunk0", 2))
		sel := NewSelector(vector, graph, fastConfig(), nil)

		hits, trace, err := sel.Invoke(ctx, "query")
		assert.ErrorIs(t, err, context.Canceled, "Expected the context error")
		assert.Equal(t, StateFailed, sel.State())
		assert.Nil(t, hits, "Expected no partial hits after cancellation")
		assert.Nil(t, trace, "Expected no trace after cancellation")
	})
}
