package selector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/siherrmann/fuser/helper"
	"github.com/siherrmann/fuser/model"
	"golang.org/x/sync/errgroup"
)

// toolOutcome captures one collaborator run for trace assembly
type toolOutcome struct {
	hits     []model.Hit
	attempts int
	duration time.Duration
	err      error
}

// Invoke decides the tools for the query, runs them and returns the combined
// hits together with the tool trace. One failing tool in a multi-tool run
// yields partial results; if every invoked tool fails the selector returns
// [model.ErrNoEvidenceAvailable]. Cancellation of ctx discards the trace and
// returns the context error.
func (s *Selector) Invoke(ctx context.Context, query string) ([]model.Hit, model.ToolTrace, error) {
	decision := s.Decide(query)

	switch {
	case decision.UseVector && decision.UseGraph:
		s.state = StateBothPending
	case decision.UseVector:
		s.state = StateVectorOnly
	case decision.UseGraph:
		s.state = StateGraphOnly
	}

	s.log.Debug(
		"tool decision",
		slog.Bool("vector", decision.UseVector),
		slog.Bool("graph", decision.UseGraph),
		slog.Any("cues", decision.CuesMatched),
	)

	var vectorOutcome, graphOutcome toolOutcome
	invokedAt := time.Now()

	group, groupCtx := errgroup.WithContext(ctx)
	if decision.UseVector {
		group.Go(func() error {
			vectorOutcome = s.runTool(groupCtx, model.ToolVectorSearch, func(toolCtx context.Context) ([]model.Hit, error) {
				return s.vector.VectorSearch(toolCtx, query, s.config.VectorLimit, s.config.VectorThreshold)
			})
			return nil
		})
	}
	if decision.UseGraph {
		group.Go(func() error {
			graphOutcome = s.runTool(groupCtx, model.ToolGraphSearch, func(toolCtx context.Context) ([]model.Hit, error) {
				return s.graph.GraphSearch(toolCtx, query, s.config.GraphDepthLimit, s.config.GraphLimit)
			})
			return nil
		})
	}
	// Tool goroutines report failures through their outcome, never the group.
	_ = group.Wait()

	if ctx.Err() != nil {
		s.state = StateFailed
		return nil, nil, ctx.Err()
	}

	trace := model.ToolTrace{}
	trace = append(trace, s.traceEntry(model.ToolVectorSearch, decision.UseVector, decision.VectorReason, invokedAt, vectorOutcome))
	trace = append(trace, s.traceEntry(model.ToolGraphSearch, decision.UseGraph, decision.GraphReason, invokedAt, graphOutcome))

	var hits []model.Hit
	var invoked, failed int
	if decision.UseVector {
		invoked++
		if vectorOutcome.err != nil {
			failed++
		} else {
			hits = append(hits, vectorOutcome.hits...)
		}
	}
	if decision.UseGraph {
		invoked++
		if graphOutcome.err != nil {
			failed++
		} else {
			hits = append(hits, graphOutcome.hits...)
		}
	}

	switch {
	case failed == invoked:
		s.state = StateFailed
		return nil, trace, helper.NewError("tool invocation", model.ErrNoEvidenceAvailable)
	case failed > 0:
		s.state = StatePartialResults
	default:
		s.state = StateCompleted
	}

	return hits, trace, nil
}

// runTool runs one collaborator with the per-tool timeout and retries
// transient failures with exponential backoff. A failed attempt caused by the
// per-tool deadline is classified as a timeout, every other failure as
// unavailability. Parent cancellation stops the retry loop immediately.
func (s *Selector) runTool(ctx context.Context, name model.ToolName, call func(context.Context) ([]model.Hit, error)) toolOutcome {
	outcome := toolOutcome{}
	start := time.Now()

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = s.config.RetryInterval
	// A negative retry count would underflow the unsigned conversion.
	maxRetries := s.config.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	retries := backoff.WithMaxRetries(policy, uint64(maxRetries))

	outcome.err = backoff.Retry(func() error {
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		outcome.attempts++

		toolCtx, cancel := context.WithTimeout(ctx, s.config.PerToolTimeout)
		defer cancel()

		hits, err := call(toolCtx)
		if err != nil {
			return s.classify(ctx, toolCtx, name, err)
		}
		outcome.hits = hits
		return nil
	}, backoff.WithContext(retries, ctx))

	outcome.duration = time.Since(start)
	if outcome.err != nil {
		s.log.Warn("tool failed", slog.String("tool", string(name)), slog.Int("attempts", outcome.attempts), slog.Any("error", outcome.err))
	}
	return outcome
}

// classify maps a collaborator error to the transient error taxonomy
func (s *Selector) classify(parentCtx context.Context, toolCtx context.Context, name model.ToolName, err error) error {
	if parentCtx.Err() != nil {
		return backoff.Permanent(parentCtx.Err())
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(toolCtx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%s after %v: %w", name, s.config.PerToolTimeout, model.ErrCollaboratorTimeout)
	}
	return fmt.Errorf("%s: %v: %w", name, err, model.ErrCollaboratorUnavailable)
}

// traceEntry builds the trace entry for one tool, invoked or skipped
func (s *Selector) traceEntry(name model.ToolName, invoked bool, reason string, invokedAt time.Time, outcome toolOutcome) model.ToolTraceEntry {
	if !invoked {
		return model.ToolTraceEntry{
			ToolName: name,
			Reason:   reason,
			Skipped:  true,
		}
	}
	entry := model.ToolTraceEntry{
		ToolName:    name,
		InvokedAt:   invokedAt,
		Duration:    outcome.duration,
		ResultCount: len(outcome.hits),
		Reason:      reason,
		Attempts:    outcome.attempts,
	}
	if outcome.err != nil {
		entry.Error = outcome.err.Error()
	}
	return entry
}
