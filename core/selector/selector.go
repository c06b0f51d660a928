package selector

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/siherrmann/fuser/model"
)

// VectorSearcher is the vector similarity search collaborator.
// Implementations return hits with source type vector.
type VectorSearcher interface {
	VectorSearch(ctx context.Context, query string, limit int, threshold float64) ([]model.Hit, error)
}

// GraphSearcher is the knowledge graph search collaborator.
// Implementations return hits with source type graph and match counts as raw
// scores.
type GraphSearcher interface {
	GraphSearch(ctx context.Context, query string, depth int, limit int) ([]model.Hit, error)
}

// BoostProvider supplies optional recency/centrality boost factors per
// canonical ID. Absence of boost data is not an error.
type BoostProvider interface {
	Boost(ctx context.Context, canonicalID string) (float64, bool)
}

// State represents the tool selection state over one query
type State string

const (
	StateInitial        State = "initial"
	StateVectorOnly     State = "vector_only"
	StateGraphOnly      State = "graph_only"
	StateBothPending    State = "both_pending"
	StateCompleted      State = "completed"
	StatePartialResults State = "partial_results"
	StateFailed         State = "failed"
)

// Decision records which tools to invoke for a query and why
type Decision struct {
	UseVector    bool
	UseGraph     bool
	VectorReason string
	GraphReason  string
	CuesMatched  []string
}

// Selector decides per query whether to invoke vector search, graph search
// or both, runs the chosen collaborators and records a tool trace.
// A selector is scoped to one query; it is not safe for concurrent use.
type Selector struct {
	vector VectorSearcher
	graph  GraphSearcher
	config model.QueryConfig
	state  State
	log    *slog.Logger
}

// NewSelector creates a selector for one query
func NewSelector(vector VectorSearcher, graph GraphSearcher, config model.QueryConfig, logger *slog.Logger) *Selector {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Selector{
		vector: vector,
		graph:  graph,
		config: config,
		state:  StateInitial,
		log:    logger,
	}
}

// State returns the current selection state
func (s *Selector) State() State {
	return s.state
}

// Decide inspects the query for graph-oriented cues and the hybrid mode flag
// and returns the tool decision. Hybrid mode (the default) invokes both
// collaborators; without it, graph cues route to graph search alone and all
// other queries to vector search alone.
func (s *Selector) Decide(query string) Decision {
	cues := s.matchCues(query)

	if s.config.HybridModeEnabled {
		reason := "hybrid mode enabled"
		if len(cues) > 0 {
			reason = fmt.Sprintf("hybrid mode enabled, graph cues matched: %s", strings.Join(cues, ", "))
		}
		return Decision{
			UseVector:    true,
			UseGraph:     true,
			VectorReason: reason,
			GraphReason:  reason,
			CuesMatched:  cues,
		}
	}

	if len(cues) > 0 {
		cueList := strings.Join(cues, ", ")
		return Decision{
			UseGraph:     true,
			GraphReason:  fmt.Sprintf("graph cues matched: %s", cueList),
			VectorReason: fmt.Sprintf("skipped, query routed to graph search by cues: %s", cueList),
			CuesMatched:  cues,
		}
	}

	return Decision{
		UseVector:    true,
		VectorReason: "no graph cues detected, defaulting to vector search",
		GraphReason:  "skipped, no graph cues detected and hybrid mode disabled",
	}
}

// matchCues returns the configured graph cue keywords found in the query
func (s *Selector) matchCues(query string) []string {
	queryLower := strings.ToLower(query)

	var matched []string
	for _, cue := range s.config.GraphCueKeywords {
		if cue == "" {
			continue
		}
		if strings.Contains(queryLower, strings.ToLower(cue)) {
			matched = append(matched, cue)
		}
	}
	return matched
}
