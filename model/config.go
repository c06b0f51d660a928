package model

import (
	"fmt"
	"time"
)

// QueryConfig represents configuration for one hybrid query
type QueryConfig struct {
	// Tool selection
	HybridModeEnabled bool     `json:"hybrid_mode_enabled"`
	GraphCueKeywords  []string `json:"graph_cue_keywords,omitempty"`

	// Collaborator call parameters
	VectorLimit     int           `json:"vector_limit"`
	VectorThreshold float64       `json:"vector_threshold,omitempty"`
	GraphLimit      int           `json:"graph_limit"`
	GraphDepthLimit int           `json:"graph_depth_limit"`
	PerToolTimeout  time.Duration `json:"per_tool_timeout"`
	MaxRetries      int           `json:"max_retries"`
	RetryInterval   time.Duration `json:"retry_interval"`

	// Ranking parameters
	SourceWeights      map[SourceType]float64 `json:"source_weights"`
	CorroborationBonus float64                `json:"corroboration_bonus"`
	BoostEnabled       bool                   `json:"boost_enabled"`

	// Context budget for the assembled evidence
	ContextBudget int `json:"context_budget"`
}

// DefaultQueryConfig returns a sensible default configuration
func DefaultQueryConfig() QueryConfig {
	return QueryConfig{
		HybridModeEnabled: true,
		GraphCueKeywords: []string{
			"related to", "relationship", "connected", "connection",
			"linked", "who is", "between", "mentioned in relation",
		},
		VectorLimit:     10,
		VectorThreshold: 0.0,
		GraphLimit:      10,
		GraphDepthLimit: 5,
		PerToolTimeout:  5 * time.Second,
		MaxRetries:      1,
		RetryInterval:   100 * time.Millisecond,
		SourceWeights: map[SourceType]float64{
			SourceTypeVector: 1.0,
			SourceTypeGraph:  1.0,
		},
		CorroborationBonus: 0.1,
		BoostEnabled:       false,
		ContextBudget:      10,
	}
}

// Validate checks the configuration for programmer errors.
// Weight and budget errors match the sentinel errors in errors.go.
func (c *QueryConfig) Validate() error {
	for sourceType, weight := range c.SourceWeights {
		if !sourceType.Valid() {
			return fmt.Errorf("%w: weight for unknown source type %q", ErrInvalidWeightConfig, sourceType)
		}
		if weight < 0 {
			return fmt.Errorf("%w: negative weight %f for source type %q", ErrInvalidWeightConfig, weight, sourceType)
		}
	}
	if c.CorroborationBonus < 0 {
		return fmt.Errorf("%w: negative corroboration bonus %f", ErrInvalidWeightConfig, c.CorroborationBonus)
	}
	if c.ContextBudget <= 0 {
		return fmt.Errorf("%w: budget must be positive, got %d", ErrInvalidBudget, c.ContextBudget)
	}
	return nil
}

// Weight returns the configured weight for a source type, defaulting to 1.0
// when the weight map has no entry for it
func (c *QueryConfig) Weight(t SourceType) float64 {
	if c.SourceWeights == nil {
		return 1.0
	}
	weight, ok := c.SourceWeights[t]
	if !ok {
		return 1.0
	}
	return weight
}
