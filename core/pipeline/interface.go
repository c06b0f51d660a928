package pipeline

import (
	"log/slog"

	"github.com/siherrmann/fuser/model"
)

// Pipeline chains the ranking stages: normalize, deduplicate, rank, assemble.
// A pipeline is a pure function of its input batch and configuration; it
// holds no per-query state and is safe for concurrent use.
type Pipeline struct {
	Normalizer   *Normalizer
	Deduplicator *Deduplicator
	Ranker       *Ranker
	Assembler    *Assembler
	log          *slog.Logger
}

// NewPipeline creates a pipeline from a query configuration.
// Configuration errors (negative weights, non-positive budget) surface here
// rather than mid-query.
func NewPipeline(config model.QueryConfig, logger *slog.Logger) (*Pipeline, error) {
	ranker, err := NewRanker(config.SourceWeights, config.CorroborationBonus)
	if err != nil {
		return nil, err
	}

	assembler, err := NewAssembler(config.ContextBudget)
	if err != nil {
		return nil, err
	}

	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Pipeline{
		Normalizer:   NewNormalizer(config.GraphDepthLimit),
		Deduplicator: NewDeduplicator(),
		Ranker:       ranker,
		Assembler:    assembler,
		log:          logger,
	}, nil
}

// Run executes all stages on a batch of raw hits and returns the bounded
// evidence set. boost may be nil when no boost data is available; trace is
// attached to the result unchanged.
func (p *Pipeline) Run(hits []model.Hit, boost BoostFunc, trace model.ToolTrace) (*AssembledEvidence, error) {
	normalized, err := p.Normalizer.Normalize(hits)
	if err != nil {
		return nil, err
	}

	merged, err := p.Deduplicator.Merge(normalized)
	if err != nil {
		return nil, err
	}

	evidence, err := p.Ranker.Rank(merged, boost)
	if err != nil {
		return nil, err
	}

	assembled := p.Assembler.Assemble(evidence, trace)

	p.log.Debug("Pipeline run completed",
		slog.Int("raw_hits", len(hits)),
		slog.Int("merged", len(merged)),
		slog.Int("assembled", len(assembled.Evidence)),
		slog.Bool("is_sparse", assembled.IsSparse))

	return assembled, nil
}
